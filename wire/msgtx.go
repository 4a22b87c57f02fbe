// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"lukechampine.com/blake3"
)

const (
	// TxVersion is the current latest supported transaction version.
	TxVersion = 1

	// MaxMemoLen is the maximum number of bytes a transaction memo may
	// carry.
	MaxMemoLen = 256

	// MaxAddressLen is the maximum length of a sender or recipient
	// address.
	MaxAddressLen = 128

	// maxKeyLen bounds the public key and signature fields.
	maxKeyLen = 128
)

var (
	// txIDTag prefixes the preimage of every transaction id.
	txIDTag = []byte("TX")

	// sigHashTag domain-separates the signed payload from any other
	// message signed with the same key.
	sigHashTag = []byte("laned/tx-sighash/v1")
)

// MsgTx is a signed two-currency transfer.  The fee is charged against the
// consumer and industrial balances according to FeeSelector.
type MsgTx struct {
	Version          uint8
	From             string
	To               string
	AmountConsumer   uint64
	AmountIndustrial uint64
	Fee              uint64
	FeeSelector      uint8
	Nonce            uint64
	Memo             []byte
	PubKey           []byte
	Signature        []byte
}

// NewMsgTx returns a new transaction with the current version and no
// payload.
func NewMsgTx() *MsgTx {
	return &MsgTx{Version: TxVersion}
}

// Copy creates a deep copy of a transaction so that the original does not get
// modified when the copy is manipulated.
func (msg *MsgTx) Copy() *MsgTx {
	newTx := *msg
	newTx.Memo = append([]byte(nil), msg.Memo...)
	newTx.PubKey = append([]byte(nil), msg.PubKey...)
	newTx.Signature = append([]byte(nil), msg.Signature...)
	return &newTx
}

// writePayload encodes everything covered by the signature.
func (msg *MsgTx) writePayload(w io.Writer) error {
	if err := writeUint8(w, msg.Version); err != nil {
		return err
	}
	if err := WriteVarBytes(w, []byte(msg.From)); err != nil {
		return err
	}
	if err := WriteVarBytes(w, []byte(msg.To)); err != nil {
		return err
	}
	for _, v := range []uint64{msg.AmountConsumer, msg.AmountIndustrial, msg.Fee} {
		if err := writeUint64(w, v); err != nil {
			return err
		}
	}
	if err := writeUint8(w, msg.FeeSelector); err != nil {
		return err
	}
	if err := writeUint64(w, msg.Nonce); err != nil {
		return err
	}
	return WriteVarBytes(w, msg.Memo)
}

// Serialize encodes the transaction to w in the canonical format used both on
// the wire and in the entry log.
func (msg *MsgTx) Serialize(w io.Writer) error {
	if err := msg.writePayload(w); err != nil {
		return err
	}
	if err := WriteVarBytes(w, msg.PubKey); err != nil {
		return err
	}
	return WriteVarBytes(w, msg.Signature)
}

// Deserialize decodes a transaction from r into the receiver.
func (msg *MsgTx) Deserialize(r io.Reader) error {
	var err error
	if msg.Version, err = readUint8(r); err != nil {
		return err
	}
	from, err := ReadVarBytes(r, MaxAddressLen, "from address")
	if err != nil {
		return err
	}
	to, err := ReadVarBytes(r, MaxAddressLen, "to address")
	if err != nil {
		return err
	}
	msg.From, msg.To = string(from), string(to)

	if msg.AmountConsumer, err = readUint64(r); err != nil {
		return err
	}
	if msg.AmountIndustrial, err = readUint64(r); err != nil {
		return err
	}
	if msg.Fee, err = readUint64(r); err != nil {
		return err
	}
	if msg.FeeSelector, err = readUint8(r); err != nil {
		return err
	}
	if msg.Nonce, err = readUint64(r); err != nil {
		return err
	}
	if msg.Memo, err = ReadVarBytes(r, MaxMemoLen, "memo"); err != nil {
		return err
	}
	if msg.PubKey, err = ReadVarBytes(r, maxKeyLen, "public key"); err != nil {
		return err
	}
	msg.Signature, err = ReadVarBytes(r, maxKeyLen, "signature")
	return err
}

// CheckLimits returns a *MessageError naming the first variable length field
// that Deserialize would refuse to read back.
func (msg *MsgTx) CheckLimits() error {
	fields := []struct {
		name string
		n    int
		max  int
	}{
		{"from address", len(msg.From), MaxAddressLen},
		{"to address", len(msg.To), MaxAddressLen},
		{"memo", len(msg.Memo), MaxMemoLen},
		{"public key", len(msg.PubKey), maxKeyLen},
		{"signature", len(msg.Signature), maxKeyLen},
	}
	for _, f := range fields {
		if f.n > f.max {
			str := fmt.Sprintf("%s is larger than the max allowed "+
				"size [count %d, max %d]", f.name, f.n, f.max)
			return messageError("CheckLimits", str)
		}
	}
	return nil
}

// Bytes returns the serialized transaction.
func (msg *MsgTx) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(msg.SerializeSize())
	_ = msg.Serialize(&buf)
	return buf.Bytes()
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction.
func (msg *MsgTx) SerializeSize() int {
	// Version 1 byte + 3 amounts 24 bytes + selector 1 byte + nonce 8 bytes.
	n := 34
	n += varBytesSerializeSize([]byte(msg.From))
	n += varBytesSerializeSize([]byte(msg.To))
	n += varBytesSerializeSize(msg.Memo)
	n += varBytesSerializeSize(msg.PubKey)
	n += varBytesSerializeSize(msg.Signature)
	return n
}

// SigHashBytes returns the domain-tagged message a sender signs.
func (msg *MsgTx) SigHashBytes() []byte {
	var buf bytes.Buffer
	buf.Write(sigHashTag)
	_ = msg.writePayload(&buf)
	return buf.Bytes()
}

// TxHash returns the transaction id: blake3 over the payload and the signing
// key.  The signature itself is excluded so the id is stable across
// re-signing with the same key.
func (msg *MsgTx) TxHash() chainhash.Hash {
	h := blake3.New(chainhash.HashSize, nil)
	h.Write(txIDTag)
	_ = msg.writePayload(h)
	h.Write(msg.PubKey)

	var hash chainhash.Hash
	copy(hash[:], h.Sum(nil))
	return hash
}
