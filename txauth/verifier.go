// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauth

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/laned/wire"
)

// Verifier is a yes/no signature oracle.
type Verifier interface {
	VerifySignature(payload, sig, pubKey []byte) bool
}

// SchnorrVerifier checks BIP-340 signatures over the sha256 of the payload.
type SchnorrVerifier struct{}

// Ensure SchnorrVerifier implements the Verifier interface.
var _ Verifier = SchnorrVerifier{}

// VerifySignature returns whether sig is a valid signature of payload by
// the x-only public key pubKey.  Malformed keys or signatures are simply
// invalid.
func (SchnorrVerifier) VerifySignature(payload, sig, pubKey []byte) bool {
	pk, err := schnorr.ParsePubKey(pubKey)
	if err != nil {
		return false
	}
	s, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false
	}
	return s.Verify(chainhash.HashB(payload), pk)
}

// SignTx fills in the public key and signature of tx using privKey.
func SignTx(privKey *btcec.PrivateKey, tx *wire.MsgTx) error {
	tx.PubKey = schnorr.SerializePubKey(privKey.PubKey())
	sig, err := schnorr.Sign(privKey, chainhash.HashB(tx.SigHashBytes()))
	if err != nil {
		return err
	}
	tx.Signature = sig.Serialize()
	return nil
}

// VerifyTx checks the signature of tx against its embedded key.  It does not
// check that the key belongs to tx.From; the ledger owns that binding.
func VerifyTx(v Verifier, tx *wire.MsgTx) bool {
	return v.VerifySignature(tx.SigHashBytes(), tx.Signature, tx.PubKey)
}
