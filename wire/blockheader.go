// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BlockHeaderLen is the number of bytes in a serialized block header.
// Height 8 bytes + Timestamp 8 bytes + Difficulty 8 bytes + PrevBlock 32
// bytes + FeeConsumer 8 bytes + FeeIndustrial 8 bytes + FeeChecksum 32 bytes
// + Nonce 8 bytes.
const BlockHeaderLen = 48 + chainhash.HashSize*2

// BlockHeader defines information about a block.
type BlockHeader struct {
	// Height is the block height in the block chain.
	Height uint64

	// Timestamp is the block creation time in milliseconds since the unix
	// epoch.
	Timestamp int64

	// Difficulty is the proof-of-work difficulty declared by the miner.
	Difficulty uint64

	// Hash of the previous block in the block chain.
	PrevBlock chainhash.Hash

	// FeeConsumer and FeeIndustrial are the declared per-block fee totals
	// in each settlement currency.
	FeeConsumer   uint64
	FeeIndustrial uint64

	// FeeChecksum commits to the two fee totals.
	FeeChecksum chainhash.Hash

	// Nonce used to generate the block.
	Nonce uint64
}

// BlockHash computes the block identifier hash for the given block header.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	buf := bytes.NewBuffer(make([]byte, 0, BlockHeaderLen))
	_ = writeBlockHeader(buf, h)

	return chainhash.DoubleHashH(buf.Bytes())
}

// Serialize encodes a block header into w.
func (h *BlockHeader) Serialize(w io.Writer) error {
	return writeBlockHeader(w, h)
}

// Deserialize decodes a block header from r into the receiver.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	return readBlockHeader(r, h)
}

func readBlockHeader(r io.Reader, bh *BlockHeader) error {
	var err error
	if bh.Height, err = readUint64(r); err != nil {
		return err
	}
	ts, err := readUint64(r)
	if err != nil {
		return err
	}
	bh.Timestamp = int64(ts)
	if bh.Difficulty, err = readUint64(r); err != nil {
		return err
	}
	if err := readHash(r, &bh.PrevBlock); err != nil {
		return err
	}
	if bh.FeeConsumer, err = readUint64(r); err != nil {
		return err
	}
	if bh.FeeIndustrial, err = readUint64(r); err != nil {
		return err
	}
	if err := readHash(r, &bh.FeeChecksum); err != nil {
		return err
	}
	bh.Nonce, err = readUint64(r)
	return err
}

func writeBlockHeader(w io.Writer, bh *BlockHeader) error {
	for _, v := range []uint64{bh.Height, uint64(bh.Timestamp), bh.Difficulty} {
		if err := writeUint64(w, v); err != nil {
			return err
		}
	}
	if err := writeHash(w, &bh.PrevBlock); err != nil {
		return err
	}
	if err := writeUint64(w, bh.FeeConsumer); err != nil {
		return err
	}
	if err := writeUint64(w, bh.FeeIndustrial); err != nil {
		return err
	}
	if err := writeHash(w, &bh.FeeChecksum); err != nil {
		return err
	}
	return writeUint64(w, bh.Nonce)
}
