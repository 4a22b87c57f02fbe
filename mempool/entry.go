// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"bytes"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/laned/fees"
	"github.com/btcsuite/laned/ledger"
	"github.com/btcsuite/laned/wire"
)

// Entry is a transaction queued in a lane along with the metadata derived at
// admission.  Entries are never modified once they are visible outside the
// pool lock.
type Entry struct {
	// Tx is the queued transaction.
	Tx *wire.MsgTx

	// Hash is the transaction id.
	Hash chainhash.Hash

	// Lane is the fee class the entry was admitted to.
	Lane Lane

	// Sender and Nonce form the uniqueness key within a lane.
	Sender string
	Nonce  uint64

	// Fee and Selector are copied from the transaction.  FeeConsumer and
	// FeeIndustrial are its decomposition.
	Fee           uint64
	Selector      fees.Selector
	FeeConsumer   uint64
	FeeIndustrial uint64

	// Size is the serialized size of Tx and FeePerByte is Fee/Size.
	Size       int
	FeePerByte uint64

	// Added is when the entry was first admitted and Expiry is when it
	// becomes eligible for purging.
	Added  time.Time
	Expiry time.Time

	// Seq is the pool-wide insertion sequence, used as the final
	// tie-break and as the persistence key.
	Seq uint64

	reservation ledger.ReservationID

	// orphan is set by the purge pass when the sender no longer resolves.
	orphan bool
}

// calcFeePerByte returns fee divided by size, or zero for an empty
// transaction.
func calcFeePerByte(fee uint64, size int) uint64 {
	if size <= 0 {
		return 0
	}
	return fee / uint64(size)
}

// compareEntries orders entries best first: higher fee-per-byte, then sooner
// expiry, then lower transaction id, then earlier insertion.  Distinct
// entries never compare equal.
func compareEntries(a, b *Entry) int {
	switch {
	case a.FeePerByte > b.FeePerByte:
		return -1
	case a.FeePerByte < b.FeePerByte:
		return 1
	}

	if !a.Expiry.Equal(b.Expiry) {
		if a.Expiry.Before(b.Expiry) {
			return -1
		}
		return 1
	}

	if c := bytes.Compare(a.Hash[:], b.Hash[:]); c != 0 {
		return c
	}

	switch {
	case a.Seq < b.Seq:
		return -1
	case a.Seq > b.Seq:
		return 1
	}
	return 0
}

// senderNonce is the uniqueness key of an entry within a lane.
type senderNonce struct {
	sender string
	nonce  uint64
}
