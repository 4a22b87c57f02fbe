// Copyright (c) 2018-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fees

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"lukechampine.com/blake3"
)

// Selector chooses which settlement currency pays a fee.
type Selector uint8

const (
	// SelectorConsumer charges the whole fee to the consumer balance.
	SelectorConsumer Selector = iota

	// SelectorIndustrial charges the whole fee to the industrial balance.
	SelectorIndustrial

	// SelectorSplit charges half to each, the odd unit going to consumer.
	SelectorSplit

	// selectorReserved is the first invalid selector value.
	selectorReserved
)

// MaxFee is the largest fee that may be decomposed.
const MaxFee = 1<<63 - 1

var (
	// ErrInvalidSelector is returned for selector values other than the
	// three defined ones.
	ErrInvalidSelector = errors.New("invalid fee selector")

	// ErrFeeTooLarge is returned for fees that are not below 2^63.
	ErrFeeTooLarge = errors.New("fee too large")
)

// String returns the selector as a human-readable name.
func (s Selector) String() string {
	switch s {
	case SelectorConsumer:
		return "consumer"
	case SelectorIndustrial:
		return "industrial"
	case SelectorSplit:
		return "split"
	}
	return fmt.Sprintf("Selector(%d)", uint8(s))
}

// IsValid returns whether the selector is one of the defined values.
func (s Selector) IsValid() bool {
	return s < selectorReserved
}

// Decompose splits fee into its consumer and industrial components according
// to sel.  On success consumer+industrial == fee.
func Decompose(sel Selector, fee uint64) (consumer, industrial uint64, err error) {
	if fee > MaxFee {
		return 0, 0, fmt.Errorf("%w: %d exceeds %d", ErrFeeTooLarge, fee,
			uint64(MaxFee))
	}

	switch sel {
	case SelectorConsumer:
		return fee, 0, nil

	case SelectorIndustrial:
		return 0, fee, nil

	case SelectorSplit:
		industrial = fee / 2
		return fee - industrial, industrial, nil
	}

	return 0, 0, fmt.Errorf("%w: %d", ErrInvalidSelector, uint8(sel))
}

// Checksum commits to a pair of per-block fee totals.  It is the blake3 hash
// of both totals as little endian 64-bit integers.
func Checksum(consumer, industrial uint64) chainhash.Hash {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], consumer)
	binary.LittleEndian.PutUint64(buf[8:], industrial)
	return chainhash.Hash(blake3.Sum256(buf[:]))
}
