// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/holiman/uint256"
)

// Tip describes the head of a candidate chain.
type Tip struct {
	// Height is the height of the tip block.
	Height uint64

	// Weight is the cumulative weight of the chain up to and including
	// the tip, the sum of every block's difficulty.
	Weight uint256.Int

	// Hash is the hash of the tip block.
	Hash chainhash.Hash
}

// CompareTips returns a positive number when a is the better tip, a negative
// number when b is, and zero only when both describe the same tip.  Greater
// height wins, then greater cumulative weight, then the lexicographically
// greater hash over its raw bytes.
func CompareTips(a, b *Tip) int {
	switch {
	case a.Height > b.Height:
		return 1
	case a.Height < b.Height:
		return -1
	}
	if c := a.Weight.Cmp(&b.Weight); c != 0 {
		return c
	}
	return bytes.Compare(a.Hash[:], b.Hash[:])
}

// ChooseTip returns the best of the candidate tips.  The order is total, so
// the winner does not depend on the order of candidates.
//
// This function is pure and safe for concurrent access.
func ChooseTip(candidates []Tip) (Tip, error) {
	if len(candidates) == 0 {
		return Tip{}, ruleError(ErrNoCandidates, "no candidate tips to "+
			"choose from")
	}

	best := &candidates[0]
	for i := 1; i < len(candidates); i++ {
		if CompareTips(&candidates[i], best) > 0 {
			best = &candidates[i]
		}
	}
	return *best, nil
}
