// Copyright (c) 2017 The btcsuite developers
// Copyright (c) 2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"sync"

	"github.com/btcsuite/laned/wire"
	"github.com/holiman/uint256"
)

// ChainView is the read-only chain history a block is validated against.
type ChainView interface {
	// TipHeader returns the header of the block a new block must extend,
	// or false when the chain is empty.
	TipHeader() (wire.BlockHeader, bool)

	// Timestamps returns the timestamps of up to n most recent blocks,
	// oldest first, ending with the tip.
	Timestamps(n int) []int64
}

// HeaderChain provides a flat view of a single branch of block headers from
// the genesis block to its tip along with the branch's cumulative weight.
//
// It is safe for concurrent access.
type HeaderChain struct {
	mtx     sync.RWMutex
	headers []wire.BlockHeader
	weight  uint256.Int
}

// Ensure HeaderChain implements the ChainView interface.
var _ ChainView = (*HeaderChain)(nil)

// NewHeaderChain returns an empty header chain.
func NewHeaderChain() *HeaderChain {
	return &HeaderChain{}
}

// tipHeader returns the tip header.  This only differs from the exported
// version in that it is up to the caller to ensure the lock is held.
//
// This function MUST be called with the view mutex locked (for reads).
func (c *HeaderChain) tipHeader() (wire.BlockHeader, bool) {
	if len(c.headers) == 0 {
		return wire.BlockHeader{}, false
	}
	return c.headers[len(c.headers)-1], true
}

// TipHeader returns the header of the current tip.
//
// This function is safe for concurrent access.
func (c *HeaderChain) TipHeader() (wire.BlockHeader, bool) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.tipHeader()
}

// Timestamps returns the timestamps of up to n most recent headers, oldest
// first.
//
// This function is safe for concurrent access.
func (c *HeaderChain) Timestamps(n int) []int64 {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	start := len(c.headers) - n
	if start < 0 {
		start = 0
	}
	out := make([]int64, 0, len(c.headers)-start)
	for i := start; i < len(c.headers); i++ {
		out = append(out, c.headers[i].Timestamp)
	}
	return out
}

// Height returns the number of headers in the chain.
//
// This function is safe for concurrent access.
func (c *HeaderChain) Height() int {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return len(c.headers)
}

// Connect appends header to the chain.  The header must extend the current
// tip; contextual validity is the caller's responsibility, normally through
// Validator.ValidateBlock.
//
// This function is safe for concurrent access.
func (c *HeaderChain) Connect(header *wire.BlockHeader) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if tip, ok := c.tipHeader(); ok {
		if header.PrevBlock != tip.BlockHash() {
			return AssertError(fmt.Sprintf("header %v does not extend "+
				"tip %v", header.BlockHash(), tip.BlockHash()))
		}
	}

	c.headers = append(c.headers, *header)
	c.weight.Add(&c.weight, uint256.NewInt(header.Difficulty))
	return nil
}

// Tip returns the fork-choice description of the chain's tip.  The zero Tip
// is returned for an empty chain.
//
// This function is safe for concurrent access.
func (c *HeaderChain) Tip() Tip {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	tip, ok := c.tipHeader()
	if !ok {
		return Tip{}
	}
	return Tip{
		Height: tip.Height,
		Weight: c.weight,
		Hash:   tip.BlockHash(),
	}
}
