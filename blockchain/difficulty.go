// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math"

	"github.com/btcsuite/laned/chaincfg"
	"github.com/holiman/uint256"
)

// NextDifficulty calculates the difficulty required of the block that
// follows the most recent of the passed block timestamps (milliseconds,
// oldest first).  Only the final params.RetargetWindow timestamps are used.
//
// The average interval between consecutive timestamps is compared with the
// target spacing and the ratio is clamped to
// [1/RetargetAdjustmentFactor, RetargetAdjustmentFactor].  The result is
//
//	prev * clampedSpan / ((n-1) * targetSpacing)
//
// computed in 256-bit integer arithmetic and truncated toward zero, so every
// node produces the identical value from identical input.  The result
// saturates at math.MaxUint64 and never drops below params.MinDifficulty.
// With fewer than two timestamps there is no interval to measure and prev is
// returned unchanged.
//
// This function is pure and safe for concurrent access.
func NextDifficulty(timestamps []int64, prev uint64, params *chaincfg.Params) uint64 {
	if window := params.RetargetWindow; window > 0 && len(timestamps) > window {
		timestamps = timestamps[len(timestamps)-window:]
	}
	n := len(timestamps)
	if n < 2 {
		return prev
	}

	// The sum of the consecutive deltas telescopes to the span between
	// the oldest and newest timestamp.  A non-increasing history is as
	// fast as it gets and takes the lower clamp.
	first, last := timestamps[0], timestamps[n-1]
	var span uint64
	if last > first {
		span = uint64(last) - uint64(first)
	}

	intervals := uint256.NewInt(uint64(n - 1))
	expected := new(uint256.Int).Mul(intervals,
		uint256.NewInt(uint64(params.TargetSpacingMillis())))
	factor := uint256.NewInt(uint64(params.RetargetAdjustmentFactor))
	actual := uint256.NewInt(span)

	// Clamp the ratio actual/expected to [1/factor, factor] without
	// dividing, then scale prev by the clamped ratio.
	next := uint256.NewInt(prev)
	switch {
	case new(uint256.Int).Mul(actual, factor).Lt(expected):
		next.Div(next, factor)

	case actual.Gt(new(uint256.Int).Mul(expected, factor)):
		next.Mul(next, factor)

	default:
		next.Mul(next, actual)
		next.Div(next, expected)
	}

	result := uint64(math.MaxUint64)
	if next.IsUint64() {
		result = next.Uint64()
	}
	if result < params.MinDifficulty {
		result = params.MinDifficulty
	}

	log.Debugf("Difficulty retarget over %d timestamps: span %d ms, "+
		"expected %s ms, %d -> %d", n, span, expected.Dec(), prev,
		result)

	return result
}
