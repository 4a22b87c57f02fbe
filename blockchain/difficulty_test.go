// Copyright (c) 2014-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math"
	"testing"

	"github.com/btcsuite/laned/chaincfg"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// evenTimestamps returns n timestamps spaced interval milliseconds apart.
func evenTimestamps(n int, start, interval int64) []int64 {
	ts := make([]int64, n)
	for i := range ts {
		ts[i] = start + int64(i)*interval
	}
	return ts
}

// TestNextDifficulty ensures the retarget clamps and scales as documented.
func TestNextDifficulty(t *testing.T) {
	t.Parallel()

	params := &chaincfg.MainNetParams
	tests := []struct {
		name       string
		timestamps []int64
		prev       uint64
		want       uint64
	}{
		{
			name:       "slow blocks at the upper clamp",
			timestamps: evenTimestamps(120, 1_700_000_000_000, 4000),
			prev:       1000,
			want:       4000,
		},
		{
			name:       "fast blocks clamped to a quarter",
			timestamps: evenTimestamps(120, 1_700_000_000_000, 100),
			prev:       1000,
			want:       250,
		},
		{
			name:       "on target",
			timestamps: evenTimestamps(120, 0, 1000),
			prev:       777,
			want:       777,
		},
		{
			name:       "very slow blocks beyond the clamp",
			timestamps: evenTimestamps(120, 0, 60_000),
			prev:       1000,
			want:       4000,
		},
		{
			name:       "ratio truncates toward zero",
			timestamps: []int64{0, 1500, 2500},
			prev:       3,
			want:       3,
		},
		{
			name:       "ratio 1.25",
			timestamps: []int64{0, 2500},
			prev:       1001,
			want:       2502,
		},
		{
			name:       "only the window is used",
			timestamps: append([]int64{-1_000_000_000}, evenTimestamps(120, 0, 2000)...),
			prev:       1000,
			want:       2000,
		},
		{
			name:       "non-increasing history",
			timestamps: []int64{5000, 5000, 4000},
			prev:       1000,
			want:       250,
		},
		{
			name:       "single timestamp",
			timestamps: []int64{42},
			prev:       1000,
			want:       1000,
		},
		{
			name: "no history",
			prev: 9,
			want: 9,
		},
		{
			name:       "floored at the minimum",
			timestamps: []int64{0, 10},
			prev:       1,
			want:       1,
		},
		{
			name:       "saturates",
			timestamps: []int64{0, 4000},
			prev:       math.MaxUint64 - 1,
			want:       math.MaxUint64,
		},
		{
			name:       "extreme timestamps",
			timestamps: []int64{math.MinInt64, math.MaxInt64},
			prev:       10,
			want:       40,
		},
	}

	t.Logf("Running %d tests", len(tests))
	for _, test := range tests {
		got := NextDifficulty(test.timestamps, test.prev, params)
		require.Equal(t, test.want, got, test.name)
	}
}

// TestNextDifficultyProperties checks the retarget is deterministic and
// stays within the adjustment bounds.
func TestNextDifficultyProperties(t *testing.T) {
	t.Parallel()

	params := &chaincfg.SimNetParams
	rapid.Check(t, func(rt *rapid.T) {
		timestamps := rapid.SliceOfN(
			rapid.Int64Range(0, 1<<40), 2, 30).Draw(rt, "timestamps")
		prev := rapid.Uint64Range(1, 1<<60).Draw(rt, "prev")

		got := NextDifficulty(timestamps, prev, params)
		again := NextDifficulty(append([]int64(nil), timestamps...), prev, params)
		require.Equal(rt, got, again)

		factor := uint64(params.RetargetAdjustmentFactor)
		lower := prev / factor
		if lower < params.MinDifficulty {
			lower = params.MinDifficulty
		}
		require.GreaterOrEqual(rt, got, lower)
		require.LessOrEqual(rt, got, prev*factor)
	})
}
