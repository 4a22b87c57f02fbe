// Copyright (c) 2018-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fees

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestDecompose tests the fixed selector cases including the odd split.
func TestDecompose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		sel        Selector
		fee        uint64
		consumer   uint64
		industrial uint64
		err        error
	}{
		{"consumer", SelectorConsumer, 10, 10, 0, nil},
		{"industrial", SelectorIndustrial, 10, 0, 10, nil},
		{"split even", SelectorSplit, 10, 5, 5, nil},
		{"split odd", SelectorSplit, 7, 4, 3, nil},
		{"split one", SelectorSplit, 1, 1, 0, nil},
		{"zero fee", SelectorSplit, 0, 0, 0, nil},
		{"max fee", SelectorSplit, MaxFee, 1 << 62, 1<<62 - 1, nil},
		{"reserved selector", selectorReserved, 10, 0, 0, ErrInvalidSelector},
		{"large selector", Selector(200), 10, 0, 0, ErrInvalidSelector},
		{"fee at 2^63", SelectorConsumer, 1 << 63, 0, 0, ErrFeeTooLarge},
		{"fee too large beats bad selector", Selector(9), 1 << 63, 0, 0,
			ErrFeeTooLarge},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			c, i, err := Decompose(test.sel, test.fee)
			if test.err != nil {
				require.ErrorIs(t, err, test.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.consumer, c)
			require.Equal(t, test.industrial, i)
		})
	}
}

// TestDecomposeSupplyNeutral checks that no valid decomposition creates or
// destroys value.
func TestDecomposeSupplyNeutral(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		sel := Selector(rapid.Uint8Range(0, 2).Draw(t, "sel"))
		fee := rapid.Uint64Range(0, MaxFee).Draw(t, "fee")

		c, i, err := Decompose(sel, fee)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c+i != fee {
			t.Fatalf("%v: %d + %d != %d", sel, c, i, fee)
		}
		if sel == SelectorSplit && (c < i || c-i > 1) {
			t.Fatalf("uneven split %d/%d", c, i)
		}
	})
}

// TestDecomposeRejects checks every invalid input fails with no components.
func TestDecomposeRejects(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		sel := Selector(rapid.Uint8().Draw(t, "sel"))
		fee := rapid.Uint64().Draw(t, "fee")
		if sel.IsValid() && fee <= MaxFee {
			t.Skip("valid input")
		}

		c, i, err := Decompose(sel, fee)
		if err == nil || c != 0 || i != 0 {
			t.Fatalf("Decompose(%v, %d) = %d, %d, %v", sel, fee, c, i, err)
		}
		if fee > MaxFee && !errors.Is(err, ErrFeeTooLarge) {
			t.Fatalf("expected fee too large, got %v", err)
		}
	})
}

// TestChecksum ensures the fee checksum binds both totals and their order.
func TestChecksum(t *testing.T) {
	t.Parallel()

	require.Equal(t, Checksum(4, 3), Checksum(4, 3))
	require.NotEqual(t, Checksum(4, 3), Checksum(3, 4))
	require.NotEqual(t, Checksum(0, 0), Checksum(0, 1))
}

// TestSelectorStringer tests the stringized output for the Selector type.
func TestSelectorStringer(t *testing.T) {
	t.Parallel()

	require.Equal(t, "consumer", SelectorConsumer.String())
	require.Equal(t, "industrial", SelectorIndustrial.String())
	require.Equal(t, "split", SelectorSplit.String())
	require.Equal(t, "Selector(3)", selectorReserved.String())
}
