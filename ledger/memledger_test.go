// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestMemLedgerReserve exercises the hold lifecycle.
func TestMemLedgerReserve(t *testing.T) {
	t.Parallel()

	l := NewMemLedger()
	l.AddAccount(Account{Address: "a", Consumer: 100, Industrial: 10})

	_, err := l.Reserve("nobody", 1, 1)
	require.ErrorIs(t, err, ErrAccountNotFound)

	id1, err := l.Reserve("a", 60, 5)
	require.NoError(t, err)

	// Holds accumulate against the same balance.
	_, err = l.Reserve("a", 41, 0)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	id2, err := l.Reserve("a", 40, 5)
	require.NoError(t, err)
	c, i := l.Held("a")
	require.Equal(t, uint64(100), c)
	require.Equal(t, uint64(10), i)
	require.Equal(t, 2, l.Outstanding())

	require.NoError(t, l.Release(id1))
	require.ErrorIs(t, l.Release(id1), ErrUnknownReservation)

	require.NoError(t, l.Commit(id2))
	acct, err := l.Account("a")
	require.NoError(t, err)
	require.Equal(t, uint64(60), acct.Consumer)
	require.Equal(t, uint64(5), acct.Industrial)
	require.Zero(t, l.Outstanding())
}

// TestMemLedgerOverflow ensures held totals that would wrap are rejected.
func TestMemLedgerOverflow(t *testing.T) {
	t.Parallel()

	l := NewMemLedger()
	l.AddAccount(Account{Address: "a", Consumer: math.MaxUint64})

	_, err := l.Reserve("a", math.MaxUint64, 0)
	require.NoError(t, err)
	_, err = l.Reserve("a", 1, 0)
	require.ErrorIs(t, err, ErrBalanceOverflow)
}

// TestMemLedgerRemovedAccount ensures holds on a removed account can still be
// released or committed.
func TestMemLedgerRemovedAccount(t *testing.T) {
	t.Parallel()

	l := NewMemLedger()
	l.AddAccount(Account{Address: "a", Consumer: 5, Industrial: 5})
	id1, err := l.Reserve("a", 1, 1)
	require.NoError(t, err)
	id2, err := l.Reserve("a", 1, 1)
	require.NoError(t, err)

	l.RemoveAccount("a")
	require.ErrorIs(t, l.SetNonce("a", 3), ErrAccountNotFound)
	require.NoError(t, l.Release(id1))
	require.NoError(t, l.Commit(id2))
	require.Zero(t, l.Outstanding())
}
