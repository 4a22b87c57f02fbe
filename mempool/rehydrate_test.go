// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestRehydrate ensures persisted entries are replayed with their original
// metadata, vanished accounts are skipped, invalid entries are rejected and
// expired entries are purged.
func TestRehydrate(t *testing.T) {
	t.Parallel()

	h := newPoolHarness(t, testPolicy())
	for _, addr := range []string{"alice", "bob", "carol", "erin"} {
		h.fund(addr)
	}

	// Current contents are discarded.
	h.submit(LaneStandard, "erin", 1, 1)

	src := sliceSource{
		{Lane: LaneStandard, Tx: h.newTx("alice", 1, 2), Added: testEpoch, Seq: 3},
		{Lane: LaneStandard, Tx: h.newTx("alice", 2, 4), Added: testEpoch, Seq: 5},
		{Lane: LaneStandard, Tx: h.newTx("ghost", 1, 1), Added: testEpoch, Seq: 6},
		{Lane: LanePriority, Tx: h.newTx("bob", 3, 1), Added: testEpoch, Seq: 7},
		{Lane: LanePriority, Tx: h.newTx("carol", 1, 1),
			Added: testEpoch.Add(-time.Hour), Seq: 9},
	}
	h.notifications()

	res, err := h.pool.Rehydrate(src)
	require.NoError(t, err)
	require.Equal(t, RehydrateResult{
		Replayed: 3,
		Skipped:  1,
		Rejected: 1,
		Expired:  1,
	}, res)

	require.False(t, h.pool.Contains(LaneStandard, "erin", 1))
	require.Equal(t, 2, h.pool.Count(LaneStandard))
	require.Zero(t, h.pool.Count(LanePriority))
	require.Equal(t, 2, h.ledger.Outstanding())

	entries := h.pool.Entries(LaneStandard)
	require.Equal(t, uint64(5), entries[0].Seq)
	require.Equal(t, testEpoch, entries[0].Added)
	require.True(t, equalTx(src[1].Tx, entries[0].Tx))
	require.Equal(t, uint64(3), entries[1].Seq)

	var rejected []uint64
	var expired int
	for _, n := range h.notifications() {
		if n.Type != NTEntryRemoved {
			continue
		}
		removed := n.Data.(*RemovedEntry)
		switch removed.Reason {
		case RemovedReplayRejected:
			rejected = append(rejected, removed.Entry.Seq)
		case RemovedExpired:
			require.Equal(t, uint64(9), removed.Entry.Seq)
			expired++
		}
	}
	require.Equal(t, []uint64{6, 7}, rejected)
	require.Equal(t, 1, expired)

	// New admissions continue after the highest persisted sequence.
	e := h.submit(LaneStandard, "alice", 3, 1)
	require.Equal(t, uint64(10), e.Seq)
	h.assertLaneInvariants()
}

// TestRehydrateBatches ensures replays larger than one batch are complete.
func TestRehydrateBatches(t *testing.T) {
	t.Parallel()

	policy := testPolicy()
	policy.MaxLaneSize = DefaultMaxLaneSize
	h := newPoolHarness(t, policy)

	const n = rehydrateBatchSize*2 + 17
	src := make(sliceSource, 0, n)
	for i := 0; i < n; i++ {
		addr := fmt.Sprintf("sender%04d", i)
		h.fund(addr)
		src = append(src, PersistedEntry{
			Lane:  LaneStandard,
			Tx:    h.newTx(addr, 1, 1),
			Added: testEpoch,
			Seq:   uint64(i + 1),
		})
	}

	res, err := h.pool.Rehydrate(src)
	require.NoError(t, err)
	require.Equal(t, RehydrateResult{Replayed: n}, res)
	require.Equal(t, n, h.pool.Count(LaneStandard))
	h.assertLaneInvariants()
}

// errSource fails after visiting its entries.
type errSource struct {
	entries sliceSource
	err     error
}

func (s errSource) ForEachEntry(fn func(PersistedEntry) error) error {
	if err := s.entries.ForEachEntry(fn); err != nil {
		return err
	}
	return s.err
}

// TestRehydrateSourceError ensures a failing source aborts the rehydration.
func TestRehydrateSourceError(t *testing.T) {
	t.Parallel()

	h := newPoolHarness(t, testPolicy())
	h.fund("alice")

	readErr := errors.New("corrupt entry log")
	_, err := h.pool.Rehydrate(errSource{
		entries: sliceSource{{Lane: LaneStandard,
			Tx: h.newTx("alice", 1, 1), Added: testEpoch, Seq: 1}},
		err: readErr,
	})
	require.ErrorIs(t, err, readErr)
	require.False(t, h.pool.IsPoisoned())
}

// gatedSource hands out its entries, then blocks until release is closed.
type gatedSource struct {
	entries sliceSource
	reached chan struct{}
	release chan struct{}
}

func (s gatedSource) ForEachEntry(fn func(PersistedEntry) error) error {
	if err := s.entries.ForEachEntry(fn); err != nil {
		return err
	}
	close(s.reached)
	<-s.release
	return nil
}

// TestRehydrateHoldsMutations ensures a submission issued while the pool is
// being rebuilt waits for the replay and applies to the rebuilt pool.
func TestRehydrateHoldsMutations(t *testing.T) {
	t.Parallel()

	h := newPoolHarness(t, testPolicy())
	h.fund("alice")

	src := gatedSource{
		entries: sliceSource{{Lane: LaneStandard,
			Tx: h.newTx("alice", 1, 1), Added: testEpoch, Seq: 1}},
		reached: make(chan struct{}),
		release: make(chan struct{}),
	}

	rehydrated := make(chan error, 1)
	go func() {
		_, err := h.pool.Rehydrate(src)
		rehydrated <- err
	}()
	<-src.reached

	submitted := make(chan error, 1)
	go func() {
		_, err := h.pool.Submit(LaneStandard, h.newTx("alice", 2, 1))
		submitted <- err
	}()

	select {
	case err := <-submitted:
		t.Fatalf("submission completed during rebuild: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(src.release)
	require.NoError(t, <-rehydrated)
	require.NoError(t, <-submitted)

	require.True(t, h.pool.Contains(LaneStandard, "alice", 1))
	require.True(t, h.pool.Contains(LaneStandard, "alice", 2))
	h.assertLaneInvariants()
}
