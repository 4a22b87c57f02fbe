// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entrylog

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/laned/ledger"
	"github.com/btcsuite/laned/mempool"
	"github.com/btcsuite/laned/txauth"
	"github.com/btcsuite/laned/wire"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// logHarness is a pool whose notifications feed a persister.
type logHarness struct {
	t         *testing.T
	ledger    *ledger.MemLedger
	clock     *clock.Mock
	store     Store
	persister *Persister
	pool      *mempool.TxPool
}

func testPolicy() mempool.Policy {
	return mempool.Policy{
		MaxLaneSize:         8,
		MaxPendingPerSender: 4,
		EntryTTL:            10 * time.Minute,
		MinFeePerByte:       1,
		SweepInterval:       time.Minute,
	}
}

func newLogHarness(t *testing.T, store Store) *logHarness {
	clk := clock.NewMock()
	clk.Set(testEpoch)

	h := &logHarness{
		t:         t,
		ledger:    ledger.NewMemLedger(),
		clock:     clk,
		store:     store,
		persister: NewPersister(store),
	}
	h.restart()
	return h
}

// restart replaces the pool with an empty one sharing the ledger, clock and
// store, as a process restart would.
func (h *logHarness) restart() {
	pool, err := mempool.New(&mempool.Config{
		Policy:   testPolicy(),
		Ledger:   h.ledger,
		Verifier: txauth.SchnorrVerifier{},
		Clock:    h.clock,
	})
	require.NoError(h.t, err)
	h.persister.Attach(pool)
	h.pool = pool
}

func (h *logHarness) fund(addr string) {
	h.ledger.AddAccount(ledger.Account{
		Address:    addr,
		Consumer:   1 << 40,
		Industrial: 1 << 40,
	})
}

func keyFor(addr string) *btcec.PrivateKey {
	priv, _ := btcec.PrivKeyFromBytes(chainhash.HashB([]byte(addr)))
	return priv
}

func (h *logHarness) submit(lane mempool.Lane, sender string, nonce, feePerByte uint64) *mempool.Entry {
	h.t.Helper()

	tx := &wire.MsgTx{
		Version:     wire.TxVersion,
		From:        sender,
		To:          "sink",
		FeeSelector: 0,
		Nonce:       nonce,
		PubKey:      make([]byte, 32),
		Signature:   make([]byte, 64),
	}
	tx.Fee = feePerByte * uint64(tx.SerializeSize())
	require.NoError(h.t, txauth.SignTx(keyFor(sender), tx))

	e, err := h.pool.Submit(lane, tx)
	require.NoError(h.t, err)
	return e
}

// logged returns the persisted entries in replay order.
func (h *logHarness) logged() []mempool.PersistedEntry {
	h.t.Helper()

	var out []mempool.PersistedEntry
	err := h.persister.ForEachEntry(func(pe mempool.PersistedEntry) error {
		out = append(out, pe)
		return nil
	})
	require.NoError(h.t, err)
	return out
}

func loggedSeqs(pes []mempool.PersistedEntry) []uint64 {
	seqs := make([]uint64, 0, len(pes))
	for _, pe := range pes {
		seqs = append(seqs, pe.Seq)
	}
	return seqs
}

// TestPersisterTracksPool ensures admissions are written and every kind of
// removal deletes the record.
func TestPersisterTracksPool(t *testing.T) {
	h := newLogHarness(t, newMemPebble(t))
	defer h.store.Close()
	h.fund("alice")
	h.fund("bob")

	a1 := h.submit(mempool.LaneStandard, "alice", 1, 5)
	a2 := h.submit(mempool.LaneStandard, "alice", 2, 5)
	b1 := h.submit(mempool.LanePriority, "bob", 1, 9)

	pes := h.logged()
	require.Equal(t, []uint64{a1.Seq, a2.Seq, b1.Seq}, loggedSeqs(pes))
	for i, e := range []*mempool.Entry{a1, a2, b1} {
		require.Equal(t, e.Lane, pes[i].Lane)
		require.Equal(t, e.Hash, pes[i].Tx.TxHash())
		require.True(t, e.Added.Equal(pes[i].Added), "entry %d added "+
			"at %v, logged %v", i, e.Added, pes[i].Added)
	}

	require.NoError(t, h.pool.DropTransaction(mempool.LaneStandard, "alice", 2))
	require.Equal(t, []uint64{a1.Seq, b1.Seq}, loggedSeqs(h.logged()))

	n, err := h.pool.RemoveIncluded([]chainhash.Hash{b1.Hash})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []uint64{a1.Seq}, loggedSeqs(h.logged()))

	h.clock.Add(11 * time.Minute)
	purged, err := h.pool.PurgeExpired(h.clock.Now())
	require.NoError(t, err)
	require.Equal(t, 1, purged)
	require.Empty(t, h.logged())

	stats := h.persister.Stats()
	require.Equal(t, PersisterStats{Written: 3, Deleted: 3}, stats)
	require.NoError(t, h.persister.Err())
}

// TestPersisterRehydrate ensures a restarted pool replays the log, and that
// entries the replay rejects are removed from the log.
func TestPersisterRehydrate(t *testing.T) {
	h := newLogHarness(t, newMemLevelDB(t))
	defer h.store.Close()
	h.fund("alice")
	h.fund("bob")
	h.fund("carol")

	a1 := h.submit(mempool.LaneStandard, "alice", 1, 5)
	a2 := h.submit(mempool.LaneStandard, "alice", 2, 6)
	b1 := h.submit(mempool.LanePriority, "bob", 1, 7)
	c1 := h.submit(mempool.LaneStandard, "carol", 1, 8)

	// Carol's account disappears and bob's nonce advances on chain while
	// the process is down.
	h.ledger.RemoveAccount("carol")
	require.NoError(t, h.ledger.SetNonce("bob", 1))

	h.restart()
	res, err := h.pool.Rehydrate(h.persister)
	require.NoError(t, err)
	require.Equal(t, mempool.RehydrateResult{
		Replayed: 2,
		Skipped:  1,
		Rejected: 1,
	}, res, spew.Sdump(h.logged()))

	require.True(t, h.pool.Contains(mempool.LaneStandard, "alice", 1))
	require.True(t, h.pool.Contains(mempool.LaneStandard, "alice", 2))
	require.False(t, h.pool.Contains(mempool.LanePriority, "bob", 1))
	require.False(t, h.pool.Contains(mempool.LaneStandard, "carol", 1))
	require.Equal(t, []uint64{a1.Seq, a2.Seq}, loggedSeqs(h.logged()))

	// New admissions continue the sequence past every replayed record.
	a3 := h.submit(mempool.LaneStandard, "alice", 3, 5)
	require.Greater(t, a3.Seq, c1.Seq)
	require.Greater(t, c1.Seq, b1.Seq)
	require.Equal(t, []uint64{a1.Seq, a2.Seq, a3.Seq}, loggedSeqs(h.logged()))
}

// TestPersisterCorruptRecord ensures unreadable records are skipped during
// replay and then removed.
func TestPersisterCorruptRecord(t *testing.T) {
	h := newLogHarness(t, newMemLevelDB(t))
	defer h.store.Close()
	h.fund("alice")

	e := h.submit(mempool.LaneStandard, "alice", 1, 5)
	require.NoError(t, h.store.Put(seqKey(e.Seq+1), []byte{0x01, 0x02}))
	require.NoError(t, h.store.Put([]byte("short"), []byte("junk")))

	require.Equal(t, []uint64{e.Seq}, loggedSeqs(h.logged()))
	require.Equal(t, []uint64{e.Seq}, storeKeys(t, h.store))
}

// TestPersisterWriteFailure ensures storage failures are retained rather
// than lost inside the notification callback.
func TestPersisterWriteFailure(t *testing.T) {
	h := newLogHarness(t, newMemPebble(t))
	h.fund("alice")
	require.NoError(t, h.store.Close())

	h.submit(mempool.LaneStandard, "alice", 1, 5)
	require.ErrorIs(t, h.persister.Err(), ErrStoreClosed)
	require.Equal(t, PersisterStats{Failed: 1}, h.persister.Stats())
}
