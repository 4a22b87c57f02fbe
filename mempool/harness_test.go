// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"bytes"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/laned/ledger"
	"github.com/btcsuite/laned/txauth"
	"github.com/btcsuite/laned/wire"
	"github.com/stretchr/testify/require"
)

// testEpoch is the mock clock start time used by every harness.
var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// testingT is satisfied by both *testing.T and *rapid.T.
type testingT interface {
	require.TestingT
	Helper()
}

// poolHarness provides a pool backed by an in-memory ledger, a mock clock and
// real schnorr signatures.
type poolHarness struct {
	t      testingT
	pool   *TxPool
	ledger *ledger.MemLedger
	clock  *clock.Mock

	mu    sync.Mutex
	ntfns []Notification
}

// testPolicy returns a small policy suitable for tests.
func testPolicy() Policy {
	return Policy{
		MaxLaneSize:         8,
		MaxPendingPerSender: 4,
		EntryTTL:            10 * time.Minute,
		MinFeePerByte:       1,
		SweepInterval:       time.Minute,
	}
}

func newPoolHarness(t testingT, policy Policy, lanes ...Lane) *poolHarness {
	t.Helper()

	clk := clock.NewMock()
	clk.Set(testEpoch)
	l := ledger.NewMemLedger()
	pool, err := New(&Config{
		Policy:   policy,
		Lanes:    lanes,
		Ledger:   l,
		Verifier: txauth.SchnorrVerifier{},
		Clock:    clk,
	})
	require.NoError(t, err)

	h := &poolHarness{t: t, pool: pool, ledger: l, clock: clk}
	pool.Subscribe(func(n *Notification) {
		h.mu.Lock()
		h.ntfns = append(h.ntfns, *n)
		h.mu.Unlock()
	})
	return h
}

// keyFor deterministically derives a signing key for an address.
func keyFor(addr string) *btcec.PrivateKey {
	priv, _ := btcec.PrivKeyFromBytes(chainhash.HashB([]byte(addr)))
	return priv
}

// fund creates an account with generous balances.
func (h *poolHarness) fund(addr string) {
	h.ledger.AddAccount(ledger.Account{
		Address:    addr,
		Consumer:   1 << 40,
		Industrial: 1 << 40,
	})
}

// newTx returns a signed transaction from sender whose fee-per-byte is
// exactly feePerByte.
func (h *poolHarness) newTx(sender string, nonce, feePerByte uint64) *wire.MsgTx {
	tx := &wire.MsgTx{
		Version:        wire.TxVersion,
		From:           sender,
		To:             "sink",
		AmountConsumer: 10,
		FeeSelector:    2,
		Nonce:          nonce,
		PubKey:         make([]byte, 32),
		Signature:      make([]byte, 64),
	}
	tx.Fee = feePerByte * uint64(tx.SerializeSize())
	h.sign(tx)
	return tx
}

// sign re-signs tx with its sender's key.
func (h *poolHarness) sign(tx *wire.MsgTx) {
	require.NoError(h.t, txauth.SignTx(keyFor(tx.From), tx))
}

// submit submits a fresh transaction and requires it to be accepted.
func (h *poolHarness) submit(lane Lane, sender string, nonce, feePerByte uint64) *Entry {
	h.t.Helper()

	e, err := h.pool.Submit(lane, h.newTx(sender, nonce, feePerByte))
	require.NoError(h.t, err)
	return e
}

// notifications returns and clears the received notifications.
func (h *poolHarness) notifications() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.ntfns
	h.ntfns = nil
	return out
}

// assertLaneInvariants checks every lane's indexes agree with each other,
// respect the ceilings, and that every entry holds exactly one reservation.
func (h *poolHarness) assertLaneInvariants() {
	h.t.Helper()

	h.pool.mtx.RLock()
	defer h.pool.mtx.RUnlock()

	var total int
	for id, q := range h.pool.lanes {
		n := q.Len()
		require.Equal(h.t, n, len(q.bySenderNonce), "lane %v", id)
		require.Equal(h.t, n, len(q.byHash), "lane %v", id)
		require.LessOrEqual(h.t, n, q.capacity, "lane %v", id)

		var perSender int
		for sender, c := range q.perSender {
			require.LessOrEqual(h.t, c, q.maxPerSender, "sender %s", sender)
			perSender += c
		}
		require.Equal(h.t, n, perSender, "lane %v", id)

		seen := make(map[senderNonce]struct{})
		var prev *Entry
		q.forEach(func(e *Entry) bool {
			key := senderNonce{e.Sender, e.Nonce}
			_, dup := seen[key]
			require.False(h.t, dup, "duplicate %v", key)
			seen[key] = struct{}{}
			require.Same(h.t, e, q.bySenderNonce[key])
			if prev != nil {
				require.Negative(h.t, compareEntries(prev, e))
			}
			prev = e
			return true
		})
		total += n
	}
	require.Equal(h.t, total, h.ledger.Outstanding())
}

// feeRates returns the fee-per-byte of every entry in lane, best first.
func (h *poolHarness) feeRates(lane Lane) []uint64 {
	var out []uint64
	for _, e := range h.pool.Entries(lane) {
		out = append(out, e.FeePerByte)
	}
	return out
}

// sliceSource is an EntrySource over a slice.
type sliceSource []PersistedEntry

func (s sliceSource) ForEachEntry(fn func(PersistedEntry) error) error {
	for _, pe := range s {
		if err := fn(pe); err != nil {
			return err
		}
	}
	return nil
}

// equalTx compares the serialized form of two transactions.
func equalTx(a, b *wire.MsgTx) bool {
	return bytes.Equal(a.Bytes(), b.Bytes())
}
