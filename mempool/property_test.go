// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// entrySet returns the live entries of lane keyed by pointer.
func entrySet(h *poolHarness, lane Lane) map[*Entry]struct{} {
	set := make(map[*Entry]struct{})
	for _, e := range h.pool.Entries(lane) {
		set[e] = struct{}{}
	}
	return set
}

// TestPoolInvariantsProperty drives a pool with random submissions, drops,
// clock movements and account removals, checking after every step that the
// lane indexes agree, the ceilings hold, rejections change nothing and a
// full lane only admits an entry by evicting a strictly worse one.
func TestPoolInvariantsProperty(t *testing.T) {
	t.Parallel()

	senders := []string{"s0", "s1", "s2", "s3"}

	rapid.Check(t, func(rt *rapid.T) {
		policy := testPolicy()
		policy.MaxLaneSize = rapid.IntRange(1, 6).Draw(rt, "capacity")
		policy.MaxPendingPerSender = rapid.IntRange(1, 3).Draw(rt, "perSender")
		h := newPoolHarness(rt, policy)
		for _, s := range senders {
			h.fund(s)
		}

		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 5).Draw(rt, "op") {
			case 0, 1, 2:
				sender := rapid.SampledFrom(senders).Draw(rt, "sender")
				lane := rapid.SampledFrom(DefaultLanes).Draw(rt, "lane")
				feePerByte := rapid.Uint64Range(1, 20).Draw(rt, "feePerByte")

				// Settle maintenance so a rejection can be compared
				// against the state it saw.
				_, err := h.pool.Sweep()
				require.NoError(rt, err)

				nonce := uint64(1)
				if acct, err := h.ledger.Account(sender); err == nil {
					nonce = acct.Nonce + 1
				}
				for h.pool.Contains(lane, sender, nonce) {
					nonce++
				}
				nonce -= rapid.Uint64Range(0, 1).Draw(rt, "back")
				nonce += rapid.Uint64Range(0, 1).Draw(rt, "skip")

				before := entrySet(h, lane)
				outstanding := h.ledger.Outstanding()
				full := len(before) == policy.MaxLaneSize

				entry, err := h.pool.Submit(lane, h.newTx(sender, nonce, feePerByte))
				after := entrySet(h, lane)
				if err != nil {
					var rerr RuleError
					require.True(rt, errors.As(err, &rerr), "%v", err)
					require.Equal(rt, before, after)
					require.Equal(rt, outstanding, h.ledger.Outstanding())
					continue
				}

				_, ok := after[entry]
				require.True(rt, ok)
				if !full {
					require.Len(rt, after, len(before)+1)
					continue
				}

				// Exactly one strictly worse entry made room.
				require.Len(rt, after, len(before))
				var evicted []*Entry
				for e := range before {
					if _, ok := after[e]; !ok {
						evicted = append(evicted, e)
					}
				}
				require.Len(rt, evicted, 1)
				require.Negative(rt, compareEntries(entry, evicted[0]))
				for e := range after {
					require.LessOrEqual(rt, compareEntries(e, evicted[0]), 0)
				}

			case 3:
				lane := rapid.SampledFrom(DefaultLanes).Draw(rt, "lane")
				entries := h.pool.Entries(lane)
				if len(entries) == 0 {
					continue
				}
				e := rapid.SampledFrom(entries).Draw(rt, "drop")
				require.NoError(rt, h.pool.DropTransaction(lane, e.Sender, e.Nonce))

			case 4:
				d := rapid.Int64Range(0, int64(6*time.Minute)).Draw(rt, "advance")
				h.clock.Add(time.Duration(d))
				_, err := h.pool.Sweep()
				require.NoError(rt, err)

			case 5:
				sender := rapid.SampledFrom(senders).Draw(rt, "account")
				if _, err := h.ledger.Account(sender); err == nil {
					h.ledger.RemoveAccount(sender)
				} else {
					h.fund(sender)
				}
			}

			h.assertLaneInvariants()
		}
	})
}
