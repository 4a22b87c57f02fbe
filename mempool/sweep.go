// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"
	"time"

	"github.com/btcsuite/laned/ledger"
)

// SweepResult reports what one maintenance pass removed.
type SweepResult struct {
	Expired int
	Orphans int
}

// accountResolver memoizes account existence for the duration of one pass.
type accountResolver struct {
	ledger ledger.Ledger
	known  map[string]bool
}

func newAccountResolver(l ledger.Ledger) *accountResolver {
	return &accountResolver{ledger: l, known: make(map[string]bool)}
}

// exists reports whether addr resolves.  Only ErrAccountNotFound counts as
// vanished; any other ledger failure keeps the entry.
func (r *accountResolver) exists(addr string) bool {
	ok, seen := r.known[addr]
	if !seen {
		_, err := r.ledger.Account(addr)
		ok = !errors.Is(err, ledger.ErrAccountNotFound)
		r.known[addr] = ok
	}
	return ok
}

// purgeExpired removes every entry whose expiry is before now from every
// lane in a single pass, and recounts the orphans among the survivors.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) purgeExpired(now time.Time) int {
	accounts := newAccountResolver(mp.cfg.Ledger)

	var total int
	for _, id := range mp.laneOrder {
		q := mp.lanes[id]

		var expired []*Entry
		var orphans int
		q.forEach(func(e *Entry) bool {
			if now.After(e.Expiry) {
				expired = append(expired, e)
				return true
			}
			e.orphan = !accounts.exists(e.Sender)
			if e.orphan {
				orphans++
			}
			return true
		})

		mp.hook("purge")
		for _, e := range expired {
			q.remove(e)
			mp.release(e)
			mp.queueRemoved(e, RemovedExpired)
		}
		q.orphans = orphans
		total += len(expired)

		if len(expired) > 0 {
			log.Debugf("Purged %d expired %s from the %v lane",
				len(expired), pickNoun(len(expired), "entry",
					"entries"), id)
		}
	}

	mp.stats.expired.Add(uint64(total))
	return total
}

// sweepOrphans rebuilds q keeping only entries whose sender still resolves.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) sweepOrphans(q *laneQueue, accounts *accountResolver) int {
	dropped := q.rebuild(func(e *Entry) bool {
		return accounts.exists(e.Sender)
	})
	for _, e := range dropped {
		mp.release(e)
		mp.queueRemoved(e, RemovedOrphan)
	}

	mp.stats.orphanSweeps.Add(1)
	mp.stats.orphansSwept.Add(uint64(len(dropped)))
	log.Debugf("Orphan sweep of the %v lane dropped %d %s", q.lane,
		len(dropped), pickNoun(len(dropped), "entry", "entries"))
	return len(dropped)
}

// maintain performs one complete maintenance pass: purge expired entries,
// then sweep each lane whose orphans exceed half of its live entries.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) maintain(now time.Time) SweepResult {
	res := SweepResult{Expired: mp.purgeExpired(now)}

	var accounts *accountResolver
	for _, id := range mp.laneOrder {
		q := mp.lanes[id]
		if q.orphans == 0 || q.orphans*2 <= q.Len() {
			continue
		}
		if accounts == nil {
			accounts = newAccountResolver(mp.cfg.Ledger)
		}
		res.Orphans += mp.sweepOrphans(q, accounts)
	}
	return res
}

// PurgeExpired removes every entry whose expiry is before now and returns the
// number removed.  It never removes an unexpired entry.
//
// This function is safe for concurrent access.
func (mp *TxPool) PurgeExpired(now time.Time) (int, error) {
	var n int
	err := mp.mutate(func() error {
		n = mp.purgeExpired(now)
		return nil
	})
	return n, err
}

// OrphanSweep rebuilds every lane without the entries whose sender no longer
// resolves, regardless of the orphan ratio, and returns the number dropped.
//
// This function is safe for concurrent access.
func (mp *TxPool) OrphanSweep() (int, error) {
	var n int
	err := mp.mutate(func() error {
		accounts := newAccountResolver(mp.cfg.Ledger)
		for _, id := range mp.laneOrder {
			n += mp.sweepOrphans(mp.lanes[id], accounts)
		}
		return nil
	})
	return n, err
}

// Sweep performs one complete maintenance pass at the current clock time.
//
// This function is safe for concurrent access.
func (mp *TxPool) Sweep() (SweepResult, error) {
	var res SweepResult
	err := mp.mutate(func() error {
		res = mp.maintain(mp.cfg.Clock.Now())
		return nil
	})
	return res, err
}

// pickNoun returns the singular or plural form of a noun depending on the
// count n.
func pickNoun(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
