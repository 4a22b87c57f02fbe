// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/huandu/skiplist"
)

// laneQueue is a single fee class.  It owns a priority-ordered skip list, a
// (sender, nonce) uniqueness index and a hash index over the same entries.
// The live count is the skip list length; the mutators below are the only
// code that touches the three structures and always update them together.
//
// A laneQueue is not safe for concurrent access.  The owning TxPool
// serializes every call.
type laneQueue struct {
	lane         Lane
	capacity     int
	maxPerSender int

	byPriority    *skiplist.SkipList
	bySenderNonce map[senderNonce]*Entry
	byHash        map[chainhash.Hash]*Entry
	perSender     map[string]int

	// orphans is the number of live entries whose sender no longer
	// resolves, as of the last purge pass.
	orphans int
}

func newLaneQueue(lane Lane, capacity, maxPerSender int) *laneQueue {
	return &laneQueue{
		lane:         lane,
		capacity:     capacity,
		maxPerSender: maxPerSender,
		byPriority: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			return compareEntries(lhs.(*Entry), rhs.(*Entry))
		})),
		bySenderNonce: make(map[senderNonce]*Entry),
		byHash:        make(map[chainhash.Hash]*Entry),
		perSender:     make(map[string]int),
	}
}

// Len returns the number of live entries.
func (q *laneQueue) Len() int {
	return q.byPriority.Len()
}

// contains returns whether an entry for (sender, nonce) is queued.
func (q *laneQueue) contains(sender string, nonce uint64) bool {
	_, ok := q.bySenderNonce[senderNonce{sender, nonce}]
	return ok
}

// get returns the entry for (sender, nonce) or nil.
func (q *laneQueue) get(sender string, nonce uint64) *Entry {
	return q.bySenderNonce[senderNonce{sender, nonce}]
}

// lookup returns the entry with the given transaction id or nil.
func (q *laneQueue) lookup(hash *chainhash.Hash) *Entry {
	return q.byHash[*hash]
}

// pending returns the number of live entries from sender.
func (q *laneQueue) pending(sender string) int {
	return q.perSender[sender]
}

// nextNonce returns the lowest nonce above onChain that sender has not queued
// in this lane.
func (q *laneQueue) nextNonce(sender string, onChain uint64) uint64 {
	next := onChain + 1
	for q.contains(sender, next) {
		next++
	}
	return next
}

// admit inserts e.  Both lane ceilings and the uniqueness key are enforced
// here as well as by the admission controller, so a lane can never be driven
// past them by any caller.
func (q *laneQueue) admit(e *Entry) error {
	key := senderNonce{e.Sender, e.Nonce}
	if _, ok := q.bySenderNonce[key]; ok {
		str := fmt.Sprintf("%v lane already holds nonce %d from %s",
			q.lane, e.Nonce, e.Sender)
		return ruleError(ErrDuplicate, str)
	}
	if q.Len() >= q.capacity {
		str := fmt.Sprintf("%v lane is at capacity %d", q.lane,
			q.capacity)
		return ruleError(ErrQueueFull, str)
	}
	if q.perSender[e.Sender] >= q.maxPerSender {
		str := fmt.Sprintf("%s already has %d entries in the %v lane",
			e.Sender, q.perSender[e.Sender], q.lane)
		return ruleError(ErrPendingLimit, str)
	}

	q.byPriority.Set(e, e)
	q.bySenderNonce[key] = e
	q.byHash[e.Hash] = e
	q.perSender[e.Sender]++
	return nil
}

// remove deletes e from every index.  It is a no-op for entries that are not
// queued.
func (q *laneQueue) remove(e *Entry) bool {
	key := senderNonce{e.Sender, e.Nonce}
	if q.bySenderNonce[key] != e {
		return false
	}

	q.byPriority.Remove(e)
	delete(q.bySenderNonce, key)
	delete(q.byHash, e.Hash)
	if n := q.perSender[e.Sender] - 1; n > 0 {
		q.perSender[e.Sender] = n
	} else {
		delete(q.perSender, e.Sender)
	}
	if e.orphan && q.orphans > 0 {
		q.orphans--
	}
	return true
}

// peekWorst returns the lowest ranked entry or nil when empty.
func (q *laneQueue) peekWorst() *Entry {
	elem := q.byPriority.Back()
	if elem == nil {
		return nil
	}
	return elem.Value.(*Entry)
}

// removeWorst removes and returns the lowest ranked entry so the caller can
// release its reservation.
func (q *laneQueue) removeWorst() *Entry {
	e := q.peekWorst()
	if e != nil {
		q.remove(e)
	}
	return e
}

// forEach visits entries best first until fn returns false.  fn must not
// mutate the lane.
func (q *laneQueue) forEach(fn func(*Entry) bool) {
	for elem := q.byPriority.Front(); elem != nil; elem = elem.Next() {
		if !fn(elem.Value.(*Entry)) {
			return
		}
	}
}

// entries returns the live entries best first.
func (q *laneQueue) entries() []*Entry {
	out := make([]*Entry, 0, q.Len())
	q.forEach(func(e *Entry) bool {
		out = append(out, e)
		return true
	})
	return out
}

// rebuild replaces every index with fresh ones holding only the entries keep
// accepts, resets the orphan count and returns the dropped entries.
func (q *laneQueue) rebuild(keep func(*Entry) bool) []*Entry {
	all := q.entries()
	fresh := newLaneQueue(q.lane, q.capacity, q.maxPerSender)

	var dropped []*Entry
	for _, e := range all {
		if !keep(e) {
			dropped = append(dropped, e)
			continue
		}
		e.orphan = false
		if err := fresh.admit(e); err != nil {
			// Survivors came from a lane obeying the same
			// ceilings, so this cannot happen.
			panic(fmt.Sprintf("lane rebuild: %v", err))
		}
	}

	*q = *fresh
	return dropped
}
