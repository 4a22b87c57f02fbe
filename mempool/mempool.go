// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/laned/fees"
	"github.com/btcsuite/laned/ledger"
	"github.com/btcsuite/laned/txauth"
	"github.com/btcsuite/laned/wire"
)

// Config is a descriptor containing the memory pool configuration.
type Config struct {
	// Policy defines the various mempool configuration options related
	// to policy.
	Policy Policy

	// Lanes lists the fee classes the pool serves.  DefaultLanes is used
	// when empty.
	Lanes []Lane

	// Ledger resolves accounts and holds balances for queued entries.
	Ledger ledger.Ledger

	// Verifier checks transaction signatures.
	Verifier txauth.Verifier

	// Clock is the time source for expiry.  The wall clock is used when
	// nil.
	Clock clock.Clock
}

// TxPool is the lane-partitioned transaction queue.  A single exclusive lock
// serializes every mutation across every lane: admission, eviction, expiry
// purging and orphan sweeping never interleave.  This trades throughput for
// a pool whose indexes can never be observed out of step with each other,
// and is the main scaling limit of the design.
//
// It is safe for concurrent access from multiple callers.
type TxPool struct {
	mtx       sync.RWMutex
	cfg       Config
	lanes     map[Lane]*laneQueue
	laneOrder []Lane
	lastSeq   uint64

	// pendingNtfns collects events raised by the mutation in progress.
	pendingNtfns []Notification

	// poisoned is set when a mutation panics.  Every later mutation fails
	// with ErrLockPoisoned until Rehydrate rebuilds the pool.
	poisoned atomic.Bool

	// testHook is invoked at fixed points inside mutations so tests can
	// abandon one midway.
	testHook func(stage string)

	// rebuildMtx is held shared by every mutation and exclusively by
	// Rehydrate, so no other mutation lands between the reset and the
	// end of the replay.
	rebuildMtx sync.RWMutex

	// Each mutation takes a ticket under mtx and delivers its
	// notifications once every earlier ticket has been delivered.  The
	// pool lock is not held while waiting, so callbacks may read the
	// pool.
	nextTicket        uint64
	dispatchMtx       sync.Mutex
	dispatchCond      *sync.Cond
	nextDelivery      uint64
	notificationsLock sync.RWMutex
	notifications     []NotificationCallback

	stats counters
}

// New returns a new memory pool for validating and storing standalone
// transactions until they are mined into a block.
func New(cfg *Config) (*TxPool, error) {
	if cfg == nil {
		return nil, errors.New("mempool config cannot be nil")
	}
	if cfg.Ledger == nil {
		return nil, errors.New("Ledger is required")
	}
	if cfg.Verifier == nil {
		return nil, errors.New("Verifier is required")
	}
	if err := cfg.Policy.validate(); err != nil {
		return nil, err
	}

	c := *cfg
	if len(c.Lanes) == 0 {
		c.Lanes = DefaultLanes
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}

	mp := &TxPool{
		cfg:   c,
		lanes: make(map[Lane]*laneQueue, len(c.Lanes)),
	}
	mp.dispatchCond = sync.NewCond(&mp.dispatchMtx)
	for _, id := range c.Lanes {
		if _, ok := mp.lanes[id]; ok {
			return nil, fmt.Errorf("duplicate lane %v", id)
		}
		mp.lanes[id] = newLaneQueue(id, c.Policy.MaxLaneSize,
			c.Policy.MaxPendingPerSender)
		mp.laneOrder = append(mp.laneOrder, id)
	}
	sort.Slice(mp.laneOrder, func(i, j int) bool {
		return mp.laneOrder[i] < mp.laneOrder[j]
	})

	return mp, nil
}

// Policy returns the policy the pool was created with.
func (mp *TxPool) Policy() Policy {
	return mp.cfg.Policy
}

// errPoisoned is returned by every mutation once the pool is poisoned.
func errPoisoned() RuleError {
	return ruleError(ErrLockPoisoned, "mempool state was abandoned "+
		"mid-mutation; rebuild it from persisted history")
}

// mutate runs fn as one exclusive mutation.  A panic inside fn poisons the
// pool instead of unwinding into the caller.  Notifications raised by fn are
// delivered after the pool lock is released, in mutation order.  A mutation
// started while Rehydrate is running waits for it to finish.
func (mp *TxPool) mutate(fn func() error) error {
	mp.rebuildMtx.RLock()
	defer mp.rebuildMtx.RUnlock()

	return mp.apply(fn)
}

// apply runs one mutation and delivers its notifications.
//
// This function MUST be called with the rebuild lock held.
func (mp *TxPool) apply(fn func() error) error {
	mp.mtx.Lock()
	err := mp.guard(fn)
	ntfns := mp.pendingNtfns
	mp.pendingNtfns = nil
	if mp.poisoned.Load() {
		// Events from an abandoned mutation describe unknown state.
		ntfns = nil
	}
	ticket := mp.nextTicket
	mp.nextTicket++
	mp.mtx.Unlock()

	mp.deliver(ticket, ntfns)
	return err
}

// deliver waits until every mutation that finished before the one holding
// ticket has delivered its notifications, then delivers ns.
func (mp *TxPool) deliver(ticket uint64, ns []Notification) {
	mp.dispatchMtx.Lock()
	for mp.nextDelivery != ticket {
		mp.dispatchCond.Wait()
	}
	mp.dispatchMtx.Unlock()

	defer func() {
		mp.dispatchMtx.Lock()
		mp.nextDelivery++
		mp.dispatchCond.Broadcast()
		mp.dispatchMtx.Unlock()
	}()
	mp.sendNotifications(ns)
}

// guard runs fn and converts a panic into ErrLockPoisoned.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) guard(fn func() error) (err error) {
	if mp.poisoned.Load() {
		return errPoisoned()
	}

	defer func() {
		if r := recover(); r != nil {
			mp.poisoned.Store(true)
			log.Errorf("Mempool mutation abandoned, pool is "+
				"poisoned: %v", r)
			err = ruleError(ErrLockPoisoned,
				fmt.Sprintf("mempool mutation abandoned: %v", r))
		}
	}()

	return fn()
}

// hook calls the test hook, if any.
func (mp *TxPool) hook(stage string) {
	if mp.testHook != nil {
		mp.testHook(stage)
	}
}

// IsPoisoned returns whether an abandoned mutation has poisoned the pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) IsPoisoned() bool {
	return mp.poisoned.Load()
}

// release drops the ledger hold of an entry leaving the pool unmined.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) release(e *Entry) {
	if err := mp.cfg.Ledger.Release(e.reservation); err != nil {
		log.Warnf("Unable to release reservation %d of %v: %v",
			e.reservation, e.Hash, err)
	}
}

// Submit is the admission gateway.  It validates tx, reserves the amounts it
// spends, and queues it in lane.  The steps run under the pool lock in this
// order:
//
//  1. expired entries are purged, and lanes whose orphans exceed half their
//     size are swept
//  2. every variable length field must fit its wire limit, and the sender
//     must resolve to an account
//  3. the nonce must be the next one for the sender in the lane; a nonce
//     already queued is a duplicate
//  4. the sender must be below the per-lane pending limit
//  5. the signature must verify
//  6. the fee is decomposed by its selector
//  7. amounts plus fee shares are reserved against both balances
//  8. the fee-per-byte must meet the floor
//  9. a full lane evicts its worst entry only if the new entry outranks it
//     and the worst entry belongs to a different sender
//
// Any failure in steps 2-9 leaves the lanes and ledger holds exactly as they
// were after step 1.  Expired and orphaned entries removed by step 1 stay
// removed.
//
// This function is safe for concurrent access.
func (mp *TxPool) Submit(lane Lane, tx *wire.MsgTx) (*Entry, error) {
	var entry *Entry
	err := mp.mutate(func() error {
		now := mp.cfg.Clock.Now()
		mp.maintain(now)

		var err error
		entry, err = mp.maybeAcceptTransaction(lane, tx, now, 0)
		return err
	})
	if err != nil {
		mp.stats.recordRejection(err)
		log.Debugf("Rejected transaction %v from %s nonce %d: %v",
			tx.TxHash(), tx.From, tx.Nonce, err)
		return nil, err
	}

	log.Tracef("Accepted transaction %v into %v lane (seq %d, %d "+
		"fee/byte)", entry.Hash, lane, entry.Seq, entry.FeePerByte)
	return entry, nil
}

// maybeAcceptTransaction runs the validation and insertion steps of Submit.
// A zero seq assigns the next insertion sequence; rehydration passes the
// persisted one.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) maybeAcceptTransaction(lane Lane, tx *wire.MsgTx,
	added time.Time, seq uint64) (*Entry, error) {

	q, ok := mp.lanes[lane]
	if !ok {
		str := fmt.Sprintf("pool does not serve the %v lane", lane)
		return nil, ruleError(ErrUnknownLane, str)
	}
	sender := tx.From

	// An entry that cannot be decoded again would vanish from the entry
	// log on restart.
	if err := tx.CheckLimits(); err != nil {
		str := fmt.Sprintf("nonce %d from %.*s: %v", tx.Nonce,
			wire.MaxAddressLen, sender, err)
		return nil, ruleError(ErrTxTooLarge, str)
	}

	acct, err := mp.cfg.Ledger.Account(sender)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		str := fmt.Sprintf("sender %q has no account", sender)
		return nil, ruleError(ErrUnknownSender, str)
	}
	if err != nil {
		return nil, err
	}

	if q.contains(sender, tx.Nonce) {
		str := fmt.Sprintf("%v lane already holds nonce %d from %s",
			lane, tx.Nonce, sender)
		return nil, ruleError(ErrDuplicate, str)
	}
	if want := q.nextNonce(sender, acct.Nonce); tx.Nonce != want {
		str := fmt.Sprintf("nonce %d from %s is not the next "+
			"expected nonce %d", tx.Nonce, sender, want)
		return nil, ruleError(ErrNonceGap, str)
	}
	if n := q.pending(sender); n >= mp.cfg.Policy.MaxPendingPerSender {
		str := fmt.Sprintf("%s already has %d entries in the %v lane",
			sender, n, lane)
		return nil, ruleError(ErrPendingLimit, str)
	}

	if !txauth.VerifyTx(mp.cfg.Verifier, tx) {
		str := fmt.Sprintf("signature of nonce %d from %s does not "+
			"verify", tx.Nonce, sender)
		return nil, ruleError(ErrBadSignature, str)
	}

	sel := fees.Selector(tx.FeeSelector)
	feeConsumer, feeIndustrial, err := fees.Decompose(sel, tx.Fee)
	switch {
	case errors.Is(err, fees.ErrFeeTooLarge):
		return nil, ruleError(ErrFeeTooLarge, err.Error())
	case errors.Is(err, fees.ErrInvalidSelector):
		return nil, ruleError(ErrInvalidSelector, err.Error())
	case err != nil:
		return nil, err
	}

	needConsumer, carry := bits.Add64(tx.AmountConsumer, feeConsumer, 0)
	if carry != 0 {
		str := fmt.Sprintf("consumer amount %d plus fee share %d "+
			"overflows", tx.AmountConsumer, feeConsumer)
		return nil, ruleError(ErrFeeOverflow, str)
	}
	needIndustrial, carry := bits.Add64(tx.AmountIndustrial, feeIndustrial, 0)
	if carry != 0 {
		str := fmt.Sprintf("industrial amount %d plus fee share %d "+
			"overflows", tx.AmountIndustrial, feeIndustrial)
		return nil, ruleError(ErrFeeOverflow, str)
	}

	resID, err := mp.cfg.Ledger.Reserve(sender, needConsumer, needIndustrial)
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return nil, ruleError(ErrInsufficientBalance, err.Error())
	case errors.Is(err, ledger.ErrBalanceOverflow):
		return nil, ruleError(ErrBalanceOverflow, err.Error())
	case errors.Is(err, ledger.ErrAccountNotFound):
		str := fmt.Sprintf("sender %q has no account", sender)
		return nil, ruleError(ErrUnknownSender, str)
	case err != nil:
		return nil, err
	}

	// Every return below this point without an admitted entry must give
	// the hold back.
	admitted := false
	defer func() {
		if !admitted {
			if err := mp.cfg.Ledger.Release(resID); err != nil {
				log.Warnf("Unable to roll back reservation %d: %v",
					resID, err)
			}
		}
	}()

	size := tx.SerializeSize()
	feePerByte := calcFeePerByte(tx.Fee, size)
	if feePerByte < mp.cfg.Policy.MinFeePerByte {
		str := fmt.Sprintf("fee-per-byte %d is below the minimum %d",
			feePerByte, mp.cfg.Policy.MinFeePerByte)
		return nil, ruleError(ErrFeeBelowFloor, str)
	}

	if seq == 0 {
		seq = mp.lastSeq + 1
	}
	entry := &Entry{
		Tx:            tx,
		Hash:          tx.TxHash(),
		Lane:          lane,
		Sender:        sender,
		Nonce:         tx.Nonce,
		Fee:           tx.Fee,
		Selector:      sel,
		FeeConsumer:   feeConsumer,
		FeeIndustrial: feeIndustrial,
		Size:          size,
		FeePerByte:    feePerByte,
		Added:         added,
		Expiry:        added.Add(mp.cfg.Policy.EntryTTL),
		Seq:           seq,
		reservation:   resID,
	}

	if q.Len() >= q.capacity {
		worst := q.peekWorst()
		if worst == nil || compareEntries(entry, worst) >= 0 {
			str := fmt.Sprintf("%v lane is full and nonce %d from "+
				"%s does not outrank its worst entry", lane,
				tx.Nonce, sender)
			return nil, ruleError(ErrQueueFull, str)
		}

		// Evicting one of the sender's own nonces would strand the
		// new entry behind the gap it leaves.
		if worst.Sender == sender {
			str := fmt.Sprintf("%v lane is full and its worst entry "+
				"is nonce %d from the same sender %s", lane,
				worst.Nonce, sender)
			return nil, ruleError(ErrQueueFull, str)
		}

		mp.hook("evict")
		q.removeWorst()
		mp.release(worst)
		mp.queueRemoved(worst, RemovedEvicted)
		mp.stats.evicted.Add(1)
		log.Debugf("Evicted %v (%d fee/byte) from %v lane for %v",
			worst.Hash, worst.FeePerByte, lane, entry.Hash)
	}

	mp.hook("insert")
	if err := q.admit(entry); err != nil {
		return nil, err
	}
	admitted = true
	if seq > mp.lastSeq {
		mp.lastSeq = seq
	}
	mp.stats.admitted.Add(1)
	mp.queueNotification(NTEntryAccepted, entry)

	return entry, nil
}

// DropTransaction removes the entry for (sender, nonce) from lane and
// releases its hold.  ErrNotFound is returned when no such entry is queued.
//
// This function is safe for concurrent access.
func (mp *TxPool) DropTransaction(lane Lane, sender string, nonce uint64) error {
	return mp.mutate(func() error {
		q, ok := mp.lanes[lane]
		if !ok {
			str := fmt.Sprintf("pool does not serve the %v lane", lane)
			return ruleError(ErrUnknownLane, str)
		}
		e := q.get(sender, nonce)
		if e == nil {
			str := fmt.Sprintf("no entry for nonce %d from %s in "+
				"the %v lane", nonce, sender, lane)
			return ruleError(ErrNotFound, str)
		}

		q.remove(e)
		mp.release(e)
		mp.queueRemoved(e, RemovedDropped)
		mp.stats.dropped.Add(1)
		return nil
	})
}

// RemoveIncluded removes the entries with the given transaction ids from
// every lane after their block has been committed, and commits their holds.
// Unknown ids are ignored.  It returns the number of entries removed.
//
// This function is safe for concurrent access.
func (mp *TxPool) RemoveIncluded(hashes []chainhash.Hash) (int, error) {
	var removed int
	err := mp.mutate(func() error {
		for i := range hashes {
			for _, id := range mp.laneOrder {
				q := mp.lanes[id]
				e := q.lookup(&hashes[i])
				if e == nil {
					continue
				}

				q.remove(e)
				if err := mp.cfg.Ledger.Commit(e.reservation); err != nil {
					log.Warnf("Unable to commit reservation "+
						"%d of %v: %v", e.reservation,
						e.Hash, err)
				}
				mp.queueRemoved(e, RemovedIncluded)
				removed++
			}
		}
		mp.stats.included.Add(uint64(removed))
		return nil
	})
	return removed, err
}

// Contains returns whether lane holds an entry for (sender, nonce).
//
// This function is safe for concurrent access.
func (mp *TxPool) Contains(lane Lane, sender string, nonce uint64) bool {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	q, ok := mp.lanes[lane]
	return ok && q.contains(sender, nonce)
}

// HaveTransaction returns whether any lane holds the transaction id.
//
// This function is safe for concurrent access.
func (mp *TxPool) HaveTransaction(hash *chainhash.Hash) bool {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	for _, q := range mp.lanes {
		if q.lookup(hash) != nil {
			return true
		}
	}
	return false
}

// Count returns the number of live entries in lane.
//
// This function is safe for concurrent access.
func (mp *TxPool) Count(lane Lane) int {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	if q, ok := mp.lanes[lane]; ok {
		return q.Len()
	}
	return 0
}

// Entries returns the live entries of lane, best first.
//
// This function is safe for concurrent access.
func (mp *TxPool) Entries(lane Lane) []*Entry {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	if q, ok := mp.lanes[lane]; ok {
		return q.entries()
	}
	return nil
}

// DrainHighestPriority returns up to limit entries of lane for a block
// template.  Entries are taken best first, except that an entry is only
// emitted once every lower nonce of its sender above the on-chain nonce has
// been emitted, so the result always passes block nonce-continuity checks.
// Entries are not removed; RemoveIncluded does that once the block commits.
//
// This function is safe for concurrent access.
func (mp *TxPool) DrainHighestPriority(lane Lane, limit int) ([]*Entry, error) {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()

	if mp.poisoned.Load() {
		return nil, errPoisoned()
	}
	q, ok := mp.lanes[lane]
	if !ok {
		str := fmt.Sprintf("pool does not serve the %v lane", lane)
		return nil, ruleError(ErrUnknownLane, str)
	}
	if limit <= 0 {
		return nil, nil
	}

	next := make(map[string]uint64)
	waiting := make(map[senderNonce]*Entry)
	out := make([]*Entry, 0, limit)

	q.forEach(func(e *Entry) bool {
		want, seen := next[e.Sender]
		if !seen {
			acct, err := mp.cfg.Ledger.Account(e.Sender)
			if err != nil {
				// Orphans are left for the sweeper.
				next[e.Sender] = 0
				return true
			}
			want = acct.Nonce + 1
			next[e.Sender] = want
		}
		if want == 0 {
			return true
		}

		switch {
		case e.Nonce > want:
			waiting[senderNonce{e.Sender, e.Nonce}] = e
			return true
		case e.Nonce < want:
			return true
		}

		out = append(out, e)
		want++
		for len(out) < limit {
			key := senderNonce{e.Sender, want}
			w, ok := waiting[key]
			if !ok {
				break
			}
			delete(waiting, key)
			out = append(out, w)
			want++
		}
		next[e.Sender] = want

		return len(out) < limit
	})

	return out, nil
}
