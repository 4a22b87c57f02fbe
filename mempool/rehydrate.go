// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"time"

	"github.com/btcsuite/laned/wire"
)

// PersistedEntry is a previously admitted entry replayed at startup.
type PersistedEntry struct {
	Lane  Lane
	Tx    *wire.MsgTx
	Added time.Time
	Seq   uint64
}

// EntrySource supplies persisted entries.  Entries must be visited in
// ascending Seq order so that each sender's nonces replay in order.
type EntrySource interface {
	ForEachEntry(fn func(PersistedEntry) error) error
}

// RehydrateResult reports the outcome of a Rehydrate call.
type RehydrateResult struct {
	// Replayed entries passed admission validation again.
	Replayed int

	// Skipped entries belong to accounts that no longer exist.
	Skipped int

	// Rejected entries failed any other validation rule.
	Rejected int

	// Expired entries were replayed and then purged because their
	// time-to-live had already elapsed.
	Expired int
}

// reset empties every lane, releasing the holds of the entries it can still
// find, and clears the poisoned flag.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) reset() {
	defer func() {
		// Releasing holds of a poisoned pool is best effort.
		if r := recover(); r != nil {
			log.Warnf("Unable to release every hold while resetting "+
				"the mempool: %v", r)
		}
		for _, id := range mp.laneOrder {
			mp.lanes[id] = newLaneQueue(id, mp.cfg.Policy.MaxLaneSize,
				mp.cfg.Policy.MaxPendingPerSender)
		}
		mp.pendingNtfns = nil
		mp.poisoned.Store(false)
	}()

	for _, id := range mp.laneOrder {
		for _, e := range mp.lanes[id].bySenderNonce {
			mp.release(e)
		}
	}
}

// Rehydrate rebuilds the pool from persisted history.  Any current contents
// are discarded first, which also clears a poisoned pool.  Persisted entries
// are replayed through admission validation in batches, keeping their
// original admission time and insertion sequence.  Entries of vanished
// accounts are skipped.  Expired entries are purged once replay completes.
//
// Other mutations issued while Rehydrate runs wait until it returns, so they
// apply to the rebuilt pool.  Read methods may observe a partly replayed
// pool.  Notification callbacks run during the rebuild must not call the
// pool's mutating methods.
func (mp *TxPool) Rehydrate(src EntrySource) (RehydrateResult, error) {
	var res RehydrateResult

	mp.rebuildMtx.Lock()
	defer mp.rebuildMtx.Unlock()

	mp.mtx.Lock()
	mp.reset()
	mp.mtx.Unlock()

	batch := make([]PersistedEntry, 0, rehydrateBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := mp.apply(func() error {
			for _, pe := range batch {
				if err := mp.replay(pe, &res); err != nil {
					return err
				}
			}
			return nil
		})
		batch = batch[:0]
		return err
	}

	err := src.ForEachEntry(func(pe PersistedEntry) error {
		batch = append(batch, pe)
		if len(batch) < rehydrateBatchSize {
			return nil
		}
		return flush()
	})
	if err != nil {
		return res, err
	}
	if err := flush(); err != nil {
		return res, err
	}

	err = mp.apply(func() error {
		res.Expired = mp.purgeExpired(mp.cfg.Clock.Now())
		return nil
	})
	if err != nil {
		return res, err
	}

	log.Infof("Rehydrated mempool: %d replayed, %d skipped, %d "+
		"rejected, %d expired", res.Replayed, res.Skipped, res.Rejected,
		res.Expired)
	return res, nil
}

// replay admits one persisted entry.  Rule violations are counted and
// reported as removals so persistence can forget the entry; any other error
// aborts the rehydration.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) replay(pe PersistedEntry, res *RehydrateResult) error {
	_, err := mp.maybeAcceptTransaction(pe.Lane, pe.Tx, pe.Added, pe.Seq)
	switch {
	case err == nil:
		res.Replayed++
		return nil

	case IsErrorCode(err, ErrUnknownSender):
		res.Skipped++

	case IsErrorCode(err, ErrLockPoisoned):
		return err

	default:
		if _, ok := err.(RuleError); !ok {
			return err
		}
		res.Rejected++
		log.Debugf("Dropping persisted entry %d: %v", pe.Seq, err)
	}

	if pe.Seq > mp.lastSeq {
		mp.lastSeq = pe.Seq
	}
	mp.queueRemoved(&Entry{
		Tx:     pe.Tx,
		Hash:   pe.Tx.TxHash(),
		Lane:   pe.Lane,
		Sender: pe.Tx.From,
		Nonce:  pe.Tx.Nonce,
		Added:  pe.Added,
		Seq:    pe.Seq,
	}, RemovedReplayRejected)
	return nil
}
