// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entrylog

import (
	"sync"

	"github.com/btcsuite/laned/mempool"
)

// PersisterStats reports the activity of a Persister.
type PersisterStats struct {
	Written uint64
	Deleted uint64
	Failed  uint64
}

// Persister keeps an entry log in step with a mempool.  It subscribes to the
// pool's notifications, writing a record for every admitted entry and
// deleting it again once the entry leaves the pool for any reason.  The log
// is then replayed through TxPool.Rehydrate on the next start, for which
// Persister satisfies mempool.EntrySource.
//
// Notification callbacks cannot fail, so write errors are logged, counted,
// and the first one is retained for Err.
type Persister struct {
	store Store

	mtx      sync.Mutex
	stats    PersisterStats
	firstErr error
}

// Ensure Persister implements the mempool.EntrySource interface.
var _ mempool.EntrySource = (*Persister)(nil)

// NewPersister returns a persister writing to store.
func NewPersister(store Store) *Persister {
	return &Persister{store: store}
}

// Attach subscribes the persister to pool.  It must be called before the
// pool is used, and may be called before Rehydrate so that rejected replays
// are forgotten.
func (p *Persister) Attach(pool *mempool.TxPool) {
	pool.Subscribe(p.handleNotification)
}

// handleNotification is the mempool notification callback.
func (p *Persister) handleNotification(n *mempool.Notification) {
	var err error
	switch n.Type {
	case mempool.NTEntryAccepted:
		e, ok := n.Data.(*mempool.Entry)
		if !ok {
			log.Warnf("Accepted notification carries %T", n.Data)
			return
		}
		err = p.writeEntry(e)

	case mempool.NTEntryRemoved:
		r, ok := n.Data.(*mempool.RemovedEntry)
		if !ok {
			log.Warnf("Removed notification carries %T", n.Data)
			return
		}
		err = p.deleteEntry(r.Entry.Seq, r.Reason)

	default:
		return
	}

	if err != nil {
		p.recordFailure(err)
	}
}

// writeEntry stores the record of an admitted entry.
func (p *Persister) writeEntry(e *mempool.Entry) error {
	value, err := encodeRecord(e.Lane, e.Added, e.Tx)
	if err != nil {
		return err
	}
	if err := p.store.Put(seqKey(e.Seq), value); err != nil {
		return err
	}

	p.mtx.Lock()
	p.stats.Written++
	p.mtx.Unlock()

	log.Tracef("Logged entry %d (%v) in lane %v", e.Seq, e.Hash, e.Lane)
	return nil
}

// deleteEntry forgets the record of a removed entry.
func (p *Persister) deleteEntry(seq uint64, reason mempool.RemovalReason) error {
	if err := p.store.Delete(seqKey(seq)); err != nil {
		return err
	}

	p.mtx.Lock()
	p.stats.Deleted++
	p.mtx.Unlock()

	log.Tracef("Forgot entry %d (%v)", seq, reason)
	return nil
}

// recordFailure counts a failed write and keeps the first error.
func (p *Persister) recordFailure(err error) {
	log.Errorf("Unable to update entry log: %v", err)

	p.mtx.Lock()
	p.stats.Failed++
	if p.firstErr == nil {
		p.firstErr = err
	}
	p.mtx.Unlock()
}

// Err returns the first write error the persister encountered, if any.  A
// non-nil result means the log may disagree with the pool and should be
// rebuilt.
func (p *Persister) Err() error {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.firstErr
}

// Stats returns a copy of the persister counters.
func (p *Persister) Stats() PersisterStats {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.stats
}

// ForEachEntry replays the log in ascending insertion sequence.  Records
// that cannot be decoded are logged, skipped, and removed from the log once
// iteration finishes.
func (p *Persister) ForEachEntry(fn func(mempool.PersistedEntry) error) error {
	var corrupt [][]byte
	err := p.store.ForEach(func(key, value []byte) error {
		pe, err := decodeRecord(key, value)
		if err != nil {
			log.Warnf("Skipping unreadable entry log record: %v", err)
			corrupt = append(corrupt, append([]byte(nil), key...))
			return nil
		}
		return fn(pe)
	})
	if err != nil {
		return err
	}

	for _, key := range corrupt {
		if err := p.store.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
