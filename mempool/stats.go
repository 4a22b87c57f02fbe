// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"sync/atomic"
)

// LaneStats describes one lane as of the Snapshot that returned it.
type LaneStats struct {
	Size     int
	Capacity int
	Orphans  int

	// PendingBySender is the number of live entries per sender.
	PendingBySender map[string]int
}

// Snapshot is a read-only view of the pool for telemetry and RPC callers.
// Lane figures reflect the state after the most recent completed mutation;
// counters are cumulative since the pool was created.
type Snapshot struct {
	Lanes map[Lane]LaneStats

	Admitted     uint64
	Evicted      uint64
	Expired      uint64
	OrphansSwept uint64
	OrphanSweeps uint64
	Included     uint64
	Dropped      uint64

	// Rejections counts failed submissions by error code.
	Rejections map[ErrorCode]uint64

	Poisoned bool
}

// Pending returns the number of live entries sender holds across all lanes.
func (s *Snapshot) Pending(sender string) int {
	var n int
	for _, ls := range s.Lanes {
		n += ls.PendingBySender[sender]
	}
	return n
}

// counters are the cumulative outcome counters of a pool.
type counters struct {
	admitted     atomic.Uint64
	evicted      atomic.Uint64
	expired      atomic.Uint64
	orphansSwept atomic.Uint64
	orphanSweeps atomic.Uint64
	included     atomic.Uint64
	dropped      atomic.Uint64
	rejections   [numErrorCodes]atomic.Uint64
}

// recordRejection bumps the counter for the code carried by err, if any.
func (c *counters) recordRejection(err error) {
	for code := ErrorCode(0); code < numErrorCodes; code++ {
		if IsErrorCode(err, code) {
			c.rejections[code].Add(1)
			return
		}
	}
}

// laneFigures builds the per-lane figures of a Snapshot.
//
// This function MUST be called with the mempool lock held (for reads).
func (mp *TxPool) laneFigures() map[Lane]LaneStats {
	lanes := make(map[Lane]LaneStats, len(mp.lanes))
	for id, q := range mp.lanes {
		pending := make(map[string]int, len(q.perSender))
		for sender, n := range q.perSender {
			pending[sender] = n
		}
		lanes[id] = LaneStats{
			Size:            q.Len(),
			Capacity:        q.capacity,
			Orphans:         q.orphans,
			PendingBySender: pending,
		}
	}
	return lanes
}

// Snapshot returns the current telemetry view.  Lane figures are copied under
// the pool read lock.
//
// This function is safe for concurrent access.
func (mp *TxPool) Snapshot() Snapshot {
	s := Snapshot{
		Admitted:     mp.stats.admitted.Load(),
		Evicted:      mp.stats.evicted.Load(),
		Expired:      mp.stats.expired.Load(),
		OrphansSwept: mp.stats.orphansSwept.Load(),
		OrphanSweeps: mp.stats.orphanSweeps.Load(),
		Included:     mp.stats.included.Load(),
		Dropped:      mp.stats.dropped.Load(),
		Rejections:   make(map[ErrorCode]uint64),
		Poisoned:     mp.poisoned.Load(),
	}
	for code := ErrorCode(0); code < numErrorCodes; code++ {
		if n := mp.stats.rejections[code].Load(); n > 0 {
			s.Rejections[code] = n
		}
	}

	mp.mtx.RLock()
	s.Lanes = mp.laneFigures()
	mp.mtx.RUnlock()

	return s
}
