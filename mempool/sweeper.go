// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"sync"
	"sync/atomic"
	"time"
)

// Sweeper runs a pool maintenance pass on a fixed interval.  Each pass is a
// single Sweep call, so a pass is never partially applied.  Shutdown is
// checked only between passes.
type Sweeper struct {
	started  int32
	shutdown int32

	pool     *TxPool
	interval time.Duration
	quit     chan struct{}
	wg       sync.WaitGroup
}

// NewSweeper returns a sweeper for pool.  A non-positive interval uses the
// pool policy's SweepInterval, falling back to DefaultSweepInterval.
func NewSweeper(pool *TxPool, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = pool.cfg.Policy.SweepInterval
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		pool:     pool,
		interval: interval,
		quit:     make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (s *Sweeper) Start() {
	if atomic.AddInt32(&s.started, 1) != 1 {
		return
	}

	log.Tracef("Starting mempool sweeper every %v", s.interval)
	s.wg.Add(1)
	go s.sweepHandler()
}

// Stop signals the sweep loop to exit and waits for the pass in progress,
// if any, to finish.
func (s *Sweeper) Stop() {
	if atomic.AddInt32(&s.shutdown, 1) != 1 {
		log.Warnf("Mempool sweeper is already in the process of " +
			"shutting down")
		return
	}

	close(s.quit)
	s.wg.Wait()
	log.Tracef("Mempool sweeper stopped")
}

// Interval returns the period between passes.
func (s *Sweeper) Interval() time.Duration {
	return s.interval
}

// RunOnce performs a single maintenance pass immediately.
func (s *Sweeper) RunOnce() (SweepResult, error) {
	return s.pool.Sweep()
}

// sweepHandler is the sweep loop.  It must be run as a goroutine.
func (s *Sweeper) sweepHandler() {
	defer s.wg.Done()

	ticker := s.pool.cfg.Clock.Ticker(s.interval)
	defer ticker.Stop()

	var reportedPoison bool
	for {
		select {
		case <-ticker.C:
			// Prefer shutdown when both are ready.
			select {
			case <-s.quit:
				return
			default:
			}

			res, err := s.RunOnce()
			if err != nil {
				if !reportedPoison {
					log.Errorf("Mempool sweep failed: %v", err)
					reportedPoison = IsErrorCode(err, ErrLockPoisoned)
				}
				continue
			}
			reportedPoison = false
			if res.Expired > 0 || res.Orphans > 0 {
				log.Debugf("Mempool sweep removed %d expired and "+
					"%d orphaned entries", res.Expired,
					res.Orphans)
			}

		case <-s.quit:
			return
		}
	}
}
