// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/btcsuite/laned/chaincfg"
	"github.com/btcsuite/laned/entrylog"
	"github.com/btcsuite/laned/internal/log"
	"github.com/btcsuite/laned/ledger"
	"github.com/btcsuite/laned/mempool"
	"github.com/btcsuite/laned/txauth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// serverConfig holds the collaborators a server is assembled from.
type serverConfig struct {
	Policy       mempool.Policy
	ChainParams  *chaincfg.Params
	Ledger       ledger.Ledger
	SigCacheSize uint

	// Store is the entry log.  The pool is not persisted when nil.
	Store entrylog.Store

	// MetricsListen is the metrics listen address, disabled when empty.
	MetricsListen string

	Clock clock.Clock
}

// server hosts a mempool along with its sweeper, entry log and metrics
// exporter.
type server struct {
	started  int32
	shutdown int32

	cfg       serverConfig
	pool      *mempool.TxPool
	sweeper   *mempool.Sweeper
	persister *entrylog.Persister
	registry  *prometheus.Registry

	metricsServer *http.Server
	metricsAddr   net.Addr

	quit chan struct{}
	wg   sync.WaitGroup
}

// noEntries is the rehydration source of a pool without an entry log.
type noEntries struct{}

func (noEntries) ForEachEntry(func(mempool.PersistedEntry) error) error {
	return nil
}

// newServer returns a new server configured by cfg.  Use Start to begin
// serving.
func newServer(cfg serverConfig) (*server, error) {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	verifier := txauth.NewCachingVerifier(txauth.SchnorrVerifier{},
		cfg.SigCacheSize)
	pool, err := mempool.New(&mempool.Config{
		Policy:   cfg.Policy,
		Lanes:    mempool.DefaultLanes,
		Ledger:   cfg.Ledger,
		Verifier: verifier,
		Clock:    cfg.Clock,
	})
	if err != nil {
		return nil, err
	}

	s := &server{
		cfg:     cfg,
		pool:    pool,
		sweeper: mempool.NewSweeper(pool, cfg.Policy.SweepInterval),
		quit:    make(chan struct{}),
	}
	if cfg.Store != nil {
		s.persister = entrylog.NewPersister(cfg.Store)
		s.persister.Attach(pool)
	}

	s.registry = prometheus.NewRegistry()
	if err := s.registry.Register(newPoolCollector(pool, s.persister)); err != nil {
		return nil, err
	}

	return s, nil
}

// entrySource returns where the pool is rebuilt from.
func (s *server) entrySource() mempool.EntrySource {
	if s.persister == nil {
		return noEntries{}
	}
	return s.persister
}

// rebuild replaces the pool contents with the persisted history.
func (s *server) rebuild() error {
	res, err := s.pool.Rehydrate(s.entrySource())
	if err != nil {
		return err
	}
	landLog.Infof("Mempool rebuilt with %d %s (%d skipped, %d rejected, "+
		"%d expired)", res.Replayed, log.PickNoun(uint64(res.Replayed),
		"entry", "entries"), res.Skipped, res.Rejected, res.Expired)
	return nil
}

// Start rebuilds the pool from the entry log and begins background
// processing.  The pool is not usable by other callers until Start returns.
func (s *server) Start() error {
	if atomic.AddInt32(&s.started, 1) != 1 {
		return nil
	}

	landLog.Tracef("Starting server on %s", s.cfg.ChainParams.Name)

	if err := s.rebuild(); err != nil {
		return err
	}
	s.sweeper.Start()

	if s.cfg.MetricsListen != "" {
		listener, err := net.Listen("tcp", s.cfg.MetricsListen)
		if err != nil {
			s.sweeper.Stop()
			return err
		}
		s.metricsAddr = listener.Addr()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry,
			promhttp.HandlerOpts{}))
		s.metricsServer = &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			landLog.Infof("Metrics server listening on %s",
				s.metricsAddr)
			err := s.metricsServer.Serve(listener)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				landLog.Errorf("Metrics server: %v", err)
			}
		}()
	}

	s.wg.Add(1)
	go s.poolWatchdog()

	return nil
}

// poolWatchdog rebuilds the pool from the entry log whenever a mutation has
// poisoned it.  It must be run as a goroutine.
func (s *server) poolWatchdog() {
	defer s.wg.Done()

	ticker := s.cfg.Clock.Ticker(s.sweeper.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.pool.IsPoisoned() {
				continue
			}
			landLog.Warnf("Mempool is poisoned, rebuilding it from " +
				"the entry log")
			if err := s.rebuild(); err != nil {
				landLog.Errorf("Unable to rebuild mempool: %v", err)
			}

		case <-s.quit:
			return
		}
	}
}

// Stop gracefully shuts down the server by stopping and disconnecting all
// background processing.  The entry log is left to the caller to close.
func (s *server) Stop() error {
	if atomic.AddInt32(&s.shutdown, 1) != 1 {
		landLog.Infof("Server is already in the process of shutting down")
		return nil
	}

	landLog.Warnf("Server shutting down")

	close(s.quit)
	s.sweeper.Stop()

	var err error
	if s.metricsServer != nil {
		err = s.metricsServer.Close()
	}
	s.wg.Wait()

	if s.persister != nil {
		if perr := s.persister.Err(); perr != nil {
			landLog.Errorf("Entry log may be out of date: %v", perr)
		}
	}
	return err
}
