// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/laned/entrylog"
	"github.com/btcsuite/laned/internal/limits"
	"github.com/btcsuite/laned/internal/log"
	"github.com/btcsuite/laned/internal/version"
	"github.com/btcsuite/laned/ledger"
)

// landLog is the daemon's own logger.
var landLog = log.LandLog

// openEntryLog opens the entry log database of the configured type.
func openEntryLog(cfg *config) (entrylog.Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(cfg.DataDir, entryLogDbName+"_"+cfg.DbType)
	landLog.Infof("Loading entry log from '%s'", dbPath)
	switch cfg.DbType {
	case "pebble":
		return entrylog.OpenPebble(dbPath, nil)
	default:
		return entrylog.OpenLevelDB(dbPath)
	}
}

// seedLedger returns an in-memory ledger holding the configured accounts.
func seedLedger(cfg *config) (*ledger.MemLedger, error) {
	l := ledger.NewMemLedger()
	for _, s := range cfg.Accounts {
		acct, err := parseAccount(s)
		if err != nil {
			return nil, err
		}
		l.AddAccount(acct)
	}
	landLog.Infof("Ledger seeded with %d %s", len(cfg.Accounts),
		log.PickNoun(uint64(len(cfg.Accounts)), "account", "accounts"))
	return l, nil
}

// landMain is the real main function for laned.  It is necessary to work
// around the fact that deferred functions do not run when os.Exit() is called.
func landMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	cfg, params, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	logFile := filepath.Join(cfg.LogDir, defaultLogFilename)
	if err := log.InitLogRotator(logFile); err != nil {
		return err
	}
	defer func() {
		if log.LogRotator != nil {
			log.LogRotator.Close()
		}
	}()

	// Get a channel that will be closed when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C).
	interrupt := interruptListener()

	// Show version at startup.
	landLog.Infof("Version %s on %s", version.String(), params.Name)

	l, err := seedLedger(cfg)
	if err != nil {
		return err
	}

	var store entrylog.Store
	if !cfg.NoEntryLog {
		store, err = openEntryLog(cfg)
		if err != nil {
			landLog.Errorf("Unable to open entry log: %v", err)
			return err
		}
		defer func() {
			landLog.Infof("Gracefully shutting down the entry log...")
			if err := store.Close(); err != nil {
				landLog.Errorf("Unable to close entry log: %v", err)
			}
		}()
	}

	s, err := newServer(serverConfig{
		Policy:        cfg.policy(),
		ChainParams:   params,
		Ledger:        l,
		SigCacheSize:  cfg.SigCacheSize,
		Store:         store,
		MetricsListen: cfg.MetricsListen,
	})
	if err != nil {
		landLog.Errorf("Unable to create server: %v", err)
		return err
	}
	if err := s.Start(); err != nil {
		landLog.Errorf("Unable to start server: %v", err)
		return err
	}
	defer func() {
		landLog.Infof("Gracefully shutting down the server...")
		if err := s.Stop(); err != nil {
			landLog.Errorf("Error stopping server: %v", err)
		}
		landLog.Infof("Server shutdown complete")
	}()

	// Wait until the interrupt signal is received from an OS signal.
	<-interrupt
	return nil
}

func main() {
	// Up some limits.
	if err := limits.SetLimits(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set limits: %v\n", err)
		os.Exit(1)
	}

	// Work around defer not working after os.Exit()
	if err := landMain(); err != nil {
		os.Exit(1)
	}
}
