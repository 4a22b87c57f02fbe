// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/laned/chaincfg"
	"github.com/btcsuite/laned/internal/log"
	"github.com/btcsuite/laned/internal/version"
	"github.com/btcsuite/laned/ledger"
	"github.com/btcsuite/laned/mempool"
	flags "github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename = "laned.conf"
	defaultDataDirname    = "data"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "laned.log"
	defaultLogLevel       = "info"
	defaultDbType         = "leveldb"
	defaultSigCacheSize   = 50000
	entryLogDbName        = "entrylog"
)

var (
	defaultHomeDir    = btcutil.AppDataDir("laned", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(defaultHomeDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
	knownDbTypes      = []string{"leveldb", "pebble"}
)

// config defines the configuration options for laned.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ShowVersion         bool          `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile          string        `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir             string        `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir              string        `long:"logdir" description:"Directory to log output"`
	DebugLevel          string        `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	SimNet              bool          `long:"simnet" description:"Use the simulation test network"`
	DbType              string        `long:"dbtype" description:"Database backend to use for the entry log {leveldb, pebble}"`
	NoEntryLog          bool          `long:"noentrylog" description:"Do not persist admitted entries; the pool starts empty on every run"`
	MaxLaneSize         int           `long:"maxlanesize" description:"Maximum number of entries each lane may hold"`
	MaxPendingPerSender int           `long:"maxpendingpersender" description:"Maximum number of entries a single sender may hold in one lane"`
	EntryTTL            time.Duration `long:"entryttl" description:"How long an entry may stay queued.  Valid time units are {s, m, h}"`
	MinFeePerByte       uint64        `long:"minfeeperbyte" description:"Lowest acceptable fee divided by serialized size"`
	SweepInterval       time.Duration `long:"sweepinterval" description:"Period of the background expiry and orphan sweep"`
	SigCacheSize        uint          `long:"sigcachesize" description:"The maximum number of entries in the signature verification cache"`
	MetricsListen       string        `long:"metricslisten" description:"Serve Prometheus metrics on this interface/port (eg. 127.0.0.1:9101) -- disabled when empty"`
	Accounts            []string      `long:"account" description:"Seed the ledger with an account as address:consumer:industrial[:nonce] -- may be repeated"`
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(defaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// validDbType returns whether or not dbType is a supported database type.
func validDbType(dbType string) bool {
	for _, knownType := range knownDbTypes {
		if dbType == knownType {
			return true
		}
	}
	return false
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly.  An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimiters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		// Validate debug log level.
		if !log.ValidLogLevel(debugLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, debugLevel)
		}

		// Change the logging level for all subsystems.
		log.SetLogLevels(debugLevel)
		return nil
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			str := "the specified debug level contains an invalid " +
				"subsystem/level pair [%v]"
			return fmt.Errorf(str, logLevelPair)
		}

		// Extract the specified subsystem and log level.
		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		// Validate subsystem.
		if _, exists := log.SubsystemLoggers[subsysID]; !exists {
			str := "the specified subsystem [%v] is invalid -- " +
				"supported subsystems %v"
			return fmt.Errorf(str, subsysID, log.SupportedSubsystems())
		}

		// Validate log level.
		if !log.ValidLogLevel(logLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, logLevel)
		}

		log.SetLogLevel(subsysID, logLevel)
	}

	return nil
}

// parseAccount parses an address:consumer:industrial[:nonce] ledger seed.
func parseAccount(s string) (ledger.Account, error) {
	fields := strings.Split(s, ":")
	if len(fields) != 3 && len(fields) != 4 {
		return ledger.Account{}, fmt.Errorf("account %q is not of the "+
			"form address:consumer:industrial[:nonce]", s)
	}
	if fields[0] == "" {
		return ledger.Account{}, fmt.Errorf("account %q has an empty "+
			"address", s)
	}

	values := make([]uint64, 3)
	for i, field := range fields[1:] {
		v, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return ledger.Account{}, fmt.Errorf("account %q: %w", s, err)
		}
		values[i] = v
	}
	return ledger.Account{
		Address:    fields[0],
		Consumer:   values[0],
		Industrial: values[1],
		Nonce:      values[2],
	}, nil
}

// policy returns the mempool policy selected by the configuration.
func (cfg *config) policy() mempool.Policy {
	return mempool.Policy{
		MaxLaneSize:         cfg.MaxLaneSize,
		MaxPendingPerSender: cfg.MaxPendingPerSender,
		EntryTTL:            cfg.EntryTTL,
		MinFeePerByte:       cfg.MinFeePerByte,
		SweepInterval:       cfg.SweepInterval,
	}
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in laned functioning properly without any config settings
// while still allowing the user to override settings with config files and
// command line options.  Command line options always take precedence.
func loadConfig(args []string) (*config, *chaincfg.Params, error) {
	// Default config.
	defaults := mempool.DefaultPolicy()
	cfg := config{
		ConfigFile:          defaultConfigFile,
		DataDir:             defaultDataDir,
		LogDir:              defaultLogDir,
		DebugLevel:          defaultLogLevel,
		DbType:              defaultDbType,
		MaxLaneSize:         defaults.MaxLaneSize,
		MaxPendingPerSender: defaults.MaxPendingPerSender,
		EntryTTL:            defaults.EntryTTL,
		MinFeePerByte:       defaults.MinFeePerByte,
		SweepInterval:       defaults.SweepInterval,
		SigCacheSize:        defaultSigCacheSize,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			preParser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	// Show the version and exit if the version flag was specified.
	if preCfg.ShowVersion {
		fmt.Println("laned version", version.String())
		os.Exit(0)
	}

	// Load additional config from file.
	var configFileError error
	parser := flags.NewParser(&cfg, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		if _, ok := err.(*os.PathError); !ok {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %v\n", err)
			parser.WriteHelp(os.Stderr)
			return nil, nil, err
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.ParseArgs(args)
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	funcName := "loadConfig"
	params := &chaincfg.MainNetParams
	if cfg.SimNet {
		params = &chaincfg.SimNetParams
	}

	// Namespace the data and log directories per network.
	cfg.DataDir = filepath.Join(cleanAndExpandPath(cfg.DataDir), params.Name)
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir), params.Name)

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", log.SupportedSubsystems())
		os.Exit(0)
	}

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("%s: %v", funcName, err.Error())
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	// Validate database type.
	if !validDbType(cfg.DbType) {
		str := "%s: The specified database type [%v] is invalid -- " +
			"supported types %v"
		err := fmt.Errorf(str, funcName, cfg.DbType, knownDbTypes)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	// Validate the pool policy.  The pool checks it again on creation, but
	// failing here prints the usage alongside the error.
	switch {
	case cfg.MaxLaneSize <= 0:
		err = fmt.Errorf("%s: maxlanesize must be positive", funcName)
	case cfg.MaxPendingPerSender <= 0:
		err = fmt.Errorf("%s: maxpendingpersender must be positive",
			funcName)
	case cfg.EntryTTL < time.Second:
		err = fmt.Errorf("%s: the entryttl option may not be less than "+
			"1s -- parsed [%v]", funcName, cfg.EntryTTL)
	case cfg.SweepInterval < time.Second:
		err = fmt.Errorf("%s: the sweepinterval option may not be less "+
			"than 1s -- parsed [%v]", funcName, cfg.SweepInterval)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	// Validate ledger seeds.
	for _, s := range cfg.Accounts {
		if _, err := parseAccount(s); err != nil {
			err := fmt.Errorf("%s: %v", funcName, err)
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
	}

	// Validate the metrics listener.
	if cfg.MetricsListen != "" {
		if _, _, err := net.SplitHostPort(cfg.MetricsListen); err != nil {
			str := "%s: invalid metricslisten address %q: %v"
			err := fmt.Errorf(str, funcName, cfg.MetricsListen, err)
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
	}

	// Warn about missing config file only after all other configuration is
	// done.  This prevents the warning on help messages and invalid
	// options.  Note this should go directly before the return.
	if configFileError != nil {
		log.LandLog.Warnf("%v", configFileError)
	}

	return &cfg, params, nil
}
