// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"
	"time"
)

const (
	// DefaultMaxLaneSize is the default number of live entries a single
	// lane may hold.
	DefaultMaxLaneSize = 1024

	// DefaultMaxPendingPerSender is the default number of live entries a
	// single sender may hold in one lane.
	DefaultMaxPendingPerSender = 16

	// DefaultEntryTTL is the default time an entry may stay queued
	// without being included in a block.
	DefaultEntryTTL = 30 * time.Minute

	// DefaultMinFeePerByte is the default fee-per-byte floor.
	DefaultMinFeePerByte = 1

	// DefaultSweepInterval is the default period of the background
	// sweeper.
	DefaultSweepInterval = 30 * time.Second

	// rehydrateBatchSize is the number of persisted entries replayed per
	// acquisition of the pool lock during startup.
	rehydrateBatchSize = 256
)

// Lane identifies a fee class.  Every lane is an independent queue with its
// own capacity, ordering and per-sender limits.
type Lane uint8

const (
	// LaneStandard is the default fee class.
	LaneStandard Lane = iota

	// LanePriority is the fee class for latency sensitive traffic.
	LanePriority
)

// DefaultLanes are the lanes a pool serves when none are configured.
var DefaultLanes = []Lane{LaneStandard, LanePriority}

// String returns the lane as a human-readable name.
func (l Lane) String() string {
	switch l {
	case LaneStandard:
		return "standard"
	case LanePriority:
		return "priority"
	}
	return fmt.Sprintf("lane(%d)", uint8(l))
}

// ParseLane returns the lane named s.
func ParseLane(s string) (Lane, error) {
	switch s {
	case "standard":
		return LaneStandard, nil
	case "priority":
		return LanePriority, nil
	}
	return 0, fmt.Errorf("unknown lane %q", s)
}

// Policy houses the policy (configuration parameters) which is used to
// control the mempool.
type Policy struct {
	// MaxLaneSize is the number of live entries each lane may hold.
	MaxLaneSize int

	// MaxPendingPerSender is the number of live entries a single sender
	// may hold in one lane.
	MaxPendingPerSender int

	// EntryTTL is the time an entry may stay queued before it is purged.
	EntryTTL time.Duration

	// MinFeePerByte is the lowest acceptable fee divided by serialized
	// size.
	MinFeePerByte uint64

	// SweepInterval is the period of the background sweeper.
	SweepInterval time.Duration
}

// DefaultPolicy returns the default mempool policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxLaneSize:         DefaultMaxLaneSize,
		MaxPendingPerSender: DefaultMaxPendingPerSender,
		EntryTTL:            DefaultEntryTTL,
		MinFeePerByte:       DefaultMinFeePerByte,
		SweepInterval:       DefaultSweepInterval,
	}
}

// validate checks the policy for values the pool cannot operate with.
func (p *Policy) validate() error {
	switch {
	case p.MaxLaneSize <= 0:
		return fmt.Errorf("MaxLaneSize must be positive, got %d",
			p.MaxLaneSize)
	case p.MaxPendingPerSender <= 0:
		return fmt.Errorf("MaxPendingPerSender must be positive, got %d",
			p.MaxPendingPerSender)
	case p.EntryTTL <= 0:
		return fmt.Errorf("EntryTTL must be positive, got %v", p.EntryTTL)
	}
	return nil
}
