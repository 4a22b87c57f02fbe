// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"errors"
	"time"
)

// Params defines a laned network by its consensus parameters.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// DefaultPort defines the default listen port for the network.
	DefaultPort string

	// GenesisDifficulty is the difficulty declared by the first block and
	// the difficulty used while fewer than two timestamps are known.
	GenesisDifficulty uint64

	// MinDifficulty is the lowest difficulty retargeting may produce.
	MinDifficulty uint64

	// TargetTimePerBlock is the desired amount of time to generate each
	// block.
	TargetTimePerBlock time.Duration

	// RetargetWindow is the number of most recent block timestamps the
	// retargeting calculation averages over.
	RetargetWindow int

	// RetargetAdjustmentFactor bounds a single retarget: the observed
	// average interval is clamped to [target/factor, target*factor].
	RetargetAdjustmentFactor int64
}

// TargetSpacingMillis returns the target block interval in milliseconds.
func (p *Params) TargetSpacingMillis() int64 {
	return p.TargetTimePerBlock.Milliseconds()
}

var (
	// ErrDuplicateNet describes an error where the parameters for a
	// network could not be set due to the network already being a standard
	// network or previously-registered into this package.
	ErrDuplicateNet = errors.New("duplicate network")

	// ErrUnknownNet describes a lookup of a network name that was never
	// registered.
	ErrUnknownNet = errors.New("unknown network")
)

var registeredNets = make(map[string]*Params)

// Register registers the network parameters for a network.  This may error
// with ErrDuplicateNet if the network is already registered (either due to a
// previous Register call, or the network being one of the default networks).
func Register(params *Params) error {
	if _, ok := registeredNets[params.Name]; ok {
		return ErrDuplicateNet
	}
	registeredNets[params.Name] = params
	return nil
}

// mustRegister performs the same function as Register except it panics if there
// is an error.  This should only be called from package init functions.
func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic("failed to register network: " + err.Error())
	}
}

// ParamsForName returns the registered parameters for a network name.
func ParamsForName(name string) (*Params, error) {
	params, ok := registeredNets[name]
	if !ok {
		return nil, ErrUnknownNet
	}
	return params, nil
}

func init() {
	// Register all default networks when the package is initialized.
	mustRegister(&MainNetParams)
	mustRegister(&SimNetParams)
}
