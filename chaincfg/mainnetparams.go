// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"
)

// MainNetParams defines the network parameters for the main network.
var MainNetParams = Params{
	Name:        "mainnet",
	DefaultPort: "3033",

	// Chain parameters
	GenesisDifficulty:        1000,
	MinDifficulty:            1,
	TargetTimePerBlock:       time.Second,
	RetargetWindow:           120,
	RetargetAdjustmentFactor: 4,
}
