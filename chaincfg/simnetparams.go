// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"
)

// SimNetParams defines the network parameters for the simulation test
// network.  It retargets over a short window so local clusters converge
// quickly.
var SimNetParams = Params{
	Name:        "simnet",
	DefaultPort: "13033",

	// Chain parameters
	GenesisDifficulty:        1,
	MinDifficulty:            1,
	TargetTimePerBlock:       time.Second,
	RetargetWindow:           10,
	RetargetAdjustmentFactor: 4,
}
