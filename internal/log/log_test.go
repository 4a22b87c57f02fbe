// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package log

import (
	"testing"

	"github.com/btcsuite/btclog"
	"github.com/stretchr/testify/require"
)

func TestSupportedSubsystems(t *testing.T) {
	require.Equal(t, []string{"CHAN", "ELOG", "LAND", "TXMP"},
		SupportedSubsystems())
}

func TestSetLogLevel(t *testing.T) {
	defer SetLogLevels("info")

	SetLogLevels("warn")
	for id, logger := range SubsystemLoggers {
		require.Equal(t, btclog.LevelWarn, logger.Level(), id)
	}

	SetLogLevel("TXMP", "trace")
	require.Equal(t, btclog.LevelTrace, SubsystemLoggers["TXMP"].Level())
	require.Equal(t, btclog.LevelWarn, SubsystemLoggers["CHAN"].Level())

	// Unknown subsystems are ignored and bad levels fall back to info.
	SetLogLevel("NOPE", "trace")
	SetLogLevel("CHAN", "loud")
	require.Equal(t, btclog.LevelInfo, SubsystemLoggers["CHAN"].Level())

	require.True(t, ValidLogLevel("debug"))
	require.False(t, ValidLogLevel("loud"))
}

func TestPickNoun(t *testing.T) {
	require.Equal(t, "entry", PickNoun(1, "entry", "entries"))
	require.Equal(t, "entries", PickNoun(0, "entry", "entries"))
	require.Equal(t, "entries", PickNoun(2, "entry", "entries"))
}
