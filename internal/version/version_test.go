// Copyright (c) 2015-2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	defer func(pre, build string) {
		PreRelease, BuildMetadata = pre, build
	}(PreRelease, BuildMetadata)

	tests := []struct {
		pre, build string
		want       string
	}{
		{"", "", "0.3.0"},
		{"beta", "", "0.3.0-beta"},
		{"beta", "abc123", "0.3.0-beta+abc123"},
		{"be.ta!", "a_b", "0.3.0-beta+ab"},
		{"", "dev", "0.3.0+dev"},
	}
	for _, test := range tests {
		PreRelease, BuildMetadata = test.pre, test.build
		require.Equal(t, test.want, String())
	}
}
