// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2015-2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package version provides a single location to house the version information
// for laned.
package version

import (
	"fmt"
	"strings"
)

// semanticAlphabet defines the allowed characters for the pre-release and
// build metadata portions of a semantic version string.
const semanticAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"

// These constants define the application version and follow the semantic
// versioning 2.0.0 rules (http://semver.org/).
const (
	Major uint = 0
	Minor uint = 3
	Patch uint = 0
)

var (
	// PreRelease is defined as a variable so it can be overridden during the
	// build process with:
	// '-ldflags "-X github.com/btcsuite/laned/internal/version.PreRelease=foo"'
	PreRelease = "beta"

	// BuildMetadata is defined as a variable so it can be overridden during
	// the build process in the same way as PreRelease.
	BuildMetadata = ""
)

// String returns the application version as a properly formed string per the
// semantic versioning 2.0.0 rules (http://semver.org/).  Characters outside
// the semantic alphabet are dropped from the pre-release and build parts.
func String() string {
	version := fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
	if pre := normalize(PreRelease); pre != "" {
		version += "-" + pre
	}
	if build := normalize(BuildMetadata); build != "" {
		version += "+" + build
	}
	return version
}

// normalize returns str stripped of every character outside the semantic
// alphabet.
func normalize(str string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(semanticAlphabet, r) {
			return r
		}
		return -1
	}, str)
}
