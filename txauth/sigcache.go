// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauth

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/lru"
)

// sigInfo represents an entry in the SigCache.  Entries are keyed by the hash
// of the payload together with the raw signature and key.
type sigInfo struct {
	payloadHash chainhash.Hash
	sig         string
	pubKey      string
}

// CachingVerifier wraps a Verifier with a bounded cache of signatures that
// have already been proven valid.  A transaction is verified once at
// admission and again when its block is validated; the second check is a
// cache hit.  Only valid signatures are cached, so an attacker cannot fill
// the cache with garbage.
type CachingVerifier struct {
	verifier  Verifier
	validSigs lru.Cache
}

// Ensure CachingVerifier implements the Verifier interface.
var _ Verifier = (*CachingVerifier)(nil)

// NewCachingVerifier returns a verifier that remembers up to maxEntries
// valid signatures.
func NewCachingVerifier(v Verifier, maxEntries uint) *CachingVerifier {
	return &CachingVerifier{
		verifier:  v,
		validSigs: lru.NewCache(maxEntries),
	}
}

// VerifySignature consults the cache before delegating to the wrapped
// verifier.
//
// This function is safe for concurrent access.
func (c *CachingVerifier) VerifySignature(payload, sig, pubKey []byte) bool {
	info := sigInfo{
		payloadHash: chainhash.HashH(payload),
		sig:         string(sig),
		pubKey:      string(pubKey),
	}
	if c.validSigs.Contains(info) {
		return true
	}
	if !c.verifier.VerifySignature(payload, sig, pubKey) {
		return false
	}
	c.validSigs.Add(info)
	return true
}
