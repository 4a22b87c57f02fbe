// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entrylog

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrStoreClosed is returned by every operation on a closed store.
var ErrStoreClosed = errors.New("entrylog: store closed")

// Store is an ordered key/value engine holding the entry log.  Keys are
// compared bytewise.
type Store interface {
	// Put stores value under key, replacing any existing value.
	Put(key, value []byte) error

	// Delete removes key.  Deleting a missing key is not an error.
	Delete(key []byte) error

	// ForEach calls fn for every key/value pair in ascending key order.
	// The slices are only valid until fn returns.  Iteration stops at
	// the first error fn returns, which is passed back to the caller.
	ForEach(fn func(key, value []byte) error) error

	// Close flushes pending writes and releases the store.
	Close() error
}

// seqKeyLen is the length of an entry key.
const seqKeyLen = 8

// seqKey returns the key of the entry with insertion sequence seq.  Keys are
// big endian so bytewise order matches sequence order.
func seqKey(seq uint64) []byte {
	var key [seqKeyLen]byte
	binary.BigEndian.PutUint64(key[:], seq)
	return key[:]
}

// keySeq is the inverse of seqKey.
func keySeq(key []byte) (uint64, error) {
	if len(key) != seqKeyLen {
		return 0, errors.Errorf("malformed key of %d bytes", len(key))
	}
	return binary.BigEndian.Uint64(key), nil
}
