// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entrylog

import (
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/pkg/errors"
)

// PebbleStore is a Store backed by pebble.
type PebbleStore struct {
	db     *pebble.DB
	closed atomic.Bool
}

// Ensure PebbleStore implements the Store interface.
var _ Store = (*PebbleStore)(nil)

// OpenPebble opens, creating it when needed, the pebble entry log at path.
// When fs is nil the operating system's file system is used; tests pass
// vfs.NewMem().
func OpenPebble(path string, fs vfs.FS) (*PebbleStore, error) {
	opts := &pebble.Options{
		BytesPerSync: 1 << 20,
		MaxOpenFiles: 64,
		FS:           fs,
		Levels: []pebble.LevelOptions{
			{TargetFileSize: 2 << 20, FilterPolicy: bloom.FilterPolicy(10)},
		},
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return &PebbleStore{db: db}, nil
}

// Put stores value under key.
func (s *PebbleStore) Put(key, value []byte) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	return errors.Wrap(s.db.Set(key, value, pebble.NoSync), "in set")
}

// Delete removes key.
func (s *PebbleStore) Delete(key []byte) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	return errors.Wrap(s.db.Delete(key, pebble.NoSync), "in delete")
}

// ForEach visits every pair in ascending key order.
func (s *PebbleStore) ForEach(fn func(key, value []byte) error) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	iter, err := s.db.NewIter(nil)
	if err != nil {
		return errors.Wrap(err, "in iterator")
	}
	for valid := iter.First(); valid; valid = iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			iter.Close()
			return err
		}
	}
	return errors.Wrap(iter.Close(), "in iterator")
}

// Close flushes the memtable and closes the database.  Closing twice is a
// no-op.
func (s *PebbleStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	if err := s.db.Flush(); err != nil {
		s.db.Close()
		return errors.Wrap(err, "on flush")
	}
	return errors.Wrap(s.db.Close(), "on close")
}
