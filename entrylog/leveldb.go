// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entrylog

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// LevelDBStore is a Store backed by goleveldb.
type LevelDBStore struct {
	db     *leveldb.DB
	closed atomic.Bool
}

// Ensure LevelDBStore implements the Store interface.
var _ Store = (*LevelDBStore)(nil)

// levelDBOptions returns the options every entry log database is opened
// with.
func levelDBOptions() *opt.Options {
	return &opt.Options{
		Strict:      opt.DefaultStrict,
		Compression: opt.NoCompression,
		Filter:      filter.NewBloomFilter(10),
	}
}

// OpenLevelDB opens, creating it when needed, the leveldb entry log at path.
func OpenLevelDB(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, levelDBOptions())
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return &LevelDBStore{db: db}, nil
}

// NewLevelDB returns a leveldb entry log on top of stor, typically a
// storage.NewMemStorage for ephemeral logs.
func NewLevelDB(stor storage.Storage) (*LevelDBStore, error) {
	db, err := leveldb.Open(stor, levelDBOptions())
	if err != nil {
		return nil, errors.Wrap(err, "open storage")
	}
	return &LevelDBStore{db: db}, nil
}

// Put stores value under key.
func (s *LevelDBStore) Put(key, value []byte) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	return errors.Wrap(s.db.Put(key, value, nil), "in put")
}

// Delete removes key.
func (s *LevelDBStore) Delete(key []byte) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	return errors.Wrap(s.db.Delete(key, nil), "in delete")
}

// ForEach visits every pair in ascending key order.
func (s *LevelDBStore) ForEach(fn func(key, value []byte) error) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return errors.Wrap(iter.Error(), "in iterator")
}

// Close closes the database.  Closing twice is a no-op.
func (s *LevelDBStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return errors.Wrap(s.db.Close(), "on close")
}
