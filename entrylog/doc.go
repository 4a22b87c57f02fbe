// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package entrylog provides a durable log of the entries admitted to a mempool.

Each live entry is stored as one record keyed by its big-endian insertion
sequence, so iterating the store replays entries in the order they were first
admitted.  A record holds the lane, the admission time and the serialized
transaction.

Two storage engines are provided: LevelDBStore on goleveldb and PebbleStore on
pebble.  Both satisfy Store.

A Persister subscribes to a mempool's notifications and keeps the log in step:
admissions write a record and every removal (inclusion, expiry, eviction,
orphan sweeping, explicit drops and rejected replays) deletes it.  The pool
itself performs no disk I/O.  On startup the same Persister is passed to
TxPool.Rehydrate as the mempool.EntrySource.
*/
package entrylog
