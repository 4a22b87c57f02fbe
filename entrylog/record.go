// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entrylog

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/btcsuite/laned/mempool"
	"github.com/btcsuite/laned/wire"
	"github.com/pkg/errors"
)

// recordHeaderLen is the fixed prefix of a record: the lane followed by the
// admission time in unix nanoseconds.
const recordHeaderLen = 1 + 8

// encodeRecord serializes the value stored for an admitted entry:
//
//	lane (1 byte) | added, unix nanoseconds (8 bytes, big endian) | tx
func encodeRecord(lane mempool.Lane, added time.Time, tx *wire.MsgTx) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(recordHeaderLen + tx.SerializeSize())

	var hdr [recordHeaderLen]byte
	hdr[0] = byte(lane)
	binary.BigEndian.PutUint64(hdr[1:], uint64(added.UnixNano()))
	buf.Write(hdr[:])
	if err := tx.Serialize(&buf); err != nil {
		return nil, errors.Wrap(err, "serialize tx")
	}
	return buf.Bytes(), nil
}

// decodeRecord parses a stored key/value pair back into a persisted entry.
func decodeRecord(key, value []byte) (mempool.PersistedEntry, error) {
	seq, err := keySeq(key)
	if err != nil {
		return mempool.PersistedEntry{}, err
	}
	if len(value) < recordHeaderLen {
		return mempool.PersistedEntry{}, errors.Errorf("record %d "+
			"truncated to %d bytes", seq, len(value))
	}

	added := int64(binary.BigEndian.Uint64(value[1:recordHeaderLen]))
	tx := new(wire.MsgTx)
	r := bytes.NewReader(value[recordHeaderLen:])
	if err := tx.Deserialize(r); err != nil {
		return mempool.PersistedEntry{}, errors.Wrapf(err,
			"record %d", seq)
	}
	if r.Len() != 0 {
		return mempool.PersistedEntry{}, errors.Errorf("record %d has "+
			"%d trailing bytes", seq, r.Len())
	}

	return mempool.PersistedEntry{
		Lane:  mempool.Lane(value[0]),
		Tx:    tx,
		Added: time.Unix(0, added),
		Seq:   seq,
	}, nil
}
