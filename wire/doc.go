// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package wire implements the canonical encoding of laned transactions and
blocks.

All integers are little endian.  Variable length fields are prefixed with a
compact varint.  The same encoding is used on the wire, in the entry log, and
as the size basis for fee-per-byte.

Transaction ids are the blake3 hash of a "TX" tag, the signed payload and the
signing key.  Block hashes are the double sha256 of the serialized header.
*/
package wire
