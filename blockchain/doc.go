// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package blockchain implements the consensus rules that decide which blocks
are valid and which chain is canonical.

It provides three pieces, all free of hidden state:

NextDifficulty retargets the proof-of-work difficulty from a bounded window of
block timestamps.  The result is computed in 256-bit integer arithmetic with
truncation toward zero so that every node derives the identical value.

ChooseTip applies fork choice over a set of candidate tips: greater height,
then greater cumulative weight, then the greater hash.

Validator.ValidateBlock checks a candidate block against a ChainView and the
ledger: header linkage, retargeted difficulty, per-sender nonce continuity,
fee decomposition and its reconciliation with the header totals and
checksum, signatures and balance sufficiency.  Every failure is a RuleError
and rejects the whole block.

# Errors

Errors returned by this package are either the raw errors provided by
underlying calls or of type blockchain.RuleError.  Use IsErrorCode to test
for a specific ErrorCode.
*/
package blockchain
