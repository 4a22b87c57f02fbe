// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package mempool provides a lane-partitioned, fee-prioritized pool of
unmined transactions.

# Lanes

A pool serves one or more lanes (fee classes), each an independent queue with
its own capacity and per-sender limit.  Within a lane, entries are ranked by
fee-per-byte descending, then expiry ascending, then transaction id ascending,
then insertion sequence ascending.  The ranking is total: no two entries tie.

# Admission

Submit validates a transaction against the ledger (sender, nonce, balance),
the signature verifier and the pool policy, then places a hold on the sender's
balances for the transfer amounts plus the fee shares chosen by the fee
selector.  Either the entry is queued with its hold in place, or the call
fails and no hold or lane change attributable to it remains.

When a lane is full the new entry displaces the lane's worst entry only if it
ranks strictly better and belongs to another sender; otherwise it is rejected
with ErrQueueFull.

# Maintenance

Expired entries are purged at the start of every submission and by the
optional background Sweeper.  Each purge pass also counts entries whose sender
account has disappeared; a lane whose orphans outnumber half of its entries is
rebuilt without them.

# Concurrency

Every mutation of every lane runs under one exclusive lock.  A panic inside a
mutation poisons the pool: subsequent mutations fail with ErrLockPoisoned
until Rehydrate rebuilds the pool from persisted history.  Mutations issued
during a rebuild wait for it to finish.  Notifications are delivered in
mutation order after the lock is released, so subscribers may read the pool.

# Errors

Rejections are RuleErrors whose ErrorCode identifies the rule that failed.
Use IsErrorCode to test for a specific code.
*/
package mempool
