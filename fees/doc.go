// Copyright (c) 2018-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package fees splits a transaction fee across the two settlement currencies.

A fee is a single 64-bit amount.  The fee selector carried by the transaction
decides which balance pays it:

	SelectorConsumer    entire fee from the consumer balance
	SelectorIndustrial  entire fee from the industrial balance
	SelectorSplit       consumer pays ceil(fee/2), industrial pays floor(fee/2)

Any other selector is rejected.  Fees at or above 2^63 are rejected before
any split is attempted so that later signed arithmetic on fee totals can never
wrap.

For every accepted input the two components sum back to the original fee
exactly.  Blocks commit to their per-currency fee totals with Checksum.
*/
package fees
