// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/laned/chaincfg"
	"github.com/btcsuite/laned/fees"
	"github.com/btcsuite/laned/ledger"
	"github.com/btcsuite/laned/txauth"
	"github.com/btcsuite/laned/wire"
	"github.com/holiman/uint256"
)

// ValidatorConfig is a descriptor which specifies the Validator instance
// configuration.
type ValidatorConfig struct {
	// ChainParams identifies which chain parameters the validator is
	// associated with.
	ChainParams *chaincfg.Params

	// Ledger resolves sender accounts for their last applied nonce and
	// balances.
	Ledger ledger.Ledger

	// Verifier checks transaction signatures.
	Verifier txauth.Verifier
}

// Validator checks candidate blocks against the consensus rules.  It keeps
// no state of its own and is safe for concurrent access.
type Validator struct {
	params   *chaincfg.Params
	ledger   ledger.Ledger
	verifier txauth.Verifier
}

// NewValidator returns a Validator using the passed configuration.
func NewValidator(cfg *ValidatorConfig) (*Validator, error) {
	if cfg.ChainParams == nil {
		return nil, AssertError("NewValidator requires chain params")
	}
	if cfg.Ledger == nil {
		return nil, AssertError("NewValidator requires a ledger")
	}
	if cfg.Verifier == nil {
		return nil, AssertError("NewValidator requires a verifier")
	}
	return &Validator{
		params:   cfg.ChainParams,
		ledger:   cfg.Ledger,
		verifier: cfg.Verifier,
	}, nil
}

// senderState tracks one sender while a block's transactions are checked.
type senderState struct {
	account ledger.Account
	next    uint64
	seen    map[uint64]struct{}

	spendConsumer   uint256.Int
	spendIndustrial uint256.Int
}

// checkHeaderContext ensures the header extends the tip of view and declares
// the retargeted difficulty.
func (v *Validator) checkHeaderContext(header *wire.BlockHeader, view ChainView) error {
	tip, ok := view.TipHeader()
	if !ok {
		if header.Height != 0 {
			str := fmt.Sprintf("first block has height %d instead "+
				"of 0", header.Height)
			return ruleError(ErrBadHeight, str)
		}
		if header.PrevBlock != (chainhash.Hash{}) {
			str := fmt.Sprintf("first block references previous "+
				"block %v", header.PrevBlock)
			return ruleError(ErrBadPrevBlock, str)
		}
		if header.Difficulty != v.params.GenesisDifficulty {
			str := fmt.Sprintf("first block difficulty of %d is "+
				"not the expected value of %d", header.Difficulty,
				v.params.GenesisDifficulty)
			return ruleError(ErrUnexpectedDifficulty, str)
		}
		return nil
	}

	if tipHash := tip.BlockHash(); header.PrevBlock != tipHash {
		str := fmt.Sprintf("previous block %v is not the current tip "+
			"%v", header.PrevBlock, tipHash)
		return ruleError(ErrBadPrevBlock, str)
	}
	if header.Height != tip.Height+1 {
		str := fmt.Sprintf("block height of %d does not extend tip "+
			"height %d", header.Height, tip.Height)
		return ruleError(ErrBadHeight, str)
	}

	want := NextDifficulty(view.Timestamps(v.params.RetargetWindow),
		tip.Difficulty, v.params)
	if header.Difficulty != want {
		str := fmt.Sprintf("block difficulty of %d is not the "+
			"expected value of %d", header.Difficulty, want)
		return ruleError(ErrUnexpectedDifficulty, str)
	}
	return nil
}

// ValidateBlock performs every consensus check on block in the context of
// view:
//
//   - the header extends the tip of view and declares the retargeted
//     difficulty
//   - no transaction id appears twice
//   - every sender resolves, and each sender's nonces in block order are
//     consecutive starting at the account nonce plus one
//   - every fee decomposes, and the per-currency sums match the header
//     totals and fee checksum
//   - every signature verifies
//   - every sender can cover the sum of its amounts and fee shares
//
// Any failure is returned as a RuleError and is fatal to the whole block.
// Nothing is applied either way.
//
// This function is safe for concurrent access.
func (v *Validator) ValidateBlock(block *wire.MsgBlock, view ChainView) error {
	header := &block.Header
	if err := v.checkHeaderContext(header, view); err != nil {
		return err
	}

	var totalConsumer, totalIndustrial uint256.Int
	txIDs := make(map[chainhash.Hash]struct{}, len(block.Transactions))
	senders := make(map[string]*senderState)
	for i, tx := range block.Transactions {
		txHash := tx.TxHash()
		if _, ok := txIDs[txHash]; ok {
			str := fmt.Sprintf("block contains duplicate "+
				"transaction %v", txHash)
			return ruleError(ErrDuplicateTx, str)
		}
		txIDs[txHash] = struct{}{}

		state, ok := senders[tx.From]
		if !ok {
			acct, err := v.ledger.Account(tx.From)
			if errors.Is(err, ledger.ErrAccountNotFound) {
				str := fmt.Sprintf("transaction %d sender %q has "+
					"no account", i, tx.From)
				return ruleError(ErrUnknownSender, str)
			}
			if err != nil {
				return err
			}
			state = &senderState{
				account: acct,
				next:    acct.Nonce + 1,
				seen:    make(map[uint64]struct{}),
			}
			senders[tx.From] = state
		}

		if _, ok := state.seen[tx.Nonce]; ok {
			str := fmt.Sprintf("nonce %d from %s repeats within the "+
				"block", tx.Nonce, tx.From)
			return ruleError(ErrDuplicateNonce, str)
		}
		if tx.Nonce != state.next {
			str := fmt.Sprintf("nonce %d from %s is not the expected "+
				"next nonce %d", tx.Nonce, tx.From, state.next)
			return ruleError(ErrNonceGap, str)
		}
		state.seen[tx.Nonce] = struct{}{}
		state.next++

		feeConsumer, feeIndustrial, err := fees.Decompose(
			fees.Selector(tx.FeeSelector), tx.Fee)
		if err != nil {
			str := fmt.Sprintf("transaction %v: %v", txHash, err)
			return ruleError(ErrInvalidFee, str)
		}
		totalConsumer.Add(&totalConsumer, uint256.NewInt(feeConsumer))
		totalIndustrial.Add(&totalIndustrial, uint256.NewInt(feeIndustrial))

		state.spendConsumer.Add(&state.spendConsumer,
			uint256.NewInt(tx.AmountConsumer))
		state.spendConsumer.Add(&state.spendConsumer,
			uint256.NewInt(feeConsumer))
		state.spendIndustrial.Add(&state.spendIndustrial,
			uint256.NewInt(tx.AmountIndustrial))
		state.spendIndustrial.Add(&state.spendIndustrial,
			uint256.NewInt(feeIndustrial))

		if !txauth.VerifyTx(v.verifier, tx) {
			str := fmt.Sprintf("signature of transaction %v does "+
				"not verify", txHash)
			return ruleError(ErrBadSignature, str)
		}
	}

	if !totalConsumer.IsUint64() || !totalIndustrial.IsUint64() {
		str := fmt.Sprintf("block fee totals %s/%s overflow",
			totalConsumer.Dec(), totalIndustrial.Dec())
		return ruleError(ErrFeeOverflow, str)
	}
	if totalConsumer.Uint64() != header.FeeConsumer ||
		totalIndustrial.Uint64() != header.FeeIndustrial {

		str := fmt.Sprintf("block declares fee totals %d/%d but its "+
			"transactions pay %d/%d", header.FeeConsumer,
			header.FeeIndustrial, totalConsumer.Uint64(),
			totalIndustrial.Uint64())
		return ruleError(ErrBadFees, str)
	}
	if want := fees.Checksum(header.FeeConsumer, header.FeeIndustrial); header.FeeChecksum != want {
		str := fmt.Sprintf("block fee checksum %v does not commit to "+
			"the fee totals (want %v)", header.FeeChecksum, want)
		return ruleError(ErrBadFeeChecksum, str)
	}

	for addr, state := range senders {
		consumer := uint256.NewInt(state.account.Consumer)
		industrial := uint256.NewInt(state.account.Industrial)
		if state.spendConsumer.Gt(consumer) ||
			state.spendIndustrial.Gt(industrial) {

			str := fmt.Sprintf("%s spends %s/%s but holds %d/%d",
				addr, state.spendConsumer.Dec(),
				state.spendIndustrial.Dec(), state.account.Consumer,
				state.account.Industrial)
			return ruleError(ErrInsufficientBalance, str)
		}
	}

	log.Debugf("Validated block %v at height %d with %d transactions",
		block.BlockHash(), header.Height, len(block.Transactions))
	return nil
}
