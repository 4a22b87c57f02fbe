// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"fmt"
)

// AssertError identifies an error that indicates an internal code consistency
// issue and should be treated as a critical and unrecoverable error.
type AssertError string

// Error returns the assertion error as a human-readable string and satisfies
// the error interface.
func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrBadPrevBlock indicates the block does not reference the hash of
	// the current tip, or a genesis block references anything other than
	// the zero hash.
	ErrBadPrevBlock ErrorCode = iota

	// ErrBadHeight indicates the block height is not one more than the
	// height of the block it extends.
	ErrBadHeight

	// ErrUnexpectedDifficulty indicates the declared difficulty differs
	// from the retarget computed over the chain history.
	ErrUnexpectedDifficulty

	// ErrDuplicateTx indicates a block contains the same transaction id
	// more than once.
	ErrDuplicateTx

	// ErrUnknownSender indicates a transaction sender does not resolve to
	// an account.
	ErrUnknownSender

	// ErrNonceGap indicates a sender's sequence numbers within the block
	// are not consecutive from the expected next value.
	ErrNonceGap

	// ErrDuplicateNonce indicates a sender's sequence number repeats
	// within the block.
	ErrDuplicateNonce

	// ErrInvalidFee indicates a transaction fee cannot be decomposed,
	// either because of its selector or its magnitude.
	ErrInvalidFee

	// ErrFeeOverflow indicates a per-block fee total does not fit in 64
	// bits.
	ErrFeeOverflow

	// ErrBadFees indicates the per-block fee totals declared in the header
	// do not match the sum of the per-transaction fee decompositions.
	ErrBadFees

	// ErrBadFeeChecksum indicates the header fee checksum does not commit
	// to the declared fee totals.
	ErrBadFeeChecksum

	// ErrBadSignature indicates a transaction signature did not verify.
	ErrBadSignature

	// ErrInsufficientBalance indicates a sender cannot cover everything
	// its transactions in the block spend.
	ErrInsufficientBalance

	// ErrNoCandidates indicates fork choice was asked to pick from an
	// empty candidate set.
	ErrNoCandidates

	// numErrorCodes is the maximum error code number used in tests.
	numErrorCodes
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrBadPrevBlock:         "ErrBadPrevBlock",
	ErrBadHeight:            "ErrBadHeight",
	ErrUnexpectedDifficulty: "ErrUnexpectedDifficulty",
	ErrDuplicateTx:          "ErrDuplicateTx",
	ErrUnknownSender:        "ErrUnknownSender",
	ErrNonceGap:             "ErrNonceGap",
	ErrDuplicateNonce:       "ErrDuplicateNonce",
	ErrInvalidFee:           "ErrInvalidFee",
	ErrFeeOverflow:          "ErrFeeOverflow",
	ErrBadFees:              "ErrBadFees",
	ErrBadFeeChecksum:       "ErrBadFeeChecksum",
	ErrBadSignature:         "ErrBadSignature",
	ErrInsufficientBalance:  "ErrInsufficientBalance",
	ErrNoCandidates:         "ErrNoCandidates",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a rule violation.  It is used to indicate that
// processing of a block failed due to one of the many validation rules.
// Every RuleError is fatal to the whole block.  The caller can use type
// assertions to determine if a failure was specifically due to a rule
// violation and access the ErrorCode field to ascertain the specific reason
// for the rule violation.
type RuleError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates an RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// IsErrorCode returns whether err is a RuleError carrying code.
func IsErrorCode(err error, code ErrorCode) bool {
	var rerr RuleError
	return errors.As(err, &rerr) && rerr.ErrorCode == code
}
