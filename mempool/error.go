// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of admission error.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrUnknownSender indicates the sender address does not resolve to
	// an account.
	ErrUnknownSender ErrorCode = iota

	// ErrInsufficientBalance indicates the sender cannot cover the
	// transfer amounts plus fee on top of what is already reserved.
	ErrInsufficientBalance

	// ErrNonceGap indicates the sequence number is not the next one
	// expected for the sender in the lane.
	ErrNonceGap

	// ErrInvalidSelector indicates a fee selector outside the defined
	// values.
	ErrInvalidSelector

	// ErrBadSignature indicates the signature did not verify.
	ErrBadSignature

	// ErrDuplicate indicates the lane already holds an entry with the same
	// sender and sequence number.
	ErrDuplicate

	// ErrBalanceOverflow indicates the reservation would overflow the
	// amount already held against the account.
	ErrBalanceOverflow

	// ErrFeeOverflow indicates a transfer amount plus its fee share does
	// not fit in 64 bits.
	ErrFeeOverflow

	// ErrFeeBelowFloor indicates the fee-per-byte is below the configured
	// minimum.
	ErrFeeBelowFloor

	// ErrQueueFull indicates the lane is at capacity and the entry does not
	// outrank the lane's worst entry.
	ErrQueueFull

	// ErrPendingLimit indicates the sender already has the maximum number
	// of entries queued in the lane.
	ErrPendingLimit

	// ErrLockPoisoned indicates an earlier mutation was abandoned midway
	// and the pool state is unknown.  Only Rehydrate clears it.
	ErrLockPoisoned

	// ErrFeeTooLarge indicates the fee is not below 2^63.
	ErrFeeTooLarge

	// ErrNotFound indicates an explicitly dropped entry is not queued.
	ErrNotFound

	// ErrUnknownLane indicates a submission to a lane the pool was not
	// configured with.
	ErrUnknownLane

	// ErrTxTooLarge indicates a variable length field of the transaction
	// exceeds its wire limit, so the entry could not be persisted and read
	// back.
	ErrTxTooLarge

	// numErrorCodes is the maximum error code number used in tests.
	numErrorCodes
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrUnknownSender:       "ErrUnknownSender",
	ErrInsufficientBalance: "ErrInsufficientBalance",
	ErrNonceGap:            "ErrNonceGap",
	ErrInvalidSelector:     "ErrInvalidSelector",
	ErrBadSignature:        "ErrBadSignature",
	ErrDuplicate:           "ErrDuplicate",
	ErrBalanceOverflow:     "ErrBalanceOverflow",
	ErrFeeOverflow:         "ErrFeeOverflow",
	ErrFeeBelowFloor:       "ErrFeeBelowFloor",
	ErrQueueFull:           "ErrQueueFull",
	ErrPendingLimit:        "ErrPendingLimit",
	ErrLockPoisoned:        "ErrLockPoisoned",
	ErrFeeTooLarge:         "ErrFeeTooLarge",
	ErrNotFound:            "ErrNotFound",
	ErrUnknownLane:         "ErrUnknownLane",
	ErrTxTooLarge:          "ErrTxTooLarge",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a rejected submission or mutation.  The caller can use
// errors.As to determine if a failure was specifically due to a rule
// violation and access the ErrorCode field to ascertain the specific reason.
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
