// Copyright (c) 2014-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"
	"testing"
)

// TestErrorCodeStringer tests the stringized output for the ErrorCode type.
func TestErrorCodeStringer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   ErrorCode
		want string
	}{
		{ErrUnknownSender, "ErrUnknownSender"},
		{ErrInsufficientBalance, "ErrInsufficientBalance"},
		{ErrNonceGap, "ErrNonceGap"},
		{ErrInvalidSelector, "ErrInvalidSelector"},
		{ErrBadSignature, "ErrBadSignature"},
		{ErrDuplicate, "ErrDuplicate"},
		{ErrBalanceOverflow, "ErrBalanceOverflow"},
		{ErrFeeOverflow, "ErrFeeOverflow"},
		{ErrFeeBelowFloor, "ErrFeeBelowFloor"},
		{ErrQueueFull, "ErrQueueFull"},
		{ErrPendingLimit, "ErrPendingLimit"},
		{ErrLockPoisoned, "ErrLockPoisoned"},
		{ErrFeeTooLarge, "ErrFeeTooLarge"},
		{ErrNotFound, "ErrNotFound"},
		{ErrUnknownLane, "ErrUnknownLane"},
		{ErrTxTooLarge, "ErrTxTooLarge"},
		{0xffff, "Unknown ErrorCode (65535)"},
	}

	// Detect additional error codes that don't have the stringer added.
	if len(tests)-1 != int(numErrorCodes) {
		t.Errorf("It appears an error code was added without adding an " +
			"associated stringer test")
	}

	t.Logf("Running %d tests", len(tests))
	for i, test := range tests {
		result := test.in.String()
		if result != test.want {
			t.Errorf("String #%d\n got: %s want: %s", i, result,
				test.want)
			continue
		}
	}
}

// TestIsErrorCode ensures wrapped rule errors are still recognized.
func TestIsErrorCode(t *testing.T) {
	t.Parallel()

	err := ruleError(ErrQueueFull, "lane full")
	if !IsErrorCode(err, ErrQueueFull) {
		t.Fatalf("IsErrorCode: direct rule error not recognized")
	}
	wrapped := fmt.Errorf("submit: %w", err)
	if !IsErrorCode(wrapped, ErrQueueFull) {
		t.Fatalf("IsErrorCode: wrapped rule error not recognized")
	}
	if IsErrorCode(wrapped, ErrDuplicate) {
		t.Fatalf("IsErrorCode: matched the wrong code")
	}
	if IsErrorCode(fmt.Errorf("plain"), ErrQueueFull) {
		t.Fatalf("IsErrorCode: matched a plain error")
	}
	if got := err.Error(); got != "lane full" {
		t.Fatalf("Error: got %q", got)
	}
}
