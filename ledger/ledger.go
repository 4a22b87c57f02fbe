// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"errors"
)

var (
	// ErrAccountNotFound is returned when an address does not resolve to
	// an account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientBalance is returned when a reservation exceeds the
	// unreserved balance of an account.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBalanceOverflow is returned when adding a reservation to the
	// amount already reserved would overflow.
	ErrBalanceOverflow = errors.New("balance overflow")

	// ErrUnknownReservation is returned when releasing or committing a
	// reservation that does not exist.
	ErrUnknownReservation = errors.New("unknown reservation")
)

// ReservationID identifies a balance hold taken by Reserve.
type ReservationID uint64

// Account is a read-only snapshot of an account.
type Account struct {
	Address    string
	Consumer   uint64
	Industrial uint64

	// Nonce is the sequence number of the last transaction applied on
	// chain.  The next acceptable transaction uses Nonce+1.
	Nonce uint64
}

// Ledger is the account store the mempool and block validator consult.  The
// mempool never mutates balances directly; it only places and removes holds.
//
// Neither the mempool nor the block validator binds a sender address to the
// key that signs for it: a signature only proves the embedded public key
// signed the payload.  An implementation whose addresses are not derived
// from keys owns that binding and must refuse, in Account or Reserve,
// senders whose transactions it cannot attribute.
//
// Implementations must be safe for concurrent access.
type Ledger interface {
	// Account returns a snapshot of the account at addr or
	// ErrAccountNotFound.
	Account(addr string) (Account, error)

	// Reserve places a hold on both balances of addr.
	Reserve(addr string, consumer, industrial uint64) (ReservationID, error)

	// Release drops a hold without touching balances.
	Release(id ReservationID) error

	// Commit debits the held amounts from the account and drops the hold.
	Commit(id ReservationID) error
}
