// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"fmt"
	"math/bits"
	"sync"
)

type reservation struct {
	addr       string
	consumer   uint64
	industrial uint64
}

type held struct {
	consumer   uint64
	industrial uint64
}

// MemLedger is an in-memory Ledger.  It is used by the daemon when no
// external account store is configured and by tests.
type MemLedger struct {
	mtx          sync.RWMutex
	accounts     map[string]Account
	held         map[string]held
	reservations map[ReservationID]reservation
	nextID       ReservationID
}

// Ensure MemLedger implements the Ledger interface.
var _ Ledger = (*MemLedger)(nil)

// NewMemLedger returns an empty ledger.
func NewMemLedger() *MemLedger {
	return &MemLedger{
		accounts:     make(map[string]Account),
		held:         make(map[string]held),
		reservations: make(map[ReservationID]reservation),
	}
}

// AddAccount creates or replaces an account.
func (l *MemLedger) AddAccount(acct Account) {
	l.mtx.Lock()
	l.accounts[acct.Address] = acct
	l.mtx.Unlock()
}

// RemoveAccount deletes an account.  Outstanding holds stay registered so
// they can still be released.
func (l *MemLedger) RemoveAccount(addr string) {
	l.mtx.Lock()
	delete(l.accounts, addr)
	l.mtx.Unlock()
}

// SetNonce records the last applied sequence number for addr.
func (l *MemLedger) SetNonce(addr string, nonce uint64) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	acct, ok := l.accounts[addr]
	if !ok {
		return ErrAccountNotFound
	}
	acct.Nonce = nonce
	l.accounts[addr] = acct
	return nil
}

// Account returns a snapshot of the account at addr.
func (l *MemLedger) Account(addr string) (Account, error) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	acct, ok := l.accounts[addr]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acct, nil
}

// Reserve places a hold on both balances of addr.
func (l *MemLedger) Reserve(addr string, consumer, industrial uint64) (ReservationID, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	acct, ok := l.accounts[addr]
	if !ok {
		return 0, ErrAccountNotFound
	}

	h := l.held[addr]
	newConsumer, carry := bits.Add64(h.consumer, consumer, 0)
	if carry != 0 {
		return 0, ErrBalanceOverflow
	}
	newIndustrial, carry := bits.Add64(h.industrial, industrial, 0)
	if carry != 0 {
		return 0, ErrBalanceOverflow
	}
	if newConsumer > acct.Consumer || newIndustrial > acct.Industrial {
		return 0, fmt.Errorf("%w: need %d/%d, have %d/%d", ErrInsufficientBalance,
			newConsumer, newIndustrial, acct.Consumer, acct.Industrial)
	}

	l.nextID++
	id := l.nextID
	l.reservations[id] = reservation{
		addr:       addr,
		consumer:   consumer,
		industrial: industrial,
	}
	l.held[addr] = held{consumer: newConsumer, industrial: newIndustrial}
	return id, nil
}

// unhold removes a reservation and its contribution to the held totals.
//
// This function MUST be called with the ledger lock held (for writes).
func (l *MemLedger) unhold(id ReservationID) (reservation, error) {
	r, ok := l.reservations[id]
	if !ok {
		return reservation{}, ErrUnknownReservation
	}
	delete(l.reservations, id)

	h := l.held[r.addr]
	h.consumer -= r.consumer
	h.industrial -= r.industrial
	if h.consumer == 0 && h.industrial == 0 {
		delete(l.held, r.addr)
	} else {
		l.held[r.addr] = h
	}
	return r, nil
}

// Release drops a hold without touching balances.
func (l *MemLedger) Release(id ReservationID) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	_, err := l.unhold(id)
	return err
}

// Commit debits the held amounts and drops the hold.  Committing a hold whose
// account has since been removed only drops the hold.
func (l *MemLedger) Commit(id ReservationID) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	r, err := l.unhold(id)
	if err != nil {
		return err
	}
	acct, ok := l.accounts[r.addr]
	if !ok {
		return nil
	}
	acct.Consumer -= r.consumer
	acct.Industrial -= r.industrial
	l.accounts[r.addr] = acct
	return nil
}

// Held returns the amounts currently reserved against addr.
func (l *MemLedger) Held(addr string) (consumer, industrial uint64) {
	l.mtx.RLock()
	h := l.held[addr]
	l.mtx.RUnlock()
	return h.consumer, h.industrial
}

// Outstanding returns the number of live reservations.
func (l *MemLedger) Outstanding() int {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return len(l.reservations)
}
