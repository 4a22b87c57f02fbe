// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"github.com/stretchr/testify/mock"
)

// MockLedger is a mock implementation of the Ledger interface.
type MockLedger struct {
	mock.Mock
}

// Ensure the MockLedger implements the Ledger interface.
var _ Ledger = (*MockLedger)(nil)

// Account returns a snapshot of the account at addr.
func (m *MockLedger) Account(addr string) (Account, error) {
	args := m.Called(addr)
	return args.Get(0).(Account), args.Error(1)
}

// Reserve places a hold on both balances of addr.
func (m *MockLedger) Reserve(addr string, consumer,
	industrial uint64) (ReservationID, error) {

	args := m.Called(addr, consumer, industrial)
	return args.Get(0).(ReservationID), args.Error(1)
}

// Release drops a hold without touching balances.
func (m *MockLedger) Release(id ReservationID) error {
	args := m.Called(id)
	return args.Error(0)
}

// Commit debits the held amounts and drops the hold.
func (m *MockLedger) Commit(id ReservationID) error {
	args := m.Called(id)
	return args.Error(0)
}
