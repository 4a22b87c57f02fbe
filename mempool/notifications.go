// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"
)

// NotificationType represents the type of a notification message.
type NotificationType int

// NotificationCallback is used for a caller to provide a callback for
// notifications about various mempool events.
type NotificationCallback func(*Notification)

// Constants for the type of a notification message.
const (
	// NTEntryAccepted indicates an entry was admitted.  The data is the
	// *Entry.
	NTEntryAccepted NotificationType = iota

	// NTEntryRemoved indicates an entry left the pool.  The data is a
	// *RemovedEntry.
	NTEntryRemoved
)

// notificationTypeStrings is a map of notification types back to their constant
// names for pretty printing.
var notificationTypeStrings = map[NotificationType]string{
	NTEntryAccepted: "NTEntryAccepted",
	NTEntryRemoved:  "NTEntryRemoved",
}

// String returns the NotificationType in human-readable form.
func (n NotificationType) String() string {
	if s, ok := notificationTypeStrings[n]; ok {
		return s
	}
	return fmt.Sprintf("Unknown Notification Type (%d)", int(n))
}

// RemovalReason describes why an entry left the pool.
type RemovalReason int

const (
	// RemovedIncluded means the entry was included in a committed block.
	RemovedIncluded RemovalReason = iota

	// RemovedExpired means the entry outlived its time-to-live.
	RemovedExpired

	// RemovedEvicted means a higher priority entry displaced it.
	RemovedEvicted

	// RemovedOrphan means the sender account no longer exists.
	RemovedOrphan

	// RemovedDropped means the entry was dropped on request.
	RemovedDropped

	// RemovedReplayRejected means a persisted entry failed validation
	// while rehydrating.  Only its Seq, Lane and Tx are populated.
	RemovedReplayRejected
)

var removalReasonStrings = map[RemovalReason]string{
	RemovedIncluded:       "included",
	RemovedExpired:        "expired",
	RemovedEvicted:        "evicted",
	RemovedOrphan:         "orphan",
	RemovedDropped:        "dropped",
	RemovedReplayRejected: "replay rejected",
}

// String returns the RemovalReason in human-readable form.
func (r RemovalReason) String() string {
	if s, ok := removalReasonStrings[r]; ok {
		return s
	}
	return fmt.Sprintf("RemovalReason(%d)", int(r))
}

// RemovedEntry is the data of an NTEntryRemoved notification.
type RemovedEntry struct {
	Entry  *Entry
	Reason RemovalReason
}

// Notification defines notification that is sent to the caller via the callback
// function provided during the call to Subscribe and consists of a
// notification type as well as associated data that depends on the type as
// follows:
//   - NTEntryAccepted: *Entry
//   - NTEntryRemoved:  *RemovedEntry
type Notification struct {
	Type NotificationType
	Data interface{}
}

// Subscribe registers a callback for pool events.  Callbacks run in the order
// the events happened and outside the pool lock.  They may call the pool's
// read methods, such as Count, Contains, Entries and Snapshot, but must not
// call its mutating methods.
func (mp *TxPool) Subscribe(callback NotificationCallback) {
	mp.notificationsLock.Lock()
	mp.notifications = append(mp.notifications, callback)
	mp.notificationsLock.Unlock()
}

// queueNotification records an event to deliver once the current mutation
// completes.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) queueNotification(typ NotificationType, data interface{}) {
	mp.pendingNtfns = append(mp.pendingNtfns, Notification{Type: typ, Data: data})
}

// queueRemoved is a convenience wrapper for removal events.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) queueRemoved(e *Entry, reason RemovalReason) {
	mp.queueNotification(NTEntryRemoved, &RemovedEntry{Entry: e, Reason: reason})
}

// sendNotifications delivers ns to every subscriber.
//
// This function MUST only be called by deliver once every earlier mutation
// has delivered its notifications.
func (mp *TxPool) sendNotifications(ns []Notification) {
	if len(ns) == 0 {
		return
	}
	mp.notificationsLock.RLock()
	callbacks := mp.notifications
	mp.notificationsLock.RUnlock()

	for i := range ns {
		for _, callback := range callbacks {
			callback(&ns[i])
		}
	}
}
