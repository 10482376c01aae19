package model

import (
	"errors"
	"time"
)

// ShopStatusRowID is the id of the singleton status row. The row is
// provisioned out-of-band; the application only ever mutates it.
const ShopStatusRowID int64 = 1

// TableStatus is the change-feed table name for the status row.
const TableStatus = "status"

// ErrNotFound is returned (wrapped) when a singleton row or record does not exist.
var ErrNotFound = errors.New("not found")

// ShopStatus is the single piece of authoritative state: whether the shop
// is currently accepting orders.
type ShopStatus struct {
	ID        int64     `json:"id"`
	IsOpen    bool      `json:"is_open"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChangeEvent is delivered once per successful status update to every
// subscribed client, including the one that issued the write.
type ChangeEvent struct {
	ID        int64     `json:"id"`
	IsOpen    bool      `json:"is_open"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventFilter selects which row mutations a change-feed subscription receives.
type EventFilter string

const (
	EventInsert EventFilter = "INSERT"
	EventUpdate EventFilter = "UPDATE"
	EventDelete EventFilter = "DELETE"
	EventAll    EventFilter = "*"
)

// IsValid reports whether f is a known filter.
func (f EventFilter) IsValid() bool {
	switch f {
	case EventInsert, EventUpdate, EventDelete, EventAll:
		return true
	}
	return false
}

// DisplayState is what a status widget renders. Unknown is the loading
// state before the first read resolves and must never be shown as Closed.
type DisplayState int

const (
	Unknown DisplayState = iota
	Open
	Closed
)

// DisplayStateFor maps an authoritative value to a display state.
func DisplayStateFor(isOpen bool) DisplayState {
	if isOpen {
		return Open
	}
	return Closed
}

// Known reports whether the state carries an authoritative value.
func (d DisplayState) Known() bool {
	return d == Open || d == Closed
}

func (d DisplayState) String() string {
	switch d {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "loading"
	}
}

// Label is the human-facing text for the state.
func (d DisplayState) Label() string {
	switch d {
	case Open:
		return "Open Now"
	case Closed:
		return "Closed"
	default:
		return "Loading Status..."
	}
}
