package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names a signal lifecycle transition.
type EventKind string

const (
	EventSignalOpened    EventKind = "signal.opened"
	EventSignalClosed    EventKind = "signal.closed"
	EventSignalCancelled EventKind = "signal.cancelled"
)

// Event is published to sinks whenever a signal is registered or leaves ACTIVE.
type Event struct {
	ID     string    `json:"id"`
	Kind   EventKind `json:"kind"`
	Signal Signal    `json:"signal"`
	Time   time.Time `json:"time"`
}

// NewEvent snapshots sig into a new event.
func NewEvent(kind EventKind, sig Signal, at time.Time) Event {
	return Event{
		ID:     uuid.NewString(),
		Kind:   kind,
		Signal: sig,
		Time:   at,
	}
}
