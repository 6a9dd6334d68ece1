// Package signal persists trade signals.
package signal

import (
	"context"
	"time"

	"github.com/newthinker/sentinel/internal/core"
)

// Store defines the interface for signal persistence.
type Store interface {
	// Save inserts the signal or replaces the stored row with the same ID.
	Save(ctx context.Context, sig core.Signal) error

	// GetByID retrieves a signal by its ID.
	GetByID(ctx context.Context, id int64) (*core.Signal, error)

	// List retrieves signals matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]core.Signal, error)

	// Count returns the number of signals matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)

	// DeleteClosedBefore removes closed signals whose close time is before cutoff.
	DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int, error)

	Close() error
}

// ListFilter defines criteria for listing signals. Zero fields match everything.
type ListFilter struct {
	Symbol string
	Type   core.SignalType
	Status core.Status
	Source core.Source
	From   time.Time // created at or after
	To     time.Time // created at or before
	Limit  int
	Offset int
}

// Matches reports whether sig satisfies the filter, ignoring paging.
func (f ListFilter) Matches(sig core.Signal) bool {
	if f.Symbol != "" && sig.Symbol != f.Symbol {
		return false
	}
	if f.Type != "" && sig.Type != f.Type {
		return false
	}
	if f.Status != "" && sig.Status != f.Status {
		return false
	}
	if f.Source != "" && sig.Source != f.Source {
		return false
	}
	if !f.From.IsZero() && sig.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && sig.CreatedAt.After(f.To) {
		return false
	}
	return true
}
