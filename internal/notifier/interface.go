// Package notifier delivers signal lifecycle events to external endpoints.
package notifier

import (
	"context"
	"fmt"

	"github.com/newthinker/sentinel/internal/core"
)

// Notifier defines the interface for event delivery
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Send delivers one lifecycle event.
	Send(ctx context.Context, event core.Event) error
}

// Summary renders an event as a single human-readable line.
func Summary(e core.Event) string {
	s := e.Signal
	switch e.Kind {
	case core.EventSignalOpened:
		return fmt.Sprintf("%s %s #%d opened at %.8g (stop %.8g, targets %.8g/%.8g/%.8g, confidence %.1f%%)",
			s.Symbol, s.Type, s.ID, s.EntryPrice, s.StopLoss, s.Target1, s.Target2, s.Target3, s.Confidence)
	case core.EventSignalClosed, core.EventSignalCancelled:
		return fmt.Sprintf("%s %s #%d closed %s at %.8g (pnl %+.2f%%)",
			s.Symbol, s.Type, s.ID, s.Status, s.CurrentPrice, s.FinalPnL)
	}
	return fmt.Sprintf("%s #%d %s", s.Symbol, s.ID, e.Kind)
}
