// Package router fans lifecycle events out to every configured sink.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/metrics"
	"github.com/newthinker/sentinel/internal/notifier"
)

// Config holds router configuration
type Config struct {
	// Kinds restricts which events are forwarded; empty forwards all.
	Kinds []core.EventKind `mapstructure:"kinds" json:"kinds"`
	// SendTimeout bounds each sink delivery.
	SendTimeout time.Duration `mapstructure:"send_timeout" json:"send_timeout" default:"5s"`
}

// DefaultConfig returns default router configuration
func DefaultConfig() Config {
	return Config{SendTimeout: 5 * time.Second}
}

// Router delivers events to the notifier registry. It satisfies the
// lifecycle manager's EventSink.
type Router struct {
	cfg      Config
	registry *notifier.Registry
	metrics  *metrics.Registry
	logger   *zap.Logger

	mu        sync.RWMutex
	published int
	failed    int
	lastEvent time.Time
}

// New creates a new event router. A nil registry drops every event.
func New(cfg Config, registry *notifier.Registry, m *metrics.Registry, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:      cfg,
		registry: registry,
		metrics:  m,
		logger:   logger,
	}
}

// Publish sends event to every sink. Each failure is logged and counted;
// the returned error joins them for the caller's log.
func (r *Router) Publish(ctx context.Context, event core.Event) error {
	if !r.accepts(event.Kind) || r.registry == nil {
		return nil
	}

	var errs []error
	for _, n := range r.registry.GetAll() {
		sendCtx := ctx
		var cancel context.CancelFunc = func() {}
		if r.cfg.SendTimeout > 0 {
			sendCtx, cancel = context.WithTimeout(ctx, r.cfg.SendTimeout)
		}
		err := n.Send(sendCtx, event)
		cancel()

		status := "ok"
		if err != nil {
			status = "error"
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			r.logger.Error("sink failed",
				zap.String("sink", n.Name()),
				zap.String("kind", string(event.Kind)),
				zap.Int64("signal_id", event.Signal.ID),
				zap.Error(err),
			)
		}
		r.metrics.RecordEventPublished(n.Name(), status)
	}

	r.mu.Lock()
	r.lastEvent = event.Time
	if len(errs) > 0 {
		r.failed++
	} else {
		r.published++
	}
	r.mu.Unlock()

	r.logger.Debug("event routed",
		zap.String("kind", string(event.Kind)),
		zap.String("symbol", event.Signal.Symbol),
		zap.Int64("signal_id", event.Signal.ID),
		zap.Int("sinks", r.registry.Len()),
		zap.Int("errors", len(errs)),
	)

	if len(errs) > 0 {
		return core.WrapError(core.ErrPublishFailed, errors.Join(errs...))
	}
	return nil
}

func (r *Router) accepts(kind core.EventKind) bool {
	if len(r.cfg.Kinds) == 0 {
		return true
	}
	for _, k := range r.cfg.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// GetStats returns router statistics
func (r *Router) GetStats() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := 0
	if r.registry != nil {
		sinks = r.registry.Len()
	}
	stats := map[string]any{
		"sinks":     sinks,
		"published": r.published,
		"failed":    r.failed,
	}
	if !r.lastEvent.IsZero() {
		stats["last_event"] = r.lastEvent
	}
	return stats
}
