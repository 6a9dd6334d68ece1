package signal

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/newthinker/sentinel/internal/core"
	"go.uber.org/zap"
)

// Persister writes a signal through to durable storage.
type Persister interface {
	Save(ctx context.Context, sig core.Signal) error
}

// EventSink receives lifecycle events after the state change has happened.
type EventSink interface {
	Publish(ctx context.Context, ev core.Event) error
}

// TrailingConfig controls the trailing stop. A zero multiplier disables it.
type TrailingConfig struct {
	ATRMultiplier float64
	ActivationPct float64
}

// Manager owns the open signals and the closed history.
type Manager struct {
	mu      sync.RWMutex
	active  map[int64]*core.Signal
	history map[int64]*core.Signal
	nextID  int64

	trailing TrailingConfig
	store    Persister
	sink     EventSink
	logger   *zap.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithStore persists every registration and transition.
func WithStore(p Persister) ManagerOption {
	return func(m *Manager) { m.store = p }
}

// WithSink publishes lifecycle events.
func WithSink(s EventSink) ManagerOption {
	return func(m *Manager) { m.sink = s }
}

// WithTrailing enables the trailing stop.
func WithTrailing(t TrailingConfig) ManagerOption {
	return func(m *Manager) { m.trailing = t }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates an empty manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		active:  make(map[int64]*core.Signal),
		history: make(map[int64]*core.Signal),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register assigns an ID to a freshly created signal and starts tracking it.
func (m *Manager) Register(ctx context.Context, sig core.Signal) core.Signal {
	m.mu.Lock()
	m.nextID++
	sig.ID = m.nextID
	sig.Status = core.StatusActive
	if sig.CurrentPrice == 0 {
		sig.CurrentPrice = sig.EntryPrice
	}
	stored := sig
	m.active[sig.ID] = &stored
	m.mu.Unlock()

	m.logger.Info("signal opened",
		zap.Int64("signal_id", sig.ID),
		zap.String("symbol", sig.Symbol),
		zap.String("type", string(sig.Type)),
		zap.Float64("entry", sig.EntryPrice),
		zap.Float64("stop", sig.StopLoss),
		zap.Float64("target_1", sig.Target1),
		zap.Float64("confidence", sig.Confidence),
	)
	m.commit(ctx, core.EventSignalOpened, sig, sig.CreatedAt)
	return sig
}

// OnPrice applies a price tick to every open signal of the asset and returns
// the signals it closed. atr feeds the trailing stop and may be zero.
func (m *Manager) OnPrice(ctx context.Context, symbol string, price, atr float64, now time.Time) []core.Signal {
	var closed, touched []core.Signal

	m.mu.Lock()
	for _, id := range m.sortedActiveIDs(symbol) {
		sig := m.active[id]
		m.apply(sig, price, atr, now)
		if sig.IsActive() {
			touched = append(touched, *sig)
			continue
		}
		delete(m.active, id)
		m.history[id] = sig
		closed = append(closed, *sig)
	}
	m.mu.Unlock()

	for _, sig := range touched {
		m.persist(ctx, sig)
	}
	for _, sig := range closed {
		m.logger.Info("signal closed",
			zap.Int64("signal_id", sig.ID),
			zap.String("symbol", sig.Symbol),
			zap.String("status", string(sig.Status)),
			zap.Float64("final_pnl_pct", sig.FinalPnL),
		)
		m.commit(ctx, core.EventSignalClosed, sig, now)
	}
	return closed
}

// apply runs one tick against an open signal: pnl, trailing stop, stop,
// targets from the highest tier down, then expiry.
func (m *Manager) apply(sig *core.Signal, price, atr float64, now time.Time) {
	if !sig.IsActive() {
		return
	}

	pnl := sig.PnL(price)
	sig.CurrentPrice = price
	sig.CurrentPnL = pnl
	sig.MaxProfit = max(sig.MaxProfit, pnl)
	sig.MaxLoss = min(sig.MaxLoss, pnl)

	m.trail(sig, price, atr, pnl)

	buy := sig.Type == core.SignalBuy
	stop := sig.EffectiveStop()
	if (buy && price <= stop) || (!buy && price >= stop) {
		closeSignal(sig, core.StatusHitStop, now)
		return
	}

	targets := sig.Targets()
	for tier := 3; tier >= 1; tier-- {
		t := targets[tier-1]
		if (buy && price >= t) || (!buy && price <= t) {
			sig.TargetHit = tier
			closeSignal(sig, core.TargetStatus(tier), now)
			return
		}
	}

	if now.After(sig.ExpiresAt) {
		closeSignal(sig, core.StatusExpired, now)
	}
}

func (m *Manager) trail(sig *core.Signal, price, atr, pnl float64) {
	if m.trailing.ATRMultiplier <= 0 || atr <= 0 || pnl <= m.trailing.ActivationPct {
		return
	}
	offset := atr * m.trailing.ATRMultiplier
	current := sig.EffectiveStop()
	if sig.Type == core.SignalBuy {
		if candidate := price - offset; candidate > current {
			sig.TrailingStop = candidate
		}
		return
	}
	if candidate := price + offset; candidate < current {
		sig.TrailingStop = candidate
	}
}

func closeSignal(sig *core.Signal, status core.Status, now time.Time) {
	closedAt := now
	sig.Status = status
	sig.ClosedAt = &closedAt
	sig.FinalPnL = sig.CurrentPnL
}

// Cancel closes an open signal by hand.
func (m *Manager) Cancel(ctx context.Context, id int64, now time.Time) (core.Signal, error) {
	m.mu.Lock()
	sig, ok := m.active[id]
	if !ok {
		_, known := m.history[id]
		m.mu.Unlock()
		if known {
			return core.Signal{}, core.ErrSignalClosed
		}
		return core.Signal{}, core.ErrSignalNotFound
	}
	closeSignal(sig, core.StatusCancelled, now)
	delete(m.active, id)
	m.history[id] = sig
	out := *sig
	m.mu.Unlock()

	m.logger.Info("signal cancelled", zap.Int64("signal_id", id), zap.String("symbol", out.Symbol))
	m.commit(ctx, core.EventSignalCancelled, out, now)
	return out, nil
}

// FindDuplicate returns an open signal that already covers the candidate.
func (m *Manager) FindDuplicate(symbol string, typ core.SignalType, src core.Source,
	price float64, now time.Time, window time.Duration, pricePct float64) (core.Signal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.sortedActiveIDs(symbol) {
		if sig := m.active[id]; IsDuplicate(*sig, symbol, typ, src, price, now, window, pricePct) {
			return *sig, true
		}
	}
	return core.Signal{}, false
}

// ActiveCount returns the number of open signals for symbol.
func (m *Manager) ActiveCount(symbol string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, sig := range m.active {
		if sig.Symbol == symbol {
			n++
		}
	}
	return n
}

// Active returns copies of the open signals, all assets when symbol is empty.
func (m *Manager) Active(symbol string) []core.Signal {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.sortedActiveIDs(symbol)
	out := make([]core.Signal, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m.active[id])
	}
	return out
}

// History returns copies of every tracked signal, open or closed, ordered by ID.
func (m *Manager) History(symbol string) []core.Signal {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Signal, 0, len(m.active)+len(m.history))
	for _, set := range []map[int64]*core.Signal{m.active, m.history} {
		for _, sig := range set {
			if symbol == "" || sig.Symbol == symbol {
				out = append(out, *sig)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a tracked signal by ID.
func (m *Manager) Get(id int64) (core.Signal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if sig, ok := m.active[id]; ok {
		return *sig, true
	}
	if sig, ok := m.history[id]; ok {
		return *sig, true
	}
	return core.Signal{}, false
}

// Restore loads previously persisted signals. Open ones resume tracking and
// the ID counter continues past the highest ID seen.
func (m *Manager) Restore(signals []core.Signal) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	restored := 0
	for _, s := range signals {
		sig := s
		if sig.ID > m.nextID {
			m.nextID = sig.ID
		}
		if sig.IsActive() {
			m.active[sig.ID] = &sig
			restored++
		} else if sig.Status.Terminal() {
			m.history[sig.ID] = &sig
		}
	}
	return restored
}

// ClosedBefore returns the signals that closed before cutoff without
// removing them.
func (m *Manager) ClosedBefore(cutoff time.Time) []core.Signal {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.Signal
	for _, sig := range m.history {
		if sig.ClosedAt != nil && sig.ClosedAt.Before(cutoff) {
			out = append(out, *sig)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Purge drops closed signals that closed before cutoff and returns them.
func (m *Manager) Purge(cutoff time.Time) []core.Signal {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []core.Signal
	for id, sig := range m.history {
		if sig.ClosedAt != nil && sig.ClosedAt.Before(cutoff) {
			out = append(out, *sig)
			delete(m.history, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stats summarises the tracked signals for symbol, or all when empty.
func (m *Manager) Stats(symbol string) Stats {
	return ComputeStats(m.History(symbol))
}

// sortedActiveIDs must be called with mu held.
func (m *Manager) sortedActiveIDs(symbol string) []int64 {
	ids := make([]int64, 0, len(m.active))
	for id, sig := range m.active {
		if symbol == "" || sig.Symbol == symbol {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *Manager) persist(ctx context.Context, sig core.Signal) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, sig); err != nil {
		m.logger.Error("failed to persist signal",
			zap.Int64("signal_id", sig.ID),
			zap.Error(err),
		)
	}
}

func (m *Manager) commit(ctx context.Context, kind core.EventKind, sig core.Signal, at time.Time) {
	m.persist(ctx, sig)
	if m.sink == nil {
		return
	}
	if err := m.sink.Publish(ctx, core.NewEvent(kind, sig, at)); err != nil {
		m.logger.Error("failed to publish signal event",
			zap.String("kind", string(kind)),
			zap.Int64("signal_id", sig.ID),
			zap.Error(err),
		)
	}
}
