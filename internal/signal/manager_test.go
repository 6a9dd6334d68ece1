package signal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/newthinker/sentinel/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []core.Event
	err    error
}

func (r *recordingSink) Publish(_ context.Context, ev core.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingSink) kinds() []core.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

type recordingStore struct {
	mu    sync.Mutex
	saved map[int64]core.Signal
}

func (r *recordingStore) Save(_ context.Context, sig core.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saved == nil {
		r.saved = make(map[int64]core.Signal)
	}
	r.saved[sig.ID] = sig
	return nil
}

func openBuy(t *testing.T, m *Manager) core.Signal {
	t.Helper()
	sig, rej := NewFactory(DefaultConfig(), m, nil).TryCreate(buyRequest(t0))
	require.Equal(t, Accepted, rej)
	return m.Register(context.Background(), *sig)
}

func TestManager_TargetThreeOnGap(t *testing.T) {
	sink := &recordingSink{}
	m := NewManager(WithSink(sink))
	sig := openBuy(t, m)
	assert.Equal(t, int64(1), sig.ID)

	closed := m.OnPrice(context.Background(), "BTCUSDT", 121, 2, t0.Add(time.Hour))
	require.Len(t, closed, 1)

	got := closed[0]
	assert.Equal(t, core.StatusHitTarget3, got.Status)
	assert.Equal(t, 3, got.TargetHit)
	assert.InDelta(t, 21.0, got.FinalPnL, 1e-9)
	require.NotNil(t, got.ClosedAt)
	assert.Equal(t, t0.Add(time.Hour), *got.ClosedAt)
	assert.Empty(t, m.Active(""))
	assert.Equal(t, []core.EventKind{core.EventSignalOpened, core.EventSignalClosed}, sink.kinds())
}

func TestManager_HighestTierWins(t *testing.T) {
	m := NewManager()
	openBuy(t, m)

	closed := m.OnPrice(context.Background(), "BTCUSDT", 114, 2, t0.Add(time.Minute))
	require.Len(t, closed, 1)
	assert.Equal(t, core.StatusHitTarget2, closed[0].Status)
	assert.Equal(t, 2, closed[0].TargetHit)
}

func TestManager_StopHit(t *testing.T) {
	m := NewManager()
	openBuy(t, m)

	assert.Empty(t, m.OnPrice(context.Background(), "BTCUSDT", 97, 2, t0.Add(time.Minute)))
	closed := m.OnPrice(context.Background(), "BTCUSDT", 96, 2, t0.Add(2*time.Minute))
	require.Len(t, closed, 1)
	assert.Equal(t, core.StatusHitStop, closed[0].Status)
	assert.Zero(t, closed[0].TargetHit)
	assert.InDelta(t, -4.0, closed[0].FinalPnL, 1e-9)
	assert.InDelta(t, -4.0, closed[0].MaxLoss, 1e-9)
}

func TestManager_SellStopAndTarget(t *testing.T) {
	m := NewManager()
	req := buyRequest(t0)
	req.Result.Action = core.ActionSell
	sig, rej := NewFactory(DefaultConfig(), m, nil).TryCreate(req)
	require.Equal(t, Accepted, rej)
	m.Register(context.Background(), *sig)

	assert.Empty(t, m.OnPrice(context.Background(), "BTCUSDT", 95, 2, t0.Add(time.Minute)))
	got, _ := m.Get(1)
	assert.InDelta(t, 5.0, got.CurrentPnL, 1e-9)

	closed := m.OnPrice(context.Background(), "BTCUSDT", 92, 2, t0.Add(2*time.Minute))
	require.Len(t, closed, 1)
	assert.Equal(t, core.StatusHitTarget1, closed[0].Status)
	assert.InDelta(t, 8.0, closed[0].FinalPnL, 1e-9)
}

func TestManager_Expiry(t *testing.T) {
	m := NewManager()
	sig := openBuy(t, m)

	assert.Empty(t, m.OnPrice(context.Background(), "BTCUSDT", 102, 2, sig.ExpiresAt))

	after := sig.ExpiresAt.Add(time.Second)
	closed := m.OnPrice(context.Background(), "BTCUSDT", 103, 2, after)
	require.Len(t, closed, 1)
	assert.Equal(t, core.StatusExpired, closed[0].Status)
	assert.Equal(t, closed[0].CurrentPnL, closed[0].FinalPnL)
	assert.InDelta(t, 3.0, closed[0].FinalPnL, 1e-9)
	assert.InDelta(t, 3.0, closed[0].MaxProfit, 1e-9)
}

func TestManager_TerminalIsFinal(t *testing.T) {
	m := NewManager()
	openBuy(t, m)
	m.OnPrice(context.Background(), "BTCUSDT", 96, 2, t0.Add(time.Minute))
	before, _ := m.Get(1)

	for _, p := range []float64{100, 121, 50} {
		assert.Empty(t, m.OnPrice(context.Background(), "BTCUSDT", p, 2, t0.Add(time.Hour)))
	}
	after, _ := m.Get(1)
	assert.Equal(t, before, after)

	_, err := m.Cancel(context.Background(), 1, t0.Add(time.Hour))
	assert.True(t, errors.Is(err, core.ErrSignalClosed))
}

func TestManager_Cancel(t *testing.T) {
	sink := &recordingSink{}
	store := &recordingStore{}
	m := NewManager(WithSink(sink), WithStore(store))
	openBuy(t, m)

	m.OnPrice(context.Background(), "BTCUSDT", 101, 2, t0.Add(time.Minute))
	got, err := m.Cancel(context.Background(), 1, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, core.StatusCancelled, got.Status)
	assert.InDelta(t, 1.0, got.FinalPnL, 1e-9)
	assert.Equal(t, core.StatusCancelled, store.saved[1].Status)
	assert.Equal(t, core.EventSignalCancelled, sink.kinds()[len(sink.kinds())-1])

	_, err = m.Cancel(context.Background(), 42, t0)
	assert.True(t, errors.Is(err, core.ErrSignalNotFound))
}

func TestManager_SinkErrorKeepsState(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	m := NewManager(WithSink(sink))
	openBuy(t, m)

	closed := m.OnPrice(context.Background(), "BTCUSDT", 121, 2, t0.Add(time.Minute))
	require.Len(t, closed, 1)
	got, ok := m.Get(1)
	require.True(t, ok)
	assert.Equal(t, core.StatusHitTarget3, got.Status)
}

func TestManager_TrailingStop(t *testing.T) {
	m := NewManager(WithTrailing(TrailingConfig{ATRMultiplier: 1.5, ActivationPct: 2}))
	openBuy(t, m)
	ctx := context.Background()

	m.OnPrice(ctx, "BTCUSDT", 101.5, 2, t0.Add(time.Minute))
	got, _ := m.Get(1)
	assert.Zero(t, got.TrailingStop, "below activation")

	m.OnPrice(ctx, "BTCUSDT", 105, 2, t0.Add(2*time.Minute))
	got, _ = m.Get(1)
	assert.InDelta(t, 102.0, got.TrailingStop, 1e-9)
	assert.InDelta(t, 96.0, got.StopLoss, 1e-9, "initial stop is immutable")

	m.OnPrice(ctx, "BTCUSDT", 104, 2, t0.Add(3*time.Minute))
	got, _ = m.Get(1)
	assert.InDelta(t, 102.0, got.TrailingStop, 1e-9, "never loosens")

	closed := m.OnPrice(ctx, "BTCUSDT", 101.9, 2, t0.Add(4*time.Minute))
	require.Len(t, closed, 1)
	assert.Equal(t, core.StatusHitStop, closed[0].Status)
	assert.InDelta(t, 1.9, closed[0].FinalPnL, 1e-9)
}

func TestManager_TrailingDisabledByDefault(t *testing.T) {
	m := NewManager()
	openBuy(t, m)
	m.OnPrice(context.Background(), "BTCUSDT", 107, 2, t0.Add(time.Minute))
	got, _ := m.Get(1)
	assert.Zero(t, got.TrailingStop)
}

func TestManager_Duplicate(t *testing.T) {
	m := NewManager()
	openBuy(t, m)
	cfg := DefaultConfig()
	now := t0.Add(10 * time.Minute)

	_, dup := m.FindDuplicate("BTCUSDT", core.SignalBuy, core.SourceIndicators, 101, now, cfg.DedupWindow, cfg.DedupPricePct)
	assert.True(t, dup)

	_, dup = m.FindDuplicate("BTCUSDT", core.SignalBuy, core.SourceIndicators, 105, now, cfg.DedupWindow, cfg.DedupPricePct)
	assert.False(t, dup)

	_, dup = m.FindDuplicate("BTCUSDT", core.SignalSell, core.SourceIndicators, 101, now, cfg.DedupWindow, cfg.DedupPricePct)
	assert.False(t, dup)

	_, dup = m.FindDuplicate("BTCUSDT", core.SignalBuy, core.SourceIndicators, 101, t0.Add(31*time.Minute), cfg.DedupWindow, cfg.DedupPricePct)
	assert.False(t, dup)
}

func TestManager_RestoreContinuesIDs(t *testing.T) {
	closedAt := t0.Add(-time.Hour)
	m := NewManager()
	n := m.Restore([]core.Signal{
		{ID: 7, Symbol: "BTCUSDT", Type: core.SignalBuy, Status: core.StatusActive, EntryPrice: 100, StopLoss: 96, Target1: 108, Target2: 114, Target3: 120, ExpiresAt: t0.Add(time.Hour)},
		{ID: 9, Symbol: "BTCUSDT", Type: core.SignalBuy, Status: core.StatusHitStop, ClosedAt: &closedAt},
	})
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, m.ActiveCount("BTCUSDT"))

	sig := openBuy(t, m)
	assert.Equal(t, int64(10), sig.ID)
	assert.Len(t, m.History("BTCUSDT"), 3)
}

func TestManager_Purge(t *testing.T) {
	m := NewManager()
	openBuy(t, m)
	m.OnPrice(context.Background(), "BTCUSDT", 96, 2, t0.Add(time.Minute))
	openBuy(t, m)

	purged := m.Purge(t0.Add(time.Hour))
	require.Len(t, purged, 1)
	assert.Equal(t, int64(1), purged[0].ID)
	_, ok := m.Get(1)
	assert.False(t, ok)
	assert.Len(t, m.Active(""), 1)
}

func TestManager_ClosedBeforeLeavesHistory(t *testing.T) {
	m := NewManager()
	openBuy(t, m)
	m.OnPrice(context.Background(), "BTCUSDT", 96, 2, t0.Add(time.Minute))
	openBuy(t, m)

	closed := m.ClosedBefore(t0.Add(time.Hour))
	require.Len(t, closed, 1)
	assert.Equal(t, int64(1), closed[0].ID)
	_, ok := m.Get(1)
	assert.True(t, ok)
	assert.Empty(t, m.ClosedBefore(t0))
}

func TestManager_StatusInvariants(t *testing.T) {
	m := NewManager(WithTrailing(TrailingConfig{ATRMultiplier: 1, ActivationPct: 1}))
	ctx := context.Background()
	prices := []float64{100, 103, 99, 106, 101, 110, 97, 95, 118, 125, 90}

	for i := 0; i < 5; i++ {
		sig, _ := NewFactory(DefaultConfig(), nil, nil).TryCreate(buyRequest(t0))
		m.Register(ctx, *sig)
	}
	for i, p := range prices {
		m.OnPrice(ctx, "BTCUSDT", p, 2, t0.Add(time.Duration(i)*time.Minute))
		for _, s := range m.History("") {
			require.True(t, s.Status.Valid())
			if s.IsActive() {
				require.Zero(t, s.TargetHit)
				require.Nil(t, s.ClosedAt)
			} else {
				require.NotNil(t, s.ClosedAt)
				if s.TargetHit != 0 {
					require.Equal(t, core.TargetStatus(s.TargetHit), s.Status)
				}
			}
		}
	}
}
