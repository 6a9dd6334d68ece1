package signal

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/newthinker/sentinel/internal/confluence"
	"github.com/newthinker/sentinel/internal/core"
	"go.uber.org/zap"
)

// Rejection explains why no signal was created. The empty value means accepted.
type Rejection string

const (
	Accepted            Rejection = ""
	RejectHold          Rejection = "hold"
	RejectLowConfidence Rejection = "low_confidence"
	RejectCooldown      Rejection = "cooldown"
	RejectMaxActive     Rejection = "max_active"
	RejectNoVolume      Rejection = "no_volume_confirmation"
	RejectZeroRisk      Rejection = "zero_risk"
	RejectRiskReward    Rejection = "poor_risk_reward"
	RejectDuplicate     Rejection = "duplicate"
)

// ActiveCounter reports how many open signals an asset has.
type ActiveCounter interface {
	ActiveCount(symbol string) int
}

// Request carries everything the factory needs to price a signal.
type Request struct {
	Symbol     string
	Source     core.Source
	Result     confluence.Result
	Price      float64
	ATR        float64
	Support    float64
	Resistance float64
	Now        time.Time
}

// Factory gates confluence results and turns eligible ones into signals.
type Factory struct {
	cfg      Config
	counter  ActiveCounter
	logger   *zap.Logger
	mu       sync.RWMutex
	lastSent map[string]time.Time // symbol -> last created signal
}

// NewFactory creates a factory. counter may be nil, in which case the
// max-active gate never trips.
func NewFactory(cfg Config, counter ActiveCounter, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{
		cfg:      cfg,
		counter:  counter,
		logger:   logger,
		lastSent: make(map[string]time.Time),
	}
}

// TryCreate runs the gates in order and prices the signal. A nil signal comes
// with the rejection that stopped it.
func (f *Factory) TryCreate(req Request) (*core.Signal, Rejection) {
	r := req.Result

	sigType, ok := core.SignalTypeFor(r.Action)
	if !ok {
		return nil, RejectHold
	}
	if r.Confidence < f.cfg.MinConfidence {
		return nil, RejectLowConfidence
	}
	if !f.cooledDown(req.Symbol, req.Now) {
		return nil, RejectCooldown
	}
	if f.counter != nil && f.counter.ActiveCount(req.Symbol) >= f.cfg.MaxActiveSignals {
		return nil, RejectMaxActive
	}
	if !r.VolumeConfirmed {
		return nil, RejectNoVolume
	}

	price := req.Price
	atr := req.ATR
	if atr <= 0 {
		atr = price * 0.02
	}

	var stop float64
	switch sigType {
	case core.SignalBuy:
		stop = price - atr*f.cfg.StopLossATRMultiplier
		if req.Support > 0 && req.Support < stop {
			stop = req.Support
		}
	case core.SignalSell:
		stop = price + atr*f.cfg.StopLossATRMultiplier
		if req.Resistance > stop {
			stop = req.Resistance
		}
	}

	risk := math.Abs(price - stop)
	if risk == 0 {
		return nil, RejectZeroRisk
	}

	var targets [3]float64
	for i, m := range f.cfg.TargetMultipliers {
		if i >= len(targets) {
			break
		}
		if sigType == core.SignalBuy {
			targets[i] = price + risk*m
		} else {
			targets[i] = price - risk*m
		}
	}

	rr := math.Abs(targets[0]-price) / risk
	if rr < f.cfg.MinRiskReward {
		f.logger.Debug("signal rejected on risk/reward",
			zap.String("symbol", req.Symbol),
			zap.Float64("risk_reward", rr),
		)
		return nil, RejectRiskReward
	}

	sig := &core.Signal{
		Symbol:       req.Symbol,
		Type:         sigType,
		Source:       req.Source,
		EntryPrice:   price,
		StopLoss:     stop,
		Target1:      targets[0],
		Target2:      targets[1],
		Target3:      targets[2],
		Confidence:   r.Confidence,
		RiskReward:   rr,
		EntryReason:  strings.Join(r.Reasons, " | "),
		CreatedAt:    req.Now,
		ExpiresAt:    req.Now.Add(f.cfg.TTL),
		CurrentPrice: price,
		Status:       core.StatusActive,
	}

	f.mu.Lock()
	f.lastSent[req.Symbol] = req.Now
	f.mu.Unlock()

	return sig, Accepted
}

func (f *Factory) cooledDown(symbol string, now time.Time) bool {
	f.mu.RLock()
	last, exists := f.lastSent[symbol]
	f.mu.RUnlock()
	return !exists || now.Sub(last) >= f.cfg.Cooldown()
}

// MarkCreated records a signal creation time for cooldown purposes, keeping
// the later of the stored and given times.
func (f *Factory) MarkCreated(symbol string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if last, ok := f.lastSent[symbol]; !ok || at.After(last) {
		f.lastSent[symbol] = at
	}
}

// LastCreated returns when the asset last produced a signal.
func (f *Factory) LastCreated(symbol string) (time.Time, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.lastSent[symbol]
	return t, ok
}

// ClearCooldown removes the cooldown for a specific symbol.
func (f *Factory) ClearCooldown(symbol string) {
	f.mu.Lock()
	delete(f.lastSent, symbol)
	f.mu.Unlock()
}

// CleanupExpiredCooldowns removes entries older than twice the cooldown.
func (f *Factory) CleanupExpiredCooldowns(now time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	expiry := f.cfg.Cooldown() * 2
	removed := 0
	for symbol, last := range f.lastSent {
		if now.Sub(last) > expiry {
			delete(f.lastSent, symbol)
			removed++
		}
	}
	return removed
}

// StartCleanupRoutine periodically drops expired cooldown entries until ctx is done.
func (f *Factory) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if removed := f.CleanupExpiredCooldowns(now); removed > 0 {
					f.logger.Debug("cleaned up expired cooldowns", zap.Int("removed", removed))
				}
			}
		}
	}()
}

// Config returns the factory configuration.
func (f *Factory) Config() Config { return f.cfg }
