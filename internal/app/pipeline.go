package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/sentinel/internal/collector"
	"github.com/newthinker/sentinel/internal/config"
	"github.com/newthinker/sentinel/internal/confluence"
	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/indicator"
	"github.com/newthinker/sentinel/internal/market"
	"github.com/newthinker/sentinel/internal/metrics"
	"github.com/newthinker/sentinel/internal/signal"
)

// Analysis is the latest full reading of one asset.
type Analysis struct {
	Symbol        string             `json:"symbol"`
	Profile       string             `json:"profile"`
	CurrentPrice  float64            `json:"current_price"`
	Indicators    indicator.Snapshot `json:"technical_indicators"`
	Market        market.State       `json:"market_analysis"`
	Signal        confluence.Result  `json:"signal_analysis"`
	ActiveSignals []core.Signal      `json:"active_signals"`
	Performance   signal.Stats       `json:"performance_summary"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// Pipeline runs every sample of one asset through validation, the lifecycle
// manager, the indicators, the scorer and the factory.
type Pipeline struct {
	symbol    string
	trading   config.TradingConfig
	window    *indicator.Window
	validator *collector.Validator
	scorer    *confluence.Scorer
	factory   *signal.Factory
	manager   *signal.Manager
	metrics   *metrics.Registry
	logger    *zap.Logger

	mu   sync.RWMutex
	last *Analysis
	atr  float64 // ATR of the previous snapshot, feeds the trailing stop
}

// NewPipeline wires a pipeline for symbol. The manager is shared between
// assets; validator may be nil to accept every well-formed sample.
func NewPipeline(symbol string, tc config.TradingConfig, manager *signal.Manager,
	validator *collector.Validator, m *metrics.Registry, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("symbol", symbol))
	return &Pipeline{
		symbol:    symbol,
		trading:   tc,
		window:    indicator.NewWindow(tc.WindowSize),
		validator: validator,
		scorer:    confluence.NewScorer(tc.Weights, tc.Thresholds()),
		factory:   signal.NewFactory(tc.Signals.Config, manager, logger),
		manager:   manager,
		metrics:   m,
		logger:    logger,
	}
}

// Symbol returns the asset this pipeline analyses.
func (p *Pipeline) Symbol() string { return p.symbol }

// Factory exposes the signal factory, mainly for cooldown bookkeeping.
func (p *Pipeline) Factory() *signal.Factory { return p.factory }

// Warm fills the window without evaluating signals.
func (p *Pipeline) Warm(samples []core.PriceSample) int {
	n := 0
	for _, s := range samples {
		if s.Validate() != nil {
			continue
		}
		p.window.Append(s)
		n++
	}
	if last, ok := p.window.Last(); ok && p.validator != nil {
		p.validator.Reset(p.symbol)
		_ = p.validator.Check(p.symbol, last)
	}
	return n
}

// Process feeds one sample through the pipeline and returns the resulting
// analysis. Rejected samples return core.ErrInvalidSample or
// core.ErrDuplicateSample and leave all state untouched.
func (p *Pipeline) Process(ctx context.Context, s core.PriceSample) (Analysis, error) {
	if p.validator != nil {
		if err := p.validator.Check(p.symbol, s); err != nil {
			result := "rejected"
			if errors.Is(err, core.ErrDuplicateSample) {
				result = "duplicate"
			}
			p.metrics.RecordSample(p.symbol, result)
			return Analysis{}, err
		}
	} else if err := s.Validate(); err != nil {
		p.metrics.RecordSample(p.symbol, "rejected")
		return Analysis{}, err
	}
	p.metrics.RecordSample(p.symbol, "accepted")

	now := s.Timestamp
	p.window.Append(s)

	// Open signals see the new price before anything new can be created.
	for _, closed := range p.manager.OnPrice(ctx, p.symbol, s.Price, p.lastATR(), now) {
		p.metrics.RecordSignalClosed(string(closed.Status))
	}

	snap := indicator.Compute(p.window.Samples(), p.trading.Indicators.Params)
	state := market.Classify(snap)
	result := p.scorer.Score(snap, state)
	p.metrics.SetConfluence(p.symbol, result.BullPercent, result.BearPercent)

	p.evaluate(ctx, snap, result, now)

	active := p.manager.Active(p.symbol)
	p.metrics.SetActiveSignals(p.symbol, len(active))

	a := Analysis{
		Symbol:        p.symbol,
		Profile:       p.trading.Profile,
		CurrentPrice:  s.Price,
		Indicators:    snap,
		Market:        state,
		Signal:        result,
		ActiveSignals: active,
		Performance:   p.manager.Stats(p.symbol),
		UpdatedAt:     now,
	}

	p.mu.Lock()
	p.last = &a
	p.atr = snap.ATR
	p.mu.Unlock()

	return a, nil
}

func (p *Pipeline) evaluate(ctx context.Context, snap indicator.Snapshot, result confluence.Result, now time.Time) {
	typ, ok := core.SignalTypeFor(result.Action)
	if !ok {
		return
	}

	cfg := p.trading.Signals
	if dup, found := p.manager.FindDuplicate(p.symbol, typ, core.SourceIndicators,
		snap.Price, now, cfg.DedupWindow, cfg.DedupPricePct); found {
		p.logger.Debug("signal rejected as duplicate", zap.Int64("existing_id", dup.ID))
		p.metrics.RecordSignalRejected(string(signal.RejectDuplicate))
		return
	}

	sig, rejection := p.factory.TryCreate(signal.Request{
		Symbol:     p.symbol,
		Source:     core.SourceIndicators,
		Result:     result,
		Price:      snap.Price,
		ATR:        snap.ATR,
		Support:    snap.Support,
		Resistance: snap.Resistance,
		Now:        now,
	})
	if sig == nil {
		p.logger.Debug("signal rejected", zap.String("reason", string(rejection)))
		p.metrics.RecordSignalRejected(string(rejection))
		return
	}

	registered := p.manager.Register(ctx, *sig)
	p.metrics.RecordSignalCreated(p.symbol, string(registered.Type))
}

func (p *Pipeline) lastATR() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.atr
}

// Last returns the most recent analysis.
func (p *Pipeline) Last() (Analysis, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return Analysis{}, false
	}
	return *p.last, true
}

// Samples returns a copy of the current window.
func (p *Pipeline) Samples() []core.PriceSample {
	return p.window.Samples()
}
