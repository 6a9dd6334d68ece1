package backtest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/sentinel/internal/app"
	"github.com/newthinker/sentinel/internal/config"
	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/signal"
)

// OHLCVProvider defines the interface for fetching historical OHLCV data
type OHLCVProvider interface {
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error)
}

// Request describes one replay.
type Request struct {
	Symbol   string
	Start    time.Time
	End      time.Time
	Interval string
	Trading  config.TradingConfig
}

// Backtester replays historical bars through the live signal pipeline.
type Backtester struct {
	provider OHLCVProvider
	logger   *zap.Logger
}

// New creates a new Backtester with the given OHLCV provider
func New(provider OHLCVProvider, logger *zap.Logger) *Backtester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backtester{
		provider: provider,
		logger:   logger,
	}
}

// Run fetches the bars and feeds each close to a fresh pipeline as a price
// sample. Signals still open after the last bar are marked to its close.
func (b *Backtester) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Interval == "" {
		req.Interval = "1h"
	}
	bars, err := b.provider.FetchHistory(ctx, req.Symbol, req.Start, req.End, req.Interval)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no %s bars for %s", req.Interval, req.Symbol))
	}

	return b.Replay(ctx, req, bars)
}

// Replay runs already fetched bars through the pipeline.
func (b *Backtester) Replay(ctx context.Context, req Request, bars []core.OHLCV) (*Result, error) {
	manager := signal.NewManager(
		signal.WithLogger(b.logger),
		signal.WithTrailing(signal.TrailingConfig{
			ATRMultiplier: req.Trading.Signals.TrailingATRMultiplier,
			ActivationPct: req.Trading.Signals.TrailingActivationPct,
		}),
	)
	pipeline := app.NewPipeline(req.Symbol, req.Trading, manager, nil, nil, b.logger)

	rejected := 0
	for _, s := range app.SamplesFromOHLCV(bars) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := pipeline.Process(ctx, s); err != nil {
			rejected++
		}
	}

	signals := manager.History(req.Symbol)
	trades := make([]Trade, 0, len(signals))
	for _, sig := range signals {
		trades = append(trades, tradeFor(sig))
	}

	result := &Result{
		Symbol:      req.Symbol,
		Profile:     req.Trading.Profile,
		Interval:    req.Interval,
		StartDate:   req.Start,
		EndDate:     req.End,
		Bars:        len(bars),
		Rejected:    rejected,
		Signals:     signals,
		Trades:      trades,
		Performance: signal.ComputeStats(signals),
		Stats:       CalculateStats(trades),
	}
	if result.StartDate.IsZero() {
		result.StartDate = bars[0].Time
	}
	if result.EndDate.IsZero() {
		result.EndDate = bars[len(bars)-1].Time
	}

	b.logger.Info("backtest complete",
		zap.String("symbol", req.Symbol),
		zap.Int("bars", len(bars)),
		zap.Int("signals", len(signals)),
		zap.Float64("total_return_pct", result.Stats.TotalReturn),
	)
	return result, nil
}
