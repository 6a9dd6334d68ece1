package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/sentinel/internal/cache"
	"github.com/newthinker/sentinel/internal/collector"
	"github.com/newthinker/sentinel/internal/config"
	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/metrics"
	"github.com/newthinker/sentinel/internal/signal"
	"github.com/newthinker/sentinel/internal/storage/archive"
	sigstore "github.com/newthinker/sentinel/internal/storage/signal"
)

const (
	cooldownSweepInterval = 10 * time.Minute
	cleanupPageSize       = 500
)

// App is the main application orchestrator
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	collector collector.Collector
	manager   *signal.Manager
	store     sigstore.Store
	archiver  *archive.Archiver
	cache     cache.Cache
	metrics   *metrics.Registry
	sink      signal.EventSink
	now       func() time.Time

	pipelines map[string]*Pipeline
	order     []string

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	cycles  int64
	lastRun time.Time
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithStore persists signals and serves queries from the store.
func WithStore(s sigstore.Store) Option {
	return func(a *App) { a.store = s }
}

// WithArchiver enables the retention archive.
func WithArchiver(ar *archive.Archiver) Option {
	return func(a *App) { a.archiver = ar }
}

// WithCache stores every fresh analysis in c.
func WithCache(c cache.Cache) Option {
	return func(a *App) { a.cache = c }
}

// WithMetrics records pipeline metrics.
func WithMetrics(m *metrics.Registry) Option {
	return func(a *App) { a.metrics = m }
}

// WithSink publishes lifecycle events.
func WithSink(s signal.EventSink) Option {
	return func(a *App) { a.sink = s }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// New creates the app with one pipeline per watchlist entry.
func New(cfg *config.Config, c collector.Collector, opts ...Option) *App {
	a := &App{
		cfg:       cfg,
		logger:    zap.NewNop(),
		collector: c,
		now:       time.Now,
		pipelines: make(map[string]*Pipeline),
	}
	for _, opt := range opts {
		opt(a)
	}

	managerOpts := []signal.ManagerOption{
		signal.WithLogger(a.logger),
		signal.WithTrailing(signal.TrailingConfig{
			ATRMultiplier: cfg.Trading.Signals.TrailingATRMultiplier,
			ActivationPct: cfg.Trading.Signals.TrailingActivationPct,
		}),
	}
	if a.store != nil {
		managerOpts = append(managerOpts, signal.WithStore(a.store))
	}
	if a.sink != nil {
		managerOpts = append(managerOpts, signal.WithSink(a.sink))
	}
	a.manager = signal.NewManager(managerOpts...)

	validator := collector.NewValidator(cfg.Collector.MaxPriceChange, cfg.Collector.DuplicateWindow)
	for _, item := range cfg.Watchlist {
		if _, exists := a.pipelines[item.Symbol]; exists {
			continue
		}
		a.pipelines[item.Symbol] = NewPipeline(item.Symbol, cfg.TradingFor(item), a.manager,
			validator, a.metrics, a.logger)
		a.order = append(a.order, item.Symbol)
	}
	a.metrics.SetWatchlistSize(len(a.order))

	return a
}

// Manager returns the signal lifecycle manager.
func (a *App) Manager() *signal.Manager { return a.manager }

// Pipeline returns the pipeline for symbol.
func (a *App) Pipeline(symbol string) (*Pipeline, bool) {
	p, ok := a.pipelines[symbol]
	return p, ok
}

// Watchlist returns the monitored symbols in configuration order.
func (a *App) Watchlist() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Restore reloads open signals from the store and re-arms the cooldowns.
func (a *App) Restore(ctx context.Context) (int, error) {
	if a.store == nil {
		return 0, nil
	}
	open, err := a.store.List(ctx, sigstore.ListFilter{Status: core.StatusActive})
	if err != nil {
		return 0, core.WrapError(core.ErrStoreFailed, err)
	}
	n := a.manager.Restore(open)
	for _, sig := range open {
		if p, ok := a.pipelines[sig.Symbol]; ok {
			p.Factory().MarkCreated(sig.Symbol, sig.CreatedAt)
		}
	}
	if n > 0 {
		a.logger.Info("restored active signals", zap.Int("count", n))
	}
	return n, nil
}

// Warm preloads every window from recent klines so the indicators are ready
// on the first live sample.
func (a *App) Warm(ctx context.Context, interval string, bars int) {
	if a.collector == nil || bars <= 0 {
		return
	}
	step := klineStep(interval)
	end := a.now()
	start := end.Add(-time.Duration(bars) * step)

	for _, symbol := range a.order {
		if ctx.Err() != nil {
			return
		}
		history, err := a.collector.FetchHistory(ctx, symbol, start, end, interval)
		if err != nil {
			a.logger.Warn("warm-up failed", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		n := a.pipelines[symbol].Warm(SamplesFromOHLCV(history))
		a.logger.Debug("window warmed", zap.String("symbol", symbol), zap.Int("samples", n))
	}
}

// Start begins the monitoring loop
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}
	a.running = true

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	interval := a.cfg.Collector.Interval
	a.logger.Info("sentinel starting",
		zap.Int("watchlist_count", len(a.order)),
		zap.Duration("interval", interval),
	)

	for _, p := range a.pipelines {
		p.Factory().StartCleanupRoutine(ctx, cooldownSweepInterval)
	}

	// Initial run
	a.runAnalysisCycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cleanup := time.NewTicker(a.cfg.Storage.CleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("sentinel shutting down")
			a.mu.Lock()
			a.running = false
			a.mu.Unlock()
			return ctx.Err()
		case <-ticker.C:
			a.runAnalysisCycle(ctx)
		case <-cleanup.C:
			if _, err := a.RunCleanup(ctx); err != nil {
				a.logger.Error("retention cleanup failed", zap.Error(err))
			}
		}
	}
}

// Stop stops the monitoring loop
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// RunOnce performs a single analysis cycle.
func (a *App) RunOnce(ctx context.Context) {
	a.runAnalysisCycle(ctx)
}

// runAnalysisCycle polls and analyses every asset once. Cancellation is
// honoured between assets; an asset in progress finishes.
func (a *App) runAnalysisCycle(ctx context.Context) {
	if len(a.order) == 0 {
		a.logger.Debug("no symbols in watchlist")
		return
	}

	started := time.Now()
	a.logger.Debug("starting analysis cycle", zap.Int("symbols", len(a.order)))

	for _, symbol := range a.order {
		if ctx.Err() != nil {
			return
		}
		a.analyzeSymbol(ctx, symbol)
	}

	a.mu.Lock()
	a.cycles++
	a.lastRun = a.now()
	a.mu.Unlock()
	a.metrics.RecordAnalysisCycle(time.Since(started).Seconds())
}

// analyzeSymbol fetches a quote and runs it through the asset's pipeline.
func (a *App) analyzeSymbol(ctx context.Context, symbol string) {
	quote, err := a.collector.FetchQuote(ctx, symbol)
	if err != nil {
		a.logger.Warn("failed to fetch quote", zap.String("symbol", symbol), zap.Error(err))
		return
	}

	_, err = a.Ingest(ctx, symbol, quote.Sample(a.now()))
	switch {
	case err == nil:
	case errors.Is(err, core.ErrDuplicateSample):
		a.logger.Debug("duplicate sample dropped", zap.String("symbol", symbol))
	default:
		a.logger.Warn("sample dropped", zap.String("symbol", symbol), zap.Error(err))
	}
}

// Ingest feeds one sample to the asset's pipeline and caches the analysis.
func (a *App) Ingest(ctx context.Context, symbol string, s core.PriceSample) (Analysis, error) {
	p, ok := a.pipelines[symbol]
	if !ok {
		return Analysis{}, core.WrapError(core.ErrNoData, fmt.Errorf("%s is not on the watchlist", symbol))
	}

	analysis, err := p.Process(ctx, s)
	if err != nil {
		return Analysis{}, err
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, cache.AnalysisKey(symbol), analysis, a.cfg.Cache.TTL); err != nil {
			a.logger.Warn("failed to cache analysis", zap.String("symbol", symbol), zap.Error(err))
		}
	}
	if analysis.Signal.Action != core.ActionHold {
		a.logger.Info("confluence",
			zap.String("symbol", symbol),
			zap.String("action", string(analysis.Signal.Action)),
			zap.Float64("confidence", analysis.Signal.Confidence),
		)
	}
	return analysis, nil
}

// Analysis returns the latest analysis for symbol, from memory or the cache.
func (a *App) Analysis(ctx context.Context, symbol string) (Analysis, error) {
	if p, ok := a.pipelines[symbol]; ok {
		if last, ok := p.Last(); ok {
			return last, nil
		}
	}
	if a.cache != nil {
		var cached Analysis
		if err := a.cache.Get(ctx, cache.AnalysisKey(symbol), &cached); err == nil {
			return cached, nil
		}
	}
	return Analysis{}, core.WrapError(core.ErrNoData, fmt.Errorf("no analysis for %s", symbol))
}

// ListSignals returns a page of signals and the total matching count. The
// store answers when configured, the manager otherwise.
func (a *App) ListSignals(ctx context.Context, filter sigstore.ListFilter) ([]core.Signal, int, error) {
	if a.store != nil {
		signals, err := a.store.List(ctx, filter)
		if err != nil {
			return nil, 0, core.WrapError(core.ErrStoreFailed, err)
		}
		total, err := a.store.Count(ctx, filter)
		if err != nil {
			return nil, 0, core.WrapError(core.ErrStoreFailed, err)
		}
		return signals, total, nil
	}

	all := a.manager.History(filter.Symbol)
	matched := make([]core.Signal, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if filter.Matches(all[i]) {
			matched = append(matched, all[i])
		}
	}
	total := len(matched)
	if filter.Offset >= total {
		return []core.Signal{}, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

// GetSignal returns one signal by ID.
func (a *App) GetSignal(ctx context.Context, id int64) (core.Signal, error) {
	if sig, ok := a.manager.Get(id); ok {
		return sig, nil
	}
	if a.store != nil {
		sig, err := a.store.GetByID(ctx, id)
		if err != nil {
			return core.Signal{}, err
		}
		return *sig, nil
	}
	return core.Signal{}, core.ErrSignalNotFound
}

// CancelSignal closes an open signal by hand.
func (a *App) CancelSignal(ctx context.Context, id int64) (core.Signal, error) {
	sig, err := a.manager.Cancel(ctx, id, a.now())
	if err != nil {
		return core.Signal{}, err
	}
	a.metrics.RecordSignalClosed(string(sig.Status))
	a.metrics.SetActiveSignals(sig.Symbol, a.manager.ActiveCount(sig.Symbol))
	return sig, nil
}

// Performance summarises the tracked signals of symbol, or all when empty.
func (a *App) Performance(symbol string) signal.Stats {
	return a.manager.Stats(symbol)
}

// RunCleanup archives closed signals older than the retention period, then
// drops them from the manager and the store. Nothing is deleted when the
// archive write fails.
func (a *App) RunCleanup(ctx context.Context) (int, error) {
	cutoff := a.now().Add(-a.cfg.Storage.Retention())

	expired := a.manager.ClosedBefore(cutoff)
	if a.store != nil {
		stored, err := a.closedBefore(ctx, cutoff)
		if err != nil {
			return 0, err
		}
		expired = mergeByID(expired, stored)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	if a.archiver != nil {
		if _, err := a.archiver.Archive(ctx, expired); err != nil {
			return 0, fmt.Errorf("archiving %d signals: %w", len(expired), err)
		}
	}

	a.manager.Purge(cutoff)
	if a.store != nil {
		if _, err := a.store.DeleteClosedBefore(ctx, cutoff); err != nil {
			return 0, core.WrapError(core.ErrStoreFailed, err)
		}
	}

	a.logger.Info("retention cleanup complete",
		zap.Int("archived", len(expired)),
		zap.Time("cutoff", cutoff),
	)
	return len(expired), nil
}

func (a *App) closedBefore(ctx context.Context, cutoff time.Time) ([]core.Signal, error) {
	var out []core.Signal
	for offset := 0; ; offset += cleanupPageSize {
		page, err := a.store.List(ctx, sigstore.ListFilter{To: cutoff, Limit: cleanupPageSize, Offset: offset})
		if err != nil {
			return nil, core.WrapError(core.ErrStoreFailed, err)
		}
		for _, sig := range page {
			if sig.ClosedAt != nil && sig.ClosedAt.Before(cutoff) {
				out = append(out, sig)
			}
		}
		if len(page) < cleanupPageSize {
			return out, nil
		}
	}
}

// GetStats returns application statistics
func (a *App) GetStats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := map[string]any{
		"running":        a.running,
		"watchlist":      len(a.order),
		"cycles":         a.cycles,
		"active_signals": len(a.manager.Active("")),
	}
	if a.collector != nil {
		stats["collector"] = a.collector.Name()
	}
	if !a.lastRun.IsZero() {
		stats["last_cycle"] = a.lastRun
	}
	return stats
}

// SamplesFromOHLCV converts bar closes into price samples stamped at the bar
// open. Volume is the bar's quote volume, approximated as volume times close.
func SamplesFromOHLCV(bars []core.OHLCV) []core.PriceSample {
	out := make([]core.PriceSample, 0, len(bars))
	for _, b := range bars {
		out = append(out, core.PriceSample{Timestamp: b.Time, Price: b.Close, Volume: b.Volume * b.Close})
	}
	return out
}

func mergeByID(a, b []core.Signal) []core.Signal {
	seen := make(map[int64]bool, len(a)+len(b))
	out := make([]core.Signal, 0, len(a)+len(b))
	for _, set := range [][]core.Signal{a, b} {
		for _, sig := range set {
			if !seen[sig.ID] {
				seen[sig.ID] = true
				out = append(out, sig)
			}
		}
	}
	return out
}

func klineStep(interval string) time.Duration {
	switch interval {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1h":
		return time.Hour
	case "4h":
		return 4 * time.Hour
	case "1w":
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}
