package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/sentinel/internal/core"
)

// Fallback tries each collector in order and returns the first success.
type Fallback struct {
	collectors []Collector
}

// NewFallback creates a collector chain. Order is priority.
func NewFallback(collectors ...Collector) *Fallback {
	return &Fallback{collectors: collectors}
}

func (f *Fallback) Name() string {
	names := make([]string, len(f.collectors))
	for i, c := range f.collectors {
		names[i] = c.Name()
	}
	return strings.Join(names, "+")
}

// FetchQuote fetches a quote with automatic fallback
func (f *Fallback) FetchQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	var lastErr error
	for _, c := range f.collectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		quote, err := c.FetchQuote(ctx, symbol)
		if err == nil {
			quote.Symbol = symbol
			return quote, nil
		}
		lastErr = err
	}
	return nil, core.WrapError(core.ErrCollectorFailed,
		fmt.Errorf("all collectors failed for %s: %w", symbol, lastErr))
}

// FetchHistory fetches bars with automatic fallback. An empty result counts
// as a miss.
func (f *Fallback) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	var lastErr error
	for _, c := range f.collectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := c.FetchHistory(ctx, symbol, start, end, interval)
		if err == nil && len(data) > 0 {
			for i := range data {
				data[i].Symbol = symbol
			}
			return data, nil
		}
		if err != nil {
			lastErr = err
		}
	}

	if lastErr != nil {
		return nil, core.WrapError(core.ErrCollectorFailed,
			fmt.Errorf("all collectors failed for %s: %w", symbol, lastErr))
	}
	return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no history for %s", symbol))
}
