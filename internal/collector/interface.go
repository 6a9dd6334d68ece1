// Package collector fetches market data from exchange REST APIs.
package collector

import (
	"context"
	"time"

	"github.com/newthinker/sentinel/internal/core"
)

// Config holds collector configuration
type Config struct {
	Provider        string        `mapstructure:"provider" json:"provider" default:"binance" validate:"oneof=binance okx"`
	Fallbacks       []string      `mapstructure:"fallbacks" json:"fallbacks" validate:"dive,oneof=binance okx"`
	BaseURL         string        `mapstructure:"base_url" json:"base_url" validate:"omitempty,url"`
	DefaultQuote    string        `mapstructure:"default_quote" json:"default_quote" default:"USDT"`
	Interval        time.Duration `mapstructure:"interval" json:"interval" default:"5m" validate:"gte=1s"`
	Timeout         time.Duration `mapstructure:"timeout" json:"timeout" default:"10s" validate:"gt=0"`
	MaxPriceChange  float64       `mapstructure:"max_price_change" json:"max_price_change" default:"0.10" validate:"gt=0,lte=1"`
	DuplicateWindow time.Duration `mapstructure:"duplicate_window" json:"duplicate_window" default:"60s" validate:"gte=0"`
}

// DefaultConfig returns the polling settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Provider:        "binance",
		DefaultQuote:    "USDT",
		Interval:        5 * time.Minute,
		Timeout:         10 * time.Second,
		MaxPriceChange:  0.10,
		DuplicateWindow: 60 * time.Second,
	}
}

// Collector defines the interface for data collectors
type Collector interface {
	Name() string

	// FetchQuote returns the latest 24h ticker for a normalized symbol.
	FetchQuote(ctx context.Context, symbol string) (*core.Quote, error)
	// FetchHistory returns bars in chronological order.
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error)
}
