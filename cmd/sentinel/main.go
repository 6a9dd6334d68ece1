package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/sentinel/internal/collector"
	"github.com/newthinker/sentinel/internal/collector/binance"
	"github.com/newthinker/sentinel/internal/collector/okx"
	"github.com/newthinker/sentinel/internal/config"
	"github.com/newthinker/sentinel/internal/logger"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Sentinel - crypto price monitoring and trading signals",
	Long: `Sentinel polls exchange prices for a watchlist, computes technical
indicators and emits confluence-scored trading signals with managed
stop-loss and take-profit levels.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config, or falls back to defaults, and validates.
func loadConfig() (*config.Config, bool, error) {
	var (
		cfg *config.Config
		err error
	)
	fromFile := cfgFile != ""
	if fromFile {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, false, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, false, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, fromFile, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	opts := cfg.Logging
	if debug {
		opts.Development = true
		opts.Level = "debug"
	}
	return logger.New(opts)
}

// newCollector registers every exchange and chains the configured provider
// with its fallbacks.
func newCollector(cfg collector.Config) (collector.Collector, error) {
	client := collector.NewHTTPClient(cfg.Timeout)

	binanceOpts := []binance.Option{binance.WithHTTPClient(client)}
	okxOpts := []okx.Option{okx.WithHTTPClient(client)}
	if cfg.BaseURL != "" {
		switch cfg.Provider {
		case "binance":
			binanceOpts = append(binanceOpts, binance.WithBaseURL(cfg.BaseURL))
		case "okx":
			okxOpts = append(okxOpts, okx.WithBaseURL(cfg.BaseURL))
		}
	}

	registry := collector.NewRegistry()
	registry.Register(binance.New(binanceOpts...))
	registry.Register(okx.New(okxOpts...))
	return registry.Chain(cfg.Provider, cfg.Fallbacks...)
}

// klineInterval picks the exchange interval closest to the polling period.
func klineInterval(d time.Duration) string {
	switch {
	case d < 3*time.Minute:
		return "1m"
	case d < 10*time.Minute:
		return "5m"
	case d < 30*time.Minute:
		return "15m"
	case d < 2*time.Hour:
		return "1h"
	case d < 12*time.Hour:
		return "4h"
	default:
		return "1d"
	}
}
