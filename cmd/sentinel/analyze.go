package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newthinker/sentinel/internal/app"
	"github.com/newthinker/sentinel/internal/collector"
	"github.com/newthinker/sentinel/internal/config"
)

var (
	analyzeSymbol  string
	analyzeProfile string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one analysis cycle for a symbol and print the result",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeSymbol, "symbol", "", "Symbol to analyze, e.g. BTC or ETH/USDT (required)")
	analyzeCmd.Flags().StringVar(&analyzeProfile, "profile", "", "Trading profile override (scalp, day, swing)")
	analyzeCmd.MarkFlagRequired("symbol")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	symbol := collector.NormalizeSymbol(analyzeSymbol, cfg.Collector.DefaultQuote)
	if err := collector.ValidateSymbol(symbol); err != nil {
		return err
	}
	cfg.Watchlist = []config.WatchlistItem{{Symbol: symbol, Profile: strings.ToLower(analyzeProfile)}}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	src, err := newCollector(cfg.Collector)
	if err != nil {
		return fmt.Errorf("creating collector: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a := app.New(cfg, src, app.WithLogger(log))
	a.Warm(ctx, klineInterval(cfg.Collector.Interval), cfg.Trading.WindowSize)
	a.RunOnce(ctx)

	analysis, err := a.Analysis(ctx, symbol)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(analysis)
}
