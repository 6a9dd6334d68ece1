package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/newthinker/sentinel/internal/backtest"
	"github.com/newthinker/sentinel/internal/collector"
	"github.com/newthinker/sentinel/internal/config"
)

var (
	backtestSymbol   string
	backtestFrom     string
	backtestTo       string
	backtestInterval string
	backtestProfile  string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay historical klines through the signal pipeline",
	Long:  "Feed historical closes for a symbol through the live pipeline and show signal performance statistics",
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Symbol to backtest (required)")
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD (required)")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD (required)")
	backtestCmd.Flags().StringVar(&backtestInterval, "interval", "1h", "Kline interval (1m, 5m, 15m, 1h, 4h, 1d)")
	backtestCmd.Flags().StringVar(&backtestProfile, "profile", "", "Trading profile override (scalp, day, swing)")

	backtestCmd.MarkFlagRequired("symbol")
	backtestCmd.MarkFlagRequired("from")
	backtestCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	// Parse from date
	fromDate, err := time.Parse("2006-01-02", backtestFrom)
	if err != nil {
		return fmt.Errorf("invalid from date format (expected YYYY-MM-DD): %w", err)
	}

	// Parse to date
	toDate, err := time.Parse("2006-01-02", backtestTo)
	if err != nil {
		return fmt.Errorf("invalid to date format (expected YYYY-MM-DD): %w", err)
	}

	// Validate date range
	if toDate.Before(fromDate) {
		return fmt.Errorf("end date must be after start date")
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	symbol := collector.NormalizeSymbol(backtestSymbol, cfg.Collector.DefaultQuote)
	if err := collector.ValidateSymbol(symbol); err != nil {
		return err
	}
	trading := cfg.TradingFor(config.WatchlistItem{Symbol: symbol, Profile: strings.ToLower(backtestProfile)})
	if err := trading.Validate(); err != nil {
		return fmt.Errorf("trading config invalid: %w", err)
	}

	src, err := newCollector(cfg.Collector)
	if err != nil {
		return fmt.Errorf("creating collector: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := backtest.New(src, log).Run(ctx, backtest.Request{
		Symbol:   symbol,
		Start:    fromDate,
		End:      toDate.Add(24*time.Hour - time.Nanosecond),
		Interval: backtestInterval,
		Trading:  trading,
	})
	if err != nil {
		return err
	}

	fmt.Println("=== Sentinel Backtest ===")
	fmt.Printf("Symbol:   %s (%s profile)\n", result.Symbol, result.Profile)
	fmt.Printf("Period:   %s to %s\n", fromDate.Format("2006-01-02"), toDate.Format("2006-01-02"))
	fmt.Printf("Bars:     %d %s (%d rejected)\n", result.Bars, result.Interval, result.Rejected)
	fmt.Println()

	p := result.Performance
	fmt.Printf("Signals:       %d (%d active)\n", p.Total, p.Active)
	fmt.Printf("Targets hit:   %d / %d / %d\n", p.Target1Hits, p.Target2Hits, p.Target3Hits)
	fmt.Printf("Stopped out:   %d\n", p.StopHits)
	fmt.Printf("Expired:       %d\n", p.Expired)
	fmt.Printf("Win rate:      %.1f%%\n", p.WinRate)
	fmt.Printf("Avg profit:    %.2f%%\n", p.AvgProfit)
	fmt.Printf("Avg loss:      %.2f%%\n", p.AvgLoss)
	fmt.Println()

	s := result.Stats
	fmt.Printf("Total return:  %.2f%%\n", s.TotalReturn)
	fmt.Printf("Max drawdown:  %.2f%%\n", s.MaxDrawdown)
	fmt.Printf("Sharpe ratio:  %.2f\n", s.SharpeRatio)
	return nil
}
