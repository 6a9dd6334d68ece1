package backtest

import (
	"time"

	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/signal"
)

// Result holds the complete backtest output
type Result struct {
	Symbol      string        `json:"symbol"`
	Profile     string        `json:"profile"`
	Interval    string        `json:"interval"`
	StartDate   time.Time     `json:"start_date"`
	EndDate     time.Time     `json:"end_date"`
	Bars        int           `json:"bars"`
	Rejected    int           `json:"rejected_samples"`
	Signals     []core.Signal `json:"signals"`
	Trades      []Trade       `json:"trades"`
	Performance signal.Stats  `json:"performance"`
	Stats       Stats         `json:"stats"`
}

// Trade is one replayed signal and its outcome. Open trades are marked to
// the last close.
type Trade struct {
	Signal core.Signal `json:"signal"`
	Return float64     `json:"return"` // fraction, 0.05 = +5%
	Open   bool        `json:"open"`
}

// Stats holds trade statistics of a replay. Percentages are in percent.
type Stats struct {
	TotalTrades      int     `json:"total_trades"`
	OpenTrades       int     `json:"open_trades"`
	WinningTrades    int     `json:"winning_trades"`
	LosingTrades     int     `json:"losing_trades"`
	WinRate          float64 `json:"win_rate"`
	TotalReturn      float64 `json:"total_return"`      // sum of closed trade returns
	UnrealizedReturn float64 `json:"unrealized_return"` // open trades marked to the last close
	Expectancy       float64 `json:"expectancy"`        // mean closed trade return
	ProfitFactor     float64 `json:"profit_factor"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	SharpeRatio      float64 `json:"sharpe_ratio"` // per trade
	AvgHoldMinutes   float64 `json:"avg_hold_minutes"`
}

// IsWin returns true if the trade was profitable
func (t Trade) IsWin() bool {
	return t.Return > 0
}

// IsClosed returns true if the trade has an exit
func (t Trade) IsClosed() bool {
	return !t.Open
}

// tradeFor converts a replayed signal into a trade.
func tradeFor(sig core.Signal) Trade {
	if sig.IsActive() {
		return Trade{Signal: sig, Return: sig.CurrentPnL / 100, Open: true}
	}
	return Trade{Signal: sig, Return: sig.FinalPnL / 100}
}
