package backtest

import (
	"math"
	"sort"
)

// CalculateStats summarises the trades of one replay. Realized figures use
// closed trades in close order; open trades only contribute to Unrealized.
func CalculateStats(trades []Trade) Stats {
	if len(trades) == 0 {
		return Stats{}
	}

	closed := make([]Trade, 0, len(trades))
	var st Stats
	for _, t := range trades {
		if !t.IsClosed() {
			st.OpenTrades++
			st.UnrealizedReturn += t.Return * 100
			continue
		}
		closed = append(closed, t)
	}
	sort.SliceStable(closed, func(i, j int) bool {
		ci, cj := closed[i].Signal.ClosedAt, closed[j].Signal.ClosedAt
		if ci == nil || cj == nil {
			return cj != nil
		}
		return ci.Before(*cj)
	})

	var gross, grossLoss, minutes float64
	returns := make([]float64, len(closed))
	for i, t := range closed {
		returns[i] = t.Return
		st.TotalReturn += t.Return
		if t.IsWin() {
			st.WinningTrades++
			gross += t.Return
		} else {
			st.LosingTrades++
			grossLoss -= t.Return
		}
		if t.Signal.ClosedAt != nil {
			minutes += t.Signal.ClosedAt.Sub(t.Signal.CreatedAt).Minutes()
		}
	}

	st.TotalTrades = len(trades)
	if n := len(closed); n > 0 {
		st.WinRate = float64(st.WinningTrades) / float64(n) * 100
		st.Expectancy = st.TotalReturn / float64(n) * 100
		st.AvgHoldMinutes = minutes / float64(n)
	}
	if grossLoss > 0 {
		st.ProfitFactor = gross / grossLoss
	}
	st.TotalReturn *= 100
	st.MaxDrawdown = maxDrawdown(returns) * 100
	st.SharpeRatio = sharpeRatio(returns)
	return st
}

// maxDrawdown is the largest peak-to-trough fall of the compounded equity
// curve, starting from 1.
func maxDrawdown(returns []float64) float64 {
	var maxDD float64
	peak, equity := 1.0, 1.0
	for _, r := range returns {
		equity *= 1 + r
		peak = math.Max(peak, equity)
		if dd := (peak - equity) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// sharpeRatio is the per-trade mean over the sample standard deviation, with
// a zero risk-free rate. Trades are not evenly spaced so it is not annualized.
func sharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))
	if stdDev == 0 {
		return 0
	}
	return mean / stdDev
}
