package signal

import (
	"github.com/newthinker/sentinel/internal/core"
)

// Stats is a performance summary over a set of signals.
type Stats struct {
	Total              int     `json:"total_signals"`
	Active             int     `json:"active_signals"`
	Closed             int     `json:"closed_signals"`
	Wins               int     `json:"profitable_signals"`
	Losses             int     `json:"losing_signals"`
	WinRate            float64 `json:"success_rate"`
	AvgProfit          float64 `json:"avg_profit"`
	AvgLoss            float64 `json:"avg_loss"`
	BestPnL            float64 `json:"best_signal"`
	WorstPnL           float64 `json:"worst_signal"`
	TotalPnL           float64 `json:"total_pnl_pct"`
	Target1Hits        int     `json:"target_1_hits"`
	Target2Hits        int     `json:"target_2_hits"`
	Target3Hits        int     `json:"target_3_hits"`
	StopHits           int     `json:"stop_hits"`
	Expired            int     `json:"expired"`
	Cancelled          int     `json:"cancelled"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
}

// ComputeStats summarises signals. A closed signal counts as a win when its
// final PnL is positive.
func ComputeStats(signals []core.Signal) Stats {
	var st Stats
	var profitSum, lossSum, minutes float64
	first := true

	for _, sig := range signals {
		st.Total++
		if sig.IsActive() {
			st.Active++
			continue
		}
		st.Closed++

		pnl := sig.FinalPnL
		st.TotalPnL += pnl
		if pnl > 0 {
			st.Wins++
			profitSum += pnl
		} else {
			st.Losses++
			lossSum += pnl
		}
		if first || pnl > st.BestPnL {
			st.BestPnL = pnl
		}
		if first || pnl < st.WorstPnL {
			st.WorstPnL = pnl
		}
		first = false
		minutes += sig.Duration().Minutes()

		switch sig.Status {
		case core.StatusHitTarget1:
			st.Target1Hits++
		case core.StatusHitTarget2:
			st.Target2Hits++
		case core.StatusHitTarget3:
			st.Target3Hits++
		case core.StatusHitStop:
			st.StopHits++
		case core.StatusExpired:
			st.Expired++
		case core.StatusCancelled:
			st.Cancelled++
		}
	}

	if st.Closed > 0 {
		st.WinRate = float64(st.Wins) / float64(st.Closed) * 100
		st.AvgDurationMinutes = minutes / float64(st.Closed)
	}
	if st.Wins > 0 {
		st.AvgProfit = profitSum / float64(st.Wins)
	}
	if st.Losses > 0 {
		st.AvgLoss = lossSum / float64(st.Losses)
	}
	return st
}
