package confluence

import (
	"fmt"

	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/indicator"
	"github.com/newthinker/sentinel/internal/market"
)

// Fixed trigger levels for the band and stochastic families.
const (
	bbLowerZone     = 0.1
	bbUpperZone     = 0.9
	stochOversold   = 20
	stochOverbought = 80
)

// Result is the outcome of one scoring pass.
type Result struct {
	Action          core.Action `json:"action"`
	Confidence      float64     `json:"confidence"`
	ConfluenceScore float64     `json:"confluence_score"`
	BullScore       float64     `json:"bull_score"`
	BearScore       float64     `json:"bear_score"`
	BullPercent     float64     `json:"bull_percentage"`
	BearPercent     float64     `json:"bear_percentage"`
	Reasons         []string    `json:"reasons"`
	VolumeConfirmed bool        `json:"volume_confirmed"`
}

// Hold is the result reported when nothing can be scored.
func Hold() Result {
	return Result{Action: core.ActionHold, Reasons: []string{}}
}

// Scorer evaluates the six indicator families in a fixed order:
// RSI, MACD, Bollinger, Stochastic, SMA alignment, volume.
type Scorer struct {
	weights    Weights
	thresholds Thresholds
}

// NewScorer creates a scorer. Weights are expected to be validated by the caller.
func NewScorer(w Weights, t Thresholds) *Scorer {
	return &Scorer{weights: w, thresholds: t}
}

// Weights returns the configured weights.
func (s *Scorer) Weights() Weights { return s.weights }

// Thresholds returns the configured thresholds.
func (s *Scorer) Thresholds() Thresholds { return s.thresholds }

// Score votes on the snapshot. A snapshot that is not ready yields HOLD.
func (s *Scorer) Score(snap indicator.Snapshot, st market.State) Result {
	if !snap.Ready {
		return Hold()
	}

	w, th := s.weights, s.thresholds
	var bull, bear float64
	reasons := make([]string, 0, 6)

	switch {
	case snap.RSI < th.RSIOversold:
		bull += w.RSI
		reasons = append(reasons, fmt.Sprintf("RSI oversold (%.1f)", snap.RSI))
	case snap.RSI > th.RSIOverbought:
		bear += w.RSI
		reasons = append(reasons, fmt.Sprintf("RSI overbought (%.1f)", snap.RSI))
	}

	switch {
	case snap.MACDLine > snap.MACDSignal && snap.MACDLine > 0:
		bull += w.MACD
		reasons = append(reasons, "MACD bullish crossover")
	case snap.MACDLine < snap.MACDSignal && snap.MACDLine < 0:
		bear += w.MACD
		reasons = append(reasons, "MACD bearish crossover")
	}

	switch {
	case snap.BBPosition < bbLowerZone:
		bull += w.BB
		reasons = append(reasons, "Price near lower Bollinger Band")
	case snap.BBPosition > bbUpperZone:
		bear += w.BB
		reasons = append(reasons, "Price near upper Bollinger Band")
	}

	switch {
	case snap.StochK < stochOversold && snap.StochK > snap.StochD:
		bull += w.Stoch
		reasons = append(reasons, "Stochastic oversold crossover")
	case snap.StochK > stochOverbought && snap.StochK < snap.StochD:
		bear += w.Stoch
		reasons = append(reasons, "Stochastic overbought crossover")
	}

	switch {
	case snap.SMAShort > snap.SMALong && st.Trend.Bullish():
		bull += w.SMACross
		reasons = append(reasons, "Bullish SMA alignment")
	case snap.SMAShort < snap.SMALong && st.Trend.Bearish():
		bear += w.SMACross
		reasons = append(reasons, "Bearish SMA alignment")
	}

	// Volume confirms whichever side already leads.
	volumeConfirmed := snap.VolumeRatio > th.MinVolumeRatio
	if volumeConfirmed {
		if bull > bear {
			bull += w.Volume
		} else {
			bear += w.Volume
		}
		reasons = append(reasons, fmt.Sprintf("Volume confirmation (%.1fx)", snap.VolumeRatio))
	}

	r := Result{
		Action:          core.ActionHold,
		BullScore:       bull,
		BearScore:       bear,
		Reasons:         reasons,
		VolumeConfirmed: volumeConfirmed,
	}
	if total := w.Total(); total > 0 {
		r.BullPercent = clampPercent(bull / total * 100)
		r.BearPercent = clampPercent(bear / total * 100)
	}

	switch {
	case r.BullPercent > r.BearPercent && r.BullPercent >= th.MinConfidence:
		r.Action = core.ActionBuy
	case r.BearPercent > r.BullPercent && r.BearPercent >= th.MinConfidence:
		r.Action = core.ActionSell
	}
	r.ConfluenceScore = max(r.BullPercent, r.BearPercent)
	r.Confidence = r.ConfluenceScore
	return r
}

func clampPercent(v float64) float64 {
	return min(max(v, 0), 100)
}
