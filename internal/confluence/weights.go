// Package confluence turns an indicator snapshot into a weighted BUY/SELL/HOLD vote.
package confluence

import (
	"fmt"
	"math"
)

const weightTolerance = 0.01

// Weights assigns a vote weight to each indicator family. They must sum to 1.
type Weights struct {
	RSI      float64 `mapstructure:"rsi" json:"rsi" default:"0.20" validate:"gte=0,lte=1"`
	MACD     float64 `mapstructure:"macd" json:"macd" default:"0.25" validate:"gte=0,lte=1"`
	BB       float64 `mapstructure:"bb" json:"bb" default:"0.15" validate:"gte=0,lte=1"`
	Stoch    float64 `mapstructure:"stoch" json:"stoch" default:"0.15" validate:"gte=0,lte=1"`
	SMACross float64 `mapstructure:"sma_cross" json:"sma_cross" default:"0.15" validate:"gte=0,lte=1"`
	Volume   float64 `mapstructure:"volume" json:"volume" default:"0.10" validate:"gte=0,lte=1"`
}

// DefaultWeights returns the standard weight table.
func DefaultWeights() Weights {
	return Weights{RSI: 0.20, MACD: 0.25, BB: 0.15, Stoch: 0.15, SMACross: 0.15, Volume: 0.10}
}

// Total is the sum of all weights.
func (w Weights) Total() float64 {
	return w.RSI + w.MACD + w.BB + w.Stoch + w.SMACross + w.Volume
}

// Validate rejects negative weights and totals outside 1 +/- 0.01.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"rsi": w.RSI, "macd": w.MACD, "bb": w.BB,
		"stoch": w.Stoch, "sma_cross": w.SMACross, "volume": w.Volume,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must not be negative, got %.2f", name, v)
		}
	}
	if total := w.Total(); math.Abs(total-1) > weightTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %.2f", total)
	}
	return nil
}

// Thresholds are the trigger levels used by the scorer.
type Thresholds struct {
	RSIOversold    float64 `mapstructure:"rsi_oversold" json:"rsi_oversold" default:"30" validate:"gte=0,lte=100"`
	RSIOverbought  float64 `mapstructure:"rsi_overbought" json:"rsi_overbought" default:"70" validate:"gte=0,lte=100"`
	MinConfidence  float64 `mapstructure:"min_confidence" json:"min_confidence" default:"60" validate:"gte=0,lte=100"`
	MinVolumeRatio float64 `mapstructure:"min_volume_ratio" json:"min_volume_ratio" default:"1.1" validate:"gte=0"`
}

// DefaultThresholds returns the day-trading thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{RSIOversold: 30, RSIOverbought: 70, MinConfidence: 60, MinVolumeRatio: 1.1}
}
