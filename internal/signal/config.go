// Package signal creates trade signals from confluence results and tracks
// them until a target, the stop or expiry closes them.
package signal

import (
	"fmt"
	"time"
)

// Config holds the signal generation and tracking parameters.
type Config struct {
	MinConfidence         float64       `mapstructure:"min_confidence" json:"min_confidence" default:"60" validate:"gte=0,lte=100"`
	MinRiskReward         float64       `mapstructure:"min_risk_reward" json:"min_risk_reward" default:"1.5" validate:"gte=0"`
	MaxActiveSignals      int           `mapstructure:"max_active_signals" json:"max_active_signals" default:"5" validate:"gte=1,lte=50"`
	CooldownMinutes       int           `mapstructure:"cooldown_minutes" json:"cooldown_minutes" default:"60" validate:"gte=0"`
	TargetMultipliers     []float64     `mapstructure:"target_multipliers" json:"target_multipliers" default:"[2.0,3.5,5.0]" validate:"len=3,dive,gt=0"`
	StopLossATRMultiplier float64       `mapstructure:"stop_loss_atr_multiplier" json:"stop_loss_atr_multiplier" default:"2" validate:"gt=0"`
	TrailingATRMultiplier float64       `mapstructure:"trailing_stop_atr_multiplier" json:"trailing_stop_atr_multiplier" validate:"gte=0"`
	TrailingActivationPct float64       `mapstructure:"trailing_activation_pct" json:"trailing_activation_pct" default:"2" validate:"gte=0"`
	TTL                   time.Duration `mapstructure:"ttl" json:"ttl" default:"24h" validate:"gt=0"`
	DedupWindow           time.Duration `mapstructure:"dedup_window" json:"dedup_window" default:"30m" validate:"gte=0"`
	DedupPricePct         float64       `mapstructure:"dedup_price_pct" json:"dedup_price_pct" default:"2" validate:"gte=0"`
}

// DefaultConfig returns the day-trading defaults.
func DefaultConfig() Config {
	return Config{
		MinConfidence:         60,
		MinRiskReward:         1.5,
		MaxActiveSignals:      5,
		CooldownMinutes:       60,
		TargetMultipliers:     []float64{2.0, 3.5, 5.0},
		StopLossATRMultiplier: 2.0,
		TrailingActivationPct: 2.0,
		TTL:                   24 * time.Hour,
		DedupWindow:           30 * time.Minute,
		DedupPricePct:         2.0,
	}
}

// Cooldown is the minimum gap between two signals for the same asset.
func (c Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownMinutes) * time.Minute
}

// Validate checks the target multipliers, which must be three increasing values.
func (c Config) Validate() error {
	if len(c.TargetMultipliers) != 3 {
		return fmt.Errorf("target_multipliers needs 3 values, got %d", len(c.TargetMultipliers))
	}
	prev := 0.0
	for i, m := range c.TargetMultipliers {
		if m <= prev {
			return fmt.Errorf("target_multipliers must be positive and increasing, got %v at %d", m, i)
		}
		prev = m
	}
	if c.StopLossATRMultiplier <= 0 {
		return fmt.Errorf("stop_loss_atr_multiplier must be positive")
	}
	return nil
}
