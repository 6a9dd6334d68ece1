package config

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"

	"github.com/newthinker/sentinel/internal/confluence"
	"github.com/newthinker/sentinel/internal/indicator"
	"github.com/newthinker/sentinel/internal/signal"
)

// Profiles lists the trading presets by name.
var Profiles = []string{"scalp", "day", "swing"}

// Profile returns the trading preset with the given name. Target and
// stop multipliers of every preset are expressed in risk multiples.
func Profile(name string) (TradingConfig, error) {
	t := TradingConfig{}
	defaults.MustSet(&t)
	t.Weights = confluence.DefaultWeights()

	switch name {
	case "day":
		t.Indicators.Params = indicator.DefaultParams()
		t.Signals.Config = signal.DefaultConfig()

	case "scalp":
		t.WindowSize = 120
		t.Indicators.Params = indicator.DefaultParams()
		t.Indicators.RSIPeriod = 7
		t.Indicators.RSIOverbought = 75
		t.Indicators.RSIOversold = 25
		t.Indicators.SMAShort = 3
		t.Indicators.SMALong = 8
		t.Indicators.SMATrend = 21
		t.Indicators.EMAFast = 5
		t.Indicators.EMASlow = 13
		t.Indicators.MACDSignal = 5
		t.Indicators.BBPeriod = 10
		t.Indicators.StochK = 7
		t.Indicators.ATRPeriod = 7

		t.Signals.Config = signal.DefaultConfig()
		t.Signals.MinConfidence = 75
		t.Signals.MinRiskReward = 1.0
		t.Signals.CooldownMinutes = 5
		t.Signals.StopLossATRMultiplier = 1.0
		t.Signals.TargetMultipliers = []float64{1.0, 1.5, 2.0}
		t.Signals.TTL = 2 * time.Hour
		t.Signals.DedupWindow = 5 * time.Minute
		t.Signals.DedupPricePct = 0.5
		t.Signals.MinVolumeRatio = 1.3

	case "swing":
		t.WindowSize = 300
		t.Indicators.Params = indicator.DefaultParams()
		t.Indicators.RSIOverbought = 65
		t.Indicators.RSIOversold = 35
		t.Indicators.SMAShort = 20
		t.Indicators.SMALong = 50
		t.Indicators.SMATrend = 200
		t.Indicators.EMAFast = 21
		t.Indicators.EMASlow = 55
		t.Indicators.BBPeriod = 50

		t.Signals.Config = signal.DefaultConfig()
		t.Signals.MinConfidence = 50
		t.Signals.MinRiskReward = 1.5
		t.Signals.MaxActiveSignals = 3
		t.Signals.CooldownMinutes = 240
		t.Signals.StopLossATRMultiplier = 3.5
		t.Signals.TargetMultipliers = []float64{2.0, 3.0, 4.5}
		t.Signals.TTL = 7 * 24 * time.Hour
		t.Signals.DedupWindow = 4 * time.Hour
		t.Signals.DedupPricePct = 3.0

	default:
		return TradingConfig{}, fmt.Errorf("unknown trading profile %q", name)
	}

	t.Profile = name
	return t, nil
}
