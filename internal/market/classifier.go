// Package market classifies the prevailing market regime from an indicator snapshot.
package market

import "github.com/newthinker/sentinel/internal/indicator"

// Level is a three-way LOW/NORMAL/HIGH reading.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelNormal Level = "NORMAL"
	LevelHigh   Level = "HIGH"
)

const (
	highVolumeRatio = 1.5
	lowVolumeRatio  = 0.7

	highVolatilityFactor = 1.5
	lowVolatilityFactor  = 0.5
)

// State is the classified market regime.
type State struct {
	Trend      indicator.Trend `json:"trend"`
	Volatility Level           `json:"volatility"`
	Volume     Level           `json:"volume"`
	Squeeze    bool            `json:"bb_squeeze"`
}

// Neutral is the state reported when there is not enough data.
func Neutral() State {
	return State{Trend: indicator.TrendNeutral, Volatility: LevelNormal, Volume: LevelNormal}
}

// Classify derives the market state from a snapshot.
func Classify(s indicator.Snapshot) State {
	if !s.Ready {
		return Neutral()
	}
	return State{
		Trend:      indicator.TrendDirection(s.SMAShort, s.SMALong, s.SMATrend),
		Volatility: volatilityLevel(s.Volatility, s.HistVolatility),
		Volume:     volumeLevel(s.VolumeRatio),
		Squeeze:    s.BBSqueeze,
	}
}

func volumeLevel(ratio float64) Level {
	switch {
	case ratio > highVolumeRatio:
		return LevelHigh
	case ratio < lowVolumeRatio:
		return LevelLow
	default:
		return LevelNormal
	}
}

func volatilityLevel(current, historical float64) Level {
	if historical == 0 {
		return LevelNormal
	}
	switch {
	case current > highVolatilityFactor*historical:
		return LevelHigh
	case current < lowVolatilityFactor*historical:
		return LevelLow
	default:
		return LevelNormal
	}
}
