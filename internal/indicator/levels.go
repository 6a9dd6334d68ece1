package indicator

import "math"

const fibRetracement = 0.382

// SupportResistance derives pivot levels from the last bar, offset by 38.2% of
// its range. With fewer than 20 bars it returns a +/-2% band around the last close.
func SupportResistance(highs, lows, closes []float64) (support, resistance float64) {
	n := len(closes)
	if n == 0 {
		return 0, 0
	}
	last := closes[n-1]
	if n < 20 || len(highs) != n || len(lows) != n {
		return last * 0.98, last * 1.02
	}

	h, l := highs[n-1], lows[n-1]
	pivot := (h + l + last) / 3
	offset := (h - l) * fibRetracement
	return pivot - offset, pivot + offset
}

// TrendStrength measures directional dominance over the last 20 prices in [0,1].
func TrendStrength(prices []float64) float64 {
	const lookback = 20
	if len(prices) < lookback {
		return 0.5
	}
	recent := prices[len(prices)-lookback:]

	var up, down float64
	for i := 1; i < len(recent); i++ {
		d := recent[i] - recent[i-1]
		if d > 0 {
			up += d
		} else {
			down -= d
		}
	}
	moves := float64(len(recent) - 1)
	avgUp, avgDown := up/moves, down/moves
	if avgUp+avgDown == 0 {
		return 0.5
	}
	return math.Min(math.Abs(avgUp-avgDown)/(avgUp+avgDown), 1)
}

// HistoricalVolatility is the mean of rolling 20-bar std/mean ratios. It needs
// at least 50 prices and returns 0 otherwise.
func HistoricalVolatility(prices []float64) float64 {
	const (
		minPrices = 50
		span      = 20
	)
	if len(prices) < minPrices {
		return 0
	}
	var sum float64
	n := 0
	for i := span; i < len(prices); i++ {
		slice := prices[i-span : i]
		m := Mean(slice)
		if m == 0 {
			continue
		}
		sum += PopStdDev(slice) / m
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// VolumeRatio compares the last volume with its trailing average.
func VolumeRatio(volumes []float64, period int) float64 {
	if len(volumes) == 0 {
		return 1
	}
	avg := LastSMA(volumes, period)
	if avg <= 0 {
		return 1
	}
	return volumes[len(volumes)-1] / avg
}

// Trend is the direction implied by the short, long and trend moving averages.
type Trend string

const (
	TrendStrongBull Trend = "STRONG_BULL"
	TrendBull       Trend = "BULL"
	TrendNeutral    Trend = "NEUTRAL"
	TrendBear       Trend = "BEAR"
	TrendStrongBear Trend = "STRONG_BEAR"
)

// Bullish reports BULL or STRONG_BULL.
func (t Trend) Bullish() bool { return t == TrendBull || t == TrendStrongBull }

// Bearish reports BEAR or STRONG_BEAR.
func (t Trend) Bearish() bool { return t == TrendBear || t == TrendStrongBear }

// TrendDirection orders the three averages.
func TrendDirection(short, long, trend float64) Trend {
	switch {
	case short > long && long > trend:
		return TrendStrongBull
	case short > long:
		return TrendBull
	case short < long && long < trend:
		return TrendStrongBear
	case short < long:
		return TrendBear
	default:
		return TrendNeutral
	}
}
