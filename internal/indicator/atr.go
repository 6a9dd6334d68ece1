package indicator

import "math"

// TrueRanges returns max(high-low, |high-prevClose|, |low-prevClose|) for every bar after the first.
func TrueRanges(highs, lows, closes []float64) []float64 {
	n := len(closes)
	if n < 2 || len(highs) != n || len(lows) != n {
		return []float64{}
	}
	tr := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr = append(tr, math.Max(hl, math.Max(hc, lc)))
	}
	return tr
}

// ATR is the Average True Range with Wilder smoothing seeded from the mean of
// the first period true ranges. With a single bar it falls back to 2% of price.
func ATR(highs, lows, closes []float64, period int) float64 {
	if len(closes) < 2 {
		if len(closes) == 1 {
			return closes[0] * 0.02
		}
		return 0
	}

	tr := TrueRanges(highs, lows, closes)
	if period <= 0 || len(tr) < period {
		return Mean(tr)
	}

	atr := Mean(tr[:period])
	alpha := 1.0 / float64(period)
	for _, v := range tr[period:] {
		atr = alpha*v + (1-alpha)*atr
	}
	return atr
}
