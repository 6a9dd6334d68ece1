package indicator

// Stochastic returns %K over kPeriod and %D as the mean of the last dPeriod %K
// values. A flat range yields 50; too little history for %D makes %D equal %K.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) (k, d float64) {
	n := len(closes)
	if kPeriod <= 0 || n < kPeriod || len(highs) != n || len(lows) != n {
		return 50, 50
	}

	k = percentK(highs, lows, closes, n-1, kPeriod)
	if dPeriod <= 1 || n < kPeriod+dPeriod-1 {
		return k, k
	}

	var sum float64
	for end := n - dPeriod; end < n; end++ {
		sum += percentK(highs, lows, closes, end, kPeriod)
	}
	return k, sum / float64(dPeriod)
}

// percentK evaluates %K for the bar at index end.
func percentK(highs, lows, closes []float64, end, period int) float64 {
	start := end - period + 1
	hh, ll := highs[start], lows[start]
	for i := start + 1; i <= end; i++ {
		if highs[i] > hh {
			hh = highs[i]
		}
		if lows[i] < ll {
			ll = lows[i]
		}
	}
	if hh == ll {
		return 50
	}
	return (closes[end] - ll) / (hh - ll) * 100
}
