package indicator

// MACDValue holds the latest MACD line, signal and histogram.
type MACDValue struct {
	Line      float64
	Signal    float64
	Histogram float64
}

// MACDSeries returns EMA(fast) - EMA(slow) aligned to the slow EMA.
func MACDSeries(prices []float64, fast, slow int) []float64 {
	if fast <= 0 || slow <= fast || len(prices) < slow {
		return []float64{}
	}
	emaFast := EMA(prices, fast)
	emaSlow := EMA(prices, slow)
	offset := slow - fast

	series := make([]float64, len(emaSlow))
	for i := range emaSlow {
		series[i] = emaFast[i+offset] - emaSlow[i]
	}
	return series
}

// MACD computes the latest MACD values. The signal line is a true EMA of the
// MACD series; while that series is shorter than signalPeriod it is the series mean.
func MACD(prices []float64, fast, slow, signalPeriod int) MACDValue {
	series := MACDSeries(prices, fast, slow)
	if len(series) == 0 {
		return MACDValue{}
	}

	line := series[len(series)-1]
	signal := LastEMA(series, signalPeriod)

	return MACDValue{
		Line:      line,
		Signal:    signal,
		Histogram: line - signal,
	}
}
