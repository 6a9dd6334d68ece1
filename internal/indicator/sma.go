package indicator

// SMA calculates Simple Moving Average
// Returns slice of length: len(prices) - period + 1
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	result = append(result, sum/float64(period))

	// Rolling calculation
	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		result = append(result, sum/float64(period))
	}

	return result
}

// EMA calculates Exponential Moving Average seeded with the SMA of the first period values.
func EMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)
	multiplier := 2.0 / float64(period+1)

	ema := Mean(prices[:period])
	result = append(result, ema)

	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
		result = append(result, ema)
	}

	return result
}

// LastSMA returns the most recent SMA value, or the mean of everything when the
// series is shorter than period.
func LastSMA(prices []float64, period int) float64 {
	if len(prices) < period {
		return Mean(prices)
	}
	return Mean(prices[len(prices)-period:])
}

// LastEMA returns the most recent EMA value with the same short-series fallback as LastSMA.
func LastEMA(prices []float64, period int) float64 {
	ema := EMA(prices, period)
	if len(ema) == 0 {
		return Mean(prices)
	}
	return ema[len(ema)-1]
}

// Mean is the arithmetic mean; zero for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
