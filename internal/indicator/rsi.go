package indicator

// RSI computes the Relative Strength Index with Wilder smoothing.
//
// Gains and losses are smoothed with alpha = 1/period starting from the first
// delta. Fewer than period+1 prices yields the neutral 50; a zero average loss
// yields 100, which also covers a completely flat series.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 50
	}

	alpha := 1.0 / float64(period)
	var avgGain, avgLoss float64

	for i := 1; i < len(prices); i++ {
		gain, loss := 0.0, 0.0
		if d := prices[i] - prices[i-1]; d > 0 {
			gain = d
		} else {
			loss = -d
		}
		if i == 1 {
			avgGain, avgLoss = gain, loss
			continue
		}
		avgGain = alpha*gain + (1-alpha)*avgGain
		avgLoss = alpha*loss + (1-alpha)*avgLoss
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
