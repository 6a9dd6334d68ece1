package indicator

import "math"

// Bands is a Bollinger Band reading for the latest price.
type Bands struct {
	Upper    float64
	Middle   float64
	Lower    float64
	Width    float64 // (upper-lower)/middle
	Position float64 // 0 at lower band, 1 at upper band
	Squeeze  bool
}

// Bollinger computes bands over the trailing period using the sample standard
// deviation. A window shorter than period collapses all three bands onto the
// last price.
func Bollinger(prices []float64, period int, k float64) Bands {
	if len(prices) == 0 {
		return Bands{Position: 0.5}
	}
	price := prices[len(prices)-1]
	if len(prices) < period {
		return Bands{Upper: price, Middle: price, Lower: price, Position: 0.5}
	}

	recent := prices[len(prices)-period:]
	middle := Mean(recent)
	std := SampleStdDev(recent)

	b := Bands{
		Upper:    middle + k*std,
		Middle:   middle,
		Lower:    middle - k*std,
		Position: 0.5,
	}
	if middle != 0 {
		b.Width = (b.Upper - b.Lower) / middle
	}
	if b.Upper != b.Lower {
		b.Position = (price - b.Lower) / (b.Upper - b.Lower)
	}

	// Squeeze: current width below the average width over lookbacks 10..period.
	if period > 10 {
		var sum float64
		n := 0
		for lb := 10; lb <= period; lb++ {
			sum += bandWidth(prices, lb, k)
			n++
		}
		b.Squeeze = b.Width < sum/float64(n)
	}

	return b
}

func bandWidth(prices []float64, lookback int, k float64) float64 {
	if len(prices) < lookback {
		return 0
	}
	recent := prices[len(prices)-lookback:]
	m := Mean(recent)
	if m == 0 {
		return 0
	}
	return 2 * k * SampleStdDev(recent) / m
}

// SampleStdDev is the standard deviation with Bessel's correction (n-1).
func SampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// PopStdDev is the population standard deviation.
func PopStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)))
}
