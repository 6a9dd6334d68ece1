package indicator

import "github.com/newthinker/sentinel/internal/core"

// MinSamples is the smallest window for which a full snapshot is produced.
// Longer periods raise the bar, see Params.WarmUp.
const MinSamples = 30

// Simulated bar range around each price sample.
const (
	highFactor = 1.001
	lowFactor  = 0.999
)

// Params holds indicator periods.
type Params struct {
	RSIPeriod    int     `mapstructure:"rsi_period" default:"14" validate:"gte=2,lte=100"`
	SMAShort     int     `mapstructure:"sma_short" default:"9" validate:"gte=2,lte=200"`
	SMALong      int     `mapstructure:"sma_long" default:"21" validate:"gte=2,lte=200"`
	SMATrend     int     `mapstructure:"sma_trend" default:"50" validate:"gte=2,lte=200"`
	EMAFast      int     `mapstructure:"ema_fast" default:"12" validate:"gte=2,lte=200"`
	EMASlow      int     `mapstructure:"ema_slow" default:"26" validate:"gte=2,lte=200"`
	MACDSignal   int     `mapstructure:"macd_signal" default:"9" validate:"gte=2,lte=100"`
	BBPeriod     int     `mapstructure:"bb_period" default:"20" validate:"gte=2,lte=200"`
	BBStdDev     float64 `mapstructure:"bb_std" default:"2" validate:"gt=0,lte=5"`
	StochK       int     `mapstructure:"stoch_k" default:"14" validate:"gte=2,lte=100"`
	StochD       int     `mapstructure:"stoch_d" default:"3" validate:"gte=1,lte=20"`
	ATRPeriod    int     `mapstructure:"atr_period" default:"14" validate:"gte=2,lte=100"`
	VolumePeriod int     `mapstructure:"volume_period" default:"20" validate:"gte=2,lte=200"`
}

// WarmUp is the number of samples Compute needs before the snapshot is
// Ready: MinSamples, or more when a configured period is longer. The trend
// average is left out since it falls back to price on short windows.
func (p Params) WarmUp() int {
	need := MinSamples
	for _, n := range []int{
		p.RSIPeriod + 1,
		p.SMALong,
		p.EMASlow,
		p.BBPeriod,
		p.StochK + p.StochD - 1,
		p.ATRPeriod + 1,
		p.VolumePeriod,
	} {
		if n > need {
			need = n
		}
	}
	return need
}

// DefaultParams returns the textbook periods.
func DefaultParams() Params {
	return Params{
		RSIPeriod:    14,
		SMAShort:     9,
		SMALong:      21,
		SMATrend:     50,
		EMAFast:      12,
		EMASlow:      26,
		MACDSignal:   9,
		BBPeriod:     20,
		BBStdDev:     2,
		StochK:       14,
		StochD:       3,
		ATRPeriod:    14,
		VolumePeriod: 20,
	}
}

// Snapshot is the full indicator reading for the latest sample of a window.
type Snapshot struct {
	Ready   bool    `json:"ready"`
	Samples int     `json:"samples"`
	Price   float64 `json:"price"`

	RSI      float64 `json:"rsi"`
	SMAShort float64 `json:"sma_short"`
	SMALong  float64 `json:"sma_long"`
	SMATrend float64 `json:"sma_trend"`
	EMAFast  float64 `json:"ema_fast"`
	EMASlow  float64 `json:"ema_slow"`

	MACDLine      float64 `json:"macd_line"`
	MACDSignal    float64 `json:"macd_signal"`
	MACDHistogram float64 `json:"macd_histogram"`

	BBUpper    float64 `json:"bb_upper"`
	BBMiddle   float64 `json:"bb_middle"`
	BBLower    float64 `json:"bb_lower"`
	BBPosition float64 `json:"bb_position"`
	BBWidth    float64 `json:"bb_width"`
	BBSqueeze  bool    `json:"bb_squeeze"`

	StochK float64 `json:"stoch_k"`
	StochD float64 `json:"stoch_d"`

	ATR            float64 `json:"atr"`
	Volatility     float64 `json:"volatility"`
	HistVolatility float64 `json:"hist_volatility"`
	VolumeRatio    float64 `json:"volume_ratio"`

	Support        float64 `json:"support"`
	Resistance     float64 `json:"resistance"`
	TrendStrength  float64 `json:"trend_strength"`
	TrendDirection Trend   `json:"trend_direction"`
}

// Compute recomputes every indicator from the window. It has no hidden state:
// the same input always yields the same snapshot. Windows shorter than
// p.WarmUp() yield a snapshot with Ready=false.
func Compute(samples []core.PriceSample, p Params) Snapshot {
	n := len(samples)
	if n == 0 {
		return Snapshot{}
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, s := range samples {
		closes[i] = s.Price
		highs[i] = s.Price * highFactor
		lows[i] = s.Price * lowFactor
		volumes[i] = s.Volume
	}
	price := closes[n-1]

	if n < p.WarmUp() {
		return Snapshot{Samples: n, Price: price}
	}

	snap := Snapshot{
		Ready:    true,
		Samples:  n,
		Price:    price,
		RSI:      RSI(closes, p.RSIPeriod),
		SMAShort: LastSMA(closes, p.SMAShort),
		SMALong:  LastSMA(closes, p.SMALong),
		SMATrend: price,
		EMAFast:  LastEMA(closes, p.EMAFast),
		EMASlow:  LastEMA(closes, p.EMASlow),
	}
	if n >= p.SMATrend {
		snap.SMATrend = LastSMA(closes, p.SMATrend)
	}

	m := MACD(closes, p.EMAFast, p.EMASlow, p.MACDSignal)
	snap.MACDLine, snap.MACDSignal, snap.MACDHistogram = m.Line, m.Signal, m.Histogram

	bb := Bollinger(closes, p.BBPeriod, p.BBStdDev)
	snap.BBUpper, snap.BBMiddle, snap.BBLower = bb.Upper, bb.Middle, bb.Lower
	snap.BBPosition, snap.BBWidth, snap.BBSqueeze = bb.Position, bb.Width, bb.Squeeze

	snap.StochK, snap.StochD = Stochastic(highs, lows, closes, p.StochK, p.StochD)

	snap.ATR = ATR(highs, lows, closes, p.ATRPeriod)
	if price > 0 {
		snap.Volatility = snap.ATR / price
	}
	snap.HistVolatility = HistoricalVolatility(closes)
	snap.VolumeRatio = VolumeRatio(volumes, p.VolumePeriod)

	snap.Support, snap.Resistance = SupportResistance(highs, lows, closes)
	snap.TrendStrength = TrendStrength(closes)
	snap.TrendDirection = TrendDirection(snap.SMAShort, snap.SMALong, snap.SMATrend)

	return snap
}
