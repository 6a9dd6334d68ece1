package core

import "time"

// Market represents a trading market
type Market string

const MarketCrypto Market = "CRYPTO"

// Quote represents a real-time price quote
type Quote struct {
	Symbol        string
	Market        Market
	Price         float64
	Volume        float64 // base asset volume over 24h
	QuoteVolume   float64 // quote asset volume over 24h
	ChangePercent float64
	Bid           float64
	Ask           float64
	Time          time.Time
	Source        string
}

// IsValid checks if the quote has required fields
func (q Quote) IsValid() bool {
	return q.Symbol != "" && q.Price > 0
}

// Sample converts the quote into a price sample taken at the given time.
func (q Quote) Sample(at time.Time) PriceSample {
	vol := q.QuoteVolume
	if vol == 0 {
		vol = q.Volume * q.Price
	}
	return PriceSample{Timestamp: at, Price: q.Price, Volume: vol}
}

// OHLCV represents a candlestick/bar
type OHLCV struct {
	Symbol   string
	Interval string // "1m", "5m", "1h", "1d"
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	Time     time.Time
}

// PriceSample is one observation pushed by the price feed.
type PriceSample struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
}

// Validate rejects samples that can never be fed to the pipeline.
func (s PriceSample) Validate() error {
	switch {
	case s.Price <= 0:
		return &Error{Code: ErrInvalidSample.Code, Message: ErrInvalidSample.Message,
			Cause: errPriceNotPositive}
	case s.Volume < 0:
		return &Error{Code: ErrInvalidSample.Code, Message: ErrInvalidSample.Message,
			Cause: errVolumeNegative}
	}
	return nil
}

// Action is the decision produced by the confluence scorer.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)
