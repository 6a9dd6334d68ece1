package signal

import (
	"math"
	"time"

	"github.com/newthinker/sentinel/internal/core"
)

// IsDuplicate reports whether an open signal already covers a new
// candidate: same asset, type and source, created within window of now, with
// an entry price within pricePct percent of price.
func IsDuplicate(open core.Signal, symbol string, typ core.SignalType, src core.Source,
	price float64, now time.Time, window time.Duration, pricePct float64) bool {
	if !open.IsActive() || open.Symbol != symbol || open.Type != typ || open.Source != src {
		return false
	}
	if now.Sub(open.CreatedAt) > window {
		return false
	}
	if open.EntryPrice == 0 {
		return false
	}
	return math.Abs(open.EntryPrice-price)/open.EntryPrice*100 <= pricePct
}
