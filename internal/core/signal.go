package core

import "time"

// SignalType is the trade direction of a signal.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
)

// SignalTypeFor maps a non-hold action to its signal type.
func SignalTypeFor(a Action) (SignalType, bool) {
	switch a {
	case ActionBuy:
		return SignalBuy, true
	case ActionSell:
		return SignalSell, true
	}
	return "", false
}

// Source identifies what produced a signal.
type Source string

const (
	SourceIndicators Source = "INDICATORS"
	SourcePattern    Source = "PATTERN"
	SourceCombined   Source = "COMBINED"
	SourceManual     Source = "MANUAL"
)

// Status is the lifecycle state of a signal. ACTIVE is the only non-terminal state.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusHitTarget1 Status = "HIT_TARGET_1"
	StatusHitTarget2 Status = "HIT_TARGET_2"
	StatusHitTarget3 Status = "HIT_TARGET_3"
	StatusHitStop    Status = "HIT_STOP"
	StatusExpired    Status = "EXPIRED"
	StatusCancelled  Status = "CANCELLED"
)

// Statuses lists every valid status.
var Statuses = []Status{
	StatusActive, StatusHitTarget1, StatusHitTarget2, StatusHitTarget3,
	StatusHitStop, StatusExpired, StatusCancelled,
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s != StatusActive && s.Valid()
}

// TargetStatus returns the status for a target tier (1..3).
func TargetStatus(tier int) Status {
	switch tier {
	case 1:
		return StatusHitTarget1
	case 2:
		return StatusHitTarget2
	case 3:
		return StatusHitTarget3
	}
	return ""
}

// Signal is a trade idea with fixed entry, stop and targets and a tracked outcome.
type Signal struct {
	ID     int64      `json:"id"`
	Symbol string     `json:"asset_symbol"`
	Type   SignalType `json:"signal_type"`
	Source Source     `json:"source"`

	EntryPrice  float64   `json:"entry_price"`
	StopLoss    float64   `json:"stop_loss"`
	Target1     float64   `json:"target_1"`
	Target2     float64   `json:"target_2"`
	Target3     float64   `json:"target_3"`
	Confidence  float64   `json:"confidence"`
	RiskReward  float64   `json:"risk_reward_ratio"`
	EntryReason string    `json:"entry_reason"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expiry_time"`

	CurrentPrice float64    `json:"current_price"`
	Status       Status     `json:"status"`
	CurrentPnL   float64    `json:"current_pnl_pct"`
	MaxProfit    float64    `json:"max_profit_pct"`
	MaxLoss      float64    `json:"max_loss_pct"`
	FinalPnL     float64    `json:"final_pnl_pct"`
	TargetHit    int        `json:"target_hit,omitempty"`
	TrailingStop float64    `json:"trailing_stop,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

// IsActive reports whether the signal is still open.
func (s Signal) IsActive() bool {
	return s.Status == StatusActive
}

// Targets returns the three targets in tier order.
func (s Signal) Targets() [3]float64 {
	return [3]float64{s.Target1, s.Target2, s.Target3}
}

// PnL returns the percentage gain at price, signed for the trade direction.
func (s Signal) PnL(price float64) float64 {
	if s.EntryPrice == 0 {
		return 0
	}
	pnl := (price - s.EntryPrice) / s.EntryPrice * 100
	if s.Type == SignalSell {
		return -pnl
	}
	return pnl
}

// EffectiveStop is the trailing stop once set, otherwise the initial stop.
func (s Signal) EffectiveStop() float64 {
	if s.TrailingStop > 0 {
		return s.TrailingStop
	}
	return s.StopLoss
}

// Duration is the time the signal stayed open, or zero while active.
func (s Signal) Duration() time.Duration {
	if s.ClosedAt == nil {
		return 0
	}
	return s.ClosedAt.Sub(s.CreatedAt)
}
