package collector

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/newthinker/sentinel/internal/core"
)

// duplicateTolerance is the absolute price difference under which two
// samples inside the duplicate window are treated as the same observation.
const duplicateTolerance = 0.01

// Validator screens incoming samples per symbol before they reach the window.
// Only accepted samples move the reference price.
type Validator struct {
	maxChange       float64
	duplicateWindow time.Duration

	mu   sync.Mutex
	last map[string]core.PriceSample
}

// NewValidator creates a validator. maxChange is a fraction (0.10 = 10%);
// zero disables the jump check, as does a zero duplicateWindow for repeats.
func NewValidator(maxChange float64, duplicateWindow time.Duration) *Validator {
	return &Validator{
		maxChange:       maxChange,
		duplicateWindow: duplicateWindow,
		last:            make(map[string]core.PriceSample),
	}
}

// Check validates s against the last accepted sample for symbol and records
// it when accepted. Rejections wrap core.ErrInvalidSample or
// core.ErrDuplicateSample.
func (v *Validator) Check(symbol string, s core.PriceSample) error {
	if err := s.Validate(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	prev, ok := v.last[symbol]
	if ok {
		if v.duplicateWindow > 0 && math.Abs(s.Price-prev.Price) < duplicateTolerance &&
			s.Timestamp.Sub(prev.Timestamp) < v.duplicateWindow {
			return core.ErrDuplicateSample
		}
		if v.maxChange > 0 {
			change := math.Abs(s.Price-prev.Price) / prev.Price
			if change > v.maxChange {
				return core.WrapError(core.ErrInvalidSample,
					fmt.Errorf("price moved %.2f%% from %.8g to %.8g", change*100, prev.Price, s.Price))
			}
		}
	}

	v.last[symbol] = s
	return nil
}

// Reset forgets the reference sample for symbol.
func (v *Validator) Reset(symbol string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.last, symbol)
}
