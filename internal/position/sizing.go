// Package position sizes long entries from an account risk budget.
package position

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNonPositiveRisk = errors.New("risk per share not positive")
	ErrBelowOneShare   = errors.New("position size below one share")
)

// RiskParams describes the account a position is sized for.
type RiskParams struct {
	AccountSize float64
	RiskPercent float64 // percent of AccountSize risked per trade, 1.0 = 1%
}

// Budget is the dollar amount risked per trade.
func (r RiskParams) Budget() float64 {
	return r.AccountSize * r.RiskPercent / 100
}

type Sizing struct {
	RiskPerShare  float64
	RiskDollars   float64 // the per-trade budget
	ActualRisk    float64 // Size * RiskPerShare
	RewardDollars float64
	Size          int
}

// Size floors the risk budget divided by the per-share risk (entry - stop).
// The returned Sizing is always populated as far as the inputs allow; err
// reports why the size is not tradable.
func Size(entry, stop, target float64, params RiskParams) (Sizing, error) {
	s := Sizing{
		RiskPerShare: entry - stop,
		RiskDollars:  params.Budget(),
	}
	if s.RiskPerShare <= 0 || math.IsNaN(s.RiskPerShare) {
		return s, fmt.Errorf("%w: entry %.2f, stop %.2f", ErrNonPositiveRisk, entry, stop)
	}

	size := math.Floor(s.RiskDollars / s.RiskPerShare)
	if size < 1 || math.IsNaN(size) {
		return s, ErrBelowOneShare
	}
	s.Size = int(size)
	s.ActualRisk = float64(s.Size) * s.RiskPerShare
	s.RewardDollars = float64(s.Size) * (target - entry)
	return s, nil
}
