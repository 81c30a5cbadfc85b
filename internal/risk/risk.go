// Package risk derives stop, target and risk/reward for a long entry.
package risk

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	ErrATRUnavailable  = errors.New("atr unavailable")
	ErrStopNotPositive = errors.New("stop not positive")
	ErrNoRisk          = errors.New("entry not above stop")
	ErrRiskReward      = errors.New("risk/reward below minimum")
)

type Params struct {
	StopMultiplier float64 // ATR multiples below entry
	TargetPct      float64 // fraction above entry, 0.07 = 7%
	MinRR          float64
}

type Levels struct {
	Entry       float64 `json:"entry"`
	Stop        float64 `json:"stop"`
	Target      float64 `json:"target"`
	RiskReward  float64 `json:"risk_reward"`
	StopBasis   string  `json:"stop_basis"`
	TargetBasis string  `json:"target_basis"`
}

// Calculate returns the levels for entry at the latest close. The target is a
// fixed percentage above entry and is not derived from ATR.
func Calculate(entry, atr float64, p Params) (Levels, error) {
	if math.IsNaN(atr) || atr <= 0 {
		return Levels{}, fmt.Errorf("%w: %v", ErrATRUnavailable, atr)
	}

	l := Levels{
		Entry:       entry,
		Stop:        entry - atr*p.StopMultiplier,
		Target:      entry * (1 + p.TargetPct),
		StopBasis:   StopBasis(p.StopMultiplier),
		TargetBasis: TargetBasis(p.TargetPct),
	}
	if l.Stop <= 0 {
		return Levels{}, fmt.Errorf("%w: %.4f", ErrStopNotPositive, l.Stop)
	}

	denom := l.Entry - l.Stop
	if denom <= 0 {
		return Levels{}, ErrNoRisk
	}
	l.RiskReward = (l.Target - l.Entry) / denom
	if l.RiskReward < p.MinRR {
		return l, fmt.Errorf("%w: %.2f < %.2f", ErrRiskReward, l.RiskReward, p.MinRR)
	}
	return l, nil
}

// StopBasis labels the stop, e.g. "1.0×ATR".
func StopBasis(multiplier float64) string {
	return strconv.FormatFloat(multiplier, 'f', 1, 64) + "×ATR"
}

// TargetBasis labels the target, e.g. "+7%".
func TargetBasis(pct float64) string {
	return "+" + strconv.FormatFloat(math.Round(pct*10000)/100, 'f', -1, 64) + "%"
}
