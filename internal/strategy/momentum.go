package strategy

import (
	"fmt"
	"math"

	"github.com/amirphl/swing-scanner/internal/indicator"
	"github.com/amirphl/swing-scanner/internal/strategy/signal"
)

// Scorer applies the momentum base gate and the weighted composite score.
type Scorer struct {
	opts Options
}

func NewScorer(opts Options) *Scorer {
	return &Scorer{opts: opts}
}

// Gate returns the failed base-gate conditions. An empty result means the
// symbol may be scored.
func (s *Scorer) Gate(set indicator.Set) []string {
	var failed []string
	if set.Close <= set.SMATrend {
		failed = append(failed, fmt.Sprintf("close %.2f not above SMA %.2f", set.Close, set.SMATrend))
	}
	if set.EMAFast <= set.EMASlow {
		failed = append(failed, fmt.Sprintf("EMA fast %.2f not above EMA slow %.2f", set.EMAFast, set.EMASlow))
	}
	if set.RSI < s.opts.RSIMin || set.RSI > s.opts.RSIMax {
		failed = append(failed, fmt.Sprintf("RSI %.1f outside %.0f-%.0f", set.RSI, s.opts.RSIMin, s.opts.RSIMax))
	}
	if !set.MACDBullish() {
		failed = append(failed, fmt.Sprintf("MACD not bullish (hist %.4f)", set.MACDHist))
	}
	if set.VolumeRatio <= 1 {
		failed = append(failed, fmt.Sprintf("volume ratio %.2f not above average", set.VolumeRatio))
	}
	if set.ADX <= s.opts.ADXMin {
		failed = append(failed, fmt.Sprintf("ADX %.1f not above %.1f", set.ADX, s.opts.ADXMin))
	}
	if set.Close < s.opts.MinPrice {
		failed = append(failed, fmt.Sprintf("price $%.2f below $%.2f", set.Close, s.opts.MinPrice))
	}
	if set.AvgDollarVolume < s.opts.MinDollarVolume {
		failed = append(failed, fmt.Sprintf("dollar volume $%.0f below $%.0f", set.AvgDollarVolume, s.opts.MinDollarVolume))
	}
	return failed
}

// Score returns the weighted composite in [0,100] and its components.
func (s *Scorer) Score(set indicator.Set) (float64, signal.Breakdown) {
	b := signal.Breakdown{
		EMA:      s.emaComponent(set),
		RSI:      s.rsiComponent(set),
		MACD:     s.macdComponent(set),
		Volume:   s.volumeComponent(set),
		Breakout: s.breakoutComponent(set),
	}
	w := s.opts.Weights
	score := w.EMA/100*b.EMA +
		w.RSI/100*b.RSI +
		w.MACD/100*b.MACD +
		w.Volume/100*b.Volume +
		w.Breakout/100*b.Breakout
	return clamp(score), b
}

func (s *Scorer) emaComponent(set indicator.Set) float64 {
	if set.EMAFast > set.EMASlow {
		return 100
	}
	return 0
}

// rsiComponent peaks at the centre of the band and falls off linearly.
func (s *Scorer) rsiComponent(set indicator.Set) float64 {
	width := s.opts.RSIMax - s.opts.RSIMin
	centre := (s.opts.RSIMin + s.opts.RSIMax) / 2
	if width <= 0 {
		if set.RSI == centre {
			return 100
		}
		return 0
	}
	return clamp(100 * (1 - math.Abs(set.RSI-centre)/width))
}

func (s *Scorer) macdComponent(set indicator.Set) float64 {
	switch {
	case set.MACDBullish() && set.MACDHistTrendBars >= s.opts.MACDRisingBars:
		return 100
	case set.MACDBullish():
		return 60
	default:
		return 0
	}
}

func (s *Scorer) volumeComponent(set indicator.Set) float64 {
	switch {
	case set.VolumeRatio >= s.opts.VolumeBreakout:
		return 100
	case set.VolumeRatio > 1:
		return 70
	default:
		return 30
	}
}

func (s *Scorer) breakoutComponent(set indicator.Set) float64 {
	dist := DistanceToPivotPct(set)
	switch {
	case math.IsNaN(dist):
		return 0
	case dist < s.opts.BreakoutNearPct:
		return 100
	case dist < s.opts.BreakoutWithinPct:
		return 50
	default:
		return 0
	}
}

// DistanceToPivotPct is the rise still needed to reach the pivot high, as a
// percent of the close. A close at or above the pivot is 0; a missing pivot
// or close is NaN.
func DistanceToPivotPct(set indicator.Set) float64 {
	if set.PivotHigh <= 0 || math.IsNaN(set.PivotHigh) || set.Close <= 0 || math.IsNaN(set.Close) {
		return math.NaN()
	}
	return math.Max(0, (set.PivotHigh-set.Close)/set.Close*100)
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(100, math.Max(0, v))
}
