// Package pattern detects candlestick formations on closed daily bars. The
// scanner only reports them; they never change a score or a verdict.
package pattern

import (
	"math"
	"sort"
	"time"

	"github.com/amirphl/swing-scanner/internal/candle"
)

type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

const (
	StrengthWeak   = 0.3
	StrengthMedium = 0.6
	StrengthStrong = 0.9
)

// Match is one formation ending at Index.
type Match struct {
	Index     int       `json:"index"`
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Strength  float64   `json:"strength"`
	Time      time.Time `json:"time"`
}

// Detector finds one family of formations. Detect never fails: windows
// too short for the formation simply produce no matches.
type Detector interface {
	Name() string
	Detect(candles []candle.Candle) []Match
}

// Default returns every built-in detector.
func Default() []Detector {
	return []Detector{Doji{}, Hammer{}, Engulfing{}, Star{}}
}

// Recent runs detectors over candles and keeps the matches of direction dir
// that end within the last n bars, oldest first. Names are deduplicated.
func Recent(candles []candle.Candle, n int, dir Direction, detectors ...Detector) []string {
	if len(detectors) == 0 {
		detectors = Default()
	}
	from := len(candles) - n
	var found []Match
	for _, d := range detectors {
		for _, m := range d.Detect(candles) {
			if m.Index >= from && m.Direction == dir {
				found = append(found, m)
			}
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].Index < found[j].Index })

	seen := make(map[string]bool)
	var out []string
	for _, m := range found {
		if !seen[m.Name] {
			seen[m.Name] = true
			out = append(out, m.Name)
		}
	}
	return out
}

// shape is the geometry of one candle.
type shape struct {
	body, upper, lower, rng float64
	bullish, bearish        bool
}

func shapeOf(c candle.Candle) shape {
	return shape{
		body:    math.Abs(c.Close - c.Open),
		upper:   c.High - math.Max(c.Open, c.Close),
		lower:   math.Min(c.Open, c.Close) - c.Low,
		rng:     c.High - c.Low,
		bullish: c.Close > c.Open,
		bearish: c.Close < c.Open,
	}
}

func (s shape) ratio(v float64) float64 {
	if s.rng == 0 {
		return 0
	}
	return v / s.rng
}

func valid(cs ...candle.Candle) bool {
	for _, c := range cs {
		if c.High < c.Low || c.Open < c.Low || c.Open > c.High || c.Close < c.Low || c.Close > c.High {
			return false
		}
	}
	return true
}

// boost scales s by f and caps it at 1.
func boost(s, f float64) float64 {
	return math.Min(s*f, 1)
}
