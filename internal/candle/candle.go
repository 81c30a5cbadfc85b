// Package candle
package candle

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Candle is one closed OHLCV bar as produced by a market-data provider.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	Source    string    `json:"source"`
}

// Validate checks if a candle has valid data
func (c *Candle) Validate() error {
	if c.Timestamp.IsZero() {
		return errors.New("candle timestamp is zero")
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return errors.New("candle prices must be positive")
	}
	if c.High < c.Low {
		return errors.New("candle high cannot be less than low")
	}
	if c.Open < c.Low || c.Open > c.High {
		return errors.New("candle open price must be between high and low")
	}
	if c.Close < c.Low || c.Close > c.High {
		return errors.New("candle close price must be between high and low")
	}
	if c.Volume < 0 {
		return errors.New("candle volume cannot be negative")
	}
	if c.Symbol == "" {
		return errors.New("candle symbol cannot be empty")
	}
	if c.Timeframe == "" {
		return errors.New("candle timeframe cannot be empty")
	}
	return nil
}

// Series is the ordered bar window of a single symbol, most recent last.
// A Series is never mutated after construction.
type Series struct {
	symbol  string
	candles []Candle
}

// NewSeries validates, copies and orders the candles of one symbol.
// Duplicate timestamps and candles of other symbols are rejected.
func NewSeries(symbol string, candles []Candle) (Series, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Series{}, errors.New("series symbol cannot be empty")
	}

	cp := make([]Candle, len(candles))
	copy(cp, candles)
	sort.SliceStable(cp, func(i, j int) bool {
		return cp[i].Timestamp.Before(cp[j].Timestamp)
	})

	for i := range cp {
		if err := cp[i].Validate(); err != nil {
			return Series{}, fmt.Errorf("invalid candle at index %d for %s: %w", i, symbol, err)
		}
		if !strings.EqualFold(cp[i].Symbol, symbol) {
			return Series{}, fmt.Errorf("candle at index %d has different symbol: %s, expected: %s", i, cp[i].Symbol, symbol)
		}
		if i > 0 && cp[i].Timestamp.Equal(cp[i-1].Timestamp) {
			return Series{}, fmt.Errorf("duplicate candle for %s at %s", symbol, cp[i].Timestamp.Format(time.RFC3339))
		}
	}

	return Series{symbol: symbol, candles: cp}, nil
}

func (s Series) Symbol() string { return s.symbol }

func (s Series) Len() int { return len(s.candles) }

// At returns the candle at index i (0 is the oldest).
func (s Series) At(i int) Candle { return s.candles[i] }

// Last returns the most recent candle. It panics on an empty series.
func (s Series) Last() Candle { return s.candles[len(s.candles)-1] }

// Candles returns a copy of the underlying candles.
func (s Series) Candles() []Candle {
	cp := make([]Candle, len(s.candles))
	copy(cp, s.candles)
	return cp
}

// Truncate returns the series without its last n candles.
func (s Series) Truncate(n int) Series {
	if n <= 0 {
		return s
	}
	if n >= len(s.candles) {
		return Series{symbol: s.symbol}
	}
	return Series{symbol: s.symbol, candles: s.candles[:len(s.candles)-n]}
}

func (s Series) Closes() []float64 {
	out := make([]float64, len(s.candles))
	for i, c := range s.candles {
		out[i] = c.Close
	}
	return out
}

func (s Series) Highs() []float64 {
	out := make([]float64, len(s.candles))
	for i, c := range s.candles {
		out[i] = c.High
	}
	return out
}

func (s Series) Lows() []float64 {
	out := make([]float64, len(s.candles))
	for i, c := range s.candles {
		out[i] = c.Low
	}
	return out
}

func (s Series) Volumes() []float64 {
	out := make([]float64, len(s.candles))
	for i, c := range s.candles {
		out[i] = c.Volume
	}
	return out
}

// DollarVolumes returns close*volume per bar.
func (s Series) DollarVolumes() []float64 {
	out := make([]float64, len(s.candles))
	for i, c := range s.candles {
		out[i] = c.Close * c.Volume
	}
	return out
}
