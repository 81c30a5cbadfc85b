// Package candletest builds deterministic daily bar windows for tests.
package candletest

import (
	"math"
	"time"

	"github.com/amirphl/swing-scanner/internal/candle"
)

// Start is the timestamp of the first generated bar.
var Start = time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC)

// Wave shapes a synthetic close series: Base + Slope*i + Amp*sin(Freq*i),
// everything multiplied by Scale.
type Wave struct {
	Base  float64
	Slope float64
	Amp   float64
	Freq  float64
	Scale float64
}

// Momentum is a gently rising, oscillating series whose last bar passes the
// momentum gate with default settings (RSI near 59 and rising, fresh MACD
// crossover, ATR near 2.7).
var Momentum = Wave{Base: 100, Slope: 0.15, Amp: 2, Freq: 1.3, Scale: 1}

// MomentumAlt variants also pass the gate, with slightly different scores.
var (
	MomentumAltA = Wave{Base: 100, Slope: 0.1, Amp: 2, Freq: 1.1, Scale: 1}
	MomentumAltB = Wave{Base: 100, Slope: 0.1, Amp: 1.5, Freq: 1.3, Scale: 1}
)

// Downtrend loses one point a day.
var Downtrend = Wave{Base: 200, Slope: -1, Scale: 1}

func (w Wave) Closes(n int) []float64 {
	scale := w.Scale
	if scale == 0 {
		scale = 1
	}
	out := make([]float64, n)
	for i := range out {
		x := float64(i)
		out[i] = scale * (w.Base + w.Slope*x + w.Amp*math.Sin(w.Freq*x))
	}
	return out
}

// Volumes is flat at 1M shares with the last three sessions rising by 200k each.
func Volumes(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1_000_000
		if i > n-4 {
			out[i] += float64(i-(n-4)) * 200_000
		}
	}
	return out
}

// Bars turns the wave into n daily candles with a high/low one Scale unit
// around the close.
func (w Wave) Bars(symbol string, n int) []candle.Candle {
	scale := w.Scale
	if scale == 0 {
		scale = 1
	}
	return Daily(symbol, w.Closes(n), Volumes(n), scale)
}

// Daily builds daily candles from closes and volumes.
func Daily(symbol string, closes, volumes []float64, spread float64) []candle.Candle {
	out := make([]candle.Candle, len(closes))
	for i := range closes {
		out[i] = candle.Candle{
			Timestamp: Start.AddDate(0, 0, i),
			Open:      closes[i],
			High:      closes[i] + spread,
			Low:       closes[i] - spread,
			Close:     closes[i],
			Volume:    volumes[i],
			Symbol:    symbol,
			Timeframe: "1d",
			Source:    "test",
		}
	}
	return out
}

// Series is Bars wrapped in a candle.Series; it panics on invalid input.
func (w Wave) Series(symbol string, n int) candle.Series {
	s, err := candle.NewSeries(symbol, w.Bars(symbol, n))
	if err != nil {
		panic(err)
	}
	return s
}
