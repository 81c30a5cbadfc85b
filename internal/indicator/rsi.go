package indicator

import (
	"fmt"
	"math"
)

// CalculateRSI returns Wilder's RSI aligned with prices. The first period
// elements are NaN. The average gain/loss is seeded with the simple mean of the
// first period changes; an average loss of zero yields 100.
func CalculateRSI(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period+1 {
		return nil
	}
	rsi := make([]float64, len(prices))
	for i := 0; i < period; i++ {
		rsi[i] = math.NaN()
	}
	var gain, loss float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gain += change
		} else {
			loss += -change
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	rsi[period] = rsiFromAverages(avgGain, avgLoss)

	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss = 0, 0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		rsi[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return rsi
}

// CalculateLastRSI returns only the most recent RSI value.
func CalculateLastRSI(prices []float64, period int) (float64, error) {
	rsi := CalculateRSI(prices, period)
	if rsi == nil {
		return 0, fmt.Errorf("%w: rsi(%d) needs %d prices, got %d", ErrInsufficientData, period, period+1, len(prices))
	}
	return rsi[len(rsi)-1], nil
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return clamp(100-(100/(1+rs)), 0, 100)
}

// Slope classifies the day-over-day direction of RSI.
type Slope string

const (
	SlopeRising  Slope = "rising"
	SlopeFalling Slope = "falling"
	SlopeFlat    Slope = "flat"
)

// ClassifySlope compares today's RSI with yesterday's. Moves within epsilon
// are Flat.
func ClassifySlope(prev, curr, epsilon float64) Slope {
	if math.IsNaN(prev) || math.IsNaN(curr) {
		return SlopeFlat
	}
	delta := curr - prev
	switch {
	case delta > epsilon:
		return SlopeRising
	case delta < -epsilon:
		return SlopeFalling
	default:
		return SlopeFlat
	}
}
