package indicator

import "math"

// CalculateSMA returns the simple moving average aligned with values. Elements
// before the first full window are NaN.
func CalculateSMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	sma := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i < period-1 {
			sma[i] = math.NaN()
			continue
		}
		sma[i] = sum / float64(period)
	}
	return sma
}

// CalculateEMA returns the exponential moving average aligned with values.
// Leading NaNs are skipped; the recurrence is seeded with the simple average of
// the first period valid values.
func CalculateEMA(values []float64, period int) []float64 {
	if period <= 0 {
		return nil
	}
	start := 0
	for start < len(values) && math.IsNaN(values[start]) {
		start++
	}
	if len(values)-start < period {
		return nil
	}

	ema := make([]float64, len(values))
	seedIdx := start + period - 1
	var sum float64
	for i := 0; i < seedIdx; i++ {
		ema[i] = math.NaN()
		if i >= start {
			sum += values[i]
		}
	}
	sum += values[seedIdx]
	ema[seedIdx] = sum / float64(period)

	alpha := 2.0 / float64(period+1)
	for i := seedIdx + 1; i < len(values); i++ {
		ema[i] = alpha*values[i] + (1-alpha)*ema[i-1]
	}
	return ema
}

// Highest returns the maximum of the last lookback values.
func Highest(values []float64, lookback int) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	if lookback <= 0 || lookback > len(values) {
		lookback = len(values)
	}
	hi := math.Inf(-1)
	for _, v := range values[len(values)-lookback:] {
		if v > hi {
			hi = v
		}
	}
	return hi
}

// RollingMean returns the mean of the last window values, or NaN when fewer
// values are available.
func RollingMean(values []float64, window int) float64 {
	if window <= 0 || len(values) < window {
		return math.NaN()
	}
	var sum float64
	for _, v := range values[len(values)-window:] {
		sum += v
	}
	return sum / float64(window)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}
