package indicator

import (
	"math"
)

// CalculateTrueRange returns the true range of every bar. The first bar has no
// previous close, so its range is simply high-low.
func CalculateTrueRange(high, low, close []float64) []float64 {
	n := min(len(high), len(low), len(close))
	if n == 0 {
		return nil
	}
	tr := make([]float64, n)
	tr[0] = high[0] - low[0]
	for i := 1; i < n; i++ {
		tr[i] = math.Max(high[i]-low[i], math.Max(math.Abs(high[i]-close[i-1]), math.Abs(low[i]-close[i-1])))
	}
	return tr
}

// CalculateATR returns Wilder's average true range. The first ATR sits at index
// period and is the mean of the true ranges of bars 1..period.
func CalculateATR(high, low, close []float64, period int) []float64 {
	tr := CalculateTrueRange(high, low, close)
	if period <= 0 || len(tr) < period+1 {
		return nil
	}
	atr := make([]float64, len(tr))
	var sum float64
	for i := 0; i < period; i++ {
		atr[i] = math.NaN()
		sum += tr[i+1]
	}
	atr[period] = sum / float64(period)
	for i := period + 1; i < len(tr); i++ {
		atr[i] = (atr[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return atr
}
