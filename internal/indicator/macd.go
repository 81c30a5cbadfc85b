package indicator

import (
	"fmt"
	"math"
)

// CalculateMACD returns the MACD line (fast EMA - slow EMA), its signal line
// (EMA of the MACD line) and the histogram, all aligned with prices.
func CalculateMACD(prices []float64, fast, slow, signal int) (macd, signalLine, hist []float64, err error) {
	if fast <= 0 || slow <= 0 || signal <= 0 || fast >= slow {
		return nil, nil, nil, fmt.Errorf("invalid macd periods: fast=%d slow=%d signal=%d", fast, slow, signal)
	}
	if len(prices) < slow+signal-1 {
		return nil, nil, nil, fmt.Errorf("%w: macd(%d,%d,%d) needs %d prices, got %d",
			ErrInsufficientData, fast, slow, signal, slow+signal-1, len(prices))
	}

	fastEMA := CalculateEMA(prices, fast)
	slowEMA := CalculateEMA(prices, slow)

	macd = make([]float64, len(prices))
	for i := range prices {
		if math.IsNaN(fastEMA[i]) || math.IsNaN(slowEMA[i]) {
			macd[i] = math.NaN()
			continue
		}
		macd[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine = CalculateEMA(macd, signal)
	hist = make([]float64, len(prices))
	for i := range prices {
		if math.IsNaN(macd[i]) || math.IsNaN(signalLine[i]) {
			hist[i] = math.NaN()
			continue
		}
		hist[i] = macd[i] - signalLine[i]
	}
	return macd, signalLine, hist, nil
}

// HistogramTrendBars counts how many of the most recent bars had a strictly
// increasing histogram. A value of 2 means hist[n-3] < hist[n-2] < hist[n-1].
func HistogramTrendBars(hist []float64) int {
	count := 0
	for i := len(hist) - 1; i > 0; i-- {
		if math.IsNaN(hist[i]) || math.IsNaN(hist[i-1]) || hist[i] <= hist[i-1] {
			break
		}
		count++
	}
	return count
}
