package indicator

import "math"

// CalculateADX returns Wilder's average directional index. Directional
// movement and true range are smoothed from index period; the first ADX value
// is the mean of the first period DX values and sits at index 2*period-1.
func CalculateADX(high, low, close []float64, period int) []float64 {
	n := min(len(high), len(low), len(close))
	if period <= 0 || n < 2*period {
		return nil
	}

	tr := CalculateTrueRange(high, low, close)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	var sTR, sPlus, sMinus float64
	for i := 1; i <= period; i++ {
		sTR += tr[i]
		sPlus += plusDM[i]
		sMinus += minusDM[i]
	}

	dx := make([]float64, n)
	for i := 0; i < period; i++ {
		dx[i] = math.NaN()
	}
	dx[period] = directionalIndex(sTR, sPlus, sMinus)
	p := float64(period)
	for i := period + 1; i < n; i++ {
		sTR = sTR - sTR/p + tr[i]
		sPlus = sPlus - sPlus/p + plusDM[i]
		sMinus = sMinus - sMinus/p + minusDM[i]
		dx[i] = directionalIndex(sTR, sPlus, sMinus)
	}

	adx := make([]float64, n)
	first := 2*period - 1
	var sum float64
	for i := 0; i < first; i++ {
		adx[i] = math.NaN()
	}
	for i := period; i <= first; i++ {
		sum += dx[i]
	}
	adx[first] = sum / p
	for i := first + 1; i < n; i++ {
		adx[i] = (adx[i-1]*(p-1) + dx[i]) / p
	}
	return adx
}

func directionalIndex(sTR, sPlus, sMinus float64) float64 {
	if sTR <= 0 {
		return 0
	}
	plusDI := 100 * sPlus / sTR
	minusDI := 100 * sMinus / sTR
	total := plusDI + minusDI
	if total == 0 {
		return 0
	}
	return 100 * math.Abs(plusDI-minusDI) / total
}
