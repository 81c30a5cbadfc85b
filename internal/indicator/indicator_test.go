package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/amirphl/swing-scanner/internal/candle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestSeries builds a daily series with High=close+1 and Low=close-1.
func createTestSeries(t *testing.T, symbol string, closes, volumes []float64) candle.Series {
	t.Helper()
	require.Equal(t, len(closes), len(volumes), "input arrays must have the same length")

	base := time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC)
	candles := make([]candle.Candle, len(closes))
	for i := range closes {
		candles[i] = candle.Candle{
			Timestamp: base.AddDate(0, 0, i),
			Open:      closes[i],
			High:      closes[i] + 1,
			Low:       closes[i] - 1,
			Close:     closes[i],
			Volume:    volumes[i],
			Symbol:    symbol,
			Timeframe: "1d",
			Source:    "test",
		}
	}
	series, err := candle.NewSeries(symbol, candles)
	require.NoError(t, err)
	return series
}

func assertFloats(t *testing.T, expected, actual []float64) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		if math.IsNaN(expected[i]) {
			assert.True(t, math.IsNaN(actual[i]), "expected NaN at index %d", i)
			continue
		}
		assert.InDelta(t, expected[i], actual[i], 1e-9, "mismatch at index %d", i)
	}
}

func TestCalculateSMA(t *testing.T) {
	nan := math.NaN()
	assertFloats(t, []float64{nan, nan, 2, 3, 4}, CalculateSMA([]float64{1, 2, 3, 4, 5}, 3))
	assert.Nil(t, CalculateSMA([]float64{1, 2}, 3))
	assert.Nil(t, CalculateSMA([]float64{1, 2}, 0))
}

func TestCalculateEMA(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name     string
		values   []float64
		period   int
		expected []float64
	}{
		{
			name:     "seeded with SMA",
			values:   []float64{1, 2, 3, 4, 5},
			period:   3,
			expected: []float64{nan, nan, 2, 3, 4},
		},
		{
			name:     "leading NaNs skipped",
			values:   []float64{nan, 2, 4, 6},
			period:   2,
			expected: []float64{nan, nan, 3, 5},
		},
		{
			name:     "insufficient values",
			values:   []float64{nan, 2},
			period:   2,
			expected: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateEMA(tt.values, tt.period)
			if tt.expected == nil {
				assert.Nil(t, result)
				return
			}
			assertFloats(t, tt.expected, result)
		})
	}
}

func TestCalculateMACD(t *testing.T) {
	t.Run("flat prices give zero histogram", func(t *testing.T) {
		prices := make([]float64, 40)
		for i := range prices {
			prices[i] = 50
		}
		macd, signal, hist, err := CalculateMACD(prices, 12, 26, 9)
		require.NoError(t, err)
		require.Len(t, hist, 40)

		assert.True(t, math.IsNaN(hist[32]))
		for i := 33; i < 40; i++ {
			assert.InDelta(t, 0, macd[i], 1e-9)
			assert.InDelta(t, 0, signal[i], 1e-9)
			assert.InDelta(t, 0, hist[i], 1e-9)
		}
	})

	t.Run("histogram is macd minus signal", func(t *testing.T) {
		prices := make([]float64, 60)
		for i := range prices {
			prices[i] = 100 + float64(i%7) + float64(i)/3
		}
		macd, signal, hist, err := CalculateMACD(prices, 12, 26, 9)
		require.NoError(t, err)
		for i := 33; i < 60; i++ {
			assert.InDelta(t, macd[i]-signal[i], hist[i], 1e-9)
		}
	})

	t.Run("insufficient data", func(t *testing.T) {
		_, _, _, err := CalculateMACD(make([]float64, 33), 12, 26, 9)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("invalid periods", func(t *testing.T) {
		_, _, _, err := CalculateMACD(make([]float64, 100), 26, 12, 9)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrInsufficientData)
	})
}

func TestHistogramTrendBars(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name     string
		hist     []float64
		expected int
	}{
		{"two rising bars", []float64{nan, 1, 0.5, 0.7, 0.9}, 2},
		{"latest falling", []float64{0.1, 0.2, 0.3, 0.2}, 0},
		{"equal is not rising", []float64{0.1, 0.2, 0.2}, 0},
		{"stops at NaN", []float64{nan, 0.1, 0.2, 0.3}, 2},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HistogramTrendBars(tt.hist))
		})
	}
}

func TestCalculateATR(t *testing.T) {
	nan := math.NaN()
	highs := []float64{10, 11, 12, 13}
	lows := []float64{9, 10, 11, 12}
	closes := []float64{9.5, 10.5, 11.5, 12.5}

	assertFloats(t, []float64{1, 1.5, 1.5, 1.5}, CalculateTrueRange(highs, lows, closes))
	assertFloats(t, []float64{nan, nan, 1.5, 1.5}, CalculateATR(highs, lows, closes, 2))
	assert.Nil(t, CalculateATR(highs[:2], lows[:2], closes[:2], 2))
}

func TestCalculateADX(t *testing.T) {
	t.Run("steady uptrend is fully directional", func(t *testing.T) {
		highs := []float64{10, 11, 12, 13, 14, 15}
		lows := []float64{9, 10, 11, 12, 13, 14}
		closes := []float64{9.5, 10.5, 11.5, 12.5, 13.5, 14.5}

		adx := CalculateADX(highs, lows, closes, 2)
		require.Len(t, adx, 6)
		for i := 0; i < 3; i++ {
			assert.True(t, math.IsNaN(adx[i]))
		}
		for i := 3; i < 6; i++ {
			assert.InDelta(t, 100, adx[i], 1e-9)
		}
	})

	t.Run("no movement", func(t *testing.T) {
		flat := []float64{10, 10, 10, 10}
		adx := CalculateADX(flat, flat, flat, 2)
		assert.InDelta(t, 0, adx[3], 1e-9)
	})

	t.Run("insufficient data", func(t *testing.T) {
		assert.Nil(t, CalculateADX([]float64{1, 2, 3}, []float64{1, 2, 3}, []float64{1, 2, 3}, 2))
	})
}

func TestVolume(t *testing.T) {
	ratio, mean, ok := VolumeRatio([]float64{100, 100, 100, 200}, 4)
	assert.True(t, ok)
	assert.InDelta(t, 125, mean, 1e-9)
	assert.InDelta(t, 1.6, ratio, 1e-9)

	_, _, ok = VolumeRatio([]float64{0, 0, 0}, 3)
	assert.False(t, ok, "zero mean volume is unavailable")

	_, _, ok = VolumeRatio([]float64{1, 2}, 3)
	assert.False(t, ok)

	assert.True(t, VolumeRising([]float64{5, 1, 2, 3, 4}, 3))
	assert.False(t, VolumeRising([]float64{1, 3, 2, 4}, 3))
	assert.False(t, VolumeRising([]float64{1, 2, 2, 3}, 3))
	assert.False(t, VolumeRising([]float64{1, 2, 3}, 3))
}

func TestHighest(t *testing.T) {
	values := []float64{5, 9, 3, 4, 6}
	assert.Equal(t, 6.0, Highest(values, 2))
	assert.Equal(t, 9.0, Highest(values, 4))
	assert.Equal(t, 9.0, Highest(values, 100))
	assert.True(t, math.IsNaN(Highest(nil, 3)))
}

func TestOptions(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.Validate())
	assert.Equal(t, 50, opts.RequiredBars())

	opts.VolumeRisingDays = 0
	opts.EMAFast = 30
	err := opts.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "volume_rising_days")
	assert.Contains(t, err.Error(), "ema_fast")
}

func uptrend(n int) (closes, volumes []float64) {
	closes = make([]float64, n)
	volumes = make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 100 + float64(i)*0.5 + float64(i%3)*0.4
		volumes[i] = 1_000_000 + float64(i)*10_000
	}
	return closes, volumes
}

func TestCompute(t *testing.T) {
	opts := DefaultOptions()

	t.Run("uptrend", func(t *testing.T) {
		closes, volumes := uptrend(80)
		series := createTestSeries(t, "AAPL", closes, volumes)

		set, err := Compute(series, opts)
		require.NoError(t, err)

		assert.Equal(t, "AAPL", set.Symbol)
		assert.Equal(t, series.Last().Timestamp, set.Time)
		assert.Equal(t, closes[79], set.Close)
		assert.GreaterOrEqual(t, set.RSI, 0.0)
		assert.LessOrEqual(t, set.RSI, 100.0)
		assert.GreaterOrEqual(t, set.ATR, 0.0)
		assert.True(t, set.TrendIntact())
		assert.True(t, set.VolumeRising)
		assert.Greater(t, set.VolumeRatio, 1.0)
		assert.InDelta(t, set.MACD-set.MACDSignal, set.MACDHist, 1e-9)
		assert.Equal(t, closes[79]+1, set.PivotHigh)
		assert.InDelta(t, RollingMean(series.DollarVolumes(), 20), set.AvgDollarVolume, 1e-6)
	})

	t.Run("deterministic", func(t *testing.T) {
		closes, volumes := uptrend(70)
		series := createTestSeries(t, "MSFT", closes, volumes)

		first, err := Compute(series, opts)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := Compute(series, opts)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})

	t.Run("minimum window", func(t *testing.T) {
		closes, volumes := uptrend(50)
		_, err := Compute(createTestSeries(t, "X", closes, volumes), opts)
		assert.NoError(t, err)
	})

	t.Run("insufficient bars", func(t *testing.T) {
		closes, volumes := uptrend(49)
		_, err := Compute(createTestSeries(t, "X", closes, volumes), opts)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("zero volume", func(t *testing.T) {
		closes, _ := uptrend(60)
		_, err := Compute(createTestSeries(t, "X", closes, make([]float64, 60)), opts)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("falling prices", func(t *testing.T) {
		closes := make([]float64, 60)
		volumes := make([]float64, 60)
		for i := range closes {
			closes[i] = 200 - float64(i)
			volumes[i] = 500_000
		}
		set, err := Compute(createTestSeries(t, "X", closes, volumes), opts)
		require.NoError(t, err)
		assert.False(t, set.TrendIntact())
		assert.InDelta(t, 0, set.RSI, 1e-9)
		assert.Equal(t, SlopeFlat, set.RSISlope)
		assert.False(t, set.VolumeRising)
		assert.InDelta(t, 1.0, set.VolumeRatio, 1e-9)
	})
}

func TestSet_MACDBullish(t *testing.T) {
	tests := []struct {
		name     string
		set      Set
		expected bool
	}{
		{"positive histogram", Set{MACDHist: 0.2, PrevMACDHist: 0.1}, true},
		{"fresh crossover", Set{MACD: 1, MACDSignal: 1, MACDHist: 0, PrevMACDHist: -0.3}, true},
		{"negative histogram", Set{MACD: -1, MACDSignal: -0.5, MACDHist: -0.5, PrevMACDHist: -0.6}, false},
		{"zero without crossover", Set{MACD: 1, MACDSignal: 1, MACDHist: 0, PrevMACDHist: 0.2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.set.MACDBullish())
		})
	}
}
