// Package indicator computes the technical indicator snapshot used to score a
// symbol. Every function here is a pure function of its input slices.
package indicator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/amirphl/swing-scanner/internal/candle"
)

// ErrInsufficientData marks a symbol whose bar window cannot produce a full
// indicator set. Callers treat it as data-unavailable, not as a failure.
var ErrInsufficientData = errors.New("insufficient data")

// Options holds indicator periods.
type Options struct {
	RSIPeriod          int
	RSISlopeEpsilon    float64
	EMAFast            int
	EMASlow            int
	SMATrend           int
	MACDFast           int
	MACDSlow           int
	MACDSignal         int
	ATRPeriod          int
	ADXPeriod          int
	VolumeWindow       int
	VolumeRisingDays   int
	PivotLookback      int
	DollarVolumeWindow int
}

func DefaultOptions() Options {
	return Options{
		RSIPeriod:          14,
		RSISlopeEpsilon:    0.5,
		EMAFast:            9,
		EMASlow:            21,
		SMATrend:           50,
		MACDFast:           12,
		MACDSlow:           26,
		MACDSignal:         9,
		ATRPeriod:          14,
		ADXPeriod:          14,
		VolumeWindow:       20,
		VolumeRisingDays:   3,
		PivotLookback:      20,
		DollarVolumeWindow: 20,
	}
}

// Validate checks that every period is usable.
func (o Options) Validate() error {
	periods := []struct {
		name  string
		value int
	}{
		{"rsi_period", o.RSIPeriod},
		{"ema_fast", o.EMAFast},
		{"ema_slow", o.EMASlow},
		{"sma_trend", o.SMATrend},
		{"macd_fast", o.MACDFast},
		{"macd_slow", o.MACDSlow},
		{"macd_signal", o.MACDSignal},
		{"atr_period", o.ATRPeriod},
		{"adx_period", o.ADXPeriod},
		{"volume_window", o.VolumeWindow},
		{"volume_rising_days", o.VolumeRisingDays},
		{"pivot_lookback", o.PivotLookback},
		{"dollar_volume_window", o.DollarVolumeWindow},
	}
	var errs []error
	for _, p := range periods {
		if p.value < 1 {
			errs = append(errs, fmt.Errorf("%s must be >= 1, got %d", p.name, p.value))
		}
	}
	if o.EMAFast >= o.EMASlow {
		errs = append(errs, fmt.Errorf("ema_fast (%d) must be < ema_slow (%d)", o.EMAFast, o.EMASlow))
	}
	if o.MACDFast >= o.MACDSlow {
		errs = append(errs, fmt.Errorf("macd_fast (%d) must be < macd_slow (%d)", o.MACDFast, o.MACDSlow))
	}
	if o.RSISlopeEpsilon < 0 {
		errs = append(errs, fmt.Errorf("rsi_slope_epsilon must be >= 0, got %v", o.RSISlopeEpsilon))
	}
	return errors.Join(errs...)
}

// RequiredBars is the minimum window length that yields a complete Set.
// With default options the trend SMA dominates at 50 bars.
func (o Options) RequiredBars() int {
	return max(
		o.SMATrend,
		o.EMASlow,
		o.MACDSlow+o.MACDSignal, // one extra bar for the previous histogram
		2*o.ADXPeriod,
		o.ATRPeriod+1,
		o.RSIPeriod+2, // previous RSI for the slope
		o.VolumeWindow,
		o.VolumeRisingDays+1,
		o.PivotLookback,
		o.DollarVolumeWindow,
	)
}

// Set is the indicator snapshot of one symbol at its latest bar.
type Set struct {
	Symbol            string    `json:"symbol"`
	Time              time.Time `json:"last_bar_time"`
	Close             float64   `json:"close"`
	Volume            float64   `json:"volume"`
	SMATrend          float64   `json:"sma_trend"`
	EMAFast           float64   `json:"ema_fast"`
	EMASlow           float64   `json:"ema_slow"`
	RSI               float64   `json:"rsi"`
	PrevRSI           float64   `json:"prev_rsi"`
	RSISlope          Slope     `json:"rsi_slope"`
	MACD              float64   `json:"macd"`
	MACDSignal        float64   `json:"macd_signal"`
	MACDHist          float64   `json:"macd_hist"`
	PrevMACDHist      float64   `json:"prev_macd_hist"`
	MACDHistTrendBars int       `json:"macd_hist_trend_bars"`
	ATR               float64   `json:"atr"`
	ADX               float64   `json:"adx"`
	VolumeAvg         float64   `json:"volume_avg"`
	VolumeRatio       float64   `json:"volume_ratio"`
	VolumeRising      bool      `json:"volume_rising"`
	AvgDollarVolume   float64   `json:"avg_dollar_volume"`
	PivotHigh         float64   `json:"pivot_high"`
}

// TrendIntact reports close above the trend SMA and the fast EMA above the slow.
func (s Set) TrendIntact() bool {
	return s.Close > s.SMATrend && s.EMAFast > s.EMASlow
}

// MACDBullish is true for a positive histogram or a fresh crossover where the
// histogram moved from <= 0 to >= 0 with MACD at or above its signal.
func (s Set) MACDBullish() bool {
	if s.MACDHist > 0 {
		return true
	}
	return s.PrevMACDHist <= 0 && s.MACDHist >= 0 && s.MACD >= s.MACDSignal
}

// Compute derives the indicator Set for the latest bar of series.
func Compute(series candle.Series, opts Options) (Set, error) {
	need := opts.RequiredBars()
	if series.Len() < need {
		return Set{}, fmt.Errorf("%w: %s has %d bars, need %d", ErrInsufficientData, series.Symbol(), series.Len(), need)
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()
	n := len(closes)

	rsi := CalculateRSI(closes, opts.RSIPeriod)
	macdLine, macdSignal, hist, err := CalculateMACD(closes, opts.MACDFast, opts.MACDSlow, opts.MACDSignal)
	if err != nil {
		return Set{}, fmt.Errorf("%s: %w", series.Symbol(), err)
	}

	ratio, volAvg, ok := VolumeRatio(volumes, opts.VolumeWindow)
	if !ok {
		return Set{}, fmt.Errorf("%w: %s has zero average volume", ErrInsufficientData, series.Symbol())
	}

	latest := series.Last()
	set := Set{
		Symbol:            series.Symbol(),
		Time:              latest.Timestamp,
		Close:             latest.Close,
		Volume:            latest.Volume,
		SMATrend:          last(CalculateSMA(closes, opts.SMATrend)),
		EMAFast:           last(CalculateEMA(closes, opts.EMAFast)),
		EMASlow:           last(CalculateEMA(closes, opts.EMASlow)),
		RSI:               rsi[n-1],
		PrevRSI:           rsi[n-2],
		MACD:              macdLine[n-1],
		MACDSignal:        macdSignal[n-1],
		MACDHist:          hist[n-1],
		PrevMACDHist:      hist[n-2],
		MACDHistTrendBars: HistogramTrendBars(hist),
		ATR:               last(CalculateATR(highs, lows, closes, opts.ATRPeriod)),
		ADX:               last(CalculateADX(highs, lows, closes, opts.ADXPeriod)),
		VolumeAvg:         volAvg,
		VolumeRatio:       ratio,
		VolumeRising:      VolumeRising(volumes, opts.VolumeRisingDays),
		AvgDollarVolume:   RollingMean(series.DollarVolumes(), opts.DollarVolumeWindow),
		PivotHigh:         Highest(highs, opts.PivotLookback),
	}
	set.RSISlope = ClassifySlope(set.PrevRSI, set.RSI, opts.RSISlopeEpsilon)

	for _, f := range []struct {
		name  string
		value float64
	}{
		{"sma", set.SMATrend},
		{"ema_fast", set.EMAFast},
		{"ema_slow", set.EMASlow},
		{"rsi", set.RSI},
		{"prev_rsi", set.PrevRSI},
		{"macd_hist", set.MACDHist},
		{"prev_macd_hist", set.PrevMACDHist},
		{"atr", set.ATR},
		{"adx", set.ADX},
		{"avg_dollar_volume", set.AvgDollarVolume},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return Set{}, fmt.Errorf("%w: %s %s unavailable", ErrInsufficientData, series.Symbol(), f.name)
		}
	}
	return set, nil
}
