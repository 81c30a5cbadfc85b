// Package strategy turns a symbol's bar window into a Stage-1 momentum signal.
package strategy

import (
	"github.com/amirphl/swing-scanner/internal/config"
	"github.com/amirphl/swing-scanner/internal/indicator"
	"github.com/amirphl/swing-scanner/internal/risk"
)

// Options is the immutable Stage-1 configuration.
type Options struct {
	Indicators        indicator.Options
	RSIMin            float64
	RSIMax            float64
	ADXMin            float64
	MinPrice          float64
	MinDollarVolume   float64
	MACDRisingBars    int
	VolumeBreakout    float64
	BreakoutNearPct   float64
	BreakoutWithinPct float64
	Weights           config.Weights
	ScoreThreshold    float64
	Risk              risk.Params
	PatternBars       int
}

// NewOptions derives Stage-1 options from the loaded configuration.
func NewOptions(cfg *config.Config) Options {
	s := cfg.Strategy
	return Options{
		Indicators:        IndicatorOptions(cfg),
		RSIMin:            s.RSIBand.Min,
		RSIMax:            s.RSIBand.Max,
		ADXMin:            s.ADXMin,
		MinPrice:          s.MinPrice,
		MinDollarVolume:   s.MinDollarVolume20d,
		MACDRisingBars:    s.MACDHistogramRisingBars,
		VolumeBreakout:    s.VolumeBreakoutMultiplier,
		BreakoutNearPct:   s.BreakoutNearPct,
		BreakoutWithinPct: s.BreakoutWithinPct,
		Weights:           s.Weights,
		ScoreThreshold:    s.ScoreThreshold,
		Risk: risk.Params{
			StopMultiplier: cfg.Risk.StopMultiplier,
			TargetPct:      cfg.Risk.FixedTargetPct,
			MinRR:          cfg.Risk.Stage1MinRR,
		},
		PatternBars: s.PatternBars,
	}
}

// IndicatorOptions maps the configured periods onto the indicator engine.
func IndicatorOptions(cfg *config.Config) indicator.Options {
	s := cfg.Strategy
	opts := indicator.DefaultOptions()
	opts.RSIPeriod = s.RSIPeriod
	opts.RSISlopeEpsilon = s.RSISlopeEpsilon
	opts.EMAFast = s.EMAFast
	opts.EMASlow = s.EMASlow
	opts.SMATrend = s.SMATrend
	opts.MACDFast = s.MACD.Fast
	opts.MACDSlow = s.MACD.Slow
	opts.MACDSignal = s.MACD.Signal
	opts.ATRPeriod = cfg.Risk.ATRWindow
	opts.ADXPeriod = s.ADXPeriod
	opts.VolumeWindow = s.VolumeWindow
	opts.VolumeRisingDays = cfg.Actionable.Technical.AllowVolumeRisingDays
	opts.PivotLookback = s.PivotLookback
	opts.DollarVolumeWindow = 20
	return opts
}

// DefaultOptions is NewOptions over config.Default.
func DefaultOptions() Options {
	return NewOptions(config.Default())
}
