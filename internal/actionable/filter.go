// Package actionable applies the stricter second-stage rules to Stage-1
// signals and sizes the ones that survive.
package actionable

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/amirphl/swing-scanner/internal/candle"
	"github.com/amirphl/swing-scanner/internal/config"
	"github.com/amirphl/swing-scanner/internal/indicator"
	"github.com/amirphl/swing-scanner/internal/position"
	"github.com/amirphl/swing-scanner/internal/strategy/signal"
	"github.com/amirphl/swing-scanner/internal/utils"
)

const (
	NoteHighScore         = "high score"
	NoteRSIRising         = "RSI rising"
	NoteConfirmedMomentum = "confirmed momentum"
	NoteHighRR            = "high R/R"
	NoteVolumeBreakout    = "volume breakout"

	highScore         = 80.0
	highRR            = 3.0
	confirmedBars     = 2
	volumeBreakoutMul = 1.5
)

type Options struct {
	Enabled                    bool
	MinRR                      float64
	RequireRSISlopeNonNegative bool
	MinVolumeRatio             float64
	VolumeRisingDays           int
	ATRMin                     float64
	MustHoldTrend              bool
	MinPrice                   float64
	MinAvgDollarVolume         float64
	Account                    position.RiskParams
}

func NewOptions(cfg *config.Config) Options {
	a := cfg.Actionable
	return Options{
		Enabled:                    a.Enabled,
		MinRR:                      a.Technical.MinRR,
		RequireRSISlopeNonNegative: a.Technical.RequireRSISlopeNonNegative,
		MinVolumeRatio:             a.Technical.MinVolumeRatio,
		VolumeRisingDays:           a.Technical.AllowVolumeRisingDays,
		ATRMin:                     a.Technical.ATRMin,
		MustHoldTrend:              a.Technical.MustHoldTrend,
		MinPrice:                   a.Liquidity.MinPrice,
		MinAvgDollarVolume:         a.Liquidity.MinAvgDollarVolume20d,
		Account: position.RiskParams{
			AccountSize: a.Risk.AccountSize,
			RiskPercent: a.Risk.RiskPercentPerTrade,
		},
	}
}

// Decision is the Stage-2 verdict for one signal. The signal is actionable
// exactly when Reasons is empty.
type Decision struct {
	Reasons []string
	Notes   []string
	Sizing  position.Sizing
}

func (d Decision) Actionable() bool { return len(d.Reasons) == 0 }

type Filter struct {
	opts       Options
	indicators indicator.Options
	log        zerolog.Logger
}

// NewFilter returns a Filter. ind is used to recompute the trend from a fresh
// bar window when one is supplied.
func NewFilter(opts Options, ind indicator.Options) *Filter {
	return &Filter{opts: opts, indicators: ind, log: utils.Component("Actionable")}
}

func (f *Filter) Enabled() bool { return f.opts.Enabled }

// Evaluate checks every rule and accumulates all failures in rule order.
// fresh, when non-nil, is the latest bar window for the trend recheck.
func (f *Filter) Evaluate(sig signal.Signal, fresh *candle.Series) Decision {
	var reasons []string
	set := sig.Indicators

	if sig.RiskReward < f.opts.MinRR {
		reasons = append(reasons, fmt.Sprintf("R/R %.2f < %.2f", sig.RiskReward, f.opts.MinRR))
	}

	if f.opts.RequireRSISlopeNonNegative && set.RSISlope == indicator.SlopeFalling {
		reasons = append(reasons, fmt.Sprintf("RSI slope falling (%.1f -> %.1f)", set.PrevRSI, set.RSI))
	}

	if set.VolumeRatio < f.opts.MinVolumeRatio && !set.VolumeRising {
		reasons = append(reasons, fmt.Sprintf("volume %.2fx < %.2fx and not rising %dd",
			set.VolumeRatio, f.opts.MinVolumeRatio, f.opts.VolumeRisingDays))
	}

	if set.ATR < f.opts.ATRMin {
		reasons = append(reasons, fmt.Sprintf("ATR %.2f < %.2f (low volatility)", set.ATR, f.opts.ATRMin))
	}

	if f.opts.MustHoldTrend {
		reasons = append(reasons, trendReasons(f.trendSet(sig, fresh))...)
	}

	if sig.EntryPrice < f.opts.MinPrice {
		reasons = append(reasons, fmt.Sprintf("price $%.2f < $%.2f", sig.EntryPrice, f.opts.MinPrice))
	}
	if set.AvgDollarVolume < f.opts.MinAvgDollarVolume {
		reasons = append(reasons, fmt.Sprintf("dollar volume $%.0f < $%.0f", set.AvgDollarVolume, f.opts.MinAvgDollarVolume))
	}

	sizing, err := position.Size(sig.EntryPrice, sig.Stop, sig.Target, f.opts.Account)
	switch {
	case errors.Is(err, position.ErrNonPositiveRisk):
		reasons = append(reasons, position.ErrNonPositiveRisk.Error())
	case errors.Is(err, position.ErrBelowOneShare):
		reasons = append(reasons, position.ErrBelowOneShare.Error())
	}

	d := Decision{Reasons: reasons, Sizing: sizing}
	if d.Actionable() {
		d.Notes = Notes(sig)
	}
	return d
}

// trendSet returns the indicator set the trend rule is checked against.
func (f *Filter) trendSet(sig signal.Signal, fresh *candle.Series) indicator.Set {
	if fresh == nil {
		return sig.Indicators
	}
	set, err := indicator.Compute(*fresh, f.indicators)
	if err != nil {
		f.log.Warn().Str("symbol", sig.Symbol).Err(err).Msg("Trend recheck | falling back to signal snapshot")
		return sig.Indicators
	}
	return set
}

func trendReasons(set indicator.Set) []string {
	var out []string
	if set.Close <= set.SMATrend {
		out = append(out, fmt.Sprintf("trend: close %.2f not above SMA %.2f", set.Close, set.SMATrend))
	}
	if set.EMAFast <= set.EMASlow {
		out = append(out, fmt.Sprintf("trend: EMA fast %.2f not above EMA slow %.2f", set.EMAFast, set.EMASlow))
	}
	return out
}

// Notes are informational badges in a fixed order; they never affect the
// verdict.
func Notes(sig signal.Signal) []string {
	notes := []string{}
	if sig.Score >= highScore {
		notes = append(notes, NoteHighScore)
	}
	if sig.Indicators.RSISlope == indicator.SlopeRising {
		notes = append(notes, NoteRSIRising)
	}
	if sig.Indicators.MACDHistTrendBars >= confirmedBars {
		notes = append(notes, NoteConfirmedMomentum)
	}
	if sig.RiskReward >= highRR {
		notes = append(notes, NoteHighRR)
	}
	if sig.Indicators.VolumeRatio >= volumeBreakoutMul {
		notes = append(notes, NoteVolumeBreakout)
	}
	return notes
}

// Apply evaluates signals in order. The returned lists keep that order.
// fresh maps symbols to their latest bar windows and may be nil.
func (f *Filter) Apply(signals []signal.Signal, fresh map[string]candle.Series) ([]signal.ActionableSignal, []signal.RejectedSignal) {
	actionable := []signal.ActionableSignal{}
	rejected := []signal.RejectedSignal{}

	for _, sig := range signals {
		var window *candle.Series
		if s, ok := fresh[sig.Symbol]; ok {
			window = &s
		}

		d := f.Evaluate(sig, window)
		if !d.Actionable() {
			f.log.Debug().Str("symbol", sig.Symbol).Strs("reasons", d.Reasons).Msg("Rejected")
			rejected = append(rejected, signal.RejectedSignal{Signal: sig, Reasons: d.Reasons})
			continue
		}

		f.log.Info().
			Str("symbol", sig.Symbol).
			Int("size", d.Sizing.Size).
			Float64("risk", d.Sizing.RiskDollars).
			Float64("reward", d.Sizing.RewardDollars).
			Msg("Actionable")
		actionable = append(actionable, signal.ActionableSignal{
			Signal:        sig,
			PositionSize:  d.Sizing.Size,
			RiskDollars:   d.Sizing.RiskDollars,
			RewardDollars: d.Sizing.RewardDollars,
			Notes:         d.Notes,
		})
	}
	return actionable, rejected
}
