package strategy

import (
	"errors"
	"fmt"

	"github.com/amirphl/swing-scanner/internal/candle"
	"github.com/amirphl/swing-scanner/internal/indicator"
	"github.com/amirphl/swing-scanner/internal/pattern"
	"github.com/amirphl/swing-scanner/internal/risk"
	"github.com/amirphl/swing-scanner/internal/strategy/signal"
)

// Outcome classifies what Stage 1 produced for a symbol.
type Outcome string

const (
	OutcomeSignal         Outcome = "signal"
	OutcomeUnavailable    Outcome = "data_unavailable"
	OutcomeGateFailed     Outcome = "gate_failed"
	OutcomeBelowThreshold Outcome = "below_threshold"
	OutcomeRiskRejected   Outcome = "risk_rejected"
)

// Result is the Stage-1 verdict for one symbol. Signal is set only for
// OutcomeSignal; Reasons explains every other outcome.
type Result struct {
	Symbol     string
	Outcome    Outcome
	Signal     *signal.Signal
	Indicators *indicator.Set
	Score      float64
	Reasons    []string
	Err        error
}

// Generator runs indicators, scorer and risk calculator for one symbol. It
// holds no mutable state and is safe for concurrent use.
type Generator struct {
	opts   Options
	scorer *Scorer
}

func NewGenerator(opts Options) *Generator {
	return &Generator{opts: opts, scorer: NewScorer(opts)}
}

func (g *Generator) Options() Options { return g.opts }

// RequiredBars is the shortest window Generate accepts.
func (g *Generator) RequiredBars() int { return g.opts.Indicators.RequiredBars() }

// Generate evaluates the latest bar of series.
func (g *Generator) Generate(series candle.Series) Result {
	res := Result{Symbol: series.Symbol()}

	set, err := indicator.Compute(series, g.opts.Indicators)
	if err != nil {
		res.Outcome = OutcomeUnavailable
		res.Err = err
		res.Reasons = []string{err.Error()}
		return res
	}
	res.Indicators = &set

	if failed := g.scorer.Gate(set); len(failed) > 0 {
		res.Outcome = OutcomeGateFailed
		res.Reasons = failed
		return res
	}

	score, breakdown := g.scorer.Score(set)
	res.Score = score
	if score <= g.opts.ScoreThreshold {
		res.Outcome = OutcomeBelowThreshold
		res.Reasons = []string{fmt.Sprintf("score %.1f not above %.1f", score, g.opts.ScoreThreshold)}
		return res
	}

	levels, err := risk.Calculate(set.Close, set.ATR, g.opts.Risk)
	if err != nil {
		res.Outcome = OutcomeRiskRejected
		res.Err = err
		res.Reasons = []string{err.Error()}
		if errors.Is(err, risk.ErrATRUnavailable) {
			res.Outcome = OutcomeUnavailable
		}
		return res
	}

	res.Outcome = OutcomeSignal
	res.Signal = &signal.Signal{
		Symbol:      set.Symbol,
		Time:        set.Time,
		EntryPrice:  levels.Entry,
		Score:       score,
		Breakdown:   breakdown,
		Indicators:  set,
		Stop:        levels.Stop,
		Target:      levels.Target,
		RiskReward:  levels.RiskReward,
		StopBasis:   levels.StopBasis,
		TargetBasis: levels.TargetBasis,
	}
	if g.opts.PatternBars > 0 {
		res.Signal.Patterns = pattern.Recent(series.Candles(), g.opts.PatternBars, pattern.Bullish)
	}
	return res
}
