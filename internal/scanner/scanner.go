// Package scanner runs one end-of-day scan: fetch, per-symbol Stage 1,
// ranking and Stage 2.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/amirphl/swing-scanner/internal/actionable"
	"github.com/amirphl/swing-scanner/internal/candle"
	"github.com/amirphl/swing-scanner/internal/config"
	"github.com/amirphl/swing-scanner/internal/metrics"
	"github.com/amirphl/swing-scanner/internal/provider"
	"github.com/amirphl/swing-scanner/internal/readiness"
	"github.com/amirphl/swing-scanner/internal/strategy"
	"github.com/amirphl/swing-scanner/internal/strategy/signal"
	"github.com/amirphl/swing-scanner/internal/utils"
)

var ErrEmptyUniverse = errors.New("no symbols to scan")

// Unavailable is a symbol excluded for lack of usable data.
type Unavailable struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// Result is everything one scan produced. It is built once and never
// modified afterwards.
type Result struct {
	ScanID           uuid.UUID                 `json:"scan_id"`
	Timestamp        time.Time                 `json:"scan_timestamp"`
	Universe         []string                  `json:"universe"`
	Provider         string                    `json:"provider"`
	Interval         string                    `json:"interval"`
	ScannedCount     int                       `json:"scanned_count"`
	Unavailable      []Unavailable             `json:"unavailable"`
	Signals          []signal.Signal           `json:"signals"`
	PassedCount      int                       `json:"passed_count"`
	Stage2Applied    bool                      `json:"stage2_applied"`
	Actionable       []signal.ActionableSignal `json:"actionable"`
	Rejected         []signal.RejectedSignal   `json:"rejected"`
	Outcomes         map[strategy.Outcome]int  `json:"outcomes"`
	Summary          Summary                   `json:"summary"`
	LastBarTimestamp time.Time                 `json:"last_bar_timestamp,omitzero"`
	Readiness        *readiness.Result         `json:"readiness,omitempty"`
}

// Options is the scan-level configuration.
type Options struct {
	Interval  string
	Lookback  int
	BatchSize int
	Workers   int
	TopN      int
}

func NewOptions(cfg *config.Config) Options {
	return Options{
		Interval:  cfg.Data.Interval,
		Lookback:  cfg.Data.LookbackDays,
		BatchSize: cfg.Data.BatchSize,
		Workers:   cfg.Scan.Workers,
		TopN:      cfg.Strategy.TopN,
	}
}

type Scanner struct {
	opts      Options
	provider  provider.Provider
	generator *strategy.Generator
	filter    *actionable.Filter
	readiness *readiness.Checker
	metrics   *metrics.Metrics
	now       func() time.Time
	log       zerolog.Logger
}

// New validates cfg and wires a Scanner. m may be nil.
func New(cfg *config.Config, p provider.Provider, m *metrics.Metrics) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stage1 := strategy.NewOptions(cfg)
	if err := stage1.Indicators.Validate(); err != nil {
		return nil, fmt.Errorf("indicator options: %w", err)
	}
	checker, err := readiness.NewChecker(cfg)
	if err != nil {
		return nil, err
	}

	return &Scanner{
		opts:      NewOptions(cfg),
		provider:  p,
		generator: strategy.NewGenerator(stage1),
		filter:    actionable.NewFilter(actionable.NewOptions(cfg), stage1.Indicators),
		readiness: checker,
		metrics:   m,
		now:       time.Now,
		log:       utils.Component("Scanner"),
	}, nil
}

// Scan runs the whole pipeline over symbols. Only a cancelled context or an
// empty universe fail the scan; everything else degrades to per-symbol
// unavailability.
func (s *Scanner) Scan(ctx context.Context, symbols []string) (res *Result, err error) {
	started := s.now()
	defer func() {
		s.metrics.ObserveScan(s.now().Sub(started), started, err)
	}()

	symbols = provider.NormalizeSymbols(symbols)
	if len(symbols) == 0 {
		return nil, ErrEmptyUniverse
	}
	s.log.Info().Int("symbols", len(symbols)).Str("provider", s.provider.Name()).Msg("Starting scan")

	series, unavailable, err := s.fetch(ctx, symbols)
	if err != nil {
		return nil, err
	}

	results := s.evaluate(symbols, series)

	res = &Result{
		ScanID:       uuid.New(),
		Timestamp:    started.UTC(),
		Universe:     symbols,
		Provider:     s.provider.Name(),
		Interval:     s.opts.Interval,
		ScannedCount: len(symbols),
		Outcomes:     make(map[strategy.Outcome]int),
		Actionable:   []signal.ActionableSignal{},
		Rejected:     []signal.RejectedSignal{},
	}

	var passed []signal.Signal
	for _, r := range results {
		res.Outcomes[r.Outcome]++
		s.metrics.ObserveOutcome(string(r.Outcome))
		switch r.Outcome {
		case strategy.OutcomeSignal:
			passed = append(passed, *r.Signal)
		case strategy.OutcomeUnavailable:
			reason := "data unavailable"
			if len(r.Reasons) > 0 {
				reason = r.Reasons[0]
			}
			if _, ok := unavailable[r.Symbol]; !ok {
				unavailable[r.Symbol] = reason
			}
			s.log.Debug().Str("symbol", r.Symbol).Str("reason", reason).Msg("Data unavailable")
		default:
			s.log.Debug().Str("symbol", r.Symbol).Str("outcome", string(r.Outcome)).Strs("reasons", r.Reasons).Msg("No signal")
		}
	}
	for _, sym := range symbols {
		if reason, ok := unavailable[sym]; ok {
			res.Unavailable = append(res.Unavailable, Unavailable{Symbol: sym, Reason: reason})
		}
	}

	res.PassedCount = len(passed)
	res.Signals = Rank(passed, s.opts.TopN)
	res.Summary = Summarize(res.Signals)
	s.log.Info().
		Int("passed", res.PassedCount).
		Int("ranked", len(res.Signals)).
		Int("unavailable", len(res.Unavailable)).
		Msg("Stage 1 complete")

	if s.filter.Enabled() && len(res.Signals) > 0 {
		fresh := s.freshWindows(ctx, res.Signals)
		res.Actionable, res.Rejected = s.filter.Apply(res.Signals, fresh)
		res.Stage2Applied = true
		s.metrics.ObserveStage2(len(res.Actionable), len(res.Rejected))
		s.log.Info().Int("actionable", len(res.Actionable)).Int("rejected", len(res.Rejected)).Msg("Stage 2 complete")
	} else if s.filter.Enabled() {
		res.Stage2Applied = true
	}

	for _, ser := range series {
		if ser.Len() == 0 {
			continue
		}
		if ts := ser.Last().Timestamp; ts.After(res.LastBarTimestamp) {
			res.LastBarTimestamp = ts
		}
	}
	ready := s.readiness.Check(s.now(), res.LastBarTimestamp)
	res.Readiness = &ready
	s.log.Info().Str("status", string(ready.Status)).Msg(ready.Message)

	return res, nil
}

// fetch pulls bars in chunks of BatchSize. A failed chunk marks its symbols
// unavailable and the scan goes on.
func (s *Scanner) fetch(ctx context.Context, symbols []string) (map[string]candle.Series, map[string]string, error) {
	started := s.now()
	lookback := max(s.opts.Lookback, s.generator.RequiredBars())
	series := make(map[string]candle.Series, len(symbols))
	unavailable := make(map[string]string)
	failed := 0

	chunks := chunk(symbols, s.opts.BatchSize)
	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		bars, err := s.provider.GetBarsBatch(ctx, c, s.opts.Interval, lookback)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			failed++
			s.log.Error().Err(err).Int("chunk", i+1).Int("chunks", len(chunks)).Msg("Failed to fetch chunk")
			for _, sym := range c {
				unavailable[sym] = "fetch failed: " + err.Error()
			}
			continue
		}
		for _, sym := range c {
			cs := bars[sym]
			if len(cs) == 0 {
				unavailable[sym] = "no bars returned"
				continue
			}
			ser, err := candle.NewSeries(sym, cs)
			if err != nil {
				unavailable[sym] = err.Error()
				continue
			}
			series[sym] = ser
		}
	}

	s.metrics.ObserveFetch(s.now().Sub(started), failed)
	return series, unavailable, nil
}

// evaluate runs Stage 1 for every symbol on a bounded pool. Each worker
// writes only its own slot, so the output order is the input order.
func (s *Scanner) evaluate(symbols []string, series map[string]candle.Series) []strategy.Result {
	results := make([]strategy.Result, len(symbols))
	sem := make(chan struct{}, max(1, s.opts.Workers))
	var wg sync.WaitGroup

	for i, sym := range symbols {
		ser, ok := series[sym]
		if !ok {
			results[i] = strategy.Result{Symbol: sym, Outcome: strategy.OutcomeUnavailable}
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, ser candle.Series) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.generator.Generate(ser)
		}(i, ser)
	}
	wg.Wait()
	return results
}

// freshWindows re-fetches the ranked symbols so Stage 2 can recheck the
// trend on the newest bars. On failure Stage 2 uses the signal snapshots.
func (s *Scanner) freshWindows(ctx context.Context, signals []signal.Signal) map[string]candle.Series {
	symbols := make([]string, len(signals))
	for i, sig := range signals {
		symbols[i] = sig.Symbol
	}

	lookback := max(s.opts.Lookback, s.generator.RequiredBars())
	bars, err := s.provider.GetBarsBatch(ctx, symbols, s.opts.Interval, lookback)
	if err != nil {
		s.log.Warn().Err(err).Msg("Could not refresh bars for Stage 2, using signal snapshots")
		return nil
	}

	fresh := make(map[string]candle.Series, len(bars))
	for sym, cs := range bars {
		ser, err := candle.NewSeries(sym, cs)
		if err != nil || ser.Len() == 0 {
			continue
		}
		fresh[sym] = ser
	}
	return fresh
}

func chunk(symbols []string, size int) [][]string {
	if size <= 0 {
		size = len(symbols)
	}
	var out [][]string
	for start := 0; start < len(symbols); start += size {
		end := min(start+size, len(symbols))
		out = append(out, symbols[start:end])
	}
	return out
}
