package provider

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/amirphl/swing-scanner/internal/candle"
	"github.com/amirphl/swing-scanner/internal/utils"
)

// Fallback asks the secondary provider for every symbol the primary did not
// return, including all of them when the primary fails outright.
type Fallback struct {
	primary   Provider
	secondary Provider
	log       zerolog.Logger
}

func NewFallback(primary, secondary Provider) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, log: utils.Component("Fallback")}
}

func (f *Fallback) Name() string { return f.primary.Name() + "+" + f.secondary.Name() }

func (f *Fallback) GetBarsBatch(ctx context.Context, symbols []string, interval string, lookback int) (map[string][]candle.Candle, error) {
	symbols = NormalizeSymbols(symbols)

	bars, primaryErr := f.primary.GetBarsBatch(ctx, symbols, interval, lookback)
	if primaryErr != nil {
		if ctx.Err() != nil {
			return nil, primaryErr
		}
		f.log.Warn().Err(primaryErr).Str("provider", f.primary.Name()).Msg("Primary provider failed")
		bars = map[string][]candle.Candle{}
	}

	var missing []string
	for _, s := range symbols {
		if len(bars[s]) == 0 {
			missing = append(missing, s)
		}
	}
	if len(missing) == 0 {
		return bars, nil
	}

	f.log.Info().Int("missing", len(missing)).Str("provider", f.secondary.Name()).Msg("Filling missing symbols")
	extra, err := f.secondary.GetBarsBatch(ctx, missing, interval, lookback)
	if err != nil {
		if primaryErr != nil {
			return nil, errors.Join(primaryErr, err)
		}
		f.log.Warn().Err(err).Str("provider", f.secondary.Name()).Msg("Fallback provider failed")
		return bars, nil
	}
	for s, cs := range extra {
		if len(cs) > 0 {
			bars[s] = cs
		}
	}
	return bars, nil
}
