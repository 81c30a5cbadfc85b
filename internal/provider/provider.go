// Package provider fetches daily bars for many symbols at once.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/amirphl/swing-scanner/internal/candle"
	"github.com/amirphl/swing-scanner/internal/config"
	"github.com/amirphl/swing-scanner/internal/db"
	"github.com/amirphl/swing-scanner/internal/tfutils"
)

var (
	ErrUnknownProvider    = errors.New("unknown provider")
	ErrMissingCredentials = errors.New("provider credentials not configured")
	ErrRateLimited        = errors.New("provider rate limit exceeded")
	ErrUnauthorized       = errors.New("provider rejected credentials")
)

// Provider is the market-data boundary. A symbol with no bars is simply
// absent from the returned map; an error means the whole batch failed.
type Provider interface {
	Name() string
	GetBarsBatch(ctx context.Context, symbols []string, interval string, lookback int) (map[string][]candle.Candle, error)
}

// New builds the provider chain described by cfg: the primary provider,
// optionally wrapped in a bar cache, optionally backed by a fallback. store may
// be nil when no database is configured.
func New(cfg *config.Config, store db.Storage) (Provider, error) {
	primary, err := build(cfg.Data.Provider, cfg, store)
	if err != nil {
		return nil, err
	}
	if cfg.Data.Cache && store != nil && cfg.Data.Provider != "store" {
		primary = NewCaching(primary, store)
	}

	if cfg.Data.FallbackProvider == "" {
		return primary, nil
	}
	secondary, err := build(cfg.Data.FallbackProvider, cfg, store)
	if err != nil {
		return nil, fmt.Errorf("fallback provider: %w", err)
	}
	return NewFallback(primary, secondary), nil
}

// build returns the named provider. Live vendors are wrapped in Closed so the
// session still trading never reaches the scan or the cache.
func build(name string, cfg *config.Config, store db.Storage) (Provider, error) {
	switch name {
	case "alpaca":
		a, err := NewAlpaca(cfg.Data.Alpaca)
		if err != nil {
			return nil, err
		}
		return closedSessions(a, cfg)
	case "yahoo":
		return closedSessions(NewYahoo(cfg.Data.Yahoo), cfg)
	case "store":
		if store == nil {
			return nil, fmt.Errorf("store provider requires a database: %w", db.ErrNoConnString)
		}
		return NewStore(store), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}

func closedSessions(p Provider, cfg *config.Config) (Provider, error) {
	session, err := tfutils.NewSession(cfg.Timezone, cfg.Readiness.OpenTime, cfg.Readiness.CloseTime,
		time.Duration(cfg.Readiness.BufferMinutes)*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("%s: session calendar: %w", p.Name(), err)
	}
	return NewClosed(p, session), nil
}

// NormalizeSymbols upper-cases, trims and de-duplicates symbols, keeping the
// first occurrence order.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// finish sorts each symbol's bars oldest first, drops invalid bars and keeps
// the most recent lookback of them.
func finish(bars map[string][]candle.Candle, lookback int) map[string][]candle.Candle {
	out := make(map[string][]candle.Candle, len(bars))
	for sym, cs := range bars {
		valid := cs[:0]
		for _, c := range cs {
			if c.Validate() == nil {
				valid = append(valid, c)
			}
		}
		sort.Slice(valid, func(i, j int) bool { return valid[i].Timestamp.Before(valid[j].Timestamp) })
		if lookback > 0 && len(valid) > lookback {
			valid = valid[len(valid)-lookback:]
		}
		if len(valid) > 0 {
			out[sym] = valid
		}
	}
	return out
}
