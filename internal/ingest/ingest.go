// Package ingest keeps the bar cache filled and trimmed outside of scans.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/amirphl/swing-scanner/internal/candle"
	"github.com/amirphl/swing-scanner/internal/config"
	"github.com/amirphl/swing-scanner/internal/db"
	"github.com/amirphl/swing-scanner/internal/provider"
	"github.com/amirphl/swing-scanner/internal/utils"
)

// Max concurrent delete statements during Prune.
const pruneConcurrency = 5

var ErrStoreSource = errors.New("cannot sync the bar cache from the store provider")

// Stats summarises one Sync run.
type Stats struct {
	Symbols int                  `json:"symbols"`
	Saved   int                  `json:"saved"`
	Failed  []string             `json:"failed"`
	Latest  map[string]time.Time `json:"latest"`
}

type Service struct {
	provider  provider.Provider
	storage   db.Storage
	interval  string
	lookback  int
	batch     int
	retention int
	now       func() time.Time
	log       zerolog.Logger
}

func NewService(cfg *config.Config, p provider.Provider, storage db.Storage) (*Service, error) {
	if p.Name() == "store" {
		return nil, ErrStoreSource
	}
	return &Service{
		provider:  p,
		storage:   storage,
		interval:  cfg.Data.Interval,
		lookback:  cfg.Data.LookbackDays,
		batch:     cfg.Data.BatchSize,
		retention: cfg.Data.RetentionDays,
		now:       time.Now,
		log:       utils.Component("IngestionService"),
	}, nil
}

// Sync fetches the latest bars for symbols and upserts them. A failed chunk
// is recorded in Stats.Failed and the run goes on.
func (s *Service) Sync(ctx context.Context, symbols []string) (Stats, error) {
	symbols = provider.NormalizeSymbols(symbols)
	stats := Stats{Symbols: len(symbols), Latest: make(map[string]time.Time)}

	for start := 0; start < len(symbols); start += s.batch {
		chunk := symbols[start:min(start+s.batch, len(symbols))]
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		bars, err := s.provider.GetBarsBatch(ctx, chunk, s.interval, s.lookback)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			s.log.Error().Err(err).Strs("symbols", chunk).Msg("Failed to fetch bars")
			stats.Failed = append(stats.Failed, chunk...)
			continue
		}

		var all []candle.Candle
		for _, sym := range chunk {
			if len(bars[sym]) == 0 {
				stats.Failed = append(stats.Failed, sym)
				continue
			}
			all = append(all, bars[sym]...)
		}
		if err := s.storage.SaveCandles(ctx, all); err != nil {
			return stats, fmt.Errorf("failed to save %d candles: %w", len(all), err)
		}
		stats.Saved += len(all)
	}

	for _, sym := range symbols {
		latest, err := s.storage.GetLatestCandle(ctx, sym, s.interval)
		if err != nil {
			return stats, fmt.Errorf("failed to read latest candle of %s: %w", sym, err)
		}
		if latest != nil {
			stats.Latest[sym] = latest.Timestamp
		}
	}

	s.log.Info().
		Int("symbols", stats.Symbols).
		Int("saved", stats.Saved).
		Int("failed", len(stats.Failed)).
		Msg("Bar cache synced")
	return stats, nil
}

// Prune deletes cached bars older than the retention window. A zero
// retention keeps everything.
func (s *Service) Prune(ctx context.Context, symbols []string) error {
	if s.retention <= 0 {
		s.log.Info().Int("retention_days", s.retention).Msg("Skipping cleanup")
		return nil
	}
	cutoff := s.now().UTC().AddDate(0, 0, -s.retention)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
		sem  = make(chan struct{}, pruneConcurrency)
	)
	for _, sym := range provider.NormalizeSymbols(symbols) {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := s.storage.DeleteCandles(ctx, sym, s.interval, cutoff); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("[%s %s] cleanup failed: %w", sym, s.interval, err))
				mu.Unlock()
			}
		}(sym)
	}
	wg.Wait()

	if len(errs) > 0 {
		s.log.Error().Int("failures", len(errs)).Msg("Cleanup completed with failures")
		return errors.Join(errs...)
	}
	s.log.Info().Time("cutoff", cutoff).Msg("Cleanup completed")
	return nil
}
