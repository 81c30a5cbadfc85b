package provider

import (
	"context"

	"github.com/amirphl/swing-scanner/internal/candle"
	"github.com/amirphl/swing-scanner/internal/db"
)

// Store serves bars previously cached in storage, for offline scans.
type Store struct {
	storage db.Storage
}

func NewStore(storage db.Storage) *Store {
	return &Store{storage: storage}
}

func (s *Store) Name() string { return "store" }

func (s *Store) GetBarsBatch(ctx context.Context, symbols []string, interval string, lookback int) (map[string][]candle.Candle, error) {
	bars, err := s.storage.GetLatestCandles(ctx, NormalizeSymbols(symbols), interval, lookback)
	if err != nil {
		return nil, err
	}
	return finish(bars, lookback), nil
}
