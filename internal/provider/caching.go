package provider

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/amirphl/swing-scanner/internal/candle"
	"github.com/amirphl/swing-scanner/internal/db"
	"github.com/amirphl/swing-scanner/internal/utils"
)

// Caching writes every batch fetched by the inner provider to storage. A
// failed write is logged and never fails the fetch.
type Caching struct {
	inner   Provider
	storage db.Storage
	log     zerolog.Logger
}

func NewCaching(inner Provider, storage db.Storage) *Caching {
	return &Caching{inner: inner, storage: storage, log: utils.Component("Cache")}
}

func (c *Caching) Name() string { return c.inner.Name() }

func (c *Caching) GetBarsBatch(ctx context.Context, symbols []string, interval string, lookback int) (map[string][]candle.Candle, error) {
	bars, err := c.inner.GetBarsBatch(ctx, symbols, interval, lookback)
	if err != nil {
		return nil, err
	}

	var all []candle.Candle
	for _, cs := range bars {
		all = append(all, cs...)
	}
	if err := c.storage.SaveCandles(ctx, all); err != nil {
		c.log.Warn().Err(err).Int("candles", len(all)).Msg("Failed to cache bars")
	}
	return bars, nil
}
