// Package db
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/swing-scanner/internal/candle"
	"github.com/amirphl/swing-scanner/internal/config"
)

var ErrNoConnString = errors.New("db connection string is empty")

// Storage is the bar cache shared by the caching and store providers.
type Storage interface {
	GetDB() *sql.DB
	SaveCandles(ctx context.Context, candles []candle.Candle) error
	GetCandles(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]candle.Candle, error)
	GetLatestCandle(ctx context.Context, symbol, timeframe string) (*candle.Candle, error)
	// GetLatestCandles returns up to limit of the most recent candles per
	// symbol, oldest first. Symbols without candles are absent from the map.
	GetLatestCandles(ctx context.Context, symbols []string, timeframe string, limit int) (map[string][]candle.Candle, error)
	DeleteCandles(ctx context.Context, symbol, timeframe string, before time.Time) error
}

// Open connects to Postgres using cfg and verifies the connection.
func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	if cfg.ConnStr == "" {
		return nil, ErrNoConnString
	}
	conn, err := sql.Open("postgres", cfg.ConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(cfg.MaxOpen)
	conn.SetMaxIdleConns(cfg.MaxIdle)
	conn.SetConnMaxLifetime(30 * time.Minute)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}
