// Package app wires configuration, storage, providers and the scanner into
// the runnable jobs behind the CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/amirphl/swing-scanner/internal/config"
	"github.com/amirphl/swing-scanner/internal/db"
	"github.com/amirphl/swing-scanner/internal/db/conf"
	"github.com/amirphl/swing-scanner/internal/export"
	"github.com/amirphl/swing-scanner/internal/metrics"
	"github.com/amirphl/swing-scanner/internal/notifier"
	"github.com/amirphl/swing-scanner/internal/provider"
	"github.com/amirphl/swing-scanner/internal/scanner"
	"github.com/amirphl/swing-scanner/internal/utils"
)

// App owns every long-lived dependency of a run.
type App struct {
	cfg        *config.Config
	conn       *sql.DB
	storage    db.Storage
	provider   provider.Provider
	metrics    *metrics.Metrics
	metricsSrv *http.Server
	scanner    *scanner.Scanner
	exporter   *export.Exporter
	notifier   notifier.Notifier
	log        zerolog.Logger
}

// Deps overrides what New would otherwise build from the configuration.
// Zero fields are built as usual.
type Deps struct {
	Storage  db.Storage
	Provider provider.Provider
	Notifier notifier.Notifier
	Registry *prometheus.Registry
}

// New builds an App from cfg. The database is optional unless the store
// provider is selected.
func New(ctx context.Context, cfg *config.Config, deps Deps) (*App, error) {
	a := &App{cfg: cfg, storage: deps.Storage, log: utils.Component("App")}

	if a.storage == nil && cfg.DB.ConnStr != "" {
		conn, err := db.Open(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		storage, err := db.New(conf.Config{DB: conn})
		if err != nil {
			conn.Close()
			return nil, err
		}
		a.conn, a.storage = conn, storage
		a.log.Info().Msg("Connected to Postgres")
	}

	a.provider = deps.Provider
	if a.provider == nil {
		p, err := provider.New(cfg, a.storage)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.provider = p
	}

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	a.metrics = metrics.New(reg)

	s, err := scanner.New(cfg, a.provider, a.metrics)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.scanner = s
	a.exporter = export.New(cfg.Export)

	a.notifier = deps.Notifier
	if a.notifier == nil {
		a.notifier = notifier.Nop{}
		if cfg.Notifications.Telegram.Enabled {
			t, err := notifier.NewTelegramNotifier(cfg.Notifications.Telegram)
			if err != nil {
				a.log.Warn().Err(err).Msg("Telegram enabled but not configured, notifications disabled")
			} else {
				a.notifier = t
			}
		}
	}
	return a, nil
}

// ServeMetrics exposes /metrics when enabled in the configuration.
func (a *App) ServeMetrics() {
	if !a.cfg.Metrics.Enabled || a.metricsSrv != nil {
		return
	}
	a.metricsSrv = metrics.Serve(a.cfg.Metrics.Addr, a.metrics.Handler())
	a.log.Info().Str("addr", a.cfg.Metrics.Addr).Msg("Serving metrics")
}

func (a *App) Storage() db.Storage { return a.storage }

func (a *App) Provider() provider.Provider { return a.provider }

// Close releases the database and the metrics server.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.metricsSrv != nil {
		errs = append(errs, a.metricsSrv.Shutdown(ctx))
	}
	if a.conn != nil {
		errs = append(errs, a.conn.Close())
	}
	return errors.Join(errs...)
}

// Report is what one scan run produced besides the result itself.
type Report struct {
	Result   *scanner.Result
	Files    []string
	Notified bool
}

// RunScan scans symbols, exports the result and sends the chat report.
// Export and notification failures are logged, never returned.
func (a *App) RunScan(ctx context.Context, symbols []string) (*Report, error) {
	res, err := a.scanner.Scan(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	rep := &Report{Result: res}

	files, err := a.exporter.Write(res)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to export scan results")
	}
	rep.Files = files

	if err := a.notifier.SendWithRetry(ctx, notifier.FormatScan(res)); err != nil {
		a.log.Error().Err(err).Msg("Failed to send scan report")
	} else {
		rep.Notified = true
	}
	return rep, nil
}
