package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Schedule runs a scan of the configured universe on the configured cron
// expression, in the configured timezone, until ctx is cancelled. A failing
// run is retried and, when it keeps failing, reported to the chat.
func (a *App) Schedule(ctx context.Context) error {
	symbols, err := a.cfg.Symbols()
	if err != nil {
		return err
	}

	c := cron.New(
		cron.WithLocation(a.cfg.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	_, err = c.AddFunc(a.cfg.Scheduler.Cron, func() {
		err := a.notifier.RetryWithNotification(ctx, func(ctx context.Context) error {
			_, err := a.RunScan(ctx, symbols)
			return err
		}, "Scheduled scan")
		if err != nil {
			a.log.Error().Err(err).Msg("Scheduled scan failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid scheduler.cron %q: %w", a.cfg.Scheduler.Cron, err)
	}

	c.Start()
	a.log.Info().
		Str("cron", a.cfg.Scheduler.Cron).
		Str("timezone", a.cfg.Timezone).
		Time("next", c.Entries()[0].Next).
		Msg("Scheduler started")

	<-ctx.Done()
	a.log.Info().Msg("Stopping scheduler")
	<-c.Stop().Done()
	return nil
}
