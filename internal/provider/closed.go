package provider

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/amirphl/swing-scanner/internal/candle"
	"github.com/amirphl/swing-scanner/internal/tfutils"
	"github.com/amirphl/swing-scanner/internal/utils"
)

// Closed drops daily bars of sessions that had not closed at fetch time.
// Vendors publish the running session as a daily bar while it trades, and
// scoring it would rank on a partial day.
type Closed struct {
	inner   Provider
	session tfutils.Session
	now     func() time.Time
	log     zerolog.Logger
}

func NewClosed(inner Provider, session tfutils.Session) *Closed {
	return &Closed{inner: inner, session: session, now: time.Now, log: utils.Component("Closed")}
}

func (c *Closed) Name() string { return c.inner.Name() }

func (c *Closed) GetBarsBatch(ctx context.Context, symbols []string, interval string, lookback int) (map[string][]candle.Candle, error) {
	if d, err := tfutils.ParseInterval(interval); err != nil || d != 24*time.Hour {
		return c.inner.GetBarsBatch(ctx, symbols, interval, lookback)
	}

	// One spare bar so the window stays full after the forming bar goes.
	bars, err := c.inner.GetBarsBatch(ctx, symbols, interval, lookback+1)
	if err != nil {
		return nil, err
	}

	now := c.now()
	dropped := 0
	for sym, cs := range bars {
		kept := make([]candle.Candle, 0, len(cs))
		for _, b := range cs {
			if c.session.Closed(b.Timestamp, now) {
				kept = append(kept, b)
			} else {
				dropped++
			}
		}
		bars[sym] = kept
	}
	if dropped > 0 {
		c.log.Debug().Int("bars", dropped).Time("last_closed", c.session.LastClosed(now)).Msg("Dropped bars of an open session")
	}
	return finish(bars, lookback), nil
}
