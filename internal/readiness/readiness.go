// Package readiness decides whether the newest available bar is fit for an
// end-of-day scan.
package readiness

import (
	"fmt"
	"time"

	"github.com/amirphl/swing-scanner/internal/config"
	"github.com/amirphl/swing-scanner/internal/tfutils"
)

type Status string

const (
	StatusReady   Status = "READY"
	StatusStale   Status = "STALE"
	StatusHoliday Status = "HOLIDAY"
)

type Result struct {
	Status      Status    `json:"status"`
	Message     string    `json:"message"`
	CanRun      bool      `json:"can_run"`
	LastBarDate time.Time `json:"last_bar_date,omitzero"`
	ReadyAt     time.Time `json:"ready_at,omitzero"`
	NextSession time.Time `json:"next_session,omitzero"`
	Guidance    string    `json:"guidance,omitempty"`
}

// Checker holds the readiness settings. Check is a pure function of its
// arguments and these settings.
type Checker struct {
	enabled   bool
	session   tfutils.Session
	staleDays int
}

func NewChecker(cfg *config.Config) (*Checker, error) {
	session, err := tfutils.NewSession(cfg.Timezone, cfg.Readiness.OpenTime, cfg.Readiness.CloseTime,
		time.Duration(cfg.Readiness.BufferMinutes)*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("readiness: %w", err)
	}
	return &Checker{
		enabled:   cfg.Readiness.Enabled,
		session:   session,
		staleDays: cfg.Readiness.StaleTradingDays,
	}, nil
}

// ReadyAt is when the bar of day's session can be expected: the local close
// time plus the buffer.
func (c *Checker) ReadyAt(day time.Time) time.Time {
	return c.session.ReadyAt(day)
}

// Check classifies lastBar (zero when no bars were fetched) as seen at now.
func (c *Checker) Check(now, lastBar time.Time) Result {
	if !c.enabled {
		return Result{Status: StatusReady, Message: "Readiness check disabled", CanRun: true}
	}
	if lastBar.IsZero() {
		return Result{
			Status:  StatusStale,
			Message: "No bar data available. Check your data provider connection.",
		}
	}

	now = now.In(c.session.Loc)
	today := tfutils.Date(now)
	barDay := tfutils.Date(lastBar.In(c.session.Loc))

	if !c.recent(today, barDay) {
		return Result{
			Status:      StatusStale,
			Message:     fmt.Sprintf("Stale data. Last bar: %s is more than %d trading days old. Check feed.", barDay.Format("02 Jan"), c.staleDays),
			LastBarDate: barDay,
		}
	}

	next := c.session.NextOpen(now)
	guidance := c.guidance(now, next)

	if !tfutils.TradingDay(today) {
		return Result{
			Status:      StatusHoliday,
			Message:     fmt.Sprintf("Market closed today. Scanning bar from %s. Next session: %s.", barDay.Format("02 Jan"), next.Format("Mon, 02 Jan")),
			CanRun:      true,
			LastBarDate: barDay,
			NextSession: next,
			Guidance:    guidance,
		}
	}

	readyAt := c.ReadyAt(today)
	var msg string
	switch {
	case barDay.Equal(today):
		msg = fmt.Sprintf("Ready. Fresh EOD bar from %s (today).", barDay.Format("02 Jan"))
	case now.Before(readyAt):
		msg = fmt.Sprintf("Ready. Scanning bar from %s. Today's bar available after %s.", barDay.Format("02 Jan"), readyAt.Format("15:04"))
	default:
		msg = fmt.Sprintf("Ready. Scanning bar from %s. Today's bar may not be published yet.", barDay.Format("02 Jan"))
	}
	return Result{
		Status:      StatusReady,
		Message:     msg,
		CanRun:      true,
		LastBarDate: barDay,
		ReadyAt:     readyAt,
		NextSession: next,
		Guidance:    guidance,
	}
}

// guidance tells the user how long until orders can be worked.
func (c *Checker) guidance(now, next time.Time) string {
	if c.session.InSession(now) {
		return "US market is open now. Intraday data forming."
	}
	wait := next.Sub(now)
	switch {
	case wait <= time.Hour:
		return fmt.Sprintf("Market opens in %d mins (%s). Finalize orders soon.", int(wait.Minutes()), next.Format("15:04"))
	case wait <= 5*time.Hour:
		return fmt.Sprintf("Market opens in %dh %dm (%s). Place orders before open.", int(wait.Hours()), int(wait.Minutes())%60, next.Format("15:04"))
	case wait <= 24*time.Hour:
		return fmt.Sprintf("Next session: %s.", next.Format("Mon 15:04"))
	default:
		return fmt.Sprintf("Next session: %s (%dd away).", next.Format("Mon 02 Jan, 15:04"), int(wait.Hours()/24))
	}
}

// recent reports whether barDay is one of the last staleDays trading days up
// to and including today.
func (c *Checker) recent(today, barDay time.Time) bool {
	found := 0
	for d := today; found < c.staleDays; d = d.AddDate(0, 0, -1) {
		if !tfutils.TradingDay(d) {
			continue
		}
		if d.Equal(barDay) {
			return true
		}
		found++
	}
	return false
}
