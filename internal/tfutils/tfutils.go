package tfutils

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnsupportedInterval = errors.New("unsupported interval")

// ParseInterval parses an interval string (e.g., "1d", "1h") to time.Duration
func ParseInterval(interval string) (time.Duration, error) {
	switch interval {
	case "1m":
		return time.Minute, nil
	case "5m":
		return 5 * time.Minute, nil
	case "15m":
		return 15 * time.Minute, nil
	case "30m":
		return 30 * time.Minute, nil
	case "1h":
		return time.Hour, nil
	case "1d":
		return 24 * time.Hour, nil
	case "1wk":
		return 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedInterval, interval)
	}
}

// AlpacaTimeframe maps an interval to the timeframe parameter of the Alpaca
// bars endpoint.
func AlpacaTimeframe(interval string) (string, error) {
	switch interval {
	case "1m":
		return "1Min", nil
	case "5m":
		return "5Min", nil
	case "15m":
		return "15Min", nil
	case "30m":
		return "30Min", nil
	case "1h":
		return "1Hour", nil
	case "1d":
		return "1Day", nil
	case "1wk":
		return "1Week", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedInterval, interval)
	}
}

// GetSupportedIntervals returns all supported intervals
func GetSupportedIntervals() []string {
	return []string{"1m", "5m", "15m", "30m", "1h", "1d", "1wk"}
}

// IsValidInterval checks if an interval is supported
func IsValidInterval(interval string) bool {
	_, err := ParseInterval(interval)
	return err == nil
}

// IsIntraday reports whether bars of interval close within a session.
func IsIntraday(interval string) bool {
	d, err := ParseInterval(interval)
	return err == nil && d < 24*time.Hour
}

// LookbackStart estimates the start of a request window holding lookback bars
// that end at end. Daily windows are doubled to cover weekends and holidays;
// intraday windows use a fixed 30 calendar days.
func LookbackStart(end time.Time, interval string, lookback int) (time.Time, error) {
	d, err := ParseInterval(interval)
	if err != nil {
		return time.Time{}, err
	}
	switch {
	case d < 24*time.Hour:
		return end.AddDate(0, 0, -30), nil
	case d == 24*time.Hour:
		return end.AddDate(0, 0, -2*lookback), nil
	default:
		return end.Add(-time.Duration(lookback) * d), nil
	}
}

// TradingDay reports whether t falls on a weekday. Exchange holidays are not
// modelled.
func TradingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// PrevTradingDay returns the closest weekday strictly before t.
func PrevTradingDay(t time.Time) time.Time {
	d := t.AddDate(0, 0, -1)
	for !TradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// NextTradingDay returns the closest weekday strictly after t.
func NextTradingDay(t time.Time) time.Time {
	d := t.AddDate(0, 0, 1)
	for !TradingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// Date truncates t to midnight in its own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Session is the exchange's regular session in the scanner's timezone. A
// daily bar is final once the close plus Buffer has passed.
type Session struct {
	Loc    *time.Location
	Open   time.Duration // offset of the open from local midnight
	Close  time.Duration // offset of the close from local midnight
	Buffer time.Duration
}

// NewSession parses HH:MM open and close times in the named timezone.
func NewSession(timezone, openTime, closeTime string, buffer time.Duration) (Session, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Session{}, fmt.Errorf("timezone %q: %w", timezone, err)
	}
	open, err := clock(openTime)
	if err != nil {
		return Session{}, fmt.Errorf("open time: %w", err)
	}
	closeAt, err := clock(closeTime)
	if err != nil {
		return Session{}, fmt.Errorf("close time: %w", err)
	}
	if open >= closeAt {
		return Session{}, fmt.Errorf("open time %s is not before close time %s", openTime, closeTime)
	}
	return Session{Loc: loc, Open: open, Close: closeAt, Buffer: buffer}, nil
}

func clock(hhmm string) (time.Duration, error) {
	at, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("%q is not HH:MM", hhmm)
	}
	return time.Duration(at.Hour())*time.Hour + time.Duration(at.Minute())*time.Minute, nil
}

func (s Session) at(day time.Time, offset time.Duration) time.Time {
	d := day.In(s.Loc)
	return time.Date(d.Year(), d.Month(), d.Day(), int(offset/time.Hour), int(offset%time.Hour/time.Minute), 0, 0, s.Loc)
}

// OpensAt and ClosesAt are day's session bounds.
func (s Session) OpensAt(day time.Time) time.Time  { return s.at(day, s.Open) }
func (s Session) ClosesAt(day time.Time) time.Time { return s.at(day, s.Close) }

// ReadyAt is when the bar of day's session can be expected.
func (s Session) ReadyAt(day time.Time) time.Time {
	return s.ClosesAt(day).Add(s.Buffer)
}

// InSession reports whether now falls between a trading day's open and close.
func (s Session) InSession(now time.Time) bool {
	now = now.In(s.Loc)
	return TradingDay(now) && !now.Before(s.OpensAt(now)) && now.Before(s.ClosesAt(now))
}

// NextOpen is the first session open strictly after now.
func (s Session) NextOpen(now time.Time) time.Time {
	now = now.In(s.Loc)
	day := Date(now)
	if TradingDay(day) && now.Before(s.OpensAt(day)) {
		return s.OpensAt(day)
	}
	return s.OpensAt(NextTradingDay(day))
}

// LastClosed returns the date, at midnight in Loc, of the newest session
// whose daily bar is final at now.
func (s Session) LastClosed(now time.Time) time.Time {
	today := Date(now.In(s.Loc))
	if TradingDay(today) && !now.Before(s.ReadyAt(today)) {
		return today
	}
	return PrevTradingDay(today)
}

// Closed reports whether a daily bar stamped ts belongs to a session that
// had closed at now.
func (s Session) Closed(ts, now time.Time) bool {
	return !Date(ts.In(s.Loc)).After(s.LastClosed(now))
}
