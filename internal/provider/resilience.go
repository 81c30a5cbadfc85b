package provider

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// guard serialises calls to one upstream through a token bucket and a
// circuit breaker. Permanent errors (bad credentials) do not count towards
// tripping the breaker.
type guard struct {
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

func newGuard(name string, limit rate.Limit, burst int, log zerolog.Logger) *guard {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUnauthorized) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}
	return &guard{
		limiter: rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (g *guard) do(ctx context.Context, fn func() error) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// retry runs fn up to attempts times with exponential backoff capped at
// maxBackoff. It stops early when ctx is done or the error is permanent.
func retry(ctx context.Context, attempts int, delay time.Duration, log zerolog.Logger, fn func() error) error {
	const maxBackoff = time.Minute
	backoff := delay
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if errors.Is(err, ErrUnauthorized) || errors.Is(err, gobreaker.ErrOpenState) || i == attempts {
			break
		}
		log.Warn().Err(err).Int("attempt", i).Int("attempts", attempts).Dur("backoff", backoff).Msg("Retry attempt failed")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
	return err
}
