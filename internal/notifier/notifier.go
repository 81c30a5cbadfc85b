// Package notifier
package notifier

import "context"

// Notifier delivers scan reports to a chat.
type Notifier interface {
	Send(ctx context.Context, msg string) error
	SendWithRetry(ctx context.Context, msg string) error
	RetryWithNotification(ctx context.Context, action func(context.Context) error, description string) error
}

// Nop discards every message. It stands in when notifications are disabled.
type Nop struct{}

func (Nop) Send(context.Context, string) error          { return nil }
func (Nop) SendWithRetry(context.Context, string) error { return nil }

func (Nop) RetryWithNotification(ctx context.Context, action func(context.Context) error, _ string) error {
	return action(ctx)
}

// New returns a Telegram notifier when enabled, Nop otherwise.
func New(enabled bool, t *TelegramNotifier) Notifier {
	if !enabled || t == nil {
		return Nop{}
	}
	return t
}
