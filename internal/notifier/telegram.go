package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/amirphl/swing-scanner/internal/config"
	"github.com/amirphl/swing-scanner/internal/utils"
)

// Telegram rejects messages above 4096 characters.
const maxMessageLen = 4000

var ErrMissingCredentials = errors.New("telegram bot token and chat id are required")

type TelegramNotifier struct {
	client  *resty.Client
	chatID  string
	retries int
	delay   time.Duration
	log     zerolog.Logger
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

func NewTelegramNotifier(cfg config.TelegramConfig) (*TelegramNotifier, error) {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil, ErrMissingCredentials
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/") + "/bot" + cfg.BotToken).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &TelegramNotifier{
		client:  client,
		chatID:  cfg.ChatID,
		retries: max(1, cfg.Retries),
		delay:   cfg.RetryDelay,
		log:     utils.Component("Telegram"),
	}, nil
}

// Send posts msg as MarkdownV2, split into chunks Telegram accepts.
func (t *TelegramNotifier) Send(ctx context.Context, msg string) error {
	for _, chunk := range splitMessage(msg, maxMessageLen) {
		if err := t.sendChunk(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (t *TelegramNotifier) sendChunk(ctx context.Context, text string) error {
	var out apiResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(sendMessageRequest{
			ChatID:                t.chatID,
			Text:                  text,
			ParseMode:             "MarkdownV2",
			DisableWebPagePreview: true,
		}).
		SetResult(&out).
		SetError(&out).
		Post("/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	if resp.IsError() || !out.OK {
		return fmt.Errorf("telegram send failed: %s (%s)", resp.Status(), out.Description)
	}
	return nil
}

// SendWithRetry retries Send up to the configured number of attempts.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, msg string) error {
	var err error
	for attempt := 1; attempt <= t.retries; attempt++ {
		if err = t.Send(ctx, msg); err == nil {
			return nil
		}
		t.log.Warn().Err(err).Int("attempt", attempt).Int("of", t.retries).Msg("Telegram send failed")
		if attempt == t.retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.delay):
		}
	}
	return fmt.Errorf("telegram send failed after %d attempts: %w", t.retries, err)
}

// RetryWithNotification runs action up to the configured number of attempts
// and reports the final failure to the chat.
func (t *TelegramNotifier) RetryWithNotification(ctx context.Context, action func(context.Context) error, description string) error {
	var err error
	for attempt := 1; attempt <= t.retries; attempt++ {
		if err = action(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		t.log.Warn().Err(err).Str("action", description).Int("attempt", attempt).Msg("Action failed")
		if attempt < t.retries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(t.delay):
			}
		}
	}

	msg := fmt.Sprintf("*%s failed* after %d attempts\n%s",
		Escape(description), t.retries, Escape(err.Error()))
	if sendErr := t.Send(ctx, msg); sendErr != nil {
		t.log.Error().Err(sendErr).Msg("Failed to report action failure")
	}
	return err
}

// splitMessage cuts text at line boundaries into pieces of at most limit
// bytes. A single longer line is cut hard.
func trailingBackslashes(s string) int {
	n := 0
	for n < len(s) && s[len(s)-1-n] == '\\' {
		n++
	}
	return n
}

func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if cur.Len() > 0 {
				chunks = append(chunks, cur.String())
				cur.Reset()
			}
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
			// Keep a MarkdownV2 escape with the character it escapes.
			if trailingBackslashes(line[:cut])%2 == 1 && cut > 1 {
				cut--
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if cur.Len()+len(line) > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
