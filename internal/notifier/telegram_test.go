package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/swing-scanner/internal/config"
)

type telegramServer struct {
	*httptest.Server
	calls    atomic.Int32
	failFor  int32
	received chan sendMessageRequest
}

func newTelegramServer(t *testing.T, failFor int32) *telegramServer {
	ts := &telegramServer{failFor: failFor, received: make(chan sendMessageRequest, 16)}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := ts.calls.Add(1)
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if n <= ts.failFor {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":500,"description":"internal"}`))
			return
		}
		ts.received <- req
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newNotifier(t *testing.T, url string) *TelegramNotifier {
	n, err := NewTelegramNotifier(config.TelegramConfig{
		Enabled:    true,
		BaseURL:    url,
		BotToken:   "TOKEN",
		ChatID:     "42",
		Retries:    3,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return n
}

func TestTelegram_Send(t *testing.T) {
	srv := newTelegramServer(t, 0)
	n := newNotifier(t, srv.URL)

	require.NoError(t, n.Send(context.Background(), "hello"))
	req := <-srv.received
	assert.Equal(t, "42", req.ChatID)
	assert.Equal(t, "hello", req.Text)
	assert.Equal(t, "MarkdownV2", req.ParseMode)
	assert.True(t, req.DisableWebPagePreview)
}

func TestTelegram_SendWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failFor   int32
		wantErr   bool
		wantCalls int32
	}{
		{"first attempt", 0, false, 1},
		{"recovers", 2, false, 3},
		{"gives up", 5, true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTelegramServer(t, tt.failFor)
			err := newNotifier(t, srv.URL).SendWithRetry(context.Background(), "msg")
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "after 3 attempts")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, srv.calls.Load())
		})
	}
}

func TestTelegram_RetryWithNotification(t *testing.T) {
	srv := newTelegramServer(t, 0)
	n := newNotifier(t, srv.URL)

	attempts := 0
	boom := errors.New("provider down")
	err := n.RetryWithNotification(context.Background(), func(context.Context) error {
		attempts++
		return boom
	}, "daily-scan")

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, attempts)
	report := <-srv.received
	assert.Equal(t, "*daily\\-scan failed* after 3 attempts\nprovider down", report.Text)
}

func TestTelegram_RetryWithNotificationSucceeds(t *testing.T) {
	srv := newTelegramServer(t, 0)
	n := newNotifier(t, srv.URL)

	attempts := 0
	err := n.RetryWithNotification(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	}, "scan")

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, int32(0), srv.calls.Load())
}

func TestNewTelegramNotifier_MissingCredentials(t *testing.T) {
	_, err := NewTelegramNotifier(config.TelegramConfig{BaseURL: "https://api.telegram.org", Retries: 1})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestNew_Disabled(t *testing.T) {
	n := New(false, nil)
	assert.IsType(t, Nop{}, n)
	assert.NoError(t, n.SendWithRetry(context.Background(), "x"))

	called := false
	require.NoError(t, n.RetryWithNotification(context.Background(), func(context.Context) error {
		called = true
		return nil
	}, "scan"))
	assert.True(t, called)
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	text := "aaaa\nbbbb\ncccc\n"
	assert.Equal(t, []string{"aaaa\nbbbb\n", "cccc\n"}, splitMessage(text, 10))

	long := strings.Repeat("x", 25)
	assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}, splitMessage(long, 10))

	// never splits inside a rune
	for _, c := range splitMessage(strings.Repeat("é", 10), 5) {
		assert.True(t, len(c) <= 5)
		assert.True(t, strings.ToValidUTF8(c, "?") == c)
	}
}

func TestSplitMessage_KeepsEscapePairs(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"escaped dots", strings.Repeat("\\.", 10)},
		{"escaped backslashes", strings.Repeat("\\\\", 10)},
		{"mixed", "AAPL @ 100\\.00 \\| score 82\\.5 \\| R/R 3\\.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := splitMessage(tt.text, 5)
			require.Greater(t, len(chunks), 1)
			for _, c := range chunks {
				assert.LessOrEqual(t, len(c), 5)
				assert.Zero(t, trailingBackslashes(c)%2, "chunk %q ends inside an escape", c)
			}
			assert.Equal(t, tt.text, strings.Join(chunks, ""))
		})
	}
}
