package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 60.0, cfg.Strategy.ScoreThreshold)
	assert.Equal(t, 15, cfg.Strategy.TopN)
	assert.Equal(t, 100.0, cfg.Strategy.Weights.Sum())
	assert.Equal(t, 2.0, cfg.Actionable.Technical.MinRR)
	assert.Equal(t, 3, cfg.Actionable.Technical.AllowVolumeRisingDays)
}

func TestParse_MergesOverDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
strategy:
  score_threshold: 70
  rsi_band: { min: 45, max: 70 }
actionable:
  enabled: false
  risk:
    account_size: 25000
  technical:
    gapdown_guard_pct: -3
    earnings_lookahead_trading_days: 10
notifications:
  telegram:
    retry_delay: 2s
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 70.0, cfg.Strategy.ScoreThreshold)
	assert.Equal(t, RSIBand{Min: 45, Max: 70}, cfg.Strategy.RSIBand)
	assert.False(t, cfg.Actionable.Enabled)
	assert.Equal(t, 25000.0, cfg.Actionable.Risk.AccountSize)
	assert.Equal(t, 1.0, cfg.Actionable.Risk.RiskPercentPerTrade, "untouched fields keep defaults")
	assert.Equal(t, -3.0, cfg.Actionable.Technical.GapdownGuardPct)
	assert.Equal(t, 10, cfg.Actionable.Technical.EarningsLookaheadTradingDays)
	assert.Equal(t, 2*time.Second, cfg.Notifications.Telegram.RetryDelay)
	assert.Equal(t, 15, cfg.Strategy.TopN)
}

func TestParse_UniverseBlockReplacesDefaultList(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want []string
	}{
		{"custom symbols only", "universe:\n  custom_symbols: [\"AAPL\"]\n", []string{"AAPL"}},
		{"lists only", "universe:\n  lists: [\"US_FINANCIAL\"]\n", Lists["US_FINANCIAL"]},
		{"no universe block", "strategy:\n  top_n: 5\n", Lists["US_LIQUID_TECH"]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			symbols, err := cfg.Symbols()
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, symbols)
		})
	}
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Actionable.Risk.RiskPercentPerTrade = -1
	cfg.Actionable.Technical.MinRR = 0
	cfg.Strategy.RSIBand = RSIBand{Min: 70, Max: 50}
	cfg.Strategy.TopN = 0
	cfg.Universe = UniverseConfig{}

	err := cfg.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 5)
	assert.Contains(t, err.Error(), "actionable.risk.risk_percent_per_trade")
	assert.Contains(t, err.Error(), "actionable.technical.min_rr")
	assert.Contains(t, err.Error(), "strategy.top_n")
	assert.Contains(t, err.Error(), "rsi_band")
	assert.Contains(t, err.Error(), "universe is empty")
}

func TestValidate_CrossFieldChecks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"ema order", func(c *Config) { c.Strategy.EMAFast = 30 }, "ema_fast"},
		{"macd order", func(c *Config) { c.Strategy.MACD.Fast = 40 }, "macd.fast"},
		{"zero weights", func(c *Config) { c.Strategy.Weights = Weights{} }, "weights"},
		{"same fallback", func(c *Config) { c.Data.FallbackProvider = "alpaca" }, "fallback_provider"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"bad close time", func(c *Config) { c.Readiness.CloseTime = "9pm" }, "close_time"},
		{"bad open time", func(c *Config) { c.Readiness.OpenTime = "2:30pm" }, "open_time"},
		{"unknown list", func(c *Config) { c.Universe.Lists = []string{"NOPE"} }, "unknown universe list"},
		{"unknown provider", func(c *Config) { c.Data.Provider = "bloomberg" }, "data.provider"},
		{"rising days", func(c *Config) { c.Actionable.Technical.AllowVolumeRisingDays = 0 }, "allow_volume_rising_days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("universe:\n  lists: []\n  custom_symbols: [\"spy\", \"qqq\"]\n"), 0o644))

	t.Setenv("TELEGRAM_BOT_TOKEN", "token-from-env")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(path)
	require.NoError(t, err)

	symbols, err := cfg.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"QQQ", "SPY"}, symbols)
	assert.Equal(t, "token-from-env", cfg.Notifications.Telegram.BotToken)
	assert.Equal(t, "debug", cfg.Logging.Level)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestUniverse(t *testing.T) {
	symbols, err := Universe([]string{"us_financial"}, []string{" gs ", "ZZZ", ""})
	require.NoError(t, err)
	assert.Len(t, symbols, 11)
	assert.Equal(t, "AXP", symbols[0])
	assert.Contains(t, symbols, "ZZZ")

	_, err = Universe([]string{"US_FINANCIAL", "MOON"}, nil)
	assert.ErrorContains(t, err, "MOON")

	assert.Equal(t, []string{"UK_LARGE_CAP", "US_BLUE_CHIP", "US_FINANCIAL", "US_GROWTH", "US_HEALTHCARE", "US_LIQUID_TECH"}, ListNames())
}

func TestExampleConfigIsValid(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)

	cfg, err := Parse(data)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "yahoo", cfg.Data.FallbackProvider)
	assert.Equal(t, 30*time.Second, cfg.Data.Alpaca.Timeout)
	assert.Equal(t, Default().Strategy, cfg.Strategy)
	assert.Equal(t, Default().Actionable, cfg.Actionable)
}
