// Package config
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

/*
YAML config example:
timezone: "Europe/London"
universe:
  lists: ["US_LIQUID_TECH"]
  custom_symbols: ["SPY"]
data:
  provider: "alpaca"
  fallback_provider: "yahoo"
  lookback_days: 200
strategy:
  rsi_band: { min: 50, max: 65 }
  score_threshold: 60
  top_n: 15
risk:
  stop_multiplier: 1.0
  fixed_target_pct: 0.07
  stage1_min_rr: 1.5
actionable:
  enabled: true
  risk: { account_size: 10000, risk_percent_per_trade: 1.0 }
  technical: { min_rr: 2.0, min_volume_ratio: 1.2, atr_min: 1.0 }
  liquidity: { min_price: 5, min_avg_dollar_volume_20d: 10000000 }
*/

type Config struct {
	Timezone      string              `yaml:"timezone" validate:"required"`
	Universe      UniverseConfig      `yaml:"universe"`
	Data          DataConfig          `yaml:"data"`
	Strategy      StrategyConfig      `yaml:"strategy"`
	Risk          RiskConfig          `yaml:"risk"`
	Actionable    ActionableConfig    `yaml:"actionable"`
	Scan          ScanConfig          `yaml:"scan"`
	Readiness     ReadinessConfig     `yaml:"readiness"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Export        ExportConfig        `yaml:"export"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Logging       LoggingConfig       `yaml:"logging"`
	DB            DBConfig            `yaml:"db"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

type UniverseConfig struct {
	Lists         []string `yaml:"lists"`
	CustomSymbols []string `yaml:"custom_symbols"`
}

type DataConfig struct {
	Provider         string       `yaml:"provider" validate:"required,oneof=alpaca yahoo store"`
	FallbackProvider string       `yaml:"fallback_provider" validate:"omitempty,oneof=alpaca yahoo store"`
	Interval         string       `yaml:"interval" validate:"required"`
	LookbackDays     int          `yaml:"lookback_days" validate:"gt=0"`
	BatchSize        int          `yaml:"batch_size" validate:"gt=0"`
	Cache            bool         `yaml:"cache"`
	RetentionDays    int          `yaml:"retention_days" validate:"gte=0"`
	Alpaca           AlpacaConfig `yaml:"alpaca"`
	Yahoo            YahooConfig  `yaml:"yahoo"`
}

type AlpacaConfig struct {
	BaseURL           string        `yaml:"base_url" validate:"required,url"`
	APIKey            string        `yaml:"api_key"`
	APISecret         string        `yaml:"api_secret"`
	Feed              string        `yaml:"feed" validate:"omitempty,oneof=iex sip"`
	Adjustment        string        `yaml:"adjustment" validate:"omitempty,oneof=raw split dividend all"`
	RequestsPerMinute int           `yaml:"requests_per_minute" validate:"gt=0"`
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
}

type YahooConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gt=0"`
}

type RSIBand struct {
	Min float64 `yaml:"min" validate:"gte=0,lte=100"`
	Max float64 `yaml:"max" validate:"gte=0,lte=100"`
}

type MACDConfig struct {
	Fast   int `yaml:"fast" validate:"gt=0"`
	Slow   int `yaml:"slow" validate:"gt=0"`
	Signal int `yaml:"signal" validate:"gt=0"`
}

// Weights are percentages of the composite score.
type Weights struct {
	EMA      float64 `yaml:"ema" validate:"gte=0"`
	RSI      float64 `yaml:"rsi" validate:"gte=0"`
	MACD     float64 `yaml:"macd" validate:"gte=0"`
	Volume   float64 `yaml:"volume" validate:"gte=0"`
	Breakout float64 `yaml:"breakout" validate:"gte=0"`
}

func (w Weights) Sum() float64 {
	return w.EMA + w.RSI + w.MACD + w.Volume + w.Breakout
}

type StrategyConfig struct {
	RSIPeriod                int        `yaml:"rsi_period" validate:"gt=0"`
	RSIBand                  RSIBand    `yaml:"rsi_band"`
	RSISlopeEpsilon          float64    `yaml:"rsi_slope_epsilon" validate:"gte=0"`
	EMAFast                  int        `yaml:"ema_fast" validate:"gt=0"`
	EMASlow                  int        `yaml:"ema_slow" validate:"gt=0"`
	SMATrend                 int        `yaml:"sma_trend" validate:"gt=0"`
	MACD                     MACDConfig `yaml:"macd"`
	MACDHistogramRisingBars  int        `yaml:"macd_histogram_rising_bars" validate:"gt=0"`
	VolumeWindow             int        `yaml:"volume_window" validate:"gt=0"`
	VolumeBreakoutMultiplier float64    `yaml:"volume_breakout_multiplier" validate:"gt=0"`
	ADXPeriod                int        `yaml:"adx_period" validate:"gt=0"`
	ADXMin                   float64    `yaml:"adx_min" validate:"gte=0"`
	PivotLookback            int        `yaml:"pivot_lookback" validate:"gt=0"`
	BreakoutNearPct          float64    `yaml:"breakout_near_pct" validate:"gt=0"`
	BreakoutWithinPct        float64    `yaml:"breakout_within_pct" validate:"gt=0"`
	MinPrice                 float64    `yaml:"min_price" validate:"gte=0"`
	MinDollarVolume20d       float64    `yaml:"min_dollar_volume_20d" validate:"gte=0"`
	Weights                  Weights    `yaml:"weights"`
	ScoreThreshold           float64    `yaml:"score_threshold" validate:"gte=0,lte=100"`
	TopN                     int        `yaml:"top_n" validate:"gte=1"`
	PatternBars              int        `yaml:"pattern_bars" validate:"gte=0"`
}

type RiskConfig struct {
	ATRWindow      int     `yaml:"atr_window" validate:"gt=0"`
	StopMultiplier float64 `yaml:"stop_multiplier" validate:"gt=0"`
	FixedTargetPct float64 `yaml:"fixed_target_pct" validate:"gt=0"`
	Stage1MinRR    float64 `yaml:"stage1_min_rr" validate:"gt=0"`
}

type ActionableConfig struct {
	Enabled   bool            `yaml:"enabled"`
	Risk      AccountRisk     `yaml:"risk"`
	Technical TechnicalConfig `yaml:"technical"`
	Liquidity LiquidityConfig `yaml:"liquidity"`
}

type AccountRisk struct {
	AccountSize         float64 `yaml:"account_size" validate:"gt=0"`
	RiskPercentPerTrade float64 `yaml:"risk_percent_per_trade" validate:"gt=0,lte=100"`
}

type TechnicalConfig struct {
	MinRR                      float64 `yaml:"min_rr" validate:"gt=0"`
	RequireRSISlopeNonNegative bool    `yaml:"require_rsi_slope_non_negative"`
	MinVolumeRatio             float64 `yaml:"min_volume_ratio" validate:"gte=0"`
	AllowVolumeRisingDays      int     `yaml:"allow_volume_rising_days" validate:"gte=1"`
	ATRMin                     float64 `yaml:"atr_min" validate:"gte=0"`
	MustHoldTrend              bool    `yaml:"must_hold_trend"`

	// Reserved: accepted but not evaluated.
	GapdownGuardPct              float64 `yaml:"gapdown_guard_pct"`
	EarningsLookaheadTradingDays int     `yaml:"earnings_lookahead_trading_days"`
}

type LiquidityConfig struct {
	MinPrice              float64 `yaml:"min_price" validate:"gte=0"`
	MinAvgDollarVolume20d float64 `yaml:"min_avg_dollar_volume_20d" validate:"gte=0"`
}

type ScanConfig struct {
	Workers int `yaml:"workers" validate:"gte=1"`
}

type ReadinessConfig struct {
	Enabled          bool   `yaml:"enabled"`
	OpenTime         string `yaml:"open_time" validate:"required"`
	CloseTime        string `yaml:"close_time" validate:"required"`
	BufferMinutes    int    `yaml:"buffer_minutes" validate:"gte=0"`
	StaleTradingDays int    `yaml:"stale_trading_days" validate:"gte=1"`
}

type NotificationsConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	Enabled    bool          `yaml:"enabled"`
	BaseURL    string        `yaml:"base_url" validate:"required,url"`
	BotToken   string        `yaml:"bot_token"`
	ChatID     string        `yaml:"chat_id"`
	Retries    int           `yaml:"retries" validate:"gte=1"`
	RetryDelay time.Duration `yaml:"retry_delay" validate:"gte=0"`
}

type ExportConfig struct {
	Dir  string `yaml:"dir" validate:"required"`
	CSV  bool   `yaml:"csv"`
	JSON bool   `yaml:"json"`
}

type SchedulerConfig struct {
	Cron string `yaml:"cron" validate:"required"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

type DBConfig struct {
	ConnStr string `yaml:"conn_str"`
	MaxOpen int    `yaml:"max_open" validate:"gte=1"`
	MaxIdle int    `yaml:"max_idle" validate:"gte=0"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"required"`
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		Timezone: "Europe/London",
		Universe: UniverseConfig{
			Lists: []string{"US_LIQUID_TECH"},
		},
		Data: DataConfig{
			Provider:      "alpaca",
			Interval:      "1d",
			LookbackDays:  200,
			BatchSize:     100,
			RetentionDays: 730,
			Alpaca: AlpacaConfig{
				BaseURL:           "https://data.alpaca.markets/v2",
				Feed:              "iex",
				Adjustment:        "raw",
				RequestsPerMinute: 200,
				Timeout:           30 * time.Second,
			},
			Yahoo: YahooConfig{RequestsPerSecond: 2},
		},
		Strategy: StrategyConfig{
			RSIPeriod:                14,
			RSIBand:                  RSIBand{Min: 50, Max: 65},
			RSISlopeEpsilon:          0.5,
			EMAFast:                  9,
			EMASlow:                  21,
			SMATrend:                 50,
			MACD:                     MACDConfig{Fast: 12, Slow: 26, Signal: 9},
			MACDHistogramRisingBars:  2,
			VolumeWindow:             20,
			VolumeBreakoutMultiplier: 1.5,
			ADXPeriod:                14,
			ADXMin:                   0,
			PivotLookback:            20,
			BreakoutNearPct:          2,
			BreakoutWithinPct:        5,
			MinPrice:                 5,
			MinDollarVolume20d:       10_000_000,
			Weights:                  Weights{EMA: 25, RSI: 20, MACD: 25, Volume: 20, Breakout: 10},
			ScoreThreshold:           60,
			TopN:                     15,
			PatternBars:              3,
		},
		Risk: RiskConfig{
			ATRWindow:      14,
			StopMultiplier: 1.0,
			FixedTargetPct: 0.07,
			Stage1MinRR:    1.5,
		},
		Actionable: ActionableConfig{
			Enabled: true,
			Risk: AccountRisk{
				AccountSize:         10_000,
				RiskPercentPerTrade: 1.0,
			},
			Technical: TechnicalConfig{
				MinRR:                        2.0,
				RequireRSISlopeNonNegative:   true,
				MinVolumeRatio:               1.2,
				AllowVolumeRisingDays:        3,
				ATRMin:                       1.0,
				MustHoldTrend:                true,
				GapdownGuardPct:              -1.5,
				EarningsLookaheadTradingDays: 7,
			},
			Liquidity: LiquidityConfig{
				MinPrice:              5,
				MinAvgDollarVolume20d: 10_000_000,
			},
		},
		Scan: ScanConfig{Workers: 8},
		Readiness: ReadinessConfig{
			Enabled:          true,
			OpenTime:         "14:30",
			CloseTime:        "21:00",
			BufferMinutes:    30,
			StaleTradingDays: 5,
		},
		Notifications: NotificationsConfig{
			Telegram: TelegramConfig{
				BaseURL:    "https://api.telegram.org",
				Retries:    3,
				RetryDelay: 5 * time.Second,
			},
		},
		Export: ExportConfig{
			Dir:  "./output",
			CSV:  true,
			JSON: true,
		},
		Scheduler: SchedulerConfig{Cron: "0 7 * * 1-5"},
		Logging:   LoggingConfig{Level: "info", Format: "console"},
		DB:        DBConfig{MaxOpen: 10, MaxIdle: 5},
		Metrics:   MetricsConfig{Addr: ":9108"},
	}
}

// Load merges the YAML file at path over Default, applies environment
// overrides (a .env file is read when present) and validates the result.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over Default without touching the environment.
func Parse(data []byte) (*Config, error) {
	var head struct {
		Universe *UniverseConfig `yaml:"universe"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := Default()
	// A universe block replaces the default list instead of adding to it.
	if head.Universe != nil {
		cfg.Universe = UniverseConfig{}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if val := os.Getenv("ALPACA_API_KEY"); val != "" {
		c.Data.Alpaca.APIKey = val
	}
	if val := os.Getenv("ALPACA_API_SECRET"); val != "" {
		c.Data.Alpaca.APISecret = val
	}
	if val := os.Getenv("TELEGRAM_BOT_TOKEN"); val != "" {
		c.Notifications.Telegram.BotToken = val
	}
	if val := os.Getenv("TELEGRAM_CHAT_ID"); val != "" {
		c.Notifications.Telegram.ChatID = val
	}
	if val := os.Getenv("DB_CONN_STR"); val != "" {
		c.DB.ConnStr = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Logging.Level = strings.ToLower(val)
	}
	if val := os.Getenv("SCAN_WORKERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Scan.Workers = n
		}
	}
}

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate runs the struct tag rules and the cross-field checks and returns a
// *ValidationError carrying all problems, or nil.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate config: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	s := c.Strategy
	if s.RSIBand.Min > s.RSIBand.Max {
		problems = append(problems, fmt.Sprintf("strategy.rsi_band: min (%v) must be <= max (%v)", s.RSIBand.Min, s.RSIBand.Max))
	}
	if s.EMAFast >= s.EMASlow {
		problems = append(problems, fmt.Sprintf("strategy.ema_fast (%d) must be < ema_slow (%d)", s.EMAFast, s.EMASlow))
	}
	if s.MACD.Fast >= s.MACD.Slow {
		problems = append(problems, fmt.Sprintf("strategy.macd.fast (%d) must be < slow (%d)", s.MACD.Fast, s.MACD.Slow))
	}
	if s.Weights.Sum() <= 0 {
		problems = append(problems, "strategy.weights must not all be zero")
	}
	if s.BreakoutNearPct > s.BreakoutWithinPct {
		problems = append(problems, "strategy.breakout_near_pct must be <= breakout_within_pct")
	}
	if c.Data.FallbackProvider != "" && c.Data.FallbackProvider == c.Data.Provider {
		problems = append(problems, "data.fallback_provider must differ from data.provider")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("timezone %q: %v", c.Timezone, err))
	}
	if _, err := time.Parse("15:04", c.Readiness.OpenTime); err != nil {
		problems = append(problems, fmt.Sprintf("readiness.open_time %q must be HH:MM", c.Readiness.OpenTime))
	}
	if _, err := time.Parse("15:04", c.Readiness.CloseTime); err != nil {
		problems = append(problems, fmt.Sprintf("readiness.close_time %q must be HH:MM", c.Readiness.CloseTime))
	}

	symbols, err := c.Symbols()
	if err != nil {
		problems = append(problems, err.Error())
	} else if len(symbols) == 0 {
		problems = append(problems, "universe is empty: set universe.lists or universe.custom_symbols")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s must satisfy %s=%s (got %v)", ns, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s must satisfy %s (got %v)", ns, fe.Tag(), fe.Value())
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Symbols resolves the scan universe.
func (c *Config) Symbols() ([]string, error) {
	return Universe(c.Universe.Lists, c.Universe.CustomSymbols)
}
