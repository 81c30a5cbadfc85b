package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/amirphl/swing-scanner/internal/candle"
	"github.com/amirphl/swing-scanner/internal/config"
	"github.com/amirphl/swing-scanner/internal/tfutils"
	"github.com/amirphl/swing-scanner/internal/utils"
)

// Free-tier data is delayed; asking for anything newer is rejected.
const alpacaDelay = 15 * time.Minute

// Alpaca fetches bars from the Alpaca market data v2 REST API. All symbols of
// a batch go into one multi-symbol request, paginated with page_token.
type Alpaca struct {
	client     *resty.Client
	feed       string
	adjustment string
	guard      *guard
	retryDelay time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

type alpacaBar struct {
	T time.Time `json:"t"`
	O float64   `json:"o"`
	H float64   `json:"h"`
	L float64   `json:"l"`
	C float64   `json:"c"`
	V float64   `json:"v"`
}

type alpacaBarsPage struct {
	Bars          map[string][]alpacaBar `json:"bars"`
	NextPageToken *string                `json:"next_page_token"`
}

func NewAlpaca(cfg config.AlpacaConfig) (*Alpaca, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("alpaca: %w (set ALPACA_API_KEY and ALPACA_API_SECRET)", ErrMissingCredentials)
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("APCA-API-KEY-ID", cfg.APIKey)
	client.SetHeader("APCA-API-SECRET-KEY", cfg.APISecret)
	client.SetHeader("Accept", "application/json")

	log := utils.Component("Alpaca")
	perSecond := rate.Limit(float64(cfg.RequestsPerMinute) / 60)
	return &Alpaca{
		client:     client,
		feed:       cfg.Feed,
		adjustment: cfg.Adjustment,
		guard:      newGuard("alpaca", perSecond, 1, log),
		retryDelay: time.Second,
		now:        time.Now,
		log:        log,
	}, nil
}

func (a *Alpaca) Name() string { return "alpaca" }

func (a *Alpaca) GetBarsBatch(ctx context.Context, symbols []string, interval string, lookback int) (map[string][]candle.Candle, error) {
	symbols = NormalizeSymbols(symbols)
	if len(symbols) == 0 {
		return map[string][]candle.Candle{}, nil
	}

	timeframe, err := tfutils.AlpacaTimeframe(interval)
	if err != nil {
		return nil, err
	}
	end := a.now().UTC().Add(-alpacaDelay)
	start, err := tfutils.LookbackStart(end, interval, lookback)
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"symbols":   strings.Join(symbols, ","),
		"timeframe": timeframe,
		"start":     start.Format(time.RFC3339),
		"end":       end.Format(time.RFC3339),
		"limit":     "10000",
	}
	if a.feed != "" {
		params["feed"] = a.feed
	}
	if a.adjustment != "" {
		params["adjustment"] = a.adjustment
	}

	bars := make(map[string][]candle.Candle, len(symbols))
	pages := 0
	for {
		page, err := a.fetchPage(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("alpaca: fetching bars page %d: %w", pages+1, err)
		}
		pages++

		for sym, list := range page.Bars {
			sym = strings.ToUpper(sym)
			for _, b := range list {
				bars[sym] = append(bars[sym], candle.Candle{
					Timestamp: b.T.UTC(),
					Open:      b.O,
					High:      b.H,
					Low:       b.L,
					Close:     b.C,
					Volume:    b.V,
					Symbol:    sym,
					Timeframe: interval,
					Source:    a.Name(),
				})
			}
		}

		if page.NextPageToken == nil || *page.NextPageToken == "" {
			break
		}
		params["page_token"] = *page.NextPageToken
	}

	out := finish(bars, lookback)
	a.log.Debug().
		Int("requested", len(symbols)).
		Int("returned", len(out)).
		Int("pages", pages).
		Msg("Fetched bars")
	return out, nil
}

func (a *Alpaca) fetchPage(ctx context.Context, params map[string]string) (*alpacaBarsPage, error) {
	query := make(map[string]string, len(params))
	for k, v := range params {
		query[k] = v
	}

	var page alpacaBarsPage
	err := retry(ctx, 3, a.retryDelay, a.log, func() error {
		return a.guard.do(ctx, func() error {
			resp, err := a.client.R().
				SetContext(ctx).
				SetQueryParams(query).
				Get("/stocks/bars")
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}

			switch resp.StatusCode() {
			case http.StatusOK:
			case http.StatusTooManyRequests:
				return ErrRateLimited
			case http.StatusUnauthorized, http.StatusForbidden:
				return ErrUnauthorized
			default:
				return fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String())
			}

			page = alpacaBarsPage{}
			if err := json.Unmarshal(resp.Body(), &page); err != nil {
				return fmt.Errorf("failed to parse bars response: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}
