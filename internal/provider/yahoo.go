package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/amirphl/swing-scanner/internal/candle"
	"github.com/amirphl/swing-scanner/internal/config"
	"github.com/amirphl/swing-scanner/internal/tfutils"
	"github.com/amirphl/swing-scanner/internal/utils"
)

// chartFunc fetches the bars of one symbol between start and end.
type chartFunc func(symbol, interval string, start, end time.Time) ([]candle.Candle, error)

// Yahoo fetches bars from the Yahoo chart API one symbol at a time. A symbol
// that fails is logged and left out; the batch itself only fails when ctx does.
type Yahoo struct {
	chart      chartFunc
	guard      *guard
	retryDelay time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

func NewYahoo(cfg config.YahooConfig) *Yahoo {
	log := utils.Component("Yahoo")
	return &Yahoo{
		chart:      yahooChart,
		guard:      newGuard("yahoo", rate.Limit(cfg.RequestsPerSecond), 1, log),
		retryDelay: 500 * time.Millisecond,
		now:        time.Now,
		log:        log,
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

func (y *Yahoo) GetBarsBatch(ctx context.Context, symbols []string, interval string, lookback int) (map[string][]candle.Candle, error) {
	symbols = NormalizeSymbols(symbols)
	end := y.now().UTC()
	start, err := tfutils.LookbackStart(end, interval, lookback)
	if err != nil {
		return nil, err
	}

	bars := make(map[string][]candle.Candle, len(symbols))
	for _, sym := range symbols {
		var got []candle.Candle
		err := retry(ctx, 2, y.retryDelay, y.log, func() error {
			return y.guard.do(ctx, func() error {
				var err error
				got, err = y.chart(sym, interval, start, end)
				return err
			})
		})
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			y.log.Warn().Str("symbol", sym).Err(err).Msg("Failed to fetch bars")
			continue
		}
		for i := range got {
			got[i].Symbol = sym
			got[i].Timeframe = interval
			got[i].Source = y.Name()
		}
		bars[sym] = got
	}
	return finish(bars, lookback), nil
}

func yahooChart(symbol, interval string, start, end time.Time) ([]candle.Candle, error) {
	iter := chart.Get(&chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.Interval(interval),
	})

	var out []candle.Candle
	for iter.Next() {
		bar := iter.Bar()
		out = append(out, candle.Candle{
			Timestamp: time.Unix(int64(bar.Timestamp), 0).UTC(),
			Open:      bar.Open.InexactFloat64(),
			High:      bar.High.InexactFloat64(),
			Low:       bar.Low.InexactFloat64(),
			Close:     bar.Close.InexactFloat64(),
			Volume:    float64(bar.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to get chart for %s: %w", symbol, err)
	}
	return out, nil
}
