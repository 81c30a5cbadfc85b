package db

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/swing-scanner/internal/candle"
	"github.com/amirphl/swing-scanner/internal/db/conf"
)

var candleColumns = []string{"timestamp", "open", "high", "low", "close", "volume", "symbol", "timeframe", "source"}

func newMockStorage(t *testing.T) (*Default, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	s, err := New(conf.Config{DB: sqlDB})
	require.NoError(t, err)
	return s, mock
}

func testCandle(symbol string, day int, close float64) candle.Candle {
	return candle.Candle{
		Timestamp: time.Date(2024, 3, day, 21, 0, 0, 0, time.UTC),
		Open:      close,
		High:      close + 1,
		Low:       close - 1,
		Close:     close,
		Volume:    1_000_000,
		Symbol:    symbol,
		Timeframe: "1d",
		Source:    "alpaca",
	}
}

func TestNew_RequiresHandle(t *testing.T) {
	_, err := New(conf.Config{})
	assert.Error(t, err)
}

func TestSaveCandles(t *testing.T) {
	s, mock := newMockStorage(t)
	candles := []candle.Candle{testCandle("aapl", 4, 170), testCandle("AAPL", 5, 171)}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO candles"))
	prep.ExpectExec().
		WithArgs("AAPL", "1d", sqlmock.AnyArg(), 170.0, 171.0, 169.0, 170.0, 1_000_000.0, "alpaca").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("AAPL", "1d", sqlmock.AnyArg(), 171.0, 172.0, 170.0, 171.0, 1_000_000.0, "alpaca").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.SaveCandles(context.Background(), candles))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveCandles_RollsBackOnError(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO candles")).
		ExpectExec().
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := s.SaveCandles(context.Background(), []candle.Candle{testCandle("MSFT", 4, 400)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveCandles_ValidatesFirst(t *testing.T) {
	s, mock := newMockStorage(t)
	bad := testCandle("MSFT", 4, 400)
	bad.High = 1

	err := s.SaveCandles(context.Background(), []candle.Candle{testCandle("MSFT", 3, 400), bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index 1")
	assert.NoError(t, mock.ExpectationsWereMet(), "nothing is written")
}

func TestSaveCandles_UsesContextTransaction(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO candles")).
		ExpectExec().
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := s.GetDB().Begin()
	require.NoError(t, err)
	ctx := WithTransaction(context.Background(), tx)
	require.Same(t, tx, GetTransaction(ctx))

	require.NoError(t, s.SaveCandles(ctx, []candle.Candle{testCandle("NVDA", 4, 900)}))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCandles(t *testing.T) {
	s, mock := newMockStorage(t)
	a, b := testCandle("AMD", 4, 180), testCandle("AMD", 5, 182)

	mock.ExpectQuery(regexp.QuoteMeta("FROM candles")).
		WithArgs("AMD", "1d", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(candleColumns).
			AddRow(a.Timestamp, a.Open, a.High, a.Low, a.Close, a.Volume, a.Symbol, a.Timeframe, a.Source).
			AddRow(b.Timestamp, b.Open, b.High, b.Low, b.Close, b.Volume, b.Symbol, b.Timeframe, b.Source))

	got, err := s.GetCandles(context.Background(), "amd", "1d", a.Timestamp, b.Timestamp.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []candle.Candle{a, b}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestCandle(t *testing.T) {
	s, mock := newMockStorage(t)
	c := testCandle("META", 8, 500)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY timestamp DESC LIMIT 1")).
		WithArgs("META", "1d").
		WillReturnRows(sqlmock.NewRows(candleColumns).
			AddRow(c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume, c.Symbol, c.Timeframe, c.Source))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY timestamp DESC LIMIT 1")).
		WithArgs("NONE", "1d").
		WillReturnRows(sqlmock.NewRows(candleColumns))

	got, err := s.GetLatestCandle(context.Background(), "META", "1d")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c, *got)

	got, err = s.GetLatestCandle(context.Background(), "NONE", "1d")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestCandles(t *testing.T) {
	s, mock := newMockStorage(t)
	a1, a2 := testCandle("AAPL", 4, 170), testCandle("AAPL", 5, 171)
	m1 := testCandle("MSFT", 5, 400)

	mock.ExpectQuery(regexp.QuoteMeta("ROW_NUMBER() OVER (PARTITION BY symbol ORDER BY timestamp DESC)")).
		WithArgs(sqlmock.AnyArg(), "1d", int64(2)).
		WillReturnRows(sqlmock.NewRows(candleColumns).
			AddRow(a1.Timestamp, a1.Open, a1.High, a1.Low, a1.Close, a1.Volume, a1.Symbol, a1.Timeframe, a1.Source).
			AddRow(a2.Timestamp, a2.Open, a2.High, a2.Low, a2.Close, a2.Volume, a2.Symbol, a2.Timeframe, a2.Source).
			AddRow(m1.Timestamp, m1.Open, m1.High, m1.Low, m1.Close, m1.Volume, m1.Symbol, m1.Timeframe, m1.Source))

	got, err := s.GetLatestCandles(context.Background(), []string{"aapl", "msft", "tsla"}, "1d", 2)
	require.NoError(t, err)
	assert.Equal(t, map[string][]candle.Candle{
		"AAPL": {a1, a2},
		"MSFT": {m1},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestCandles_EmptyInputSkipsQuery(t *testing.T) {
	s, mock := newMockStorage(t)

	got, err := s.GetLatestCandles(context.Background(), nil, "1d", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.GetLatestCandles(context.Background(), []string{"AAPL"}, "1d", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCandles(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM candles")).
		WithArgs("AAPL", "1d", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectCommit()

	require.NoError(t, s.DeleteCandles(context.Background(), "aapl", "1d", time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
