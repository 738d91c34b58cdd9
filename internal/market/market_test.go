package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/cryptonews/internal/cache"
)

const tickersJSON = `[
  {"symbol":"btc","name":"Bitcoin","quotes":{"USD":{"price":64123.456,"percent_change_24h":2.5,"market_cap":1260000000000}}},
  {"symbol":"eth","name":"Ethereum","quotes":{"USD":{"price":3100.1,"percent_change_24h":-1.25,"market_cap":370000000000}}},
  {"symbol":"usdt","name":"Tether","quotes":{"USD":{"price":1,"percent_change_24h":0,"market_cap":110000000000}}}
]`

func TestPricesParsesAndLimits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(tickersJSON))
	}))
	defer srv.Close()

	client := NewPriceClient(srv.URL, 2, 5*time.Second, nil, 0, zerolog.Nop())
	prices, err := client.Prices(context.Background())
	require.NoError(t, err)
	require.Len(t, prices, 2)

	assert.Equal(t, "BTC", prices[0].Symbol)
	assert.Equal(t, "Bitcoin", prices[0].Name)
	assert.True(t, prices[0].PriceUSD.Equal(decimal.RequireFromString("64123.456")))
	assert.True(t, prices[0].Up())
	assert.Equal(t, "ETH", prices[1].Symbol)
	assert.False(t, prices[1].Up())
}

func TestPricesNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewPriceClient(srv.URL, 15, 5*time.Second, nil, 0, zerolog.Nop()).Prices(context.Background())
	assert.Error(t, err)
}

func TestPricesCached(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(tickersJSON))
	}))
	defer srv.Close()

	c := cache.New[[]PriceSnapshot](0)
	defer c.Close()
	client := NewPriceClient(srv.URL, 15, 5*time.Second, c, time.Minute, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := client.Prices(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestZeroChangeIsNotUp(t *testing.T) {
	assert.False(t, PriceSnapshot{Change24hPct: decimal.Zero}.Up())
}

func TestCandles(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		_, _ = w.Write([]byte(`[
			[1700000000000,"100.0","110.0","90.0","105.5","12.5",1700003599999,"0",10,"0","0","0"],
			[1700003600000,"105.5","120.0","100.0","118.0","8.0",1700007199999,"0",10,"0","0","0"]
		]`))
	}))
	defer srv.Close()

	client := NewCandleClient(srv.URL, 5*time.Second, zerolog.Nop())
	candles, err := client.Candles(context.Background(), "BTCUSDT", "1h", 100)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, Candle{Time: 1700000000, Open: 100, High: 110, Low: 90, Close: 105.5, Volume: 12.5}, candles[0])
	assert.Equal(t, 118.0, candles[1].Close)
	assert.Contains(t, gotQuery, "symbol=BTCUSDT")
	assert.Contains(t, gotQuery, "interval=1h")
	assert.Contains(t, gotQuery, "limit=100")
}

func TestCandlesErrors(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer empty.Close()

	_, err := NewCandleClient(empty.URL, 5*time.Second, zerolog.Nop()).Candles(context.Background(), "BTCUSDT", "1h", 100)
	assert.ErrorIs(t, err, ErrNoCandles)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer failing.Close()

	_, err = NewCandleClient(failing.URL, 5*time.Second, zerolog.Nop()).Candles(context.Background(), "NOPEUSDT", "1h", 100)
	assert.Error(t, err)
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"1", "1.00"},
		{"999.999", "1,000.00"},
		{"1234.5", "1,234.50"},
		{"64123.456", "64,123.46"},
		{"1234567.891", "1,234,567.89"},
		{"-1234.5", "-1,234.50"},
		{"0.0001", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUSD(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "-3.00", FormatPercent(decimal.NewFromInt(-3)))
	assert.Equal(t, "2.46", FormatPercent(decimal.RequireFromString("2.456")))
}
