package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/rs/zerolog"
)

// ErrNoCandles is returned when the provider answers with an empty series.
var ErrNoCandles = errors.New("no candles returned")

// Candle is one OHLCV bar keyed by its open time.
type Candle struct {
	Time   int64 // epoch seconds
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// CandleClient reads spot klines from Binance.
type CandleClient struct {
	client *binance.Client
	logger zerolog.Logger
}

// NewCandleClient creates a public (unauthenticated) klines client. baseURL
// overrides the Binance endpoint when non-empty.
func NewCandleClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *CandleClient {
	client := binance.NewClient("", "")
	client.HTTPClient = &http.Client{Timeout: timeout}
	if baseURL != "" {
		client.BaseURL = baseURL
	}
	return &CandleClient{client: client, logger: logger}
}

// Candles returns up to limit candles for symbol, oldest first.
func (c *CandleClient) Candles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error) {
	data, err := c.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s %s: %w", symbol, interval, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w for %s %s", ErrNoCandles, symbol, interval)
	}

	candles := make([]Candle, 0, len(data))
	for _, d := range data {
		candles = append(candles, convertKlineToCandle(*d))
	}
	c.logger.Debug().Str("symbol", symbol).Str("interval", interval).Int("candles", len(candles)).Msg("Candles fetched")
	return candles, nil
}

func convertKlineToCandle(k binance.Kline) Candle {
	candle := Candle{Time: k.OpenTime / 1000}

	candle.Open, _ = strconv.ParseFloat(k.Open, 64)
	candle.High, _ = strconv.ParseFloat(k.High, 64)
	candle.Low, _ = strconv.ParseFloat(k.Low, 64)
	candle.Close, _ = strconv.ParseFloat(k.Close, 64)
	candle.Volume, _ = strconv.ParseFloat(k.Volume, 64)

	return candle
}
