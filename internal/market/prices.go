package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/deusflow/cryptonews/internal/cache"
)

const DefaultCoinpaprikaURL = "https://api.coinpaprika.com/v1/tickers?quotes=USD"

// PriceSnapshot is one ranked coin quote.
type PriceSnapshot struct {
	Symbol       string
	Name         string
	PriceUSD     decimal.Decimal
	Change24hPct decimal.Decimal
	MarketCapUSD decimal.Decimal
}

// Up reports whether the 24h change is strictly positive.
func (p PriceSnapshot) Up() bool {
	return p.Change24hPct.IsPositive()
}

type paprikaTicker struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Quotes struct {
		USD struct {
			Price            decimal.Decimal `json:"price"`
			PercentChange24h decimal.Decimal `json:"percent_change_24h"`
			MarketCap        decimal.Decimal `json:"market_cap"`
		} `json:"USD"`
	} `json:"quotes"`
}

// PriceClient fetches ranked tickers from Coinpaprika.
type PriceClient struct {
	apiURL     string
	limit      int
	httpClient *http.Client
	cache      *cache.Cache[[]PriceSnapshot]
	cacheTTL   time.Duration
	logger     zerolog.Logger
}

// NewPriceClient creates a client returning at most limit snapshots. A nil
// cache or zero ttl disables caching.
func NewPriceClient(apiURL string, limit int, timeout time.Duration, c *cache.Cache[[]PriceSnapshot], ttl time.Duration, logger zerolog.Logger) *PriceClient {
	if apiURL == "" {
		apiURL = DefaultCoinpaprikaURL
	}
	return &PriceClient{
		apiURL:     apiURL,
		limit:      limit,
		httpClient: &http.Client{Timeout: timeout},
		cache:      c,
		cacheTTL:   ttl,
		logger:     logger,
	}
}

// Prices returns the first snapshots in provider rank order.
func (p *PriceClient) Prices(ctx context.Context) ([]PriceSnapshot, error) {
	if p.cache != nil && p.cacheTTL > 0 {
		if cached, ok := p.cache.Get(p.apiURL); ok {
			return cached, nil
		}
	}

	prices, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if p.cache != nil && p.cacheTTL > 0 {
		p.cache.Set(p.apiURL, prices, p.cacheTTL)
	}
	p.logger.Info().Int("coins", len(prices)).Msg("Prices fetched")
	return prices, nil
}

func (p *PriceClient) fetch(ctx context.Context) ([]PriceSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coinpaprika request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coinpaprika: unexpected status code: %d", resp.StatusCode)
	}

	var tickers []paprikaTicker
	if err := json.NewDecoder(resp.Body).Decode(&tickers); err != nil {
		return nil, fmt.Errorf("coinpaprika: decoding tickers: %w", err)
	}

	if p.limit > 0 && len(tickers) > p.limit {
		tickers = tickers[:p.limit]
	}

	prices := make([]PriceSnapshot, 0, len(tickers))
	for _, t := range tickers {
		prices = append(prices, PriceSnapshot{
			Symbol:       strings.ToUpper(t.Symbol),
			Name:         t.Name,
			PriceUSD:     t.Quotes.USD.Price,
			Change24hPct: t.Quotes.USD.PercentChange24h,
			MarketCapUSD: t.Quotes.USD.MarketCap,
		})
	}
	return prices, nil
}
