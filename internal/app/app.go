// Package app wires the bot services together and runs them.
package app

import (
	"context"
	"fmt"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/rs/zerolog"

	"github.com/deusflow/cryptonews/internal/analysis"
	"github.com/deusflow/cryptonews/internal/bot"
	"github.com/deusflow/cryptonews/internal/cache"
	"github.com/deusflow/cryptonews/internal/chart"
	"github.com/deusflow/cryptonews/internal/config"
	"github.com/deusflow/cryptonews/internal/llm"
	"github.com/deusflow/cryptonews/internal/market"
	"github.com/deusflow/cryptonews/internal/news"
	"github.com/deusflow/cryptonews/internal/ratelimit"
	"github.com/deusflow/cryptonews/internal/rss"
	"github.com/deusflow/cryptonews/internal/storage"
	"github.com/deusflow/cryptonews/internal/telegram"
	"github.com/deusflow/cryptonews/internal/translate"
)

const priceCacheSweep = time.Minute

// App owns every long-lived service behind the router.
type App struct {
	cfg    *config.Config
	logger zerolog.Logger

	Router *bot.Router

	ai         llm.Client
	limiter    *ratelimit.AIRateLimiter
	store      storage.PreferenceStore
	priceCache *cache.Cache[[]market.PriceSnapshot]
	recency    *news.RecencyCache
}

// New builds the service graph. Network clients are created lazily by their
// libraries, so New only touches local files and the preference store.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	feeds, err := rss.LoadFeeds(cfg.FeedsConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load feeds: %w", err)
	}
	logger.Info().Int("feeds", len(feeds.Feeds)).Str("path", cfg.FeedsConfigPath).Msg("Feeds loaded")

	a.ai, err = llm.New(ctx, cfg.AIProvider, cfg.AIModel, cfg.APIKey())
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}
	a.limiter = ratelimit.NewAIRateLimiter(cfg.MaxAIRequests, cfg.AIRequestsPerMinute)
	gen := llm.NewGuarded(a.ai, a.limiter, cfg.HTTPTimeout)

	a.recency = news.NewRecencyCache(cfg.NewsCacheSize, cfg.NewsCacheFile)
	if err := a.recency.Load(); err != nil {
		logger.Warn().Err(err).Msg("Failed to load news cache, starting empty")
	}

	a.store, err = storage.Open(cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		a.ai.Close()
		return nil, fmt.Errorf("failed to open preference store: %w", err)
	}
	logger.Info().Str("driver", cfg.StoreDriver).Msg("Preference store opened")

	aggregator := news.NewAggregator(
		feeds,
		rss.NewFetcher(cfg.HTTPTimeout, logger),
		translate.New(gen, logger),
		a.recency,
		logger,
	)

	a.priceCache = cache.New[[]market.PriceSnapshot](priceCacheSweep)
	prices := market.NewPriceClient(market.DefaultCoinpaprikaURL, cfg.PriceLimit, cfg.HTTPTimeout,
		a.priceCache, cfg.PriceCacheTTL, logger)

	a.Router = bot.NewRouter(
		a.store,
		aggregator,
		analysis.New(gen, logger),
		prices,
		market.NewCandleClient("", cfg.HTTPTimeout, logger),
		chart.New(cfg.ChartDir, logger),
		bot.Options{
			QuoteAsset:      cfg.QuoteAsset,
			CandleLimit:     cfg.CandleLimit,
			DonationAddress: cfg.DonationAddress,
		},
		logger,
	)
	return a, nil
}

// Close releases the store, the AI client and the price cache sweeper.
func (a *App) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close preference store")
	}
	if err := a.ai.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close AI client")
	}
	a.priceCache.Close()
}

// Run starts the bot and blocks until ctx is cancelled. forcePolling
// overrides the configured BOT_MODE.
func Run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, forcePolling bool) error {
	a, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var opts []tgbot.Option
	if cfg.WebhookSecret != "" {
		opts = append(opts, tgbot.WithWebhookSecretToken(cfg.WebhookSecret))
	}
	b, err := telegram.NewBot(cfg.TelegramToken, a.Router, logger, opts...)
	if err != nil {
		return err
	}

	if cfg.EnableMonitoring {
		go startMonitoringServer(ctx, ":"+cfg.MonitoringPort, newMonitoringMux(a.limiter), logger)
	}

	if forcePolling || cfg.BotMode == "polling" {
		return b.RunPolling(ctx)
	}
	return b.RunWebhook(ctx, ":"+cfg.Port, cfg.WebhookURL, cfg.WebhookSecret)
}
