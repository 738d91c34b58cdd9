package bot

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/deusflow/cryptonews/internal/analysis"
	"github.com/deusflow/cryptonews/internal/market"
	"github.com/deusflow/cryptonews/internal/metrics"
	"github.com/deusflow/cryptonews/internal/news"
	"github.com/deusflow/cryptonews/internal/storage"
)

const defaultInterval = "1h"

// Reply is one outbound message. Photo, when set, is sent with Caption
// instead of Text.
type Reply struct {
	Text     string
	Photo    []byte
	Caption  string
	Keyboard *Keyboard
	Markdown bool
}

type NewsFetcher interface {
	FetchNext(ctx context.Context, lang string) news.NewsItem
}

type Analyzer interface {
	Analyze(ctx context.Context, text, lang string) string
}

type PriceSource interface {
	Prices(ctx context.Context) ([]market.PriceSnapshot, error)
}

type CandleSource interface {
	Candles(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error)
}

type ChartRenderer interface {
	Render(symbol, interval string, candles []market.Candle) (string, error)
}

type PreferenceStore interface {
	Get(ctx context.Context, userID string) (storage.UserPreferences, error)
	Put(ctx context.Context, userID string, prefs storage.UserPreferences) error
}

type Options struct {
	QuoteAsset      string
	CandleLimit     int
	DonationAddress string
}

// Router turns one inbound message into the replies to send.
type Router struct {
	store    PreferenceStore
	news     NewsFetcher
	analyzer Analyzer
	prices   PriceSource
	candles  CandleSource
	charts   ChartRenderer
	opts     Options
	logger   zerolog.Logger
}

func NewRouter(store PreferenceStore, newsFetcher NewsFetcher, analyzer Analyzer, prices PriceSource,
	candles CandleSource, charts ChartRenderer, opts Options, logger zerolog.Logger) *Router {
	if opts.QuoteAsset == "" {
		opts.QuoteAsset = "USDT"
	}
	if opts.CandleLimit <= 0 {
		opts.CandleLimit = 100
	}
	return &Router{
		store:    store,
		news:     newsFetcher,
		analyzer: analyzer,
		prices:   prices,
		candles:  candles,
		charts:   charts,
		opts:     opts,
		logger:   logger,
	}
}

// Handle never fails: every downstream error becomes a localized reply.
func (r *Router) Handle(ctx context.Context, userID, text string) []Reply {
	start := time.Now()
	defer func() { metrics.Global.RecordHandlingTime(time.Since(start)) }()
	metrics.Global.IncrementMessagesHandled()

	cmd, args := Resolve(text)
	log := r.logger.With().
		Str("request_id", uuid.NewString()).
		Str("user_id", userID).
		Stringer("command", cmd).
		Logger()

	prefs, err := r.store.Get(ctx, userID)
	loaded := err == nil
	if !loaded {
		log.Error().Err(err).Msg("Failed to load preferences, using defaults without saving")
		prefs = storage.DefaultPreferences()
	}
	// Defaults must never overwrite a record that could not be read.
	save := func(p storage.UserPreferences) {
		if loaded {
			r.save(ctx, log, userID, p)
		}
	}

	if cmd == CmdChooseLanguage {
		prefs.Language = args[0]
		save(prefs)
		return one(localize(prefs.Language, msgLanguageSet), mainKeyboard(prefs.Language))
	}

	if prefs.Language == "" {
		save(prefs)
		return []Reply{{Text: languagePrompt, Keyboard: languageKeyboard}}
	}
	lang := prefs.Language
	log.Debug().Str("lang", lang).Msg("Handling message")

	switch cmd {
	case CmdLatestNews:
		return r.latestNews(ctx, lang)
	case CmdMarketAnalysis:
		return r.marketAnalysis(ctx, lang)
	case CmdPrices:
		return one(r.priceList(ctx, log, lang), mainKeyboard(lang))
	case CmdChart:
		return []Reply{r.chart(ctx, log, lang, args)}
	case CmdSettings:
		return one(localize(lang, msgSettings), settingsKeyboard(lang))
	case CmdChangeLanguage:
		prefs.Language = otherLanguage(lang)
		save(prefs)
		return one(localize(prefs.Language, msgLanguageChanged), mainKeyboard(prefs.Language))
	case CmdNotifications:
		prefs.Notifications = !prefs.Notifications
		save(prefs)
		m := msgNotificationsOff
		if prefs.Notifications {
			m = msgNotificationsOn
		}
		return one(localize(lang, m), mainKeyboard(lang))
	case CmdBack:
		return one(localize(lang, msgMainMenu), mainKeyboard(lang))
	case CmdDonate:
		return []Reply{{
			Text:     fmt.Sprintf(localize(lang, msgDonate), r.opts.DonationAddress),
			Keyboard: mainKeyboard(lang),
			Markdown: true,
		}}
	default:
		return one(localize(lang, msgFallback), mainKeyboard(lang))
	}
}

func (r *Router) latestNews(ctx context.Context, lang string) []Reply {
	item := r.news.FetchNext(ctx, lang)
	commentary := r.analyzer.Analyze(ctx, item.Title+" "+item.Summary, lang)

	body := fmt.Sprintf("📰 %s: %s\n📝 %s: %s\n🔗 %s",
		localize(lang, msgNewsLabelTitle), item.Title,
		localize(lang, msgNewsLabelSummary), item.Summary,
		item.Link)

	return []Reply{
		{Text: body},
		{Text: fmt.Sprintf(localize(lang, msgAnalysisHeader), commentary), Keyboard: mainKeyboard(lang)},
	}
}

func (r *Router) marketAnalysis(ctx context.Context, lang string) []Reply {
	first := r.news.FetchNext(ctx, lang)
	second := r.news.FetchNext(ctx, lang)

	var up, down int
	if prices, err := r.prices.Prices(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("Prices unavailable for market analysis")
	} else {
		up, down = analysis.Tally(prices)
	}

	commentary := r.analyzer.Analyze(ctx, analysis.MarketBlob(first, second, up, down), lang)
	return one(fmt.Sprintf(localize(lang, msgMarketAnalysis), commentary, up, down), mainKeyboard(lang))
}

func (r *Router) priceList(ctx context.Context, log zerolog.Logger, lang string) string {
	prices, err := r.prices.Prices(ctx)
	if err != nil || len(prices) == 0 {
		log.Error().Err(err).Msg("Price fetch failed")
		return localize(lang, msgPricesError)
	}

	lines := make([]string, 0, len(prices)+1)
	lines = append(lines, localize(lang, msgPricesHeader))
	for i, p := range prices {
		marker := "🔴"
		if p.Up() {
			marker = "🟢"
		}
		lines = append(lines, fmt.Sprintf("%d. %s (%s): $%s %s %s%%",
			i+1, p.Name, p.Symbol, market.FormatUSD(p.PriceUSD), marker, market.FormatPercent(p.Change24hPct)))
	}
	return strings.Join(lines, "\n")
}

// ChartSymbol uppercases raw and appends quote unless already present.
func ChartSymbol(raw, quote string) string {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	quote = strings.ToUpper(quote)
	if !strings.HasSuffix(symbol, quote) {
		symbol += quote
	}
	return symbol
}

func (r *Router) chart(ctx context.Context, log zerolog.Logger, lang string, args []string) Reply {
	if len(args) == 0 {
		return Reply{Text: localize(lang, msgChartUsage), Keyboard: mainKeyboard(lang)}
	}

	symbol := ChartSymbol(args[0], r.opts.QuoteAsset)
	interval := defaultInterval
	if len(args) > 1 {
		interval = args[1]
	}
	failed := Reply{Text: localize(lang, msgChartError), Keyboard: mainKeyboard(lang)}
	log = log.With().Str("symbol", symbol).Str("interval", interval).Logger()

	candles, err := r.candles.Candles(ctx, symbol, interval, r.opts.CandleLimit)
	if err != nil {
		log.Error().Err(err).Msg("Candle fetch failed")
		return failed
	}

	path, err := r.charts.Render(symbol, interval, candles)
	if err != nil {
		log.Error().Err(err).Msg("Chart rendering failed")
		return failed
	}
	defer os.Remove(path)

	img, err := os.ReadFile(path)
	if err != nil || len(img) == 0 {
		log.Error().Err(err).Str("path", path).Msg("Chart file unreadable")
		return failed
	}

	return Reply{
		Photo:    img,
		Caption:  fmt.Sprintf("%s Chart (%s)", symbol, interval),
		Keyboard: mainKeyboard(lang),
	}
}

func (r *Router) save(ctx context.Context, log zerolog.Logger, userID string, prefs storage.UserPreferences) {
	if err := r.store.Put(ctx, userID, prefs); err != nil {
		log.Error().Err(err).Msg("Failed to save preferences")
	}
}

func one(text string, kb *Keyboard) []Reply {
	return []Reply{{Text: text, Keyboard: kb}}
}
