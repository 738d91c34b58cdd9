package news

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/deusflow/cryptonews/internal/metrics"
	"github.com/deusflow/cryptonews/internal/rss"
	"github.com/deusflow/cryptonews/internal/sanitize"
	"github.com/deusflow/cryptonews/internal/translate"
)

// NewsItem is one article ready for delivery. An empty Link marks either the
// "not found" sentinel or an entry without a link; neither is ever cached.
type NewsItem struct {
	Title       string
	Summary     string
	Link        string
	PublishedAt string
}

var notFoundTitles = map[string]string{
	"fa": "اخباری مرتبط با ارز دیجیتال یافت نشد!",
	"en": "No cryptocurrency news found!",
}

var noTitle = map[string]string{
	"fa": "بدون عنوان",
	"en": "No Title",
}

// translationPairs lists the (requested language, feed language) pairs that
// are translated before delivery.
var translationPairs = map[[2]string]bool{
	{"fa", "en"}: true,
	{"en", "fa"}: true,
}

// NotFound returns the sentinel item for lang.
func NotFound(lang string) NewsItem {
	return NewsItem{Title: localized(notFoundTitles, lang)}
}

// FeedSource downloads feed entries.
type FeedSource interface {
	Fetch(ctx context.Context, url string) ([]rss.Entry, error)
}

// Translator translates a title/summary pair and never fails.
type Translator interface {
	Translate(ctx context.Context, title, summary, target string) translate.Result
}

// SeenLinks is the dedup store consulted before delivery.
type SeenLinks interface {
	Contains(link string) bool
	Add(link string) error
}

// Aggregator picks the next undelivered article for a language.
type Aggregator struct {
	feeds      *rss.FeedsConfig
	source     FeedSource
	translator Translator
	seen       SeenLinks
	logger     zerolog.Logger
}

func NewAggregator(feeds *rss.FeedsConfig, source FeedSource, translator Translator, seen SeenLinks, logger zerolog.Logger) *Aggregator {
	if feeds == nil {
		feeds = rss.DefaultFeeds()
	}
	return &Aggregator{
		feeds:      feeds,
		source:     source,
		translator: translator,
		seen:       seen,
		logger:     logger,
	}
}

// FetchNext returns the first entry of lang's feed that was not delivered
// yet, or the NotFound sentinel.
func (a *Aggregator) FetchNext(ctx context.Context, lang string) NewsItem {
	url, feedLang, ok := a.feeds.Source(lang)
	if !ok {
		a.logger.Warn().Str("lang", lang).Msg("No feed configured")
		return NotFound(lang)
	}

	entries, err := a.source.Fetch(ctx, url)
	if err != nil {
		metrics.Global.IncrementFetchFailures()
		a.logger.Error().Err(err).Str("url", url).Msg("Feed fetch failed")
		return NotFound(lang)
	}

	for _, entry := range entries {
		link := strings.TrimSpace(entry.Link)
		if a.seen.Contains(link) {
			metrics.Global.IncrementDuplicatesSkipped()
			continue
		}

		item := NewsItem{
			Title:       strings.TrimSpace(entry.Title),
			Summary:     sanitize.HTML(entry.Description),
			Link:        link,
			PublishedAt: entry.Published,
		}

		if translationPairs[[2]string{lang, feedLang}] && a.translator != nil {
			res := a.translator.Translate(ctx, item.Title, item.Summary, lang)
			item.Title, item.Summary = res.Title, res.Summary
		}
		if item.Title == "" {
			item.Title = localized(noTitle, lang)
		}

		if err := a.seen.Add(item.Link); err != nil {
			a.logger.Warn().Err(err).Str("link", item.Link).Msg("Failed to persist recency cache")
		}
		metrics.Global.IncrementNewsDelivered()
		a.logger.Info().Str("lang", lang).Str("link", item.Link).Str("title", item.Title).Msg("News fetched")
		return item
	}

	a.logger.Info().Str("lang", lang).Str("url", url).Msg("No undelivered news in feed")
	return NotFound(lang)
}

func localized(texts map[string]string, lang string) string {
	if text, ok := texts[lang]; ok {
		return text
	}
	return texts["en"]
}
