package rss

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const userAgent = "Mozilla/5.0 (compatible; CryptoNewsBot/1.0)"

// FeedsConfig is YAML config structure
//
//	feeds:
//	  fa: https://...
//	  en: https://...
//	routes:
//	  fa: en
type FeedsConfig struct {
	Feeds  map[string]string `yaml:"feeds"`
	Routes map[string]string `yaml:"routes"`
}

// DefaultFeeds is used when no feeds file is present.
func DefaultFeeds() *FeedsConfig {
	return &FeedsConfig{
		Feeds: map[string]string{
			"fa": "https://www.iran-btc.com/feed/",
			"en": "https://cointelegraph.com/rss",
		},
	}
}

// LoadFeeds reads the feed list from a YAML file. A missing file yields the defaults.
func LoadFeeds(path string) (*FeedsConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultFeeds(), nil
		}
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding feeds config %s: %w", path, err)
	}
	if len(cfg.Feeds) == 0 {
		return nil, fmt.Errorf("feeds config %s lists no feeds", path)
	}
	return &cfg, nil
}

// Source picks the feed serving lang. feedLang is the language the feed is
// written in, which differs from lang when the feed is borrowed.
func (c *FeedsConfig) Source(lang string) (url, feedLang string, ok bool) {
	feedLang = lang
	if routed, found := c.Routes[lang]; found {
		feedLang = routed
	}
	if url, ok = c.Feeds[feedLang]; ok {
		return url, feedLang, true
	}
	for _, other := range []string{"en", "fa"} {
		if url, ok = c.Feeds[other]; ok {
			return url, other, true
		}
	}
	return "", "", false
}

// Entry is a normalized feed item. Missing fields are empty strings.
type Entry struct {
	Title       string
	Description string
	Link        string
	Published   string
}

// Fetcher downloads and parses feeds.
type Fetcher struct {
	parser  *gofeed.Parser
	timeout time.Duration
	logger  zerolog.Logger
}

// NewFetcher creates a fetcher whose requests are bounded by timeout.
func NewFetcher(timeout time.Duration, logger zerolog.Logger) *Fetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = &http.Client{Timeout: timeout}
	return &Fetcher{parser: parser, timeout: timeout, logger: logger}
}

// Fetch downloads url and returns its entries in feed order.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Entry, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", url, err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, Entry{
			Title:       item.Title,
			Description: item.Description,
			Link:        item.Link,
			Published:   item.Published,
		})
	}
	f.logger.Debug().Str("url", url).Int("entries", len(entries)).Msg("Loaded feed")
	return entries, nil
}
