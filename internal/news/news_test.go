package news

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/cryptonews/internal/rss"
	"github.com/deusflow/cryptonews/internal/translate"
)

type fakeSource struct {
	entries map[string][]rss.Entry
	err     error
	calls   []string
}

func (f *fakeSource) Fetch(ctx context.Context, url string) ([]rss.Entry, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[url], nil
}

type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type fakeTranslator struct {
	calls []string
}

func (f *fakeTranslator) Translate(ctx context.Context, title, summary, target string) translate.Result {
	f.calls = append(f.calls, target)
	return translate.Result{Title: "[" + target + "] " + title, Summary: "[" + target + "] " + summary}
}

var testFeeds = &rss.FeedsConfig{
	Feeds: map[string]string{"fa": "fa-feed", "en": "en-feed"},
}

func entries(n int) []rss.Entry {
	out := make([]rss.Entry, n)
	for i := range out {
		out[i] = rss.Entry{
			Title:       fmt.Sprintf("title %d", i),
			Description: fmt.Sprintf("<p>summary %d</p>", i),
			Link:        fmt.Sprintf("https://example.com/%d", i),
		}
	}
	return out
}

func TestFetchNextDeliversInFeedOrderWithoutRepeats(t *testing.T) {
	src := &fakeSource{entries: map[string][]rss.Entry{"en-feed": entries(3)}}
	agg := NewAggregator(testFeeds, src, nil, NewRecencyCache(20, ""), zerolog.Nop())
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		item := agg.FetchNext(ctx, "en")
		assert.Equal(t, fmt.Sprintf("https://example.com/%d", i), item.Link)
		assert.False(t, seen[item.Link], "link delivered twice: %s", item.Link)
		seen[item.Link] = true
	}

	item := agg.FetchNext(ctx, "en")
	assert.Equal(t, NotFound("en"), item)
	assert.Equal(t, "No cryptocurrency news found!", item.Title)
}

func TestFetchNextEvictionAllowsRedelivery(t *testing.T) {
	src := &fakeSource{entries: map[string][]rss.Entry{"en-feed": entries(3)}}
	agg := NewAggregator(testFeeds, src, nil, NewRecencyCache(2, ""), zerolog.Nop())
	ctx := context.Background()

	assert.Equal(t, "https://example.com/0", agg.FetchNext(ctx, "en").Link)
	assert.Equal(t, "https://example.com/1", agg.FetchNext(ctx, "en").Link)
	assert.Equal(t, "https://example.com/2", agg.FetchNext(ctx, "en").Link)
	// link 0 was evicted by link 2
	assert.Equal(t, "https://example.com/0", agg.FetchNext(ctx, "en").Link)
}

func TestFetchNextStripsHTML(t *testing.T) {
	src := &fakeSource{entries: map[string][]rss.Entry{"en-feed": {
		{Title: "t", Description: "<p>Hello &amp; welcome</p>", Link: "l"},
	}}}
	agg := NewAggregator(testFeeds, src, nil, NewRecencyCache(20, ""), zerolog.Nop())

	item := agg.FetchNext(context.Background(), "en")
	assert.Equal(t, "Hello & welcome", item.Summary)
}

func TestFetchNextFetchFailureReturnsSentinel(t *testing.T) {
	cache := NewRecencyCache(20, "")
	src := &fakeSource{err: errors.New("timeout")}
	agg := NewAggregator(testFeeds, src, nil, cache, zerolog.Nop())

	for i := 0; i < 2; i++ {
		item := agg.FetchNext(context.Background(), "fa")
		assert.Equal(t, "اخباری مرتبط با ارز دیجیتال یافت نشد!", item.Title)
		assert.Empty(t, item.Link)
		assert.Empty(t, item.Summary)
		assert.Empty(t, item.PublishedAt)
	}
	assert.Equal(t, 0, cache.Len())
}

func TestFetchNextEmptyLinkNeverCached(t *testing.T) {
	cache := NewRecencyCache(20, "")
	src := &fakeSource{entries: map[string][]rss.Entry{"en-feed": {{Title: "no link"}}}}
	agg := NewAggregator(testFeeds, src, nil, cache, zerolog.Nop())

	first := agg.FetchNext(context.Background(), "en")
	second := agg.FetchNext(context.Background(), "en")
	assert.Equal(t, "no link", first.Title)
	assert.Equal(t, first, second)
	assert.Equal(t, 0, cache.Len())
}

func TestFetchNextMissingTitlePlaceholder(t *testing.T) {
	src := &fakeSource{entries: map[string][]rss.Entry{"fa-feed": {{Link: "l"}}}}
	agg := NewAggregator(testFeeds, src, nil, NewRecencyCache(20, ""), zerolog.Nop())

	assert.Equal(t, "بدون عنوان", agg.FetchNext(context.Background(), "fa").Title)
}

func TestFetchNextTranslatesBorrowedFeed(t *testing.T) {
	feeds := &rss.FeedsConfig{
		Feeds:  testFeeds.Feeds,
		Routes: map[string]string{"fa": "en"},
	}
	src := &fakeSource{entries: map[string][]rss.Entry{"en-feed": entries(1)}}
	tr := &fakeTranslator{}
	agg := NewAggregator(feeds, src, tr, NewRecencyCache(20, ""), zerolog.Nop())

	item := agg.FetchNext(context.Background(), "fa")
	require.Equal(t, []string{"fa"}, tr.calls)
	assert.Equal(t, "[fa] title 0", item.Title)
	assert.Equal(t, "[fa] summary 0", item.Summary)
	assert.Equal(t, []string{"en-feed"}, src.calls)
}

func TestFetchNextTranslatesBorrowedTitleWithoutSummary(t *testing.T) {
	feeds := &rss.FeedsConfig{
		Feeds:  testFeeds.Feeds,
		Routes: map[string]string{"fa": "en"},
	}
	src := &fakeSource{entries: map[string][]rss.Entry{"en-feed": {
		{Title: "Bitcoin hits record", Link: "https://example.com/btc"},
	}}}
	gen := generatorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "Title: بیت‌کوین رکورد زد\nSummary: ", nil
	})
	agg := NewAggregator(feeds, src, translate.New(gen, zerolog.Nop()), NewRecencyCache(20, ""), zerolog.Nop())

	item := agg.FetchNext(context.Background(), "fa")
	assert.Equal(t, "بیت‌کوین رکورد زد", item.Title)
	assert.Empty(t, item.Summary)
	assert.Equal(t, "https://example.com/btc", item.Link)
}

func TestFetchNextSameLanguageNotTranslated(t *testing.T) {
	src := &fakeSource{entries: map[string][]rss.Entry{"fa-feed": entries(1)}}
	tr := &fakeTranslator{}
	agg := NewAggregator(testFeeds, src, tr, NewRecencyCache(20, ""), zerolog.Nop())

	item := agg.FetchNext(context.Background(), "fa")
	assert.Empty(t, tr.calls)
	assert.Equal(t, "title 0", item.Title)
}

func TestFetchNextSharedAcrossLanguages(t *testing.T) {
	feeds := &rss.FeedsConfig{Feeds: map[string]string{"en": "en-feed"}}
	src := &fakeSource{entries: map[string][]rss.Entry{"en-feed": entries(1)}}
	agg := NewAggregator(feeds, src, &fakeTranslator{}, NewRecencyCache(20, ""), zerolog.Nop())

	first := agg.FetchNext(context.Background(), "en")
	assert.Equal(t, "https://example.com/0", first.Link)
	// fa borrows the en feed and sees the same cache
	assert.Equal(t, NotFound("fa"), agg.FetchNext(context.Background(), "fa"))
}
