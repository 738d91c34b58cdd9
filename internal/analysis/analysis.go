// Package analysis produces short market commentary from news text.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/deusflow/cryptonews/internal/llm"
	"github.com/deusflow/cryptonews/internal/market"
	"github.com/deusflow/cryptonews/internal/metrics"
	"github.com/deusflow/cryptonews/internal/news"
	"github.com/deusflow/cryptonews/internal/sanitize"
)

const (
	// MaxInputRunes bounds the text sent to the backend.
	MaxInputRunes = 500
	// TallyWindow is how many ranked snapshots feed the up/down tally.
	TallyWindow = 10
)

const promptFa = "تحلیل خبر ارز دیجیتال زیر:\n'%s'\n\nلطفاً یک تحلیل دقیق و جامع اما مختصر (حداکثر 100 کلمه) ارائه کن. شامل:\n1. دیدگاه: (صعودی/نزولی/خنثی)\n2. دلایل مهم\n3. تأثیر بر بازار (کوتاه‌مدت/بلندمدت)\n4. ارزهای تأثیرپذیر\nپاسخ در فارسی."

const promptEn = "Analyze this crypto news:\n'%s'\n\nProvide a concise analysis (max 100 words) including:\n1. Sentiment: (Bullish/Bearish/Neutral)\n2. Key reasons\n3. Market impact (short/long-term)\n4. Affected cryptocurrencies\nUse English."

// ErrorText returns the fixed reply used when analysis fails.
func ErrorText(lang string) string {
	if lang == "fa" {
		return "خطا در تحلیل."
	}
	return "Analysis error."
}

type Analyzer struct {
	gen    llm.Generator
	logger zerolog.Logger
}

func New(gen llm.Generator, logger zerolog.Logger) *Analyzer {
	return &Analyzer{gen: gen, logger: logger}
}

// Analyze returns commentary on text in lang, or ErrorText on failure.
func (a *Analyzer) Analyze(ctx context.Context, text, lang string) string {
	if a.gen == nil {
		metrics.Global.IncrementFailedAnalyses()
		a.logger.Warn().Err(errors.New("no generative backend configured")).Msg("Analysis skipped")
		return ErrorText(lang)
	}

	out, err := a.gen.Generate(ctx, Prompt(text, lang))
	if err != nil {
		metrics.Global.IncrementFailedAnalyses()
		a.logger.Error().Err(err).Str("lang", lang).Msg("Analysis failed")
		return ErrorText(lang)
	}

	metrics.Global.IncrementSuccessfulAnalyses()
	return out
}

// Prompt builds the localized analysis prompt.
func Prompt(text, lang string) string {
	tmpl := promptEn
	if lang == "fa" {
		tmpl = promptFa
	}
	return fmt.Sprintf(tmpl, sanitize.Truncate(text, MaxInputRunes))
}

// Tally counts rising and non-rising coins among the first TallyWindow
// snapshots. A zero change counts as down.
func Tally(prices []market.PriceSnapshot) (up, down int) {
	if len(prices) > TallyWindow {
		prices = prices[:TallyWindow]
	}
	counts := lo.CountValuesBy(prices, func(p market.PriceSnapshot) bool { return p.Up() })
	return counts[true], counts[false]
}

// MarketBlob joins two news items and the tally into one analysis input.
func MarketBlob(first, second news.NewsItem, up, down int) string {
	return fmt.Sprintf("%s %s %s %s Up/Down: %d/%d",
		first.Title, first.Summary, second.Title, second.Summary, up, down)
}
