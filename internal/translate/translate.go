package translate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/deusflow/cryptonews/internal/llm"
	"github.com/deusflow/cryptonews/internal/metrics"
	"github.com/deusflow/cryptonews/internal/sanitize"
)

// MaxSummaryRunes bounds the summary sent to the backend.
const MaxSummaryRunes = 200

// ErrParse means the backend answered without usable Title/Summary labels.
var ErrParse = errors.New("translation response missing Title/Summary")

var (
	titleLabel   = regexp.MustCompile(`(?i)^title\s*:\s*`)
	summaryLabel = regexp.MustCompile(`(?i)^summary\s*:\s*`)

	// Models sometimes append notes like "(Note: machine translation ...)".
	disclaimerLine   = regexp.MustCompile(`(?i)^\s*note\s*:`)
	disclaimerInline = regexp.MustCompile(`(?i)[\(\[]\s*note\s*:[^\)\]]*[\)\]]`)
)

var languageNames = map[string]string{
	"fa": "Persian (fa)",
	"en": "English (en)",
}

// Result is a translated title/summary pair.
type Result struct {
	Title   string
	Summary string
}

// Translator translates feed entries through a generative backend.
type Translator struct {
	gen    llm.Generator
	logger zerolog.Logger
}

func New(gen llm.Generator, logger zerolog.Logger) *Translator {
	return &Translator{gen: gen, logger: logger}
}

// Translate returns title and summary in target. Any backend or parse failure
// yields the inputs unchanged.
func (t *Translator) Translate(ctx context.Context, title, summary, target string) Result {
	original := Result{Title: title, Summary: summary}

	res, err := t.translate(ctx, title, summary, target)
	if err != nil {
		metrics.Global.IncrementFailedTranslations()
		t.logger.Warn().Err(err).Str("lang", target).Msg("Translation failed, using original text")
		return original
	}

	metrics.Global.IncrementSuccessfulTranslations()
	return res
}

func (t *Translator) translate(ctx context.Context, title, summary, target string) (Result, error) {
	if t.gen == nil {
		return Result{}, errors.New("no generative backend configured")
	}

	text, err := t.gen.Generate(ctx, buildPrompt(title, summary, target))
	if err != nil {
		return Result{}, fmt.Errorf("generating translation: %w", err)
	}
	return parseResponse(text)
}

func buildPrompt(title, summary, target string) string {
	lang, ok := languageNames[target]
	if !ok {
		lang = target
	}
	return fmt.Sprintf("Translate the following title and summary to %s:\nTitle: %s\nSummary: %s",
		lang, title, sanitize.Truncate(summary, MaxSummaryRunes))
}

// parseResponse locates the labeled Title and Summary lines. Both labels
// must be present and the title must be non-empty; the summary may be empty.
func parseResponse(text string) (Result, error) {
	var res Result
	var haveTitle, haveSummary bool

	for _, line := range strings.Split(stripDisclaimers(text), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case !haveTitle && titleLabel.MatchString(line):
			res.Title = strings.TrimSpace(titleLabel.ReplaceAllString(line, ""))
			haveTitle = res.Title != ""
		case !haveSummary && summaryLabel.MatchString(line):
			res.Summary = strings.TrimSpace(summaryLabel.ReplaceAllString(line, ""))
			haveSummary = true
		}
	}

	if !haveTitle || !haveSummary {
		return Result{}, fmt.Errorf("%w (title=%t summary=%t)", ErrParse, haveTitle, haveSummary)
	}
	return res, nil
}

// stripDisclaimers drops machine-translation notes the backend adds.
func stripDisclaimers(text string) string {
	text = disclaimerInline.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if disclaimerLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
