// Package sanitize turns feed markup into plain text.
package sanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// HTML strips markup from raw and unescapes entities.
// "<p>Hello &amp; welcome</p>" becomes "Hello & welcome".
func HTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		// html.Parse only fails on reader errors
		return strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(raw, "")))
	}

	// <br> separates words in feed descriptions
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find("script, style").Remove()

	return strings.TrimSpace(doc.Text())
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
