package market

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatUSD renders d with two decimals and comma thousands separators,
// e.g. 1234567.891 -> "1,234,567.89".
func FormatUSD(d decimal.Decimal) string {
	rounded := d.Round(2)
	fixed := rounded.Abs().StringFixed(2)

	intPart, frac, _ := strings.Cut(fixed, ".")

	var sb strings.Builder
	if rounded.IsNegative() {
		sb.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('.')
	sb.WriteString(frac)
	return sb.String()
}

// FormatPercent renders d with two decimals, e.g. -3 -> "-3.00".
func FormatPercent(d decimal.Decimal) string {
	return d.StringFixed(2)
}
