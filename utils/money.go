package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatEUR formats an amount in euros as a string like "1.234,50 €".
// Uses dot as thousands separator and comma for cents (common in France).
func FormatEUR(amount decimal.Decimal) string {
	neg := amount.IsNegative()
	s := amount.Abs().StringFixed(2)

	intPart, cents, _ := strings.Cut(s, ".")

	var b strings.Builder
	// Pre-allocate: digits + separators + cents + sign + symbol
	b.Grow(len(intPart) + len(intPart)/3 + 8)
	if neg {
		b.WriteString("-")
	}

	// Insert separators from the left.
	rem := len(intPart) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(intPart[:rem])
	for i := rem; i < len(intPart); i += 3 {
		b.WriteByte('.')
		b.WriteString(intPart[i : i+3])
	}

	b.WriteByte(',')
	b.WriteString(cents)
	b.WriteString(" €")
	return b.String()
}

// FormatAmount formats an amount with two decimals and no symbol, e.g. "12.50"
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
