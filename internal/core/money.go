// Amount parsing and formatting.
//
// Amounts are stored as signed cents to keep arithmetic exact; the CSV
// boundary converts to and from decimal strings.
package core

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidAmount is returned for strings that do not parse as a decimal
// monetary value.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmountCents converts a decimal string to signed cents with half-up
// rounding on the third decimal place. Both dot (12.34) and comma (12,34)
// separators are accepted, as are leading signs. Zero is a valid amount.
//
// Examples:
//
//	ParseAmountCents("12.34")  -> 1234, nil
//	ParseAmountCents("-12,34") -> -1234, nil
//	ParseAmountCents("12.346") -> 1235, nil (rounds up)
func ParseAmountCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	// A separator with no fractional digits ("12." or "0.") is malformed.
	if len(parts) == 2 && fracPart == "" {
		return 0, ErrInvalidAmount
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, ErrInvalidAmount
	}

	// First two fractional digits, half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}

	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return cents, nil
}

// FormatCents renders cents back to a decimal string with trailing zeros
// trimmed, so that export(import(x)) reproduces the numeric value of x.
//
//	FormatCents(500000) -> "5000"
//	FormatCents(-49950) -> "-499.5"
//	FormatCents(1234)   -> "12.34"
func FormatCents(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := cents / 100
	frac := cents % 100

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(strconv.FormatInt(whole, 10))
	switch {
	case frac == 0:
		// no fractional part
	case frac%10 == 0:
		b.WriteByte('.')
		b.WriteByte(byte('0' + frac/10))
	default:
		b.WriteByte('.')
		b.WriteByte(byte('0' + frac/10))
		b.WriteByte(byte('0' + frac%10))
	}
	return b.String()
}
