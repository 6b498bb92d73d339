// Package core holds the transaction domain model and the pure filtering
// logic shared by the storage layer and the analytics packages.
package core

import (
	"strings"
	"time"
)

// Transaction is one ledger entry. A positive amount is income, a negative
// amount an expense. A zero amount is valid but contributes to neither total.
type Transaction struct {
	ID int64

	// RawDate keeps the original display string from the CSV. Date carries
	// the parsed calendar day; DateValid is false when RawDate could not be
	// parsed, and callers decide how to treat such rows instead of getting a
	// silent epoch sentinel.
	RawDate   string
	Date      time.Time
	DateValid bool

	AmountCents int64

	Category    string
	Subcategory string

	PaymentMethod  string
	Description    string
	RefCheckNo     string
	PayeePayer     string
	Status         string
	ReceiptPicture string
	Account        string
	Tag            string
	Tax            string
	Quantity       string
	SplitTotal     string
	RowID          string
	TypeID         string
}

// IsIncome reports whether the transaction carries a positive amount.
func (t Transaction) IsIncome() bool { return t.AmountCents > 0 }

// IsExpense reports whether the transaction carries a negative amount.
func (t Transaction) IsExpense() bool { return t.AmountCents < 0 }

// AbsCents returns the magnitude of the amount.
func (t Transaction) AbsCents() int64 {
	if t.AmountCents < 0 {
		return -t.AmountCents
	}
	return t.AmountCents
}

// Dated reports whether the transaction falls on a parseable calendar day.
func (t Transaction) Dated() bool { return t.DateValid }

// dateLayouts are the accepted ledger date formats, tried in order.
var dateLayouts = []string{"2006-01-02", "02-01-2006"}

// ParseDate parses a ledger date string. ok is false for empty or
// unparseable input.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// TitleCase normalizes a category token: every space-separated word gets an
// upper-case first letter, the rest lower-cased.
func TitleCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	words := strings.Split(strings.ToLower(s), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthOf returns the MonthKey for a date.
func MonthOf(d time.Time) MonthKey {
	return MonthKey{Year: d.Year(), Month: d.Month()}
}

// Before reports whether k precedes other chronologically.
func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// Next returns the following calendar month.
func (k MonthKey) Next() MonthKey {
	if k.Month == time.December {
		return MonthKey{Year: k.Year + 1, Month: time.January}
	}
	return MonthKey{Year: k.Year, Month: k.Month + 1}
}

// Label renders the key as "Jan 2006".
func (k MonthKey) Label() string {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

// MonthsBetween counts the calendar months spanned by two dates, inclusive of
// both end months. The order of the arguments does not matter.
func MonthsBetween(a, b time.Time) int {
	if b.Before(a) {
		a, b = b, a
	}
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month()) + 1
}
