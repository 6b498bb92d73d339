package core

import (
	"strings"
	"time"
)

// ViewMode selects which sign of transaction a view aggregates.
type ViewMode string

const (
	ViewExpense ViewMode = "expense"
	ViewIncome  ViewMode = "income"
)

// Includes reports whether a transaction carries the sign the view
// aggregates. An unset mode behaves as ViewExpense; zero amounts belong to
// neither view.
func (v ViewMode) Includes(t Transaction) bool {
	if v == ViewIncome {
		return t.IsIncome()
	}
	return t.IsExpense()
}

// TimeRange names a convenience date range; it is redundant over From/To and
// is resolved by DateRange.
type TimeRange string

const (
	RangeAllTime    TimeRange = "all-time"
	RangeYTD        TimeRange = "ytd"
	RangeLast30Days TimeRange = "last-30-days"
	RangeLast1Year  TimeRange = "last-1-year"
	RangeLast2Years TimeRange = "last-2-years"
	RangeLast3Years TimeRange = "last-3-years"
	RangeLast4Years TimeRange = "last-4-years"
	RangeLast5Years TimeRange = "last-5-years"
	RangeCustom     TimeRange = "custom"
)

// DateRange resolves a named range against a reference time. Either returned
// bound may be nil, meaning unbounded on that side.
func (r TimeRange) DateRange(now time.Time) (from, to *time.Time) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch r {
	case RangeYTD:
		f := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		t := time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
		return &f, &t
	case RangeLast30Days:
		f := day.AddDate(0, 0, -30)
		return &f, &day
	case RangeLast1Year, RangeLast2Years, RangeLast3Years, RangeLast4Years, RangeLast5Years:
		years := map[TimeRange]int{
			RangeLast1Year: 1, RangeLast2Years: 2, RangeLast3Years: 3,
			RangeLast4Years: 4, RangeLast5Years: 5,
		}[r]
		f := day.AddDate(-years, 0, 0)
		return &f, &day
	default:
		return nil, nil
	}
}

// FilterState is the value object a dashboard view is parameterized by.
//
// Selecting any category or subcategory switches filtering into inclusion
// mode: only matching transactions pass and the free-text query is skipped
// entirely. This precedence is deliberate and must not be replaced by a
// combined AND predicate.
type FilterState struct {
	From  *time.Time
	To    *time.Time
	Range TimeRange

	Categories    map[string]struct{}
	Subcategories map[string]struct{}

	Query string
	View  ViewMode
}

// NewFilterState returns an empty all-time filter.
func NewFilterState() FilterState {
	return FilterState{
		Range:         RangeAllTime,
		Categories:    map[string]struct{}{},
		Subcategories: map[string]struct{}{},
		View:          ViewExpense,
	}
}

// HasSelection reports whether any category or subcategory is selected.
func (f FilterState) HasSelection() bool {
	return len(f.Categories) > 0 || len(f.Subcategories) > 0
}

// Bounded reports whether either date bound is set.
func (f FilterState) Bounded() bool { return f.From != nil || f.To != nil }

// WithoutSelection returns a copy with category and subcategory selections
// cleared, keeping date bounds and query. Monthly averages use this to span
// the search/date-filtered but category-unfiltered set.
func (f FilterState) WithoutSelection() FilterState {
	out := f
	out.Categories = map[string]struct{}{}
	out.Subcategories = map[string]struct{}{}
	return out
}

// Matches evaluates a transaction against the filter.
//
// Rules apply in order and short-circuit:
//  1. transactions without a valid date only pass unbounded ranges;
//  2. date bounds, inclusive on both sides;
//  3. if anything is selected, the hierarchical category rule fully decides:
//     a selected subcategory always includes; a selected category includes
//     only while none of its known subcategories (per mapping) is selected;
//  4. otherwise a non-empty query must substring-match description, category,
//     subcategory or payee, case-insensitively.
func Matches(t Transaction, f FilterState, mapping CategoryMapping) bool {
	if !t.DateValid {
		if f.Bounded() {
			return false
		}
	} else {
		if f.From != nil && t.Date.Before(*f.From) {
			return false
		}
		if f.To != nil && t.Date.After(*f.To) {
			return false
		}
	}

	if f.HasSelection() {
		if _, ok := f.Subcategories[t.Subcategory]; ok && t.Subcategory != "" {
			return true
		}
		if _, ok := f.Categories[t.Category]; ok && !f.refines(t.Category, mapping) {
			return true
		}
		return false
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		q = strings.ToLower(q)
		match := strings.Contains(strings.ToLower(t.Description), q) ||
			strings.Contains(strings.ToLower(t.Category), q) ||
			strings.Contains(strings.ToLower(t.Subcategory), q) ||
			strings.Contains(strings.ToLower(t.PayeePayer), q)
		if !match {
			return false
		}
	}

	return true
}

// refines reports whether any known subcategory of category is currently
// selected, which turns the category checkbox into a no-op for rows outside
// the selected subcategories.
func (f FilterState) refines(category string, mapping CategoryMapping) bool {
	for _, sub := range mapping.Subcategories(category) {
		if _, ok := f.Subcategories[sub]; ok {
			return true
		}
	}
	return false
}

// Filter returns the subset of txs matching f, preserving input order.
func Filter(txs []Transaction, f FilterState, mapping CategoryMapping) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if Matches(t, f, mapping) {
			out = append(out, t)
		}
	}
	return out
}

// FilterView returns the subset of txs carrying the view's sign, preserving
// input order.
func FilterView(txs []Transaction, v ViewMode) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if v.Includes(t) {
			out = append(out, t)
		}
	}
	return out
}
