package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"ledgerlens/internal/analytics"
	"ledgerlens/internal/core"
)

// parseFilter builds a FilterState from query parameters.
//
//	from, to        — YYYY-MM-DD, inclusive
//	range           — all-time | ytd | last-30-days | last-N-years | custom
//	categories      — repeatable or comma separated
//	subcategories   — repeatable or comma separated
//	q               — free-text query
//	view            — expense | income
func parseFilter(values url.Values) (core.FilterState, error) {
	f := core.NewFilterState()

	if v := strings.TrimSpace(values.Get("from")); v != "" {
		d, ok := core.ParseDate(v)
		if !ok {
			return f, fmt.Errorf("invalid from date %q", v)
		}
		f.From = &d
	}
	if v := strings.TrimSpace(values.Get("to")); v != "" {
		d, ok := core.ParseDate(v)
		if !ok {
			return f, fmt.Errorf("invalid to date %q", v)
		}
		f.To = &d
	}

	if v := strings.TrimSpace(values.Get("range")); v != "" {
		switch r := core.TimeRange(v); r {
		case core.RangeAllTime, core.RangeYTD, core.RangeLast30Days,
			core.RangeLast1Year, core.RangeLast2Years, core.RangeLast3Years,
			core.RangeLast4Years, core.RangeLast5Years, core.RangeCustom:
			f.Range = r
		default:
			return f, fmt.Errorf("unknown range %q", v)
		}
	}

	for _, c := range splitMulti(values, "categories") {
		f.Categories[core.TitleCase(c)] = struct{}{}
	}
	for _, sc := range splitMulti(values, "subcategories") {
		f.Subcategories[core.TitleCase(sc)] = struct{}{}
	}

	f.Query = sanitizeInput(values.Get("q"))

	if v := strings.TrimSpace(values.Get("view")); v != "" {
		switch m := core.ViewMode(v); m {
		case core.ViewExpense, core.ViewIncome:
			f.View = m
		default:
			return f, fmt.Errorf("unknown view %q", v)
		}
	}

	return f, nil
}

// splitMulti accepts both repeated parameters and comma separated lists.
func splitMulti(values url.Values, key string) []string {
	var out []string
	for _, raw := range values[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parseSort reads sort/order parameters, defaulting to date descending.
func parseSort(values url.Values) (core.SortKey, core.SortOrder, error) {
	key := core.SortByDate
	if v := strings.TrimSpace(values.Get("sort")); v != "" {
		switch k := core.SortKey(v); k {
		case core.SortByDate, core.SortByAmount, core.SortByCategory,
			core.SortBySubcategory, core.SortByDescription:
			key = k
		default:
			return "", "", fmt.Errorf("unknown sort key %q", v)
		}
	}

	order := core.Descending
	if v := strings.TrimSpace(values.Get("order")); v != "" {
		switch o := core.SortOrder(v); o {
		case core.Ascending, core.Descending:
			order = o
		default:
			return "", "", fmt.Errorf("unknown sort order %q", v)
		}
	}
	return key, order, nil
}

// parseGranularity reads the rollup column unit, defaulting to monthly.
func parseGranularity(values url.Values) (analytics.RollupGranularity, error) {
	v := strings.TrimSpace(values.Get("granularity"))
	if v == "" {
		return analytics.RollupMonthly, nil
	}
	switch g := analytics.RollupGranularity(v); g {
	case analytics.RollupMonthly, analytics.RollupYearly:
		return g, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", v)
	}
}

// cacheKey identifies one aggregate response variant. Query parameters are
// canonicalized so equivalent URLs share an entry.
func cacheKey(r *http.Request) string {
	return r.URL.Query().Encode()
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
