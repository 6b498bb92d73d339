package core

import (
	"sort"
	"strings"
)

// SortKey names a transaction-list ordering.
type SortKey string

const (
	SortByDate        SortKey = "date"
	SortByAmount      SortKey = "amount"
	SortByCategory    SortKey = "category"
	SortBySubcategory SortKey = "subcategory"
	SortByDescription SortKey = "description"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// less returns the comparator for a key. Every key has its own typed
// comparison; sort never falls back to comparing stringified values.
func (k SortKey) less(a, b Transaction) bool {
	switch k {
	case SortByAmount:
		return a.AmountCents < b.AmountCents
	case SortByCategory:
		return strings.ToLower(a.Category) < strings.ToLower(b.Category)
	case SortBySubcategory:
		return strings.ToLower(a.Subcategory) < strings.ToLower(b.Subcategory)
	case SortByDescription:
		return strings.ToLower(a.Description) < strings.ToLower(b.Description)
	default:
		// Undated rows sort before all dated ones so they stay visible at
		// the top of ascending views.
		switch {
		case !a.DateValid && !b.DateValid:
			return a.ID < b.ID
		case !a.DateValid:
			return true
		case !b.DateValid:
			return false
		}
		return a.Date.Before(b.Date)
	}
}

// Sort orders txs in place by key and order. The sort is stable so equal keys
// keep their stored order.
func Sort(txs []Transaction, key SortKey, order SortOrder) {
	sort.SliceStable(txs, func(i, j int) bool {
		if order == Descending {
			return key.less(txs[j], txs[i])
		}
		return key.less(txs[i], txs[j])
	})
}
