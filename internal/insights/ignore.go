// Package insights derives recurring-payment, anomaly and savings-rate
// findings from the ledger. Detectors are pure; suppression via ignore-lists
// is applied by the caller after detection.
package insights

import "strings"

// Kind partitions the ignore-list identifier space.
type Kind string

const (
	KindAnomaly   Kind = "anomaly"
	KindRecurring Kind = "recurring"
)

// Ignored is one suppressed finding.
type Ignored struct {
	Kind       Kind
	Identifier string
}

// RecurringKey normalizes a description into the stable identifier recurring
// groups are keyed and ignored by: lower-cased, trimmed, first 20 characters.
// Truncation counts runes so multibyte descriptions keep valid UTF-8 keys.
func RecurringKey(description string) string {
	s := strings.ToLower(strings.TrimSpace(description))
	if r := []rune(s); len(r) > 20 {
		s = string(r[:20])
	}
	return s
}

// IgnoreSet answers membership questions for one kind.
type IgnoreSet map[string]struct{}

// NewIgnoreSet collects the identifiers of one kind from a mixed list.
func NewIgnoreSet(ignored []Ignored, kind Kind) IgnoreSet {
	set := IgnoreSet{}
	for _, ig := range ignored {
		if ig.Kind == kind {
			set[ig.Identifier] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the identifier is suppressed.
func (s IgnoreSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}
