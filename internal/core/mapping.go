package core

// CategoryMapping relates categories to their known subcategories. It is the
// union of a static mapping file and the (category, subcategory) pairs
// observed in the ledger; static entries keep their insertion order and come
// first.
type CategoryMapping struct {
	order []string
	subs  map[string][]string
}

// NewCategoryMapping returns an empty mapping.
func NewCategoryMapping() *CategoryMapping {
	return &CategoryMapping{subs: map[string][]string{}}
}

// Add records a category, optionally with a subcategory. Duplicates are
// ignored; an empty subcategory only registers the category.
func (m *CategoryMapping) Add(category, subcategory string) {
	if category == "" {
		return
	}
	if _, ok := m.subs[category]; !ok {
		m.subs[category] = nil
		m.order = append(m.order, category)
	}
	if subcategory == "" {
		return
	}
	for _, s := range m.subs[category] {
		if s == subcategory {
			return
		}
	}
	m.subs[category] = append(m.subs[category], subcategory)
}

// Categories returns all known categories in insertion order.
func (m *CategoryMapping) Categories() []string {
	return append([]string(nil), m.order...)
}

// Subcategories returns the known subcategories of a category, in insertion
// order. A nil receiver is treated as an empty mapping.
func (m *CategoryMapping) Subcategories(category string) []string {
	if m == nil {
		return nil
	}
	return m.subs[category]
}

// Has reports whether the category is known.
func (m *CategoryMapping) Has(category string) bool {
	if m == nil {
		return false
	}
	_, ok := m.subs[category]
	return ok
}

// Merge folds another mapping into m, preserving m's insertion order and
// appending categories and subcategories m does not already have.
func (m *CategoryMapping) Merge(other *CategoryMapping) {
	if other == nil {
		return
	}
	for _, c := range other.order {
		m.Add(c, "")
		for _, s := range other.subs[c] {
			m.Add(c, s)
		}
	}
}

// MergeObserved adds every (category, subcategory) pair present in the
// transactions, title-casing handled at import time.
func (m *CategoryMapping) MergeObserved(txs []Transaction) {
	for _, t := range txs {
		if t.Category == "" {
			continue
		}
		m.Add(t.Category, t.Subcategory)
	}
}
