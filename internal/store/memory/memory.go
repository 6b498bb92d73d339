// Package memory implements the store ports over in-process slices. It backs
// unit tests and keeps behavior aligned with the SQLite repository: the
// filter predicate here is the core engine the SQL pushdown mirrors.
package memory

import (
	"context"
	"sync"

	"ledgerlens/internal/budget"
	"ledgerlens/internal/core"
	"ledgerlens/internal/insights"
	"ledgerlens/internal/store"
)

type Store struct {
	mu      sync.Mutex
	nextID  int64
	txs     []core.Transaction
	budgets map[string]budget.Budget
	ignored map[insights.Ignored]struct{}
}

func New() *Store {
	return &Store{
		nextID:  1,
		budgets: map[string]budget.Budget{},
		ignored: map[insights.Ignored]struct{}{},
	}
}

func (s *Store) All(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txs...), nil
}

func (s *Store) Query(_ context.Context, f core.FilterState, mapping *core.CategoryMapping) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var m core.CategoryMapping
	if mapping != nil {
		m = *mapping
	}
	return core.Filter(s.txs, f, m), nil
}

func (s *Store) ReplaceAll(_ context.Context, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = make([]core.Transaction, len(txs))
	for i, t := range txs {
		t.ID = s.nextID
		s.nextID++
		s.txs[i] = t
	}
	return nil
}

func (s *Store) Update(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txs {
		if s.txs[i].ID == t.ID {
			s.txs[i] = t
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ObservedMapping(_ context.Context) (*core.CategoryMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := core.NewCategoryMapping()
	m.MergeObserved(s.txs)
	return m, nil
}

func (s *Store) ListBudgets(_ context.Context) ([]budget.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]budget.Budget, 0, len(s.budgets))
	for _, b := range s.budgets {
		out = append(out, b)
	}
	return out, nil
}

func (s *Store) UpsertBudget(_ context.Context, b budget.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[b.Key()] = b
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, category, subcategory string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := (budget.Budget{Category: category, Subcategory: subcategory}).Key()
	if _, ok := s.budgets[key]; !ok {
		return store.ErrNotFound
	}
	delete(s.budgets, key)
	return nil
}

func (s *Store) ListIgnored(_ context.Context) ([]insights.Ignored, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]insights.Ignored, 0, len(s.ignored))
	for ig := range s.ignored {
		out = append(out, ig)
	}
	return out, nil
}

func (s *Store) AddIgnored(_ context.Context, batch []insights.Ignored) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ig := range batch {
		s.ignored[ig] = struct{}{}
	}
	return nil
}

func (s *Store) RemoveIgnored(_ context.Context, ig insights.Ignored) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ignored[ig]; !ok {
		return store.ErrNotFound
	}
	delete(s.ignored, ig)
	return nil
}
