// Package memory is an in-process storage.Store for tests and the memory backend.
package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

type Store struct {
	mu           sync.RWMutex
	version      int64
	transactions map[string]core.Transaction
	fixedCosts   map[string]core.FixedCost
	categories   map[string]core.Category
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		transactions: make(map[string]core.Transaction),
		fixedCosts:   make(map[string]core.FixedCost),
		categories:   make(map[string]core.Category),
	}
}

// Seed is the YAML layout of a seed file.
type Seed struct {
	Categories []struct {
		ID    string    `yaml:"id"`
		Name  string    `yaml:"name"`
		Kind  core.Kind `yaml:"kind"`
		Ratio string    `yaml:"ratio"`
		User  string    `yaml:"user"`
	} `yaml:"categories"`
}

// NewFromFile returns a store holding the categories listed in the YAML file
// at path. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, c := range seed.Categories {
		cat := core.Category{ID: c.ID, Name: c.Name, Kind: c.Kind, Ratio: c.Ratio, UserID: c.User, Position: i}
		if cat.ID == "" {
			cat.ID = c.Name
		}
		if err := cat.Validate(); err != nil {
			return nil, fmt.Errorf("seed category %q: %w", c.Name, err)
		}
		s.categories[cat.ID] = cat
	}
	return s, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) Version(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version, nil
}

// Snapshot copies the ledger under a single read lock.
func (s *Store) Snapshot(_ context.Context, f storage.TransactionFilter) (storage.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return storage.Snapshot{
		Version:      s.version,
		Transactions: s.listTransactions(f),
		FixedCosts:   s.listFixedCosts(),
		Categories:   s.listCategories(),
	}, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[t.ID]; ok {
		return fmt.Errorf("transaction %s: %w", t.ID, storage.ErrConflict)
	}
	t.InvolvedUserIDs = involve(nil, t.InvolvedUserIDs...)
	s.transactions[t.ID] = t
	s.version++
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.transactions[t.ID]
	if !ok {
		return fmt.Errorf("transaction %s: %w", t.ID, storage.ErrNotFound)
	}
	old.Date, old.Amount, old.CategoryID, old.Kind, old.Memo = t.Date, t.Amount, t.CategoryID, t.Kind, t.Memo
	old.InvolvedUserIDs = involve(old.InvolvedUserIDs, t.InvolvedUserIDs...)
	s.transactions[t.ID] = old
	s.version++
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, storage.ErrNotFound)
	}
	delete(s.transactions, id)
	s.version++
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, storage.ErrNotFound)
	}
	return copyTransaction(t), nil
}

func (s *Store) ListTransactions(_ context.Context, f storage.TransactionFilter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listTransactions(f), nil
}

func (s *Store) listTransactions(f storage.TransactionFilter) []core.Transaction {
	var out []core.Transaction
	for _, t := range s.transactions {
		if !f.From.IsZero() && t.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && t.Date.After(f.To) {
			continue
		}
		if f.UserID != "" && t.UserID != f.UserID {
			continue
		}
		out = append(out, copyTransaction(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) CreateFixedCost(_ context.Context, fc core.FixedCost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fixedCosts[fc.ID]; ok {
		return fmt.Errorf("fixed cost %s: %w", fc.ID, storage.ErrConflict)
	}
	s.fixedCosts[fc.ID] = copyFixedCost(fc)
	s.version++
	return nil
}

func (s *Store) ReviseFixedCost(_ context.Context, e storage.FixedCostEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fc, ok := s.fixedCosts[e.ID]
	if !ok {
		return fmt.Errorf("fixed cost %s: %w", e.ID, storage.ErrNotFound)
	}
	fc = copyFixedCost(fc)
	oldCategory := fc.CategoryID
	fc.CategoryID = e.CategoryID
	fc.Frequency = e.Frequency
	fc.InvolvedUserIDs = involve(fc.InvolvedUserIDs, e.EditorID)

	if e.ReflectDate.IsZero() {
		fc.Amount = e.Amount
		fc.Date = e.Date
	} else {
		fc.Revisions = append(fc.Revisions, core.Revision{ReflectDate: e.ReflectDate, Amount: e.Amount})
		if e.CategoryID != oldCategory && e.EditorID != "" {
			for id, t := range s.transactions {
				if t.UserID != e.EditorID || t.CategoryID != oldCategory || t.Date.Before(e.ReflectDate) {
					continue
				}
				t.CategoryID = e.CategoryID
				t.InvolvedUserIDs = involve(t.InvolvedUserIDs, e.EditorID)
				s.transactions[id] = t
			}
		}
	}
	s.fixedCosts[e.ID] = fc
	s.version++
	return nil
}

func (s *Store) DeleteFixedCost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fixedCosts[id]; !ok {
		return fmt.Errorf("fixed cost %s: %w", id, storage.ErrNotFound)
	}
	delete(s.fixedCosts, id)
	s.version++
	return nil
}

func (s *Store) GetFixedCost(_ context.Context, id string) (core.FixedCost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fc, ok := s.fixedCosts[id]
	if !ok {
		return core.FixedCost{}, fmt.Errorf("fixed cost %s: %w", id, storage.ErrNotFound)
	}
	return copyFixedCost(fc), nil
}

func (s *Store) ListFixedCosts(_ context.Context) ([]core.FixedCost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listFixedCosts(), nil
}

func (s *Store) listFixedCosts() []core.FixedCost {
	out := make([]core.FixedCost, 0, len(s.fixedCosts))
	for _, fc := range s.fixedCosts {
		out = append(out, copyFixedCost(fc))
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; ok {
		return fmt.Errorf("category %s: %w", c.ID, storage.ErrConflict)
	}
	if s.nameTaken(c) {
		return fmt.Errorf("category name %q: %w", c.Name, storage.ErrConflict)
	}
	if c.Position == 0 {
		for _, other := range s.categories {
			if other.Kind == c.Kind && other.Position >= c.Position {
				c.Position = other.Position + 1
			}
		}
	}
	if c.Ratio == "" {
		c.Ratio = core.RatioNone
	}
	s.categories[c.ID] = c
	s.version++
	return nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.categories[c.ID]
	if !ok {
		return fmt.Errorf("category %s: %w", c.ID, storage.ErrNotFound)
	}
	old.Name, old.Ratio, old.UserID = c.Name, c.Ratio, c.UserID
	if old.Ratio == "" {
		old.Ratio = core.RatioNone
	}
	if s.nameTaken(old) {
		return fmt.Errorf("category name %q: %w", c.Name, storage.ErrConflict)
	}
	s.categories[c.ID] = old
	s.version++
	return nil
}

func (s *Store) nameTaken(c core.Category) bool {
	for _, other := range s.categories {
		if other.ID != c.ID && other.Kind == c.Kind && other.Name == c.Name {
			return true
		}
	}
	return false
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("category %s: %w", id, storage.ErrNotFound)
	}
	delete(s.categories, id)
	s.version++
	return nil
}

func (s *Store) GetCategory(_ context.Context, id string) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, fmt.Errorf("category %s: %w", id, storage.ErrNotFound)
	}
	return c, nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listCategories(), nil
}

func (s *Store) listCategories() []core.Category {
	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.Name < b.Name
	})
	return out
}

// ReorderCategories is all or nothing: an unknown id leaves every position untouched.
func (s *Store) ReorderCategories(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.categories[id]; !ok {
			return fmt.Errorf("category %s: %w", id, storage.ErrNotFound)
		}
	}
	for i, id := range ids {
		c := s.categories[id]
		c.Position = i
		s.categories[id] = c
	}
	s.version++
	return nil
}

func involve(ids []string, users ...string) []string {
	out := slices.Clone(ids)
	for _, u := range users {
		out = core.Involve(out, u)
	}
	return out
}

func copyTransaction(t core.Transaction) core.Transaction {
	t.InvolvedUserIDs = slices.Clone(t.InvolvedUserIDs)
	return t
}

func copyFixedCost(fc core.FixedCost) core.FixedCost {
	fc.Revisions = slices.Clone(fc.Revisions)
	fc.InvolvedUserIDs = slices.Clone(fc.InvolvedUserIDs)
	return fc
}
