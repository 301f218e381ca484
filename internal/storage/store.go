// Package storage persists the ledger: transactions, fixed costs and
// categories, plus a version counter bumped by every write.
package storage

import (
	"context"
	"errors"

	"kakeibo/internal/core"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// TransactionFilter narrows ListTransactions. Zero fields do not filter.
type TransactionFilter struct {
	From   core.Date
	To     core.Date
	UserID string
}

// Snapshot is one consistent read of the whole ledger: every collection
// comes from the same committed state, stamped with its version.
type Snapshot struct {
	Version      int64
	Transactions []core.Transaction
	FixedCosts   []core.FixedCost
	Categories   []core.Category
}

// FixedCostEdit changes an existing fixed cost.
//
// Without ReflectDate the base amount, date, category and frequency are
// overwritten and no history is kept. With ReflectDate the base is left
// alone, Amount is appended as a revision effective from ReflectDate, and
// when the category changes the editor's transactions in the old category
// dated on or after ReflectDate move to the new one in the same write.
type FixedCostEdit struct {
	ID          string
	CategoryID  string
	Amount      core.Money
	Date        core.Date
	Frequency   core.Frequency
	ReflectDate core.Date
	EditorID    string
}

type (
	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) error
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id string) error
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
	}

	FixedCostStore interface {
		CreateFixedCost(ctx context.Context, fc core.FixedCost) error
		ReviseFixedCost(ctx context.Context, e FixedCostEdit) error
		DeleteFixedCost(ctx context.Context, id string) error
		GetFixedCost(ctx context.Context, id string) (core.FixedCost, error)
		ListFixedCosts(ctx context.Context) ([]core.FixedCost, error)
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) error
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id string) error
		GetCategory(ctx context.Context, id string) (core.Category, error)
		ListCategories(ctx context.Context) ([]core.Category, error)
		// ReorderCategories sets Position to the index of each id.
		ReorderCategories(ctx context.Context, ids []string) error
	}

	// Store is the whole ledger.
	Store interface {
		TransactionStore
		FixedCostStore
		CategoryStore
		// Version increases with every successful write.
		Version(ctx context.Context) (int64, error)
		// Snapshot reads the version, the transactions matching f, every
		// fixed cost and every category without any write in between.
		Snapshot(ctx context.Context, f TransactionFilter) (Snapshot, error)
		Close() error
	}
)
