package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"kakeibo/internal/amqp"
	"kakeibo/internal/core"
	"kakeibo/internal/storage"
	"kakeibo/internal/storage/memory"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []amqp.ChangeMessage
	err  error
}

func (p *fakePublisher) PublishChange(_ context.Context, msg amqp.ChangeMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *fakePublisher) messages() []amqp.ChangeMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]amqp.ChangeMessage(nil), p.msgs...)
}

func newLedger(t *testing.T) (*LedgerService, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	svc := NewLedgerService(memory.New(), pub)
	n := 0
	svc.newID = func() string {
		n++
		return "id-" + string(rune('0'+n))
	}
	return svc, pub
}

func TestCreateTransactionStampsAuthor(t *testing.T) {
	ctx := context.Background()
	svc, pub := newLedger(t)

	got, err := svc.CreateTransaction(ctx, "u1", core.Transaction{
		Date: core.MustParseDate("2024-05-01"), Amount: core.Money{Minor: 1200},
		CategoryID: "food", Kind: core.Expense,
	})
	require.NoError(t, err)
	require.Equal(t, "id-1", got.ID)
	require.Equal(t, "u1", got.UserID)
	require.Equal(t, "u1", got.CreatorID)
	require.Equal(t, []string{"u1"}, got.InvolvedUserIDs)

	msgs := pub.messages()
	require.Len(t, msgs, 1)
	require.Equal(t, amqp.Transactions, msgs[0].Collection)
	require.Equal(t, amqp.OpCreate, msgs[0].Op)
	require.Equal(t, "id-1", msgs[0].ID)
	require.Equal(t, int64(1), msgs[0].Version)
}

func TestCreateTransactionRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	svc, pub := newLedger(t)

	tests := []struct {
		name string
		tx   core.Transaction
	}{
		{"negative amount", core.Transaction{Date: core.MustParseDate("2024-05-01"), Amount: core.Money{Minor: -1}, CategoryID: "c", Kind: core.Expense}},
		{"no category", core.Transaction{Date: core.MustParseDate("2024-05-01"), Amount: core.Money{Minor: 1}, Kind: core.Expense}},
		{"bad kind", core.Transaction{Date: core.MustParseDate("2024-05-01"), Amount: core.Money{Minor: 1}, CategoryID: "c", Kind: "gift"}},
		{"no date", core.Transaction{Amount: core.Money{Minor: 1}, CategoryID: "c", Kind: core.Expense}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTransaction(ctx, "u1", tt.tx)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	require.Empty(t, pub.messages())
}

func TestUpdateTransactionKeepsOwner(t *testing.T) {
	ctx := context.Background()
	svc, _ := newLedger(t)

	created, err := svc.CreateTransaction(ctx, "u1", core.Transaction{
		Date: core.MustParseDate("2024-05-01"), Amount: core.Money{Minor: 1200},
		CategoryID: "food", Kind: core.Expense,
	})
	require.NoError(t, err)

	edit := created
	edit.Amount = core.Money{Minor: 1500}
	edit.UserID = "u2"
	updated, err := svc.UpdateTransaction(ctx, "u2", edit)
	require.NoError(t, err)
	require.Equal(t, "u1", updated.UserID)
	require.Equal(t, []string{"u1", "u2"}, updated.InvolvedUserIDs)

	stored, err := svc.GetTransaction(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1500), stored.Amount.Minor)

	_, err = svc.UpdateTransaction(ctx, "u1", core.Transaction{ID: "missing"})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	svc, pub := newLedger(t)
	pub.err = errors.New("broker down")

	_, err := svc.CreateCategory(ctx, "u1", core.Category{Name: "Food", Kind: core.Expense, Ratio: "1:1"})
	require.NoError(t, err)

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestCategoryRatioValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newLedger(t)

	_, err := svc.CreateCategory(ctx, "u1", core.Category{Name: "Food", Kind: core.Expense, Ratio: "2:"})
	require.ErrorIs(t, err, ErrInvalidInput)

	c, err := svc.CreateCategory(ctx, "u1", core.Category{Name: "Hobby", Kind: core.Expense})
	require.NoError(t, err)
	require.Equal(t, "u1", c.UserID)

	c.Name = "Hobbies"
	c.Ratio = "3:2"
	c.Kind = core.Income
	updated, err := svc.UpdateCategory(ctx, c)
	require.NoError(t, err)
	require.Equal(t, "Hobbies", updated.Name)
	require.Equal(t, "3:2", updated.Ratio)
	require.Equal(t, core.Expense, updated.Kind, "kind is fixed at creation")

	require.ErrorIs(t, svc.ReorderCategories(ctx, nil), ErrInvalidInput)
}

func TestCategoryEmptyRatioStoredAsNone(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewLedgerService(store, nil)

	c, err := svc.CreateCategory(ctx, "u1", core.Category{Name: "Hobby", Kind: core.Expense})
	require.NoError(t, err)
	require.Equal(t, core.RatioNone, c.Ratio)

	c.Ratio = "1:1"
	_, err = svc.UpdateCategory(ctx, c)
	require.NoError(t, err)
	c.Ratio = ""
	updated, err := svc.UpdateCategory(ctx, c)
	require.NoError(t, err)
	require.Equal(t, core.RatioNone, updated.Ratio)

	stored, err := store.GetCategory(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, core.RatioNone, stored.Ratio)
}

func TestReviseFixedCostAppendsRevision(t *testing.T) {
	ctx := context.Background()
	svc, pub := newLedger(t)

	fc, err := svc.CreateFixedCost(ctx, "u1", core.FixedCost{
		Kind: core.Expense, CategoryID: "rent", Amount: core.Money{Minor: 800},
		Date: core.MustParseDate("2024-01-01"), Frequency: core.Monthly,
	})
	require.NoError(t, err)

	revised, err := svc.ReviseFixedCost(ctx, "u2", storage.FixedCostEdit{
		ID: fc.ID, CategoryID: "rent", Amount: core.Money{Minor: 1000},
		Frequency: core.Monthly, ReflectDate: core.MustParseDate("2024-03-01"),
	})
	require.NoError(t, err)
	require.Equal(t, int64(800), revised.Amount.Minor)
	require.Equal(t, []core.Revision{{ReflectDate: core.MustParseDate("2024-03-01"), Amount: core.Money{Minor: 1000}}}, revised.Revisions)

	_, err = svc.ReviseFixedCost(ctx, "u1", storage.FixedCostEdit{
		ID: fc.ID, CategoryID: "rent", Amount: core.Money{Minor: 1}, Frequency: "daily",
		Date: core.MustParseDate("2024-01-01"),
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	var fixed int
	for _, m := range pub.messages() {
		if m.Collection == amqp.FixedCosts {
			fixed++
		}
	}
	require.Equal(t, 2, fixed)
}

func TestDeleteMissingRecord(t *testing.T) {
	ctx := context.Background()
	svc, pub := newLedger(t)

	require.ErrorIs(t, svc.DeleteTransaction(ctx, "nope"), storage.ErrNotFound)
	require.ErrorIs(t, svc.DeleteFixedCost(ctx, "nope"), storage.ErrNotFound)
	require.ErrorIs(t, svc.DeleteCategory(ctx, "nope"), storage.ErrNotFound)
	require.Empty(t, pub.messages())
}

func TestLedgerServiceClose(t *testing.T) {
	svc := NewLedgerService(memory.New(), nil)
	require.NoError(t, svc.Close())
}
