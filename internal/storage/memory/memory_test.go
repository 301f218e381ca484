package memory

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

func TestTransactionsAccumulateInvolvedUsers(t *testing.T) {
	ctx := context.Background()
	s := New()

	tx := core.Transaction{
		ID: "t1", Date: core.MustParseDate("2024-05-01"), Amount: core.Money{Minor: 100},
		CategoryID: "food", Kind: core.Expense, UserID: "u1", InvolvedUserIDs: []string{"u1"},
	}
	require.NoError(t, s.CreateTransaction(ctx, tx))
	require.ErrorIs(t, s.CreateTransaction(ctx, tx), storage.ErrConflict)

	tx.InvolvedUserIDs = []string{"u2"}
	tx.UserID = "someone-else"
	require.NoError(t, s.UpdateTransaction(ctx, tx))

	got, err := s.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, []string{"u1", "u2"}, got.InvolvedUserIDs)
	require.Equal(t, "u1", got.UserID, "owner never changes")

	got.InvolvedUserIDs[0] = "mutated"
	again, _ := s.GetTransaction(ctx, "t1")
	require.Equal(t, "u1", again.InvolvedUserIDs[0], "returned values are copies")

	v, _ := s.Version(ctx)
	require.Equal(t, int64(2), v)
}

func TestListTransactionsFilter(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i, d := range []string{"2024-04-30", "2024-05-01", "2024-05-31", "2024-06-01"} {
		require.NoError(t, s.CreateTransaction(ctx, core.Transaction{
			ID: string(rune('a' + i)), Date: core.MustParseDate(d), Amount: core.Money{Minor: 1},
			CategoryID: "c", Kind: core.Expense, UserID: "u1",
		}))
	}
	got, err := s.ListTransactions(ctx, storage.TransactionFilter{From: core.MustParseDate("2024-05-01"), To: core.MustParseDate("2024-05-31")})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "b", got[0].ID)
	require.Equal(t, "c", got[1].ID)
}

func TestReviseFixedCostWithReflectDate(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateFixedCost(ctx, core.FixedCost{
		ID: "f1", Kind: core.Expense, CategoryID: "phone", Amount: core.Money{Minor: 3000},
		Date: core.MustParseDate("2024-01-05"), Frequency: core.Monthly, UserID: "u1",
	}))
	require.NoError(t, s.CreateTransaction(ctx, core.Transaction{
		ID: "t1", Date: core.MustParseDate("2024-03-10"), Amount: core.Money{Minor: 1},
		CategoryID: "phone", Kind: core.Expense, UserID: "u1",
	}))

	require.NoError(t, s.ReviseFixedCost(ctx, storage.FixedCostEdit{
		ID: "f1", CategoryID: "mobile", Amount: core.Money{Minor: 3500}, Frequency: core.Monthly,
		ReflectDate: core.MustParseDate("2024-03-01"), EditorID: "u1",
	}))

	fc, err := s.GetFixedCost(ctx, "f1")
	require.NoError(t, err)
	require.Equal(t, int64(3000), fc.Amount.Minor)
	require.Len(t, fc.Revisions, 1)

	tx, err := s.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "mobile", tx.CategoryID)
	require.Equal(t, []string{"u1"}, tx.InvolvedUserIDs)
}

func TestSnapshotSeesWholeWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateFixedCost(ctx, core.FixedCost{
		ID: "f1", Kind: core.Expense, CategoryID: "cat0", Amount: core.Money{Minor: 3000},
		Date: core.MustParseDate("2024-01-05"), Frequency: core.Monthly, UserID: "u1",
	}))
	require.NoError(t, s.CreateTransaction(ctx, core.Transaction{
		ID: "t1", Date: core.MustParseDate("2024-05-10"), Amount: core.Money{Minor: 1},
		CategoryID: "cat0", Kind: core.Expense, UserID: "u1",
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= 200; i++ {
			_ = s.ReviseFixedCost(ctx, storage.FixedCostEdit{
				ID: "f1", CategoryID: "cat" + strconv.Itoa(i), Amount: core.Money{Minor: int64(3000 + i)},
				Frequency: core.Monthly, ReflectDate: core.MustParseDate("2024-05-01"), EditorID: "u1",
			})
		}
	}()

	for {
		snap, err := s.Snapshot(ctx, storage.TransactionFilter{})
		require.NoError(t, err)
		require.Len(t, snap.Transactions, 1)
		require.Len(t, snap.FixedCosts, 1)
		require.Equal(t, snap.FixedCosts[0].CategoryID, snap.Transactions[0].CategoryID)
		require.Len(t, snap.FixedCosts[0].Revisions, int(snap.Version-2))

		select {
		case <-done:
			return
		default:
		}
	}
}

func TestReorderIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateCategory(ctx, core.Category{ID: "a", Name: "A", Kind: core.Expense, UserID: "u1"}))
	require.NoError(t, s.CreateCategory(ctx, core.Category{ID: "b", Name: "B", Kind: core.Expense, UserID: "u1"}))

	require.ErrorIs(t, s.ReorderCategories(ctx, []string{"b", "zzz"}), storage.ErrNotFound)
	list, _ := s.ListCategories(ctx)
	require.Equal(t, "a", list[0].ID)

	require.NoError(t, s.ReorderCategories(ctx, []string{"b", "a"}))
	list, _ = s.ListCategories(ctx)
	require.Equal(t, "b", list[0].ID)

	require.ErrorIs(t, s.CreateCategory(ctx, core.Category{ID: "c", Name: "A", Kind: core.Expense}), storage.ErrConflict)
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	seed := `categories:
  - id: food
    name: Food
    kind: expense
    ratio: "1:1"
  - name: Hobby
    kind: expense
    user: u1
`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	s, err := NewFromFile(path)
	require.NoError(t, err)
	list, err := s.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "food", list[0].ID)
	require.Equal(t, "Hobby", list[1].ID)

	empty, err := NewFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	list, _ = empty.ListCategories(context.Background())
	require.Empty(t, list)
}
