package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kakeibo/internal/core"
	"kakeibo/internal/report"
	"kakeibo/internal/storage"
	"kakeibo/internal/storage/memory"
)

var testRoster = core.NewRoster(core.Party{ID: "u1", Name: "Hana"}, core.Party{ID: "u2", Name: "Seiji"})

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.CreateCategory(ctx, core.Category{ID: "food", Name: "Food", Kind: core.Expense, Ratio: "1:1"}))
	require.NoError(t, s.CreateCategory(ctx, core.Category{ID: "hobby", Name: "Hobby", Kind: core.Expense, UserID: "u2"}))
	require.NoError(t, s.CreateCategory(ctx, core.Category{ID: "salary", Name: "Salary", Kind: core.Income, UserID: "u1"}))

	for _, tx := range []core.Transaction{
		{ID: "t1", Date: core.MustParseDate("2024-05-03"), Amount: core.Money{Minor: 1000}, CategoryID: "food", Kind: core.Expense, UserID: "u1"},
		{ID: "t2", Date: core.MustParseDate("2024-05-10"), Amount: core.Money{Minor: 300}, CategoryID: "hobby", Kind: core.Expense, UserID: "u2"},
		{ID: "t3", Date: core.MustParseDate("2024-06-01"), Amount: core.Money{Minor: 9999}, CategoryID: "food", Kind: core.Expense, UserID: "u1"},
	} {
		require.NoError(t, s.CreateTransaction(ctx, tx))
	}
	require.NoError(t, s.CreateFixedCost(ctx, core.FixedCost{
		ID: "f1", Kind: core.Income, CategoryID: "salary", Amount: core.Money{Minor: 5000},
		Date: core.MustParseDate("2024-01-25"), Frequency: core.Monthly, UserID: "u1",
	}))
	return s
}

func newReports(t *testing.T, s *memory.Store) *ReportService {
	t.Helper()
	svc := NewReportService(s, testRoster, ReportServiceConfig{Location: time.UTC})
	svc.now = func() time.Time { return time.Date(2024, 8, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestMonthlyReport(t *testing.T) {
	ctx := context.Background()
	svc := newReports(t, seededStore(t))

	r, err := svc.Monthly(ctx, "u1", 2024, 5)
	require.NoError(t, err)
	require.Equal(t, int64(500), r.TotalExpense, "half of the shared food, no hobby")
	require.Equal(t, int64(5000), r.TotalIncome)
	require.Equal(t, int64(4500), r.NetBalance)
	require.Len(t, r.Expense.Categories, 1)
	require.Equal(t, "Food", r.Expense.Categories[0].Name)
	require.Equal(t, report.FixedBucketKey(core.Income), r.Income.Categories[0].Key)
	require.Equal(t, "Seiji pays Hana 500", r.Settlement.String())

	r2, err := svc.Monthly(ctx, "u2", 2024, 5)
	require.NoError(t, err)
	require.Equal(t, int64(800), r2.TotalExpense)
	require.Equal(t, int64(0), r2.TotalIncome)
}

func TestYearlyReportClippedToToday(t *testing.T) {
	ctx := context.Background()
	svc := newReports(t, seededStore(t))

	r, err := svc.Yearly(ctx, "u1", 2024)
	require.NoError(t, err)
	// Jan 25 through Jul 25; Aug 25 is after today
	require.Equal(t, int64(7*5000), r.TotalIncome)

	past, err := svc.Yearly(ctx, "u1", 2023)
	require.NoError(t, err)
	require.Equal(t, int64(0), past.TotalIncome)
}

func TestReportCacheFollowsVersion(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	svc := newReports(t, s)

	_, err := svc.Monthly(ctx, "u1", 2024, 5)
	require.NoError(t, err)
	require.Equal(t, 1, svc.Cache().Size())

	_, err = svc.Monthly(ctx, "u1", 2024, 5)
	require.NoError(t, err)
	require.Equal(t, 1, svc.Cache().Size())

	require.NoError(t, s.CreateTransaction(ctx, core.Transaction{
		ID: "t4", Date: core.MustParseDate("2024-05-20"), Amount: core.Money{Minor: 2000},
		CategoryID: "food", Kind: core.Expense, UserID: "u2",
	}))
	r, err := svc.Monthly(ctx, "u1", 2024, 5)
	require.NoError(t, err)
	require.Equal(t, int64(1500), r.TotalExpense)
	require.Equal(t, "Hana pays Seiji 500", r.Settlement.String())

	svc.Invalidate()
	require.Equal(t, 0, svc.Cache().Size())
}

func TestConcurrentReports(t *testing.T) {
	ctx := context.Background()
	svc := newReports(t, seededStore(t))

	var wg sync.WaitGroup
	results := make([]report.Report, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := svc.Monthly(ctx, "u1", 2024, 5)
			if err == nil {
				results[i] = r
			}
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		require.Equal(t, int64(500), r.TotalExpense)
	}
}

func TestCategoryDetails(t *testing.T) {
	ctx := context.Background()
	svc := newReports(t, seededStore(t))

	items, err := svc.CategoryDetails(ctx, "u1", report.MonthOf(2024, 5), "food")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "t1", items[0].ID)

	items, err = svc.CategoryDetails(ctx, "u1", report.MonthOf(2024, 5), "hobby")
	require.NoError(t, err)
	require.Empty(t, items, "private to u2")

	items, err = svc.CategoryDetails(ctx, "u1", report.MonthOf(2024, 5), report.FixedBucketKey(core.Income))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, core.MustParseDate("2024-05-25"), items[0].Date)
}

func TestInvalidPeriod(t *testing.T) {
	svc := newReports(t, seededStore(t))
	_, err := svc.Monthly(context.Background(), "u1", 2024, 13)
	require.ErrorIs(t, err, ErrInvalidInput)
}

// writeAfterSnapshot refuses piecemeal reads and commits a category move
// right after every snapshot, the way a concurrent request could.
type writeAfterSnapshot struct {
	*memory.Store
	snapshots int
}

func (w *writeAfterSnapshot) ListTransactions(context.Context, storage.TransactionFilter) ([]core.Transaction, error) {
	return nil, errors.New("piecemeal read")
}

func (w *writeAfterSnapshot) ListFixedCosts(context.Context) ([]core.FixedCost, error) {
	return nil, errors.New("piecemeal read")
}

func (w *writeAfterSnapshot) ListCategories(context.Context) ([]core.Category, error) {
	return nil, errors.New("piecemeal read")
}

func (w *writeAfterSnapshot) Snapshot(ctx context.Context, f storage.TransactionFilter) (storage.Snapshot, error) {
	snap, err := w.Store.Snapshot(ctx, f)
	if err != nil {
		return snap, err
	}
	w.snapshots++
	err = w.ReviseFixedCost(ctx, storage.FixedCostEdit{
		ID: "rent", CategoryID: "rent" + strconv.Itoa(w.snapshots), Amount: core.Money{Minor: 900},
		Frequency: core.Monthly, ReflectDate: core.MustParseDate("2024-05-01"), EditorID: "u1",
	})
	return snap, err
}

func TestReportsReadOneSnapshot(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.CreateCategory(ctx, core.Category{ID: "rent0", Name: "Rent", Kind: core.Expense, Ratio: "1:1"}))
	require.NoError(t, s.CreateFixedCost(ctx, core.FixedCost{
		ID: "rent", Kind: core.Expense, CategoryID: "rent0", Amount: core.Money{Minor: 800},
		Date: core.MustParseDate("2024-01-01"), Frequency: core.Monthly, UserID: "u1",
	}))
	require.NoError(t, s.CreateTransaction(ctx, core.Transaction{
		ID: "t1", Date: core.MustParseDate("2024-05-10"), Amount: core.Money{Minor: 100},
		CategoryID: "rent0", Kind: core.Expense, UserID: "u1",
	}))
	store := &writeAfterSnapshot{Store: s}
	svc := NewReportService(store, testRoster, ReportServiceConfig{Location: time.UTC})

	for i := 0; i < 3; i++ {
		before, err := s.Version(ctx)
		require.NoError(t, err)

		snap, err := svc.Snapshot(ctx, report.MonthOf(2024, 5))
		require.NoError(t, err)
		require.Equal(t, before, snap.Version, "stamped with the version it was read at")
		require.Len(t, snap.Transactions, 1)
		require.Len(t, snap.FixedCosts, 1)
		require.Equal(t, snap.FixedCosts[0].CategoryID, snap.Transactions[0].CategoryID)
	}

	_, err := svc.Monthly(ctx, "u1", 2024, 5)
	require.NoError(t, err)
	require.Equal(t, 4, store.snapshots)
}
