package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func createInput(cents int64, date core.Date, desc string, cat core.Category) core.CreateExpenseInput {
	return core.CreateExpenseInput{
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Description: desc,
		Category:    cat,
	}
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateExpense(ctx, createInput(1250, core.NewDate(2024, 1, 15), "Coffee and pastry", core.Food))
	require.NoError(t, err)

	assert.Positive(t, created.ID)
	assert.Equal(t, int64(1250), created.Amount.Cents)
	assert.Equal(t, "2024-01-15", created.Date.String())
	assert.Equal(t, "Coffee and pastry", created.Description)
	assert.Equal(t, core.Food, created.Category)
	assert.WithinDuration(t, time.Now().UTC(), created.CreatedAt, 5*time.Second)

	got, err := repo.GetExpense(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestGetExpenseNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetExpense(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListExpensesFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []core.CreateExpenseInput{
		createInput(1250, core.NewDate(2024, 1, 15), "Coffee and pastry", core.Food),
		createInput(4500, core.NewDate(2024, 1, 14), "Gas station fill-up", core.Transport),
		createInput(120000, core.NewDate(2024, 2, 1), "Monthly rent", core.Housing),
		createInput(2599, core.NewDate(2023, 1, 12), "Movie tickets", core.Entertainment),
	}
	for _, in := range seed {
		_, err := repo.CreateExpense(ctx, in)
		require.NoError(t, err)
	}

	food := core.Food
	jan := 1
	y2024 := 2024

	all, err := repo.ListExpenses(ctx, core.ExpenseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	// Newest date first.
	assert.Equal(t, "Monthly rent", all[0].Description)

	byCat, err := repo.ListExpenses(ctx, core.ExpenseFilter{Category: &food})
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, "Coffee and pastry", byCat[0].Description)

	// Month alone matches the month across every year.
	byMonth, err := repo.ListExpenses(ctx, core.ExpenseFilter{Month: &jan})
	require.NoError(t, err)
	assert.Len(t, byMonth, 3)

	byYear, err := repo.ListExpenses(ctx, core.ExpenseFilter{Year: &y2024})
	require.NoError(t, err)
	assert.Len(t, byYear, 3)

	byMonthYear, err := repo.ListExpenses(ctx, core.ExpenseFilter{Month: &jan, Year: &y2024})
	require.NoError(t, err)
	assert.Len(t, byMonthYear, 2)

	conj, err := repo.ListExpenses(ctx, core.ExpenseFilter{Category: &food, Month: &jan, Year: &y2024})
	require.NoError(t, err)
	require.Len(t, conj, 1)
	assert.Equal(t, "Coffee and pastry", conj[0].Description)
}

func TestUpdateExpensePartial(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateExpense(ctx, createInput(1250, core.NewDate(2024, 1, 15), "Coffee and pastry", core.Food))
	require.NoError(t, err)

	newAmount := core.Money{Cents: 1500}
	updated, err := repo.UpdateExpense(ctx, core.UpdateExpenseInput{ID: created.ID, Amount: &newAmount})
	require.NoError(t, err)

	assert.Equal(t, int64(1500), updated.Amount.Cents)
	// Untouched fields keep their stored values.
	assert.Equal(t, created.Date, updated.Date)
	assert.Equal(t, created.Description, updated.Description)
	assert.Equal(t, created.Category, updated.Category)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestUpdateExpenseEmptyPatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateExpense(ctx, createInput(1250, core.NewDate(2024, 1, 15), "Coffee and pastry", core.Food))
	require.NoError(t, err)

	got, err := repo.UpdateExpense(ctx, core.UpdateExpenseInput{ID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestUpdateExpenseNotFoundNeverCreates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	desc := "Ghost"
	_, err := repo.UpdateExpense(ctx, core.UpdateExpenseInput{ID: 42, Description: &desc})
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := repo.ListExpenses(ctx, core.ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDeleteExpenseIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateExpense(ctx, createInput(1250, core.NewDate(2024, 1, 15), "Coffee and pastry", core.Food))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteExpense(ctx, created.ID))
	_, err = repo.GetExpense(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again, or an id that never existed, still succeeds.
	assert.NoError(t, repo.DeleteExpense(ctx, created.ID))
	assert.NoError(t, repo.DeleteExpense(ctx, 999))
}

func TestSummarize(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateExpense(ctx, createInput(1250, core.NewDate(2024, 1, 15), "Coffee and pastry", core.Food))
	require.NoError(t, err)
	_, err = repo.CreateExpense(ctx, createInput(750, core.NewDate(2024, 1, 16), "Groceries", core.Food))
	require.NoError(t, err)
	_, err = repo.CreateExpense(ctx, createInput(4500, core.NewDate(2024, 1, 14), "Gas station fill-up", core.Transport))
	require.NoError(t, err)

	s, err := repo.Summarize(ctx, core.ExpenseFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(6500), s.Total.Cents)
	assert.Equal(t, 3, s.Count)
	require.Len(t, s.ByCategory, 2)
	assert.Equal(t, core.Food, s.ByCategory[0].Category)
	assert.Equal(t, int64(2000), s.ByCategory[0].Total.Cents)
}

func TestSyncLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateExpense(ctx, createInput(1250, core.NewDate(2024, 1, 15), "Coffee and pastry", core.Food))
	require.NoError(t, err)

	version, status, err := repo.GetSyncState(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, SyncPending, status)

	pending, err := repo.ListPendingSync(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, created.ID, pending[0].ID)

	require.NoError(t, repo.MarkSynced(ctx, created.ID))
	pending, err = repo.ListPendingSync(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// An update flags the row for export again and bumps the version.
	newAmount := core.Money{Cents: 1500}
	_, err = repo.UpdateExpense(ctx, core.UpdateExpenseInput{ID: created.ID, Amount: &newAmount})
	require.NoError(t, err)

	version, status, err = repo.GetSyncState(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.Equal(t, SyncPending, status)

	// Errored rows come back in the reconcile sweep.
	require.NoError(t, repo.MarkSyncError(ctx, created.ID))
	pending, err = repo.ListPendingSync(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
