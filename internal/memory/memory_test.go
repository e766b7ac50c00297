package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

func seed(t *testing.T, s *Store, cents int64, date core.Date, desc string, cat core.Category) core.Expense {
	t.Helper()
	e, err := s.CreateExpense(context.Background(), core.CreateExpenseInput{
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Description: desc,
		Category:    cat,
	})
	require.NoError(t, err)
	return e
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	s := New()
	first := seed(t, s, 1250, core.NewDate(2024, 1, 15), "Coffee and pastry", core.Food)
	second := seed(t, s, 4500, core.NewDate(2024, 1, 14), "Gas station fill-up", core.Transport)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	s := New()
	_, err := s.CreateExpense(context.Background(), core.CreateExpenseInput{})
	var fields core.FieldErrors
	require.ErrorAs(t, err, &fields)
}

func TestGetExpenseByIDAbsentIsNil(t *testing.T) {
	s := New()
	got, err := s.GetExpenseByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetExpensesNewestFirstAndFiltered(t *testing.T) {
	s := New()
	ctx := context.Background()
	seed(t, s, 2599, core.NewDate(2023, 1, 12), "Movie tickets", core.Entertainment)
	seed(t, s, 1250, core.NewDate(2024, 1, 15), "Coffee and pastry", core.Food)
	seed(t, s, 4500, core.NewDate(2024, 1, 14), "Gas station fill-up", core.Transport)

	all, err := s.GetExpenses(ctx, core.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Coffee and pastry", all[0].Description)
	assert.Equal(t, "Gas station fill-up", all[1].Description)
	assert.Equal(t, "Movie tickets", all[2].Description)

	y2024 := 2024
	filtered, err := s.GetExpenses(ctx, core.ExpenseFilter{Year: &y2024})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
}

func TestGetExpensesSameDateOrderedByNewestID(t *testing.T) {
	s := New()
	first := seed(t, s, 1250, core.NewDate(2024, 1, 15), "Coffee and pastry", core.Food)
	second := seed(t, s, 899, core.NewDate(2024, 1, 15), "Lunch", core.Food)

	all, err := s.GetExpenses(context.Background(), core.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
}

func TestUpdateExpense(t *testing.T) {
	s := New()
	ctx := context.Background()
	created := seed(t, s, 1250, core.NewDate(2024, 1, 15), "Coffee and pastry", core.Food)

	desc := "Coffee"
	updated, err := s.UpdateExpense(ctx, core.UpdateExpenseInput{ID: created.ID, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Coffee", updated.Description)
	assert.Equal(t, created.Amount, updated.Amount)

	_, err = s.UpdateExpense(ctx, core.UpdateExpenseInput{ID: 42, Description: &desc})
	assert.ErrorIs(t, err, core.ErrExpenseNotFound)
}

func TestDeleteExpenseIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()
	created := seed(t, s, 1250, core.NewDate(2024, 1, 15), "Coffee and pastry", core.Food)

	require.NoError(t, s.DeleteExpense(ctx, created.ID))
	require.NoError(t, s.DeleteExpense(ctx, created.ID))

	got, err := s.GetExpenseByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSummarize(t *testing.T) {
	s := New()
	seed(t, s, 1250, core.NewDate(2024, 1, 15), "Coffee and pastry", core.Food)
	seed(t, s, 4500, core.NewDate(2024, 1, 14), "Gas station fill-up", core.Transport)

	summary, err := s.Summarize(context.Background(), core.ExpenseFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(5750), summary.Total.Cents)
	assert.Equal(t, 2, summary.Count)
}
