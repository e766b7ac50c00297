// Package sheets defines the ports for the spreadsheet export journal.
package sheets

import (
	"context"

	"expenses/internal/core"
)

type (
	// ExpenseAppender writes one expense row to the journal and returns a
	// row reference.
	ExpenseAppender interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// ExpenseRemover deletes the journal row matching the expense data.
	ExpenseRemover interface {
		RemoveByData(ctx context.Context, e core.Expense) error
	}
)
