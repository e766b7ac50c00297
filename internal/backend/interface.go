package backend

import (
	"context"

	"expenses/internal/core"
)

// Ports for the expense operations. The RPC surface depends on these, not
// on a concrete store.
type (
	ExpenseCreator interface {
		CreateExpense(ctx context.Context, in core.CreateExpenseInput) (core.Expense, error)
	}

	ExpenseReader interface {
		// GetExpenseByID returns nil (not an error) when the id is absent.
		GetExpenseByID(ctx context.Context, id int64) (*core.Expense, error)
	}

	ExpenseLister interface {
		GetExpenses(ctx context.Context, f core.ExpenseFilter) ([]core.Expense, error)
	}

	ExpenseUpdater interface {
		// UpdateExpense patches the supplied fields only and fails with
		// core.ErrExpenseNotFound for unknown ids. It never creates a record.
		UpdateExpense(ctx context.Context, in core.UpdateExpenseInput) (core.Expense, error)
	}

	ExpenseDeleter interface {
		// DeleteExpense is idempotent; absent ids are a successful no-op.
		DeleteExpense(ctx context.Context, id int64) error
	}

	SummaryReader interface {
		Summarize(ctx context.Context, f core.ExpenseFilter) (core.Summary, error)
	}
)

// Backend is the full operation surface a store must provide.
type Backend interface {
	ExpenseCreator
	ExpenseReader
	ExpenseLister
	ExpenseUpdater
	ExpenseDeleter
	SummaryReader
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result contains the backend instance and its cleanup function.
type Result struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// SQLite specific
	DatabaseURL  string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Type selects the concrete store.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) IsValid() bool {
	return t == SQLiteBackend || t == MemoryBackend
}
