// Package services orchestrates expense operations across the SQLite
// repository and the AMQP event queue.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/storage"
)

// ExpenseService implements the backend ports on top of the repository and
// publishes export events after successful mutations. Publishing is best
// effort: the row is already persisted, so a queue failure is logged and
// the periodic reconcile sweep picks the row up later.
type ExpenseService struct {
	storage    *storage.Repository
	amqpClient *amqp.Client
}

func NewExpenseService(storage *storage.Repository, amqpClient *amqp.Client) *ExpenseService {
	return &ExpenseService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

func (s *ExpenseService) CreateExpense(ctx context.Context, in core.CreateExpenseInput) (core.Expense, error) {
	expense, err := s.storage.CreateExpense(ctx, in)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.PublishExpenseSync(ctx, expense.ID, 1); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message", "id", expense.ID, "error", err)
		}
	}

	return expense, nil
}

func (s *ExpenseService) GetExpenseByID(ctx context.Context, id int64) (*core.Expense, error) {
	expense, err := s.storage.GetExpense(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return &expense, nil
}

func (s *ExpenseService) GetExpenses(ctx context.Context, f core.ExpenseFilter) ([]core.Expense, error) {
	expenses, err := s.storage.ListExpenses(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (s *ExpenseService) UpdateExpense(ctx context.Context, in core.UpdateExpenseInput) (core.Expense, error) {
	expense, err := s.storage.UpdateExpense(ctx, in)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	if s.amqpClient != nil && !in.Empty() {
		version, _, verr := s.storage.GetSyncState(ctx, expense.ID)
		if verr != nil {
			version = 0 // worker reads the latest row anyway
		}
		if err := s.amqpClient.PublishExpenseSync(ctx, expense.ID, version); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message", "id", expense.ID, "error", err)
		}
	}

	return expense, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	// Snapshot the row first; the delete event needs its data and the row
	// is gone afterwards. An absent row still deletes as a no-op.
	existing, err := s.storage.GetExpense(ctx, id)
	missing := errors.Is(err, storage.ErrNotFound)
	if err != nil && !missing {
		return fmt.Errorf("read expense before delete: %w", err)
	}

	if err := s.storage.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	if s.amqpClient != nil && !missing {
		if err := s.amqpClient.PublishExpenseDelete(ctx, existing); err != nil {
			slog.ErrorContext(ctx, "Failed to publish delete message", "id", id, "error", err)
		}
	}

	return nil
}

func (s *ExpenseService) Summarize(ctx context.Context, f core.ExpenseFilter) (core.Summary, error) {
	summary, err := s.storage.Summarize(ctx, f)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize expenses: %w", err)
	}
	return summary, nil
}

// Close closes both storage and AMQP connections.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}
	return nil
}
