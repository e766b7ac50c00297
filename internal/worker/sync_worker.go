// Package worker synchronizes stored expenses to the Google Sheets journal.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/sheets"
	"expenses/internal/storage"
)

// SyncWorker consumes expense events and mirrors them to the sheets journal.
// The periodic sweep over pending rows is a backup for lost AMQP messages.
type SyncWorker struct {
	storage   *storage.Repository
	appender  sheets.ExpenseAppender
	remover   sheets.ExpenseRemover
	batchSize int
}

func NewSyncWorker(storage *storage.Repository, appender sheets.ExpenseAppender, remover sheets.ExpenseRemover, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		appender:  appender,
		remover:   remover,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single expense sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	expense, err := w.storage.GetExpense(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Row deleted between publish and consume; the delete message
			// handles the journal side.
			slog.WarnContext(ctx, "Expense gone before sync, skipping", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("get expense from storage: %w", err)
	}

	version, _, err := w.storage.GetSyncState(ctx, msg.ID)
	if err == nil && msg.Version > 0 && version > msg.Version {
		// A later update already queued a newer message; let that one win.
		slog.InfoContext(ctx, "Stale sync message, skipping",
			"id", msg.ID, "message_version", msg.Version, "current_version", version)
		return nil
	}

	if err := w.syncExpenseToSheets(ctx, expense); err != nil {
		return fmt.Errorf("sync expense to sheets: %w", err)
	}
	return nil
}

// HandleDeleteMessage processes a single expense delete message from AMQP.
// The storage row is already gone, so the journal row is located from the
// data carried in the message.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.ExpenseDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "id", msg.ID)

	if w.remover == nil {
		slog.WarnContext(ctx, "No sheets remover configured, skipping journal deletion",
			"id", msg.ID)
		return nil
	}

	date, err := core.ParseDate(msg.Date)
	if err != nil {
		slog.WarnContext(ctx, "Delete message carries unparseable date",
			"id", msg.ID, "date", msg.Date, "error", err)
	}

	expense := core.Expense{
		ID:          msg.ID,
		Amount:      core.Money{Cents: msg.AmountCents},
		Date:        date,
		Description: msg.Description,
		Category:    core.Category(msg.Category),
	}

	if err := w.remover.RemoveByData(ctx, expense); err != nil {
		slog.ErrorContext(ctx, "Failed to delete expense from journal",
			"id", msg.ID,
			"error", err,
			"timestamp", msg.Timestamp)
		return fmt.Errorf("delete expense from journal: %w", err)
	}

	slog.InfoContext(ctx, "Successfully deleted expense from journal",
		"id", msg.ID,
		"timestamp", msg.Timestamp)
	return nil
}

// ProcessPendingExpenses syncs rows still marked pending or errored.
func (w *SyncWorker) ProcessPendingExpenses(ctx context.Context) error {
	pending, err := w.storage.ListPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending expenses: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending expenses", "count", len(pending))

	for _, p := range pending {
		expense, err := w.storage.GetExpense(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get expense", "id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			continue
		}
		if err := w.syncExpenseToSheets(ctx, expense); err != nil {
			slog.ErrorContext(ctx, "Failed to sync expense", "id", p.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupSyncCheck drains pending rows accumulated while the worker was
// down, using a larger batch than the periodic sweep.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.ListPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending expenses for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending expenses found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending expenses on startup, processing...",
		"count", len(pending))

	synced := 0
	failed := 0
	for _, p := range pending {
		expense, err := w.storage.GetExpense(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get expense for startup sync",
				"id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			failed++
			continue
		}
		if err := w.syncExpenseToSheets(ctx, expense); err != nil {
			slog.ErrorContext(ctx, "Failed to sync expense during startup",
				"id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) syncExpenseToSheets(ctx context.Context, expense core.Expense) error {
	ref, err := w.appender.Append(ctx, expense)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, expense.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", expense.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, expense.ID); err != nil {
		// The append worked; leave the row pending and let the sweep retry.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", expense.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced expense",
		"id", expense.ID,
		"sheets_ref", ref,
		"description", expense.Description,
		"amount_cents", expense.Amount.Cents)
	return nil
}
