// Package storage persists expenses in a single SQLite table.
//
// The storage representation is deliberately stringly: amounts are fixed
// two-decimal text, dates are YYYY-MM-DD text, created_at is RFC 3339 text.
// Every conversion between those encodings and the typed domain model
// happens here and nowhere else.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"expenses/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an id does not exist in the table.
var ErrNotFound = core.ErrExpenseNotFound

// Sync states for the sheets export worker.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const expenseColumns = "id, amount, date, description, category, created_at"

// CreateExpense inserts a row and returns the stored record, so the caller
// sees exactly what round-tripped through the column encodings.
func (r *Repository) CreateExpense(ctx context.Context, in core.CreateExpenseInput) (core.Expense, error) {
	createdAt := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (amount, date, description, category, created_at) VALUES (?, ?, ?, ?, ?)`,
		in.Amount.Decimal(), in.Date.String(), in.Description, string(in.Category), createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("last insert id: %w", err)
	}

	expense, err := r.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("read back expense %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", expense.ID,
		"description", expense.Description,
		"amount_cents", expense.Amount.Cents,
		"category", expense.Category,
		"date", expense.Date.String())

	return expense, nil
}

// GetExpense returns the row with the given id or ErrNotFound.
func (r *Repository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// ListExpenses returns rows matching every provided filter predicate.
// Category matches exactly; month and year match the stored date's calendar
// month and year, independently or combined.
func (r *Repository) ListExpenses(ctx context.Context, f core.ExpenseFilter) ([]core.Expense, error) {
	var (
		conds []string
		args  []any
	)
	if f.Category != nil {
		conds = append(conds, "category = ?")
		args = append(args, string(*f.Category))
	}
	if f.Month != nil {
		conds = append(conds, "CAST(strftime('%m', date) AS INTEGER) = ?")
		args = append(args, *f.Month)
	}
	if f.Year != nil {
		conds = append(conds, "CAST(strftime('%Y', date) AS INTEGER) = ?")
		args = append(args, *f.Year)
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// UpdateExpense patches only the supplied fields. An empty patch returns
// the current record unchanged; an unknown id returns ErrNotFound and
// never creates a row.
func (r *Repository) UpdateExpense(ctx context.Context, in core.UpdateExpenseInput) (core.Expense, error) {
	if in.Empty() {
		return r.GetExpense(ctx, in.ID)
	}

	var (
		sets []string
		args []any
	)
	if in.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, in.Amount.Decimal())
	}
	if in.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, in.Date.String())
	}
	if in.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *in.Description)
	}
	if in.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, string(*in.Category))
	}
	// Bump the sync bookkeeping so the export worker picks the row up again.
	sets = append(sets, "version = version + 1", "sync_status = '"+SyncPending+"'")
	args = append(args, in.ID)

	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", in.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Expense{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.Expense{}, ErrNotFound
	}

	expense, err := r.GetExpense(ctx, in.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("read back expense %d: %w", in.ID, err)
	}

	slog.InfoContext(ctx, "Expense updated", "id", in.ID)
	return expense, nil
}

// DeleteExpense removes the row if present. Deleting an absent id is a
// successful no-op.
func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

// Summarize folds the filtered rows into per-category totals. Sums are
// computed over integer cents in Go so no floating-point drift can creep in.
func (r *Repository) Summarize(ctx context.Context, f core.ExpenseFilter) (core.Summary, error) {
	expenses, err := r.ListExpenses(ctx, f)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize expenses: %w", err)
	}
	return core.Summarize(expenses), nil
}

// PendingExpense is the minimal row state the export worker needs.
type PendingExpense struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

// ListPendingSync returns rows still waiting for export, oldest first.
func (r *Repository) ListPendingSync(ctx context.Context, limit int) ([]PendingExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version, created_at FROM expenses
		 WHERE sync_status IN (?, ?) ORDER BY id LIMIT ?`,
		SyncPending, SyncError, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	defer rows.Close()

	var pending []PendingExpense
	for rows.Next() {
		var (
			p       PendingExpense
			created string
		)
		if err := rows.Scan(&p.ID, &p.Version, &created); err != nil {
			return nil, fmt.Errorf("scan pending expense: %w", err)
		}
		p.CreatedAt, err = parseCreatedAt(created)
		if err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending expenses: %w", err)
	}
	return pending, nil
}

// GetSyncState returns the current version and sync status of a row.
func (r *Repository) GetSyncState(ctx context.Context, id int64) (version int64, status string, err error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT version, sync_status FROM expenses WHERE id = ?`, id)
	if err := row.Scan(&version, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", ErrNotFound
		}
		return 0, "", fmt.Errorf("get sync state %d: %w", id, err)
	}
	return version, status, nil
}

// MarkSynced records a successful export of the row.
func (r *Repository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = ? WHERE id = ?`, SyncSynced, id); err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	return nil
}

// MarkSyncError flags the row for the periodic reconcile sweep.
func (r *Repository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = ? WHERE id = ?`, SyncError, id); err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}
	slog.WarnContext(ctx, "Expense marked with sync error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e        core.Expense
		amount   string
		date     string
		category string
		created  string
	)
	if err := row.Scan(&e.ID, &amount, &date, &e.Description, &category, &created); err != nil {
		return core.Expense{}, err
	}

	cents, err := core.ParseDecimalToCents(amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	e.Amount = core.Money{Cents: cents}

	e.Date, err = core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}

	e.Category, err = core.ParseCategory(category)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse stored category %q: %w", category, err)
	}

	e.CreatedAt, err = parseCreatedAt(created)
	if err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func parseCreatedAt(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored created_at %q: %w", s, err)
	}
	return t, nil
}
