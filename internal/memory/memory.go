// Package memory provides an in-memory expense store for demos and tests.
// It mirrors the SQLite backend's semantics, including the two-decimal
// amount rounding, so handler behavior is identical across backends.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"expenses/internal/core"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Expense
}

func New() *Store {
	return &Store{nextID: 1}
}

func (s *Store) CreateExpense(_ context.Context, in core.CreateExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := core.Expense{
		ID:          s.nextID,
		Amount:      in.Amount,
		Date:        in.Date,
		Description: in.Description,
		Category:    in.Category,
		CreatedAt:   time.Now().UTC(),
	}
	s.nextID++
	s.items = append(s.items, e)
	return e, nil
}

func (s *Store) GetExpenseByID(_ context.Context, id int64) (*core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.items {
		if e.ID == id {
			out := e
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) GetExpenses(_ context.Context, f core.ExpenseFilter) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Expense
	for _, e := range s.items {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	// Most recent date first, ties broken by newest id, matching the
	// SQLite ordering.
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Time.Equal(out[j].Date.Time) {
			return out[i].Date.Time.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateExpense(_ context.Context, in core.UpdateExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID != in.ID {
			continue
		}
		if in.Amount != nil {
			s.items[i].Amount = *in.Amount
		}
		if in.Date != nil {
			s.items[i].Date = *in.Date
		}
		if in.Description != nil {
			s.items[i].Description = *in.Description
		}
		if in.Category != nil {
			s.items[i].Category = *in.Category
		}
		return s.items[i], nil
	}
	return core.Expense{}, core.ErrExpenseNotFound
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	// Absent ids delete successfully.
	return nil
}

func (s *Store) Summarize(ctx context.Context, f core.ExpenseFilter) (core.Summary, error) {
	expenses, err := s.GetExpenses(ctx, f)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(expenses), nil
}
