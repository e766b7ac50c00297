package core

import (
	"sort"
	"strings"
)

// FieldErrors maps an input field name to the constraint it violated.
// It is the error type every schema validation returns, so callers can
// surface the offending fields instead of a single opaque message.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (f FieldErrors) add(field string, err error) {
	if err != nil {
		f[field] = err.Error()
	}
}

func (f FieldErrors) orNil() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

// CreateExpenseInput is the validated shape of the create operation.
type CreateExpenseInput struct {
	Amount      Money
	Date        Date
	Description string
	Category    Category
}

func (in CreateExpenseInput) Validate() error {
	errs := FieldErrors{}
	errs.add("amount", in.Amount.Validate())
	errs.add("date", in.Date.Validate())
	if len(strings.TrimSpace(in.Description)) == 0 {
		errs.add("description", ErrEmptyDescription)
	}
	errs.add("category", in.Category.Validate())
	return errs.orNil()
}

// UpdateExpenseInput is a partial update: nil fields stay untouched.
type UpdateExpenseInput struct {
	ID          int64
	Amount      *Money
	Date        *Date
	Description *string
	Category    *Category
}

func (in UpdateExpenseInput) Validate() error {
	errs := FieldErrors{}
	if in.ID <= 0 {
		errs.add("id", ErrMissingID)
	}
	if in.Amount != nil {
		errs.add("amount", in.Amount.Validate())
	}
	if in.Date != nil {
		errs.add("date", in.Date.Validate())
	}
	if in.Description != nil && len(strings.TrimSpace(*in.Description)) == 0 {
		errs.add("description", ErrEmptyDescription)
	}
	if in.Category != nil {
		errs.add("category", in.Category.Validate())
	}
	return errs.orNil()
}

// Empty reports whether the update carries no fields to change.
func (in UpdateExpenseInput) Empty() bool {
	return in.Amount == nil && in.Date == nil && in.Description == nil && in.Category == nil
}

// ExpenseFilter narrows a list query. All predicates are optional and
// conjunctive: month and year apply to the stored date independently when
// given alone, together when both are given.
type ExpenseFilter struct {
	Category *Category
	Month    *int
	Year     *int
}

func (f ExpenseFilter) Validate() error {
	errs := FieldErrors{}
	if f.Category != nil {
		errs.add("category", f.Category.Validate())
	}
	if f.Month != nil && (*f.Month < 1 || *f.Month > 12) {
		errs.add("month", ErrInvalidMonth)
	}
	if f.Year != nil && *f.Year < 1900 {
		errs.add("year", ErrInvalidYear)
	}
	return errs.orNil()
}

// IsZero reports whether no predicate is set, meaning "all rows".
func (f ExpenseFilter) IsZero() bool {
	return f.Category == nil && f.Month == nil && f.Year == nil
}

// Matches applies the filter predicates to a single expense.
func (f ExpenseFilter) Matches(e Expense) bool {
	if f.Category != nil && e.Category != *f.Category {
		return false
	}
	if f.Month != nil && e.Date.Month() != *f.Month {
		return false
	}
	if f.Year != nil && e.Date.Year() != *f.Year {
		return false
	}
	return true
}
