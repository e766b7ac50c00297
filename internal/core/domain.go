package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Housing       Category = "Housing"
	Entertainment Category = "Entertainment"
	Utilities     Category = "Utilities"
	Shopping      Category = "Shopping"
	Salary        Category = "Salary"
)

// Categories lists every valid category in display order.
var Categories = []Category{Food, Transport, Housing, Entertainment, Utilities, Shopping, Salary}

type (
	// Category is a closed set; anything outside Categories is invalid.
	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Expense struct {
		ID          int64
		Amount      Money
		Date        Date
		Description string
		Category    Category
		CreatedAt   time.Time
	}
)

var (
	// ErrExpenseNotFound reports an id absent from storage. Update fails
	// with it; by-id reads translate it to a nil record instead.
	ErrExpenseNotFound = errors.New("expense not found")

	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidYear      = errors.New("invalid year")
	ErrMissingID        = errors.New("missing id")
)

func (c Category) Validate() error {
	switch c {
	case Food, Transport, Housing, Entertainment, Utilities, Shopping, Salary:
		return nil
	}
	return ErrInvalidCategory
}

// ParseCategory matches the closed category set case-sensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

// NewDate creates a Date at midnight UTC; the time-of-day is never significant.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Month returns the calendar month (1-12).
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the calendar year.
func (d Date) Year() int {
	return d.Time.Year()
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	return e.Category.Validate()
}
