package core

import (
	"errors"
	"testing"
)

func TestCreateExpenseInputValidate(t *testing.T) {
	valid := CreateExpenseInput{
		Amount:      Money{Cents: 4500},
		Date:        NewDate(2024, 1, 14),
		Description: "Gas station fill-up",
		Category:    Transport,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	bad := CreateExpenseInput{Description: "  "}
	err := bad.Validate()
	var fields FieldErrors
	if !errors.As(err, &fields) {
		t.Fatalf("expected FieldErrors, got %T", err)
	}
	for _, f := range []string{"amount", "date", "description", "category"} {
		if _, ok := fields[f]; !ok {
			t.Fatalf("expected field %q in %v", f, fields)
		}
	}
}

func TestFieldErrorsMessage(t *testing.T) {
	err := FieldErrors{"b": "bad", "a": "worse"}
	want := "validation failed: a: worse; b: bad"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}

func TestUpdateExpenseInputValidate(t *testing.T) {
	if err := (UpdateExpenseInput{ID: 1}).Validate(); err != nil {
		t.Fatalf("empty patch with id should be valid, got %v", err)
	}
	if !(UpdateExpenseInput{ID: 1}).Empty() {
		t.Fatal("patch with no fields should report Empty")
	}

	desc := "Lunch"
	in := UpdateExpenseInput{ID: 1, Description: &desc}
	if in.Empty() {
		t.Fatal("patch with a field should not report Empty")
	}
	if err := in.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	if err := (UpdateExpenseInput{}).Validate(); err == nil {
		t.Fatal("missing id should fail")
	}

	blank := "   "
	if err := (UpdateExpenseInput{ID: 1, Description: &blank}).Validate(); err == nil {
		t.Fatal("blank description should fail")
	}

	badAmount := Money{Cents: -5}
	if err := (UpdateExpenseInput{ID: 1, Amount: &badAmount}).Validate(); err == nil {
		t.Fatal("negative amount should fail")
	}
}

func TestExpenseFilterValidate(t *testing.T) {
	month13, month0, year1800, year2024 := 13, 0, 1800, 2024

	if err := (ExpenseFilter{}).Validate(); err != nil {
		t.Fatalf("empty filter should be valid, got %v", err)
	}
	if !(ExpenseFilter{}).IsZero() {
		t.Fatal("empty filter should be zero")
	}
	if err := (ExpenseFilter{Month: &month13}).Validate(); err == nil {
		t.Fatal("month 13 should fail")
	}
	if err := (ExpenseFilter{Month: &month0}).Validate(); err == nil {
		t.Fatal("month 0 should fail")
	}
	if err := (ExpenseFilter{Year: &year1800}).Validate(); err == nil {
		t.Fatal("year 1800 should fail")
	}
	if err := (ExpenseFilter{Year: &year2024}).Validate(); err != nil {
		t.Fatalf("year 2024 should pass, got %v", err)
	}
}

func TestExpenseFilterMatches(t *testing.T) {
	e := Expense{
		Amount:      Money{Cents: 1250},
		Date:        NewDate(2024, 1, 15),
		Description: "Coffee and pastry",
		Category:    Food,
	}

	food, transport := Food, Transport
	jan, feb := 1, 2
	y2024, y2023 := 2024, 2023

	cases := []struct {
		name string
		f    ExpenseFilter
		want bool
	}{
		{"empty matches all", ExpenseFilter{}, true},
		{"category hit", ExpenseFilter{Category: &food}, true},
		{"category miss", ExpenseFilter{Category: &transport}, false},
		{"month hit", ExpenseFilter{Month: &jan}, true},
		{"month miss", ExpenseFilter{Month: &feb}, false},
		{"year hit", ExpenseFilter{Year: &y2024}, true},
		{"year miss", ExpenseFilter{Year: &y2023}, false},
		{"all predicates hit", ExpenseFilter{Category: &food, Month: &jan, Year: &y2024}, true},
		{"conjunction fails on one miss", ExpenseFilter{Category: &food, Month: &feb, Year: &y2024}, false},
	}
	for _, tc := range cases {
		if got := tc.f.Matches(e); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
