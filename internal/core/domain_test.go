package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2023-06-12 ")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Year() != 2023 || d.Month() != 6 || d.Day() != 12 {
		t.Fatalf("unexpected date %v", d)
	}
	for _, in := range []string{"", "12/06/2023", "2023-13-01", "2023-02-30"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", in, err)
		}
	}
}

func TestDateSameDayIgnoresTime(t *testing.T) {
	a := Date{Time: time.Date(2023, 6, 12, 23, 59, 0, 0, time.UTC)}
	if !a.SameDay(NewDate(2023, 6, 12)) {
		t.Fatalf("expected same day")
	}
	if a.Compare(NewDate(2023, 6, 12)) != 0 {
		t.Fatalf("expected compare 0")
	}
	if NewDate(2023, 6, 7).Compare(NewDate(2023, 6, 12)) != -1 {
		t.Fatalf("expected compare -1")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Name:     "Grocery Store",
		Category: "Food & Dining",
		Amount:   Money{Cents: 5642},
		Date:     NewDate(2023, 6, 12),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Name: "a", Category: "Other", Amount: Money{Cents: 1}},                                      // zero date
		{Name: "", Category: "Other", Amount: Money{Cents: 1}, Date: NewDate(2025, 1, 1)},            // empty name
		{Name: "a", Category: "Other", Amount: Money{Cents: 0}, Date: NewDate(2025, 1, 1)},           // zero amount
		{Name: "a", Category: "Groceries", Amount: Money{Cents: 1}, Date: NewDate(2025, 1, 1)},       // unknown category
		{Name: strings.Repeat("a", 101), Category: "Other", Amount: Money{Cents: 1}, Date: NewDate(2025, 1, 1)},
		{Name: "a", Category: "Other", Amount: Money{Cents: 1}, Date: NewDate(2025, 1, 1), Notes: strings.Repeat("n", 1001)},
	}
	for i, e := range bads {
		err := e.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !IsValidation(err) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestIncomeValidate(t *testing.T) {
	good := Income{Name: "Salary", Source: "Employer", Amount: Money{Cents: 300000}, Date: NewDate(2023, 6, 1)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.Source = "  "
	if err := bad.Validate(); !errors.Is(err, ErrEmptySource) {
		t.Fatalf("expected ErrEmptySource, got %v", err)
	}
}

func TestBudget(t *testing.T) {
	b := Budget{Category: "Housing", Limit: Money{Cents: 10000}, Spent: Money{Cents: 12500}}
	if err := b.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !b.Exceeded() {
		t.Fatalf("expected exceeded")
	}
	if got := b.Remaining().Cents; got != -2500 {
		t.Fatalf("expected -2500 remaining, got %d", got)
	}
	if err := (Budget{Category: "Rent"}).Validate(); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if (Budget{Category: "Other"}).Exceeded() {
		t.Fatalf("zero limit budget should never be exceeded")
	}
}

func TestIsValidation(t *testing.T) {
	if IsValidation(ErrNotFound) {
		t.Fatalf("not found is not a validation error")
	}
	if !IsValidation(ErrInvalidRange) {
		t.Fatalf("expected validation error")
	}
}

func TestCellText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Groceries", "Groceries"},
		{"=1+1", "'=1+1"},
		{"+1", "'+1"},
		{"-2", "'-2"},
		{"@SUM(A1)", "'@SUM(A1)"},
		{"\tx", "'\tx"},
		{"a=b", "a=b"},
	}
	for _, tt := range tests {
		if got := CellText(tt.in); got != tt.want {
			t.Errorf("CellText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
