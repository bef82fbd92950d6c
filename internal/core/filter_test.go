package core

import (
	"net/url"
	"reflect"
	"testing"
)

func sampleExpenses() []Expense {
	return []Expense{
		{ID: 1, Name: "Grocery Store", Amount: Money{Cents: 5642}, Category: "Food & Dining", Date: NewDate(2023, 6, 12)},
		{ID: 2, Name: "Gas Station", Amount: Money{Cents: 4550}, Category: "Transportation", Date: NewDate(2023, 6, 7)},
	}
}

func moneyPtr(cents int64) *Money {
	return &Money{Cents: cents}
}

func ids(records []Expense) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestFilterByCategory(t *testing.T) {
	got := Filter(sampleExpenses(), Criteria{Category: "Food & Dining"})
	if len(got) != 1 || got[0].Name != "Grocery Store" {
		t.Fatalf("unexpected result %+v", got)
	}
	sum := Summarize(got)
	if sum.Count != 1 || sum.Total.Cents != 5642 {
		t.Fatalf("expected {1, 56.42}, got %+v", sum)
	}
}

func TestFilterEmptyCriteriaIsIdentity(t *testing.T) {
	in := sampleExpenses()
	got := Filter(in, Criteria{})
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("expected identity, got %+v", got)
	}
	sum := Summarize(got)
	if sum.Count != 2 || sum.Total.String() != "101.92" {
		t.Fatalf("expected {2, 101.92}, got %+v", sum)
	}

	got[0].Name = "changed"
	if in[0].Name != "Grocery Store" {
		t.Fatalf("result must not alias the input")
	}
}

func TestFilterEmptyInput(t *testing.T) {
	got := Filter([]Expense{}, Criteria{Text: "x"})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	if got := Filter[Expense](nil, Criteria{}); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice for nil input, got %#v", got)
	}
}

func TestFilterPredicates(t *testing.T) {
	records := []Expense{
		{ID: 1, Name: "Grocery Store", Amount: Money{Cents: 5642}, Category: "Food & Dining", Date: NewDate(2023, 6, 12)},
		{ID: 2, Name: "Gas Station", Amount: Money{Cents: 4550}, Category: "Transportation", Date: NewDate(2023, 6, 7)},
		{ID: 3, Name: "grocery delivery", Amount: Money{Cents: 1200}, Category: "Food & Dining", Date: NewDate(2023, 7, 1)},
		{ID: 4, Name: "Rent", Amount: Money{Cents: 120000}, Category: "Housing", Date: NewDate(2023, 6, 1)},
	}

	tests := []struct {
		name     string
		criteria Criteria
		want     []int64
	}{
		{"text is case insensitive", Criteria{Text: "GROCERY"}, []int64{1, 3}},
		{"text substring", Criteria{Text: "station"}, []int64{2}},
		{"all sentinel", Criteria{Category: "All"}, []int64{1, 2, 3, 4}},
		{"all categories sentinel", Criteria{Category: "All Categories"}, []int64{1, 2, 3, 4}},
		{"category exact", Criteria{Category: "Housing"}, []int64{4}},
		{"category is case sensitive", Criteria{Category: "housing"}, []int64{}},
		{"single date", Criteria{On: NewDate(2023, 6, 7)}, []int64{2}},
		{"min inclusive", Criteria{Min: moneyPtr(4550)}, []int64{1, 2, 4}},
		{"max inclusive", Criteria{Max: moneyPtr(4550)}, []int64{2, 3}},
		{"amount range", Criteria{Min: moneyPtr(1000), Max: moneyPtr(5000)}, []int64{2, 3}},
		{"date from", Criteria{From: NewDate(2023, 6, 7)}, []int64{1, 2, 3}},
		{"date to", Criteria{To: NewDate(2023, 6, 7)}, []int64{2, 4}},
		{"date range", Criteria{From: NewDate(2023, 6, 2), To: NewDate(2023, 6, 30)}, []int64{1, 2}},
		{"conjunction", Criteria{Text: "grocery", Category: "Food & Dining", From: NewDate(2023, 7, 1)}, []int64{3}},
		{"no match", Criteria{Text: "cinema"}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(records, tt.criteria))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFilterWorksOnIncome(t *testing.T) {
	incomes := []Income{
		{ID: 1, Name: "Salary", Source: "Employer", Amount: Money{Cents: 300000}, Date: NewDate(2023, 6, 1)},
		{ID: 2, Name: "Side project", Source: "Freelance", Amount: Money{Cents: 45000}, Date: NewDate(2023, 6, 15)},
	}
	got := Filter(incomes, Criteria{Category: "Freelance"})
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("unexpected result %+v", got)
	}
	if got := Filter(incomes, Criteria{Category: "All Sources"}); len(got) != 2 {
		t.Fatalf("sentinel should disable source predicate, got %d", len(got))
	}
}

func TestFilterIsIdempotentAndNarrowing(t *testing.T) {
	records := sampleExpenses()
	c := Criteria{Min: moneyPtr(5000)}
	once := Filter(records, c)
	twice := Filter(once, c)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("filter must be idempotent: %v vs %v", once, twice)
	}

	loose := Filter(records, Criteria{Text: "s"})
	strict := Filter(records, Criteria{Text: "s", Category: "Transportation"})
	if len(strict) > len(loose) {
		t.Fatalf("adding a predicate must not grow the result")
	}
}

func TestParseCriteria(t *testing.T) {
	q := url.Values{
		"q":        {"gro"},
		"category": {"Food & Dining"},
		"min":      {"10,5"},
		"max":      {"abc"},
		"from":     {"2023-06-01"},
		"to":       {"not-a-date"},
	}
	c := ParseCriteria(q)
	if c.Text != "gro" || c.Category != "Food & Dining" {
		t.Fatalf("unexpected text/category %+v", c)
	}
	if c.Min == nil || c.Min.Cents != 1050 {
		t.Fatalf("expected min 1050, got %v", c.Min)
	}
	if c.Max != nil {
		t.Fatalf("invalid max must be ignored, got %v", c.Max)
	}
	if !c.From.SameDay(NewDate(2023, 6, 1)) || !c.To.IsZero() {
		t.Fatalf("unexpected dates from=%v to=%v", c.From, c.To)
	}

	if c := ParseCriteria(url.Values{"min": {""}}); c.Min != nil {
		t.Fatalf("empty bound must be ignored")
	}
	if c := ParseCriteria(url.Values{"min": {"0"}}); c.Min == nil || c.Min.Cents != 0 {
		t.Fatalf("explicit zero bound must be kept")
	}
	if c := ParseCriteria(url.Values{"source": {"Employer"}}); c.Category != "Employer" {
		t.Fatalf("source alias not honoured: %+v", c)
	}
}

func TestCriteriaValidate(t *testing.T) {
	if err := (Criteria{Min: moneyPtr(10), Max: moneyPtr(5)}).Validate(); err != ErrInvalidRange {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if err := (Criteria{From: NewDate(2023, 7, 1), To: NewDate(2023, 6, 1)}).Validate(); err != ErrInvalidRange {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if err := (Criteria{Min: moneyPtr(5), Max: moneyPtr(5)}).Validate(); err != nil {
		t.Fatalf("equal bounds are valid, got %v", err)
	}
}
