package core

import "sort"

// Summary is the count and exact total of a list of records.
type Summary struct {
	Count int   `json:"count"`
	Total Money `json:"total"`
}

// Summarize counts and sums records in integer cents. Callers pass the
// filtered view they present.
func Summarize[R Record](records []R) Summary {
	var s Summary
	for _, r := range records {
		s.Count++
		s.Total.Cents += r.RecordAmount().Cents
	}
	return s
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
	Count  int    `json:"count"`
}

// MonthTotals compares income and expenses for one month.
type MonthTotals struct {
	Year     int   `json:"year"`
	Month    int   `json:"month"` // 1-12
	Income   Money `json:"income"`
	Expenses Money `json:"expenses"`
	Balance  Money `json:"balance"`
}

// ByCategory groups records by category or source, largest total first.
// Ties keep alphabetical order.
func ByCategory[R Record](records []R) []CategoryAmount {
	idx := make(map[string]int)
	var out []CategoryAmount
	for _, r := range records {
		name := r.RecordCategory()
		i, ok := idx[name]
		if !ok {
			i = len(out)
			idx[name] = i
			out = append(out, CategoryAmount{Name: name})
		}
		out[i].Amount.Cents += r.RecordAmount().Cents
		out[i].Count++
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Amount.Cents != out[b].Amount.Cents {
			return out[a].Amount.Cents > out[b].Amount.Cents
		}
		return out[a].Name < out[b].Name
	})
	return out
}

// Monthly builds twelve MonthTotals for year from expenses and incomes.
// Records outside year are skipped.
func Monthly(year int, expenses []Expense, incomes []Income) []MonthTotals {
	out := make([]MonthTotals, 12)
	for i := range out {
		out[i].Year = year
		out[i].Month = i + 1
	}
	for _, e := range expenses {
		if e.Date.Year() == year {
			out[e.Date.Month()-1].Expenses.Cents += e.Amount.Cents
		}
	}
	for _, in := range incomes {
		if in.Date.Year() == year {
			out[in.Date.Month()-1].Income.Cents += in.Amount.Cents
		}
	}
	for i := range out {
		out[i].Balance = Money{Cents: out[i].Income.Cents - out[i].Expenses.Cents}
	}
	return out
}

// MonthRange returns the first and last day of the given month.
func MonthRange(year, month int) (Date, Date) {
	first := NewDate(year, month, 1)
	last := Date{Time: first.AddDate(0, 1, -1)}
	return first, last
}
