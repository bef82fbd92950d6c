package core

import (
	"net/url"
	"strings"
)

// Record is the read view shared by expenses and incomes.
type Record interface {
	RecordName() string
	// RecordCategory is the category of an expense or the source of an income.
	RecordCategory() string
	RecordAmount() Money
	RecordDate() Date
}

// Criteria holds the filter predicates of a list view. Zero values are
// inactive. All active predicates must match.
type Criteria struct {
	Text     string
	Category string
	On       Date
	Min      *Money
	Max      *Money
	From     Date
	To       Date
}

// allSentinels disable the category predicate.
var allSentinels = []string{"all", "all categories", "all sources"}

func isAll(category string) bool {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return true
	}
	for _, s := range allSentinels {
		if c == s {
			return true
		}
	}
	return false
}

// IsEmpty reports whether no predicate is active.
func (c Criteria) IsEmpty() bool {
	return c.Text == "" && isAll(c.Category) && c.On.IsZero() &&
		c.Min == nil && c.Max == nil && c.From.IsZero() && c.To.IsZero()
}

// Validate rejects inverted ranges.
func (c Criteria) Validate() error {
	if c.Min != nil && c.Max != nil && c.Min.Cents > c.Max.Cents {
		return ErrInvalidRange
	}
	if !c.From.IsZero() && !c.To.IsZero() && c.From.Compare(c.To) > 0 {
		return ErrInvalidRange
	}
	return nil
}

// Match evaluates all active predicates against r.
func (c Criteria) Match(r Record) bool {
	if c.Text != "" && !strings.Contains(strings.ToLower(r.RecordName()), strings.ToLower(c.Text)) {
		return false
	}
	if !isAll(c.Category) && r.RecordCategory() != c.Category {
		return false
	}
	date := r.RecordDate()
	if !c.On.IsZero() && !date.SameDay(c.On) {
		return false
	}
	amount := r.RecordAmount().Cents
	if c.Min != nil && amount < c.Min.Cents {
		return false
	}
	if c.Max != nil && amount > c.Max.Cents {
		return false
	}
	if !c.From.IsZero() && date.Compare(c.From) < 0 {
		return false
	}
	if !c.To.IsZero() && date.Compare(c.To) > 0 {
		return false
	}
	return true
}

// Filter returns the records matching c in their original order. The input
// slice is never modified; the result is always a fresh slice.
func Filter[R Record](records []R, c Criteria) []R {
	out := make([]R, 0, len(records))
	if c.IsEmpty() {
		return append(out, records...)
	}
	for _, r := range records {
		if c.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// ParseCriteria reads criteria from query parameters. Amount bounds and
// dates that do not parse are ignored rather than treated as zero.
func ParseCriteria(q url.Values) Criteria {
	c := Criteria{
		Text:     firstOf(q, "q", "search"),
		Category: firstOf(q, "category", "source"),
	}
	if d, err := ParseDate(q.Get("date")); err == nil {
		c.On = d
	}
	if m, err := ParseAmount(firstOf(q, "min", "min_amount")); err == nil {
		c.Min = &m
	}
	if m, err := ParseAmount(firstOf(q, "max", "max_amount")); err == nil {
		c.Max = &m
	}
	if d, err := ParseDate(firstOf(q, "from", "start_date")); err == nil {
		c.From = d
	}
	if d, err := ParseDate(firstOf(q, "to", "end_date")); err == nil {
		c.To = d
	}
	return c
}

func firstOf(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			return v
		}
	}
	return ""
}
