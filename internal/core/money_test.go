package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{".5", 50, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"1e3", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{".", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseAmountAllowsZero(t *testing.T) {
	m, err := ParseAmount("0")
	if err != nil || m.Cents != 0 {
		t.Fatalf("expected zero amount, got %v (err=%v)", m, err)
	}
	if _, err := ParseAmount("-0.5"); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Money{Cents: 5642}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"amount":56.42}` {
		t.Fatalf("unexpected json %s", b)
	}

	for _, in := range []string{`45.5`, `"45.50"`, `"45,50"`} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if m.Cents != 4550 {
			t.Fatalf("%s: expected 4550 cents, got %d", in, m.Cents)
		}
	}
}

func TestMoneyString(t *testing.T) {
	if got := (Money{Cents: 10192}).String(); got != "101.92" {
		t.Fatalf("expected 101.92, got %s", got)
	}
	if got := (Money{Cents: 5}).String(); got != "0.05" {
		t.Fatalf("expected 0.05, got %s", got)
	}
}
