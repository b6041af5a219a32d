package core

import (
	"math"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	got := Normalize("p1", Transaction{ID: "t1", Date: "2026-01-05"})

	if got.Category != "Uncategorized" {
		t.Errorf("category = %q, want Uncategorized", got.Category)
	}
	if got.Account != "Bank" {
		t.Errorf("account = %q, want Bank", got.Account)
	}
	if got.Type != "Expense" {
		t.Errorf("type = %q, want Expense", got.Type)
	}
	if got.Amount != 0 {
		t.Errorf("amount = %v, want 0", got.Amount)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("tags = %v, want empty slice", got.Tags)
	}
	if got.SortKey != "p1|2026-01-05" {
		t.Errorf("sort key = %q, want p1|2026-01-05", got.SortKey)
	}
}

func TestNormalizeKeepsExplicitFields(t *testing.T) {
	in := Transaction{
		ID:       "t1",
		Date:     "2026-02-10",
		Desc:     "lunch",
		Category: "Dining",
		Account:  "Credit Card",
		Type:     "Expense",
		Amount:   12.5,
		Tags:     []string{"work"},
	}
	got := Normalize("p1", in)

	if got.Category != "Dining" || got.Account != "Credit Card" || got.Amount != 12.5 {
		t.Errorf("normalize overwrote explicit fields: %+v", got)
	}
	if got.Profile != "p1" {
		t.Errorf("profile = %q, want p1", got.Profile)
	}
}

func TestNormalizeRederivesSortKey(t *testing.T) {
	rec := Normalize("p1", Transaction{ID: "t1", Date: "2026-01-05"})

	// A date change must re-derive the key or range queries go wrong.
	rec.Date = "2026-03-09"
	rec = Normalize(rec.Profile, rec)
	if rec.SortKey != "p1|2026-03-09" {
		t.Errorf("sort key = %q, want p1|2026-03-09", rec.SortKey)
	}
}

func TestNormalizeNonFiniteAmount(t *testing.T) {
	for _, amount := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		got := Normalize("p1", Transaction{ID: "t1", Date: "2026-01-05", Amount: amount})
		if got.Amount != 0 {
			t.Errorf("amount %v normalized to %v, want 0", amount, got.Amount)
		}
	}
}

func TestIsIncomeCaseInsensitive(t *testing.T) {
	cases := []struct {
		typ    string
		income bool
	}{
		{"Income", true},
		{"income", true},
		{"INCOME", true},
		{"Expense", false},
		{"", false},
		{"transfer", false},
	}
	for _, tc := range cases {
		got := Transaction{Type: tc.typ}.IsIncome()
		if got != tc.income {
			t.Errorf("IsIncome(%q) = %v, want %v", tc.typ, got, tc.income)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Profile: "p1", Date: "2026-01-05"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		tx   Transaction
	}{
		{"empty profile", Transaction{Date: "2026-01-05"}},
		{"empty date", Transaction{Profile: "p1"}},
		{"bad date format", Transaction{Profile: "p1", Date: "05-01-2026"}},
		{"impossible day", Transaction{Profile: "p1", Date: "2026-01-99"}},
	}
	for _, tc := range cases {
		if err := tc.tx.Validate(); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings("p1")

	if s.Profile != "p1" {
		t.Errorf("profile = %q, want p1", s.Profile)
	}
	if s.Currency != "USD" {
		t.Errorf("currency = %q, want USD", s.Currency)
	}
	if s.MonthStartDay != 1 {
		t.Errorf("monthStartDay = %d, want 1", s.MonthStartDay)
	}
	if len(s.Categories) == 0 || s.Categories[0] != "Rent" {
		t.Errorf("unexpected categories: %v", s.Categories)
	}
	if s.Budgets["Rent"] != 25000 {
		t.Errorf("rent budget = %v, want 25000", s.Budgets["Rent"])
	}
}
