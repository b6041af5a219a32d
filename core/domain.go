package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Separator joins profile and date into the derived sort key. It must not
// appear in profile names or dates, or range scans over the key break.
const Separator = "|"

// Change event scopes.
const (
	ScopeTransactions = "transactions"
	ScopeSettings     = "settings"
)

const (
	DefaultCategory = "Uncategorized"
	DefaultAccount  = "Bank"
	DefaultType     = "Expense"
	DefaultCurrency = "USD"
)

type (
	// Transaction is one financial event. SortKey is derived from Profile
	// and Date and must never be set directly; Normalize recomputes it.
	Transaction struct {
		ID       string   `json:"id"`
		Profile  string   `json:"profile"`
		Date     string   `json:"date"` // YYYY-MM-DD
		Desc     string   `json:"desc"`
		Note     string   `json:"note"`
		Category string   `json:"category"`
		Account  string   `json:"account"`
		Type     string   `json:"type"` // "Income" or "Expense"
		Amount   float64  `json:"amount"`
		Tags     []string `json:"tags"`
		SortKey  string   `json:"pdate"`
	}

	// Settings is the per-profile configuration document. It is replaced
	// wholesale on write; older stored documents are returned as-is.
	Settings struct {
		Profile       string             `json:"profile"`
		Currency      string             `json:"currency"`
		MonthStartDay int                `json:"monthStartDay"`
		Categories    []string           `json:"categories"`
		Accounts      []string           `json:"accounts"`
		Budgets       map[string]float64 `json:"budgets"`
	}

	// Event is the cross-instance change notification. At is in
	// milliseconds since the epoch. Events carry no payload beyond the
	// scope; consumers re-run their queries on receipt.
	Event struct {
		Scope string `json:"scope"`
		At    int64  `json:"at"`
	}
)

var (
	ErrEmptyProfile = errors.New("empty profile")
	ErrInvalidDate  = errors.New("invalid date, want YYYY-MM-DD")
)

// SortKey derives the range-index key for a profile and date.
func SortKey(profile, date string) string {
	return profile + Separator + date
}

// IsIncome reports whether the transaction counts as income. Anything
// that does not match is treated as an expense, including unknown types.
func (t Transaction) IsIncome() bool {
	return strings.EqualFold(t.Type, "Income")
}

// Validate checks the fields that cannot be defaulted away.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Profile) == "" {
		return ErrEmptyProfile
	}
	if _, err := time.Parse("2006-01-02", t.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// Normalize applies the field defaults and re-derives the sort key.
// It is the single write-boundary defaulting step: every persisted
// transaction goes through it.
func Normalize(profile string, t Transaction) Transaction {
	t.Profile = profile
	if t.Category == "" {
		t.Category = DefaultCategory
	}
	if t.Account == "" {
		t.Account = DefaultAccount
	}
	if t.Type == "" {
		t.Type = DefaultType
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		t.Amount = 0
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.SortKey = SortKey(t.Profile, t.Date)
	return t
}

// DefaultSettings builds the document seeded on first access for a profile.
func DefaultSettings(profile string) Settings {
	return Settings{
		Profile:       profile,
		Currency:      DefaultCurrency,
		MonthStartDay: 1,
		Categories: []string{
			"Rent", "Groceries", "Dining", "Transport", "Utilities",
			"Shopping", "Health", "EMI", "Entertainment", "Investments", "Income",
		},
		Accounts: []string{"Bank", "Credit Card", "Wallet", "Savings"},
		Budgets: map[string]float64{
			"Rent":          25000,
			"Groceries":     8000,
			"Dining":        4000,
			"Transport":     3000,
			"Utilities":     3000,
			"Shopping":      3000,
			"Health":        2000,
			"EMI":           12000,
			"Entertainment": 2000,
		},
	}
}
