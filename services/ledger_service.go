package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"pfos/bus"
	"pfos/core"
	"pfos/storage"
)

// Ledger owns transaction writes: upsert with write-boundary defaulting,
// delete, profile counting and demo seeding. Every successful mutation
// publishes a best-effort "transactions" change event.
type Ledger struct {
	store *storage.Store
	bus   *bus.Bus
}

func NewLedger(store *storage.Store, changeBus *bus.Bus) *Ledger {
	return &Ledger{
		store: store,
		bus:   changeBus,
	}
}

// Upsert persists a transaction under the given profile. A draft without an
// id gets a fresh one; a draft with an id replaces that record wholesale.
// Defaults and the derived sort key are applied before the write, so calling
// with identical input always settles on identical stored state.
func (l *Ledger) Upsert(ctx context.Context, profile string, draft core.Transaction) (core.Transaction, error) {
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}

	record := core.Normalize(profile, draft)
	if err := record.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	if err := l.store.PutTransaction(ctx, record); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	l.publish(ctx, core.ScopeTransactions)
	return record, nil
}

// Delete removes a transaction by id. A missing id is a no-op success.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	if err := l.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	l.publish(ctx, core.ScopeTransactions)
	return nil
}

// Count returns how many transactions a profile owns, zero on any read
// failure. The count only feeds the seed decision, so a transient failure
// degrades instead of propagating.
func (l *Ledger) Count(ctx context.Context, profile string) int {
	n, err := l.store.CountByProfile(ctx, profile)
	if err != nil {
		slog.WarnContext(ctx, "Transaction count failed, treating as zero",
			"profile", profile, "error", err)
		return 0
	}
	return n
}

// SeedIfEmpty inserts the demonstration records for a profile that has no
// transactions yet. It reports whether seeding happened; re-invocation
// after any data exists does nothing.
func (l *Ledger) SeedIfEmpty(ctx context.Context, profile string) (bool, error) {
	if l.Count(ctx, profile) > 0 {
		return false, nil
	}

	for _, draft := range sampleTransactions() {
		if _, err := l.Upsert(ctx, profile, draft); err != nil {
			return false, fmt.Errorf("seed transaction: %w", err)
		}
	}

	slog.InfoContext(ctx, "Seeded demonstration transactions", "profile", profile)
	l.publish(ctx, core.ScopeTransactions)
	return true, nil
}

func (l *Ledger) publish(ctx context.Context, scope string) {
	if l.bus == nil {
		return
	}
	l.bus.Publish(ctx, scope)
}

func sampleTransactions() []core.Transaction {
	return []core.Transaction{
		{Date: "2026-01-02", Desc: "Salary", Category: "Income", Account: "Bank", Type: "Income", Amount: 120000},
		{Date: "2026-01-03", Desc: "Rent", Category: "Rent", Account: "Bank", Type: "Expense", Amount: 28000},
		{Date: "2026-01-04", Desc: "Groceries", Category: "Groceries", Account: "Bank", Type: "Expense", Amount: 2200},
		{Date: "2026-01-05", Desc: "Metro/Bus", Category: "Transport", Account: "Bank", Type: "Expense", Amount: 180},
		{Date: "2026-01-06", Desc: "Electricity", Category: "Utilities", Account: "Bank", Type: "Expense", Amount: 1450},
		{Date: "2026-01-08", Desc: "Dining out", Category: "Dining", Account: "Credit Card", Type: "Expense", Amount: 850},
		{Date: "2026-01-12", Desc: "Gym", Category: "Health", Account: "Bank", Type: "Expense", Amount: 1600},
		{Date: "2026-01-18", Desc: "Shopping", Category: "Shopping", Account: "Credit Card", Type: "Expense", Amount: 2400},
		{Date: "2026-01-25", Desc: "SIP", Category: "Investments", Account: "Bank", Type: "Expense", Amount: 5000},
	}
}
