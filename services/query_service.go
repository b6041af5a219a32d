package services

import (
	"context"
	"log/slog"

	"pfos/core"
	"pfos/storage"
)

// Query is the month-bounded read side. Reads never fail: absence of data
// and failure-to-read both surface as an empty result so a view degrades to
// "no data" instead of crashing.
type Query struct {
	store *storage.Store
}

func NewQuery(store *storage.Store) *Query {
	return &Query{store: store}
}

// ListByMonth returns a profile's transactions for a YYYY-MM month, sorted
// by date descending. Tie order between equal dates is unspecified.
func (q *Query) ListByMonth(ctx context.Context, profile, yearMonth string) []core.Transaction {
	records, err := q.store.ListByMonth(ctx, profile, yearMonth)
	if err != nil {
		slog.WarnContext(ctx, "Month query failed, returning empty result",
			"profile", profile, "month", yearMonth, "error", err)
		return []core.Transaction{}
	}
	if records == nil {
		return []core.Transaction{}
	}
	return records
}
