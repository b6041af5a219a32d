package services

import (
	"context"
	"testing"

	"pfos/core"
)

func TestListByMonth(t *testing.T) {
	store := testStore(t)
	ledger := NewLedger(store, nil)
	query := NewQuery(store)
	ctx := context.Background()

	dates := []string{"2026-01-03", "2026-01-18", "2026-01-09", "2026-02-01"}
	for _, d := range dates {
		if _, err := ledger.Upsert(ctx, "p1", core.Transaction{Date: d, Amount: 1}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	if _, err := ledger.Upsert(ctx, "p2", core.Transaction{Date: "2026-01-10", Amount: 1}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got := query.ListByMonth(ctx, "p1", "2026-01")
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	want := []string{"2026-01-18", "2026-01-09", "2026-01-03"}
	for i, rec := range got {
		if rec.Date != want[i] {
			t.Errorf("record %d dated %s, want %s", i, rec.Date, want[i])
		}
		if rec.Profile != "p1" {
			t.Errorf("record %d from profile %q", i, rec.Profile)
		}
	}
}

func TestListByMonthEmptyNotNil(t *testing.T) {
	query := NewQuery(testStore(t))

	got := query.ListByMonth(context.Background(), "p1", "2026-01")
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Errorf("got %d records, want 0", len(got))
	}
}

func TestListByMonthFailureDegradesToEmpty(t *testing.T) {
	store := testStore(t)
	query := NewQuery(store)
	store.Close()

	got := query.ListByMonth(context.Background(), "p1", "2026-01")
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty slice on read failure", got)
	}
}
