package pfos

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pfos/config"
	"pfos/core"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBPath:             filepath.Join(t.TempDir(), "pfos.db"),
		MarkerPollInterval: 100 * time.Millisecond,
		SettingsCacheSize:  8,
		SettingsCacheTTL:   5 * time.Second,
		Profile:            "default",
	}
}

func TestAppEndToEnd(t *testing.T) {
	ctx := context.Background()
	app, err := New(ctx, testConfig(t))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer app.Close()

	seeded, err := app.Ledger.SeedIfEmpty(ctx, "default")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !seeded {
		t.Fatal("expected fresh database to seed")
	}

	records := app.Query.ListByMonth(ctx, "default", "2026-01")
	if len(records) != 9 {
		t.Fatalf("got %d January records, want 9", len(records))
	}

	summary := core.Summarize(records)
	if summary.Income != 120000 {
		t.Errorf("income = %v, want 120000", summary.Income)
	}
	if summary.Expense != 41680 {
		t.Errorf("expense = %v, want 41680", summary.Expense)
	}
	if summary.Net != summary.Income-summary.Expense {
		t.Errorf("net = %v", summary.Net)
	}

	top := core.CategoryTotals(records, 3)
	if len(top) != 3 || top[0].Category != "Rent" || top[0].Amount != 28000 {
		t.Errorf("top categories = %+v", top)
	}

	weeks := core.WeeklySeries(records, "2026-01")
	if weeks.Income != [4]float64{120000, 0, 0, 0} {
		t.Errorf("income buckets = %v", weeks.Income)
	}
	if weeks.Expense != [4]float64{31830, 2450, 2400, 5000} {
		t.Errorf("expense buckets = %v", weeks.Expense)
	}

	settings, err := app.Settings.Get(ctx, "default")
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.Currency != "USD" {
		t.Errorf("currency = %q", settings.Currency)
	}
}

func TestAppCrossInstanceNotification(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	writer, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new writer app: %v", err)
	}
	defer writer.Close()

	reader, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new reader app: %v", err)
	}
	defer reader.Close()

	events := make(chan core.Event, 8)
	reader.OnChange(func(ev core.Event) { events <- ev })

	if _, err := writer.Ledger.Upsert(ctx, "default", core.Transaction{
		Date: "2026-01-10", Desc: "coffee", Amount: 4,
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Scope != core.ScopeTransactions {
			t.Errorf("scope = %q, want transactions", ev.Scope)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("reader instance never saw the change")
	}

	// The notified instance re-queries and sees the writer's data.
	records := reader.Query.ListByMonth(ctx, "default", "2026-01")
	if len(records) != 1 || records[0].Desc != "coffee" {
		t.Errorf("re-query = %+v", records)
	}
}
