package services

import (
	"context"
	"testing"
	"time"

	"pfos/cache"
	"pfos/core"
)

func TestGetSeedsDefaultsOnce(t *testing.T) {
	store := testStore(t)
	settings := NewSettings(store, nil, nil)
	ctx := context.Background()

	got, err := settings.Get(ctx, "new-profile")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Currency != "USD" {
		t.Errorf("currency = %q, want USD", got.Currency)
	}
	if len(got.Categories) != len(core.DefaultSettings("new-profile").Categories) {
		t.Errorf("unexpected category list: %v", got.Categories)
	}

	// The defaults were persisted by the first read.
	stored, err := store.GetSettings(ctx, "new-profile")
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if stored == nil || stored.Currency != "USD" {
		t.Fatalf("defaults not persisted: %+v", stored)
	}

	// A stored document is returned as-is: mutate it out-of-band and make
	// sure a later Get does not overwrite it with defaults again.
	stored.Currency = "JPY"
	if err := store.PutSettings(ctx, "new-profile", *stored); err != nil {
		t.Fatalf("put settings: %v", err)
	}

	got, err = settings.Get(ctx, "new-profile")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if got.Currency != "JPY" {
		t.Errorf("currency = %q, want JPY from store, not re-seeded defaults", got.Currency)
	}
}

func TestSetReplacesWholesale(t *testing.T) {
	store := testStore(t)
	settings := NewSettings(store, nil, nil)
	ctx := context.Background()

	doc := core.DefaultSettings("p1")
	doc.Currency = "EUR"
	doc.Budgets = map[string]float64{"Rent": 900}
	if err := settings.Set(ctx, "p1", doc); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := settings.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Currency != "EUR" || got.Budgets["Rent"] != 900 {
		t.Errorf("settings = %+v", got)
	}
	if len(got.Budgets) != 1 {
		t.Errorf("budgets merged instead of replaced: %v", got.Budgets)
	}
}

func TestGetServesCacheUntilFlush(t *testing.T) {
	store := testStore(t)
	c := cache.NewLRUCache[core.Settings](4, time.Minute)
	settings := NewSettings(store, nil, c)
	ctx := context.Background()

	if _, err := settings.Get(ctx, "p1"); err != nil {
		t.Fatalf("get: %v", err)
	}

	// Simulate another instance writing directly to the store.
	doc := core.DefaultSettings("p1")
	doc.Currency = "GBP"
	if err := store.PutSettings(ctx, "p1", doc); err != nil {
		t.Fatalf("put settings: %v", err)
	}

	got, err := settings.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Currency != "USD" {
		t.Errorf("currency = %q, want cached USD before flush", got.Currency)
	}

	settings.Flush()

	got, err = settings.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get after flush: %v", err)
	}
	if got.Currency != "GBP" {
		t.Errorf("currency = %q, want GBP after flush", got.Currency)
	}
}
