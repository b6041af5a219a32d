package services

import (
	"context"
	"fmt"
	"log/slog"

	"pfos/bus"
	"pfos/cache"
	"pfos/core"
	"pfos/storage"
)

// Settings manages the per-profile configuration document: lazy default
// seeding on first read, wholesale replace on write, and a small in-process
// cache that change events flush so cross-instance writes get picked up.
type Settings struct {
	store *storage.Store
	bus   *bus.Bus
	cache cache.Cache[core.Settings]
}

func NewSettings(store *storage.Store, changeBus *bus.Bus, c cache.Cache[core.Settings]) *Settings {
	return &Settings{
		store: store,
		bus:   changeBus,
		cache: c,
	}
}

// Get returns the settings document for a profile. A profile with no stored
// document gets the defaults persisted once and returned; a stored document
// comes back exactly as written, even if an older version has fewer fields.
func (s *Settings) Get(ctx context.Context, profile string) (core.Settings, error) {
	if s.cache != nil {
		if doc, ok := s.cache.Get(profile); ok {
			return doc, nil
		}
	}

	doc, err := s.store.GetSettings(ctx, profile)
	if err != nil {
		// A failed read is a miss: the caller still gets a usable
		// document, seeded below.
		slog.WarnContext(ctx, "Settings read failed, seeding defaults",
			"profile", profile, "error", err)
	}
	if doc != nil {
		if s.cache != nil {
			s.cache.Set(profile, *doc)
		}
		return *doc, nil
	}

	defaults := core.DefaultSettings(profile)
	if err := s.Set(ctx, profile, defaults); err != nil {
		return core.Settings{}, fmt.Errorf("seed default settings: %w", err)
	}
	return defaults, nil
}

// Set replaces the stored document wholesale and publishes a "settings"
// change event. Write failures propagate.
func (s *Settings) Set(ctx context.Context, profile string, doc core.Settings) error {
	if err := s.store.PutSettings(ctx, profile, doc); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(profile, doc)
	}
	if s.bus != nil {
		s.bus.Publish(ctx, core.ScopeSettings)
	}
	return nil
}

// Flush drops every cached document. Wired to "settings" change events so
// documents written by another instance are re-read on next Get.
func (s *Settings) Flush() {
	if s.cache != nil {
		s.cache.Purge()
	}
}
