// Package pfos is a local, durable record store for personal financial
// transactions with cross-instance change propagation. New wires the
// record store, change bus, and services together; rendering and
// presentation stay with the caller.
package pfos

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"pfos/bus"
	"pfos/cache"
	"pfos/config"
	"pfos/core"
	"pfos/services"
	"pfos/storage"
)

// App is one instance's handle on the shared store. Several instances may
// run against the same database path; the bus keeps their views in sync.
type App struct {
	Ledger   *services.Ledger
	Query    *services.Query
	Settings *services.Settings
	Bus      *bus.Bus

	store  *storage.Store
	caches *cache.Manager
}

// New opens the store for cfg and wires the services. A nil cfg loads from
// the environment (.env honored for local development).
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		_ = godotenv.Load()
		cfg = config.Load()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	store, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	changeBus := bus.New(store, bus.Options{
		URL:          cfg.AMQPURL,
		Exchange:     cfg.AMQPExchange,
		PollInterval: cfg.MarkerPollInterval,
	})

	settingsCache := cache.NewLRUCache[core.Settings](cfg.SettingsCacheSize, cfg.SettingsCacheTTL)
	caches := cache.NewManager()
	caches.Register(settingsCache)
	caches.StartCleanup(cfg.SettingsCacheTTL)

	app := &App{
		Ledger:   services.NewLedger(store, changeBus),
		Query:    services.NewQuery(store),
		Settings: services.NewSettings(store, changeBus, settingsCache),
		Bus:      changeBus,
		store:    store,
		caches:   caches,
	}

	// Settings written by another instance must not be served stale from
	// this instance's cache.
	changeBus.Subscribe(func(ev core.Event) {
		if ev.Scope == core.ScopeSettings {
			app.Settings.Flush()
		}
	})

	return app, nil
}

// Close stops the bus and cache cleanup and releases the store handle.
func (a *App) Close() error {
	a.caches.Stop()
	if err := a.Bus.Close(); err != nil {
		return fmt.Errorf("close change bus: %w", err)
	}
	return a.store.Close()
}

// OnChange registers a handler for data-change events from other
// instances. Handlers should re-run the queries feeding their view; they
// may fire more than once per logical change.
func (a *App) OnChange(handler func(core.Event)) {
	a.Bus.Subscribe(bus.Handler(handler))
}
