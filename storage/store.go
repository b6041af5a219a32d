package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	_ "modernc.org/sqlite"
)

// Store is the durable record store: one transactions collection with a
// derived sort-key index, one meta collection for settings and the change
// marker. One physical handle per database path is shared process-wide.
type Store struct {
	db   *sql.DB
	path string
}

var (
	openMu    sync.Mutex
	opened    = make(map[string]*Store)
	openGroup singleflight.Group
)

// Open returns the store for the given path, opening and migrating it on
// first use. Concurrent first-callers share a single in-flight
// initialization; later calls get the cached handle and schema setup never
// re-runs.
func Open(ctx context.Context, path string) (*Store, error) {
	openMu.Lock()
	if s, ok := opened[path]; ok {
		openMu.Unlock()
		return s, nil
	}
	openMu.Unlock()

	v, err, _ := openGroup.Do(path, func() (interface{}, error) {
		openMu.Lock()
		if s, ok := opened[path]; ok {
			openMu.Unlock()
			return s, nil
		}
		openMu.Unlock()

		s, err := open(ctx, path)
		if err != nil {
			return nil, err
		}

		openMu.Lock()
		opened[path] = s
		openMu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

func open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(path); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.InfoContext(ctx, "Record store opened", "path", path)

	return &Store{db: db, path: path}, nil
}

// Close releases the handle and evicts it from the process-wide cache so a
// later Open re-initializes.
func (s *Store) Close() error {
	openMu.Lock()
	delete(opened, s.path)
	openMu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
