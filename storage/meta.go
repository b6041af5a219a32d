package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"pfos/core"
)

const markerKey = "last_changed"

// ChangeMarker is the rotating side-channel record the change bus writes on
// every publish. Origin identifies the writing instance so pollers can skip
// their own events.
type ChangeMarker struct {
	Scope  string `json:"scope"`
	At     int64  `json:"at"`
	Origin string `json:"origin"`
}

func settingsKey(profile string) string {
	return "settings:" + profile
}

// GetSettings reads the settings document for a profile, nil when none is
// stored. The stored document is returned exactly as written, with no
// default merging.
func (s *Store) GetSettings(ctx context.Context, profile string) (*core.Settings, error) {
	raw, err := s.getMeta(ctx, settingsKey(profile))
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	var doc core.Settings
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &doc, nil
}

// PutSettings replaces the stored settings document for a profile.
func (s *Store) PutSettings(ctx context.Context, profile string, doc core.Settings) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.putMeta(ctx, settingsKey(profile), raw); err != nil {
		return fmt.Errorf("put settings: %w", err)
	}
	return nil
}

// ReadChangeMarker returns the latest change marker, nil when none has ever
// been written.
func (s *Store) ReadChangeMarker(ctx context.Context) (*ChangeMarker, error) {
	raw, err := s.getMeta(ctx, markerKey)
	if err != nil {
		return nil, fmt.Errorf("read change marker: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	var m ChangeMarker
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode change marker: %w", err)
	}
	return &m, nil
}

// WriteChangeMarker overwrites the single rotating marker row.
func (s *Store) WriteChangeMarker(ctx context.Context, m ChangeMarker) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode change marker: %w", err)
	}
	if err := s.putMeta(ctx, markerKey, raw); err != nil {
		return fmt.Errorf("write change marker: %w", err)
	}
	return nil
}

func (s *Store) getMeta(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (s *Store) putMeta(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(value))
	return err
}
