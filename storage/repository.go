package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"pfos/core"
)

// PutTransaction writes a transaction, replacing any existing row with the
// same id wholesale. The caller is expected to have normalized the record
// so the stored sort key matches profile and date.
func (s *Store) PutTransaction(ctx context.Context, t core.Transaction) error {
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, profile, date, descr, note, category, account, kind, amount, tags, pdate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			profile = excluded.profile,
			date = excluded.date,
			descr = excluded.descr,
			note = excluded.note,
			category = excluded.category,
			account = excluded.account,
			kind = excluded.kind,
			amount = excluded.amount,
			tags = excluded.tags,
			pdate = excluded.pdate`,
		t.ID, t.Profile, t.Date, t.Desc, t.Note, t.Category, t.Account, t.Type, t.Amount, string(tags), t.SortKey)
	if err != nil {
		return fmt.Errorf("put transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"profile", t.Profile,
		"date", t.Date,
		"amount", t.Amount)

	return nil
}

// DeleteTransaction removes a transaction by id. Deleting an id that does
// not exist is a no-op success.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// GetTransaction fetches one transaction by id, nil when absent.
func (s *Store) GetTransaction(ctx context.Context, id string) (*core.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, profile, date, descr, note, category, account, kind, amount, tags, pdate
		FROM transactions WHERE id = ?`, id)

	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &t, nil
}

// CountByProfile counts the transactions owned by a profile.
func (s *Store) CountByProfile(ctx context.Context, profile string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE profile = ?`, profile).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// ListByMonth scans the sort-key index over the inclusive range
// {profile}|{ym}-01 .. {profile}|{ym}-31, newest date first. The literal
// -31 upper bound covers every month under string comparison; it must not
// be replaced with the true month length.
func (s *Store) ListByMonth(ctx context.Context, profile, yearMonth string) ([]core.Transaction, error) {
	start := core.SortKey(profile, yearMonth+"-01")
	end := core.SortKey(profile, yearMonth+"-31")

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile, date, descr, note, category, account, kind, amount, tags, pdate
		FROM transactions
		WHERE pdate >= ? AND pdate <= ?
		ORDER BY date DESC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("list transactions by month: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var tags string
	err := row.Scan(&t.ID, &t.Profile, &t.Date, &t.Desc, &t.Note,
		&t.Category, &t.Account, &t.Type, &t.Amount, &tags, &t.SortKey)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		// A corrupt tags blob degrades to no tags rather than failing the read.
		t.Tags = []string{}
	}
	return t, nil
}
