package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/neboloop/outfitswitch/internal/profile"
)

// Store keeps settings and costume history in SQLite.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the stored settings, or defaults when none were saved. A
// body that no longer parses is repaired like any other input.
func (s *Store) Load(ctx context.Context) (*profile.Settings, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM settings WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	return profile.EnsureSettingsShape([]byte(body)), nil
}

// Save upserts the settings row.
func (s *Store) Save(ctx context.Context, settings *profile.Settings) error {
	body, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (id, body, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		string(body), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
