package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/neboloop/outfitswitch/internal/events"
)

// HistoryEntry is one recorded costume issuance.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	Trigger   string    `json:"trigger,omitempty"`
	Source    string    `json:"source"`
	OK        bool      `json:"ok"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordIssued appends an issuance outcome.
func (s *Store) RecordIssued(ctx context.Context, evt events.CostumeIssued) (int64, error) {
	at := evt.At
	if at.IsZero() {
		at = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO costume_history (path, trigger, source, ok, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		evt.Path, evt.Trigger, evt.Source, boolToInt(evt.OK), evt.Message, at.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("record costume: %w", err)
	}
	return res.LastInsertId()
}

// ListHistory returns up to limit entries, newest first.
func (s *Store) ListHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, trigger, source, ok, message, created_at
		FROM costume_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var (
			e       HistoryEntry
			ok      int64
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Path, &e.Trigger, &e.Source, &ok, &e.Message, &created); err != nil {
			return nil, err
		}
		e.OK = ok != 0
		e.CreatedAt = time.UnixMilli(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecordFrom subscribes to issuance events and appends each to history.
func (s *Store) RecordFrom(subject *events.Subject, logger *zap.Logger) events.Subscription {
	if logger == nil {
		logger = zap.NewNop()
	}
	return events.Subscribe(subject, events.TopicCostumeIssued, func(ctx context.Context, evt events.CostumeIssued) error {
		if _, err := s.RecordIssued(ctx, evt); err != nil {
			logger.Warn("costume history write failed", zap.Error(err))
			return err
		}
		return nil
	})
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
