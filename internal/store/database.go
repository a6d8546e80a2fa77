package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"deals-chat-backend/internal/analytics"
	"deals-chat-backend/internal/chat"
	"deals-chat-backend/internal/db"
)

// AuditStore records analytics dispatches in PostgreSQL.
type AuditStore struct {
	db *db.DB
}

func NewAuditStore(database *db.DB) *AuditStore {
	return &AuditStore{db: database}
}

// DispatchRow is a stored dispatch event.
type DispatchRow struct {
	ID          int64             `json:"id"`
	SessionID   string            `json:"sessionId"`
	Query       analytics.QueryID `json:"query"`
	Outcome     string            `json:"outcome"`
	RecordCount int               `json:"recordCount"`
	DurationMS  int64             `json:"durationMs"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// RecordDispatch implements chat.AuditSink.
func (as *AuditStore) RecordDispatch(ctx context.Context, ev chat.DispatchEvent) error {
	if strings.TrimSpace(ev.SessionID) == "" {
		return fmt.Errorf("session_id is required")
	}
	if !ev.Query.Valid() {
		return fmt.Errorf("invalid query id %d", int(ev.Query))
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	query := `
		INSERT INTO query_dispatches (session_id, query_id, outcome, record_count, duration_ms, error, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
	`
	_, err := as.db.ExecContext(ctx, query,
		ev.SessionID,
		int(ev.Query),
		ev.Outcome,
		ev.Records,
		ev.Duration.Milliseconds(),
		ev.Error,
		at,
	)
	if err != nil {
		return fmt.Errorf("failed to record dispatch: %w", err)
	}
	return nil
}

// RecentDispatches returns up to limit events, newest first.
func (as *AuditStore) RecentDispatches(ctx context.Context, limit int) ([]DispatchRow, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	query := `
		SELECT id, session_id, query_id, outcome, record_count, duration_ms, COALESCE(error, ''), created_at
		FROM query_dispatches
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	rows, err := as.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list dispatches: %w", err)
	}
	defer rows.Close()

	out := make([]DispatchRow, 0, limit)
	for rows.Next() {
		var r DispatchRow
		var q int
		if err := rows.Scan(
			&r.ID,
			&r.SessionID,
			&q,
			&r.Outcome,
			&r.RecordCount,
			&r.DurationMS,
			&r.Error,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch: %w", err)
		}
		r.Query = analytics.QueryID(q)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list dispatches: %w", err)
	}
	return out, nil
}
