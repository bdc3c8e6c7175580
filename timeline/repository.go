// Package timeline archives confirmed conversation lifecycle events
// (milestone creation, completions, fund releases, disputes) to Postgres.
// The archive observes the in-memory state, it never drives it: a failed
// insert is reported and the applied mutation stands.
package timeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Event is one archived lifecycle event.
type Event struct {
	ID             int64
	ConversationID string
	Type           string
	Payload        map[string]any
	CreatedAt      time.Time
}

// Repository writes and reads the timeline_events table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wraps an existing connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the timeline_events table if it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS timeline_events (
    id BIGSERIAL PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    type TEXT NOT NULL,
    payload JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
	if err != nil {
		return fmt.Errorf("timeline: ensure schema: %w", err)
	}
	return nil
}

// Record appends one event. It satisfies the milestone store's recorder
// hook.
func (r *Repository) Record(ctx context.Context, conversationID, eventType string, payload map[string]any) error {
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("timeline: marshal payload: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
INSERT INTO timeline_events (conversation_id, type, payload)
VALUES ($1, $2, $3)`, conversationID, eventType, raw)
	if err != nil {
		return fmt.Errorf("timeline: insert event: %w", err)
	}
	return nil
}

// List returns the conversation's archived events in append order.
func (r *Repository) List(ctx context.Context, conversationID string) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, conversation_id, type, payload, created_at
FROM timeline_events
WHERE conversation_id = $1
ORDER BY id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("timeline: query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e   Event
			raw []byte
		)
		if err := rows.Scan(&e.ID, &e.ConversationID, &e.Type, &raw, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("timeline: scan event: %w", err)
		}
		if err := json.Unmarshal(raw, &e.Payload); err != nil {
			return nil, fmt.Errorf("timeline: unmarshal payload: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("timeline: iterate events: %w", err)
	}
	return events, nil
}
