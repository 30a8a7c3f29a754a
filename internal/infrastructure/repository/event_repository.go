package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/exampulse/exampulse-backend/internal/domain/event"
)

// eventRepository implements monitor.EventRepository using PostgreSQL.
// Payloads are stored as JSONB alongside the event type so they can be
// re-parsed into their typed form on read.
type eventRepository struct {
	db *pgxpool.Pool
}

func NewEventRepository(db *pgxpool.Pool) *eventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, ev *event.Event) error {
	payloadJSON, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	query := `
		INSERT INTO session_events (id, session_id, event_type, payload, severity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.Exec(ctx, query,
		ev.ID, ev.SessionID, string(ev.Type), payloadJSON, string(ev.Severity), ev.Timestamp,
	); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *eventRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*event.Event, error) {
	query := `
		SELECT id, session_id, event_type, payload, severity, created_at
		FROM session_events
		WHERE session_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*event.Event
	for rows.Next() {
		var ev event.Event
		var eventType, severity string
		var payloadJSON []byte
		if err := rows.Scan(&ev.ID, &ev.SessionID, &eventType, &payloadJSON, &severity, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Type = event.Type(eventType)
		ev.Severity = event.Severity(severity)
		payload, err := event.ParsePayload(ev.Type, payloadJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored payload: %w", err)
		}
		ev.Payload = payload
		events = append(events, &ev)
	}
	return events, rows.Err()
}
