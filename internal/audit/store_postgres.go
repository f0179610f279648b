package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists audit events append-only in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (procedure_id, event_type, from_step, to_step, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ProcedureID, string(event.Type), event.FromStep, event.ToStep, event.Note, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByProcedure(ctx context.Context, procedureID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT procedure_id, event_type, from_step, to_step, note, created_at
		FROM audit_events
		WHERE procedure_id = $1
		ORDER BY created_at, id`,
		procedureID,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		var eventType string
		if err := rows.Scan(&event.ProcedureID, &eventType, &event.FromStep,
			&event.ToStep, &event.Note, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Type = EventType(eventType)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
