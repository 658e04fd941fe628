package audit

import (
	"context"
	"database/sql"
	"fmt"

	id "veris/pkg/domain"
)

// PostgresStore persists the audit trail in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (occurred_at, application_id, actor, action, detail, client_ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.Timestamp, event.ApplicationID.String(), event.Actor, event.Action,
		event.Detail, event.ClientIP, event.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByApplication(ctx context.Context, appID id.ApplicationID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT occurred_at, application_id, actor, action, detail, client_ip, user_agent
		FROM audit_events
		WHERE application_id = $1
		ORDER BY occurred_at`, appID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			event  Event
			rawApp string
		)
		if err := rows.Scan(&event.Timestamp, &rawApp, &event.Actor, &event.Action,
			&event.Detail, &event.ClientIP, &event.UserAgent); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if event.ApplicationID, err = id.ParseApplicationID(rawApp); err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return out, nil
}
