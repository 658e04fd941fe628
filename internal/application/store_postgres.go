package application

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"veris/internal/risk"
	id "veris/pkg/domain"
)

// PostgresStore persists applications in PostgreSQL. The progress
// record, risk summary, review decision, and history live in JSONB
// columns; updates are compare-and-swap on the version column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type applicationPayload struct {
	Progress Progress         `json:"progress"`
	Risk     *risk.Assessment `json:"risk,omitempty"`
	Consent  ConsentMetadata  `json:"consent"`
	Review   *ReviewDecision  `json:"review,omitempty"`
	History  []HistoryEntry   `json:"history,omitempty"`
}

func (s *PostgresStore) Create(ctx context.Context, app *Application) error {
	app.Version = 1
	payload, err := marshalApplication(app)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO applications (id, user_id, method, status, payload, version, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		app.ID.String(), app.UserID.String(), string(app.Method), string(app.Status),
		payload, app.Version, app.CreatedAt, app.UpdatedAt, app.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, app *Application) error {
	payload, err := marshalApplication(app)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE applications
		SET status = $2, payload = $3, version = version + 1, updated_at = $4, expires_at = $5
		WHERE id = $1 AND version = $6`,
		app.ID.String(), string(app.Status), payload, app.UpdatedAt, app.ExpiresAt, app.Version,
	)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if affected == 0 {
		if _, err := s.Get(ctx, app.ID); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	app.Version++
	return nil
}

const applicationColumns = `id, user_id, method, status, payload, version, created_at, updated_at, expires_at`

func (s *PostgresStore) Get(ctx context.Context, appID id.ApplicationID) (*Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, appID.String())
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*Application, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE user_id = $1 ORDER BY created_at`,
		userID.String())
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return collectApplications(rows)
}

func (s *PostgresStore) ListExpiring(ctx context.Context, cutoff time.Time, limit int) ([]*Application, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+applicationColumns+` FROM applications
		WHERE expires_at <= $1 AND status NOT IN ('APPROVED', 'REJECTED', 'EXPIRED', 'CANCELLED')
		ORDER BY expires_at
		LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list expiring applications: %w", err)
	}
	return collectApplications(rows)
}

func collectApplications(rows *sql.Rows) ([]*Application, error) {
	defer rows.Close()
	var out []*Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return out, nil
}

func marshalApplication(app *Application) ([]byte, error) {
	payload, err := json.Marshal(applicationPayload{
		Progress: app.Progress,
		Risk:     app.Risk,
		Consent:  app.Consent,
		Review:   app.Review,
		History:  app.History,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal application payload: %w", err)
	}
	return payload, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*Application, error) {
	var (
		app            Application
		rawID, rawUser string
		method, status string
		payload        []byte
	)
	if err := row.Scan(&rawID, &rawUser, &method, &status, &payload,
		&app.Version, &app.CreatedAt, &app.UpdatedAt, &app.ExpiresAt); err != nil {
		return nil, err
	}

	var err error
	if app.ID, err = id.ParseApplicationID(rawID); err != nil {
		return nil, err
	}
	if app.UserID, err = id.ParseUserID(rawUser); err != nil {
		return nil, err
	}
	app.Method = id.VerificationMethod(method)
	app.Status = Status(status)

	var rec applicationPayload
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal application payload: %w", err)
	}
	app.Progress = rec.Progress
	app.Risk = rec.Risk
	app.Consent = rec.Consent
	app.Review = rec.Review
	app.History = rec.History
	return &app, nil
}
