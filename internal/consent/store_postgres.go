package consent

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	id "veris/pkg/domain"
)

// PostgresStore persists consent records in PostgreSQL, one row per
// application keyed by application id.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, record *Record) error {
	fields, err := json.Marshal(record.FetchedFields)
	if err != nil {
		return fmt.Errorf("marshal consent fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO consent_records (application_id, completed, fetched_fields, provider, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (application_id)
		DO UPDATE SET completed = $2, fetched_fields = $3, provider = $4, completed_at = $5`,
		record.ApplicationID.String(), record.Completed, fields, record.Provider, record.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("save consent record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, appID id.ApplicationID) (*Record, error) {
	var (
		record Record
		rawApp string
		fields []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT application_id, completed, fetched_fields, provider, completed_at
		FROM consent_records WHERE application_id = $1`, appID.String()).
		Scan(&rawApp, &record.Completed, &fields, &record.Provider, &record.CompletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get consent record: %w", err)
	}
	if record.ApplicationID, err = id.ParseApplicationID(rawApp); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &record.FetchedFields); err != nil {
			return nil, fmt.Errorf("unmarshal consent fields: %w", err)
		}
	}
	return &record, nil
}
