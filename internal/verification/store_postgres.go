package verification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"veris/internal/extraction"
	id "veris/pkg/domain"
)

// PostgresCaptureStore persists captures in PostgreSQL with the
// extracted measurements as JSONB.
type PostgresCaptureStore struct {
	db *sql.DB
}

func NewPostgresCaptureStore(db *sql.DB) *PostgresCaptureStore {
	return &PostgresCaptureStore{db: db}
}

func (s *PostgresCaptureStore) Create(ctx context.Context, capture *Capture) error {
	measurements, err := json.Marshal(capture.Measurements)
	if err != nil {
		return fmt.Errorf("marshal capture measurements: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO captures (id, application_id, kind, object_key, measurements, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		capture.ID.String(), capture.ApplicationID.String(), string(capture.Kind),
		capture.ObjectKey, measurements, capture.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("insert capture: %w", err)
	}
	return nil
}

const captureColumns = `id, application_id, kind, object_key, measurements, captured_at`

func (s *PostgresCaptureStore) Get(ctx context.Context, captureID id.CaptureID) (*Capture, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+captureColumns+` FROM captures WHERE id = $1`, captureID.String())
	capture, err := scanCapture(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCaptureNotFound
		}
		return nil, fmt.Errorf("get capture: %w", err)
	}
	return capture, nil
}

func (s *PostgresCaptureStore) ListByApplication(ctx context.Context, appID id.ApplicationID) ([]*Capture, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+captureColumns+` FROM captures WHERE application_id = $1 ORDER BY captured_at`,
		appID.String())
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	defer rows.Close()

	var out []*Capture
	for rows.Next() {
		capture, err := scanCapture(rows)
		if err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		out = append(out, capture)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCapture(row rowScanner) (*Capture, error) {
	var (
		capture       Capture
		rawID, rawApp string
		kind          string
		measurements  []byte
	)
	if err := row.Scan(&rawID, &rawApp, &kind, &capture.ObjectKey, &measurements, &capture.CapturedAt); err != nil {
		return nil, err
	}
	var err error
	if capture.ID, err = id.ParseCaptureID(rawID); err != nil {
		return nil, err
	}
	if capture.ApplicationID, err = id.ParseApplicationID(rawApp); err != nil {
		return nil, err
	}
	capture.Kind = CaptureKind(kind)
	if len(measurements) > 0 {
		var m extraction.FaceMeasurements
		if err := json.Unmarshal(measurements, &m); err != nil {
			return nil, fmt.Errorf("unmarshal capture measurements: %w", err)
		}
		capture.Measurements = m
	}
	return &capture, nil
}

// PostgresResultStore persists verification results in PostgreSQL.
// Results are insert-only.
type PostgresResultStore struct {
	db *sql.DB
}

func NewPostgresResultStore(db *sql.DB) *PostgresResultStore {
	return &PostgresResultStore{db: db}
}

type resultPayload struct {
	Score           float64        `json:"score"`
	Passed          bool           `json:"passed"`
	Confidence      float64        `json:"confidence"`
	Checks          []CheckOutcome `json:"checks,omitempty"`
	FailureReasons  []Reason       `json:"failure_reasons,omitempty"`
	RiskLevel       RiskLevel      `json:"risk_level"`
	Recommendations []string       `json:"recommendations,omitempty"`
	Match           *MatchDetails  `json:"match,omitempty"`
}

func (s *PostgresResultStore) Create(ctx context.Context, result *Result) error {
	payload, err := json.Marshal(resultPayload{
		Score:           result.Score,
		Passed:          result.Passed,
		Confidence:      result.Confidence,
		Checks:          result.Checks,
		FailureReasons:  result.FailureReasons,
		RiskLevel:       result.RiskLevel,
		Recommendations: result.Recommendations,
		Match:           result.Match,
	})
	if err != nil {
		return fmt.Errorf("marshal result payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verification_results (id, application_id, capture_id, type, status, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		result.ID.String(), result.ApplicationID.String(), result.CaptureID.String(),
		string(result.Type), string(result.Status), payload, result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification result: %w", err)
	}
	return nil
}

const resultColumns = `id, application_id, capture_id, type, status, payload, created_at`

func (s *PostgresResultStore) Get(ctx context.Context, resultID id.VerificationID) (*Result, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+resultColumns+` FROM verification_results WHERE id = $1`, resultID.String())
	result, err := scanResult(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get verification result: %w", err)
	}
	return result, nil
}

func (s *PostgresResultStore) ListByApplication(ctx context.Context, appID id.ApplicationID) ([]*Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+resultColumns+` FROM verification_results WHERE application_id = $1 ORDER BY created_at`,
		appID.String())
	if err != nil {
		return nil, fmt.Errorf("list verification results: %w", err)
	}
	defer rows.Close()

	var out []*Result
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification result: %w", err)
		}
		out = append(out, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list verification results: %w", err)
	}
	return out, nil
}

func scanResult(row rowScanner) (*Result, error) {
	var (
		result                Result
		rawID, rawApp, rawCap string
		resultType, status    string
		payload               []byte
	)
	if err := row.Scan(&rawID, &rawApp, &rawCap, &resultType, &status, &payload, &result.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if result.ID, err = id.ParseVerificationID(rawID); err != nil {
		return nil, err
	}
	if result.ApplicationID, err = id.ParseApplicationID(rawApp); err != nil {
		return nil, err
	}
	// ERROR-status results recorded before any capture existed carry the
	// nil capture id, so this cannot go through ParseCaptureID.
	capUUID, err := uuid.Parse(rawCap)
	if err != nil {
		return nil, fmt.Errorf("parse capture id: %w", err)
	}
	result.CaptureID = id.CaptureID(capUUID)
	result.Type = ResultType(resultType)
	result.Status = ResultStatus(status)

	var rec resultPayload
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal result payload: %w", err)
	}
	result.Score = rec.Score
	result.Passed = rec.Passed
	result.Confidence = rec.Confidence
	result.Checks = rec.Checks
	result.FailureReasons = rec.FailureReasons
	result.RiskLevel = rec.RiskLevel
	result.Recommendations = rec.Recommendations
	result.Match = rec.Match
	return &result, nil
}
