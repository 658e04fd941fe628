package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	id "veris/pkg/domain"
)

// PostgresStore persists documents in PostgreSQL. Extracted fields and
// validation results are stored as JSONB so the scoring model can evolve
// without migrations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

type documentRecord struct {
	Fields     map[string]Field  `json:"fields,omitempty"`
	Quality    json.RawMessage   `json:"quality,omitempty"`
	Security   SecurityFeatures  `json:"security"`
	Tampering  json.RawMessage   `json:"tampering,omitempty"`
	Validation *ValidationResult `json:"validation,omitempty"`
}

func (s *PostgresStore) Create(ctx context.Context, doc *Document) error {
	payload, err := marshalRecord(doc)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO documents (id, application_id, type, status, object_key, raw_text, payload, uploaded_at, processed_at, validated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		doc.ID.String(), doc.ApplicationID.String(), string(doc.Type), string(doc.Status),
		doc.ObjectKey, doc.RawText, payload, doc.UploadedAt, doc.ProcessedAt, doc.ValidatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, doc *Document) error {
	payload, err := marshalRecord(doc)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents
		SET status = $2, raw_text = $3, payload = $4, processed_at = $5, validated_at = $6
		WHERE id = $1`,
		doc.ID.String(), string(doc.Status), doc.RawText, payload, doc.ProcessedAt, doc.ValidatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, docID id.DocumentID) (*Document, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, application_id, type, status, object_key, raw_text, payload, uploaded_at, processed_at, validated_at
		FROM documents WHERE id = $1`, docID.String())
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) ListByApplication(ctx context.Context, appID id.ApplicationID) ([]*Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, application_id, type, status, object_key, raw_text, payload, uploaded_at, processed_at, validated_at
		FROM documents WHERE application_id = $1
		ORDER BY uploaded_at`, appID.String())
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}

func marshalRecord(doc *Document) ([]byte, error) {
	quality, err := json.Marshal(doc.Quality)
	if err != nil {
		return nil, fmt.Errorf("marshal quality: %w", err)
	}
	tampering, err := json.Marshal(doc.Tampering)
	if err != nil {
		return nil, fmt.Errorf("marshal tampering: %w", err)
	}
	payload, err := json.Marshal(documentRecord{
		Fields:     doc.Fields,
		Quality:    quality,
		Security:   doc.Security,
		Tampering:  tampering,
		Validation: doc.Validation,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal document payload: %w", err)
	}
	return payload, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		doc          Document
		docID, appID string
		docType      string
		status       string
		payload      []byte
	)
	if err := row.Scan(&docID, &appID, &docType, &status, &doc.ObjectKey, &doc.RawText,
		&payload, &doc.UploadedAt, &doc.ProcessedAt, &doc.ValidatedAt); err != nil {
		return nil, err
	}

	var err error
	if doc.ID, err = id.ParseDocumentID(docID); err != nil {
		return nil, err
	}
	if doc.ApplicationID, err = id.ParseApplicationID(appID); err != nil {
		return nil, err
	}
	doc.Type = Type(docType)
	doc.Status = Status(status)

	var rec documentRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal document payload: %w", err)
	}
	doc.Fields = rec.Fields
	doc.Security = rec.Security
	doc.Validation = rec.Validation
	if len(rec.Quality) > 0 {
		if err := json.Unmarshal(rec.Quality, &doc.Quality); err != nil {
			return nil, fmt.Errorf("unmarshal quality: %w", err)
		}
	}
	if len(rec.Tampering) > 0 {
		if err := json.Unmarshal(rec.Tampering, &doc.Tampering); err != nil {
			return nil, fmt.Errorf("unmarshal tampering: %w", err)
		}
	}
	return &doc, nil
}
