package document

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"veris/internal/audit"
	"veris/internal/document/metrics"
	"veris/internal/extraction"
	"veris/internal/platform/objectstore"
	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/requestcontext"
)

// Service owns the document lifecycle: accepting uploads, running OCR
// and image analysis, and scoring validity. Extraction failures are
// reported as errors and leave the document unscored; only a completed
// analysis produces a validation verdict.
type Service struct {
	store    Store
	objects  objectstore.Store
	ocr      extraction.TextExtractor
	analyzer Analyzer
	formats  FormatValidator
	scorer   *Scorer
	auditor  *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewService(
	store Store,
	objects objectstore.Store,
	ocr extraction.TextExtractor,
	analyzer Analyzer,
	formats FormatValidator,
	scorer *Scorer,
	auditor *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:    store,
		objects:  objects,
		ocr:      ocr,
		analyzer: analyzer,
		formats:  formats,
		scorer:   scorer,
		auditor:  auditor,
		metrics:  m,
		logger:   logger,
	}
}

// Upload stores the document image and registers the document record.
func (s *Service) Upload(ctx context.Context, appID id.ApplicationID, docType Type, body io.Reader, contentType string, size int64) (*Document, error) {
	if !docType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported document type")
	}

	docID := id.NewDocumentID()
	key := fmt.Sprintf("documents/%s/%s", appID.String(), docID.String())
	if err := s.objects.Put(ctx, key, body, objectstore.PutOptions{ContentType: contentType, Size: size}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "store document image")
	}

	doc := &Document{
		ID:            docID,
		ApplicationID: appID,
		Type:          docType,
		Status:        StatusUploaded,
		ObjectKey:     key,
		UploadedAt:    requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist document")
	}

	s.metrics.IncrementUpload(string(docType))
	if err := s.auditor.Emit(ctx, audit.Event{
		ApplicationID: appID,
		Action:        audit.ActionDocumentUploaded,
		Detail:        string(docType),
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", audit.ActionDocumentUploaded, "error", err)
	}

	s.logger.InfoContext(ctx, "document uploaded",
		"request_id", requestcontext.RequestID(ctx),
		"application_id", appID.String(),
		"document_id", docID.String(),
		"type", string(docType),
	)
	return doc, nil
}

// Process runs OCR and image analysis on an uploaded document and scores
// it. An extraction failure returns an error without touching the
// document's status so the caller can retry.
func (s *Service) Process(ctx context.Context, docID id.DocumentID) (*Document, error) {
	doc, err := s.store.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status != StatusUploaded {
		return nil, dErrors.New(dErrors.CodeInvalidState, "document already processed")
	}

	image, err := s.readImage(ctx, doc.ObjectKey)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ocrResult, err := s.ocr.ExtractText(ctx, image, string(doc.Type))
	if err != nil {
		s.metrics.IncrementExtractionFailure(string(doc.Type))
		return nil, extraction.WrapErr(err, "document ocr")
	}
	s.metrics.ObserveExtractionLatency(time.Since(start))

	analysis, err := s.analyzer.AnalyzeDocument(ctx, image)
	if err != nil {
		s.metrics.IncrementExtractionFailure(string(doc.Type))
		return nil, extraction.WrapErr(err, "document analysis")
	}

	doc.RawText = ocrResult.RawText
	doc.Fields = s.mapFields(doc.Type, ocrResult)
	doc.Quality = analysis.Quality
	doc.Security = analysis.Security
	doc.Tampering = analysis.Tampering
	doc.Status = StatusProcessed
	now := requestcontext.Now(ctx)
	doc.ProcessedAt = &now

	result := s.scorer.Validate(doc)
	s.scorer.Apply(doc, result)
	validatedAt := requestcontext.Now(ctx)
	doc.ValidatedAt = &validatedAt

	if err := s.store.Update(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist document validation")
	}

	s.metrics.ObserveValidationScore(result.Score)
	s.metrics.IncrementValidationOutcome(string(doc.Type), string(doc.Status))
	if err := s.auditor.Emit(ctx, audit.Event{
		ApplicationID: doc.ApplicationID,
		Action:        audit.ActionDocumentValidated,
		Detail:        fmt.Sprintf("%s scored %d (%s)", doc.Type, result.Score, doc.Status),
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", audit.ActionDocumentValidated, "error", err)
	}

	s.logger.InfoContext(ctx, "document validated",
		"request_id", requestcontext.RequestID(ctx),
		"application_id", doc.ApplicationID.String(),
		"document_id", doc.ID.String(),
		"score", result.Score,
		"status", string(doc.Status),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// Get returns one document.
func (s *Service) Get(ctx context.Context, docID id.DocumentID) (*Document, error) {
	return s.store.Get(ctx, docID)
}

// ListByApplication returns an application's documents in upload order.
func (s *Service) ListByApplication(ctx context.Context, appID id.ApplicationID) ([]*Document, error) {
	return s.store.ListByApplication(ctx, appID)
}

// Completion reports whether the application's document set is complete:
// at least one document exists and every one of them reached a terminal
// validation status without rejection.
func (s *Service) Completion(ctx context.Context, appID id.ApplicationID) (complete bool, rejected bool, err error) {
	docs, err := s.store.ListByApplication(ctx, appID)
	if err != nil {
		return false, false, err
	}
	if len(docs) == 0 {
		return false, false, nil
	}
	for _, doc := range docs {
		switch doc.Status {
		case StatusRejected:
			rejected = true
		case StatusValidated, StatusNeedsReview:
		default:
			return false, rejected, nil
		}
	}
	return !rejected, rejected, nil
}

// ImageURL returns a short-lived download link for reviewer tooling.
func (s *Service) ImageURL(ctx context.Context, docID id.DocumentID, expiry time.Duration) (string, error) {
	doc, err := s.store.Get(ctx, docID)
	if err != nil {
		return "", err
	}
	url, err := s.objects.PresignGet(ctx, doc.ObjectKey, expiry)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "presign document image")
	}
	return url, nil
}

func (s *Service) readImage(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.objects.Get(ctx, key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "fetch document image")
	}
	defer rc.Close()
	image, err := io.ReadAll(rc)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read document image")
	}
	return image, nil
}

// mapFields folds OCR output into canonical fields, attaching the
// format verdict for the fields subject to format compliance.
func (s *Service) mapFields(docType Type, result *extraction.OCRResult) map[string]Field {
	fields := make(map[string]Field, len(result.Fields))
	for _, f := range result.Fields {
		if f.Value == "" {
			continue
		}
		field := Field{Value: f.Value, Confidence: f.Confidence}
		if identityNumberFields[f.Name] {
			field.FormatValid = s.formats.ValidFormat(docType, f.Name, f.Value)
		}
		fields[f.Name] = field
	}
	return fields
}
