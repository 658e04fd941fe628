package document

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veris/internal/audit"
	"veris/internal/extraction"
	"veris/internal/platform/config"
	"veris/internal/platform/logger"
	"veris/internal/platform/objectstore"
	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
)

type stubOCR struct {
	result *extraction.OCRResult
	err    error
}

func (s *stubOCR) ExtractText(context.Context, []byte, string) (*extraction.OCRResult, error) {
	return s.result, s.err
}

type stubAnalyzer struct {
	analysis *Analysis
	err      error
}

func (s *stubAnalyzer) AnalyzeDocument(context.Context, []byte) (*Analysis, error) {
	return s.analysis, s.err
}

func allValidFormats() FormatValidator {
	return FormatValidatorFunc(func(Type, string, string) bool { return true })
}

func newTestService(ocr extraction.TextExtractor, analyzer Analyzer) (*Service, *audit.MemoryStore) {
	auditStore := audit.NewMemoryStore()
	svc := NewService(
		NewMemoryStore(),
		objectstore.NewMemoryStore(),
		ocr,
		analyzer,
		allValidFormats(),
		NewScorer(config.DefaultScoring().Document),
		audit.NewPublisher(auditStore),
		nil,
		logger.New("error"),
	)
	return svc, auditStore
}

func fullOCR() *extraction.OCRResult {
	return &extraction.OCRResult{
		RawText: "REPUBLIC OF EXAMPLE NATIONAL ID",
		Fields: []extraction.OCRField{
			{Name: FieldFullName, Value: "Jordan Blake", Confidence: 0.98},
			{Name: FieldDateOfBirth, Value: "1990-04-12", Confidence: 0.95},
			{Name: FieldIDNumber, Value: "A1234567", Confidence: 0.97},
			{Name: FieldAddress, Value: "12 Harbour Lane", Confidence: 0.9},
		},
	}
}

func cleanAnalysis() *Analysis {
	return &Analysis{
		Quality: extraction.ImageQuality{
			Brightness: 1, Contrast: 1, Sharpness: 1,
			Resolution: extraction.ResolutionHigh,
		},
		Security: SecurityFeatures{Watermark: true, Hologram: true, Microprint: true},
	}
}

func TestUploadAndProcess_ValidDocument(t *testing.T) {
	svc, auditStore := newTestService(&stubOCR{result: fullOCR()}, &stubAnalyzer{analysis: cleanAnalysis()})
	ctx := context.Background()
	appID := id.NewApplicationID()

	doc, err := svc.Upload(ctx, appID, TypeNationalIDFront, strings.NewReader("image-bytes"), "image/jpeg", 11)
	require.NoError(t, err)
	assert.Equal(t, StatusUploaded, doc.Status)
	assert.Contains(t, doc.ObjectKey, appID.String())

	processed, err := svc.Process(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusValidated, processed.Status)
	require.NotNil(t, processed.Validation)
	assert.Equal(t, 100, processed.Validation.Score)
	assert.NotNil(t, processed.ProcessedAt)
	assert.NotNil(t, processed.ValidatedAt)

	events, err := auditStore.ListByApplication(ctx, appID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.ActionDocumentUploaded, events[0].Action)
	assert.Equal(t, audit.ActionDocumentValidated, events[1].Action)
}

func TestProcess_OCRFailureLeavesDocumentUploaded(t *testing.T) {
	svc, _ := newTestService(&stubOCR{err: errors.New("model unavailable")}, &stubAnalyzer{analysis: cleanAnalysis()})
	ctx := context.Background()

	doc, err := svc.Upload(ctx, id.NewApplicationID(), TypePassport, strings.NewReader("img"), "image/jpeg", 3)
	require.NoError(t, err)

	_, err = svc.Process(ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeExtraction))

	stored, err := svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusUploaded, stored.Status)
	assert.Nil(t, stored.Validation)
}

func TestProcess_RejectsDoubleProcessing(t *testing.T) {
	svc, _ := newTestService(&stubOCR{result: fullOCR()}, &stubAnalyzer{analysis: cleanAnalysis()})
	ctx := context.Background()

	doc, err := svc.Upload(ctx, id.NewApplicationID(), TypeNationalIDFront, strings.NewReader("img"), "image/jpeg", 3)
	require.NoError(t, err)

	_, err = svc.Process(ctx, doc.ID)
	require.NoError(t, err)

	_, err = svc.Process(ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestUpload_RejectsUnknownType(t *testing.T) {
	svc, _ := newTestService(&stubOCR{result: fullOCR()}, &stubAnalyzer{analysis: cleanAnalysis()})

	_, err := svc.Upload(context.Background(), id.NewApplicationID(), Type("selfie"), strings.NewReader("img"), "image/jpeg", 3)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestCompletion(t *testing.T) {
	svc, _ := newTestService(&stubOCR{result: fullOCR()}, &stubAnalyzer{analysis: cleanAnalysis()})
	ctx := context.Background()
	appID := id.NewApplicationID()

	complete, rejected, err := svc.Completion(ctx, appID)
	require.NoError(t, err)
	assert.False(t, complete)
	assert.False(t, rejected)

	doc, err := svc.Upload(ctx, appID, TypeNationalIDFront, strings.NewReader("img"), "image/jpeg", 3)
	require.NoError(t, err)

	complete, _, err = svc.Completion(ctx, appID)
	require.NoError(t, err)
	assert.False(t, complete, "unprocessed upload is not complete")

	_, err = svc.Process(ctx, doc.ID)
	require.NoError(t, err)

	complete, rejected, err = svc.Completion(ctx, appID)
	require.NoError(t, err)
	assert.True(t, complete)
	assert.False(t, rejected)
}

func TestCompletion_RejectedDocumentBlocksCompletion(t *testing.T) {
	tamperedAnalysis := cleanAnalysis()
	tamperedAnalysis.Tampering = extraction.Indicator{Detected: true, Confidence: 0.95}
	svc, _ := newTestService(&stubOCR{result: fullOCR()}, &stubAnalyzer{analysis: tamperedAnalysis})
	ctx := context.Background()
	appID := id.NewApplicationID()

	doc, err := svc.Upload(ctx, appID, TypeNationalIDFront, strings.NewReader("img"), "image/jpeg", 3)
	require.NoError(t, err)
	_, err = svc.Process(ctx, doc.ID)
	require.NoError(t, err)

	complete, rejected, err := svc.Completion(ctx, appID)
	require.NoError(t, err)
	assert.False(t, complete)
	assert.True(t, rejected)
}
