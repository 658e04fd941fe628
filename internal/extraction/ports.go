package extraction

import (
	"context"
	"errors"

	dErrors "veris/pkg/domain-errors"
)

// FaceExtractor wraps the face-detection/landmark/descriptor capability.
// Implementations may block on model inference; callers bound them with
// the timeout wrapper below.
type FaceExtractor interface {
	ExtractFace(ctx context.Context, image []byte) (*FaceMeasurements, error)
}

// TextExtractor wraps the OCR capability for identity documents.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte, documentType string) (*OCRResult, error)
}

// WrapErr normalizes a collaborator failure into the retryable
// extraction_failed code so orchestrators can apply the retry policy.
// Deadline hits keep their own timeout code.
func WrapErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, op+": extraction deadline exceeded")
	}
	return dErrors.Wrap(err, dErrors.CodeExtraction, op)
}
