package extraction

import (
	"context"
	"time"
)

const defaultExtractTimeout = 10 * time.Second

// TimeoutFaceExtractor bounds every extraction call with a deadline so a
// hung model inference cannot stall the verification pipeline.
type TimeoutFaceExtractor struct {
	inner   FaceExtractor
	timeout time.Duration
}

// WithTimeout wraps a FaceExtractor with a per-call deadline. A zero
// timeout uses the package default.
func WithTimeout(inner FaceExtractor, timeout time.Duration) *TimeoutFaceExtractor {
	if timeout <= 0 {
		timeout = defaultExtractTimeout
	}
	return &TimeoutFaceExtractor{inner: inner, timeout: timeout}
}

func (t *TimeoutFaceExtractor) ExtractFace(ctx context.Context, image []byte) (*FaceMeasurements, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	m, err := t.inner.ExtractFace(ctx, image)
	if err != nil {
		return nil, WrapErr(err, "extract face")
	}
	return m, nil
}

// TimeoutTextExtractor bounds OCR calls with a deadline.
type TimeoutTextExtractor struct {
	inner   TextExtractor
	timeout time.Duration
}

// WithTextTimeout wraps a TextExtractor with a per-call deadline.
func WithTextTimeout(inner TextExtractor, timeout time.Duration) *TimeoutTextExtractor {
	if timeout <= 0 {
		timeout = defaultExtractTimeout
	}
	return &TimeoutTextExtractor{inner: inner, timeout: timeout}
}

func (t *TimeoutTextExtractor) ExtractText(ctx context.Context, image []byte, documentType string) (*OCRResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	r, err := t.inner.ExtractText(ctx, image, documentType)
	if err != nil {
		return nil, WrapErr(err, "extract text")
	}
	return r, nil
}
