package document

import (
	"context"

	"veris/internal/extraction"
)

// Analysis is the image-level verdict from the document analyzer:
// legibility metrics, detected security markers, and tampering signals.
type Analysis struct {
	Quality   extraction.ImageQuality
	Security  SecurityFeatures
	Tampering extraction.Indicator
}

// Analyzer inspects the document image itself, independent of OCR.
type Analyzer interface {
	AnalyzeDocument(ctx context.Context, image []byte) (*Analysis, error)
}

// FormatValidator checks one extracted field value against the format
// rules for its document type. It is an external collaborator; scoring
// consumes its verdicts without re-deriving them.
type FormatValidator interface {
	ValidFormat(docType Type, field, value string) bool
}

// FormatValidatorFunc adapts a function to the FormatValidator interface.
type FormatValidatorFunc func(docType Type, field, value string) bool

func (f FormatValidatorFunc) ValidFormat(docType Type, field, value string) bool {
	return f(docType, field, value)
}
