// Package document models uploaded identity artifacts and scores their
// validity from OCR output and image-quality metrics.
package document

import (
	"time"

	"veris/internal/extraction"
	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
)

// Type is the closed enumeration of accepted identity artifacts.
type Type string

const (
	TypeNationalIDFront Type = "national_id_front"
	TypeNationalIDBack  Type = "national_id_back"
	TypeSecondaryID     Type = "secondary_id"
	TypeDriversLicense  Type = "drivers_license"
	TypePassport        Type = "passport"
)

var validTypes = map[Type]bool{
	TypeNationalIDFront: true,
	TypeNationalIDBack:  true,
	TypeSecondaryID:     true,
	TypeDriversLicense:  true,
	TypePassport:        true,
}

// ParseType constructs a document Type from external input.
func ParseType(s string) (Type, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "document type cannot be empty")
	}
	t := Type(s)
	if !validTypes[t] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported document type")
	}
	return t, nil
}

// IsValid checks membership in the accepted type set.
func (t Type) IsValid() bool { return validTypes[t] }

// Canonical field names recognized across document types.
const (
	FieldFullName    = "full_name"
	FieldDateOfBirth = "date_of_birth"
	FieldIDNumber    = "id_number"
	FieldAddress     = "address"
	FieldExpiryDate  = "expiry_date"
)

// requiredFields lists the mandatory fields per document type.
var requiredFields = map[Type][]string{
	TypeNationalIDFront: {FieldFullName, FieldDateOfBirth, FieldIDNumber, FieldAddress},
	TypeNationalIDBack:  {FieldIDNumber, FieldAddress},
	TypeSecondaryID:     {FieldFullName, FieldIDNumber},
	TypeDriversLicense:  {FieldFullName, FieldDateOfBirth, FieldIDNumber},
	TypePassport:        {FieldFullName, FieldDateOfBirth, FieldIDNumber, FieldExpiryDate},
}

// RequiredFields returns the mandatory field names for a document type.
func RequiredFields(t Type) []string {
	return append([]string(nil), requiredFields[t]...)
}

// identityNumberFields are the fields subject to format compliance.
var identityNumberFields = map[string]bool{
	FieldIDNumber:    true,
	FieldDateOfBirth: true,
	FieldExpiryDate:  true,
}

// Status is the document lifecycle state.
type Status string

const (
	StatusUploaded    Status = "UPLOADED"
	StatusProcessed   Status = "PROCESSED"
	StatusNeedsReview Status = "NEEDS_REVIEW"
	StatusValidated   Status = "VALIDATED"
	StatusRejected    Status = "REJECTED"
)

// Field is one extracted document field with its extraction confidence
// and the format verdict supplied by the external format collaborator.
type Field struct {
	Value       string  `json:"value"`
	Confidence  float64 `json:"confidence"`
	FormatValid bool    `json:"format_valid"`
}

// SecurityFeatures records per-marker detection of known security
// features. Absence lowers the score but is not disqualifying.
type SecurityFeatures struct {
	Watermark  bool `json:"watermark"`
	Hologram   bool `json:"hologram"`
	Microprint bool `json:"microprint"`
}

// Count returns how many of the known markers were detected.
func (s SecurityFeatures) Count() int {
	n := 0
	for _, detected := range []bool{s.Watermark, s.Hologram, s.Microprint} {
		if detected {
			n++
		}
	}
	return n
}

// Issue is one named validation problem with the points the check
// scored, rendered one line per failed check.
type Issue struct {
	Check   string `json:"check"`
	Points  int    `json:"points"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of scoring one document.
type ValidationResult struct {
	Score       int     `json:"score"`
	Valid       bool    `json:"valid"`
	NeedsReview bool    `json:"needs_review"`
	Issues      []Issue `json:"issues"`
}

// Document is one uploaded identity artifact. Owned exclusively by its
// parent application; never shared.
type Document struct {
	ID            id.DocumentID
	ApplicationID id.ApplicationID
	Type          Type
	Status        Status
	ObjectKey     string

	RawText   string
	Fields    map[string]Field
	Quality   extraction.ImageQuality
	Security  SecurityFeatures
	Tampering extraction.Indicator

	Validation *ValidationResult

	UploadedAt  time.Time
	ProcessedAt *time.Time
	ValidatedAt *time.Time
}

// FieldValue returns the named field's value and whether it is present.
func (d *Document) FieldValue(name string) (string, bool) {
	f, ok := d.Fields[name]
	if !ok || f.Value == "" {
		return "", false
	}
	return f.Value, true
}
