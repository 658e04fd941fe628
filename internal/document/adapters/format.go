// Package adapters provides default implementations of the document
// module's collaborator ports.
package adapters

import (
	"regexp"
	"time"

	"veris/internal/document"
)

var idNumberPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{4,18}[A-Z0-9]$`)

// FormatValidator applies built-in format rules for identity fields.
// Deployments with issuer-specific rules replace this with their own
// implementation of the port.
type FormatValidator struct{}

func NewFormatValidator() *FormatValidator {
	return &FormatValidator{}
}

func (v *FormatValidator) ValidFormat(docType document.Type, field, value string) bool {
	switch field {
	case document.FieldIDNumber:
		return idNumberPattern.MatchString(value)
	case document.FieldDateOfBirth:
		t, err := time.Parse("2006-01-02", value)
		return err == nil && t.Before(time.Now())
	case document.FieldExpiryDate:
		_, err := time.Parse("2006-01-02", value)
		return err == nil
	default:
		return true
	}
}
