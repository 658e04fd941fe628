package handler

import (
	"time"

	"veris/internal/document"
)

// DocumentResponse is the HTTP representation of a document. Raw OCR
// text and quality internals stay server-side; callers get the fields,
// status, and validation verdict.
type DocumentResponse struct {
	ID            string                     `json:"id"`
	ApplicationID string                     `json:"application_id"`
	Type          string                     `json:"type"`
	Status        string                     `json:"status"`
	Fields        map[string]document.Field  `json:"fields,omitempty"`
	Validation    *document.ValidationResult `json:"validation,omitempty"`
	UploadedAt    time.Time                  `json:"uploaded_at"`
	ProcessedAt   *time.Time                 `json:"processed_at,omitempty"`
	ValidatedAt   *time.Time                 `json:"validated_at,omitempty"`
}

// FromDocument converts a domain document to its HTTP form.
func FromDocument(doc *document.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:            doc.ID.String(),
		ApplicationID: doc.ApplicationID.String(),
		Type:          string(doc.Type),
		Status:        string(doc.Status),
		Fields:        doc.Fields,
		Validation:    doc.Validation,
		UploadedAt:    doc.UploadedAt,
		ProcessedAt:   doc.ProcessedAt,
		ValidatedAt:   doc.ValidatedAt,
	}
}

// ListResponse wraps an application's documents.
type ListResponse struct {
	Documents []*DocumentResponse `json:"documents"`
}

// ImageURLResponse carries a short-lived download link for the original
// upload.
type ImageURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
