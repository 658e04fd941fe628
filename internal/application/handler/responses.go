package handler

import (
	"time"

	"veris/internal/application"
	"veris/internal/risk"
)

// ApplicationResponse is the HTTP representation of an application.
type ApplicationResponse struct {
	ID        string                      `json:"id"`
	UserID    string                      `json:"user_id"`
	Method    string                      `json:"method"`
	Status    string                      `json:"status"`
	Progress  application.Progress        `json:"progress"`
	Risk      *risk.Assessment            `json:"risk,omitempty"`
	Consent   application.ConsentMetadata `json:"consent"`
	Review    *application.ReviewDecision `json:"review,omitempty"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
	ExpiresAt time.Time                   `json:"expires_at"`
}

// FromApplication converts a domain application to its HTTP form.
// History is exposed through its own endpoint to keep the state
// payload small.
func FromApplication(app *application.Application) *ApplicationResponse {
	return &ApplicationResponse{
		ID:        app.ID.String(),
		UserID:    app.UserID.String(),
		Method:    string(app.Method),
		Status:    string(app.Status),
		Progress:  app.Progress,
		Risk:      app.Risk,
		Consent:   app.Consent,
		Review:    app.Review,
		CreatedAt: app.CreatedAt,
		UpdatedAt: app.UpdatedAt,
		ExpiresAt: app.ExpiresAt,
	}
}

// ListResponse wraps a collection of applications.
type ListResponse struct {
	Applications []*ApplicationResponse `json:"applications"`
}

// HistoryResponse is the state-change history of one application.
type HistoryResponse struct {
	ApplicationID string                     `json:"application_id"`
	History       []application.HistoryEntry `json:"history"`
}
