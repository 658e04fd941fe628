// Package handler exposes the consent exchange over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veris/internal/application"
	"veris/internal/consent"
	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/platform/httputil"
	"veris/pkg/platform/middleware/auth"
	"veris/pkg/platform/token"
	"veris/pkg/requestcontext"
)

// Service defines the consent operations the handler needs.
type Service interface {
	Run(ctx context.Context, appID id.ApplicationID, userID id.UserID) (*consent.Record, error)
	Status(ctx context.Context, appID id.ApplicationID) (bool, map[string]string, error)
}

// Applications resolves ownership and records the consent step once the
// exchange completes.
type Applications interface {
	Get(ctx context.Context, appID id.ApplicationID) (*application.Application, error)
	RecordConsentCompleted(ctx context.Context, appID id.ApplicationID) (*application.Application, error)
}

// Handler wires consent endpoints to the consent service.
type Handler struct {
	service      Service
	applications Applications
	verifier     *token.Verifier
	logger       *slog.Logger
}

// New constructs a consent handler.
func New(service Service, applications Applications, verifier *token.Verifier, logger *slog.Logger) *Handler {
	return &Handler{
		service:      service,
		applications: applications,
		verifier:     verifier,
		logger:       logger,
	}
}

// Register mounts consent endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(h.verifier))
		r.Post("/applications/{applicationID}/consent", h.handleRun)
		r.Get("/applications/{applicationID}/consent", h.handleStatus)
	})
}

// ConsentResponse is the HTTP representation of a consent exchange
// outcome. Fetched field values are not echoed back; only their names.
type ConsentResponse struct {
	ApplicationID string    `json:"application_id"`
	Completed     bool      `json:"completed"`
	Provider      string    `json:"provider,omitempty"`
	Fields        []string  `json:"fields,omitempty"`
	CompletedAt   time.Time `json:"completed_at,omitzero"`
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)
	start := time.Now()

	appID, ok := h.ownedApplicationID(w, r)
	if !ok {
		return
	}

	record, err := h.service.Run(ctx, appID, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "consent exchange failed",
			"request_id", requestID,
			"application_id", appID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if record.Completed {
		if _, err := h.applications.RecordConsentCompleted(ctx, appID); err != nil {
			h.logger.WarnContext(ctx, "consent step not recorded",
				"request_id", requestID,
				"application_id", appID,
				"error", err,
			)
		}
	}

	h.logger.InfoContext(ctx, "consent exchange finished",
		"request_id", requestID,
		"application_id", appID,
		"completed", record.Completed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, fromRecord(record))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appID, ok := h.ownedApplicationID(w, r)
	if !ok {
		return
	}

	completed, fields, err := h.service.Status(ctx, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ConsentResponse{
		ApplicationID: appID.String(),
		Completed:     completed,
		Fields:        fieldNames(fields),
	})
}

func fromRecord(record *consent.Record) ConsentResponse {
	return ConsentResponse{
		ApplicationID: record.ApplicationID.String(),
		Completed:     record.Completed,
		Provider:      record.Provider,
		Fields:        fieldNames(record.FetchedFields),
		CompletedAt:   record.CompletedAt,
	}
}

func fieldNames(fields map[string]string) []string {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	return names
}

func (h *Handler) ownedApplicationID(w http.ResponseWriter, r *http.Request) (id.ApplicationID, bool) {
	ctx := r.Context()

	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ApplicationID{}, false
	}

	app, err := h.applications.Get(ctx, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return id.ApplicationID{}, false
	}
	if app.UserID != requestcontext.UserID(ctx) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "application not found"))
		return id.ApplicationID{}, false
	}
	return appID, true
}
