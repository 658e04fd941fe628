// Package handler exposes the audit trail to reviewers.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veris/internal/audit"
	id "veris/pkg/domain"
	"veris/pkg/platform/httputil"
	"veris/pkg/platform/middleware/auth"
	"veris/pkg/platform/token"
	"veris/pkg/requestcontext"
)

// Store reads the persisted audit trail.
type Store interface {
	ListByApplication(ctx context.Context, appID id.ApplicationID) ([]audit.Event, error)
}

// Handler serves the audit trail. Reviewer-only; applicants see the
// application history endpoint instead.
type Handler struct {
	store    Store
	verifier *token.Verifier
	logger   *slog.Logger
}

// New constructs an audit handler.
func New(store Store, verifier *token.Verifier, logger *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		verifier: verifier,
		logger:   logger,
	}
}

// Register mounts audit endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireReviewer(h.verifier))
		r.Get("/applications/{applicationID}/audit", h.handleList)
	})
}

// EventResponse is the HTTP representation of one audit event.
type EventResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// TrailResponse is the audit trail of one application.
type TrailResponse struct {
	ApplicationID string          `json:"application_id"`
	Events        []EventResponse `json:"events"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.store.ListByApplication(ctx, appID)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit trail read failed",
			"request_id", requestID,
			"application_id", appID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := TrailResponse{
		ApplicationID: appID.String(),
		Events:        make([]EventResponse, 0, len(events)),
	}
	for _, event := range events {
		out.Events = append(out.Events, EventResponse{
			Timestamp: event.Timestamp,
			Actor:     event.Actor,
			Action:    event.Action,
			Detail:    event.Detail,
			ClientIP:  event.ClientIP,
			UserAgent: event.UserAgent,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
