// Package handler exposes the application lifecycle over HTTP. Handlers
// stay thin: parse, authorize ownership, delegate to the service, encode.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veris/internal/application"
	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/platform/httputil"
	"veris/pkg/platform/middleware/auth"
	"veris/pkg/platform/token"
	"veris/pkg/requestcontext"
)

// Service defines the application operations the handler needs.
type Service interface {
	Create(ctx context.Context, userID id.UserID, method id.VerificationMethod) (*application.Application, error)
	CompletePersonalInfo(ctx context.Context, appID id.ApplicationID) (*application.Application, error)
	RecordDocumentsValidated(ctx context.Context, appID id.ApplicationID) (*application.Application, error)
	Submit(ctx context.Context, appID id.ApplicationID) (*application.Application, error)
	Decide(ctx context.Context, appID id.ApplicationID, reviewerID id.ReviewerID, approved bool, note string) (*application.Application, error)
	Cancel(ctx context.Context, appID id.ApplicationID) (*application.Application, error)
	Get(ctx context.Context, appID id.ApplicationID) (*application.Application, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*application.Application, error)
}

// Handler wires application endpoints to the application service.
type Handler struct {
	service  Service
	verifier *token.Verifier
	logger   *slog.Logger
}

// New constructs an application handler.
func New(service Service, verifier *token.Verifier, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		verifier: verifier,
		logger:   logger,
	}
}

// Register mounts application endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(h.verifier))
		r.Post("/applications", h.handleCreate)
		r.Get("/applications", h.handleList)
		r.Get("/applications/{applicationID}", h.handleGet)
		r.Get("/applications/{applicationID}/history", h.handleHistory)
		r.Post("/applications/{applicationID}/steps/personal-info", h.handlePersonalInfo)
		r.Post("/applications/{applicationID}/steps/documents", h.handleDocumentsStep)
		r.Post("/applications/{applicationID}/submit", h.handleSubmit)
		r.Post("/applications/{applicationID}/cancel", h.handleCancel)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireReviewer(h.verifier))
		r.Post("/applications/{applicationID}/decision", h.handleDecision)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.Create(ctx, userID, req.ParsedMethod())
	if err != nil {
		h.logger.ErrorContext(ctx, "application create failed",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application created",
		"request_id", requestID,
		"application_id", app.ID,
		"user_id", userID,
		"method", app.Method,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromApplication(app))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	apps, err := h.service.ListByUser(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := ListResponse{Applications: make([]*ApplicationResponse, 0, len(apps))}
	for _, app := range apps {
		out.Applications = append(out.Applications, FromApplication(app))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	app, ok := h.ownedApplication(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	app, ok := h.ownedApplication(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{
		ApplicationID: app.ID.String(),
		History:       app.History,
	})
}

func (h *Handler) handlePersonalInfo(w http.ResponseWriter, r *http.Request) {
	h.stepAction(w, r, "personal info completed", h.service.CompletePersonalInfo)
}

func (h *Handler) handleDocumentsStep(w http.ResponseWriter, r *http.Request) {
	h.stepAction(w, r, "documents step recorded", h.service.RecordDocumentsValidated)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	h.stepAction(w, r, "application submitted", h.service.Submit)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.stepAction(w, r, "application cancelled", h.service.Cancel)
}

// stepAction runs a body-less lifecycle operation on an owned application.
func (h *Handler) stepAction(
	w http.ResponseWriter,
	r *http.Request,
	logMsg string,
	action func(ctx context.Context, appID id.ApplicationID) (*application.Application, error),
) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	app, ok := h.ownedApplication(w, r)
	if !ok {
		return
	}

	updated, err := action(ctx, app.ID)
	if err != nil {
		h.logger.WarnContext(ctx, "application action failed",
			"request_id", requestID,
			"application_id", app.ID,
			"path", r.URL.Path,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, logMsg,
		"request_id", requestID,
		"application_id", updated.ID,
		"status", updated.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromApplication(updated))
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	reviewerID := requestcontext.ReviewerID(ctx)

	appID, err := pathApplicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.Decide(ctx, appID, reviewerID, *req.Approved, req.Note)
	if err != nil {
		h.logger.WarnContext(ctx, "reviewer decision failed",
			"request_id", requestID,
			"application_id", appID,
			"reviewer_id", reviewerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "reviewer decision recorded",
		"request_id", requestID,
		"application_id", app.ID,
		"reviewer_id", reviewerID,
		"approved", *req.Approved,
		"status", app.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

// ownedApplication loads the application from the URL and checks it
// belongs to the authenticated user. Foreign applications read as not
// found so their existence never leaks.
func (h *Handler) ownedApplication(w http.ResponseWriter, r *http.Request) (*application.Application, bool) {
	ctx := r.Context()

	appID, err := pathApplicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}

	app, err := h.service.Get(ctx, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	if app.UserID != requestcontext.UserID(ctx) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "application not found"))
		return nil, false
	}
	return app, true
}

func pathApplicationID(r *http.Request) (id.ApplicationID, error) {
	return id.ParseApplicationID(chi.URLParam(r, "applicationID"))
}
