// Package handler exposes face capture and verification over HTTP. A
// passed face match advances the parent application's state; the
// verification core itself never touches the application aggregate.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veris/internal/application"
	"veris/internal/verification"
	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/platform/httputil"
	"veris/pkg/platform/middleware/auth"
	"veris/pkg/platform/token"
	"veris/pkg/requestcontext"
)

const maxCaptureBytes = 15 << 20

// Service defines the verification operations the handler needs.
type Service interface {
	SubmitCapture(ctx context.Context, appID id.ApplicationID, kind verification.CaptureKind, image io.Reader, contentType string, size int64) (*verification.Capture, error)
	RunLiveness(ctx context.Context, appID id.ApplicationID, captureID id.CaptureID) (*verification.Result, error)
	RunFaceMatch(ctx context.Context, appID id.ApplicationID, liveID, referenceID id.CaptureID) (*verification.Result, error)
	ListResults(ctx context.Context, appID id.ApplicationID) ([]*verification.Result, error)
	RecordExtractionError(ctx context.Context, appID id.ApplicationID, captureID id.CaptureID, resultType verification.ResultType) (*verification.Result, error)
}

// Applications resolves ownership and records the face verification
// step once both checks pass.
type Applications interface {
	Get(ctx context.Context, appID id.ApplicationID) (*application.Application, error)
	RecordFaceVerified(ctx context.Context, appID id.ApplicationID) (*application.Application, error)
}

// Handler wires verification endpoints to the verification service.
type Handler struct {
	service      Service
	applications Applications
	verifier     *token.Verifier
	logger       *slog.Logger
}

// New constructs a verification handler.
func New(service Service, applications Applications, verifier *token.Verifier, logger *slog.Logger) *Handler {
	return &Handler{
		service:      service,
		applications: applications,
		verifier:     verifier,
		logger:       logger,
	}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(h.verifier))
		r.Post("/applications/{applicationID}/captures", h.handleSubmitCapture)
		r.Post("/applications/{applicationID}/liveness", h.handleLiveness)
		r.Post("/applications/{applicationID}/face-match", h.handleFaceMatch)
		r.Get("/applications/{applicationID}/results", h.handleListResults)
	})
}

func (h *Handler) handleSubmitCapture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	appID, ok := h.ownedApplicationID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCaptureBytes)
	if err := r.ParseMultipartForm(maxCaptureBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "multipart form required, max 15MiB"))
		return
	}

	kind, err := parseCaptureKind(r.FormValue("kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "image file is required"))
		return
	}
	defer file.Close()

	capture, err := h.service.SubmitCapture(ctx, appID, kind, file, header.Header.Get("Content-Type"), header.Size)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeExtraction) {
			// Keep the failure visible in the verification history even
			// though no capture record exists.
			resultType := verification.TypeLiveness
			if kind == verification.CaptureReference {
				resultType = verification.TypeFaceMatch
			}
			if _, recErr := h.service.RecordExtractionError(ctx, appID, id.CaptureID{}, resultType); recErr != nil {
				h.logger.WarnContext(ctx, "recording extraction error failed",
					"request_id", requestID,
					"application_id", appID,
					"error", recErr,
				)
			}
		}
		h.logger.WarnContext(ctx, "capture submission failed",
			"request_id", requestID,
			"application_id", appID,
			"kind", kind,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "capture submitted",
		"request_id", requestID,
		"application_id", appID,
		"capture_id", capture.ID,
		"kind", kind,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromCapture(capture))
}

func (h *Handler) handleLiveness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	appID, ok := h.ownedApplicationID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[LivenessRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.RunLiveness(ctx, appID, req.ParsedCaptureID())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "liveness scored",
		"request_id", requestID,
		"application_id", appID,
		"capture_id", req.ParsedCaptureID(),
		"passed", result.Passed,
		"score", result.ScorePercent(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

func (h *Handler) handleFaceMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	appID, ok := h.ownedApplicationID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[FaceMatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.RunFaceMatch(ctx, appID, req.ParsedLiveID(), req.ParsedReferenceID())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if result.Passed && h.livenessPassed(ctx, appID) {
		if _, err := h.applications.RecordFaceVerified(ctx, appID); err != nil {
			// Reruns against an already advanced application are not an
			// error from the caller's point of view.
			h.logger.WarnContext(ctx, "face verification step not recorded",
				"request_id", requestID,
				"application_id", appID,
				"error", err,
			)
		}
	}

	h.logger.InfoContext(ctx, "face match scored",
		"request_id", requestID,
		"application_id", appID,
		"passed", result.Passed,
		"score", result.ScorePercent(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appID, ok := h.ownedApplicationID(w, r)
	if !ok {
		return
	}

	results, err := h.service.ListResults(ctx, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := ResultsResponse{Results: make([]*ResultResponse, 0, len(results))}
	for _, result := range results {
		out.Results = append(out.Results, FromResult(result))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// livenessPassed reports whether the application has at least one
// completed, passed liveness result.
func (h *Handler) livenessPassed(ctx context.Context, appID id.ApplicationID) bool {
	results, err := h.service.ListResults(ctx, appID)
	if err != nil {
		return false
	}
	for _, result := range results {
		if result.Type == verification.TypeLiveness &&
			result.Status == verification.StatusCompleted &&
			result.Passed {
			return true
		}
	}
	return false
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

func parseCaptureKind(s string) (verification.CaptureKind, error) {
	switch verification.CaptureKind(s) {
	case verification.CaptureLive:
		return verification.CaptureLive, nil
	case verification.CaptureReference:
		return verification.CaptureReference, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "kind must be live or reference")
	}
}
