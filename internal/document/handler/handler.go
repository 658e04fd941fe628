// Package handler exposes document upload and processing over HTTP.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veris/internal/application"
	"veris/internal/document"
	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/platform/httputil"
	"veris/pkg/platform/middleware/auth"
	"veris/pkg/platform/token"
	"veris/pkg/requestcontext"
)

// Upload limits. Phone camera JPEGs sit well under this.
const (
	maxUploadBytes = 15 << 20
	imageURLExpiry = 15 * time.Minute
)

// Service defines the document operations the handler needs.
type Service interface {
	Upload(ctx context.Context, appID id.ApplicationID, docType document.Type, body io.Reader, contentType string, size int64) (*document.Document, error)
	Process(ctx context.Context, docID id.DocumentID) (*document.Document, error)
	Get(ctx context.Context, docID id.DocumentID) (*document.Document, error)
	ListByApplication(ctx context.Context, appID id.ApplicationID) ([]*document.Document, error)
	ImageURL(ctx context.Context, docID id.DocumentID, expiry time.Duration) (string, error)
}

// Applications resolves application ownership for authorization.
type Applications interface {
	Get(ctx context.Context, appID id.ApplicationID) (*application.Application, error)
}

// Handler wires document endpoints to the document service.
type Handler struct {
	service      Service
	applications Applications
	verifier     *token.Verifier
	logger       *slog.Logger
}

// New constructs a document handler.
func New(service Service, applications Applications, verifier *token.Verifier, logger *slog.Logger) *Handler {
	return &Handler{
		service:      service,
		applications: applications,
		verifier:     verifier,
		logger:       logger,
	}
}

// Register mounts document endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(h.verifier))
		r.Post("/applications/{applicationID}/documents", h.handleUpload)
		r.Get("/applications/{applicationID}/documents", h.handleList)
		r.Post("/documents/{documentID}/process", h.handleProcess)
		r.Get("/documents/{documentID}", h.handleGet)
		r.Get("/documents/{documentID}/image", h.handleImageURL)
	})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	appID, ok := h.ownedApplicationID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "multipart form required, max 15MiB"))
		return
	}

	docType, err := document.ParseType(r.FormValue("type"))
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

	doc, err := h.service.Upload(ctx, appID, docType, file, header.Header.Get("Content-Type"), header.Size)
	if err != nil {
		h.logger.ErrorContext(ctx, "document upload failed",
			"request_id", requestID,
			"application_id", appID,
			"document_type", docType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document uploaded",
		"request_id", requestID,
		"application_id", appID,
		"document_id", doc.ID,
		"document_type", docType,
		"size_bytes", header.Size,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromDocument(doc))
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}

	processed, err := h.service.Process(ctx, doc.ID)
	if err != nil {
		h.logger.WarnContext(ctx, "document processing failed",
			"request_id", requestID,
			"document_id", doc.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document processed",
		"request_id", requestID,
		"document_id", processed.ID,
		"status", processed.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromDocument(processed))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDocument(doc))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appID, ok := h.ownedApplicationID(w, r)
	if !ok {
		return
	}

	docs, err := h.service.ListByApplication(ctx, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := ListResponse{Documents: make([]*DocumentResponse, 0, len(docs))}
	for _, doc := range docs {
		out.Documents = append(out.Documents, FromDocument(doc))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleImageURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}

	url, err := h.service.ImageURL(ctx, doc.ID, imageURLExpiry)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ImageURLResponse{
		URL:       url,
		ExpiresAt: requestcontext.Now(ctx).Add(imageURLExpiry),
	})
}

// ownedApplicationID parses the application from the URL and verifies it
// belongs to the authenticated user.
func (h *Handler) ownedApplicationID(w http.ResponseWriter, r *http.Request) (id.ApplicationID, bool) {
	ctx := r.Context()

	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ApplicationID{}, false
	}
	if !h.ownsApplication(ctx, appID) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "application not found"))
		return id.ApplicationID{}, false
	}
	return appID, true
}

// ownedDocument loads the document from the URL and verifies its parent
// application belongs to the authenticated user.
func (h *Handler) ownedDocument(w http.ResponseWriter, r *http.Request) (*document.Document, bool) {
	ctx := r.Context()

	docID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}

	doc, err := h.service.Get(ctx, docID)
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	if !h.ownsApplication(ctx, doc.ApplicationID) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "document not found"))
		return nil, false
	}
	return doc, true
}

func (h *Handler) ownsApplication(ctx context.Context, appID id.ApplicationID) bool {
	app, err := h.applications.Get(ctx, appID)
	if err != nil {
		return false
	}
	return app.UserID == requestcontext.UserID(ctx)
}
