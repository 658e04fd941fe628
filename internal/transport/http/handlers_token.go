package httptransport

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"veris/internal/platform/secrets"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/platform/httputil"
	"veris/pkg/platform/token"
	"veris/pkg/requestcontext"
)

const devTokenTTL = time.Hour

// TokenHandler mints bearer tokens for local development. Mounted only
// when the dev-tokens flag is set. When a secret hash is configured,
// callers must present the matching plaintext in X-Dev-Secret.
type TokenHandler struct {
	issuer     *token.Issuer
	secretHash string
	logger     *slog.Logger
}

// NewTokenHandler constructs the dev token handler. An empty secretHash
// leaves the endpoint open.
func NewTokenHandler(issuer *token.Issuer, secretHash string, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{issuer: issuer, secretHash: secretHash, logger: logger}
}

// Register mounts the dev token endpoint on the router.
func (h *TokenHandler) Register(r chi.Router) {
	r.Post("/dev/tokens", h.handleIssue)
}

// TokenRequest is the HTTP request body for POST /dev/tokens. An empty
// subject mints a token for a fresh random identity.
type TokenRequest struct {
	Subject string `json:"subject"`
	Role    string `json:"role"`

	parsedRole token.Role
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *TokenRequest) Validate() error {
	switch token.Role(strings.TrimSpace(r.Role)) {
	case token.RoleApplicant, "":
		r.parsedRole = token.RoleApplicant
	case token.RoleReviewer:
		r.parsedRole = token.RoleReviewer
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "role must be applicant or reviewer")
	}
	if r.Subject == "" {
		r.Subject = uuid.NewString()
		return nil
	}
	if _, err := uuid.Parse(r.Subject); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "subject must be a UUID")
	}
	return nil
}

// TokenResponse carries a freshly minted token.
type TokenResponse struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *TokenHandler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if h.secretHash != "" {
		if err := secrets.Verify(r.Header.Get("X-Dev-Secret"), h.secretHash); err != nil {
			h.logger.WarnContext(ctx, "dev token request rejected",
				"request_id", requestID,
				"error", err,
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid dev secret"))
			return
		}
	}

	req, ok := httputil.DecodeAndPrepare[TokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	signed, err := h.issuer.Issue(req.Subject, req.parsedRole, devTokenTTL)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "token signing failed"))
		return
	}

	h.logger.InfoContext(ctx, "dev token issued",
		"request_id", requestID,
		"subject", req.Subject,
		"role", req.parsedRole,
	)
	httputil.WriteJSON(w, http.StatusCreated, TokenResponse{
		Token:     signed,
		Subject:   req.Subject,
		Role:      string(req.parsedRole),
		ExpiresAt: time.Now().Add(devTokenTTL),
	})
}
