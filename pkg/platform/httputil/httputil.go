// Package httputil centralizes JSON encoding and domain-error translation
// for HTTP handlers so every endpoint returns the same envelopes.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "veris/pkg/domain-errors"
)

// statusByCode maps domain error codes to HTTP statuses.
var statusByCode = map[dErrors.Code]int{
	dErrors.CodeInvalidInput:  http.StatusBadRequest,
	dErrors.CodeBadRequest:    http.StatusBadRequest,
	dErrors.CodeUnauthorized:  http.StatusUnauthorized,
	dErrors.CodeNotFound:      http.StatusNotFound,
	dErrors.CodeInvalidState:  http.StatusConflict,
	dErrors.CodeConflict:      http.StatusConflict,
	dErrors.CodeTimeout:       http.StatusGatewayTimeout,
	dErrors.CodeExtraction:    http.StatusBadGateway,
	dErrors.CodeConfiguration: http.StatusInternalServerError,
	dErrors.CodeInternal:      http.StatusInternalServerError,
}

// ToHTTPStatus translates a domain error code into an HTTP status.
func ToHTTPStatus(code dErrors.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError writes a JSON error envelope. Internal errors omit the
// description so infrastructure details never reach the end user.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := ToHTTPStatus(code)

	body := map[string]string{"error": string(code)}
	var coded *dErrors.Error
	if errors.As(err, &coded) && status < http.StatusInternalServerError {
		body["error_description"] = coded.Message
	}
	WriteJSON(w, status, body)
}

// Validatable lets request types validate and parse themselves after
// decoding. DecodeAndPrepare calls it when implemented.
type Validatable interface {
	Validate() error
}

// DecodeAndPrepare decodes a JSON request body into T, runs its Validate
// hook when present, and writes an error envelope on failure. Returns
// ok=false when the handler should stop.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req := new(T)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "request decode failed",
				"request_id", requestID,
				"path", r.URL.Path,
				"error", err,
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return nil, false
	}
	if v, ok := any(req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			if logger != nil {
				logger.WarnContext(ctx, "request validation failed",
					"request_id", requestID,
					"path", r.URL.Path,
					"error", err,
				)
			}
			WriteError(w, err)
			return nil, false
		}
	}
	return req, true
}
