package verification

import (
	"context"

	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
)

// ErrCaptureNotFound is returned when no capture matches the given ID.
var ErrCaptureNotFound = dErrors.New(dErrors.CodeNotFound, "capture not found")

// ErrResultNotFound is returned when no result matches the given ID.
var ErrResultNotFound = dErrors.New(dErrors.CodeNotFound, "verification result not found")

// CaptureStore persists captures. Captures are immutable once created;
// a retry creates a new capture, never an edit.
type CaptureStore interface {
	Create(ctx context.Context, capture *Capture) error
	Get(ctx context.Context, captureID id.CaptureID) (*Capture, error)
	ListByApplication(ctx context.Context, appID id.ApplicationID) ([]*Capture, error)
}

// ResultStore persists verification results. Results are append-only;
// retried verifications produce new records, preserving history.
type ResultStore interface {
	Create(ctx context.Context, result *Result) error
	Get(ctx context.Context, resultID id.VerificationID) (*Result, error)
	ListByApplication(ctx context.Context, appID id.ApplicationID) ([]*Result, error)
}
