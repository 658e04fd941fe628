// Package audit records an append-only trail of actions taken on
// verification applications.
package audit

import (
	"context"
	"time"

	id "veris/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp     time.Time
	ApplicationID id.ApplicationID
	Actor         string
	Action        string
	Detail        string
	ClientIP      string
	UserAgent     string
}

// Actions recorded on the trail.
const (
	ActionApplicationCreated  = "application.created"
	ActionStateChanged        = "application.state_changed"
	ActionDocumentUploaded    = "document.uploaded"
	ActionDocumentValidated   = "document.validated"
	ActionCaptureSubmitted    = "capture.submitted"
	ActionVerificationScored  = "verification.scored"
	ActionRiskAssessed        = "risk.assessed"
	ActionReviewerDecision    = "review.decision"
	ActionApplicationExpired  = "application.expired"
	ActionApplicationCanceled = "application.cancelled"
)

// Store is the append-only persistence surface for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByApplication(ctx context.Context, appID id.ApplicationID) ([]Event, error)
}
