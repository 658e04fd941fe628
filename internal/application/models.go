// Package application owns the verification application aggregate and
// its state machine. All writes to one application are serialized
// through the per-aggregate lock held by the service layer.
package application

import (
	"time"

	"veris/internal/risk"
	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
)

// Status is the application's lifecycle state.
type Status string

const (
	StatusInitiated               Status = "INITIATED"
	StatusDocumentsPending        Status = "DOCUMENTS_PENDING"
	StatusDocumentsUploaded       Status = "DOCUMENTS_UPLOADED"
	StatusFaceVerificationPending Status = "FACE_VERIFICATION_PENDING"
	StatusInProgress              Status = "IN_PROGRESS"
	StatusUnderReview             Status = "UNDER_REVIEW"
	StatusApproved                Status = "APPROVED"
	StatusRejected                Status = "REJECTED"
	StatusExpired                 Status = "EXPIRED"
	StatusCancelled               Status = "CANCELLED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Step names recorded on the progress trail.
const (
	StepPersonalInfo     = "personal_info"
	StepDocuments        = "documents"
	StepFaceVerification = "face_verification"
	StepConsentExchange  = "consent_exchange"
	StepDecision         = "decision"
)

// Progress is the ordered progress record. The percentage is recomputed
// from completed steps, never incremented ad hoc, and never decreases.
type Progress struct {
	Percent        int      `json:"percent"`
	CurrentStep    string   `json:"current_step"`
	CompletedSteps []string `json:"completed_steps"`
}

// Completed reports whether the named step is on the completed list.
func (p Progress) Completed(step string) bool {
	for _, s := range p.CompletedSteps {
		if s == step {
			return true
		}
	}
	return false
}

// ConsentMetadata is compliance metadata recorded at consent time. Used
// only for audit, never for scoring.
type ConsentMetadata struct {
	Given     bool      `json:"given"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	ClientIP  string    `json:"client_ip,omitempty"`
}

// HistoryEntry is one append-only record of a state change.
type HistoryEntry struct {
	At     time.Time `json:"at"`
	From   Status    `json:"from"`
	To     Status    `json:"to"`
	Event  string    `json:"event"`
	Detail string    `json:"detail,omitempty"`
}

// ReviewDecision records the human reviewer's verdict.
type ReviewDecision struct {
	ReviewerID id.ReviewerID `json:"reviewer_id"`
	Approved   bool          `json:"approved"`
	Note       string        `json:"note,omitempty"`
	DecidedAt  time.Time     `json:"decided_at"`
}

// Application is the aggregate root. Child documents and verification
// results are owned by id reference and resolved through their stores,
// never embedded.
type Application struct {
	ID     id.ApplicationID
	UserID id.UserID
	Method id.VerificationMethod
	Status Status

	Progress Progress
	Risk     *risk.Assessment
	Consent  ConsentMetadata
	Review   *ReviewDecision
	History  []HistoryEntry

	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time

	// Version supports compare-and-swap persistence. Incremented on
	// every successful store update.
	Version int
}

// ErrTerminal is returned for any mutation attempt on a finalized
// application.
var ErrTerminal = dErrors.New(dErrors.CodeInvalidState, "application is in a terminal state")
