package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"veris/internal/application/metrics"
	"veris/internal/audit"
	"veris/internal/document"
	"veris/internal/platform/config"
	"veris/internal/risk"
	"veris/internal/verification"
	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/requestcontext"
)

// Named events emitted to the notification dispatcher.
const (
	EventApplicationCreated = "application-created"
	EventDocumentsAccepted  = "documents-accepted"
	EventDocumentsRejected  = "documents-rejected"
	EventFaceVerified       = "face-verification-passed"
	EventSubmitted          = "kyc-submitted"
	EventApproved           = "kyc-approved"
	EventRejected           = "kyc-rejected"
	EventExpired            = "kyc-expired"
	EventCancelled          = "kyc-cancelled"
)

// DocumentSource exposes the document module's view of an application.
type DocumentSource interface {
	Completion(ctx context.Context, appID id.ApplicationID) (complete bool, rejected bool, err error)
	ListByApplication(ctx context.Context, appID id.ApplicationID) ([]*document.Document, error)
}

// ResultSource exposes recorded verification results.
type ResultSource interface {
	ListByApplication(ctx context.Context, appID id.ApplicationID) ([]*verification.Result, error)
}

// ConsentSource reports the consent-exchange outcome for an application.
type ConsentSource interface {
	Status(ctx context.Context, appID id.ApplicationID) (completed bool, fields map[string]string, err error)
}

// Notifier receives named lifecycle events for external delivery.
type Notifier interface {
	Emit(ctx context.Context, event string, appID id.ApplicationID, userID id.UserID)
}

// Service owns application lifecycle orchestration. Every mutation runs
// under the per-application writer lock so progress stays monotonic and
// terminal states stay final.
type Service struct {
	store     Store
	locker    Locker
	documents DocumentSource
	results   ResultSource
	consent   ConsentSource
	engine    *risk.Engine
	notifier  Notifier
	auditor   *audit.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	cfg       config.ApplicationConfig
}

func NewService(
	store Store,
	locker Locker,
	documents DocumentSource,
	results ResultSource,
	consent ConsentSource,
	engine *risk.Engine,
	notifier Notifier,
	auditor *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg config.ApplicationConfig,
) *Service {
	return &Service{
		store:     store,
		locker:    locker,
		documents: documents,
		results:   results,
		consent:   consent,
		engine:    engine,
		notifier:  notifier,
		auditor:   auditor,
		metrics:   m,
		logger:    logger,
		cfg:       cfg,
	}
}

// Create starts a new application for the user. Re-submission after a
// rejection is a brand-new application; prior aggregates are never
// resurrected.
func (s *Service) Create(ctx context.Context, userID id.UserID, method id.VerificationMethod) (*Application, error) {
	if !method.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported verification method")
	}
	now := requestcontext.Now(ctx)
	app := &Application{
		ID:     id.NewApplicationID(),
		UserID: userID,
		Method: method,
		Status: StatusInitiated,
		Progress: Progress{
			CurrentStep: StepPersonalInfo,
		},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.cfg.RetentionWindow),
	}
	if err := s.store.Create(ctx, app); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist application")
	}

	s.metrics.IncrementCreated(string(method))
	s.emitAudit(ctx, app, audit.ActionApplicationCreated, string(method))
	s.notifier.Emit(ctx, EventApplicationCreated, app.ID, app.UserID)
	s.logger.InfoContext(ctx, "application created",
		"request_id", requestcontext.RequestID(ctx),
		"application_id", app.ID.String(),
		"method", string(method),
	)
	return app, nil
}

// CompletePersonalInfo records the personal-info step and opens the
// document stage.
func (s *Service) CompletePersonalInfo(ctx context.Context, appID id.ApplicationID) (*Application, error) {
	return s.mutate(ctx, appID, func(app *Application) error {
		if err := app.CompleteStep(ctx, StepPersonalInfo); err != nil {
			return err
		}
		if app.Status == StatusInitiated {
			return app.Transition(ctx, StatusDocumentsPending, "personal_info_completed", "")
		}
		return nil
	})
}

// RecordDocumentsValidated reacts to the document batch reaching a
// terminal validation status. A rejected batch keeps the application in
// the document stage so the user can re-upload.
func (s *Service) RecordDocumentsValidated(ctx context.Context, appID id.ApplicationID) (*Application, error) {
	complete, rejected, err := s.documents.Completion(ctx, appID)
	if err != nil {
		return nil, err
	}
	if rejected {
		app, err := s.store.Get(ctx, appID)
		if err != nil {
			return nil, err
		}
		s.notifier.Emit(ctx, EventDocumentsRejected, appID, app.UserID)
		return app, nil
	}
	if !complete {
		return nil, dErrors.New(dErrors.CodeInvalidState, "document set is not complete")
	}
	return s.mutate(ctx, appID, func(app *Application) error {
		if err := app.CompleteStep(ctx, StepDocuments); err != nil {
			return err
		}
		if app.Status == StatusDocumentsPending {
			if err := app.Transition(ctx, StatusDocumentsUploaded, "documents_validated", ""); err != nil {
				return err
			}
			if err := app.Transition(ctx, StatusFaceVerificationPending, "awaiting_face_verification", ""); err != nil {
				return err
			}
			s.notifier.Emit(ctx, EventDocumentsAccepted, app.ID, app.UserID)
		}
		return nil
	})
}

// RecordFaceVerified reacts to a passed face-verification result.
func (s *Service) RecordFaceVerified(ctx context.Context, appID id.ApplicationID) (*Application, error) {
	return s.mutate(ctx, appID, func(app *Application) error {
		if err := app.CompleteStep(ctx, StepFaceVerification); err != nil {
			return err
		}
		if app.Status == StatusFaceVerificationPending {
			if err := app.Transition(ctx, StatusInProgress, "face_verification_recorded", ""); err != nil {
				return err
			}
			s.notifier.Emit(ctx, EventFaceVerified, app.ID, app.UserID)
		}
		return nil
	})
}

// RecordConsentCompleted records the consent-exchange outcome with its
// compliance metadata.
func (s *Service) RecordConsentCompleted(ctx context.Context, appID id.ApplicationID) (*Application, error) {
	return s.mutate(ctx, appID, func(app *Application) error {
		if err := app.CompleteStep(ctx, StepConsentExchange); err != nil {
			return err
		}
		app.Consent = ConsentMetadata{
			Given:     true,
			Timestamp: requestcontext.Now(ctx),
			ClientIP:  requestcontext.ClientIP(ctx),
		}
		return nil
	})
}

// Submit is the one-time submission for review. It runs the risk engine
// over the application's full evidence and either auto-approves or
// parks the application for a human reviewer. The engine never rejects.
func (s *Service) Submit(ctx context.Context, appID id.ApplicationID) (*Application, error) {
	start := time.Now()
	return s.mutate(ctx, appID, func(app *Application) error {
		if app.Status != StatusInProgress {
			return dErrors.Newf(dErrors.CodeInvalidState,
				"cannot submit from status %s", app.Status)
		}

		input, err := s.gatherRiskInput(ctx, app)
		if err != nil {
			return err
		}
		assessment := s.engine.Assess(input)
		app.Risk = &assessment

		if err := app.Transition(ctx, StatusUnderReview, "submitted_for_review",
			fmt.Sprintf("risk score %d", assessment.Score)); err != nil {
			return err
		}
		s.emitAudit(ctx, app, audit.ActionRiskAssessed,
			fmt.Sprintf("score %d disposition %s", assessment.Score, assessment.Disposition))

		if assessment.Disposition == risk.DispositionAutoApprove {
			if err := app.Transition(ctx, StatusApproved, "auto_approved", ""); err != nil {
				return err
			}
			if err := app.CompleteStep(ctx, StepDecision); err != nil {
				return err
			}
			s.notifier.Emit(ctx, EventApproved, app.ID, app.UserID)
		} else {
			s.notifier.Emit(ctx, EventSubmitted, app.ID, app.UserID)
		}

		s.metrics.ObserveSubmission(string(assessment.Disposition), assessment.Score, time.Since(start))
		s.logger.InfoContext(ctx, "application submitted",
			"request_id", requestcontext.RequestID(ctx),
			"application_id", app.ID.String(),
			"risk_score", assessment.Score,
			"disposition", string(assessment.Disposition),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	})
}

// Decide records the reviewer's verdict. This is the only path to a
// REJECTED status.
func (s *Service) Decide(ctx context.Context, appID id.ApplicationID, reviewerID id.ReviewerID, approved bool, note string) (*Application, error) {
	return s.mutate(ctx, appID, func(app *Application) error {
		if app.Status != StatusUnderReview {
			return dErrors.Newf(dErrors.CodeInvalidState,
				"cannot decide from status %s", app.Status)
		}
		target := StatusRejected
		event := EventRejected
		if approved {
			target = StatusApproved
			event = EventApproved
		}
		if err := app.Transition(ctx, target, "reviewer_decision", note); err != nil {
			return err
		}
		if err := app.CompleteStep(ctx, StepDecision); err != nil {
			return err
		}
		app.Review = &ReviewDecision{
			ReviewerID: reviewerID,
			Approved:   approved,
			Note:       note,
			DecidedAt:  requestcontext.Now(ctx),
		}
		s.emitAudit(ctx, app, audit.ActionReviewerDecision,
			fmt.Sprintf("approved=%t reviewer=%s", approved, reviewerID.String()))
		s.notifier.Emit(ctx, event, app.ID, app.UserID)
		return nil
	})
}

// Cancel moves a non-terminal application to CANCELLED.
func (s *Service) Cancel(ctx context.Context, appID id.ApplicationID) (*Application, error) {
	return s.mutate(ctx, appID, func(app *Application) error {
		if err := app.Transition(ctx, StatusCancelled, "cancelled_by_user", ""); err != nil {
			return err
		}
		s.emitAudit(ctx, app, audit.ActionApplicationCanceled, "")
		s.notifier.Emit(ctx, EventCancelled, app.ID, app.UserID)
		return nil
	})
}

// ExpireDue expires applications whose retention deadline passed. Called
// by the sweep worker; returns the number expired.
func (s *Service) ExpireDue(ctx context.Context, now time.Time, limit int) (int, error) {
	due, err := s.store.ListExpiring(ctx, now, limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, candidate := range due {
		_, err := s.mutate(ctx, candidate.ID, func(app *Application) error {
			if app.Status.IsTerminal() {
				return nil
			}
			if err := app.Transition(ctx, StatusExpired, "retention_window_elapsed", ""); err != nil {
				return err
			}
			s.emitAudit(ctx, app, audit.ActionApplicationExpired, "")
			s.notifier.Emit(ctx, EventExpired, app.ID, app.UserID)
			s.metrics.IncrementExpired()
			return nil
		})
		if err != nil {
			s.logger.WarnContext(ctx, "expiry sweep failed for application",
				"application_id", candidate.ID.String(), "error", err)
			continue
		}
		expired++
	}
	return expired, nil
}

// Get returns one application.
func (s *Service) Get(ctx context.Context, appID id.ApplicationID) (*Application, error) {
	return s.store.Get(ctx, appID)
}

// ListByUser returns the user's applications, oldest first.
func (s *Service) ListByUser(ctx context.Context, userID id.UserID) ([]*Application, error) {
	return s.store.ListByUser(ctx, userID)
}

// mutate loads the aggregate under the writer lock, applies fn, and
// persists the result with compare-and-swap.
func (s *Service) mutate(ctx context.Context, appID id.ApplicationID, fn func(app *Application) error) (*Application, error) {
	release, err := s.locker.Acquire(ctx, appID)
	if err != nil {
		return nil, err
	}
	defer release()

	app, err := s.store.Get(ctx, appID)
	if err != nil {
		return nil, err
	}
	before := app.Status
	if err := fn(app); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, app); err != nil {
		return nil, err
	}
	if app.Status != before {
		s.metrics.IncrementTransition(string(app.Status))
		s.emitAudit(ctx, app, audit.ActionStateChanged,
			fmt.Sprintf("%s -> %s", before, app.Status))
	}
	return app, nil
}

func (s *Service) gatherRiskInput(ctx context.Context, app *Application) (risk.Input, error) {
	docs, err := s.documents.ListByApplication(ctx, app.ID)
	if err != nil {
		return risk.Input{}, err
	}
	results, err := s.results.ListByApplication(ctx, app.ID)
	if err != nil {
		return risk.Input{}, err
	}
	consentDone, consentFields, err := s.consent.Status(ctx, app.ID)
	if err != nil {
		return risk.Input{}, err
	}
	return risk.Input{
		Documents:                 docs,
		Results:                   results,
		DocumentsSubmitted:        app.Progress.Completed(StepDocuments),
		FaceVerificationCompleted: app.Progress.Completed(StepFaceVerification),
		ConsentCompleted:          consentDone,
		ConsentFields:             consentFields,
	}, nil
}

func (s *Service) emitAudit(ctx context.Context, app *Application, action, detail string) {
	if err := s.auditor.Emit(ctx, audit.Event{
		ApplicationID: app.ID,
		Actor:         app.UserID.String(),
		Action:        action,
		Detail:        detail,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
