package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veris/internal/audit"
	"veris/internal/document"
	"veris/internal/platform/config"
	"veris/internal/platform/logger"
	"veris/internal/risk"
	"veris/internal/verification"
	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
)

type stubDocuments struct {
	complete bool
	rejected bool
	docs     []*document.Document
}

func (s *stubDocuments) Completion(context.Context, id.ApplicationID) (bool, bool, error) {
	return s.complete, s.rejected, nil
}

func (s *stubDocuments) ListByApplication(context.Context, id.ApplicationID) ([]*document.Document, error) {
	return s.docs, nil
}

type stubResults struct {
	results []*verification.Result
}

func (s *stubResults) ListByApplication(context.Context, id.ApplicationID) ([]*verification.Result, error) {
	return s.results, nil
}

type stubConsent struct {
	completed bool
	fields    map[string]string
}

func (s *stubConsent) Status(context.Context, id.ApplicationID) (bool, map[string]string, error) {
	return s.completed, s.fields, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Emit(_ context.Context, event string, _ id.ApplicationID, _ id.UserID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type fixture struct {
	svc      *Service
	docs     *stubDocuments
	results  *stubResults
	consent  *stubConsent
	notifier *recordingNotifier
}

func newFixture() *fixture {
	f := &fixture{
		docs: &stubDocuments{
			complete: true,
			docs: []*document.Document{{
				Type: document.TypeNationalIDFront,
				Fields: map[string]document.Field{
					document.FieldFullName:    {Value: "Jordan Blake"},
					document.FieldDateOfBirth: {Value: "1990-04-12"},
				},
			}},
		},
		results: &stubResults{results: []*verification.Result{{
			Type:       verification.TypeFaceMatch,
			Status:     verification.StatusCompleted,
			Passed:     true,
			Confidence: 0.9,
		}}},
		consent:  &stubConsent{completed: true},
		notifier: &recordingNotifier{},
	}
	scoring := config.DefaultScoring()
	f.svc = NewService(
		NewMemoryStore(),
		NewMutexLocker(),
		f.docs,
		f.results,
		f.consent,
		risk.NewEngine(scoring.Risk),
		f.notifier,
		audit.NewPublisher(audit.NewMemoryStore()),
		nil,
		logger.New("error"),
		scoring.Application,
	)
	return f
}

func (f *fixture) advanceToInProgress(t *testing.T, ctx context.Context) *Application {
	t.Helper()
	app, err := f.svc.Create(ctx, id.NewUserID(), id.MethodHybrid)
	require.NoError(t, err)
	_, err = f.svc.CompletePersonalInfo(ctx, app.ID)
	require.NoError(t, err)
	_, err = f.svc.RecordDocumentsValidated(ctx, app.ID)
	require.NoError(t, err)
	app, err = f.svc.RecordFaceVerified(ctx, app.ID)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, app.Status)
	return app
}

func TestCreate_StartsInitiated(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	app, err := f.svc.Create(ctx, id.NewUserID(), id.MethodDocumentUpload)
	require.NoError(t, err)

	assert.Equal(t, StatusInitiated, app.Status)
	assert.Equal(t, 0, app.Progress.Percent)
	assert.Equal(t, StepPersonalInfo, app.Progress.CurrentStep)
	assert.True(t, app.ExpiresAt.After(app.CreatedAt))
	assert.Contains(t, f.notifier.all(), EventApplicationCreated)
}

func TestSubmit_CleanEvidenceAutoApproves(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	app := f.advanceToInProgress(t, ctx)

	app, err := f.svc.Submit(ctx, app.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, app.Status)
	assert.Equal(t, 100, app.Progress.Percent)
	require.NotNil(t, app.Risk)
	assert.Equal(t, risk.DispositionAutoApprove, app.Risk.Disposition)
	assert.Contains(t, f.notifier.all(), EventApproved)
}

func TestSubmit_MissingConsentStillAutoApproves(t *testing.T) {
	f := newFixture()
	f.consent.completed = false
	ctx := context.Background()
	app := f.advanceToInProgress(t, ctx)

	app, err := f.svc.Submit(ctx, app.ID)
	require.NoError(t, err)

	// Consent absence alone scores 15, inside the auto-approve band.
	assert.Equal(t, StatusApproved, app.Status)
	assert.Equal(t, 15, app.Risk.Score)
}

func TestSubmit_RiskyEvidenceParksForReview(t *testing.T) {
	f := newFixture()
	f.consent.completed = false
	f.results.results = nil // no face match recorded
	ctx := context.Background()
	app := f.advanceToInProgress(t, ctx)

	app, err := f.svc.Submit(ctx, app.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusUnderReview, app.Status)
	assert.Equal(t, risk.DispositionManualReview, app.Risk.Disposition)
	assert.Contains(t, f.notifier.all(), EventSubmitted)
	assert.NotContains(t, f.notifier.all(), EventApproved)
}

func TestSubmit_OnlyOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	app := f.advanceToInProgress(t, ctx)

	_, err := f.svc.Submit(ctx, app.ID)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, app.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestDecide_ReviewerRejectionIsFinal(t *testing.T) {
	f := newFixture()
	f.results.results = nil
	ctx := context.Background()
	app := f.advanceToInProgress(t, ctx)

	_, err := f.svc.Submit(ctx, app.ID)
	require.NoError(t, err)

	reviewer := id.NewReviewerID()
	app, err = f.svc.Decide(ctx, app.ID, reviewer, false, "face match missing")
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, app.Status)
	require.NotNil(t, app.Review)
	assert.Equal(t, reviewer, app.Review.ReviewerID)
	assert.False(t, app.Review.Approved)
	assert.Contains(t, f.notifier.all(), EventRejected)

	// No further mutation of any kind.
	_, err = f.svc.CompletePersonalInfo(ctx, app.ID)
	require.ErrorIs(t, err, ErrTerminal)
	_, err = f.svc.Cancel(ctx, app.ID)
	require.ErrorIs(t, err, ErrTerminal)
}

func TestDecide_RequiresUnderReview(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	app := f.advanceToInProgress(t, ctx)

	_, err := f.svc.Decide(ctx, app.ID, id.NewReviewerID(), true, "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestCancel_FromAnyNonTerminalState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	app, err := f.svc.Create(ctx, id.NewUserID(), id.MethodDocumentUpload)
	require.NoError(t, err)

	app, err = f.svc.Cancel(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, app.Status)
}

func TestRecordDocumentsValidated_IncompleteSetIsRejected(t *testing.T) {
	f := newFixture()
	f.docs.complete = false
	ctx := context.Background()

	app, err := f.svc.Create(ctx, id.NewUserID(), id.MethodDocumentUpload)
	require.NoError(t, err)
	_, err = f.svc.CompletePersonalInfo(ctx, app.ID)
	require.NoError(t, err)

	_, err = f.svc.RecordDocumentsValidated(ctx, app.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestRecordDocumentsValidated_RejectedBatchNotifiesWithoutAdvancing(t *testing.T) {
	f := newFixture()
	f.docs.complete = false
	f.docs.rejected = true
	ctx := context.Background()

	app, err := f.svc.Create(ctx, id.NewUserID(), id.MethodDocumentUpload)
	require.NoError(t, err)
	_, err = f.svc.CompletePersonalInfo(ctx, app.ID)
	require.NoError(t, err)

	app, err = f.svc.RecordDocumentsValidated(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDocumentsPending, app.Status)
	assert.Contains(t, f.notifier.all(), EventDocumentsRejected)
}

func TestExpireDue_SweepsOnlyOverdueNonTerminal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.Create(ctx, id.NewUserID(), id.MethodDocumentUpload)
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, id.NewUserID(), id.MethodDocumentUpload)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, second.ID)
	require.NoError(t, err)

	expired, err := f.svc.ExpireDue(ctx, first.ExpiresAt.Add(-time.Minute), sweepBatchSize)
	require.NoError(t, err)
	assert.Equal(t, 0, expired, "nothing is overdue before the deadline")

	expired, err = f.svc.ExpireDue(ctx, first.ExpiresAt.Add(time.Minute), sweepBatchSize)
	require.NoError(t, err)
	assert.Equal(t, 1, expired, "terminal applications are not swept")

	got, err := f.svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)
	got, err = f.svc.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestProgress_NeverDecreasesThroughLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	app, err := f.svc.Create(ctx, id.NewUserID(), id.MethodHybrid)
	require.NoError(t, err)
	last := app.Progress.Percent

	steps := []func() (*Application, error){
		func() (*Application, error) { return f.svc.CompletePersonalInfo(ctx, app.ID) },
		func() (*Application, error) { return f.svc.RecordConsentCompleted(ctx, app.ID) },
		func() (*Application, error) { return f.svc.RecordDocumentsValidated(ctx, app.ID) },
		func() (*Application, error) { return f.svc.RecordFaceVerified(ctx, app.ID) },
		func() (*Application, error) { return f.svc.Submit(ctx, app.ID) },
	}
	for _, step := range steps {
		got, err := step()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Progress.Percent, last)
		last = got.Progress.Percent
	}
	assert.Equal(t, 100, last)
}

func TestConcurrentStepCompletionsStaySerialized(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	app, err := f.svc.Create(ctx, id.NewUserID(), id.MethodDocumentUpload)
	require.NoError(t, err)
	_, err = f.svc.CompletePersonalInfo(ctx, app.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.RecordDocumentsValidated(ctx, app.ID)
		}()
	}
	wg.Wait()

	got, err := f.svc.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFaceVerificationPending, got.Status)
	assert.Equal(t, []string{StepPersonalInfo, StepDocuments}, got.Progress.CompletedSteps)
}
