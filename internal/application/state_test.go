package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
)

func mustMethod(t *testing.T, s string) id.VerificationMethod {
	t.Helper()
	m, err := id.ParseVerificationMethod(s)
	require.NoError(t, err)
	return m
}

func TestCanTransition_HappyPath(t *testing.T) {
	path := []Status{
		StatusInitiated,
		StatusDocumentsPending,
		StatusDocumentsUploaded,
		StatusFaceVerificationPending,
		StatusInProgress,
		StatusUnderReview,
		StatusApproved,
	}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, CanTransition(path[i], path[i+1]),
			"%s -> %s should be legal", path[i], path[i+1])
	}
}

func TestCanTransition_NoSkippingSteps(t *testing.T) {
	assert.False(t, CanTransition(StatusInitiated, StatusUnderReview))
	assert.False(t, CanTransition(StatusDocumentsPending, StatusInProgress))
	assert.False(t, CanTransition(StatusInitiated, StatusApproved))
}

func TestCanTransition_TerminalStatesAreAbsorbing(t *testing.T) {
	for _, terminal := range []Status{StatusApproved, StatusRejected, StatusExpired, StatusCancelled} {
		for _, to := range []Status{StatusInitiated, StatusUnderReview, StatusCancelled, StatusExpired} {
			assert.False(t, CanTransition(terminal, to), "%s -> %s must be illegal", terminal, to)
		}
	}
}

func TestCanTransition_CancelAndExpireFromAnyNonTerminal(t *testing.T) {
	for _, from := range []Status{
		StatusInitiated, StatusDocumentsPending, StatusDocumentsUploaded,
		StatusFaceVerificationPending, StatusInProgress, StatusUnderReview,
	} {
		assert.True(t, CanTransition(from, StatusCancelled))
		assert.True(t, CanTransition(from, StatusExpired))
	}
}

func TestTransition_AppendsHistory(t *testing.T) {
	app := &Application{Status: StatusInitiated}
	ctx := context.Background()

	require.NoError(t, app.Transition(ctx, StatusDocumentsPending, "personal_info_completed", ""))
	require.NoError(t, app.Transition(ctx, StatusDocumentsUploaded, "documents_validated", "2 documents"))

	assert.Equal(t, StatusDocumentsUploaded, app.Status)
	require.Len(t, app.History, 2)
	assert.Equal(t, StatusInitiated, app.History[0].From)
	assert.Equal(t, StatusDocumentsPending, app.History[0].To)
	assert.Equal(t, "documents_validated", app.History[1].Event)
}

func TestTransition_IllegalMoveLeavesAggregateUntouched(t *testing.T) {
	app := &Application{Status: StatusInitiated}

	err := app.Transition(context.Background(), StatusApproved, "decision", "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	assert.Equal(t, StatusInitiated, app.Status)
	assert.Empty(t, app.History)
}

func TestTransition_TerminalRejectsMutation(t *testing.T) {
	app := &Application{Status: StatusApproved}

	err := app.Transition(context.Background(), StatusCancelled, "cancel", "")
	require.ErrorIs(t, err, ErrTerminal)
}

func TestCompleteStep_ProgressFloors(t *testing.T) {
	app := &Application{Status: StatusInitiated}
	ctx := context.Background()

	require.NoError(t, app.CompleteStep(ctx, StepPersonalInfo))
	assert.Equal(t, 25, app.Progress.Percent)

	require.NoError(t, app.CompleteStep(ctx, StepDocuments))
	assert.Equal(t, 50, app.Progress.Percent)

	require.NoError(t, app.CompleteStep(ctx, StepFaceVerification))
	assert.Equal(t, 75, app.Progress.Percent)

	require.NoError(t, app.CompleteStep(ctx, StepDecision))
	assert.Equal(t, 100, app.Progress.Percent)
}

func TestCompleteStep_ProgressNeverDecreases(t *testing.T) {
	app := &Application{Status: StatusInProgress}
	ctx := context.Background()

	require.NoError(t, app.CompleteStep(ctx, StepFaceVerification))
	assert.Equal(t, 75, app.Progress.Percent)

	// A lower-floor step completing later must not pull progress back.
	require.NoError(t, app.CompleteStep(ctx, StepPersonalInfo))
	assert.Equal(t, 75, app.Progress.Percent)
}

func TestCompleteStep_IsIdempotent(t *testing.T) {
	app := &Application{Status: StatusInitiated}
	ctx := context.Background()

	require.NoError(t, app.CompleteStep(ctx, StepDocuments))
	require.NoError(t, app.CompleteStep(ctx, StepDocuments))

	assert.Equal(t, []string{StepDocuments}, app.Progress.CompletedSteps)
}

func TestCompleteStep_RejectsUnknownStep(t *testing.T) {
	app := &Application{Status: StatusInitiated}

	err := app.CompleteStep(context.Background(), "biometric_enrol")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestCompleteStep_TerminalRejectsMutation(t *testing.T) {
	for _, terminal := range []Status{StatusApproved, StatusRejected, StatusExpired, StatusCancelled} {
		app := &Application{Status: terminal}
		err := app.CompleteStep(context.Background(), StepDocuments)
		require.ErrorIs(t, err, ErrTerminal, "status %s", terminal)
	}
}

func TestNextStep_SkipsConsentForDocumentOnlyMethod(t *testing.T) {
	app := &Application{Status: StatusInitiated, Method: mustMethod(t, "document_upload")}
	ctx := context.Background()

	require.NoError(t, app.CompleteStep(ctx, StepPersonalInfo))
	require.NoError(t, app.CompleteStep(ctx, StepDocuments))
	require.NoError(t, app.CompleteStep(ctx, StepFaceVerification))

	assert.Equal(t, StepDecision, app.Progress.CurrentStep)
}
