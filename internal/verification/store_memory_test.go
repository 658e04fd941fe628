package verification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "veris/pkg/domain"
)

func newStoredResult(appID id.ApplicationID, createdAt time.Time) *Result {
	return &Result{
		ID:            id.NewVerificationID(),
		ApplicationID: appID,
		CaptureID:     id.NewCaptureID(),
		Type:          TypeLiveness,
		Status:        StatusCompleted,
		Score:         0.9,
		Passed:        true,
		Confidence:    0.95,
		Checks: []CheckOutcome{
			{Name: "eye_openness", Passed: true, Confidence: 0.8},
		},
		RiskLevel: RiskLow,
		Match:     &MatchDetails{DescriptorSimilarity: 0.9, GeometricSimilarity: 0.7},
		CreatedAt: createdAt,
	}
}

func TestMemoryResultStore_RoundTrip(t *testing.T) {
	store := NewMemoryResultStore()
	result := newStoredResult(id.NewApplicationID(), time.Now())

	require.NoError(t, store.Create(context.Background(), result))

	got, err := store.Get(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, result, got)
}

func TestMemoryResultStore_GetMissing(t *testing.T) {
	store := NewMemoryResultStore()
	_, err := store.Get(context.Background(), id.NewVerificationID())
	assert.ErrorIs(t, err, ErrResultNotFound)
}

func TestMemoryResultStore_ReturnsIsolatedCopies(t *testing.T) {
	store := NewMemoryResultStore()
	result := newStoredResult(id.NewApplicationID(), time.Now())
	require.NoError(t, store.Create(context.Background(), result))

	first, err := store.Get(context.Background(), result.ID)
	require.NoError(t, err)
	first.Checks[0].Passed = false
	first.FailureReasons = append(first.FailureReasons, ReasonEyesClosed)
	first.Match.DescriptorSimilarity = 0

	second, err := store.Get(context.Background(), result.ID)
	require.NoError(t, err)
	assert.True(t, second.Checks[0].Passed)
	assert.Empty(t, second.FailureReasons)
	assert.Equal(t, 0.9, second.Match.DescriptorSimilarity)
}

func TestMemoryResultStore_ListByApplicationOrdersByCreation(t *testing.T) {
	store := NewMemoryResultStore()
	appID := id.NewApplicationID()
	base := time.Now()

	newest := newStoredResult(appID, base.Add(2*time.Minute))
	oldest := newStoredResult(appID, base)
	other := newStoredResult(id.NewApplicationID(), base.Add(time.Minute))
	for _, r := range []*Result{newest, oldest, other} {
		require.NoError(t, store.Create(context.Background(), r))
	}

	listed, err := store.ListByApplication(context.Background(), appID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, oldest.ID, listed[0].ID)
	assert.Equal(t, newest.ID, listed[1].ID)
}

func TestMemoryCaptureStore_RoundTrip(t *testing.T) {
	store := NewMemoryCaptureStore()
	capture := &Capture{
		ID:            id.NewCaptureID(),
		ApplicationID: id.NewApplicationID(),
		Kind:          CaptureLive,
		ObjectKey:     "captures/live.jpg",
		CapturedAt:    time.Now(),
	}

	require.NoError(t, store.Create(context.Background(), capture))

	got, err := store.Get(context.Background(), capture.ID)
	require.NoError(t, err)
	assert.Equal(t, capture, got)

	_, err = store.Get(context.Background(), id.NewCaptureID())
	assert.ErrorIs(t, err, ErrCaptureNotFound)
}
