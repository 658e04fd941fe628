//go:build integration

package verification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veris/internal/extraction"
	id "veris/pkg/domain"
	"veris/pkg/testutil/containers"
)

func seedApplication(t *testing.T, pg *containers.PostgresContainer) id.ApplicationID {
	t.Helper()
	appID := id.NewApplicationID()
	now := time.Now().UTC()
	_, err := pg.DB.ExecContext(context.Background(), `
		INSERT INTO applications (id, user_id, method, status, payload, version, created_at, updated_at, expires_at)
		VALUES ($1, $2, 'hybrid', 'IN_PROGRESS', '{}', 1, $3, $3, $4)`,
		appID.String(), uuid.NewString(), now, now.Add(720*time.Hour))
	require.NoError(t, err)
	return appID
}

func TestPostgresCaptureStore_RoundTrip(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	store := NewPostgresCaptureStore(pg.DB)
	ctx := context.Background()
	appID := seedApplication(t, pg)

	capture := &Capture{
		ID:            id.NewCaptureID(),
		ApplicationID: appID,
		Kind:          CaptureLive,
		ObjectKey:     "captures/live.jpg",
		Measurements: extraction.FaceMeasurements{
			FaceCount:  1,
			Confidence: 0.93,
			Descriptor: []float64{0.1, 0.2},
			Quality:    extraction.ImageQuality{Brightness: 0.8, Resolution: extraction.ResolutionHigh},
		},
		CapturedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, store.Create(ctx, capture))

	got, err := store.Get(ctx, capture.ID)
	require.NoError(t, err)
	assert.Equal(t, capture.ID, got.ID)
	assert.Equal(t, CaptureLive, got.Kind)
	assert.Equal(t, "captures/live.jpg", got.ObjectKey)
	assert.Equal(t, 1, got.Measurements.FaceCount)
	assert.Equal(t, []float64{0.1, 0.2}, got.Measurements.Descriptor)
	assert.Equal(t, extraction.ResolutionHigh, got.Measurements.Quality.Resolution)

	_, err = store.Get(ctx, id.NewCaptureID())
	require.ErrorIs(t, err, ErrCaptureNotFound)
}

func TestPostgresResultStore_RoundTrip(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	captures := NewPostgresCaptureStore(pg.DB)
	store := NewPostgresResultStore(pg.DB)
	ctx := context.Background()
	appID := seedApplication(t, pg)

	capture := &Capture{
		ID:            id.NewCaptureID(),
		ApplicationID: appID,
		Kind:          CaptureLive,
		CapturedAt:    time.Now().UTC(),
	}
	require.NoError(t, captures.Create(ctx, capture))

	result := &Result{
		ID:            id.NewVerificationID(),
		ApplicationID: appID,
		CaptureID:     capture.ID,
		Type:          TypeLiveness,
		Status:        StatusCompleted,
		Score:         0.92,
		Passed:        true,
		Confidence:    0.95,
		RiskLevel:     RiskLow,
		Checks: []CheckOutcome{
			{Name: "eye_openness", Passed: true, Confidence: 0.9},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, store.Create(ctx, result))

	got, err := store.Get(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.CaptureID, got.CaptureID)
	assert.Equal(t, TypeLiveness, got.Type)
	assert.InDelta(t, 0.92, got.Score, 0.0001)
	assert.True(t, got.Passed)
	assert.Equal(t, RiskLow, got.RiskLevel)
	require.Len(t, got.Checks, 1)
	assert.Equal(t, "eye_openness", got.Checks[0].Name)
}

func TestPostgresResultStore_ErrorResultWithoutCapture(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	store := NewPostgresResultStore(pg.DB)
	ctx := context.Background()
	appID := seedApplication(t, pg)

	// Extraction failures are recorded before any capture exists; the
	// capture id stays nil and must survive the round trip.
	result := &Result{
		ID:             id.NewVerificationID(),
		ApplicationID:  appID,
		Type:           TypeLiveness,
		Status:         StatusError,
		FailureReasons: []Reason{ReasonExtractionFailed},
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, store.Create(ctx, result))

	results, err := store.ListByApplication(ctx, appID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].CaptureID == id.CaptureID{})
	assert.Equal(t, StatusError, results[0].Status)
	assert.Equal(t, []Reason{ReasonExtractionFailed}, results[0].FailureReasons)
}
