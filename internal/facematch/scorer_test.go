package facematch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veris/internal/extraction"
	"veris/internal/platform/config"
	"veris/internal/verification"
	id "veris/pkg/domain"
)

func newTestScorer() *Scorer {
	return NewScorer(config.DefaultScoring().FaceMatch)
}

func matchCapture(kind verification.CaptureKind, m extraction.FaceMeasurements) *verification.Capture {
	return &verification.Capture{
		ID:            id.NewCaptureID(),
		ApplicationID: id.NewApplicationID(),
		Kind:          kind,
		Measurements:  m,
		CapturedAt:    time.Now(),
	}
}

// faceAt builds measurements with eye centroids at (0,0) and (10,0) and
// the nose/chin placed by the given inter-eye-normalized ratios.
func faceAt(descriptor []float64, noseRatio, chinRatio float64) extraction.FaceMeasurements {
	return extraction.FaceMeasurements{
		FaceCount:  1,
		Confidence: 0.9,
		Descriptor: descriptor,
		Landmarks: extraction.Landmarks{
			LeftEye:  []extraction.Point{{X: 0, Y: 0}},
			RightEye: []extraction.Point{{X: 10, Y: 0}},
			NoseTip:  extraction.Point{X: 5, Y: 10 * noseRatio},
			Chin:     extraction.Point{X: 5, Y: 10 * chinRatio},
		},
	}
}

func TestScore_IdenticalMeasurementsMatchPerfectly(t *testing.T) {
	scorer := newTestScorer()
	m := faceAt([]float64{0.5, 0.5, 0.5}, 1.0, 2.0)
	live := matchCapture(verification.CaptureLive, m)
	reference := matchCapture(verification.CaptureReference, m)

	result := scorer.Score(live, reference, time.Now())

	assert.True(t, result.Passed)
	assert.InDelta(t, 1.0, result.Score, 0.001)
	assert.Equal(t, verification.RiskLow, result.RiskLevel)
	require.NotNil(t, result.Match)
	assert.InDelta(t, 1.0, result.Match.DescriptorSimilarity, 0.001)
	assert.InDelta(t, 1.0, result.Match.GeometricSimilarity, 0.001)
	assert.Equal(t, verification.TypeFaceMatch, result.Type)
	assert.Equal(t, live.ApplicationID, result.ApplicationID)
	assert.Equal(t, live.ID, result.CaptureID)
}

func TestScore_CombinedScoreWeightsDescriptorOverGeometry(t *testing.T) {
	scorer := newTestScorer()
	// Descriptor distance 0.3 gives similarity 0.7; the reference's nose
	// and chin ratios are 90% of the live ones, so geometry lands at 0.9.
	live := matchCapture(verification.CaptureLive, faceAt([]float64{0.5, 0.5}, 1.0, 2.0))
	reference := matchCapture(verification.CaptureReference, faceAt([]float64{0.8, 0.5}, 0.9, 1.8))

	result := scorer.Score(live, reference, time.Now())

	require.NotNil(t, result.Match)
	assert.InDelta(t, 0.7, result.Match.DescriptorSimilarity, 0.001)
	assert.InDelta(t, 0.9, result.Match.GeometricSimilarity, 0.001)
	// 0.7 * 0.7 + 0.3 * 0.9.
	assert.InDelta(t, 0.76, result.Score, 0.001)
	assert.True(t, result.Passed)
	assert.Equal(t, verification.RiskMedium, result.RiskLevel)
}

func TestScore_MissingSourceFaceShortCircuits(t *testing.T) {
	scorer := newTestScorer()
	m := faceAt([]float64{0.5}, 1.0, 2.0)
	noFace := m
	noFace.FaceCount = 0
	live := matchCapture(verification.CaptureLive, noFace)
	reference := matchCapture(verification.CaptureReference, m)

	result := scorer.Score(live, reference, time.Now())

	assert.False(t, result.Passed)
	assert.Zero(t, result.Score)
	assert.Equal(t, []verification.Reason{verification.ReasonSourceFaceMissing}, result.FailureReasons)
	assert.Equal(t, verification.RiskHigh, result.RiskLevel)
	require.Len(t, result.Checks, 1)
	assert.Equal(t, CheckFacePresence, result.Checks[0].Name)
	assert.False(t, result.Checks[0].Passed)
	require.Len(t, result.Recommendations, 1)
	assert.Contains(t, result.Recommendations[0], "selfie")
}

func TestScore_MissingReferenceFaceShortCircuits(t *testing.T) {
	scorer := newTestScorer()
	m := faceAt([]float64{0.5}, 1.0, 2.0)
	noFace := m
	noFace.FaceCount = 0
	live := matchCapture(verification.CaptureLive, m)
	reference := matchCapture(verification.CaptureReference, noFace)

	result := scorer.Score(live, reference, time.Now())

	assert.False(t, result.Passed)
	assert.Equal(t, []verification.Reason{verification.ReasonReferenceFaceMissing}, result.FailureReasons)
	require.Len(t, result.Recommendations, 1)
	assert.Contains(t, result.Recommendations[0], "document")
}

func TestScore_DifferentFacesFailWithCriticalRisk(t *testing.T) {
	scorer := newTestScorer()
	live := matchCapture(verification.CaptureLive, faceAt([]float64{0, 0}, 1.0, 2.0))
	// Distance 1.5 floors the descriptor similarity at zero.
	reference := matchCapture(verification.CaptureReference, faceAt([]float64{1.5, 0}, 0.1, 0.2))

	result := scorer.Score(live, reference, time.Now())

	assert.False(t, result.Passed)
	assert.Equal(t, []verification.Reason{verification.ReasonLowSimilarity}, result.FailureReasons)
	assert.Equal(t, verification.RiskCritical, result.RiskLevel)
	require.Len(t, result.Recommendations, 1)
	assert.Contains(t, result.Recommendations[0], "Retake your selfie")
}

func TestScore_GeometryDraggingScoreDownKeysPoseAdvice(t *testing.T) {
	scorer := newTestScorer()
	// Descriptor similarity 0.8, geometry 0.1: combined 0.59, a narrow
	// miss attributed to landmark geometry, not the descriptor.
	live := matchCapture(verification.CaptureLive, faceAt([]float64{0.5, 0.5}, 1.0, 2.0))
	reference := matchCapture(verification.CaptureReference, faceAt([]float64{0.7, 0.5}, 0.1, 0.2))

	result := scorer.Score(live, reference, time.Now())

	assert.False(t, result.Passed)
	assert.InDelta(t, 0.59, result.Score, 0.001)
	assert.Equal(t, verification.RiskHigh, result.RiskLevel)
	require.Len(t, result.Recommendations, 1)
	assert.Contains(t, result.Recommendations[0], "eye level")
}

func TestScore_MissingLandmarksFallBackToNeutralGeometry(t *testing.T) {
	scorer := newTestScorer()
	m := faceAt([]float64{0.5, 0.5}, 1.0, 2.0)
	bare := m
	bare.Landmarks = extraction.Landmarks{}
	live := matchCapture(verification.CaptureLive, m)
	reference := matchCapture(verification.CaptureReference, bare)

	result := scorer.Score(live, reference, time.Now())

	require.NotNil(t, result.Match)
	assert.InDelta(t, 0.5, result.Match.GeometricSimilarity, 0.001)
	// Identical descriptors carry the match: 0.7 + 0.3 * 0.5.
	assert.InDelta(t, 0.85, result.Score, 0.001)
	assert.True(t, result.Passed)
}

func TestScore_ChecksCarryPerFactorBreakdown(t *testing.T) {
	scorer := newTestScorer()
	m := faceAt([]float64{0.5, 0.5, 0.5}, 1.0, 2.0)
	live := matchCapture(verification.CaptureLive, m)
	reference := matchCapture(verification.CaptureReference, m)

	result := scorer.Score(live, reference, time.Now())

	require.Len(t, result.Checks, 3)
	names := []string{result.Checks[0].Name, result.Checks[1].Name, result.Checks[2].Name}
	assert.Equal(t, []string{CheckFacePresence, CheckDescriptorSimilarity, CheckGeometricSimilarity}, names)
	for _, check := range result.Checks {
		assert.True(t, check.Passed, check.Name)
	}
}
