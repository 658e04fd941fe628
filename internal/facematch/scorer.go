// Package facematch scores the similarity between a live capture and a
// document reference capture. Pure function over immutable measurements;
// a low similarity is a scored outcome, never an error.
package facematch

import (
	"math"
	"time"

	"veris/internal/extraction"
	"veris/internal/platform/config"
	"veris/internal/verification"
	id "veris/pkg/domain"
)

// Combined-score weights: descriptor distance dominates, landmark
// geometry corrects for descriptor noise on low-quality references.
const (
	weightDescriptor = 0.7
	weightGeometric  = 0.3
)

// Check names surfaced in the per-check breakdown.
const (
	CheckFacePresence         = "face_presence"
	CheckDescriptorSimilarity = "descriptor_similarity"
	CheckGeometricSimilarity  = "geometric_similarity"
)

// Scorer computes face-match scores between capture pairs.
type Scorer struct {
	cfg config.FaceMatchConfig
}

// NewScorer constructs a face match scorer with the given threshold.
func NewScorer(cfg config.FaceMatchConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score compares the live capture against the reference capture.
func (s *Scorer) Score(live, reference *verification.Capture, now time.Time) *verification.Result {
	result := &verification.Result{
		ID:            id.NewVerificationID(),
		ApplicationID: live.ApplicationID,
		CaptureID:     live.ID,
		Type:          verification.TypeFaceMatch,
		Status:        verification.StatusCompleted,
		CreatedAt:     now,
	}

	// Missing faces short-circuit: never compute distances over absent
	// descriptors, and tag which side was missing.
	if live.Measurements.FaceCount == 0 {
		return missingFace(result, verification.ReasonSourceFaceMissing)
	}
	if reference.Measurements.FaceCount == 0 {
		return missingFace(result, verification.ReasonReferenceFaceMissing)
	}

	descriptor := descriptorSimilarity(live.Measurements.Descriptor, reference.Measurements.Descriptor)
	geometric := geometricSimilarity(live.Measurements.Landmarks, reference.Measurements.Landmarks)

	combined := weightDescriptor*descriptor + weightGeometric*geometric
	result.Score = clamp01(combined)
	result.Passed = result.Score >= s.cfg.Threshold
	result.Confidence = (live.Measurements.Confidence + reference.Measurements.Confidence) / 2
	result.Match = &verification.MatchDetails{
		DescriptorSimilarity: descriptor,
		GeometricSimilarity:  geometric,
	}
	result.Checks = []verification.CheckOutcome{
		{Name: CheckFacePresence, Passed: true, Confidence: result.Confidence},
		{Name: CheckDescriptorSimilarity, Passed: descriptor >= s.cfg.Threshold, Confidence: descriptor},
		{Name: CheckGeometricSimilarity, Passed: geometric >= s.cfg.Threshold, Confidence: geometric},
	}

	if !result.Passed {
		result.FailureReasons = []verification.Reason{verification.ReasonLowSimilarity}
		result.Recommendations = []string{weakestFactorAdvice(descriptor, geometric)}
	}
	result.RiskLevel = matchRiskLevel(result.Score, s.cfg.Threshold)
	return result
}

func missingFace(result *verification.Result, reason verification.Reason) *verification.Result {
	result.Score = 0
	result.Passed = false
	result.FailureReasons = []verification.Reason{reason}
	result.RiskLevel = verification.RiskHigh
	result.Checks = []verification.CheckOutcome{
		{Name: CheckFacePresence, Passed: false, Confidence: 0},
	}
	if reason == verification.ReasonSourceFaceMissing {
		result.Recommendations = []string{"Retake your selfie with your face clearly visible."}
	} else {
		result.Recommendations = []string{"Re-upload your document with the photo clearly visible."}
	}
	return result
}

// descriptorSimilarity maps Euclidean descriptor distance into [0, 1]:
// similarity = max(0, 1 - distance).
func descriptorSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Max(0, 1-math.Sqrt(sum))
}

// geometricSimilarity compares normalized inter-landmark distances
// between the two captures. Each ratio (eye-to-eye against eye-to-nose
// and eye-to-chin spans) is compared across captures; identical geometry
// yields 1.
func geometricSimilarity(a, b extraction.Landmarks) float64 {
	aRatios, aOK := landmarkRatios(a)
	bRatios, bOK := landmarkRatios(b)
	if !aOK || !bOK {
		// No usable geometry on one side: neutral midpoint rather than a
		// hard zero, so the descriptor term still dominates.
		return 0.5
	}

	var total float64
	for i := range aRatios {
		larger := math.Max(aRatios[i], bRatios[i])
		smaller := math.Min(aRatios[i], bRatios[i])
		if larger == 0 {
			total += 1
			continue
		}
		total += smaller / larger
	}
	return clamp01(total / float64(len(aRatios)))
}

// landmarkRatios derives scale-invariant ratios from the landmark set,
// all normalized by the inter-eye distance.
func landmarkRatios(lm extraction.Landmarks) ([2]float64, bool) {
	left, leftOK := centroid(lm.LeftEye)
	right, rightOK := centroid(lm.RightEye)
	if !leftOK || !rightOK {
		return [2]float64{}, false
	}
	interEye := left.Distance(right)
	if interEye == 0 {
		return [2]float64{}, false
	}
	mid := extraction.Point{X: (left.X + right.X) / 2, Y: (left.Y + right.Y) / 2}
	return [2]float64{
		mid.Distance(lm.NoseTip) / interEye,
		mid.Distance(lm.Chin) / interEye,
	}, true
}

func centroid(points []extraction.Point) (extraction.Point, bool) {
	if len(points) == 0 {
		return extraction.Point{}, false
	}
	var c extraction.Point
	for _, p := range points {
		c.X += p.X
		c.Y += p.Y
	}
	c.X /= float64(len(points))
	c.Y /= float64(len(points))
	return c, true
}

// weakestFactorAdvice keys the recommendation to whichever similarity
// term dragged the combined score down.
func weakestFactorAdvice(descriptor, geometric float64) string {
	if descriptor <= geometric {
		return "Retake your selfie in conditions closer to your document photo: face the camera directly in even lighting."
	}
	return "Hold the camera at eye level so your face is not distorted, then retake the photo."
}

func matchRiskLevel(score, threshold float64) verification.RiskLevel {
	switch {
	case score >= threshold+0.2:
		return verification.RiskLow
	case score >= threshold:
		return verification.RiskMedium
	case score >= threshold-0.2:
		return verification.RiskHigh
	default:
		return verification.RiskCritical
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
