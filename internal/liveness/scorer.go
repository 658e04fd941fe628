// Package liveness scores a single capture for liveness and anti-spoofing.
// Scoring is a pure function over the capture's immutable measurements:
// a failed check is a scored outcome, never an error.
package liveness

import (
	"math"
	"sort"
	"time"

	"veris/internal/extraction"
	"veris/internal/platform/config"
	"veris/internal/verification"
	id "veris/pkg/domain"
)

// Check weights. The three liveness checks carry 40 points between them,
// anti-spoofing 35, and image quality 25, on a [0,1] scale.
const (
	weightEyes       = 0.15
	weightPose       = 0.15
	weightExpression = 0.10
	weightAntiSpoof  = 0.35
	weightQuality    = 0.25
)

// Check names surfaced in the per-check breakdown.
const (
	CheckEyeOpenness  = "eye_openness"
	CheckHeadPose     = "head_pose"
	CheckExpression   = "expression"
	CheckAntiSpoofing = "anti_spoofing"
	CheckImageQuality = "image_quality"
)

// naturalExpressions is the allowed "natural" set for the expression
// check. Anything else suggests a coached or replayed capture.
var naturalExpressions = map[string]bool{
	"neutral": true,
	"happy":   true,
}

// Scorer computes liveness scores from capture measurements.
type Scorer struct {
	cfg config.LivenessConfig
}

// NewScorer constructs a liveness scorer with the given thresholds.
func NewScorer(cfg config.LivenessConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score evaluates one capture and returns the liveness result. The
// result is COMPLETED even when the decision is a fail; only the
// orchestrator produces ERROR-status results.
func (s *Scorer) Score(capture *verification.Capture, now time.Time) *verification.Result {
	result := &verification.Result{
		ID:            id.NewVerificationID(),
		ApplicationID: capture.ApplicationID,
		CaptureID:     capture.ID,
		Type:          verification.TypeLiveness,
		Status:        verification.StatusCompleted,
		CreatedAt:     now,
	}

	m := capture.Measurements

	// Face presence gates everything: no usable face means no score at
	// all, and more than one face fails regardless of other measurements.
	if m.FaceCount == 0 || m.Confidence < s.cfg.MinConfidence {
		result.Score = 0
		result.Passed = false
		result.FailureReasons = []verification.Reason{verification.ReasonNoFace}
		result.RiskLevel = verification.RiskHigh
		result.Recommendations = recommendationsFor(result.FailureReasons)
		return result
	}

	eyes := s.checkEyeOpenness(m)
	pose := s.checkHeadPose(m)
	expr := s.checkExpression(m)
	spoof := s.checkAntiSpoofing(m)
	quality, qualityScore := s.checkImageQuality(m)

	result.Checks = []verification.CheckOutcome{eyes, pose, expr, spoof, quality}
	result.Confidence = m.Confidence

	livenessPart := 0.0
	if eyes.Passed {
		livenessPart += weightEyes
	}
	if pose.Passed {
		livenessPart += weightPose
	}
	if expr.Passed {
		livenessPart += weightExpression
	}

	// Anti-spoofing and quality credit require a coherent live-face
	// signal from all three liveness checks; a capture that fails one of
	// them earns only the partial liveness credit.
	score := livenessPart
	if eyes.Passed && pose.Passed && expr.Passed {
		if spoof.Passed {
			score += weightAntiSpoof
		}
		score += weightQuality * qualityScore
	}
	result.Score = clamp01(score)

	multiFace := m.FaceCount > 1
	result.Passed = result.Score >= s.cfg.MinScore && spoof.Passed && !multiFace

	if !result.Passed {
		result.FailureReasons = failureReasons(multiFace, spoof, eyes, pose, expr, quality)
	}
	result.RiskLevel = riskLevel(result.Score, spoof.Passed, multiFace)
	result.Recommendations = recommendationsFor(result.FailureReasons)
	return result
}

// checkEyeOpenness derives an eye-aspect-ratio from the six-point eye
// contours and passes when the average EAR clears the closed-eye
// threshold.
func (s *Scorer) checkEyeOpenness(m extraction.FaceMeasurements) verification.CheckOutcome {
	left, leftOK := eyeAspectRatio(m.Landmarks.LeftEye)
	right, rightOK := eyeAspectRatio(m.Landmarks.RightEye)

	if !leftOK && !rightOK {
		// No eye landmarks at all: treat as closed with zero confidence.
		return verification.CheckOutcome{Name: CheckEyeOpenness, Passed: false, Confidence: 0}
	}

	var ear float64
	switch {
	case leftOK && rightOK:
		ear = (left + right) / 2
	case leftOK:
		ear = left
	default:
		ear = right
	}

	return verification.CheckOutcome{
		Name: CheckEyeOpenness,
		// EAR drops toward zero as the lids close; 0.2 is the
		// conventional closed-eye cutoff.
		Passed:     ear >= s.cfg.EyeAspectRatioMin,
		Confidence: clamp01(ear / (2 * s.cfg.EyeAspectRatioMin)),
	}
}

// eyeAspectRatio computes EAR over a six-point eye contour:
// (|p1-p5| + |p2-p4|) / (2 |p0-p3|).
func eyeAspectRatio(eye []extraction.Point) (float64, bool) {
	if len(eye) != 6 {
		return 0, false
	}
	horizontal := eye[0].Distance(eye[3])
	if horizontal == 0 {
		return 0, false
	}
	vertical := eye[1].Distance(eye[5]) + eye[2].Distance(eye[4])
	return vertical / (2 * horizontal), true
}

// checkHeadPose passes when yaw and roll magnitudes are both inside the
// configured bounds. When the extractor did not estimate angles, they
// are derived from the eye/nose landmark geometry.
func (s *Scorer) checkHeadPose(m extraction.FaceMeasurements) verification.CheckOutcome {
	yaw, roll := m.Pose.Yaw, m.Pose.Roll
	if yaw == 0 && roll == 0 {
		yaw, roll = estimatePose(m.Landmarks)
	}

	yawRatio := math.Abs(yaw) / s.cfg.MaxYawDegrees
	rollRatio := math.Abs(roll) / s.cfg.MaxRollDegrees

	return verification.CheckOutcome{
		Name:       CheckHeadPose,
		Passed:     yawRatio < 1 && rollRatio < 1,
		Confidence: clamp01(1 - math.Max(yawRatio, rollRatio)),
	}
}

// estimatePose derives coarse yaw/roll degrees from landmark geometry:
// roll from the eye-line angle, yaw from the nose offset against the
// eye midpoint, normalized by inter-eye distance.
func estimatePose(lm extraction.Landmarks) (yaw, roll float64) {
	leftCenter, leftOK := centroid(lm.LeftEye)
	rightCenter, rightOK := centroid(lm.RightEye)
	if !leftOK || !rightOK {
		return 0, 0
	}

	roll = math.Atan2(rightCenter.Y-leftCenter.Y, rightCenter.X-leftCenter.X) * 180 / math.Pi

	interEye := leftCenter.Distance(rightCenter)
	if interEye > 0 {
		midX := (leftCenter.X + rightCenter.X) / 2
		yaw = (lm.NoseTip.X - midX) / interEye * 45
	}
	return yaw, roll
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

// checkExpression passes when the dominant expression category belongs
// to the natural set.
func (s *Scorer) checkExpression(m extraction.FaceMeasurements) verification.CheckOutcome {
	dominant, probability := m.DominantExpression()
	if dominant == "" {
		return verification.CheckOutcome{Name: CheckExpression, Passed: false, Confidence: 0}
	}
	return verification.CheckOutcome{
		Name:       CheckExpression,
		Passed:     naturalExpressions[dominant],
		Confidence: clamp01(probability),
	}
}

// checkAntiSpoofing fails on any fired indicator; the reported
// confidence is the strongest detection when one fired, or the weakest
// clean margin otherwise.
func (s *Scorer) checkAntiSpoofing(m extraction.FaceMeasurements) verification.CheckOutcome {
	indicators := []extraction.Indicator{
		m.Spoof.ScreenReplay,
		m.Spoof.MaskOrPhoto,
		m.Spoof.Deepfake,
	}

	if m.Spoof.Any() {
		strongest := 0.0
		for _, ind := range indicators {
			if ind.Detected && ind.Confidence > strongest {
				strongest = ind.Confidence
			}
		}
		return verification.CheckOutcome{Name: CheckAntiSpoofing, Passed: false, Confidence: clamp01(strongest)}
	}

	margin := 1.0
	for _, ind := range indicators {
		if clean := 1 - ind.Confidence; clean < margin {
			margin = clean
		}
	}
	return verification.CheckOutcome{Name: CheckAntiSpoofing, Passed: true, Confidence: clamp01(margin)}
}

// checkImageQuality combines brightness, contrast, and sharpness with a
// resolution-class weight and fails below the configured floor.
func (s *Scorer) checkImageQuality(m extraction.FaceMeasurements) (verification.CheckOutcome, float64) {
	score := qualityScore(m.Quality)
	return verification.CheckOutcome{
		Name:       CheckImageQuality,
		Passed:     score >= s.cfg.QualityFloor,
		Confidence: score,
	}, score
}

func qualityScore(q extraction.ImageQuality) float64 {
	base := (clamp01(q.Brightness) + clamp01(q.Contrast) + clamp01(q.Sharpness)) / 3
	switch q.Resolution {
	case extraction.ResolutionLow:
		base *= 0.6
	case extraction.ResolutionMedium:
		base *= 0.85
	}
	return clamp01(base)
}

// reasonSeverity fixes the stable failure-reason ordering.
var reasonSeverity = map[verification.Reason]int{
	verification.ReasonNoFace:              0,
	verification.ReasonMultipleFaces:       1,
	verification.ReasonSpoofingDetected:    2,
	verification.ReasonEyesClosed:          3,
	verification.ReasonPoorHeadPose:        4,
	verification.ReasonUnnaturalExpression: 5,
	verification.ReasonPoorImageQuality:    6,
}

func failureReasons(multiFace bool, spoof, eyes, pose, expr, quality verification.CheckOutcome) []verification.Reason {
	var reasons []verification.Reason
	if multiFace {
		reasons = append(reasons, verification.ReasonMultipleFaces)
	}
	if !spoof.Passed {
		reasons = append(reasons, verification.ReasonSpoofingDetected)
	}
	if !eyes.Passed {
		reasons = append(reasons, verification.ReasonEyesClosed)
	}
	if !pose.Passed {
		reasons = append(reasons, verification.ReasonPoorHeadPose)
	}
	if !expr.Passed {
		reasons = append(reasons, verification.ReasonUnnaturalExpression)
	}
	if !quality.Passed {
		reasons = append(reasons, verification.ReasonPoorImageQuality)
	}
	sort.Slice(reasons, func(i, j int) bool {
		return reasonSeverity[reasons[i]] < reasonSeverity[reasons[j]]
	})
	return reasons
}

func riskLevel(score float64, spoofClean, multiFace bool) verification.RiskLevel {
	switch {
	case !spoofClean:
		return verification.RiskCritical
	case multiFace:
		return verification.RiskHigh
	case score >= 0.75:
		return verification.RiskLow
	case score >= 0.5:
		return verification.RiskMedium
	default:
		return verification.RiskHigh
	}
}

// recommendationsByReason maps each reason code to the guidance shown to
// the applicant. Raw extraction errors never surface here.
var recommendationsByReason = map[verification.Reason]string{
	verification.ReasonNoFace:              "Position your face inside the frame and retake the photo.",
	verification.ReasonMultipleFaces:       "Make sure you are the only person visible and retake the photo.",
	verification.ReasonSpoofingDetected:    "Use a live camera capture; photos of screens or printouts are not accepted.",
	verification.ReasonEyesClosed:          "Keep your eyes open and look straight at the camera.",
	verification.ReasonPoorHeadPose:        "Face the camera directly without tilting your head.",
	verification.ReasonUnnaturalExpression: "Relax your face with a neutral expression and retake the photo.",
	verification.ReasonPoorImageQuality:    "Retake the photo in better lighting with a steady camera.",
}

func recommendationsFor(reasons []verification.Reason) []string {
	var recs []string
	for _, reason := range reasons {
		if rec, ok := recommendationsByReason[reason]; ok {
			recs = append(recs, rec)
		}
	}
	return recs
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
