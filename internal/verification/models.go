// Package verification defines the Capture and VerificationResult
// records shared by the liveness and face-match scorers, and hosts the
// orchestration service that runs extraction, scoring, and persistence.
package verification

import (
	"time"

	"veris/internal/extraction"
	id "veris/pkg/domain"
)

// CaptureKind distinguishes the live selfie from the document reference
// photo in a face-match pair.
type CaptureKind string

const (
	CaptureLive      CaptureKind = "live"
	CaptureReference CaptureKind = "reference"
)

// Capture is one face image plus its extracted measurements. Immutable
// once scored; a retry creates a new Capture, never an edit.
type Capture struct {
	ID            id.CaptureID
	ApplicationID id.ApplicationID
	Kind          CaptureKind
	ObjectKey     string
	Measurements  extraction.FaceMeasurements
	CapturedAt    time.Time
}

// ResultType tags a VerificationResult.
type ResultType string

const (
	TypeLiveness  ResultType = "LIVENESS"
	TypeFaceMatch ResultType = "FACE_MATCH"
)

// ResultStatus separates "the check ran and failed" from "the check
// could not run". Callers must be able to tell them apart.
type ResultStatus string

const (
	StatusCompleted ResultStatus = "COMPLETED"
	StatusError     ResultStatus = "ERROR"
)

// RiskLevel buckets a scoring outcome for the risk engine.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Reason is a stable failure reason code. Ordering of reasons in a
// result follows severity: NO_FACE > MULTIPLE_FACES > SPOOFING_DETECTED >
// EYES_CLOSED > POOR_HEAD_POSE > UNNATURAL_EXPRESSION > POOR_IMAGE_QUALITY.
type Reason string

const (
	ReasonNoFace              Reason = "NO_FACE"
	ReasonMultipleFaces       Reason = "MULTIPLE_FACES"
	ReasonSpoofingDetected    Reason = "SPOOFING_DETECTED"
	ReasonEyesClosed          Reason = "EYES_CLOSED"
	ReasonPoorHeadPose        Reason = "POOR_HEAD_POSE"
	ReasonUnnaturalExpression Reason = "UNNATURAL_EXPRESSION"
	ReasonPoorImageQuality    Reason = "POOR_IMAGE_QUALITY"

	ReasonSourceFaceMissing    Reason = "SOURCE_FACE_MISSING"
	ReasonReferenceFaceMissing Reason = "REFERENCE_FACE_MISSING"
	ReasonLowSimilarity        Reason = "LOW_SIMILARITY"

	ReasonExtractionFailed Reason = "EXTRACTION_FAILED"
)

// CheckOutcome is one named check's result inside a scoring run.
type CheckOutcome struct {
	Name       string  `json:"name"`
	Passed     bool    `json:"passed"`
	Confidence float64 `json:"confidence"`
}

// MatchDetails carries the face-match specific breakdown.
type MatchDetails struct {
	DescriptorSimilarity float64 `json:"descriptor_similarity"`
	GeometricSimilarity  float64 `json:"geometric_similarity"`
}

// Result is one scoring outcome. Immutable once written; a retried
// verification produces a new Result, preserving history.
type Result struct {
	ID            id.VerificationID
	ApplicationID id.ApplicationID
	CaptureID     id.CaptureID
	Type          ResultType
	Status        ResultStatus

	// Score is in [0, 1] internally; surface as 0-100 via ScorePercent.
	Score           float64
	Passed          bool
	Confidence      float64
	Checks          []CheckOutcome
	FailureReasons  []Reason
	RiskLevel       RiskLevel
	Recommendations []string

	// Match is set only for TypeFaceMatch results.
	Match *MatchDetails

	CreatedAt time.Time
}

// ScorePercent surfaces the internal [0,1] score on the 0-100 scale.
func (r Result) ScorePercent() int {
	return int(r.Score*100 + 0.5)
}

// HasReason reports whether the result carries the given reason code.
func (r Result) HasReason(reason Reason) bool {
	for _, got := range r.FailureReasons {
		if got == reason {
			return true
		}
	}
	return false
}
