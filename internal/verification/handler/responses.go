package handler

import (
	"time"

	"veris/internal/verification"
)

// CaptureResponse acknowledges a stored capture. Measurements stay
// server-side.
type CaptureResponse struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	Kind          string    `json:"kind"`
	CapturedAt    time.Time `json:"captured_at"`
}

// FromCapture converts a domain capture to its HTTP form.
func FromCapture(c *verification.Capture) *CaptureResponse {
	return &CaptureResponse{
		ID:            c.ID.String(),
		ApplicationID: c.ApplicationID.String(),
		Kind:          string(c.Kind),
		CapturedAt:    c.CapturedAt,
	}
}

// ResultResponse is the HTTP representation of a verification result.
// Scores surface on the 0-100 scale.
type ResultResponse struct {
	ID              string                      `json:"id"`
	ApplicationID   string                      `json:"application_id"`
	CaptureID       string                      `json:"capture_id"`
	Type            string                      `json:"type"`
	Status          string                      `json:"status"`
	Score           int                         `json:"score"`
	Passed          bool                        `json:"passed"`
	Confidence      float64                     `json:"confidence"`
	Checks          []verification.CheckOutcome `json:"checks,omitempty"`
	FailureReasons  []verification.Reason       `json:"failure_reasons,omitempty"`
	RiskLevel       string                      `json:"risk_level,omitempty"`
	Recommendations []string                    `json:"recommendations,omitempty"`
	Match           *verification.MatchDetails  `json:"match,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
}

// FromResult converts a domain result to its HTTP form.
func FromResult(r *verification.Result) *ResultResponse {
	return &ResultResponse{
		ID:              r.ID.String(),
		ApplicationID:   r.ApplicationID.String(),
		CaptureID:       r.CaptureID.String(),
		Type:            string(r.Type),
		Status:          string(r.Status),
		Score:           r.ScorePercent(),
		Passed:          r.Passed,
		Confidence:      r.Confidence,
		Checks:          r.Checks,
		FailureReasons:  r.FailureReasons,
		RiskLevel:       string(r.RiskLevel),
		Recommendations: r.Recommendations,
		Match:           r.Match,
		CreatedAt:       r.CreatedAt,
	}
}

// ResultsResponse wraps an application's verification results.
type ResultsResponse struct {
	Results []*ResultResponse `json:"results"`
}
