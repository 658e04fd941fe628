package document

import (
	"fmt"
	"sort"
	"strings"

	"veris/internal/extraction"
	"veris/internal/platform/config"
)

// Point budget per check on the 100-point document scale.
const (
	pointsRequiredFields = 25
	pointsFormat         = 20
	pointsQuality        = 30
	pointsSecurity       = 15
	pointsTampering      = 10
)

// Check names surfaced in the issues list.
const (
	CheckRequiredFields = "required_fields"
	CheckFormat         = "format_compliance"
	CheckQuality        = "image_quality"
	CheckSecurity       = "security_features"
	CheckTampering      = "anti_tampering"
)

// Scorer validates documents against the 100-point model. Scoring is
// deterministic: the same document and quality snapshot always yield the
// same score.
type Scorer struct {
	cfg config.DocumentConfig
}

// NewScorer constructs a document validation scorer.
func NewScorer(cfg config.DocumentConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Validate scores the document and returns the validation result. The
// caller applies the result to the document's status.
func (s *Scorer) Validate(doc *Document) ValidationResult {
	var issues []Issue
	score := 0

	// Required fields: all-or-nothing, listing every missing field.
	missing := missingRequired(doc)
	if len(missing) == 0 {
		score += pointsRequiredFields
	} else {
		issues = append(issues, Issue{
			Check:   CheckRequiredFields,
			Points:  0,
			Message: fmt.Sprintf("required fields missing: %s", strings.Join(missing, ", ")),
		})
	}

	// Format compliance: proportional over the identity-number fields
	// present. The pass/fail per field comes from the format collaborator.
	formatPts, formatChecked, formatFailed := formatPoints(doc)
	score += formatPts
	if formatChecked > 0 && len(formatFailed) > 0 {
		issues = append(issues, Issue{
			Check:   CheckFormat,
			Points:  formatPts,
			Message: fmt.Sprintf("fields failed format checks: %s", strings.Join(formatFailed, ", ")),
		})
	}

	// Image quality: weighted for document legibility.
	qualityPts := legibilityPoints(doc.Quality)
	score += qualityPts
	if qualityPts < pointsQuality {
		issues = append(issues, Issue{
			Check:   CheckQuality,
			Points:  qualityPts,
			Message: fmt.Sprintf("image quality scored %d of %d", qualityPts, pointsQuality),
		})
	}

	// Security features: five points per detected marker.
	securityPts := doc.Security.Count() * (pointsSecurity / 3)
	score += securityPts
	if securityPts < pointsSecurity {
		issues = append(issues, Issue{
			Check:   CheckSecurity,
			Points:  securityPts,
			Message: fmt.Sprintf("security features scored %d of %d", securityPts, pointsSecurity),
		})
	}

	// Anti-tampering: full credit when clean. A detection above the
	// confidence threshold forfeits the credit and caps the total below
	// the validity cutoff, so tampering forces rejection even when every
	// other check passes.
	tampered := doc.Tampering.Detected && doc.Tampering.Confidence >= s.cfg.TamperingConfidence
	if !tampered {
		score += pointsTampering
	} else {
		issues = append(issues, Issue{
			Check:   CheckTampering,
			Points:  0,
			Message: fmt.Sprintf("tampering detected with confidence %.2f", doc.Tampering.Confidence),
		})
		if ceiling := s.cfg.ValidThreshold - pointsTampering; score > ceiling {
			score = ceiling
		}
	}

	sortIssues(issues)

	valid := score >= s.cfg.ValidThreshold
	return ValidationResult{
		Score:       score,
		Valid:       valid,
		NeedsReview: valid && score < s.cfg.ReviewThreshold,
		Issues:      issues,
	}
}

// Apply writes the validation outcome onto the document's lifecycle
// state.
func (s *Scorer) Apply(doc *Document, result ValidationResult) {
	doc.Validation = &result
	switch {
	case !result.Valid:
		doc.Status = StatusRejected
	case result.NeedsReview:
		doc.Status = StatusNeedsReview
	default:
		doc.Status = StatusValidated
	}
}

func missingRequired(doc *Document) []string {
	var missing []string
	for _, name := range requiredFields[doc.Type] {
		if _, ok := doc.FieldValue(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func formatPoints(doc *Document) (points, checked int, failed []string) {
	passed := 0
	for name, field := range doc.Fields {
		if !identityNumberFields[name] || field.Value == "" {
			continue
		}
		checked++
		if field.FormatValid {
			passed++
		} else {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)
	if checked == 0 {
		// Nothing format-checkable present; the required-fields check
		// already penalizes the absence.
		return pointsFormat, 0, nil
	}
	return pointsFormat * passed / checked, checked, failed
}

// legibilityPoints weights brightness, contrast, and sharpness for
// document reading rather than face liveness: sharpness dominates
// because blur defeats OCR before exposure does.
func legibilityPoints(q extraction.ImageQuality) int {
	score := 0.25*clamp01(q.Brightness) + 0.25*clamp01(q.Contrast) + 0.5*clamp01(q.Sharpness)
	switch q.Resolution {
	case extraction.ResolutionLow:
		score *= 0.5
	case extraction.ResolutionMedium:
		score *= 0.85
	}
	return int(float64(pointsQuality)*clamp01(score) + 0.5)
}

// checkOrder fixes the stable issue ordering in reports.
var checkOrder = map[string]int{
	CheckRequiredFields: 0,
	CheckFormat:         1,
	CheckQuality:        2,
	CheckSecurity:       3,
	CheckTampering:      4,
}

func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return checkOrder[issues[i].Check] < checkOrder[issues[j].Check]
	})
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
