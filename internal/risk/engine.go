// Package risk computes an application's risk score from its documents
// and verification results. The engine is conservative: it never
// auto-rejects, only a reviewer decision can finalize a rejection.
package risk

import (
	"sort"
	"strings"

	"veris/internal/document"
	"veris/internal/platform/config"
	"veris/internal/verification"
)

// Disposition is the engine's recommendation for an application.
type Disposition string

const (
	DispositionAutoApprove  Disposition = "AUTO_APPROVE"
	DispositionManualReview Disposition = "MANUAL_REVIEW"
)

// Built-in factor names.
const (
	FactorDocumentInconsistency  = "document_inconsistency"
	FactorConsentIncomplete      = "consent_incomplete"
	FactorLowFaceMatchConfidence = "low_face_match_confidence"
)

// Input is everything the engine needs. It carries plain records, no
// handles to storage, so assessment stays a pure function.
type Input struct {
	Documents []*document.Document
	Results   []*verification.Result

	DocumentsSubmitted        bool
	FaceVerificationCompleted bool
	ConsentCompleted          bool

	// ConsentFields holds identity fields fetched during the consent
	// exchange, used as an extra consistency source when present.
	ConsentFields map[string]string
}

// Factor is one triggered risk signal with the points it contributed.
type Factor struct {
	Name    string `json:"name"`
	Points  int    `json:"points"`
	Message string `json:"message"`
}

// Assessment is the engine's verdict for one application.
type Assessment struct {
	Score              int                    `json:"score"`
	Level              verification.RiskLevel `json:"level"`
	Disposition        Disposition            `json:"disposition"`
	RejectionCandidate bool                   `json:"rejection_candidate"`
	Factors            []Factor               `json:"factors"`
}

// Rule is one named risk signal. Rules are open for extension: new
// signals register a predicate and a penalty without touching the
// combination logic.
type Rule struct {
	Name    string
	Points  int
	Message string
	Applies func(Input) bool
}

// Engine evaluates the rule set against an application's evidence.
// The rules are centralized here to keep them testable in one place.
type Engine struct {
	cfg   config.RiskConfig
	rules []Rule
}

func NewEngine(cfg config.RiskConfig) *Engine {
	e := &Engine{cfg: cfg}
	e.rules = []Rule{
		{
			Name:    FactorDocumentInconsistency,
			Points:  cfg.ConsistencyPenalty,
			Message: "identity fields disagree across submitted documents",
			Applies: func(in Input) bool { return !identityConsistent(in) },
		},
		{
			Name:    FactorConsentIncomplete,
			Points:  cfg.ConsentPenalty,
			Message: "consent exchange was not completed",
			Applies: func(in Input) bool { return !in.ConsentCompleted },
		},
		{
			Name:    FactorLowFaceMatchConfidence,
			Points:  cfg.FaceMatchPenalty,
			Message: "best face match confidence below minimum",
			Applies: func(in Input) bool {
				return bestFaceMatchConfidence(in.Results) < cfg.FaceMatchConfidenceMin
			},
		},
	}
	return e
}

// Register adds a custom rule to the evaluation set.
func (e *Engine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Assess computes the risk score and disposition. Pure function of its
// input; callers own persistence and locking.
func (e *Engine) Assess(input Input) Assessment {
	score := 0
	var factors []Factor
	inconsistent := false
	for _, rule := range e.rules {
		if !rule.Applies(input) {
			continue
		}
		score += rule.Points
		factors = append(factors, Factor{Name: rule.Name, Points: rule.Points, Message: rule.Message})
		if rule.Name == FactorDocumentInconsistency {
			inconsistent = true
		}
	}

	disposition := DispositionManualReview
	if !inconsistent &&
		score <= e.cfg.AutoApproveMax &&
		input.DocumentsSubmitted &&
		input.FaceVerificationCompleted {
		disposition = DispositionAutoApprove
	}

	return Assessment{
		Score:              score,
		Level:              levelFor(score, e.cfg),
		Disposition:        disposition,
		RejectionCandidate: score > e.cfg.RejectCandidateMin,
		Factors:            factors,
	}
}

func levelFor(score int, cfg config.RiskConfig) verification.RiskLevel {
	switch {
	case score <= cfg.AutoApproveMax:
		return verification.RiskLow
	case score <= cfg.ReviewMin:
		return verification.RiskMedium
	case score <= cfg.RejectCandidateMin:
		return verification.RiskHigh
	default:
		return verification.RiskCritical
	}
}

// identityConsistent checks name and date-of-birth agreement across the
// submitted documents plus the consent-fetched fields when available.
func identityConsistent(input Input) bool {
	for _, field := range []string{document.FieldFullName, document.FieldDateOfBirth} {
		values := collectValues(input, field)
		if len(values) > 1 {
			return false
		}
	}
	return true
}

func collectValues(input Input, field string) []string {
	seen := make(map[string]bool)
	add := func(raw string) {
		v := normalizeIdentityValue(raw)
		if v != "" {
			seen[v] = true
		}
	}
	for _, doc := range input.Documents {
		if value, ok := doc.FieldValue(field); ok {
			add(value)
		}
	}
	if value, ok := input.ConsentFields[field]; ok {
		add(value)
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

func normalizeIdentityValue(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

// bestFaceMatchConfidence returns the highest confidence among completed
// face-match results, zero when none exist.
func bestFaceMatchConfidence(results []*verification.Result) float64 {
	best := 0.0
	for _, r := range results {
		if r.Type != verification.TypeFaceMatch || r.Status != verification.StatusCompleted {
			continue
		}
		if r.Confidence > best {
			best = r.Confidence
		}
	}
	return best
}
