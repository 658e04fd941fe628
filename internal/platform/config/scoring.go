package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	dErrors "veris/pkg/domain-errors"
)

// Scoring bundles every calibrated threshold the scorers and the risk
// engine consume. Defaults mirror the product rules; a YAML file can
// override any of them per deployment.
type Scoring struct {
	Liveness    LivenessConfig    `koanf:"liveness"`
	FaceMatch   FaceMatchConfig   `koanf:"face_match"`
	Document    DocumentConfig    `koanf:"document"`
	Risk        RiskConfig        `koanf:"risk"`
	Application ApplicationConfig `koanf:"application"`
}

// LivenessConfig holds liveness scorer thresholds.
type LivenessConfig struct {
	// MinConfidence is the face-detector confidence below which a capture
	// is treated as having no usable face.
	MinConfidence float64 `koanf:"min_confidence"`
	// MinScore is the combined-score pass threshold.
	MinScore float64 `koanf:"min_score"`
	// EyeAspectRatioMin is the EAR below which eyes count as closed.
	EyeAspectRatioMin float64 `koanf:"eye_aspect_ratio_min"`
	// MaxYawDegrees / MaxRollDegrees bound acceptable head pose.
	MaxYawDegrees  float64 `koanf:"max_yaw_degrees"`
	MaxRollDegrees float64 `koanf:"max_roll_degrees"`
	// QualityFloor is the combined image-quality score below which the
	// quality check fails outright.
	QualityFloor float64 `koanf:"quality_floor"`
}

// FaceMatchConfig holds face match scorer thresholds.
type FaceMatchConfig struct {
	// Threshold is the combined-similarity pass threshold.
	Threshold float64 `koanf:"threshold"`
}

// DocumentConfig holds document validation thresholds.
type DocumentConfig struct {
	// ValidThreshold is the minimum score for a VALIDATED document.
	ValidThreshold int `koanf:"valid_threshold"`
	// ReviewThreshold marks validated documents that still need a human look.
	ReviewThreshold int `koanf:"review_threshold"`
	// TamperingConfidence is the detection confidence above which the
	// tampering cap applies.
	TamperingConfidence float64 `koanf:"tampering_confidence"`
}

// RiskConfig holds risk engine weights and decision thresholds.
type RiskConfig struct {
	AutoApproveMax     int `koanf:"auto_approve_max"`
	ReviewMin          int `koanf:"review_min"`
	RejectCandidateMin int `koanf:"reject_candidate_min"`

	ConsistencyPenalty int `koanf:"consistency_penalty"`
	ConsentPenalty     int `koanf:"consent_penalty"`
	FaceMatchPenalty   int `koanf:"face_match_penalty"`

	// FaceMatchConfidenceMin is the face-match confidence below which the
	// face-match penalty applies.
	FaceMatchConfidenceMin float64 `koanf:"face_match_confidence_min"`
}

// ApplicationConfig holds application lifecycle settings.
type ApplicationConfig struct {
	// RetentionWindow is how long a non-terminal application lives before
	// it is expired by the sweep worker.
	RetentionWindow time.Duration `koanf:"retention_window"`
	// SweepInterval is how often the expiry worker scans.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// DefaultScoring returns the product-rule defaults. Flagged for
// compliance sign-off before production use.
func DefaultScoring() Scoring {
	return Scoring{
		Liveness: LivenessConfig{
			MinConfidence:     0.5,
			MinScore:          0.75,
			EyeAspectRatioMin: 0.2,
			MaxYawDegrees:     20,
			MaxRollDegrees:    15,
			QualityFloor:      0.5,
		},
		FaceMatch: FaceMatchConfig{
			Threshold: 0.6,
		},
		Document: DocumentConfig{
			ValidThreshold:      70,
			ReviewThreshold:     90,
			TamperingConfidence: 0.5,
		},
		Risk: RiskConfig{
			AutoApproveMax:         20,
			ReviewMin:              40,
			RejectCandidateMin:     70,
			ConsistencyPenalty:     25,
			ConsentPenalty:         15,
			FaceMatchPenalty:       20,
			FaceMatchConfidenceMin: 0.8,
		},
		Application: ApplicationConfig{
			RetentionWindow: 30 * 24 * time.Hour,
			SweepInterval:   time.Hour,
		},
	}
}

// LoadScoring merges the YAML file at path over the defaults and
// validates the result. A missing file is not an error; invalid values
// are fatal at startup.
func LoadScoring(path string) (Scoring, error) {
	cfg := DefaultScoring()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			k := koanf.New(".")
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Scoring{}, dErrors.Wrap(err, dErrors.CodeConfiguration, "load scoring config file")
			}
			if err := k.Unmarshal("", &cfg); err != nil {
				return Scoring{}, dErrors.Wrap(err, dErrors.CodeConfiguration, "parse scoring config file")
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return Scoring{}, err
	}
	return cfg, nil
}

// Validate rejects out-of-range threshold combinations.
func (s Scoring) Validate() error {
	if s.Liveness.MinScore <= 0 || s.Liveness.MinScore > 1 {
		return dErrors.New(dErrors.CodeConfiguration, "liveness min_score must be in (0, 1]")
	}
	if s.Liveness.MinConfidence < 0 || s.Liveness.MinConfidence > 1 {
		return dErrors.New(dErrors.CodeConfiguration, "liveness min_confidence must be in [0, 1]")
	}
	if s.Liveness.EyeAspectRatioMin <= 0 {
		return dErrors.New(dErrors.CodeConfiguration, "liveness eye_aspect_ratio_min must be positive")
	}
	if s.Liveness.MaxYawDegrees <= 0 || s.Liveness.MaxRollDegrees <= 0 {
		return dErrors.New(dErrors.CodeConfiguration, "liveness pose thresholds must be positive")
	}
	if s.FaceMatch.Threshold <= 0 || s.FaceMatch.Threshold > 1 {
		return dErrors.New(dErrors.CodeConfiguration, "face_match threshold must be in (0, 1]")
	}
	if s.Document.ValidThreshold <= 0 || s.Document.ValidThreshold > 100 {
		return dErrors.New(dErrors.CodeConfiguration, "document valid_threshold must be in (0, 100]")
	}
	if s.Document.ReviewThreshold < s.Document.ValidThreshold || s.Document.ReviewThreshold > 100 {
		return dErrors.New(dErrors.CodeConfiguration, "document review_threshold must be in [valid_threshold, 100]")
	}
	if s.Risk.AutoApproveMax < 0 || s.Risk.ReviewMin <= s.Risk.AutoApproveMax || s.Risk.RejectCandidateMin <= s.Risk.ReviewMin {
		return dErrors.New(dErrors.CodeConfiguration, "risk thresholds must be ordered auto_approve_max < review_min < reject_candidate_min")
	}
	if s.Application.RetentionWindow <= 0 {
		return dErrors.New(dErrors.CodeConfiguration, "application retention_window must be positive")
	}
	return nil
}
