// Package extraction defines the ports to the face-feature and OCR
// collaborators plus the raw measurement records they return. It is a
// pure adapter layer: no scoring logic lives here, and a collaborator
// failure is always an extraction_failed error, never a failed score.
package extraction

import "math"

// Point is a 2D landmark coordinate in image space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point) Distance(q Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Landmarks holds the named landmark sets the scorers consume. Eye point
// sets follow the six-point eye contour convention used for eye-aspect-
// ratio computation.
type Landmarks struct {
	LeftEye  []Point `json:"left_eye"`
	RightEye []Point `json:"right_eye"`
	NoseTip  Point   `json:"nose_tip"`
	Chin     Point   `json:"chin"`
}

// Pose is the head-pose angle estimate in degrees.
type Pose struct {
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
}

// ResolutionClass buckets capture resolution for quality scoring.
type ResolutionClass string

const (
	ResolutionLow    ResolutionClass = "low"
	ResolutionMedium ResolutionClass = "medium"
	ResolutionHigh   ResolutionClass = "high"
)

// ImageQuality carries per-image quality metrics, each in [0, 1].
type ImageQuality struct {
	Brightness float64         `json:"brightness"`
	Contrast   float64         `json:"contrast"`
	Sharpness  float64         `json:"sharpness"`
	Resolution ResolutionClass `json:"resolution"`
}

// Indicator is one anti-spoofing detector output.
type Indicator struct {
	Detected   bool    `json:"detected"`
	Confidence float64 `json:"confidence"`
}

// SpoofIndicators groups the anti-spoofing detectors. Any positive
// detection forces a liveness fail regardless of other checks.
type SpoofIndicators struct {
	ScreenReplay Indicator `json:"screen_replay"`
	MaskOrPhoto  Indicator `json:"mask_or_photo"`
	Deepfake     Indicator `json:"deepfake"`
}

// Any reports whether any indicator fired.
func (s SpoofIndicators) Any() bool {
	return s.ScreenReplay.Detected || s.MaskOrPhoto.Detected || s.Deepfake.Detected
}

// FaceMeasurements is the raw per-capture output of the face extractor.
// Immutable once returned; scorers never mutate it.
type FaceMeasurements struct {
	FaceCount   int                `json:"face_count"`
	Confidence  float64            `json:"confidence"`
	Landmarks   Landmarks          `json:"landmarks"`
	Expressions map[string]float64 `json:"expressions"`
	Pose        Pose               `json:"pose"`
	Descriptor  []float64          `json:"descriptor"`
	Quality     ImageQuality       `json:"quality"`
	Spoof       SpoofIndicators    `json:"spoof"`
}

// DominantExpression returns the highest-probability expression category
// and its probability. Empty string when no expressions were extracted.
func (m FaceMeasurements) DominantExpression() (string, float64) {
	var best string
	var bestP float64
	for name, p := range m.Expressions {
		if p > bestP || (p == bestP && (best == "" || name < best)) {
			best, bestP = name, p
		}
	}
	return best, bestP
}

// OCRField is one recognized document field with its own extraction
// confidence.
type OCRField struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// OCRResult is the raw output of the text extractor for one document
// image.
type OCRResult struct {
	Fields  []OCRField `json:"fields"`
	RawText string     `json:"raw_text"`
}

// Field returns the named field and whether it was recognized.
func (r OCRResult) Field(name string) (OCRField, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return OCRField{}, false
}
