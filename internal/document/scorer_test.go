package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veris/internal/extraction"
	"veris/internal/platform/config"
)

func newTestScorer() *Scorer {
	return NewScorer(config.DefaultScoring().Document)
}

func goodQuality() extraction.ImageQuality {
	return extraction.ImageQuality{
		Brightness: 1.0,
		Contrast:   1.0,
		Sharpness:  1.0,
		Resolution: extraction.ResolutionHigh,
	}
}

func completeDocument() *Document {
	return &Document{
		Type:   TypeNationalIDFront,
		Status: StatusProcessed,
		Fields: map[string]Field{
			FieldFullName:    {Value: "Jordan Blake", Confidence: 0.98, FormatValid: true},
			FieldDateOfBirth: {Value: "1990-04-12", Confidence: 0.95, FormatValid: true},
			FieldIDNumber:    {Value: "A1234567", Confidence: 0.97, FormatValid: true},
			FieldAddress:     {Value: "12 Harbour Lane", Confidence: 0.90, FormatValid: true},
		},
		Quality:  goodQuality(),
		Security: SecurityFeatures{Watermark: true, Hologram: true, Microprint: true},
	}
}

func TestValidate_CompleteDocumentScoresFull(t *testing.T) {
	s := newTestScorer()
	doc := completeDocument()

	result := s.Validate(doc)

	assert.Equal(t, 100, result.Score)
	assert.True(t, result.Valid)
	assert.False(t, result.NeedsReview)
	assert.Empty(t, result.Issues)
}

func TestValidate_MissingFieldsWithoutSecurityFeaturesRejects(t *testing.T) {
	s := newTestScorer()
	doc := completeDocument()
	delete(doc.Fields, FieldFullName)
	delete(doc.Fields, FieldAddress)
	doc.Security = SecurityFeatures{}

	result := s.Validate(doc)

	// 0 required + 20 format + 30 quality + 0 security + 10 tamper.
	assert.Equal(t, 60, result.Score)
	assert.False(t, result.Valid)

	require.Len(t, result.Issues, 2)
	assert.Equal(t, CheckRequiredFields, result.Issues[0].Check)
	assert.Contains(t, result.Issues[0].Message, FieldFullName)
	assert.Contains(t, result.Issues[0].Message, FieldAddress)
	assert.Equal(t, CheckSecurity, result.Issues[1].Check)
}

func TestValidate_TamperingCapsBelowValidity(t *testing.T) {
	s := newTestScorer()
	doc := completeDocument()
	doc.Tampering = extraction.Indicator{Detected: true, Confidence: 0.9}

	result := s.Validate(doc)

	assert.False(t, result.Valid, "tampering must force rejection")
	assert.LessOrEqual(t, result.Score, 60)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, CheckTampering, result.Issues[0].Check)
}

func TestValidate_LowConfidenceTamperingIsIgnored(t *testing.T) {
	s := newTestScorer()
	doc := completeDocument()
	doc.Tampering = extraction.Indicator{Detected: true, Confidence: 0.2}

	result := s.Validate(doc)

	assert.Equal(t, 100, result.Score)
	assert.True(t, result.Valid)
}

func TestValidate_ReviewBand(t *testing.T) {
	s := newTestScorer()
	doc := completeDocument()
	doc.Security = SecurityFeatures{Watermark: true} // drop to 90
	doc.Fields[FieldDateOfBirth] = Field{Value: "12/04/1990", Confidence: 0.95, FormatValid: false}

	result := s.Validate(doc)

	// 25 required + 10 format + 30 quality + 5 security + 10 tamper.
	assert.Equal(t, 80, result.Score)
	assert.True(t, result.Valid)
	assert.True(t, result.NeedsReview)
}

func TestValidate_FormatProportionalOverCheckedFields(t *testing.T) {
	s := newTestScorer()
	doc := completeDocument()
	doc.Fields[FieldIDNumber] = Field{Value: "???", Confidence: 0.4, FormatValid: false}

	result := s.Validate(doc)

	// 2 of 2 checked identity fields would be 20; 1 of 2 is 10.
	assert.Equal(t, 90, result.Score)

	var formatIssue *Issue
	for i := range result.Issues {
		if result.Issues[i].Check == CheckFormat {
			formatIssue = &result.Issues[i]
		}
	}
	require.NotNil(t, formatIssue)
	assert.Contains(t, formatIssue.Message, FieldIDNumber)
	assert.Equal(t, 10, formatIssue.Points)
}

func TestValidate_NoFormatCheckableFieldsGetsFullFormatCredit(t *testing.T) {
	s := newTestScorer()
	doc := &Document{
		Type:   TypeSecondaryID,
		Status: StatusProcessed,
		Fields: map[string]Field{
			FieldFullName: {Value: "Jordan Blake", Confidence: 0.98},
		},
		Quality: goodQuality(),
	}

	result := s.Validate(doc)

	// Missing id_number costs the required check, not the format check.
	assert.False(t, result.Valid)
	for _, issue := range result.Issues {
		assert.NotEqual(t, CheckFormat, issue.Check)
	}
}

func TestValidate_LowResolutionDegradesQuality(t *testing.T) {
	s := newTestScorer()
	doc := completeDocument()
	doc.Quality.Resolution = extraction.ResolutionLow

	result := s.Validate(doc)

	assert.Less(t, result.Score, 100)
	var found bool
	for _, issue := range result.Issues {
		if issue.Check == CheckQuality {
			found = true
			assert.Less(t, issue.Points, 30)
		}
	}
	assert.True(t, found)
}

func TestValidate_Deterministic(t *testing.T) {
	s := newTestScorer()
	doc := completeDocument()
	delete(doc.Fields, FieldAddress)
	doc.Security = SecurityFeatures{Hologram: true}

	first := s.Validate(doc)
	second := s.Validate(doc)

	assert.Equal(t, first, second)
}

func TestValidate_SecurityFeaturesAreMonotonic(t *testing.T) {
	s := newTestScorer()

	doc := completeDocument()
	doc.Security = SecurityFeatures{}
	prev := s.Validate(doc).Score

	for _, next := range []SecurityFeatures{
		{Watermark: true},
		{Watermark: true, Hologram: true},
		{Watermark: true, Hologram: true, Microprint: true},
	} {
		doc.Security = next
		score := s.Validate(doc).Score
		assert.GreaterOrEqual(t, score, prev)
		prev = score
	}
}

func TestApply_LifecycleTransitions(t *testing.T) {
	s := newTestScorer()

	cases := []struct {
		name   string
		result ValidationResult
		want   Status
	}{
		{"rejected", ValidationResult{Score: 60, Valid: false}, StatusRejected},
		{"needs review", ValidationResult{Score: 83, Valid: true, NeedsReview: true}, StatusNeedsReview},
		{"validated", ValidationResult{Score: 95, Valid: true}, StatusValidated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := completeDocument()
			s.Apply(doc, tc.result)
			assert.Equal(t, tc.want, doc.Status)
			require.NotNil(t, doc.Validation)
			assert.Equal(t, tc.result, *doc.Validation)
		})
	}
}
