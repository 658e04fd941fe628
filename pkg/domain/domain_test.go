package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "veris/pkg/domain-errors"
)

func TestParseApplicationID(t *testing.T) {
	raw := uuid.New()

	id, err := ParseApplicationID(raw.String())
	require.NoError(t, err)
	assert.Equal(t, raw.String(), id.String())
	assert.False(t, id.IsZero())

	for name, input := range map[string]string{
		"empty":    "",
		"garbage":  "not-a-uuid",
		"nil uuid": uuid.Nil.String(),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseApplicationID(input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestParseVerificationID(t *testing.T) {
	raw := uuid.New()

	id, err := ParseVerificationID(raw.String())
	require.NoError(t, err)
	assert.Equal(t, raw.String(), id.String())

	for name, input := range map[string]string{
		"empty":    "",
		"garbage":  "not-a-uuid",
		"nil uuid": uuid.Nil.String(),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseVerificationID(input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestIDs_JSONUsesCanonicalUUIDStrings(t *testing.T) {
	id := NewApplicationID()

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(data))

	var decoded ApplicationID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)

	assert.Error(t, json.Unmarshal([]byte(`"not-a-uuid"`), &decoded))
}

func TestIDs_TypesDoNotInterchange(t *testing.T) {
	// Compile-time property really, but pin the string forms apart.
	appID := NewApplicationID()
	docID := NewDocumentID()
	assert.NotEqual(t, appID.String(), docID.String())
	assert.True(t, UserID{}.IsZero())
	assert.True(t, DocumentID{}.IsZero())
}

func TestParseVerificationMethod(t *testing.T) {
	for _, valid := range []string{"document_upload", "consent_exchange", "hybrid"} {
		m, err := ParseVerificationMethod(valid)
		require.NoError(t, err)
		assert.True(t, m.IsValid())
	}

	for _, invalid := range []string{"", "DOCUMENT_UPLOAD", "carrier-pigeon"} {
		_, err := ParseVerificationMethod(invalid)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

func TestVerificationMethod_Legs(t *testing.T) {
	assert.True(t, MethodDocumentUpload.RequiresDocuments())
	assert.False(t, MethodDocumentUpload.RequiresConsent())

	assert.False(t, MethodConsentExchange.RequiresDocuments())
	assert.True(t, MethodConsentExchange.RequiresConsent())

	assert.True(t, MethodHybrid.RequiresDocuments())
	assert.True(t, MethodHybrid.RequiresConsent())
}
