package domainerrors

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_PreservesChain(t *testing.T) {
	err := Wrap(io.ErrUnexpectedEOF, CodeExtraction, "extract face")

	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.True(t, HasCode(err, CodeExtraction))
	assert.Contains(t, err.Error(), "extraction_failed")
	assert.Contains(t, err.Error(), "extract face")
	assert.Contains(t, err.Error(), io.ErrUnexpectedEOF.Error())
}

func TestHasCode_ReadsThroughFmtWrapping(t *testing.T) {
	inner := New(CodeNotFound, "application not found")
	outer := fmt.Errorf("load application: %w", inner)

	assert.True(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(outer, CodeConflict))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
	assert.False(t, HasCode(nil, CodeNotFound))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeTimeout, CodeOf(New(CodeTimeout, "deadline")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestNewf_FormatsMessage(t *testing.T) {
	err := Newf(CodeInvalidInput, "unknown document type %q", "PASSPORT_CARD")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown document type "PASSPORT_CARD"`)
}

func TestIsRetryable_OnlyCollaboratorFailures(t *testing.T) {
	assert.True(t, IsRetryable(New(CodeExtraction, "model down")))
	assert.True(t, IsRetryable(New(CodeTimeout, "deadline")))

	assert.False(t, IsRetryable(New(CodeInvalidState, "terminal application")))
	assert.False(t, IsRetryable(New(CodeNotFound, "missing")))
	assert.False(t, IsRetryable(errors.New("plain")))
}
