package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "veris/pkg/domain-errors"
)

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ToHTTPStatus(dErrors.CodeInvalidInput))
	assert.Equal(t, http.StatusUnauthorized, ToHTTPStatus(dErrors.CodeUnauthorized))
	assert.Equal(t, http.StatusNotFound, ToHTTPStatus(dErrors.CodeNotFound))
	assert.Equal(t, http.StatusConflict, ToHTTPStatus(dErrors.CodeInvalidState))
	assert.Equal(t, http.StatusConflict, ToHTTPStatus(dErrors.CodeConflict))
	assert.Equal(t, http.StatusBadGateway, ToHTTPStatus(dErrors.CodeExtraction))
	assert.Equal(t, http.StatusGatewayTimeout, ToHTTPStatus(dErrors.CodeTimeout))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(dErrors.Code("unknown")))
}

func TestWriteError_IncludesDescriptionForClientErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, dErrors.New(dErrors.CodeInvalidState, "application is terminal"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_state", body["error"])
	assert.Equal(t, "application is terminal", body["error_description"])
}

func TestWriteError_InternalErrorsOmitDescription(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, dErrors.New(dErrors.CodeInternal, "pg: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal_error", body["error"])
	assert.NotContains(t, body, "error_description")
}

type decodeTarget struct {
	Name string `json:"name"`
}

func (d *decodeTarget) Validate() error {
	if d.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	return nil
}

func TestDecodeAndPrepare_RunsValidateHook(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"alex"}`))
	rec := httptest.NewRecorder()

	decoded, ok := DecodeAndPrepare[decodeTarget](rec, req, nil, req.Context(), "req-1")
	require.True(t, ok)
	assert.Equal(t, "alex", decoded.Name)
}

func TestDecodeAndPrepare_ValidationFailureWrites400(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	_, ok := DecodeAndPrepare[decodeTarget](rec, req, nil, req.Context(), "req-1")
	require.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_input", body["error"])
	assert.Equal(t, "name is required", body["error_description"])
}

func TestDecodeAndPrepare_MalformedBodyWrites400(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	rec := httptest.NewRecorder()

	_, ok := DecodeAndPrepare[decodeTarget](rec, req, nil, req.Context(), "req-1")
	require.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bad_request", body["error"])
}

type plainTarget struct {
	Count int `json:"count"`
}

func TestDecodeAndPrepare_TypesWithoutValidateDecodePlainly(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"count":3}`))
	rec := httptest.NewRecorder()

	decoded, ok := DecodeAndPrepare[plainTarget](rec, req, nil, req.Context(), "req-1")
	require.True(t, ok)
	assert.Equal(t, 3, decoded.Count)
}
