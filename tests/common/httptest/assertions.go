//go:build unit || e2e

package httptest

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// errorEnvelope mirrors httperr.Response on the wire.
type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail"`
}

func AssertSuccessResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, targetStruct any) {
	t.Helper()

	if !assert.Equal(t, expectedStatus, w.Code, "status mismatch, body: %s", w.Body.String()) {
		return
	}
	if targetStruct == nil || w.Code < 200 || w.Code >= 300 {
		return
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), targetStruct), "undecodable body: %s", w.Body.String())
}

// AssertErrorResponse checks the status and that the envelope message contains expectedErrorMsg
// (any message when empty).
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedErrorMsg string) {
	t.Helper()
	decodeErrorEnvelope(t, w, expectedStatus, expectedErrorMsg)
}

// AssertErrorDetail is AssertErrorResponse plus an exact match on the envelope's detail.
func AssertErrorDetail(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedErrorMsg string, expectedDetail any) {
	t.Helper()
	env := decodeErrorEnvelope(t, w, expectedStatus, expectedErrorMsg)
	assert.Equal(t, expectedDetail, env.Detail, "detail mismatch")
}

func decodeErrorEnvelope(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedErrorMsg string) errorEnvelope {
	t.Helper()

	assert.Equal(t, expectedStatus, w.Code, "status mismatch, body: %s", w.Body.String())

	var env errorEnvelope
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "undecodable error body: %s", w.Body.String())

	if expectedErrorMsg != "" {
		assert.Contains(t, env.Error.Message, expectedErrorMsg, "error message mismatch")
	}
	return env
}
