//go:build unit || e2e

package httptest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// AssertHeaders checks response headers by canonical name. An empty expected value asserts
// the header is absent.
func AssertHeaders(t *testing.T, w *httptest.ResponseRecorder, expected map[string]string) {
	t.Helper()
	for name, want := range expected {
		got, present := w.Header()[http.CanonicalHeaderKey(name)]
		if want == "" {
			assert.False(t, present, "header %s should be absent, got %v", name, got)
			continue
		}
		assert.Equal(t, want, w.Header().Get(name), "header %s", name)
	}
}
