//go:build unit

package middleware_test

import (
	"net/http"
	"testing"
	"time"

	"hotel-booking/internal/handler/middleware"
	"hotel-booking/internal/pkg/config"
	"hotel-booking/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newCORSRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.CORSConfig{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	r := gin.New()
	r.Use(middleware.NewCORSMiddleware(cfg))
	r.GET("/api/reservations", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORSMiddleware(t *testing.T) {
	router := newCORSRouter(t)

	t.Run("preflight from an allowed origin", func(t *testing.T) {
		w := httptest.PerformRawRequest(t, router, http.MethodOptions, "/api/reservations", nil, map[string]string{
			"Origin":                         "http://localhost:3000",
			"Access-Control-Request-Method":  http.MethodPost,
			"Access-Control-Request-Headers": "Idempotency-Key",
		})

		assert.Equal(t, http.StatusNoContent, w.Code)
		httptest.AssertHeaders(t, w, map[string]string{
			"Access-Control-Allow-Origin":      "http://localhost:3000",
			"Access-Control-Allow-Credentials": "true",
			"Access-Control-Max-Age":           "43200",
		})
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
	})

	t.Run("simple request exposes configured headers", func(t *testing.T) {
		w := httptest.PerformRawRequest(t, router, http.MethodGet, "/api/reservations", nil, map[string]string{
			"Origin": "http://localhost:3000",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		httptest.AssertHeaders(t, w, map[string]string{
			"Access-Control-Allow-Origin":   "http://localhost:3000",
			"Access-Control-Expose-Headers": "Content-Length",
		})
	})

	t.Run("unknown origin is refused", func(t *testing.T) {
		w := httptest.PerformRawRequest(t, router, http.MethodGet, "/api/reservations", nil, map[string]string{
			"Origin": "http://evil.example",
		})

		assert.Equal(t, http.StatusForbidden, w.Code)
		httptest.AssertHeaders(t, w, map[string]string{
			"Access-Control-Allow-Origin": "",
		})
	})
}
