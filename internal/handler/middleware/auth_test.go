//go:build unit

package middleware_test

import (
	"net/http"
	"testing"

	"hotel-booking/internal/domain/user"
	"hotel-booking/internal/handler/middleware"
	"hotel-booking/internal/pkg/errs"
	"hotel-booking/tests/common/httptest"
	usecasemock "hotel-booking/tests/mock/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func newAuthRouter(t *testing.T, validator *usecasemock.MockTokenValidator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mw := middleware.NewAuthMiddleware(validator)

	r := gin.New()
	whoami := func(c *gin.Context) {
		id, _ := middleware.GetUserID(c)
		role, _ := middleware.GetUserRole(c)
		c.JSON(http.StatusOK, gin.H{"userId": id, "role": role})
	}
	r.GET("/me", mw.RequireAuth(), whoami)
	r.GET("/manager", mw.RequireAuth(), mw.RequireRoleAtLeast(user.RoleManager), whoami)
	return r
}

func TestRequireAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	validator := usecasemock.NewMockTokenValidator(ctrl)
	router := newAuthRouter(t, validator)

	t.Run("valid bearer token sets identity", func(t *testing.T) {
		validator.EXPECT().ValidateToken("good-token").Return(int64(42), user.RoleGuest, nil).Times(1)

		rec := httptest.PerformRequest(t, router, http.MethodGet, "/me", nil, "good-token")

		var body struct {
			UserID int64  `json:"userId"`
			Role   string `json:"role"`
		}
		httptest.AssertSuccessResponse(t, rec, http.StatusOK, &body)
		assert.Equal(t, int64(42), body.UserID)
		assert.Equal(t, "guest", body.Role)
	})

	t.Run("access token cookie is accepted", func(t *testing.T) {
		validator.EXPECT().ValidateToken("cookie-token").Return(int64(7), user.RoleGuest, nil).Times(1)

		cookies := []*http.Cookie{{Name: "access_token", Value: "cookie-token"}}
		rec := httptest.PerformRequestWithCookies(t, router, http.MethodGet, "/me", nil, cookies, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token is 401", func(t *testing.T) {
		rec := httptest.PerformRequest(t, router, http.MethodGet, "/me", nil, "")
		httptest.AssertErrorResponse(t, rec, http.StatusUnauthorized, "Access token required")
	})

	t.Run("invalid token is 401", func(t *testing.T) {
		validator.EXPECT().ValidateToken("expired").Return(int64(0), user.Role(""), errs.New("token is expired")).Times(1)

		rec := httptest.PerformRequest(t, router, http.MethodGet, "/me", nil, "expired")
		httptest.AssertErrorResponse(t, rec, http.StatusUnauthorized, "Invalid or expired token")
	})
}

func TestRequireRoleAtLeast(t *testing.T) {
	ctrl := gomock.NewController(t)
	validator := usecasemock.NewMockTokenValidator(ctrl)
	router := newAuthRouter(t, validator)

	cases := []struct {
		name       string
		role       user.Role
		wantStatus int
	}{
		{"guest is forbidden", user.RoleGuest, http.StatusForbidden},
		{"manager is allowed", user.RoleManager, http.StatusOK},
		{"admin is allowed", user.RoleAdmin, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			validator.EXPECT().ValidateToken("token").Return(int64(1), tc.role, nil).Times(1)

			rec := httptest.PerformRequest(t, router, http.MethodGet, "/manager", nil, "token")
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}
