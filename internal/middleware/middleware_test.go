package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"myGroupBuy/business/recommendation"
	"myGroupBuy/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func serve(t *testing.T, authHeader string, h echo.HandlerFunc, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.GET("/users/:id", h, mw...)

	req := httptest.NewRequest(http.MethodGet, "/users/7", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, userID uint, role string) string {
	t.Helper()
	token, err := utils.GenerateJWT(userID, role, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestAuthMiddleware(t *testing.T) {
	auth := AuthMiddleware(testSecret)

	rec := serve(t, "", okHandler, auth)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(t, "Token abc", okHandler, auth)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(t, "Bearer not-a-jwt", okHandler, auth)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var gotID uint
	rec = serve(t, bearer(t, 7, "customer"), func(c echo.Context) error {
		gotID = c.Get("user_id").(uint)
		return okHandler(c)
	}, auth)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(7), gotID)
}

func TestRoleGuards(t *testing.T) {
	auth := AuthMiddleware(testSecret)

	rec := serve(t, bearer(t, 7, "customer"), okHandler, auth, AdminOnly())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(t, bearer(t, 1, "ADMIN"), okHandler, auth, AdminOnly())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, bearer(t, 7, "customer"), okHandler, auth, SupplierOrAdmin())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(t, bearer(t, 3, "supplier"), okHandler, auth, SupplierOrAdmin())
	assert.Equal(t, http.StatusOK, rec.Code)

	// path id is 7
	rec = serve(t, bearer(t, 7, "customer"), okHandler, auth, SelfOrAdmin())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, bearer(t, 8, "customer"), okHandler, auth, SelfOrAdmin())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTraceID(t *testing.T) {
	var seen string
	e := echo.New()
	e.GET("/", func(c echo.Context) error {
		seen = recommendation.TraceIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}, TraceID())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(echo.HeaderXRequestID))
}

func TestErrorHandler(t *testing.T) {
	rec := serve(t, "", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, rec.Body.String(), "short and stout")

	rec = serve(t, "", func(c echo.Context) error {
		return assert.AnError
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}
