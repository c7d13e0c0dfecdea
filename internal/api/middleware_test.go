package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/birlik/portal-auth/internal/models"
	"github.com/birlik/portal-auth/internal/ratelimit"
	"github.com/birlik/portal-auth/internal/service"
	"github.com/birlik/portal-auth/internal/util"
)

func newTestEcho(t *testing.T) (*echo.Echo, *service.TokenService, *Metrics) {
	t.Helper()

	log := zap.NewNop().Sugar()
	metrics := NewMetrics()
	tokens := service.NewTokenService(&util.TokenConfig{
		JwtSecretKey: []byte("test-secret"),
		AccessTTL:    time.Hour,
	})

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(log, metrics)
	return e, tokens, metrics
}

func issueFor(t *testing.T, tokens *service.TokenService, role models.Role) string {
	t.Helper()

	token, err := tokens.Issue(models.Principal{
		UserID:   "64f0c2a1b3e4d5c6a7b8c9d0",
		Username: "ayse",
		Role:     role,
	}, time.Now())
	require.NoError(t, err)
	return token
}

func TestBearerAuth(t *testing.T) {
	t.Parallel()

	e, tokens, _ := newTestEcho(t)
	e.GET("/protected", func(c echo.Context) error {
		principal := PrincipalFromContext(c)
		return c.JSON(http.StatusOK, principal)
	}, BearerAuth(tokens))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
		{"valid token", "Bearer " + issueFor(t, tokens, models.RoleUser), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.authHeader)
			}
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestBearerAuth_ExpiredToken(t *testing.T) {
	t.Parallel()

	e, tokens, _ := newTestEcho(t)
	e.GET("/protected", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, BearerAuth(tokens))

	expired, err := tokens.IssueWithTTL(models.Principal{
		UserID:   "64f0c2a1b3e4d5c6a7b8c9d0",
		Username: "ayse",
		Role:     models.RoleUser,
	}, time.Now(), -1*time.Second)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+expired)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"reason":"invalid or expired token"}`, rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	e, tokens, _ := newTestEcho(t)
	e.GET("/admin", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, BearerAuth(tokens), RequireRole(models.RoleAdmin, models.RoleSuperAdmin))

	tests := []struct {
		name       string
		role       models.Role
		wantStatus int
	}{
		{"admin allowed", models.RoleAdmin, http.StatusOK},
		{"superadmin allowed", models.RoleSuperAdmin, http.StatusOK},
		{"user forbidden", models.RoleUser, http.StatusForbidden},
		{"influencer forbidden", models.RoleInfluencer, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+issueFor(t, tokens, tt.role))
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	e, _, _ := newTestEcho(t)
	limiter := ratelimit.NewMemoryLimiter(2, time.Hour)
	e.GET("/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RateLimit(limiter, NewMetrics(), zap.NewNop().Sugar()))

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)

	// A different peer address has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.8:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPeerAddr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "203.0.113.7", peerAddr("203.0.113.7:1234"))
	assert.Equal(t, "2001:db8::1", peerAddr("[2001:db8::1]:1234"))
	assert.Equal(t, "weird-input", peerAddr("weird-input"))
}
