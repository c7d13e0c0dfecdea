package controller_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/birlik/portal-auth/internal/api"
	"github.com/birlik/portal-auth/internal/controller"
	"github.com/birlik/portal-auth/internal/models"
	"github.com/birlik/portal-auth/internal/ratelimit"
	"github.com/birlik/portal-auth/internal/service"
	"github.com/birlik/portal-auth/internal/storage/memory"
	"github.com/birlik/portal-auth/internal/util"
)

type testServer struct {
	echo   *echo.Echo
	tokens *service.TokenService
	store  *memory.Storage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := zap.NewNop().Sugar()
	store := memory.NewStorage()
	tokens := service.NewTokenService(&util.TokenConfig{
		JwtSecretKey: []byte("test-secret"),
		AccessTTL:    time.Hour,
	})
	auth := service.NewAuthService(tokens, store, service.NewWebhookService(log, ""), log)
	sanitizer := service.NewSanitizer(log)

	ctrl := controller.NewController(auth, sanitizer, store, log)

	limiters := api.Limiters{
		General: ratelimit.NewMemoryLimiter(1000, time.Minute),
		Auth:    ratelimit.NewMemoryLimiter(1000, time.Minute),
	}

	srv := api.NewAPI(ctrl, tokens, limiters, api.NewMetrics(), &util.ServerConfig{
		ServerAddr:      "localhost:0",
		WriteTimeout:    time.Second,
		ReadTimeout:     time.Second,
		IdleTimeout:     time.Second,
		GracefulTimeout: time.Second,
	}, log)
	srv.RegisterRoutes()

	return &testServer{echo: srv.Server(), tokens: tokens, store: store}
}

func (ts *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) adminToken(t *testing.T) string {
	t.Helper()

	token, err := ts.tokens.Issue(models.Principal{
		UserID:   "64f0c2a1b3e4d5c6a7b8c9d0",
		Username: "admin",
		Role:     models.RoleAdmin,
	}, time.Now())
	require.NoError(t, err)
	return token
}

func TestRegisterLoginMe_Flow(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/auth/register", "",
		`{"username":"ayse","email":"ayse@example.com","password":"a-strong-password","role":"partner"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password_hash")

	rec = ts.do(http.MethodPost, "/api/auth/login", "",
		`{"username":"ayse","password":"a-strong-password"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var tokenResp models.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokenResp))
	assert.Equal(t, "bearer", tokenResp.TokenType)
	assert.Equal(t, int64(3600), tokenResp.ExpiresIn)

	rec = ts.do(http.MethodGet, "/api/auth/me", tokenResp.AccessToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"ayse"`)
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"short password", `{"username":"ayse","email":"a@b.com","password":"short"}`},
		{"bad email", `{"username":"ayse","email":"nope","password":"a-strong-password"}`},
		{"missing username", `{"email":"a@b.com","password":"a-strong-password"}`},
		{"not json", `this is not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/auth/register", "",
		`{"username":"ayse","email":"ayse@example.com","password":"a-strong-password"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodPost, "/api/auth/login", "",
		`{"username":"ayse","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"reason":"invalid credentials"}`, rec.Body.String())

	// Unknown user gets the identical response.
	rec = ts.do(http.MethodPost, "/api/auth/login", "",
		`{"username":"nobody","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"reason":"invalid credentials"}`, rec.Body.String())
}

func TestRegister_Duplicate(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	body := `{"username":"ayse","email":"ayse@example.com","password":"a-strong-password"}`

	rec := ts.do(http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestContent_AdminFlow(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	token := ts.adminToken(t)

	rec := ts.do(http.MethodPost, "/api/admin/contents", token,
		`{"slug":"landing","title":"Landing <Page>","fields":{"content":"hello <b>world</b>","tracking_code":"gtag('config','G-XYZ');"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Content
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Landing Page", created.Title)
	assert.Equal(t, "hello &lt;b&gt;world&lt;/b&gt;", created.Fields["content"])

	rec = ts.do(http.MethodGet, "/api/contents/landing", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPut, "/api/admin/contents/"+created.ID.Hex(), token,
		`{"slug":"landing","title":"Updated","fields":{"content":"fresh copy"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Updated"`)

	rec = ts.do(http.MethodGet, "/api/contents/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContent_SanitizerRejectsInjection(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	token := ts.adminToken(t)

	rec := ts.do(http.MethodPost, "/api/admin/contents", token,
		`{"slug":"landing","title":"ok","fields":{"content":"<script>alert(1)</script>"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "security violation")

	rec = ts.do(http.MethodPost, "/api/admin/contents", token,
		`{"slug":"landing2","title":"ok","fields":{"tracking_code":"<script>document.cookie</script>"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContent_RoleGate(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	userToken, err := ts.tokens.Issue(models.Principal{
		UserID:   "64f0c2a1b3e4d5c6a7b8c9d1",
		Username: "mehmet",
		Role:     models.RolePartner,
	}, time.Now())
	require.NoError(t, err)

	rec := ts.do(http.MethodPost, "/api/admin/contents", userToken, `{"slug":"x","title":"y"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodPost, "/api/admin/contents", "", `{"slug":"x","title":"y"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
