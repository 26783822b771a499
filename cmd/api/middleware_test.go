package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ddiaz-itx/ai-interviewer/internal/auth"
	"github.com/ddiaz-itx/ai-interviewer/internal/config"
	"github.com/ddiaz-itx/ai-interviewer/internal/handler"
	"github.com/ddiaz-itx/ai-interviewer/pkg"
)

func newTestApp(t *testing.T) *application {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hash, err := pkg.HashPassword("pw")
	require.NoError(t, err)
	cfg := &config.Config{
		Env:     "test",
		Limiter: config.RateLimiterConfig{RPS: 1, Burst: 2, Enabled: true},
		CORS:    config.CORSConfig{TrustedOrigins: []string{"http://localhost:5173"}},
	}
	maker := auth.NewJWTMaker(strings.Repeat("s", 32), time.Minute, time.Hour)
	return &application{
		Logger: zap.NewNop(),
		Config: cfg,
		Handler: &handler.Handler{
			Logger: zap.NewNop(),
			Auth:   auth.NewAuthenticator("admin", hash, maker),
		},
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := newRateLimiter(1, 2)
	now := time.Now()

	assert.True(t, rl.allow("1.1.1.1", now))
	assert.True(t, rl.allow("1.1.1.1", now))
	assert.False(t, rl.allow("1.1.1.1", now))
	assert.True(t, rl.allow("2.2.2.2", now))

	assert.True(t, rl.allow("1.1.1.1", now.Add(time.Second)))

	rl.allow("3.3.3.3", now.Add(10*time.Minute))
	assert.Len(t, rl.clients, 1)
}

func TestAdminAuthMiddleware(t *testing.T) {
	app := newTestApp(t)
	r := gin.New()
	r.GET("/me", app.AdminAuthMiddleware(), app.Handler.Me)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	res, err := app.Handler.Auth.Login("admin", "pw")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+res.AccessToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"admin"`)

	// refresh tokens are not accepted as access tokens
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+res.RefreshToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestIDAndCORS(t *testing.T) {
	app := newTestApp(t)
	r := gin.New()
	r.Use(requestID(), app.cors())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set(requestIDHeader, "fixed")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "fixed", w.Header().Get(requestIDHeader))
}

func TestRateLimitMiddleware(t *testing.T) {
	app := newTestApp(t)
	r := gin.New()
	r.GET("/x", app.rateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
