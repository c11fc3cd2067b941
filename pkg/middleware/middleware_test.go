package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/apperr"
	"github.com/yeisme/filevault/pkg/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/boom", func(c *gin.Context) { c.String(http.StatusInternalServerError, "boom") })
	r.GET("/panic", func(*gin.Context) { panic("kaput") })

	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestRateLimitPerHeaderKey(t *testing.T) {
	r := newEngine(RateLimitMiddleware(configs.RateLimitConfig{
		Enabled: true, RPS: 0.001, Burst: 1, Key: "header:X-Api-Key",
	}))

	get := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set("X-Api-Key", key)

		return serve(r, req)
	}

	assert.Equal(t, http.StatusOK, get("a").Code)

	limited := get("a")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), "rate_limited")

	assert.Equal(t, http.StatusOK, get("b").Code, "other keys keep their own bucket")
}

func TestRateLimitDisabled(t *testing.T) {
	r := newEngine(RateLimitMiddleware(configs.RateLimitConfig{Enabled: false, RPS: 0.001, Burst: 1}))

	for range 3 {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/ok", nil)).Code)
	}
}

func TestCircuitBreakerOpensOnServerErrors(t *testing.T) {
	r := newEngine(CircuitBreakerMiddleware(configs.CircuitBreakerConfig{
		Enabled: true, FailureRate: 0.5, MinRequests: 2, IntervalSeconds: 60, TimeoutSeconds: 60, MaxRequestsInHalf: 1,
	}))

	for range 2 {
		assert.Equal(t, http.StatusInternalServerError, serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil)).Code)
	}

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")
}

func TestRecoveryWritesEnvelope(t *testing.T) {
	r := newEngine(RecoveryMiddleware())

	w := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"code":"internal_error","message":"internal server error"}`, w.Body.String())
}

func TestCORSReflectsWildcardWithCredentials(t *testing.T) {
	r := newEngine(CORSMiddleware(configs.CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true}, false))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Origin", "http://app.example")

	w := serve(r, req)
	assert.Equal(t, "http://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	r := newEngine(CORSMiddleware(configs.CORSConfig{AllowOrigins: []string{"http://localhost:5173"}}, false))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Origin", "http://evil.example")

	w := serve(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

type stubAuth struct {
	token string
}

func (s stubAuth) Authenticate(_ context.Context, token string) (*service.Session, error) {
	if token != s.token {
		return nil, apperr.Unauthorized("session expired")
	}

	return &service.Session{ID: token, UserID: "u1", Username: "alice"}, nil
}

func TestAuthMiddleware(t *testing.T) {
	conf := configs.AuthConfig{CookieName: "fv", SkipPaths: []string{"/open"}}

	r := gin.New()
	r.Use(AuthMiddleware(stubAuth{token: "good"}, conf))

	whoami := func(c *gin.Context) {
		sess, ok := SessionFrom(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}

		c.String(http.StatusOK, sess.Username)
	}
	r.GET("/me", whoami)
	r.GET("/open/ping", whoami)

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: "fv", Value: "good"})

		w := serve(r, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", w.Body.String())
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer good")

		assert.Equal(t, "alice", serve(r, req).Body.String())
	})

	t.Run("missing", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "authentication required")
	})

	t.Run("rejected token keeps the message", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer stale")

		w := serve(r, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "session expired")
	})

	t.Run("skipped path", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/open/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "anonymous", w.Body.String())
	})
}

func TestIsSkippedPath(t *testing.T) {
	skips := []string{"/api/auth/login", "/health/"}

	assert.True(t, isSkippedPath("/api/auth/login", skips))
	assert.True(t, isSkippedPath("/health/db", skips))
	assert.False(t, isSkippedPath("/api/auth/loginx", skips))
	assert.False(t, isSkippedPath("/api/files", skips))
	assert.False(t, isSkippedPath("/api/files", nil))
}
