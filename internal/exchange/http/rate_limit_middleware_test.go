package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func newLoginRouter(ctx context.Context, rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(LoginRateLimitMiddleware(ctx, rps, burst, slog.Default()))
	router.POST("/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func postLogin(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	router.ServeHTTP(w, req)
	return w
}

func TestLoginRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := newLoginRouter(ctx, 10.0, 20)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, postLogin(router, "").Code)
	}
}

func TestLoginRateLimitMiddleware_BlocksRequestsExceedingLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := newLoginRouter(ctx, 0.5, 2)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, postLogin(router, "").Code)
	}

	w := postLogin(router, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "too_many_login_attempts")
}

func TestLoginRateLimitMiddleware_LimitsPerIP(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := newLoginRouter(ctx, 0.5, 1)

	assert.Equal(t, http.StatusOK, postLogin(router, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, postLogin(router, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, postLogin(router, "10.0.0.2:1234").Code)
}

func TestLoginThrottle_RetryAfterRoundsUp(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	throttle := newLoginThrottle(0.4, 1)
	throttle.now = func() time.Time { return now }

	ok, _ := throttle.attempt("10.0.0.1")
	assert.True(t, ok)

	ok, retryAfter := throttle.attempt("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 3, retryAfter)

	now = now.Add(3 * time.Second)
	ok, _ = throttle.attempt("10.0.0.1")
	assert.True(t, ok)
}

func TestLoginThrottle_Forget(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	throttle := newLoginThrottle(1, 1)
	throttle.now = func() time.Time { return now }

	throttle.attempt("10.0.0.1")
	now = now.Add(2 * time.Hour)
	throttle.attempt("10.0.0.2")

	assert.Equal(t, 1, throttle.forget(now.Add(-time.Hour)))
	assert.NotContains(t, throttle.clients, "10.0.0.1")
	assert.Contains(t, throttle.clients, "10.0.0.2")
}
