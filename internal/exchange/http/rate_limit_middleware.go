package http

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/inesdata/dataspace-tools/internal/httputil"
)

const (
	loginSweepInterval = 5 * time.Minute
	loginForgetAfter   = time.Hour
)

// loginThrottle keeps one token bucket per client address. Every login
// attempt costs a password grant against Keycloak, so buckets are small.
type loginThrottle struct {
	mu      sync.Mutex
	clients map[string]*loginBucket
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type loginBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLoginThrottle(rps float64, burst int) *loginThrottle {
	return &loginThrottle{
		clients: make(map[string]*loginBucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// attempt spends one token of addr. When none is left it returns the wait
// until the next one, rounded up to whole seconds.
func (t *loginThrottle) attempt(addr string) (bool, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	bucket, ok := t.clients[addr]
	if !ok {
		bucket = &loginBucket{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.clients[addr] = bucket
	}
	bucket.lastSeen = now

	if bucket.limiter.AllowN(now, 1) {
		return true, 0
	}
	reservation := bucket.limiter.ReserveN(now, 1)
	wait := reservation.DelayFrom(now)
	reservation.CancelAt(now)
	return false, max(1, int(math.Ceil(wait.Seconds())))
}

// forget drops the buckets of clients unseen since cutoff and returns how
// many remain.
func (t *loginThrottle) forget(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	for addr, bucket := range t.clients {
		if bucket.lastSeen.Before(cutoff) {
			delete(t.clients, addr)
		}
	}
	return len(t.clients)
}

func (t *loginThrottle) sweep(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.forget(t.now().Add(-idle))
		}
	}
}

// LoginRateLimitMiddleware throttles POST /v1/login per client address and
// answers 429 with Retry-After once the bucket is empty. The sweeper that
// forgets idle clients stops with ctx.
func LoginRateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	throttle := newLoginThrottle(rps, burst)
	go throttle.sweep(ctx, loginSweepInterval, loginForgetAfter)

	return func(c *gin.Context) {
		addr := c.ClientIP()
		ok, retryAfter := throttle.attempt(addr)
		if ok {
			c.Next()
			return
		}

		logger.Warn("login throttled",
			slog.String("client_ip", addr),
			slog.Int("retry_after_seconds", retryAfter),
		)
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, httputil.ErrorResponse{
			Error:   "too_many_login_attempts",
			Message: "Too many login attempts, wait before signing in to the connector again",
		})
	}
}
