package http

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"lead-radar/internal/domain"
	"lead-radar/internal/metrics"
	"lead-radar/internal/service"
)

const currentUserKey = "lead-radar/current-user"

// TokenVerifier resolves a bearer token to its subject identifier.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AuthMiddleware authenticates requests with a bearer token and stores the
// resolved user in the context. Missing or malformed credentials, failed
// verification and unknown subjects are all rejected with 401.
func AuthMiddleware(tokens TokenVerifier, users service.UserService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			metrics.AuthRequests.WithLabelValues("missing").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		subject, err := tokens.Verify(raw)
		if err != nil {
			metrics.AuthRequests.WithLabelValues("invalid").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), subject)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				metrics.AuthRequests.WithLabelValues("unknown_subject").Inc()
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
				return
			}
			metrics.AuthRequests.WithLabelValues("error").Inc()
			logger.WithError(err).Error("resolve token subject")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		metrics.AuthRequests.WithLabelValues("resolved").Inc()
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user resolved by AuthMiddleware.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok && user != nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowAll := slices.Contains(origins, "*")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || slices.Contains(origins, origin)) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.FullPath(),
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		}
		if fields["path"] == "" {
			fields["path"] = c.Request.URL.Path
		}
		if user, ok := CurrentUser(c); ok {
			fields["user_id"] = user.ID
		}
		entry := logger.WithFields(fields)
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

const (
	limiterIdleTTL    = 10 * time.Minute
	limiterSweepEvery = time.Minute
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// ipRateLimiter keeps one token bucket per client IP. Buckets idle for
// longer than limiterIdleTTL are dropped; by then they have refilled anyway.
type ipRateLimiter struct {
	rps       float64
	burst     int
	now       func() time.Time
	lastSweep atomic.Int64
	limiters  sync.Map // map[string]*ipLimiter
}

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	l := &ipRateLimiter{rps: rps, burst: burst, now: time.Now}
	l.lastSweep.Store(l.now().UnixNano())
	return l
}

func (l *ipRateLimiter) get(key string) *rate.Limiter {
	now := l.now().UnixNano()
	l.maybeSweep(now)

	v, ok := l.limiters.Load(key)
	if !ok {
		v, _ = l.limiters.LoadOrStore(key, &ipLimiter{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)})
	}
	entry := v.(*ipLimiter)
	entry.lastSeen.Store(now)
	return entry.limiter
}

func (l *ipRateLimiter) maybeSweep(now int64) {
	last := l.lastSweep.Load()
	if now-last < int64(limiterSweepEvery) || !l.lastSweep.CompareAndSwap(last, now) {
		return
	}
	cutoff := now - int64(limiterIdleTTL)
	l.limiters.Range(func(k, v any) bool {
		if v.(*ipLimiter).lastSeen.Load() < cutoff {
			l.limiters.Delete(k)
		}
		return true
	})
}

func (l *ipRateLimiter) size() int {
	n := 0
	l.limiters.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

func (l *ipRateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.get(ip).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimit.WithLabelValues("rejected").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		metrics.RateLimit.WithLabelValues("allowed").Inc()
		c.Next()
	}
}
