package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/lunatria/starlight/internal/identity"
	"github.com/lunatria/starlight/internal/observability"
	"github.com/lunatria/starlight/internal/session"
)

const (
	// RequestIDHeader is the header name for request ID.
	RequestIDHeader = "X-Request-ID"

	// identityKey is the gin context key the authenticated identity is
	// stored under.
	identityKey = "identity"
)

// RequestID returns a middleware that assigns each request an ID,
// reusing the inbound header when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(
			observability.ContextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// Logging returns a middleware that logs completed requests, levelled
// by response status.
func Logging(logger observability.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []observability.Field{
			observability.String("method", c.Request.Method),
			observability.String("path", path),
			observability.Int("status", status),
			observability.Duration("latency", time.Since(start)),
			observability.String("clientIP", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, observability.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Error("request completed", fields...)
		case status >= 400:
			logger.Warn("request completed", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}

// Recovery returns a middleware that turns panics into 500 responses.
func Recovery(logger observability.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("handler panic",
					observability.Any("panic", r),
					observability.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

// SessionAuth returns a middleware that authenticates the request from
// the session cookie and loads the caller's identity. Requests without
// a valid session are rejected with 401.
func SessionAuth(cookieName string, sessions *session.Manager, directory identity.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(cookieName)
		if err != nil || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		userID, err := sessions.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		user, err := directory.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		c.Set(identityKey, user)
		c.Request = c.Request.WithContext(
			observability.ContextWithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// CurrentUserID returns the authenticated caller's user ID, if any.
func CurrentUserID(c *gin.Context) (string, bool) {
	user, ok := currentIdentity(c)
	if !ok {
		return "", false
	}
	return user.UserID, true
}

// IsAuthenticated reports whether the request carries a valid session.
func IsAuthenticated(c *gin.Context) bool {
	_, ok := currentIdentity(c)
	return ok
}

// currentIdentity returns the identity stored by SessionAuth.
func currentIdentity(c *gin.Context) (identity.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return identity.Identity{}, false
	}
	user, ok := v.(identity.Identity)
	return user, ok
}

// limiterIdleTTL is how long an idle client entry survives before it is
// eligible for eviction. An evicted client restarts with a full burst,
// which the idle window has refilled anyway.
const limiterIdleTTL = 15 * time.Minute

// limiterPruneThreshold is the map size that triggers an eviction scan.
const limiterPruneThreshold = 1024

// loginLimiter rate-limits login attempts per client IP. Idle entries
// are evicted so address churn cannot grow the map without bound.
type loginLimiter struct {
	mu      sync.Mutex
	clients map[string]*limiterEntry
	rate    rate.Limit
	burst   int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLoginLimiter(perMinute int) *loginLimiter {
	return &loginLimiter{
		clients: make(map[string]*limiterEntry),
		rate:    rate.Limit(float64(perMinute) / 60.0),
		burst:   perMinute,
	}
}

func (l *loginLimiter) allow(clientIP string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.clients) >= limiterPruneThreshold {
		l.prune(now)
	}

	entry, ok := l.clients[clientIP]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[clientIP] = entry
	}
	entry.lastSeen = now

	return entry.limiter.Allow()
}

// prune drops entries idle longer than limiterIdleTTL. Caller holds mu.
func (l *loginLimiter) prune(now time.Time) {
	for ip, entry := range l.clients {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(l.clients, ip)
		}
	}
}
