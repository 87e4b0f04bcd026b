package middleware

import (
	"math"
	"net/http"
	"sync"
	"time"

	"rillstats/pkg/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const minLimiterIdle = time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore stores per-IP rate limiters. An entry idle long enough for
// its bucket to refill is dropped: a fresh limiter behaves the same.
type rateLimiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burstSize int
	idleTTL   time.Duration
	lastPrune time.Time
	now       func() time.Time
}

func newRateLimiterStore(r rate.Limit, burst int) *rateLimiterStore {
	idle := minLimiterIdle
	if r > 0 {
		refill := time.Duration(math.Ceil(float64(burst) / float64(r) * float64(time.Second)))
		if refill > idle {
			idle = refill
		}
	}
	return &rateLimiterStore{
		limiters:  make(map[string]*limiterEntry),
		rate:      r,
		burstSize: burst,
		idleTTL:   idle,
		now:       time.Now,
	}
}

// allow takes one token from key's bucket.
func (s *rateLimiterStore) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastPrune) >= s.idleTTL {
		s.prune(now)
	}

	entry, exists := s.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.rate, s.burstSize)}
		s.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (s *rateLimiterStore) prune(now time.Time) {
	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) >= s.idleTTL {
			delete(s.limiters, key)
		}
	}
	s.lastPrune = now
}

func (s *rateLimiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// NewWebSocketRateLimitMiddleware limits how often one client IP may open a
// telemetry connection. Requests over the limit are refused before the
// upgrade. The client IP comes from gin's ClientIP, so X-Forwarded-For counts
// only when the engine trusts the peer as a proxy.
func NewWebSocketRateLimitMiddleware(cfg *config.Config, logger *zap.SugaredLogger) gin.HandlerFunc {
	wsCfg := cfg.RateLimiting.WebSocket
	if !wsCfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	store := newRateLimiterStore(rate.Limit(float64(wsCfg.ConnectionsPerMinute)/60.0), wsCfg.Burst)
	return newRateLimitHandler(store, logger)
}

func newRateLimitHandler(store *rateLimiterStore, logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !store.allow(ip) {
			logger.Warnw("connection rate limit exceeded", "ip", ip)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "connection rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// RecoveryMiddleware logs a panicking handler and answers 500.
func RecoveryMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Errorw("panic recovered",
					"error", err,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()

		c.Next()
	}
}
