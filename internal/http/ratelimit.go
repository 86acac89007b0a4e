package http

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultBucketMaxAge      = time.Hour
	defaultCleanupInterval   = 5 * time.Minute
	defaultBurstCapacity     = 10
	defaultRequestsPerMinute = 60
)

// RateLimiterConfig configures a token-bucket rate limiter.
type RateLimiterConfig struct {
	// RequestsPerMinute is the sustained refill rate. Defaults to 60.
	RequestsPerMinute int
	// Burst is the bucket capacity. Defaults to 10.
	Burst int
}

type rateBucket struct {
	tokens    float64
	lastCheck time.Time
}

// RateLimiter applies per-key token-bucket rate limiting. Safe for concurrent
// use. A background goroutine evicts stale buckets; call Close to stop it.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*rateBucket
	burst    int
	rate     float64 // tokens per second
	maxAge   time.Duration
	stopOnce sync.Once
	stop     chan struct{}
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = defaultRequestsPerMinute
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurstCapacity
	}

	l := &RateLimiter{
		buckets: make(map[string]*rateBucket),
		burst:   burst,
		rate:    float64(perMinute) / 60.0,
		maxAge:  defaultBucketMaxAge,
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether the caller identified by key may proceed, consuming
// one token when it may.
func (l *RateLimiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[key]
	if !ok {
		bucket = &rateBucket{
			tokens:    float64(l.burst),
			lastCheck: now,
		}
		l.buckets[key] = bucket
	}

	elapsed := now.Sub(bucket.lastCheck).Seconds()
	bucket.tokens += elapsed * l.rate
	if bucket.tokens > float64(l.burst) {
		bucket.tokens = float64(l.burst)
	}
	bucket.lastCheck = now

	if bucket.tokens < 1 {
		return false
	}
	bucket.tokens--
	return true
}

// Close stops the cleanup goroutine.
func (l *RateLimiter) Close() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}

func (l *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.evictStale()
		}
	}
}

func (l *RateLimiter) evictStale() {
	cutoff := time.Now().Add(-l.maxAge)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, bucket := range l.buckets {
		if bucket.lastCheck.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// rateLimit gates a route class behind the given limiter. Keys prefer the
// resolved user identity over the client address. A nil limiter disables
// limiting.
func (h *Handler) rateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		if !limiter.Allow(rateLimitKey(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	if user := currentUser(c); user != nil {
		return "user:" + user.ID
	}
	return "ip:" + clientAddress(c)
}

// clientAddress prefers proxy-set headers over the socket peer.
func clientAddress(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if addr := strings.TrimSpace(first); addr != "" {
			return addr
		}
	}
	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" {
		return realIP
	}
	return c.ClientIP()
}
