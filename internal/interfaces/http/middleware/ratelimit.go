package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bidhub/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyedLimiter keeps one token bucket per key and forgets idle keys
type KeyedLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter allows perSecond sustained requests per key with the given burst
func NewKeyedLimiter(perSecond float64, burst int, idleTTL time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Allow takes a token from key's bucket
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)
	l.evictLocked(now)
	return allowed
}

// evictLocked drops buckets idle for longer than idleTTL; a fresh bucket starts full
func (l *KeyedLimiter) evictLocked(now time.Time) {
	if l.idleTTL <= 0 || len(l.buckets) < 1024 {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, key)
		}
	}
}

// Len returns the number of tracked keys
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RateLimitByBidder throttles each bidder separately, falling back to the client IP.
// It must run after BidderIdentity.
func RateLimitByBidder(l *KeyedLimiter) gin.HandlerFunc {
	retryAfter := "1"
	if l.limit > 0 && float64(l.limit) < 1 {
		retryAfter = strconv.Itoa(int(1/float64(l.limit)) + 1)
	}
	return func(c *gin.Context) {
		key := GetBidderID(c)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}
		if !l.Allow(key) {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited, "Too many bids, slow down", GetRequestID(c)))
			return
		}
		c.Next()
	}
}
