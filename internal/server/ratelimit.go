package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"leadflow/internal/api"
	"leadflow/internal/auth"
)

// RateLimiter keeps one token bucket per key. Keys are client IPs on the
// public surface and actor IDs once a request is authenticated, so an
// influencer flooding lead creation is throttled across all their IPs.
type RateLimiter struct {
	buckets map[string]*bucket
	mu      sync.Mutex
	rate    rate.Limit
	burst   int
	ttl     time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(rps float64, burst int, ttl time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate.Limit(rps),
		burst:   burst,
		ttl:     ttl,
	}

	go rl.evictIdle()

	return rl
}

// evictIdle drops buckets not seen within the TTL so the map stays bounded.
func (rl *RateLimiter) evictIdle() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		for key, b := range rl.buckets {
			if time.Since(b.lastSeen) > rl.ttl {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = time.Now()
	rl.mu.Unlock()

	return b.limiter.Allow()
}

// RateLimitMiddleware throttles by client IP. It runs before authentication
// and is the outer guard for all traffic, webhooks included.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	limiter := NewRateLimiter(rps, burst, 3*time.Minute)

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				api.ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// ActorRateLimitMiddleware throttles by the authenticated actor. Registered
// after the auth middleware on write-heavy routes; falls back to the client
// IP if the actor is somehow missing.
func ActorRateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	limiter := NewRateLimiter(rps, burst, 10*time.Minute)

	return func(c *gin.Context) {
		key := c.ClientIP()
		if actorID, ok := auth.GetActorID(c); ok {
			key = actorID.String()
		}

		if !limiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				api.ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
