package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trackscan/trackscan/config"
	"github.com/trackscan/trackscan/models"
	"golang.org/x/time/rate"
)

// Eviction cadence for idle limiter buckets. A bucket untouched for
// idleAfter is forgotten; a returning caller simply gets a fresh one.
const (
	sweepEvery = 5 * time.Minute
	idleAfter  = time.Hour
)

// bucketPool hands out one token bucket per caller identity and forgets
// buckets that go idle, so the pool cannot grow without bound.
type bucketPool struct {
	mu      sync.Mutex
	cfg     config.RateLimitConfig
	buckets map[string]*bucket
}

type bucket struct {
	lim     *rate.Limiter
	touched time.Time
}

func newBucketPool(cfg config.RateLimitConfig) *bucketPool {
	p := &bucketPool{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
	}
	go p.sweep()
	return p
}

// take returns the limiter for identity, creating it on first sight.
func (p *bucketPool) take(identity string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.buckets[identity]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(p.cfg.RequestsPerSecond), p.cfg.Burst)}
		p.buckets[identity] = b
	}
	b.touched = time.Now()
	return b.lim
}

func (p *bucketPool) sweep() {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-idleAfter)
		p.mu.Lock()
		for id, b := range p.buckets {
			if b.touched.Before(cutoff) {
				delete(p.buckets, id)
			}
		}
		p.mu.Unlock()
	}
}

// RateLimit returns per-identity token-bucket rate limiting middleware
// backed by golang.org/x/time/rate. Identity is the authenticated API key
// when the auth middleware ran, the client IP otherwise.
//
// Browser analyses are expensive, so the default budget is deliberately
// small.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	pool := newBucketPool(cfg)

	return func(c *gin.Context) {
		if !pool.take(identity(c)).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.AnalyzeResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, retry later",
				},
			})
			return
		}
		c.Next()
	}
}

// identity resolves who is asking: the API key stored by Auth, or the
// client IP on open deployments.
func identity(c *gin.Context) string {
	if v, ok := c.Get(IdentityKey); ok {
		if key, ok := v.(string); ok && key != "" {
			return key
		}
	}
	return c.ClientIP()
}
