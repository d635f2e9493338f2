package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tracklab/trackheat/pkg/response"
)

// RateLimiter caps requests per client IP over a sliding window. The
// status API is cheap to serve but sits next to a running render, so a
// misbehaving poller should not be able to steal cycles from it.
type RateLimiter struct {
	mu     sync.Mutex
	seen   map[string][]time.Time
	limit  int
	window time.Duration
}

// NewRateLimiter allows limit requests per window for each client IP.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		seen:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
	go rl.sweep()
	return rl
}

// sweep drops clients whose whole history has aged out, so the map does
// not grow with every IP ever seen.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, times := range rl.seen {
			if recent := prune(times, now, rl.window); len(recent) == 0 {
				delete(rl.seen, ip)
			} else {
				rl.seen[ip] = recent
			}
		}
		rl.mu.Unlock()
	}
}

// Allow reports whether one more request from ip fits in the window.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	recent := prune(rl.seen[ip], now, rl.window)
	if len(recent) >= rl.limit {
		rl.seen[ip] = recent
		return false
	}
	rl.seen[ip] = append(recent, now)
	return true
}

func prune(times []time.Time, now time.Time, window time.Duration) []time.Time {
	var recent []time.Time
	for _, t := range times {
		if now.Sub(t) < window {
			recent = append(recent, t)
		}
	}
	return recent
}

// RateLimit rejects clients that exceed limit requests per window.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(limit, window)

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			response.TooManyRequests(c, "rate limit exceeded, try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}
