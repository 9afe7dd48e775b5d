package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

func NewIPRateLimiter(perMinute, burst int) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		idle:     10 * time.Minute,
	}
}

func (rl *IPRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Prune drops visitors idle for longer than the idle window.
func (rl *IPRateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.idle)
	n := 0
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
			n++
		}
	}
	return n
}

// RateLimit rejects clients that exceed perMinute requests with burst
// headroom. A non-positive perMinute disables limiting. Idle visitors are
// pruned lazily every few minutes.
func RateLimit(perMinute, burst int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := NewIPRateLimiter(perMinute, burst)
	var (
		pruneMu   sync.Mutex
		lastPrune = time.Now()
	)

	return func(c *gin.Context) {
		pruneMu.Lock()
		if time.Since(lastPrune) > 5*time.Minute {
			lastPrune = time.Now()
			pruneMu.Unlock()
			limiter.Prune()
		} else {
			pruneMu.Unlock()
		}

		if !limiter.Allow(c.ClientIP()) {
			c.Header("Retry-After", strconv.Itoa(int((time.Minute / time.Duration(perMinute)).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "TooManyRequests",
				"message": "Too many requests",
			})
			return
		}
		c.Next()
	}
}
