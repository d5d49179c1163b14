package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/anillosguillen/catalog_api/internal/utils"
)

// LoginRateLimiter throttles failed admin logins per client IP.
// Only failures spend tokens; a blocked IP is refused before the
// credential is checked.
type LoginRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	every    time.Duration
	burst    int
	now      func() time.Time
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginRateLimiter allows burst failures, refilled one per every.
func NewLoginRateLimiter(every time.Duration, burst int) *LoginRateLimiter {
	return &LoginRateLimiter{
		limiters: make(map[string]*ipLimiter),
		every:    every,
		burst:    burst,
		now:      time.Now,
	}
}

func (r *LoginRateLimiter) get(ip string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[ip]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(rate.Every(r.every), r.burst)}
		r.limiters[ip] = l
	}
	l.lastSeen = r.now()
	return l.limiter
}

// Blocked reports whether ip has used up its failed attempts.
func (r *LoginRateLimiter) Blocked(ip string) bool {
	return r.get(ip).TokensAt(r.now()) < 1
}

// Failure records a failed login from ip.
func (r *LoginRateLimiter) Failure(ip string) {
	r.get(ip).AllowN(r.now(), 1)
}

// Handle rejects requests from blocked IPs with 429.
func (r *LoginRateLimiter) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.Blocked(c.ClientIP()) {
			utils.ErrorFrom(c, utils.ErrTooManyAttempts)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Cleanup drops limiters idle for longer than idle. It blocks until stop is
// closed.
func (r *LoginRateLimiter) Cleanup(idle time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.sweep(idle)
		case <-stop:
			return
		}
	}
}

func (r *LoginRateLimiter) sweep(idle time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for ip, l := range r.limiters {
		if now.Sub(l.lastSeen) > idle {
			delete(r.limiters, ip)
		}
	}
}
