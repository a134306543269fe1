package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiterConfig struct {
	RequestsPerSecond int
	Burst             int
	CleanupInterval   time.Duration
	TTL               time.Duration
}

// visitors tracks one limiter per client IP.
type visitors struct {
	mu    sync.Mutex
	byIP  map[string]*visitor
	rps   int
	burst int
}

func (v *visitors) get(ip string) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()

	vis, exists := v.byIP[ip]
	if !exists {
		limiter := rate.NewLimiter(rate.Limit(v.rps), v.burst)
		v.byIP[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	vis.lastSeen = time.Now()
	return vis.limiter
}

func (v *visitors) cleanup(ttl time.Duration, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for range t.C {
		v.mu.Lock()
		for ip, vis := range v.byIP {
			if time.Since(vis.lastSeen) > ttl {
				delete(v.byIP, ip)
			}
		}
		v.mu.Unlock()
	}
}

// RateLimiterMiddleware limits every client IP to the configured rate.
// Limiters of idle clients are dropped after TTL.
func RateLimiterMiddleware(config RateLimiterConfig) gin.HandlerFunc {
	if config.CleanupInterval == 0 {
		config.CleanupInterval = time.Minute
	}
	if config.TTL == 0 {
		config.TTL = 3 * time.Minute
	}
	if config.Burst <= 0 {
		config.Burst = config.RequestsPerSecond
	}

	v := &visitors{
		byIP:  make(map[string]*visitor),
		rps:   config.RequestsPerSecond,
		burst: config.Burst,
	}

	go v.cleanup(config.TTL, config.CleanupInterval)

	return func(c *gin.Context) {
		limiter := v.get(c.ClientIP())

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":     "Too many requests",
				"requestID": c.GetString("requestID"),
			})
			return
		}

		c.Next()
	}
}
