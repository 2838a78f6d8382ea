// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client IP and forgets clients
// that have been quiet for a few minutes.
type ipRateLimiter struct {
	clients map[string]*clientLimiter
	mtx     sync.Mutex
	rate    rate.Limit
	burst   int
}

func newIPRateLimiter(r rate.Limit, burst int) *ipRateLimiter {
	rl := &ipRateLimiter{
		clients: make(map[string]*clientLimiter),
		rate:    r,
		burst:   burst,
	}
	go rl.evictIdle()
	return rl
}

func (rl *ipRateLimiter) evictIdle() {
	ticker := time.NewTicker(time.Minute)
	for range ticker.C {
		rl.mtx.Lock()
		for ip, client := range rl.clients {
			if time.Since(client.lastSeen) > 3*time.Minute {
				delete(rl.clients, ip)
			}
		}
		rl.mtx.Unlock()
	}
}

func (rl *ipRateLimiter) allow(ip string) bool {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	client, ok := rl.clients[ip]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[ip] = client
	}
	client.lastSeen = time.Now()
	return client.limiter.Allow()
}

func (rl *ipRateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}

// Tiers: browsing is cheap, credential guessing and receipt/manual uploads
// are not.
var (
	generalLimiter = newIPRateLimiter(rate.Every(time.Second), 10)
	authLimiter    = newIPRateLimiter(rate.Every(time.Minute/5), 5)
	uploadLimiter  = newIPRateLimiter(rate.Every(time.Minute/10), 10)
)

func GeneralRateLimit() gin.HandlerFunc {
	return generalLimiter.middleware()
}

func AuthRateLimit() gin.HandlerFunc {
	return authLimiter.middleware()
}

func UploadRateLimit() gin.HandlerFunc {
	return uploadLimiter.middleware()
}
