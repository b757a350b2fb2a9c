package middleware

import (
	"net/http"
	"sync"

	"github.com/GriffinCanCode/rulekit/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// DefaultMaxClients bounds the number of per-IP limiters kept in memory.
const DefaultMaxClients = 10000

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	MaxClients        int
}

// DefaultRateLimitConfig returns production-ready rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             200,
		MaxClients:        DefaultMaxClients,
	}
}

// RateLimitFromConfig converts the environment settings.
func RateLimitFromConfig(cfg config.RateLimitConfig) RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		MaxClients:        DefaultMaxClients,
	}
}

// RateLimit creates a per-IP rate limiting middleware. Least recently seen
// clients are evicted once MaxClients limiters exist.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	size := cfg.MaxClients
	if size <= 0 {
		size = DefaultMaxClients
	}
	clients, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		panic(err)
	}
	var mu sync.Mutex

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		limiter, ok := clients.Get(ip)
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
			clients.Add(ip, limiter)
		}
		mu.Unlock()

		if !limiter.Allow() {
			reject(c)
			return
		}
		c.Next()
	}
}

// GlobalRateLimit creates a global rate limiting middleware.
func GlobalRateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			reject(c)
			return
		}
		c.Next()
	}
}

func reject(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error": "rate limit exceeded",
	})
}
