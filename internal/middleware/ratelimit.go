package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"vasset/resolver-service/internal/config"
)

// ipLimiterTTL 空闲超过该时间的 IP 限流器会被清理
const ipLimiterTTL = 10 * time.Minute

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 限流器
type RateLimiter struct {
	globalLimiter *rate.Limiter

	mu         sync.Mutex
	ipLimiters map[string]*ipLimiter
	ipRPS      rate.Limit
	burst      int
	lastSweep  time.Time
}

// NewRateLimiter 创建限流器, GlobalRPS 为 0 时不做全局限流
func NewRateLimiter(cfg *config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		ipLimiters: make(map[string]*ipLimiter),
		ipRPS:      rate.Limit(cfg.IPRPS),
		burst:      cfg.Burst,
		lastSweep:  time.Now(),
	}
	if cfg.GlobalRPS > 0 {
		rl.globalLimiter = rate.NewLimiter(rate.Limit(cfg.GlobalRPS), cfg.Burst*2)
	}
	return rl
}

// allowIP IP 限流检查
func (rl *RateLimiter) allowIP(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > ipLimiterTTL {
		for key, l := range rl.ipLimiters {
			if now.Sub(l.lastSeen) > ipLimiterTTL {
				delete(rl.ipLimiters, key)
			}
		}
		rl.lastSweep = now
	}

	l, ok := rl.ipLimiters[ip]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(rl.ipRPS, rl.burst)}
		rl.ipLimiters[ip] = l
	}
	l.lastSeen = now

	return l.limiter.Allow()
}

// IPRateLimit IP 限流中间件
func IPRateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 全局限流
		if rl.globalLimiter != nil && !rl.globalLimiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "global rate limit exceeded, please try again later",
			})
			return
		}

		if !rl.allowIP(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "ip rate limit exceeded, please try again later",
			})
			return
		}

		c.Next()
	}
}
