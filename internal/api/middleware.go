// internal/api/middleware.go
package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Corphon/StoryboardMCP/internal/utils"
)

const requestIDKey = "request_id"

// requestIDMiddleware 为每个请求分配ID，沿用客户端传入的 X-Request-ID
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// metricsMiddleware 记录请求数量、状态码和耗时
func metricsMiddleware(metrics *utils.StoryboardMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordAPIRequest(endpoint, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

// corsMiddleware 实现跨域资源共享
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RateLimiter 固定窗口限流，按客户端IP计数
type RateLimiter struct {
	visitors map[string]*visitor
	limit    int
	window   time.Duration
	mu       sync.Mutex
	now      func() time.Time
}

type visitor struct {
	remaining int
	reset     time.Time
}

// NewRateLimiter 每个客户端在 window 内最多 limit 次请求
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow 检查并消耗一次配额，返回剩余次数和窗口重置时间
func (rl *RateLimiter) Allow(key string) (bool, int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[key]
	if !exists || now.After(v.reset) {
		v = &visitor{remaining: rl.limit, reset: now.Add(rl.window)}
		rl.visitors[key] = v
	}
	if v.remaining <= 0 {
		return false, 0, v.reset
	}
	v.remaining--
	return true, v.remaining, v.reset
}

// Cleanup 移除窗口已过期的客户端
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, v := range rl.visitors {
		if now.After(v.reset) {
			delete(rl.visitors, key)
			removed++
		}
	}
	return removed
}

// Middleware 超出配额时返回 429
func (rl *RateLimiter) Middleware(rh *ResponseHelper) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining, reset := rl.Allow(c.ClientIP())

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rl.limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", reset.Unix()))

		if !allowed {
			rh.Error(c, http.StatusTooManyRequests, ErrorRateLimited, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}
