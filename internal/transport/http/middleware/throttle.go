package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-auth-api/internal/core/limiter"
	resp "go-auth-api/internal/transport/http/response"
)

// ThrottleRule 一条固定窗口限流规则；Key 返回空串表示本次请求不受该规则约束
type ThrottleRule struct {
	Name   string
	Limit  int
	Window time.Duration
	Key    func(c *gin.Context) string
}

// ThrottleByIP 按客户端 IP 限
func ThrottleByIP(name string, limit int, window time.Duration) ThrottleRule {
	return ThrottleRule{
		Name:   name,
		Limit:  limit,
		Window: window,
		Key:    func(c *gin.Context) string { return c.ClientIP() },
	}
}

// ThrottleByUser 按已认证用户限，要求挂在 Authenticate 之后
func ThrottleByUser(name string, limit int, window time.Duration) ThrottleRule {
	return ThrottleRule{
		Name:   name,
		Limit:  limit,
		Window: window,
		Key: func(c *gin.Context) string {
			if u := CurrentUser(c); u != nil {
				return u.ID
			}
			return ""
		},
	}
}

// Throttle Redis 固定窗口限流。store 为 nil（没配 Redis）时整体跳过。
// 超限返回 429 并带 X-RateLimit-* 头。
func Throttle(store *limiter.Store, l *zap.Logger, rules ...ThrottleRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.Next()
			return
		}
		for _, r := range rules {
			id := r.Key(c)
			if id == "" {
				continue
			}
			key := fmt.Sprintf("throttle:%s:%s", r.Name, id)
			n, ttl, err := store.Incr(c.Request.Context(), key, r.Window)
			if err != nil {
				// Redis 不可用时放行，限流只是保护手段不是功能
				l.Warn("throttle store unavailable", zap.String("rule", r.Name), zap.Error(err))
				continue
			}
			if n > int64(r.Limit) {
				reset := time.Now().Add(ttl).Unix()
				c.Header("X-RateLimit-Limit", strconv.Itoa(r.Limit))
				c.Header("X-RateLimit-Remaining", "0")
				c.Header("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
				resp.AbortFail(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
				return
			}
		}
		c.Next()
	}
}
