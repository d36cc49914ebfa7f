package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-auth-api/internal/domain"
	resp "go-auth-api/internal/transport/http/response"
)

const ctxUserKey = "currentUser"

// UserResolver access token → 用户，由 AuthService 实现
type UserResolver interface {
	ResolveAccess(ctx context.Context, token string) (*domain.User, error)
}

// Authenticate 提取 Bearer token 并解析出用户挂到 context；
// 任何解析失败只回一句 401，不暴露具体原因
func Authenticate(r UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.AbortFail(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		u, err := r.ResolveAccess(c.Request.Context(), strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			resp.AbortFail(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		c.Set(ctxUserKey, u)
		c.Next()
	}
}

// CurrentUser 已过 Authenticate 的路由里取当前用户
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(ctxUserKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

// RequireAdmin 角色闸门，挂在 Authenticate 之后
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil || !u.IsAdmin() {
			resp.AbortFail(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Next()
	}
}
