package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-auth-api/internal/core/config"
	"go-auth-api/internal/core/limiter"
	"go-auth-api/internal/transport/http/handler"
	mdw "go-auth-api/internal/transport/http/middleware"
)

type Handlers struct {
	Auth  *handler.AuthHandler
	Users *handler.UserHandler
	Roles *handler.RoleHandler
}

// NewEngine 组装整条中间件链和 /api/v1 路由树。
// throttle 为 nil 时跳过 Redis 限流，只剩进程内令牌桶。
func NewEngine(l *zap.Logger, cfg *config.Config, resolver mdw.UserResolver, throttle *limiter.Store, hs Handlers) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// 全局中间件
	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		ginzap.RecoveryWithZap(l, true),
		mdw.Metrics(),
		mdw.AccessLog(l),
		cors.Default(),
	)

	// 健康检查 + 指标
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(mdw.Throttle(throttle, l,
		mdw.ThrottleByIP("api/ip", cfg.RateLimit.APIPerMinute, time.Minute)))

	// /auth 整组再套一层更紧的 IP 限流
	authGrp := api.Group("/auth")
	authGrp.Use(mdw.Throttle(throttle, l,
		mdw.ThrottleByIP("auth/ip", cfg.RateLimit.AuthPerMinute, time.Minute)))
	hs.Auth.MountPublic(authGrp)

	// 鉴权分组：logout/me 挂 /auth 下，users/roles 挂 api 下
	authProtected := authGrp.Group("")
	authProtected.Use(mdw.Authenticate(resolver))
	hs.Auth.MountProtected(authProtected)

	authed := api.Group("")
	authed.Use(
		mdw.Authenticate(resolver),
		mdw.Throttle(throttle, l,
			mdw.ThrottleByUser("api/user", cfg.RateLimit.UserPerHour, time.Hour)),
	)

	admin := authed.Group("")
	admin.Use(mdw.RequireAdmin())

	hs.Users.Mount(authed, admin)
	hs.Roles.Mount(admin)

	return r
}
