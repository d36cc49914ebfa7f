package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-auth-api/internal/core/auth"
	"go-auth-api/internal/core/config"
	"go-auth-api/internal/core/database"
	"go-auth-api/internal/core/limiter"
	"go-auth-api/internal/core/logger"
	"go-auth-api/internal/core/server"
	"go-auth-api/internal/domain"
	"go-auth-api/internal/repo"
	"go-auth-api/internal/service"
	"go-auth-api/internal/transport/http/handler"
	"go-auth-api/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	// 数据库（失败直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}
	if cfg.DB.Seed {
		if err := database.Seed(db, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
			log.Fatal("seed failed", zap.Error(err))
		}
		log.Info("seed done")
	}

	// Token 服务：密钥和 TTL 全部来自配置
	tokens := auth.NewTokenService(
		[]byte(cfg.JWT.Secret),
		cfg.JWT.Issuer,
		time.Duration(cfg.JWT.AccessTokenTTLMin)*time.Minute,
		time.Duration(cfg.JWT.RefreshTokenTTLDay)*24*time.Hour,
	)

	users := repo.NewUserRepo(db)
	roles := repo.NewRoleRepo(db)
	sessions := repo.NewSessionRepo(db)

	authSvc := service.NewAuthService(users, roles, sessions, tokens, log)
	userSvc := service.NewUserService(users, roles)
	roleSvc := service.NewRoleService(roles)

	// Redis 限流，没配地址就只用进程内令牌桶
	var throttle *limiter.Store
	if cfg.Redis.Addr != "" {
		throttle = limiter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer throttle.Close()
	}

	r := router.NewEngine(log, cfg, authSvc, throttle, router.Handlers{
		Auth:  handler.NewAuthHandler(authSvc),
		Users: handler.NewUserHandler(userSvc),
		Roles: handler.NewRoleHandler(roleSvc),
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("auth api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("auth api start FAILED", zap.Error(err))
		}
	}()
	log.Info("auth api started SUCCESS")

	// 定期清理 30 天前的登录审计记录
	purgeCtx, stopPurge := context.WithCancel(context.Background())
	go purgeSessions(purgeCtx, sessions, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stopPurge()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("auth api stopped gracefully")
}

func purgeSessions(ctx context.Context, sessions domain.SessionRepository, log *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-domain.SessionRetention)
			n, err := sessions.DeleteCreatedBefore(ctx, cutoff)
			if err != nil {
				log.Warn("session purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("expired sessions purged", zap.Int64("count", n))
			}
		}
	}
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
