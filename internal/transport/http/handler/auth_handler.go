package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-auth-api/internal/core/auth"
	"go-auth-api/internal/service"
	"go-auth-api/internal/transport/http/ez"
	"go-auth-api/internal/transport/http/middleware"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler { return &AuthHandler{auth: a} }

func device(c *gin.Context) service.Device {
	return service.Device{UserAgent: c.Request.UserAgent(), IP: c.ClientIP()}
}

// MountPublic login/register/refresh 不过认证中间件
func (h *AuthHandler) MountPublic(g *gin.RouterGroup) {
	type loginIn struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	ez.Register(g, ez.Action[loginIn, gin.H]{
		Method:  http.MethodPost,
		Path:    "/login",
		Binder:  ez.BindJSON,
		Message: "Login successful",
		Handler: func(c *gin.Context, in *loginIn) (gin.H, error) {
			u, pair, err := h.auth.Login(c.Request.Context(), in.Email, in.Password, device(c))
			if err != nil {
				return nil, err
			}
			return gin.H{"user": userPayload(u), "tokens": pair}, nil
		},
	})

	ez.Register(g, ez.Action[service.RegisterInput, gin.H]{
		Method:  http.MethodPost,
		Path:    "/register",
		Binder:  ez.BindJSON,
		Status:  http.StatusCreated,
		Message: "Registration successful",
		Handler: func(c *gin.Context, in *service.RegisterInput) (gin.H, error) {
			u, pair, err := h.auth.Register(c.Request.Context(), *in, device(c))
			if err != nil {
				return nil, err
			}
			return gin.H{"user": userPayload(u), "tokens": pair}, nil
		},
	})

	type refreshIn struct {
		RefreshToken string `json:"refresh_token"`
	}
	ez.Register(g, ez.Action[refreshIn, *auth.TokenPair]{
		Method:  http.MethodPost,
		Path:    "/refresh",
		Binder:  ez.BindJSON,
		Message: "Token refreshed successfully",
		Handler: func(c *gin.Context, in *refreshIn) (*auth.TokenPair, error) {
			return h.auth.Refresh(c.Request.Context(), in.RefreshToken)
		},
	})
}

// MountProtected logout/me 需要有效 access token
func (h *AuthHandler) MountProtected(g *gin.RouterGroup) {
	ez.Register(g, ez.Action[struct{}, gin.H]{
		Method:  http.MethodDelete,
		Path:    "/logout",
		Binder:  ez.BindNone,
		Message: "Logout successful",
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			u := middleware.CurrentUser(c)
			if err := h.auth.Logout(c.Request.Context(), u, device(c)); err != nil {
				return nil, err
			}
			return gin.H{}, nil
		},
	})

	ez.Register(g, ez.Action[struct{}, gin.H]{
		Method:  http.MethodGet,
		Path:    "/me",
		Binder:  ez.BindNone,
		Message: "User profile retrieved",
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			return gin.H{"user": userPayload(middleware.CurrentUser(c))}, nil
		},
	})
}
