package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-auth-api/internal/service"
	"go-auth-api/internal/transport/http/ez"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(u *service.UserService) *UserHandler { return &UserHandler{users: u} }

// Mount 列表和删除只给 admin；单查和更新任何已登录用户可用
func (h *UserHandler) Mount(authed, admin *gin.RouterGroup) {
	ez.Register(admin, ez.Action[struct{}, gin.H]{
		Method:  http.MethodGet,
		Path:    "/users",
		Binder:  ez.BindNone,
		Message: "Users retrieved successfully",
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			users, err := h.users.List(c.Request.Context())
			if err != nil {
				return nil, err
			}
			items := make([]gin.H, 0, len(users))
			for i := range users {
				items = append(items, userPayload(&users[i]))
			}
			return gin.H{"users": items}, nil
		},
	})

	ez.Register(authed, ez.Action[struct{}, gin.H]{
		Method:  http.MethodGet,
		Path:    "/users/:id",
		Binder:  ez.BindNone,
		Message: "User retrieved successfully",
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			u, err := h.users.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				return nil, err
			}
			return gin.H{"user": userPayload(u)}, nil
		},
	})

	update := ez.Action[service.UpdateUserInput, gin.H]{
		Method:  http.MethodPatch,
		Path:    "/users/:id",
		Binder:  ez.BindJSON,
		Message: "User updated successfully",
		Handler: func(c *gin.Context, in *service.UpdateUserInput) (gin.H, error) {
			u, err := h.users.Update(c.Request.Context(), c.Param("id"), *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"user": userPayload(u)}, nil
		},
	}
	ez.Register(authed, update)
	update.Method = http.MethodPut // PUT 作为 PATCH 的别名
	ez.Register(authed, update)

	ez.Register(admin, ez.Action[struct{}, gin.H]{
		Method:  http.MethodDelete,
		Path:    "/users/:id",
		Binder:  ez.BindNone,
		Message: "User deleted successfully",
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
				return nil, err
			}
			return gin.H{}, nil
		},
	})
}
