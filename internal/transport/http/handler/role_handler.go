package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-auth-api/internal/service"
	"go-auth-api/internal/transport/http/ez"
)

type RoleHandler struct {
	roles *service.RoleService
}

func NewRoleHandler(r *service.RoleService) *RoleHandler { return &RoleHandler{roles: r} }

// Mount 整组只对 admin 开放
func (h *RoleHandler) Mount(admin *gin.RouterGroup) {
	ez.Register(admin, ez.Action[struct{}, gin.H]{
		Method:  http.MethodGet,
		Path:    "/roles",
		Binder:  ez.BindNone,
		Message: "Roles retrieved successfully",
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			roles, err := h.roles.List(c.Request.Context())
			if err != nil {
				return nil, err
			}
			items := make([]gin.H, 0, len(roles))
			for i := range roles {
				items = append(items, rolePayload(&roles[i]))
			}
			return gin.H{"roles": items}, nil
		},
	})

	ez.Register(admin, ez.Action[struct{}, gin.H]{
		Method:  http.MethodGet,
		Path:    "/roles/:id",
		Binder:  ez.BindNone,
		Message: "Role retrieved successfully",
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			r, err := h.roles.Get(c.Request.Context(), c.Param("id"))
			if err != nil {
				return nil, err
			}
			return gin.H{"role": rolePayload(r)}, nil
		},
	})

	ez.Register(admin, ez.Action[service.RoleInput, gin.H]{
		Method:  http.MethodPost,
		Path:    "/roles",
		Binder:  ez.BindJSON,
		Status:  http.StatusCreated,
		Message: "Role created successfully",
		Handler: func(c *gin.Context, in *service.RoleInput) (gin.H, error) {
			r, err := h.roles.Create(c.Request.Context(), *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"role": rolePayload(r)}, nil
		},
	})

	update := ez.Action[service.RoleInput, gin.H]{
		Method:  http.MethodPatch,
		Path:    "/roles/:id",
		Binder:  ez.BindJSON,
		Message: "Role updated successfully",
		Handler: func(c *gin.Context, in *service.RoleInput) (gin.H, error) {
			r, err := h.roles.Update(c.Request.Context(), c.Param("id"), *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"role": rolePayload(r)}, nil
		},
	}
	ez.Register(admin, update)
	update.Method = http.MethodPut
	ez.Register(admin, update)

	ez.Register(admin, ez.Action[struct{}, gin.H]{
		Method:  http.MethodDelete,
		Path:    "/roles/:id",
		Binder:  ez.BindNone,
		Message: "Role deleted successfully",
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			if err := h.roles.Delete(c.Request.Context(), c.Param("id")); err != nil {
				return nil, err
			}
			return gin.H{}, nil
		},
	})
}
