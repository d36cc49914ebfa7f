package handler

import (
	"github.com/gin-gonic/gin"

	"go-auth-api/internal/domain"
)

// userPayload 对外的用户形态；role 为角色名，没挂角色时为 null
func userPayload(u *domain.User) gin.H {
	var role any
	if u.Role != nil {
		role = u.Role.Name
	}
	return gin.H{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"role":       role,
		"verified":   u.Verified,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
}

func rolePayload(r *domain.Role) gin.H {
	return gin.H{
		"id":          r.ID,
		"name":        r.Name,
		"description": r.Description,
		"created_at":  r.CreatedAt,
		"updated_at":  r.UpdatedAt,
	}
}
