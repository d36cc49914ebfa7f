package domain

import (
	"context"
	"strings"
	"time"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"size:50;not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	Verified     bool      `gorm:"not null;default:false" json:"verified"`
	RoleID       *string   `gorm:"size:36;index" json:"-"`
	Role         *Role     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// RoleName 未挂角色时按普通用户处理
func (u *User) RoleName() RoleName {
	if u.Role == nil {
		return RoleUser
	}
	return RoleName(u.Role.Name)
}

func (u *User) IsAdmin() bool     { return u.Role != nil && RoleName(u.Role.Name) == RoleAdmin }
func (u *User) IsModerator() bool { return u.Role != nil && RoleName(u.Role.Name) == RoleModerator }

// NormalizeEmail 统一小写并去首尾空白，入库前调用
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u *User) error
	// Delete 连同该用户的会话审计记录一起删除
	Delete(ctx context.Context, id string) error
}
