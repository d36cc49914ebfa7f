package database

import (
	"errors"

	"gorm.io/gorm"

	"go-auth-api/internal/domain"
	"go-auth-api/pkg/utils"
)

func Migrate(db *gorm.DB) error {
	// roles 先建，users.role_id 外键依赖它
	return db.AutoMigrate(&domain.Role{}, &domain.User{}, &domain.Session{})
}

var defaultRoles = []domain.Role{
	{Name: string(domain.RoleAdmin), Description: "Full system access with all permissions"},
	{Name: string(domain.RoleModerator), Description: "Limited administrative access for content moderation"},
	{Name: string(domain.RoleUser), Description: "Standard user with basic permissions"},
}

// Seed 幂等：补齐三个预置角色；没有任何 admin 用户时建一个引导账号
func Seed(db *gorm.DB, adminEmail, adminPassword string) error {
	for _, r := range defaultRoles {
		var existing domain.Role
		err := db.Where("name = ?", r.Name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role := r
			role.ID = utils.NewID()
			if err := db.Create(&role).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}

	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	var adminRole domain.Role
	if err := db.Where("name = ?", string(domain.RoleAdmin)).First(&adminRole).Error; err != nil {
		return err
	}
	var n int64
	if err := db.Model(&domain.User{}).Where("role_id = ?", adminRole.ID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	admin := domain.User{
		ID:           utils.NewID(),
		Name:         "Admin User",
		Email:        domain.NormalizeEmail(adminEmail),
		PasswordHash: utils.HashPassword(adminPassword),
		Verified:     true,
		RoleID:       &adminRole.ID,
	}
	return db.Create(&admin).Error
}
