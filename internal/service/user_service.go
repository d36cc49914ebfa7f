package service

import (
	"context"
	"errors"

	"go-auth-api/internal/domain"
)

// UpdateUserInput 指针字段表示“没传就不动”
type UpdateUserInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Verified *bool   `json:"verified"`
	RoleID   *string `json:"role_id"`
}

type UserService struct {
	users domain.UserRepository
	roles domain.RoleRepository
}

func NewUserService(users domain.UserRepository, roles domain.RoleRepository) *UserService {
	return &UserService{users: users, roles: roles}
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	f := fieldErrors{}
	if in.Name != nil {
		checkName(f, *in.Name)
	}
	if in.Email != nil {
		email := domain.NormalizeEmail(*in.Email)
		checkEmail(f, email)
		if email != u.Email {
			if _, err := s.users.FindByEmail(ctx, email); err == nil {
				f.add("email", "has already been taken")
			} else if !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
		}
		in.Email = &email
	}
	if in.RoleID != nil && *in.RoleID != "" {
		if _, err := s.roles.FindByID(ctx, *in.RoleID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				f.add("role", "must exist")
			} else {
				return nil, err
			}
		}
	}
	if !f.empty() {
		return nil, ValidationError("Update failed", f)
	}

	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Verified != nil {
		u.Verified = *in.Verified
	}
	if in.RoleID != nil {
		if *in.RoleID == "" {
			u.RoleID = nil
			u.Role = nil
		} else {
			u.RoleID = in.RoleID
		}
	}

	// Save 不写关联，置空 Role 防止 gorm 级联
	saved := *u
	saved.Role = nil
	if err := s.users.Update(ctx, &saved); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			f.add("email", "has already been taken")
			return nil, ValidationError("Update failed", f)
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	err := s.users.Delete(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
