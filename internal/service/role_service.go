package service

import (
	"context"
	"errors"
	"fmt"

	"go-auth-api/internal/domain"
	"go-auth-api/pkg/utils"
)

type RoleInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type RoleService struct {
	roles domain.RoleRepository
}

func NewRoleService(roles domain.RoleRepository) *RoleService {
	return &RoleService{roles: roles}
}

func (s *RoleService) List(ctx context.Context) ([]domain.Role, error) {
	return s.roles.List(ctx)
}

func (s *RoleService) Get(ctx context.Context, id string) (*domain.Role, error) {
	r, err := s.roles.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrRoleNotFound
	}
	return r, err
}

func (s *RoleService) Create(ctx context.Context, in RoleInput) (*domain.Role, error) {
	name := ""
	if in.Name != nil {
		name = *in.Name
	}
	desc := ""
	if in.Description != nil {
		desc = *in.Description
	}

	f := fieldErrors{}
	s.checkRole(ctx, f, name, desc, "")
	if !f.empty() {
		return nil, ValidationError("Creation failed", f)
	}

	r := &domain.Role{ID: utils.NewID(), Name: name, Description: desc}
	if err := s.roles.Create(ctx, r); err != nil {
		if errors.Is(err, domain.ErrRoleNameTaken) {
			f.add("name", "has already been taken")
			return nil, ValidationError("Creation failed", f)
		}
		return nil, err
	}
	return r, nil
}

func (s *RoleService) Update(ctx context.Context, id string, in RoleInput) (*domain.Role, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := r.Name
	if in.Name != nil {
		name = *in.Name
	}
	desc := r.Description
	if in.Description != nil {
		desc = *in.Description
	}

	f := fieldErrors{}
	s.checkRole(ctx, f, name, desc, id)
	if !f.empty() {
		return nil, ValidationError("Update failed", f)
	}

	r.Name = name
	r.Description = desc
	if err := s.roles.Update(ctx, r); err != nil {
		if errors.Is(err, domain.ErrRoleNameTaken) {
			f.add("name", "has already been taken")
			return nil, ValidationError("Update failed", f)
		}
		return nil, err
	}
	return r, nil
}

// Delete 置空引用用户的 role_id，用户本身保留
func (s *RoleService) Delete(ctx context.Context, id string) error {
	err := s.roles.Delete(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrRoleNotFound
	}
	return err
}

func (s *RoleService) checkRole(ctx context.Context, f fieldErrors, name, desc, selfID string) {
	switch {
	case name == "":
		f.add("name", "can't be blank")
	case len(name) < roleNameMinLen:
		f.add("name", fmt.Sprintf("is too short (minimum is %d characters)", roleNameMinLen))
	case len(name) > roleNameMaxLen:
		f.add("name", fmt.Sprintf("is too long (maximum is %d characters)", roleNameMaxLen))
	default:
		if existing, err := s.roles.FindByName(ctx, name); err == nil && existing.ID != selfID {
			f.add("name", "has already been taken")
		}
	}
	if len(desc) > descMaxLen {
		f.add("description", fmt.Sprintf("is too long (maximum is %d characters)", descMaxLen))
	}
}
