package domain

import "errors"

var (
	ErrNotFound      = errors.New("record not found")
	ErrEmailTaken    = errors.New("email has already been taken")
	ErrRoleNameTaken = errors.New("role name has already been taken")
)
