package service

import (
	"fmt"
	"regexp"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	nameMinLen     = 2
	nameMaxLen     = 50
	passwordMinLen = 8
	roleNameMinLen = 2
	roleNameMaxLen = 50
	descMaxLen     = 500
)

// fieldErrors 字段名 → 错误消息列表，422 响应的 errors 体
type fieldErrors map[string][]string

func (f fieldErrors) add(field, msg string) { f[field] = append(f[field], msg) }

func (f fieldErrors) empty() bool { return len(f) == 0 }

func checkName(f fieldErrors, name string) {
	switch {
	case name == "":
		f.add("name", "can't be blank")
	case len(name) < nameMinLen:
		f.add("name", fmt.Sprintf("is too short (minimum is %d characters)", nameMinLen))
	case len(name) > nameMaxLen:
		f.add("name", fmt.Sprintf("is too long (maximum is %d characters)", nameMaxLen))
	}
}

func checkEmail(f fieldErrors, email string) {
	switch {
	case email == "":
		f.add("email", "can't be blank")
	case !emailRx.MatchString(email):
		f.add("email", "is invalid")
	}
}

func checkPassword(f fieldErrors, password, confirmation string) {
	if len(password) < passwordMinLen {
		f.add("password", fmt.Sprintf("is too short (minimum is %d characters)", passwordMinLen))
	}
	if password != confirmation {
		f.add("password_confirmation", "doesn't match Password")
	}
}
