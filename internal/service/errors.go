package service

import "net/http"

// Error 业务错误，带 HTTP 状态码和可选的字段级校验信息，
// 传输层统一映射成响应信封
type Error struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *Error) Error() string { return e.Message }

func NewError(status int, msg string) *Error {
	return &Error{Status: status, Message: msg}
}

func ValidationError(msg string, fields map[string][]string) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Message: msg, Fields: fields}
}

// 登录失败统一一句话，不暴露邮箱是否存在
var (
	ErrInvalidCredentials = NewError(http.StatusUnauthorized, "Invalid email or password")
	ErrUnverified         = NewError(http.StatusForbidden, "Account not verified")
	ErrInvalidToken       = NewError(http.StatusUnauthorized, "Invalid or expired token")
	ErrRefreshRequired    = NewError(http.StatusBadRequest, "Refresh token required")
	ErrAdminRequired      = NewError(http.StatusForbidden, "Admin access required")
	ErrUserNotFound       = NewError(http.StatusNotFound, "User not found")
	ErrRoleNotFound       = NewError(http.StatusNotFound, "Role not found")
)
