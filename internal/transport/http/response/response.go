package response

import "github.com/gin-gonic/gin"

// Body 统一响应信封
type Body struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func OK(c *gin.Context, message string, data any) {
	Write(c, 200, message, data)
}

func Write(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Body{Success: true, Message: message, Data: data})
}

// Fail 失败响应走真实 HTTP 状态码，errors 只在校验失败时携带字段明细
func Fail(c *gin.Context, status int, message string, errs any) {
	c.JSON(status, Body{Success: false, Message: message, Errors: errs})
}

// AbortFail 中间件里用，终止后续 handler
func AbortFail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Body{Success: false, Message: message})
}
