package ez

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-auth-api/internal/service"
	resp "go-auth-api/internal/transport/http/response"
)

// 绑定方式
type Binder string

const (
	BindJSON Binder = "json" // 从 JSON body 绑定
	BindNone Binder = "none" // 不绑定，自己从 c.Param 取
)

// Action 一行注册一个接口：I 入参，O 出参。
// Handler 返回 (O, error)，错误统一映射到响应信封。
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Status  int    // 成功状态码，默认 200
	Message string // 成功提示语
	Handler func(c *gin.Context, in *I) (O, error)
}

func Register[I any, O any](g *gin.RouterGroup, a Action[I, O]) {
	h := func(c *gin.Context) {
		var in I
		if a.Binder == BindJSON {
			// body 为空也容忍，字段级校验在 service 层做
			if err := c.ShouldBindJSON(&in); err != nil && c.Request.ContentLength > 0 {
				resp.Fail(c, http.StatusBadRequest, "Invalid request body", nil)
				return
			}
		}
		out, err := a.Handler(c, &in)
		if err != nil {
			Abort(c, err)
			return
		}
		status := a.Status
		if status == 0 {
			status = http.StatusOK
		}
		resp.Write(c, status, a.Message, out)
	}
	g.Handle(a.Method, a.Path, h)
}

// Abort 业务错误 → 信封；其它错误一律 500，不把内部细节漏出去
func Abort(c *gin.Context, err error) {
	var se *service.Error
	if errors.As(err, &se) {
		resp.Fail(c, se.Status, se.Message, se.Fields)
		return
	}
	_ = c.Error(err)
	resp.Fail(c, http.StatusInternalServerError, "Internal server error", nil)
}
