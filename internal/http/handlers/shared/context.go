package shared

import (
	"strconv"
	"strings"

	"github.com/manda2/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 鉴权中间件写入 gin 上下文的键
const (
	ContextOperatorID       = "operator_id"
	ContextOperatorUsername = "operator_username"
	ContextCustomerIdentity = "customer_identity"
)

// Operator 已通过鉴权的操作员
type Operator struct {
	ID       uint
	Username string
}

// CurrentOperator 读取当前操作员；缺失时写入 401 响应
func CurrentOperator(c *gin.Context) (Operator, bool) {
	id := c.GetUint(ContextOperatorID)
	if id == 0 {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return Operator{}, false
	}
	return Operator{ID: id, Username: c.GetString(ContextOperatorUsername)}, true
}

// ParseUintParam 解析路径中的正整数 ID，失败时写入 400 响应
func ParseUintParam(c *gin.Context, name, invalidKey string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 0)
	if err != nil || id == 0 {
		RespondError(c, response.CodeBadRequest, invalidKey, nil)
		return 0, false
	}
	return uint(id), true
}
