package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestIDKey gin 上下文中请求 ID 的键
const RequestIDKey = "request_id"

// Response 统一响应结构，HTTP 状态恒为 200，业务结果看 status_code
type Response struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
}

// Page 分页列表
type Page struct {
	Items    interface{} `json:"items"`
	Page     int         `json:"page,omitempty"`
	PageSize int         `json:"page_size,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		StatusCode: CodeOK,
		Msg:        "success",
		Data:       data,
	})
}

// SuccessPage 列表响应；未分页时 page 与 page_size 省略
func SuccessPage(c *gin.Context, items interface{}, page, pageSize int) {
	if pageSize <= 0 {
		page = 0
	} else if page < 1 {
		page = 1
	}
	Success(c, Page{Items: items, Page: page, PageSize: pageSize})
}

// Error 错误响应，data 中带回 request_id 便于排查
func Error(c *gin.Context, statusCode int, msg string) {
	ErrorWithData(c, statusCode, msg, nil)
}

// ErrorWithData 错误响应（带数据），报表失败时用于回传零值
func ErrorWithData(c *gin.Context, statusCode int, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		StatusCode: statusCode,
		Msg:        msg,
		Data:       attachRequestID(RequestID(c), data),
	})
}

// Unauthorized 401响应
func Unauthorized(c *gin.Context, msg string) {
	Error(c, CodeUnauthorized, msg)
}

// Forbidden 403响应
func Forbidden(c *gin.Context, msg string) {
	Error(c, CodeForbidden, msg)
}

// RequestID 当前请求的 ID，未设置时为空
func RequestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value, ok := c.Get(RequestIDKey); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

func attachRequestID(requestID string, data interface{}) interface{} {
	if requestID == "" {
		return data
	}
	switch v := data.(type) {
	case nil:
		return gin.H{RequestIDKey: requestID}
	case gin.H:
		if _, ok := v[RequestIDKey]; !ok {
			v[RequestIDKey] = requestID
		}
		return v
	case map[string]interface{}:
		if _, ok := v[RequestIDKey]; !ok {
			v[RequestIDKey] = requestID
		}
		return v
	default:
		return gin.H{
			RequestIDKey: requestID,
			"data":       data,
		}
	}
}
