package shared

import (
	"github.com/manda2/internal/http/response"
	"github.com/manda2/internal/i18n"
	"github.com/manda2/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if id := response.RequestID(c); id != "" {
		return logger.SW(response.RequestIDKey, id)
	}
	return logger.S()
}

// RespondError 返回国际化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	locale := i18n.ResolveLocale(c)
	appErr := response.WrapError(code, key, i18n.T(locale, key), err)
	logAppError(c, appErr)
	response.Error(c, appErr.Code, appErr.Message)
}

// 客户端错误记 warn，服务端错误记 error
func logAppError(c *gin.Context, appErr *response.AppError) {
	if appErr.Err == nil {
		return
	}
	fields := []interface{}{
		"code", appErr.Code,
		"key", appErr.Key,
		"error", appErr.Err,
	}
	if appErr.Internal() {
		RequestLog(c).Errorw("handler_error", fields...)
		return
	}
	RequestLog(c).Warnw("handler_rejected", fields...)
}
