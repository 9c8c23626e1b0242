package admin

import (
	handlershared "github.com/manda2/internal/http/handlers/shared"
	"github.com/manda2/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 看板、履约推进、报表与令牌吊销接口
type Handler struct {
	*provider.Container
}

// New 创建操作员侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}
