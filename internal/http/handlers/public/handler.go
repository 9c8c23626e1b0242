package public

import (
	handlershared "github.com/manda2/internal/http/handlers/shared"
	"github.com/manda2/internal/provider"
	"github.com/manda2/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler 顾客侧目录、会话、购物车与结账接口
type Handler struct {
	*provider.Container
}

// New 创建顾客侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

// customerIdentity 可选的顾客身份，匿名时为 nil
func customerIdentity(c *gin.Context) *service.CustomerIdentity {
	identity, _ := c.Value(handlershared.ContextCustomerIdentity).(*service.CustomerIdentity)
	return identity
}
