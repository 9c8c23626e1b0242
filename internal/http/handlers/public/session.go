package public

import (
	"strings"

	handlershared "github.com/manda2/internal/http/handlers/shared"
	"github.com/manda2/internal/http/response"
	"github.com/manda2/internal/service"

	"github.com/gin-gonic/gin"
)

// LocationRequest 履约方式与地点
type LocationRequest struct {
	Mode     string `json:"mode" binding:"required"`
	Location string `json:"location"`
}

// loadSession 按路径参数加载会话，失败时已写入响应
func (h *Handler) loadSession(c *gin.Context) (*service.Session, bool) {
	session, err := h.SessionService.Get(c.Param("id"))
	if err != nil {
		respondSessionError(c, err)
		return nil, false
	}
	return session, true
}

// OpenSession 开启顾客会话，携带顾客 Token 时绑定身份
func (h *Handler) OpenSession(c *gin.Context) {
	session := h.SessionService.Open(c.Request.Context(), customerIdentity(c))
	response.Success(c, session.View())
}

// GetSession 会话概览
func (h *Handler) GetSession(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	response.Success(c, session.View())
}

// CloseSession 关闭会话
func (h *Handler) CloseSession(c *gin.Context) {
	if err := h.SessionService.Close(c.Request.Context(), c.Param("id")); err != nil {
		respondSessionError(c, err)
		return
	}
	response.Success(c, gin.H{"closed": true})
}

// SetLocation 设置履约方式与地点；地点为空表示切换方式并清空地点
func (h *Handler) SetLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	selection, err := h.SessionService.SetLocation(c.Request.Context(), c.Param("id"), strings.TrimSpace(req.Mode), strings.TrimSpace(req.Location))
	if err != nil {
		respondLocationError(c, err)
		return
	}
	response.Success(c, selection)
}

func parseProductID(c *gin.Context) (uint, bool) {
	return handlershared.ParseUintParam(c, "product_id", "error.product_id_invalid")
}
