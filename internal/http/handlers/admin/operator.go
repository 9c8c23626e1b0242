package admin

import (
	"errors"

	"github.com/manda2/internal/http/response"
	"github.com/manda2/internal/service"

	"github.com/gin-gonic/gin"
)

// RevokeOperatorTokens 使指定操作员已签发的 Token 全部失效
func (h *Handler) RevokeOperatorTokens(c *gin.Context) {
	if err := h.AuthService.RevokeOperatorTokens(c.Request.Context(), c.Param("username")); err != nil {
		if errors.Is(err, service.ErrOperatorNotFound) {
			respondError(c, response.CodeNotFound, "error.not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"revoked": true})
}
