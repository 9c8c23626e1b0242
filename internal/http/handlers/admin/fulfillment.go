package admin

import (
	"errors"

	handlershared "github.com/manda2/internal/http/handlers/shared"
	"github.com/manda2/internal/http/response"
	"github.com/manda2/internal/i18n"
	"github.com/manda2/internal/logger"
	"github.com/manda2/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateFulfillmentStatusRequest 推进履约状态请求
type UpdateFulfillmentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateFulfillmentStatus 将订单推进到下一阶段
func (h *Handler) UpdateFulfillmentStatus(c *gin.Context) {
	operator, ok := handlershared.CurrentOperator(c)
	if !ok {
		return
	}
	saleID, ok := handlershared.ParseUintParam(c, "id", "error.order_id_invalid")
	if !ok {
		return
	}
	var req UpdateFulfillmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	ctx := logger.IntoContext(c.Request.Context(), "operator_id", operator.ID)
	sale, err := h.FulfillmentService.Advance(ctx, saleID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIllegalTransition):
			respondError(c, response.CodeBadRequest, "error.illegal_transition", nil)
		case errors.Is(err, service.ErrPreconditionFailed):
			respondError(c, response.CodeConflict, "error.precondition_failed", nil)
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
		case errors.Is(err, service.ErrOrderFetchFailed):
			respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		default:
			respondError(c, response.CodeInternal, "error.order_update_failed", err)
		}
		return
	}
	response.Success(c, buildMonitorOrderView(i18n.ResolveLocale(c), service.NewMonitorOrder(*sale)))
}
