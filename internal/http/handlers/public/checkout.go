package public

import (
	"github.com/manda2/internal/http/response"
	"github.com/manda2/internal/i18n"
	"github.com/manda2/internal/service"

	"github.com/gin-gonic/gin"
)

// AddressDetailsRequest 配送详细地址
type AddressDetailsRequest struct {
	AddressDetails string `json:"address_details"`
}

// PaymentMethodRequest 支付方式
type PaymentMethodRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// TicketView 订单小票
type TicketView struct {
	*service.Ticket
	Title        string `json:"title"`
	ModeLabel    string `json:"mode_label,omitempty"`
	PaymentLabel string `json:"payment_label"`
}

func buildTicketView(locale string, ticket *service.Ticket) TicketView {
	view := TicketView{
		Ticket:       ticket,
		Title:        i18n.Sprintf(locale, "ticket.title", ticket.Sale.ID),
		PaymentLabel: i18n.T(locale, "payment."+ticket.Sale.PaymentMethod),
	}
	if ticket.Fulfillment != nil {
		view.ModeLabel = i18n.T(locale, "mode."+ticket.Fulfillment.Mode)
	}
	return view
}

// GetCheckout 结账状态
func (h *Handler) GetCheckout(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	response.Success(c, session.Checkout.State())
}

// AdvanceCheckout 前进一步
func (h *Handler) AdvanceCheckout(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	if err := session.Checkout.Advance(); err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, session.Checkout.State())
}

// BackCheckout 后退一步
func (h *Handler) BackCheckout(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	if err := session.Checkout.Back(); err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, session.Checkout.State())
}

// SetAddressDetails 填写配送详细地址
func (h *Handler) SetAddressDetails(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	var req AddressDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := session.Checkout.SetAddressDetails(req.AddressDetails); err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, session.Checkout.State())
}

// SelectPaymentMethod 选择支付方式
func (h *Handler) SelectPaymentMethod(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	var req PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.payment_method_required", err)
		return
	}
	if err := session.Checkout.SelectPaymentMethod(req.PaymentMethod); err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, session.Checkout.State())
}

// SubmitCheckout 提交订单（含模拟支付等待）
func (h *Handler) SubmitCheckout(c *gin.Context) {
	ticket, err := h.SessionService.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, buildTicketView(i18n.ResolveLocale(c), ticket))
}

// GetTicket 最近一次成功订单的小票
func (h *Handler) GetTicket(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	ticket, err := session.Checkout.Ticket()
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, buildTicketView(i18n.ResolveLocale(c), ticket))
}

// NewOrder 开始新订单：清空购物车并回到 review
func (h *Handler) NewOrder(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	if err := session.Checkout.Reset(); err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, session.View())
}
