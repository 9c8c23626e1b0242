package public

import (
	"github.com/manda2/internal/http/response"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 加入购物车请求
type AddCartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// UpdateCartItemRequest 修改数量请求，qty <= 0 视为移除
type UpdateCartItemRequest struct {
	Qty *int `json:"qty" binding:"required"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	response.Success(c, session.Cart.Snapshot())
}

// AddCartItem 加入商品，已存在时数量 +1
func (h *Handler) AddCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	snapshot, err := h.SessionService.AddProduct(c.Request.Context(), c.Param("id"), req.ProductID)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, snapshot)
}

// UpdateCartItem 修改商品数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	productID, ok := parseProductID(c)
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := session.Cart.SetQty(productID, *req.Qty); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, session.Cart.Snapshot())
}

// RemoveCartItem 移除商品
func (h *Handler) RemoveCartItem(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	productID, ok := parseProductID(c)
	if !ok {
		return
	}
	if err := session.Cart.Remove(productID); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, session.Cart.Snapshot())
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	session.Cart.Clear()
	response.Success(c, session.Cart.Snapshot())
}
