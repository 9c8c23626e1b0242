package public

import (
	"strconv"
	"strings"

	"github.com/manda2/internal/http/response"
	"github.com/manda2/internal/service"

	"github.com/gin-gonic/gin"
)

// ListProducts 有库存的商品列表（支持名称搜索、分类筛选与分页）
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(strings.TrimSpace(c.Query("page")))
	pageSize, _ := strconv.Atoi(strings.TrimSpace(c.Query("page_size")))
	products, err := h.CatalogService.ListProducts(c.Request.Context(), service.ProductQuery{
		Search:     strings.TrimSpace(c.Query("search")),
		CategoryID: strings.TrimSpace(c.Query("category_id")),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.catalog_fetch_failed", err)
		return
	}
	response.SuccessPage(c, products, page, pageSize)
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}
	product, err := h.CatalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.catalog_fetch_failed")
		return
	}
	response.Success(c, product)
}

// ListStores 营业中的自提门店
func (h *Handler) ListStores(c *gin.Context) {
	stores, err := h.CatalogService.ListStores(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "error.catalog_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{"items": stores})
}

// ListDeliveryZones 可配送区域
func (h *Handler) ListDeliveryZones(c *gin.Context) {
	response.Success(c, gin.H{"items": h.CatalogService.DeliveryZones()})
}
