package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/manda2/internal/http/handlers/shared"
	"github.com/manda2/internal/http/response"
	"github.com/manda2/internal/i18n"
	"github.com/manda2/internal/service"

	"github.com/gin-gonic/gin"
)

func parseReportQuery(c *gin.Context) service.ReportQueryInput {
	forceRefresh, _ := strconv.ParseBool(strings.TrimSpace(c.Query("force_refresh")))
	return service.ReportQueryInput{ForceRefresh: forceRefresh}
}

// respondReportError 报表失败时返回错误码，数据为零值以便前端展示空指标
func respondReportError(c *gin.Context, err error, zero interface{}) {
	msg := i18n.T(i18n.ResolveLocale(c), "error.report_fetch_failed")
	handlershared.RequestLog(c).Errorw("handler_error",
		"code", response.CodeInternal,
		"message", msg,
		"error", err,
	)
	response.ErrorWithData(c, response.CodeInternal, msg, zero)
}

// GetReportMetrics 本月与上月对比指标
func (h *Handler) GetReportMetrics(c *gin.Context) {
	result, err := h.ReportService.GetMetrics(c.Request.Context(), parseReportQuery(c))
	if err != nil {
		respondReportError(c, err, service.ZeroReportMetrics())
		return
	}
	response.Success(c, result)
}

// GetReportTrends 本月每日趋势
func (h *Handler) GetReportTrends(c *gin.Context) {
	result, err := h.ReportService.GetTrends(c.Request.Context(), parseReportQuery(c))
	if err != nil {
		respondReportError(c, err, service.ReportTrendResponse{Points: []service.ReportTrendPoint{}})
		return
	}
	response.Success(c, result)
}

// GetReportTopProducts 本月热销商品
func (h *Handler) GetReportTopProducts(c *gin.Context) {
	result, err := h.ReportService.GetTopProducts(c.Request.Context(), parseReportQuery(c))
	if err != nil {
		respondReportError(c, err, service.ReportTopProductsResponse{TopProducts: []service.ReportProductRanking{}})
		return
	}
	response.Success(c, result)
}
