package admin

import (
	"io"
	"time"

	"github.com/manda2/internal/http/response"
	"github.com/manda2/internal/i18n"
	"github.com/manda2/internal/service"

	"github.com/gin-gonic/gin"
)

// MonitorOrderView 看板订单（附带本地化标签）
type MonitorOrderView struct {
	service.MonitorOrder
	StatusLabel string `json:"status_label"`
	ActionLabel string `json:"action_label,omitempty"`
}

// MonitorView 看板快照
type MonitorView struct {
	Orders    []MonitorOrderView `json:"orders"`
	FetchedAt time.Time          `json:"fetched_at"`
}

func buildMonitorOrderView(locale string, order service.MonitorOrder) MonitorOrderView {
	view := MonitorOrderView{
		MonitorOrder: order,
		StatusLabel:  i18n.T(locale, "stage."+order.Status),
	}
	if order.NextStatus != "" {
		view.ActionLabel = i18n.T(locale, "action."+order.NextStatus)
	}
	return view
}

func buildMonitorView(locale string, snapshot service.MonitorSnapshot) MonitorView {
	orders := make([]MonitorOrderView, 0, len(snapshot.Orders))
	for _, order := range snapshot.Orders {
		orders = append(orders, buildMonitorOrderView(locale, order))
	}
	return MonitorView{Orders: orders, FetchedAt: snapshot.FetchedAt}
}

// ListMonitorOrders 手动刷新：一次性拉取未完成订单
func (h *Handler) ListMonitorOrders(c *gin.Context) {
	sales, err := h.FulfillmentService.ListOpen(c.Request.Context(), h.OrderService.SourceTag())
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	snapshot := service.MonitorSnapshot{
		Orders:    make([]service.MonitorOrder, 0, len(sales)),
		FetchedAt: time.Now(),
	}
	for _, sale := range sales {
		snapshot.Orders = append(snapshot.Orders, service.NewMonitorOrder(sale))
	}
	response.Success(c, buildMonitorView(i18n.ResolveLocale(c), snapshot))
}

// StreamMonitor 以 SSE 推送看板快照，连接断开后停止拉取
func (h *Handler) StreamMonitor(c *gin.Context) {
	locale := i18n.ResolveLocale(c)
	snapshots := h.MonitorFeed().Watch(c.Request.Context())

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		snapshot, ok := <-snapshots
		if !ok {
			return false
		}
		if snapshot.Err != nil {
			c.SSEvent("error", gin.H{"msg": i18n.T(locale, "error.order_fetch_failed")})
			return true
		}
		c.SSEvent("orders", buildMonitorView(locale, snapshot))
		return true
	})
}
