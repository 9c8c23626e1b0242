package service

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/manda2/internal/events"
	"github.com/manda2/internal/logger"
	"github.com/manda2/internal/metrics"
	"github.com/manda2/internal/models"
)

const defaultMonitorInterval = 30 * time.Second

// OpenOrderLister 未完成订单查询
type OpenOrderLister interface {
	ListOpen(ctx context.Context, source string) ([]models.Sale, error)
}

// SaleEventSource 销售事件来源
type SaleEventSource interface {
	Subscribe(ctx context.Context) (<-chan events.SaleEvent, error)
}

// MonitorOrder 监控看板中的订单
type MonitorOrder struct {
	ID                  uint         `json:"id"`
	Total               models.Money `json:"total"`
	PaymentMethod       string       `json:"payment_method"`
	Notes               string       `json:"notes"`
	CustomerName        string       `json:"customer_name,omitempty"`
	FulfillmentMode     string       `json:"fulfillment_mode,omitempty"`
	FulfillmentLocation string       `json:"fulfillment_location,omitempty"`
	Status              string       `json:"status"`
	NextStatus          string       `json:"next_status,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
}

// MonitorSnapshot 一次拉取的结果，Err 非空时 Orders 为空
type MonitorSnapshot struct {
	Orders    []MonitorOrder `json:"orders"`
	FetchedAt time.Time      `json:"fetched_at"`
	Err       error          `json:"-"`
}

// StatusFeed 监控数据源，ctx 取消后关闭通道
type StatusFeed interface {
	Watch(ctx context.Context) <-chan MonitorSnapshot
}

// NewMonitorOrder 将订单转换为看板条目，附带唯一可执行的下一步
func NewMonitorOrder(sale models.Sale) MonitorOrder {
	return MonitorOrder{
		ID:                  sale.ID,
		Total:               sale.Total,
		PaymentMethod:       sale.PaymentMethod,
		Notes:               sale.Notes,
		CustomerName:        sale.CustomerName,
		FulfillmentMode:     sale.FulfillmentMode,
		FulfillmentLocation: sale.FulfillmentLocation,
		Status:              sale.FulfillmentStatus,
		NextStatus:          NextFulfillmentStatus(sale.FulfillmentStatus),
		CreatedAt:           sale.CreatedAt,
	}
}

// PollingFeed 定时拉取：激活即拉取一次，之后按 interval + [0, jitter) 的间隔拉取
type PollingFeed struct {
	lister   OpenOrderLister
	source   string
	interval time.Duration
	jitter   time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewPollingFeed 创建轮询数据源
func NewPollingFeed(lister OpenOrderLister, source string, interval, jitter time.Duration, m *metrics.Metrics) *PollingFeed {
	if interval <= 0 {
		interval = defaultMonitorInterval
	}
	if jitter < 0 {
		jitter = 0
	}
	return &PollingFeed{
		lister:   lister,
		source:   source,
		interval: interval,
		jitter:   jitter,
		metrics:  m,
		now:      time.Now,
	}
}

// Refresh 立即拉取一次
func (f *PollingFeed) Refresh(ctx context.Context) MonitorSnapshot {
	snapshot := MonitorSnapshot{FetchedAt: f.now()}
	sales, err := f.lister.ListOpen(ctx, f.source)
	if err != nil {
		f.metrics.MonitorPolled(false)
		logger.FromContext(ctx).Warnw("monitor_poll_failed", "source", f.source, "error", err)
		snapshot.Err = err
		snapshot.Orders = []MonitorOrder{}
		return snapshot
	}
	f.metrics.MonitorPolled(true)
	orders := make([]MonitorOrder, 0, len(sales))
	for _, sale := range sales {
		orders = append(orders, NewMonitorOrder(sale))
	}
	snapshot.Orders = orders
	return snapshot
}

// Watch 开始轮询
func (f *PollingFeed) Watch(ctx context.Context) <-chan MonitorSnapshot {
	out := make(chan MonitorSnapshot, 1)
	go func() {
		defer close(out)
		for {
			if !sendSnapshot(ctx, out, f.Refresh(ctx)) {
				return
			}
			timer := time.NewTimer(f.nextDelay())
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
	return out
}

func (f *PollingFeed) nextDelay() time.Duration {
	if f.jitter <= 0 {
		return f.interval
	}
	return f.interval + time.Duration(rand.Int64N(int64(f.jitter)))
}

// TriggeredFeed 事件触发刷新，并以轮询间隔兜底
type TriggeredFeed struct {
	poller  *PollingFeed
	trigger SaleEventSource
}

// NewTriggeredFeed 创建事件触发数据源
func NewTriggeredFeed(poller *PollingFeed, trigger SaleEventSource) *TriggeredFeed {
	return &TriggeredFeed{poller: poller, trigger: trigger}
}

// Watch 订阅事件，订阅失败时退化为纯轮询
func (f *TriggeredFeed) Watch(ctx context.Context) <-chan MonitorSnapshot {
	if f.trigger == nil {
		return f.poller.Watch(ctx)
	}
	triggers, err := f.trigger.Subscribe(ctx)
	if err != nil {
		logger.FromContext(ctx).Warnw("monitor_trigger_subscribe_failed", "error", err)
		return f.poller.Watch(ctx)
	}

	out := make(chan MonitorSnapshot, 1)
	go func() {
		defer close(out)
		for {
			if !sendSnapshot(ctx, out, f.poller.Refresh(ctx)) {
				return
			}
			timer := time.NewTimer(f.poller.nextDelay())
			if !f.awaitTrigger(ctx, triggers, timer) {
				timer.Stop()
				return
			}
			timer.Stop()
		}
	}()
	return out
}

// awaitTrigger 等待相关事件或兜底定时器，ctx 结束返回 false
func (f *TriggeredFeed) awaitTrigger(ctx context.Context, triggers <-chan events.SaleEvent, timer *time.Timer) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		case event, ok := <-triggers:
			if !ok {
				triggers = nil
				continue
			}
			if event.Source == "" || event.Source == f.poller.source {
				return true
			}
		}
	}
}

func sendSnapshot(ctx context.Context, out chan<- MonitorSnapshot, snapshot MonitorSnapshot) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- snapshot:
		return true
	}
}
