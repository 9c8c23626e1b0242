package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/manda2/internal/events"
	"github.com/manda2/internal/logger"
	"github.com/manda2/internal/provider"
	"github.com/manda2/internal/queue"

	"github.com/hibiken/asynq"
)

// EventPublisher 销售事件发布方
type EventPublisher interface {
	Enabled() bool
	Publish(ctx context.Context, event events.SaleEvent) error
}

// ReportInvalidator 报表缓存失效
type ReportInvalidator interface {
	InvalidateCurrent(ctx context.Context) error
}

// Consumer 异步任务消费者：转发销售事件并刷新报表缓存
type Consumer struct {
	publisher EventPublisher
	reports   ReportInvalidator
	now       func() time.Time
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	consumer := &Consumer{now: time.Now}
	if c == nil {
		return consumer
	}
	if c.EventBus != nil {
		consumer.publisher = c.EventBus
	}
	if c.ReportService != nil {
		consumer.reports = c.ReportService
	}
	return consumer
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskSaleCreated, c.handleSaleCreated)
	mux.HandleFunc(queue.TaskSaleStatusChanged, c.handleSaleStatusChanged)
}

func (c *Consumer) handleSaleCreated(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_sale_created_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SaleCreatedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_sale_created_unmarshal_failed", "error", err)
		return err
	}
	if payload.SaleID == 0 {
		logger.Debugw("worker_sale_created_skip_invalid_payload", "sale_id", payload.SaleID)
		return nil
	}
	c.invalidateReports(ctx, payload.SaleID)
	return c.publish(ctx, events.NewSaleCreatedEvent(payload.SaleID, payload.Source, c.now()))
}

func (c *Consumer) handleSaleStatusChanged(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_sale_status_changed_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SaleStatusChangedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_sale_status_changed_unmarshal_failed", "error", err)
		return err
	}
	if payload.SaleID == 0 || payload.To == "" {
		logger.Debugw("worker_sale_status_changed_skip_invalid_payload", "sale_id", payload.SaleID, "to", payload.To)
		return nil
	}
	c.invalidateReports(ctx, payload.SaleID)
	return c.publish(ctx, events.NewSaleStatusChangedEvent(payload.SaleID, payload.Source, payload.From, payload.To, c.now()))
}

// invalidateReports 缓存失效失败不重试，下次过期自然刷新
func (c *Consumer) invalidateReports(ctx context.Context, saleID uint) {
	if c.reports == nil {
		return
	}
	if err := c.reports.InvalidateCurrent(ctx); err != nil {
		logger.Warnw("worker_report_invalidate_failed", "sale_id", saleID, "error", err)
	}
}

func (c *Consumer) publish(ctx context.Context, event events.SaleEvent) error {
	if c.publisher == nil || !c.publisher.Enabled() {
		logger.Debugw("worker_event_publish_skip_disabled", "sale_id", event.SaleID, "type", event.Type)
		return nil
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		if errors.Is(err, events.ErrDisabled) {
			return nil
		}
		logger.Warnw("worker_event_publish_failed",
			"sale_id", event.SaleID,
			"type", event.Type,
			"error", err,
		)
		return err
	}
	return nil
}
