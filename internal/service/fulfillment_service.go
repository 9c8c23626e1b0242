package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/manda2/internal/constants"
	"github.com/manda2/internal/logger"
	"github.com/manda2/internal/metrics"
	"github.com/manda2/internal/models"
	"github.com/manda2/internal/queue"
	"github.com/manda2/internal/repository"
)

// fulfillmentPipeline 履约状态流水线，只能逐级前进
var fulfillmentPipeline = []string{
	constants.FulfillmentStatusPending,
	constants.FulfillmentStatusPreparing,
	constants.FulfillmentStatusReady,
	constants.FulfillmentStatusCompleted,
}

// FulfillmentStages 按顺序返回全部履约状态
func FulfillmentStages() []string {
	stages := make([]string, len(fulfillmentPipeline))
	copy(stages, fulfillmentPipeline)
	return stages
}

// IsFulfillmentStatus 是否为合法履约状态
func IsFulfillmentStatus(status string) bool {
	return fulfillmentStageIndex(status) >= 0
}

func fulfillmentStageIndex(status string) int {
	for idx, stage := range fulfillmentPipeline {
		if stage == status {
			return idx
		}
	}
	return -1
}

// NextFulfillmentStatus 返回下一状态，completed 或未知状态返回空串
func NextFulfillmentStatus(status string) string {
	idx := fulfillmentStageIndex(status)
	if idx < 0 || idx+1 >= len(fulfillmentPipeline) {
		return ""
	}
	return fulfillmentPipeline[idx+1]
}

// ValidateFulfillmentTransition 只允许前进到紧邻的下一状态
func ValidateFulfillmentTransition(current, target string) error {
	next := NextFulfillmentStatus(current)
	if next == "" || next != target {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, target)
	}
	return nil
}

// FulfillmentService 履约状态服务，唯一写入 fulfillment_status 的入口
type FulfillmentService struct {
	saleRepo    repository.SaleRepository
	queueClient *queue.Client
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewFulfillmentService 创建履约服务
func NewFulfillmentService(saleRepo repository.SaleRepository, queueClient *queue.Client, m *metrics.Metrics) *FulfillmentService {
	return &FulfillmentService{
		saleRepo:    saleRepo,
		queueClient: queueClient,
		metrics:     m,
		now:         time.Now,
	}
}

// ListOpen 获取指定来源未完成的订单，最早的在前
func (s *FulfillmentService) ListOpen(ctx context.Context, source string) ([]models.Sale, error) {
	_ = ctx
	sales, err := s.saleRepo.ListOpenBySource(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	return sales, nil
}

// Advance 将订单推进到目标状态，仅更新状态字段
func (s *FulfillmentService) Advance(ctx context.Context, saleID uint, target string) (*models.Sale, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if !IsFulfillmentStatus(target) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, target)
	}
	log := logger.FromContext(ctx)

	sale, err := s.saleRepo.GetByID(saleID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	if sale == nil {
		return nil, ErrOrderNotFound
	}
	current := sale.FulfillmentStatus
	if err := ValidateFulfillmentTransition(current, target); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	affected, err := s.saleRepo.UpdateFulfillmentStatus(sale.ID, current, target, now)
	if err != nil {
		log.Errorw("fulfillment_status_update_failed",
			"sale_id", sale.ID,
			"from", current,
			"to", target,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
	}
	if affected == 0 {
		s.metrics.StatusConflict()
		log.Warnw("fulfillment_status_conflict",
			"sale_id", sale.ID,
			"expected", current,
			"to", target,
		)
		return nil, ErrPreconditionFailed
	}

	sale.FulfillmentStatus = target
	sale.UpdatedAt = now
	s.metrics.StatusAdvanced(current, target)
	log.Infow("fulfillment_status_advanced",
		"sale_id", sale.ID,
		"from", current,
		"to", target,
	)
	if s.queueClient != nil {
		if err := s.queueClient.EnqueueSaleStatusChanged(ctx, queue.SaleStatusChangedPayload{
			SaleID: sale.ID,
			Source: sale.Source,
			From:   current,
			To:     target,
		}); err != nil {
			log.Warnw("fulfillment_enqueue_status_changed_failed",
				"sale_id", sale.ID,
				"error", err,
			)
		}
	}
	return sale, nil
}
