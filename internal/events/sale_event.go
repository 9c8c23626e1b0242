package events

import (
	"strconv"
	"time"

	"github.com/manda2/internal/constants"

	"github.com/google/uuid"
)

// SaleEvent 销售事件
type SaleEvent struct {
	EventID        string    `json:"event_id"`
	Type           string    `json:"type"`
	SaleID         uint      `json:"sale_id"`
	Source         string    `json:"source"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Key 分区键
func (e SaleEvent) Key() string {
	return strconv.FormatUint(uint64(e.SaleID), 10)
}

// NewSaleCreatedEvent 订单创建事件
func NewSaleCreatedEvent(saleID uint, source string, now time.Time) SaleEvent {
	return SaleEvent{
		EventID:   uuid.NewString(),
		Type:      constants.EventSaleCreated,
		SaleID:    saleID,
		Source:    source,
		Status:    constants.FulfillmentStatusPending,
		CreatedAt: now.UTC(),
	}
}

// NewSaleStatusChangedEvent 履约状态变更事件
func NewSaleStatusChangedEvent(saleID uint, source, from, to string, now time.Time) SaleEvent {
	return SaleEvent{
		EventID:        uuid.NewString(),
		Type:           constants.EventSaleStatusChanged,
		SaleID:         saleID,
		Source:         source,
		Status:         to,
		PreviousStatus: from,
		CreatedAt:      now.UTC(),
	}
}
