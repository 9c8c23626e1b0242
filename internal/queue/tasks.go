package queue

import (
	"encoding/json"

	"github.com/manda2/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskSaleCreated 订单创建后续任务
	TaskSaleCreated = constants.TaskSaleCreated
	// TaskSaleStatusChanged 履约状态变更后续任务
	TaskSaleStatusChanged = constants.TaskSaleStatusChanged
)

// SaleCreatedPayload 订单创建任务载荷
type SaleCreatedPayload struct {
	SaleID uint   `json:"sale_id"`
	Source string `json:"source"`
}

// SaleStatusChangedPayload 履约状态变更任务载荷
type SaleStatusChangedPayload struct {
	SaleID uint   `json:"sale_id"`
	Source string `json:"source"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// NewSaleCreatedTask 创建订单创建任务
func NewSaleCreatedTask(payload SaleCreatedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSaleCreated, body), nil
}

// NewSaleStatusChangedTask 创建履约状态变更任务
func NewSaleStatusChangedTask(payload SaleStatusChangedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSaleStatusChanged, body), nil
}
