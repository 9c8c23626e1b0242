package queue

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/manda2/internal/config"
	"github.com/manda2/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 新订单后续任务
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 状态变更，看板依赖其及时推送
	CriticalQueue = constants.QueueCritical

	maxRetry = 5
	// 去重 ID 保留时长，覆盖重试窗口
	taskRetention = 24 * time.Hour
)

// Client 销售任务投递客户端；未启用时所有投递为空操作
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(buildRedisOpt(cfg))}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueSaleCreated 投递新订单任务，同一订单只会入队一次
func (c *Client) EnqueueSaleCreated(ctx context.Context, payload SaleCreatedPayload) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewSaleCreatedTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task, DefaultQueue, SaleCreatedTaskID(payload.SaleID))
}

// EnqueueSaleStatusChanged 投递履约状态变更任务；状态只前进，(订单, 目标状态) 唯一
func (c *Client) EnqueueSaleStatusChanged(ctx context.Context, payload SaleStatusChangedPayload) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewSaleStatusChangedTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task, CriticalQueue, SaleStatusChangedTaskID(payload.SaleID, payload.To))
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, queueName, taskID string) error {
	_, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(queueName),
		asynq.MaxRetry(maxRetry),
		asynq.TaskID(taskID),
		asynq.Retention(taskRetention),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// SaleCreatedTaskID 新订单任务去重 ID
func SaleCreatedTaskID(saleID uint) string {
	return fmt.Sprintf("%s:%d", TaskSaleCreated, saleID)
}

// SaleStatusChangedTaskID 状态变更任务去重 ID
func SaleStatusChangedTaskID(saleID uint, to string) string {
	return fmt.Sprintf("%s:%d:%s", TaskSaleStatusChanged, saleID, to)
}

// BuildServerConfig 生成消费端配置，状态变更队列权重更高
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{DefaultQueue: 1, CriticalQueue: 2},
	}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			serverCfg.Concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			serverCfg.Queues = cfg.Queues
		}
	}
	return buildRedisOpt(cfg), serverCfg
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host, port := strings.TrimSpace(cfg.Host), cfg.Port
	if host == "" {
		host = "127.0.0.1"
	}
	if port <= 0 {
		port = 6379
	}
	opt.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
