package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/manda2/internal/config"
	"github.com/manda2/internal/logger"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// ErrDisabled 事件总线未启用
var ErrDisabled = errors.New("event bus disabled")

// Bus 销售事件总线（Kafka）
type Bus struct {
	client  *Client
	topic   string
	groupID string

	mu          sync.Mutex
	writer      *kafka.Writer
	broadcaster *Broadcaster
}

// NewBus 创建事件总线，未启用时返回可安全调用的空实现
func NewBus(cfg config.KafkaConfig) *Bus {
	if !cfg.Enabled {
		return &Bus{}
	}
	return &Bus{
		client:  NewClient(cfg.Brokers),
		topic:   cfg.Topic,
		groupID: processGroupID(cfg.GroupID),
	}
}

// processGroupID 每个进程独占一个消费组，保证进程收到 topic 的全部分区
func processGroupID(base string) string {
	if base == "" {
		base = "manda2-monitor"
	}
	return base + "-" + uuid.NewString()[:8]
}

// Enabled 是否启用
func (b *Bus) Enabled() bool {
	return b != nil && b.client.Enabled() && b.topic != ""
}

// Publish 发布销售事件
func (b *Bus) Publish(ctx context.Context, event SaleEvent) error {
	if !b.Enabled() {
		return ErrDisabled
	}
	b.mu.Lock()
	if b.writer == nil {
		b.writer = b.client.NewWriter(b.topic)
	}
	writer := b.writer
	b.mu.Unlock()
	return PublishJSON(ctx, writer, event.Key(), event)
}

// Subscribe 订阅销售事件，ctx 取消后关闭通道；全部订阅者共享一个读取器
func (b *Bus) Subscribe(ctx context.Context) (<-chan SaleEvent, error) {
	if !b.Enabled() {
		return nil, ErrDisabled
	}
	b.mu.Lock()
	if b.broadcaster == nil {
		b.broadcaster = NewBroadcaster(b.consume)
	}
	broadcaster := b.broadcaster
	b.mu.Unlock()
	return broadcaster.Subscribe(ctx)
}

func (b *Bus) consume(ctx context.Context) <-chan SaleEvent {
	reader := b.client.NewReader(b.topic, b.groupID)
	out := make(chan SaleEvent, subscriberBuffer)
	go func() {
		defer close(out)
		defer func() {
			if err := reader.Close(); err != nil {
				logger.Warnw("event_reader_close_failed", "error", err)
			}
		}()
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Warnw("event_read_failed", "topic", b.topic, "error", err)
				}
				return
			}
			var event SaleEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				logger.Warnw("event_decode_failed", "topic", b.topic, "offset", msg.Offset, "error", err)
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Close 关闭读取器与写入器
func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.broadcaster != nil {
		b.broadcaster.Close()
		b.broadcaster = nil
	}
	if b.writer == nil {
		return nil
	}
	err := b.writer.Close()
	b.writer = nil
	return err
}
