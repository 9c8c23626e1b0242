package events

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

// ConsumeFunc 启动一个事件消费者，ctx 取消或读取失败后关闭通道
type ConsumeFunc func(ctx context.Context) <-chan SaleEvent

// Broadcaster 进程内共享一个消费者，把每条事件分发给全部订阅者
type Broadcaster struct {
	consume ConsumeFunc

	mu     sync.Mutex
	subs   map[int]chan SaleEvent
	nextID int
	gen    int
	stop   context.CancelFunc
}

// NewBroadcaster 创建分发器，首个订阅者到来时才启动消费者
func NewBroadcaster(consume ConsumeFunc) *Broadcaster {
	return &Broadcaster{consume: consume, subs: make(map[int]chan SaleEvent)}
}

// Subscribe 注册订阅者，ctx 取消后关闭其通道；最后一个订阅者离开时停止消费者
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan SaleEvent, error) {
	ch := make(chan SaleEvent, subscriberBuffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	if b.stop == nil {
		runCtx, cancel := context.WithCancel(context.Background())
		b.gen++
		b.stop = cancel
		go b.run(runCtx, b.gen, b.consume(runCtx))
	}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(id)
	}()
	return ch, nil
}

// Subscribers 当前订阅者数量
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close 停止消费者并关闭全部订阅通道
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeAllLocked()
}

func (b *Broadcaster) run(ctx context.Context, gen int, in <-chan SaleEvent) {
	for event := range in {
		b.broadcast(event)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	// 消费者异常退出时关闭订阅者，看板退化为轮询
	if b.gen == gen && b.stop != nil && ctx.Err() == nil {
		b.closeAllLocked()
	}
}

// broadcast 订阅者缓冲已满时丢弃，事件只用于触发刷新
func (b *Broadcaster) broadcast(event SaleEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (b *Broadcaster) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(ch)
	if len(b.subs) == 0 && b.stop != nil {
		b.stop()
		b.stop = nil
	}
}

func (b *Broadcaster) closeAllLocked() {
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	if b.stop != nil {
		b.stop()
		b.stop = nil
	}
}
