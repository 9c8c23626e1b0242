package service

import (
	"sync"

	"github.com/manda2/internal/models"

	"github.com/shopspring/decimal"
)

// CartItem 购物车条目（加入时的商品快照 + 数量）
type CartItem struct {
	ProductID  uint         `json:"product_id"`
	Name       string       `json:"name"`
	Price      models.Money `json:"price"`
	Stock      int          `json:"stock"`
	ImageURL   string       `json:"image_url,omitempty"`
	CategoryID string       `json:"category_id,omitempty"`
	IsWeighted bool         `json:"is_weighted"`
	Qty        int          `json:"qty"`
}

// Subtotal 条目小计
func (i CartItem) Subtotal() models.Money {
	return i.Price.MulQuantity(i.Qty)
}

func cartItemFromProduct(product models.Product) CartItem {
	return CartItem{
		ProductID:  product.ID,
		Name:       product.Name,
		Price:      product.Price,
		Stock:      product.Stock,
		ImageURL:   product.ImageURL,
		CategoryID: product.CategoryID,
		IsWeighted: product.IsWeighted,
		Qty:        1,
	}
}

// CartEventKind 购物车变更类型
type CartEventKind string

const (
	CartEventAdded           CartEventKind = "added"
	CartEventRemoved         CartEventKind = "removed"
	CartEventQuantityChanged CartEventKind = "quantity_changed"
	CartEventCleared         CartEventKind = "cleared"
)

// CartEvent 购物车变更通知
type CartEvent struct {
	Kind      CartEventKind `json:"kind"`
	ProductID uint          `json:"product_id,omitempty"`
	Total     models.Money  `json:"total"`
	Count     int           `json:"count"`
}

// CartSnapshot 购物车某一时刻的完整视图
type CartSnapshot struct {
	Items []CartItem   `json:"items"`
	Total models.Money `json:"total"`
	Count int          `json:"count"`
}

// CartStore 会话内购物车，合计与件数始终由条目重新计算
type CartStore struct {
	mu        sync.Mutex
	items     []CartItem
	observers map[int]func(CartEvent)
	nextObs   int
}

// NewCartStore 创建空购物车
func NewCartStore() *CartStore {
	return &CartStore{
		items:     make([]CartItem, 0),
		observers: make(map[int]func(CartEvent)),
	}
}

// Add 加入商品，已存在则数量 +1；库存不足时购物车不变
func (c *CartStore) Add(product models.Product) error {
	if product.Stock <= 0 {
		return ErrStockExceeded
	}
	c.mu.Lock()
	found := false
	for idx := range c.items {
		if c.items[idx].ProductID == product.ID {
			c.items[idx].Qty++
			found = true
			break
		}
	}
	if !found {
		c.items = append(c.items, cartItemFromProduct(product))
	}
	event := c.eventLocked(CartEventAdded, product.ID)
	c.mu.Unlock()

	c.notify(event)
	return nil
}

// Remove 移除商品
func (c *CartStore) Remove(productID uint) error {
	c.mu.Lock()
	idx := c.indexLocked(productID)
	if idx < 0 {
		c.mu.Unlock()
		return ErrCartItemNotFound
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	event := c.eventLocked(CartEventRemoved, productID)
	c.mu.Unlock()

	c.notify(event)
	return nil
}

// SetQty 设置数量，qty <= 0 视为移除
func (c *CartStore) SetQty(productID uint, qty int) error {
	if qty <= 0 {
		return c.Remove(productID)
	}
	c.mu.Lock()
	idx := c.indexLocked(productID)
	if idx < 0 {
		c.mu.Unlock()
		return ErrCartItemNotFound
	}
	c.items[idx].Qty = qty
	event := c.eventLocked(CartEventQuantityChanged, productID)
	c.mu.Unlock()

	c.notify(event)
	return nil
}

// Clear 清空购物车
func (c *CartStore) Clear() {
	c.mu.Lock()
	c.items = make([]CartItem, 0)
	event := c.eventLocked(CartEventCleared, 0)
	c.mu.Unlock()

	c.notify(event)
}

// Items 返回条目副本
func (c *CartStore) Items() []CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyItemsLocked()
}

// Total 合计金额
func (c *CartStore) Total() models.Money {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalLocked()
}

// Count 商品总件数
func (c *CartStore) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countLocked()
}

// Len 条目数
func (c *CartStore) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Snapshot 在同一把锁下读取条目、合计与件数
func (c *CartStore) Snapshot() CartSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CartSnapshot{
		Items: c.copyItemsLocked(),
		Total: c.totalLocked(),
		Count: c.countLocked(),
	}
}

// Subscribe 订阅变更，返回取消函数
func (c *CartStore) Subscribe(fn func(CartEvent)) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *CartStore) indexLocked(productID uint) int {
	for idx := range c.items {
		if c.items[idx].ProductID == productID {
			return idx
		}
	}
	return -1
}

func (c *CartStore) copyItemsLocked() []CartItem {
	items := make([]CartItem, len(c.items))
	copy(items, c.items)
	return items
}

func (c *CartStore) totalLocked() models.Money {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal().Decimal)
	}
	return models.NewMoneyFromDecimal(total)
}

func (c *CartStore) countLocked() int {
	count := 0
	for _, item := range c.items {
		count += item.Qty
	}
	return count
}

func (c *CartStore) eventLocked(kind CartEventKind, productID uint) CartEvent {
	return CartEvent{
		Kind:      kind,
		ProductID: productID,
		Total:     c.totalLocked(),
		Count:     c.countLocked(),
	}
}

// notify 在锁外回调，观察者可以安全读取购物车
func (c *CartStore) notify(event CartEvent) {
	c.mu.Lock()
	observers := make([]func(CartEvent), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()
	for _, fn := range observers {
		fn(event)
	}
}
