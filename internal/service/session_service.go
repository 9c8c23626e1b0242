package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/manda2/internal/constants"
	"github.com/manda2/internal/logger"
	"github.com/manda2/internal/metrics"

	"github.com/google/uuid"
)

const defaultSessionIdleTTL = 2 * time.Hour

// Session 顾客会话：购物车、结账流程与身份
type Session struct {
	ID        string
	Cart      *CartStore
	Checkout  *CheckoutFlow
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// Identity 会话身份（匿名为 nil）
func (s *Session) Identity() *CustomerIdentity {
	return s.Checkout.Identity()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen 最后活跃时间
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionView 会话概览
type SessionView struct {
	ID        string            `json:"id"`
	Customer  *CustomerIdentity `json:"customer,omitempty"`
	Cart      CartSnapshot      `json:"cart"`
	Checkout  CheckoutState     `json:"checkout"`
	CreatedAt time.Time         `json:"created_at"`
}

// View 会话概览快照
func (s *Session) View() SessionView {
	return SessionView{
		ID:        s.ID,
		Customer:  s.Identity(),
		Cart:      s.Cart.Snapshot(),
		Checkout:  s.Checkout.State(),
		CreatedAt: s.CreatedAt,
	}
}

// SessionService 进程内会话容器
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	placer   OrderPlacer
	catalog  *CatalogService
	delay    time.Duration
	idleTTL  time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewSessionService 创建会话容器
func NewSessionService(placer OrderPlacer, catalog *CatalogService, paymentDelay, idleTTL time.Duration, m *metrics.Metrics) *SessionService {
	if idleTTL <= 0 {
		idleTTL = defaultSessionIdleTTL
	}
	return &SessionService{
		sessions: make(map[string]*Session),
		placer:   placer,
		catalog:  catalog,
		delay:    paymentDelay,
		idleTTL:  idleTTL,
		metrics:  m,
		now:      time.Now,
	}
}

// Open 开启新会话
func (s *SessionService) Open(ctx context.Context, identity *CustomerIdentity) *Session {
	now := s.now()
	cart := NewCartStore()
	session := &Session{
		ID:        uuid.NewString(),
		Cart:      cart,
		Checkout:  NewCheckoutFlow(cart, s.placer, s.delay, identity),
		CreatedAt: now,
		lastSeen:  now,
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.metrics.SessionOpened()
	logger.FromContext(ctx).Infow("session_opened", "session_id", session.ID, "authenticated", identity != nil)
	return session
}

// Get 获取会话并刷新活跃时间
func (s *SessionService) Get(id string) (*Session, error) {
	id = strings.TrimSpace(id)
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.touch(s.now())
	return session, nil
}

// Close 关闭会话
func (s *SessionService) Close(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	_, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.metrics.SessionClosed()
	logger.FromContext(ctx).Infow("session_closed", "session_id", id)
	return nil
}

// Count 当前会话数
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SetLocation 设置履约方式与地点；只传方式时清空地点
func (s *SessionService) SetLocation(ctx context.Context, id, mode, location string) (*FulfillmentSelection, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	selection, err := s.catalog.ValidateSelection(ctx, mode, location)
	if err != nil {
		return nil, err
	}
	if err := session.Checkout.SetFulfillment(selection); err != nil {
		return nil, err
	}
	return selection, nil
}

// AddProduct 按商品 ID 加入购物车
func (s *SessionService) AddProduct(ctx context.Context, id string, productID uint) (CartSnapshot, error) {
	session, err := s.Get(id)
	if err != nil {
		return CartSnapshot{}, err
	}
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return CartSnapshot{}, err
	}
	if err := session.Cart.Add(*product); err != nil {
		return CartSnapshot{}, err
	}
	return session.Cart.Snapshot(), nil
}

// Submit 提交订单并记录耗时
func (s *SessionService) Submit(ctx context.Context, id string) (*Ticket, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	ctx = logger.IntoContext(ctx, "session_id", session.ID)
	startedAt := s.now()
	_, err = session.Checkout.Submit(ctx)
	s.metrics.ObserveSubmit(float64(s.now().Sub(startedAt).Milliseconds()))
	if err != nil {
		return nil, err
	}
	return session.Checkout.Ticket()
}

// Sweep 回收空闲超时的会话，返回回收数量（提交中的会话跳过）
func (s *SessionService) Sweep(now time.Time) int {
	expired := make([]string, 0)
	s.mu.Lock()
	for id, session := range s.sessions {
		if now.Sub(session.LastSeen()) < s.idleTTL {
			continue
		}
		if session.Checkout.Step() == constants.CheckoutStepSubmitting {
			continue
		}
		delete(s.sessions, id)
		expired = append(expired, id)
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.metrics.SessionClosed()
		logger.Debugw("session_expired", "session_id", id)
	}
	return len(expired)
}
