package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/manda2/internal/constants"
	"github.com/manda2/internal/models"
)

// OrderPlacer 结账提交时的下单依赖
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Sale, error)
}

// FulfillmentSelection 履约方式与地点（配送区域或自提门店）
type FulfillmentSelection struct {
	Mode     string `json:"mode"`
	Location string `json:"location"`
}

// CustomerIdentity 已登录顾客身份
type CustomerIdentity struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

// DisplayName 顾客名称：优先全名，其次邮箱
func (c *CustomerIdentity) DisplayName() string {
	if c == nil {
		return ""
	}
	if name := strings.TrimSpace(c.FullName); name != "" {
		return name
	}
	return strings.TrimSpace(c.Email)
}

// CheckoutEvent 结账步骤变更通知
type CheckoutEvent struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Error string `json:"error,omitempty"`
}

// CheckoutState 结账当前状态视图
type CheckoutState struct {
	Step           string                `json:"step"`
	AddressDetails string                `json:"address_details"`
	PaymentMethod  string                `json:"payment_method,omitempty"`
	Fulfillment    *FulfillmentSelection `json:"fulfillment,omitempty"`
	Total          models.Money          `json:"total"`
	Count          int                   `json:"count"`
	Error          string                `json:"error,omitempty"`
	Sale           *models.Sale          `json:"sale,omitempty"`
}

// Ticket 最近一次成功下单的凭据
type Ticket struct {
	Sale        *models.Sale          `json:"sale"`
	Items       []CartItem            `json:"items"`
	Fulfillment *FulfillmentSelection `json:"fulfillment,omitempty"`
	Customer    string                `json:"customer,omitempty"`
}

// CheckoutFlow 结账状态机：review → fulfillment_details → payment → submitting → completed/failed
type CheckoutFlow struct {
	mu             sync.Mutex
	cart           *CartStore
	placer         OrderPlacer
	delay          time.Duration
	wait           func(ctx context.Context, d time.Duration) error
	identity       *CustomerIdentity
	step           string
	fulfillment    *FulfillmentSelection
	addressDetails string
	paymentMethod  string
	lastErr        error
	lastSale       *models.Sale
	ticketItems    []CartItem
	ticketTarget   *FulfillmentSelection
	observers      map[int]func(CheckoutEvent)
	nextObs        int
}

// NewCheckoutFlow 创建结账流程
func NewCheckoutFlow(cart *CartStore, placer OrderPlacer, delay time.Duration, identity *CustomerIdentity) *CheckoutFlow {
	if delay < 0 {
		delay = 0
	}
	return &CheckoutFlow{
		cart:      cart,
		placer:    placer,
		delay:     delay,
		wait:      waitWithContext,
		identity:  identity,
		step:      constants.CheckoutStepReview,
		observers: make(map[int]func(CheckoutEvent)),
	}
}

func waitWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Step 当前步骤
func (f *CheckoutFlow) Step() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Identity 顾客身份（匿名为 nil）
func (f *CheckoutFlow) Identity() *CustomerIdentity {
	return f.identity
}

// State 当前状态快照
func (f *CheckoutFlow) State() CheckoutState {
	snapshot := f.cart.Snapshot()
	f.mu.Lock()
	defer f.mu.Unlock()
	state := CheckoutState{
		Step:           f.step,
		AddressDetails: f.addressDetails,
		PaymentMethod:  f.paymentMethod,
		Fulfillment:    cloneSelection(f.fulfillment),
		Total:          snapshot.Total,
		Count:          snapshot.Count,
	}
	if f.lastErr != nil {
		state.Error = f.lastErr.Error()
	}
	if f.step == constants.CheckoutStepCompleted {
		state.Sale = f.lastSale
	}
	return state
}

// Fulfillment 当前履约选择
func (f *CheckoutFlow) Fulfillment() *FulfillmentSelection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneSelection(f.fulfillment)
}

// SetFulfillment 设置履约方式与地点，nil 表示清除
func (f *CheckoutFlow) SetFulfillment(selection *FulfillmentSelection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step == constants.CheckoutStepSubmitting {
		return ErrSubmissionInFlight
	}
	f.fulfillment = cloneSelection(selection)
	return nil
}

// Advance 前进一步，payment 之后只能通过 Submit
func (f *CheckoutFlow) Advance() error {
	f.mu.Lock()
	from := f.step
	switch f.step {
	case constants.CheckoutStepReview:
		if f.cart.Len() == 0 {
			f.mu.Unlock()
			return ErrCartEmpty
		}
		f.step = constants.CheckoutStepFulfillmentDetails
	case constants.CheckoutStepFulfillmentDetails:
		if f.fulfillment == nil || strings.TrimSpace(f.fulfillment.Location) == "" {
			f.mu.Unlock()
			return ErrLocationRequired
		}
		if f.missingAddressLocked() {
			f.mu.Unlock()
			return ErrAddressDetailsRequired
		}
		f.step = constants.CheckoutStepPayment
	case constants.CheckoutStepSubmitting:
		f.mu.Unlock()
		return ErrSubmissionInFlight
	default:
		f.mu.Unlock()
		return ErrCheckoutStepInvalid
	}
	event := CheckoutEvent{From: from, To: f.step}
	f.mu.Unlock()

	f.notify(event)
	return nil
}

// Back 后退一步，已填写的数据保留
func (f *CheckoutFlow) Back() error {
	f.mu.Lock()
	from := f.step
	switch f.step {
	case constants.CheckoutStepPayment, constants.CheckoutStepFailed:
		f.step = constants.CheckoutStepFulfillmentDetails
		f.lastErr = nil
	case constants.CheckoutStepFulfillmentDetails:
		f.step = constants.CheckoutStepReview
	case constants.CheckoutStepSubmitting:
		f.mu.Unlock()
		return ErrSubmissionInFlight
	default:
		f.mu.Unlock()
		return ErrCheckoutStepInvalid
	}
	event := CheckoutEvent{From: from, To: f.step}
	f.mu.Unlock()

	f.notify(event)
	return nil
}

// SetAddressDetails 填写配送详细地址
func (f *CheckoutFlow) SetAddressDetails(details string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editableLocked(); err != nil {
		return err
	}
	f.addressDetails = details
	return nil
}

// SelectPaymentMethod 选择支付方式
func (f *CheckoutFlow) SelectPaymentMethod(method string) error {
	method = strings.ToLower(strings.TrimSpace(method))
	if !isValidPaymentMethod(method) {
		return ErrPaymentMethodInvalid
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editableLocked(); err != nil {
		return err
	}
	f.paymentMethod = method
	return nil
}

func (f *CheckoutFlow) missingAddressLocked() bool {
	return f.fulfillment != nil &&
		f.fulfillment.Mode == constants.FulfillmentModeDelivery &&
		strings.TrimSpace(f.addressDetails) == ""
}

func (f *CheckoutFlow) editableLocked() error {
	switch f.step {
	case constants.CheckoutStepSubmitting:
		return ErrSubmissionInFlight
	case constants.CheckoutStepCompleted:
		return ErrCheckoutStepInvalid
	}
	return nil
}

// Submit 提交订单：模拟支付等待后按当时的购物车合计下单
func (f *CheckoutFlow) Submit(ctx context.Context) (*models.Sale, error) {
	f.mu.Lock()
	switch f.step {
	case constants.CheckoutStepSubmitting:
		f.mu.Unlock()
		return nil, ErrSubmissionInFlight
	case constants.CheckoutStepPayment, constants.CheckoutStepFailed:
	default:
		f.mu.Unlock()
		return nil, ErrCheckoutStepInvalid
	}
	if f.paymentMethod == "" {
		f.mu.Unlock()
		return nil, ErrPaymentMethodRequired
	}
	if f.fulfillment == nil || strings.TrimSpace(f.fulfillment.Location) == "" {
		f.mu.Unlock()
		return nil, ErrLocationRequired
	}
	// 到达 payment 后仍可修改地址或切换为配送，提交前重新校验
	if f.missingAddressLocked() {
		f.mu.Unlock()
		return nil, ErrAddressDetailsRequired
	}
	from := f.step
	f.step = constants.CheckoutStepSubmitting
	f.lastErr = nil
	paymentMethod := f.paymentMethod
	selection := *f.fulfillment
	details := f.addressDetails
	f.mu.Unlock()
	f.notify(CheckoutEvent{From: from, To: constants.CheckoutStepSubmitting})

	// 提交一旦开始不随请求断开而取消
	ctx = context.WithoutCancel(ctx)
	if err := f.wait(ctx, f.delay); err != nil {
		return nil, f.fail(err)
	}

	snapshot := f.cart.Snapshot()
	if len(snapshot.Items) == 0 {
		return nil, f.fail(ErrCartEmpty)
	}
	if f.placer == nil {
		return nil, f.fail(ErrOrderCreateFailed)
	}
	sale, err := f.placer.PlaceOrder(ctx, PlaceOrderInput{
		Items:          snapshot.Items,
		Total:          snapshot.Total,
		PaymentMethod:  paymentMethod,
		Mode:           selection.Mode,
		Location:       selection.Location,
		AddressDetails: details,
		Identity:       f.identity,
	})
	if err != nil {
		return nil, f.fail(err)
	}

	f.mu.Lock()
	f.step = constants.CheckoutStepCompleted
	f.lastSale = sale
	f.ticketItems = snapshot.Items
	f.ticketTarget = &selection
	f.mu.Unlock()
	f.notify(CheckoutEvent{From: constants.CheckoutStepSubmitting, To: constants.CheckoutStepCompleted})
	return sale, nil
}

// fail 进入 failed 状态并保留错误，可再次提交
func (f *CheckoutFlow) fail(err error) error {
	f.mu.Lock()
	f.step = constants.CheckoutStepFailed
	f.lastErr = err
	f.mu.Unlock()
	f.notify(CheckoutEvent{From: constants.CheckoutStepSubmitting, To: constants.CheckoutStepFailed, Error: err.Error()})
	return err
}

// Ticket 最近一次成功订单
func (f *CheckoutFlow) Ticket() (*Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastSale == nil {
		return nil, ErrNoCompletedOrder
	}
	items := make([]CartItem, len(f.ticketItems))
	copy(items, f.ticketItems)
	return &Ticket{
		Sale:        f.lastSale,
		Items:       items,
		Fulfillment: cloneSelection(f.ticketTarget),
		Customer:    f.identity.DisplayName(),
	}, nil
}

// Reset 开始新订单：清空购物车并回到 review，履约选择保留
func (f *CheckoutFlow) Reset() error {
	f.mu.Lock()
	if f.step == constants.CheckoutStepSubmitting {
		f.mu.Unlock()
		return ErrSubmissionInFlight
	}
	from := f.step
	f.step = constants.CheckoutStepReview
	f.addressDetails = ""
	f.paymentMethod = ""
	f.lastErr = nil
	f.mu.Unlock()

	f.cart.Clear()
	f.notify(CheckoutEvent{From: from, To: constants.CheckoutStepReview})
	return nil
}

// Subscribe 订阅步骤变更，返回取消函数
func (f *CheckoutFlow) Subscribe(fn func(CheckoutEvent)) func() {
	if fn == nil {
		return func() {}
	}
	f.mu.Lock()
	id := f.nextObs
	f.nextObs++
	f.observers[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.observers, id)
		f.mu.Unlock()
	}
}

func (f *CheckoutFlow) notify(event CheckoutEvent) {
	f.mu.Lock()
	observers := make([]func(CheckoutEvent), 0, len(f.observers))
	for _, fn := range f.observers {
		observers = append(observers, fn)
	}
	f.mu.Unlock()
	for _, fn := range observers {
		fn(event)
	}
}

func cloneSelection(selection *FulfillmentSelection) *FulfillmentSelection {
	if selection == nil {
		return nil
	}
	copied := *selection
	return &copied
}

func isValidPaymentMethod(method string) bool {
	return method == constants.PaymentMethodCash || method == constants.PaymentMethodCard
}

func isValidFulfillmentMode(mode string) bool {
	return mode == constants.FulfillmentModeDelivery || mode == constants.FulfillmentModePickup
}
