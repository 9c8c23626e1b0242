package constants

// 订单来源标识
const (
	SourceManda2 = "Manda2"
)

// 履约状态常量（按流水线顺序）
const (
	FulfillmentStatusPending   = "pending"
	FulfillmentStatusPreparing = "preparing"
	FulfillmentStatusReady     = "ready"
	FulfillmentStatusCompleted = "completed"
)

// 支付方式常量
const (
	PaymentMethodCash = "cash"
	PaymentMethodCard = "card"
)

// 履约方式常量
const (
	FulfillmentModeDelivery = "delivery"
	FulfillmentModePickup   = "pickup"
)

// 结账步骤常量
const (
	CheckoutStepReview             = "review"
	CheckoutStepFulfillmentDetails = "fulfillment_details"
	CheckoutStepPayment            = "payment"
	CheckoutStepSubmitting         = "submitting"
	CheckoutStepCompleted          = "completed"
	CheckoutStepFailed             = "failed"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskSaleCreated       = "sale:created"
	TaskSaleStatusChanged = "sale:status_changed"
)

// 销售事件类型常量
const (
	EventSaleCreated       = "sale.created"
	EventSaleStatusChanged = "sale.status_changed"
)

// 操作员角色常量
const (
	RoleKitchen = "kitchen"
	RoleManager = "manager"
)

// 指标趋势方向
const (
	TrendUp   = "up"
	TrendDown = "down"
)
