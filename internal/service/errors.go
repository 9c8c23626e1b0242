package service

import "errors"

// 购物车与结账校验错误
var (
	ErrCartEmpty              = errors.New("cart is empty")
	ErrCartItemNotFound       = errors.New("cart item not found")
	ErrStockExceeded          = errors.New("product out of stock")
	ErrProductNotFound        = errors.New("product not found")
	ErrAddressDetailsRequired = errors.New("address details required")
	ErrPaymentMethodRequired  = errors.New("payment method required")
	ErrPaymentMethodInvalid   = errors.New("payment method invalid")
	ErrFulfillmentModeInvalid = errors.New("fulfillment mode invalid")
	ErrLocationRequired       = errors.New("fulfillment location required")
	ErrLocationInvalid        = errors.New("fulfillment location invalid")
	ErrCheckoutStepInvalid    = errors.New("checkout step does not allow this action")
	ErrSubmissionInFlight     = errors.New("order submission already in progress")
	ErrNoCompletedOrder       = errors.New("no completed order in session")
)

// 订单与履约错误
var (
	ErrInvalidOrderItem   = errors.New("invalid order item")
	ErrOrderCreateFailed  = errors.New("order create failed")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderFetchFailed   = errors.New("order fetch failed")
	ErrOrderUpdateFailed  = errors.New("order update failed")
	ErrIllegalTransition  = errors.New("illegal fulfillment status transition")
	ErrPreconditionFailed = errors.New("fulfillment status changed concurrently")
	ErrAddressSaveFailed  = errors.New("address save failed")
)

// 会话、报表与鉴权错误
var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrReportFetchFailed    = errors.New("report fetch failed")
	ErrCatalogFetchFailed   = errors.New("catalog fetch failed")
	ErrNotFound             = errors.New("not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrOperatorNotFound     = errors.New("operator not found")
	ErrTokenIssueFailed     = errors.New("token issue failed")
	ErrCustomerTokenInvalid = errors.New("customer token invalid")
)
