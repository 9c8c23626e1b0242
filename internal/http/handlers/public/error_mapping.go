package public

import (
	"errors"

	"github.com/manda2/internal/http/response"
	"github.com/manda2/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var sessionErrorRules = []mappedHandlerError{
	{target: service.ErrSessionNotFound, code: response.CodeNotFound, key: "error.session_not_found"},
	{target: service.ErrSubmissionInFlight, code: response.CodeConflict, key: "error.submission_in_flight"},
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrStockExceeded, code: response.CodeBadRequest, key: "error.stock_exceeded"},
	{target: service.ErrCartItemNotFound, code: response.CodeNotFound, key: "error.cart_item_not_found"},
}

var locationErrorRules = []mappedHandlerError{
	{target: service.ErrFulfillmentModeInvalid, code: response.CodeBadRequest, key: "error.fulfillment_mode_invalid"},
	{target: service.ErrLocationInvalid, code: response.CodeBadRequest, key: "error.location_invalid"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, key: "error.cart_empty"},
	{target: service.ErrLocationRequired, code: response.CodeBadRequest, key: "error.location_required"},
	{target: service.ErrAddressDetailsRequired, code: response.CodeBadRequest, key: "error.address_details_required"},
	{target: service.ErrPaymentMethodRequired, code: response.CodeBadRequest, key: "error.payment_method_required"},
	{target: service.ErrPaymentMethodInvalid, code: response.CodeBadRequest, key: "error.payment_method_invalid"},
	{target: service.ErrFulfillmentModeInvalid, code: response.CodeBadRequest, key: "error.fulfillment_mode_invalid"},
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, key: "error.bad_request"},
	{target: service.ErrCheckoutStepInvalid, code: response.CodeBadRequest, key: "error.checkout_step_invalid"},
	{target: service.ErrNoCompletedOrder, code: response.CodeNotFound, key: "error.no_completed_order"},
	{target: service.ErrOrderCreateFailed, code: response.CodeInternal, key: "error.order_create_failed"},
}

func respondSessionError(c *gin.Context, err error) {
	respondWithMappedError(c, err, sessionErrorRules, response.CodeInternal, "error.internal")
}

func respondCartError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(sessionErrorRules, cartErrorRules), response.CodeInternal, "error.catalog_fetch_failed")
}

func respondLocationError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(sessionErrorRules, locationErrorRules), response.CodeInternal, "error.catalog_fetch_failed")
}

func respondCheckoutError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(sessionErrorRules, checkoutErrorRules), response.CodeInternal, "error.order_create_failed")
}
