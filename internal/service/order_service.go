package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/manda2/internal/constants"
	"github.com/manda2/internal/logger"
	"github.com/manda2/internal/metrics"
	"github.com/manda2/internal/models"
	"github.com/manda2/internal/queue"
	"github.com/manda2/internal/repository"
)

// PlaceOrderInput 下单输入
type PlaceOrderInput struct {
	Items          []CartItem
	Total          models.Money
	PaymentMethod  string
	Mode           string
	Location       string
	AddressDetails string
	Identity       *CustomerIdentity
}

// OrderService 订单服务
type OrderService struct {
	saleRepo    repository.SaleRepository
	addressRepo repository.AddressRepository
	queueClient *queue.Client
	metrics     *metrics.Metrics
	sourceTag   string
	now         func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(saleRepo repository.SaleRepository, addressRepo repository.AddressRepository, queueClient *queue.Client, m *metrics.Metrics, sourceTag string) *OrderService {
	sourceTag = strings.TrimSpace(sourceTag)
	if sourceTag == "" {
		sourceTag = constants.SourceManda2
	}
	return &OrderService{
		saleRepo:    saleRepo,
		addressRepo: addressRepo,
		queueClient: queueClient,
		metrics:     m,
		sourceTag:   sourceTag,
		now:         time.Now,
	}
}

// SourceTag 订单来源标识
func (s *OrderService) SourceTag() string {
	return s.sourceTag
}

// PlaceOrder 保存地址（尽力而为）后创建订单
func (s *OrderService) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Sale, error) {
	if err := validatePlaceOrderInput(input); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)

	if input.Identity != nil && input.Mode == constants.FulfillmentModeDelivery {
		if err := s.SaveAddress(ctx, input.Identity.UserID, input.Location); err != nil {
			s.metrics.AddressSaveFailed()
			log.Warnw("order_address_save_failed",
				"user_id", input.Identity.UserID,
				"address", input.Location,
				"error", err,
			)
		}
	}

	sale := &models.Sale{
		Total:               input.Total,
		PaymentMethod:       input.PaymentMethod,
		Notes:               buildOrderNotes(s.sourceTag, input.Mode, input.Location, input.AddressDetails),
		Source:              s.sourceTag,
		CustomerName:        input.Identity.DisplayName(),
		FulfillmentMode:     input.Mode,
		FulfillmentLocation: input.Location,
		FulfillmentStatus:   constants.FulfillmentStatusPending,
		CreatedAt:           s.now().UTC(),
	}
	if input.Identity != nil && strings.TrimSpace(input.Identity.UserID) != "" {
		userID := strings.TrimSpace(input.Identity.UserID)
		sale.UserID = &userID
	}
	if err := s.saleRepo.Create(sale); err != nil {
		s.metrics.OrderCreateFailed()
		log.Errorw("order_create_failed",
			"source", s.sourceTag,
			"total", input.Total.String(),
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrOrderCreateFailed, err)
	}

	s.metrics.OrderCreated(input.Mode, input.PaymentMethod)
	log.Infow("order_created",
		"sale_id", sale.ID,
		"total", sale.Total.String(),
		"mode", input.Mode,
		"payment_method", input.PaymentMethod,
	)
	if s.queueClient != nil {
		if err := s.queueClient.EnqueueSaleCreated(ctx, queue.SaleCreatedPayload{
			SaleID: sale.ID,
			Source: sale.Source,
		}); err != nil {
			log.Warnw("order_enqueue_sale_created_failed",
				"sale_id", sale.ID,
				"error", err,
			)
		}
	}
	return sale, nil
}

// SaveAddress 追加保存用户地址，与下单相互独立
func (s *OrderService) SaveAddress(ctx context.Context, userID, address string) error {
	userID = strings.TrimSpace(userID)
	address = strings.TrimSpace(address)
	if userID == "" || address == "" {
		return ErrAddressSaveFailed
	}
	if s.addressRepo == nil {
		return ErrAddressSaveFailed
	}
	if err := s.addressRepo.Create(&models.UserAddress{
		UserID:    userID,
		Address:   address,
		CreatedAt: s.now().UTC(),
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrAddressSaveFailed, err)
	}
	return nil
}

func validatePlaceOrderInput(input PlaceOrderInput) error {
	if len(input.Items) == 0 || input.Total.IsNegative() {
		return ErrInvalidOrderItem
	}
	for _, item := range input.Items {
		if item.ProductID == 0 || item.Qty <= 0 {
			return ErrInvalidOrderItem
		}
	}
	if !isValidPaymentMethod(input.PaymentMethod) {
		return ErrPaymentMethodInvalid
	}
	if !isValidFulfillmentMode(input.Mode) {
		return ErrFulfillmentModeInvalid
	}
	if strings.TrimSpace(input.Location) == "" {
		return ErrLocationRequired
	}
	return nil
}

// buildOrderNotes 生成订单备注：Order from <source> (<mode>) - <location>. Details: {"streetDetails":"…"}
func buildOrderNotes(source, mode, location, details string) string {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(map[string]string{"streetDetails": details})
	return fmt.Sprintf("Order from %s (%s) - %s. Details: %s", source, mode, location, strings.TrimSpace(buf.String()))
}
