package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/manda2/internal/constants"
	"github.com/manda2/internal/models"
	"github.com/manda2/internal/repository"
)

type failingAddressRepoStub struct {
	repository.AddressRepository
	calls int
}

func (s *failingAddressRepoStub) Create(address *models.UserAddress) error {
	s.calls++
	return errors.New("address table locked")
}

type failingSaleRepoStub struct {
	repository.SaleRepository
}

func (s *failingSaleRepoStub) Create(sale *models.Sale) error {
	return errors.New("insert failed")
}

func orderInputFixture(mode, location string) PlaceOrderInput {
	cart := NewCartStore()
	_ = cart.Add(testProduct(1, "20", 10))
	_ = cart.Add(testProduct(1, "20", 10))
	for i := 0; i < 3; i++ {
		_ = cart.Add(testProduct(2, "5", 10))
	}
	snapshot := cart.Snapshot()
	return PlaceOrderInput{
		Items:          snapshot.Items,
		Total:          snapshot.Total,
		PaymentMethod:  constants.PaymentMethodCash,
		Mode:           mode,
		Location:       location,
		AddressDetails: "",
	}
}

func TestPlaceOrderPickupScenario(t *testing.T) {
	db := openServiceTestDB(t)
	svc := NewOrderService(repository.NewSaleRepository(db), repository.NewAddressRepository(db), nil, nil, "")

	sale, err := svc.PlaceOrder(context.Background(), orderInputFixture(constants.FulfillmentModePickup, "Sucursal Roma (Orizaba 101)"))
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if sale.ID == 0 {
		t.Fatalf("expected store-assigned id")
	}
	if sale.Total.String() != "55.00" || sale.FulfillmentStatus != constants.FulfillmentStatusPending {
		t.Fatalf("unexpected sale: total=%s status=%s", sale.Total.String(), sale.FulfillmentStatus)
	}
	if sale.Source != constants.SourceManda2 {
		t.Fatalf("unexpected source: %s", sale.Source)
	}
	want := `Order from Manda2 (pickup) - Sucursal Roma (Orizaba 101). Details: {"streetDetails":""}`
	if sale.Notes != want {
		t.Fatalf("unexpected notes:\n got %s\nwant %s", sale.Notes, want)
	}
	if sale.UserID != nil || sale.CustomerName != "" {
		t.Fatalf("anonymous order must not carry identity")
	}
}

func TestPlaceOrderDeliverySavesAddressForIdentity(t *testing.T) {
	db := openServiceTestDB(t)
	addressRepo := repository.NewAddressRepository(db)
	svc := NewOrderService(repository.NewSaleRepository(db), addressRepo, nil, nil, "Manda2")

	input := orderInputFixture(constants.FulfillmentModeDelivery, "Condesa, CDMX")
	input.AddressDetails = "Amsterdam 10 <int 3>"
	input.Identity = &CustomerIdentity{UserID: "user-9", Email: "ana@example.com"}
	sale, err := svc.PlaceOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if sale.UserID == nil || *sale.UserID != "user-9" || sale.CustomerName != "ana@example.com" {
		t.Fatalf("unexpected identity fields: %+v", sale)
	}
	if !strings.HasSuffix(sale.Notes, `{"streetDetails":"Amsterdam 10 <int 3>"}`) {
		t.Fatalf("details should be embedded unescaped, got %s", sale.Notes)
	}
	addresses, err := addressRepo.ListByUser("user-9")
	if err != nil {
		t.Fatalf("list addresses failed: %v", err)
	}
	if len(addresses) != 1 || addresses[0].Address != "Condesa, CDMX" {
		t.Fatalf("expected saved delivery zone, got %+v", addresses)
	}
}

func TestPlaceOrderAddressFailureDoesNotAbort(t *testing.T) {
	db := openServiceTestDB(t)
	addressRepo := &failingAddressRepoStub{}
	svc := NewOrderService(repository.NewSaleRepository(db), addressRepo, nil, nil, "")

	input := orderInputFixture(constants.FulfillmentModeDelivery, "Polanco, CDMX")
	input.AddressDetails = "Masaryk 1"
	input.Identity = &CustomerIdentity{UserID: "user-1"}
	sale, err := svc.PlaceOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("address failure must not abort order: %v", err)
	}
	if addressRepo.calls != 1 || sale.ID == 0 {
		t.Fatalf("expected one address attempt and a persisted sale")
	}
}

func TestPlaceOrderPickupSkipsAddressSave(t *testing.T) {
	db := openServiceTestDB(t)
	addressRepo := &failingAddressRepoStub{}
	svc := NewOrderService(repository.NewSaleRepository(db), addressRepo, nil, nil, "")

	input := orderInputFixture(constants.FulfillmentModePickup, "Sucursal Polanco (Masaryk 20)")
	input.Identity = &CustomerIdentity{UserID: "user-1"}
	if _, err := svc.PlaceOrder(context.Background(), input); err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if addressRepo.calls != 0 {
		t.Fatalf("pickup orders must not save addresses")
	}
}

func TestPlaceOrderPersistenceFailure(t *testing.T) {
	svc := NewOrderService(&failingSaleRepoStub{}, nil, nil, nil, "")
	_, err := svc.PlaceOrder(context.Background(), orderInputFixture(constants.FulfillmentModePickup, "Sucursal Roma (Orizaba 101)"))
	if !errors.Is(err, ErrOrderCreateFailed) {
		t.Fatalf("expected ErrOrderCreateFailed, got %v", err)
	}
}

func TestPlaceOrderValidatesBeforeIO(t *testing.T) {
	svc := NewOrderService(&failingSaleRepoStub{}, nil, nil, nil, "")
	empty := PlaceOrderInput{PaymentMethod: constants.PaymentMethodCash, Mode: constants.FulfillmentModePickup, Location: "x"}
	if _, err := svc.PlaceOrder(context.Background(), empty); !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("expected ErrInvalidOrderItem, got %v", err)
	}
	input := orderInputFixture("drone", "x")
	if _, err := svc.PlaceOrder(context.Background(), input); !errors.Is(err, ErrFulfillmentModeInvalid) {
		t.Fatalf("expected ErrFulfillmentModeInvalid, got %v", err)
	}
	input = orderInputFixture(constants.FulfillmentModePickup, "x")
	input.PaymentMethod = "voucher"
	if _, err := svc.PlaceOrder(context.Background(), input); !errors.Is(err, ErrPaymentMethodInvalid) {
		t.Fatalf("expected ErrPaymentMethodInvalid, got %v", err)
	}
}

func TestPlaceOrderStoresCreatedAtInUTC(t *testing.T) {
	db := openServiceTestDB(t)
	svc := NewOrderService(repository.NewSaleRepository(db), nil, nil, nil, "")
	fixed := time.Date(2026, 5, 3, 18, 30, 0, 0, time.FixedZone("CST", -6*3600))
	svc.now = func() time.Time { return fixed }

	sale, err := svc.PlaceOrder(context.Background(), orderInputFixture(constants.FulfillmentModePickup, "Sucursal Roma (Orizaba 101)"))
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if !sale.CreatedAt.Equal(fixed) || sale.CreatedAt.Location() != time.UTC {
		t.Fatalf("unexpected created_at: %s", sale.CreatedAt)
	}
}
