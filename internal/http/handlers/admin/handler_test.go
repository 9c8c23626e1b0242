package admin

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/manda2/internal/config"
	handlershared "github.com/manda2/internal/http/handlers/shared"
	"github.com/manda2/internal/models"
	"github.com/manda2/internal/provider"
	"github.com/manda2/internal/repository"
	"github.com/manda2/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type testEnvelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type failingReportRepo struct {
	repository.ReportRepository
}

func (failingReportRepo) GetSalesSummary(startAt, endAt time.Time) (repository.ReportSummaryRow, error) {
	return repository.ReportSummaryRow{}, errors.New("connection reset")
}

func openAdminTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Operator{}, &models.Product{}, &models.Sale{}, &models.SaleItem{}, &models.UserAddress{}); err != nil {
		t.Fatalf("migrate models failed: %v", err)
	}
	return db
}

func newAdminTestRouter(t *testing.T, db *gorm.DB, reportRepo repository.ReportRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Report.Timezone = "UTC"
	cfg.Monitor.PollIntervalSeconds = 1
	cfg.Monitor.JitterMS = 0
	saleRepo := repository.NewSaleRepository(db)
	operatorRepo := repository.NewOperatorRepository(db)
	h := New(&provider.Container{
		Config:             cfg,
		OperatorRepo:       operatorRepo,
		AuthService:        service.NewAuthService(cfg, operatorRepo),
		OrderService:       service.NewOrderService(saleRepo, repository.NewAddressRepository(db), nil, nil, cfg.Checkout.SourceTag),
		FulfillmentService: service.NewFulfillmentService(saleRepo, nil, nil),
		ReportService:      service.NewReportService(reportRepo, cfg.Report, nil),
	})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-Anonymous") == "" {
			c.Set(handlershared.ContextOperatorID, uint(7))
		}
		c.Next()
	})
	r.GET("/monitor/orders", h.ListMonitorOrders)
	r.GET("/monitor/stream", h.StreamMonitor)
	r.PATCH("/sales/:id/fulfillment-status", h.UpdateFulfillmentStatus)
	r.GET("/reports/metrics", h.GetReportMetrics)
	r.GET("/reports/trends", h.GetReportTrends)
	r.GET("/reports/top-products", h.GetReportTopProducts)
	r.POST("/operators/:username/revoke", h.RevokeOperatorTokens)
	return r
}

func serveAdmin(t *testing.T, r *gin.Engine, method, path string, body interface{}, headers ...string) testEnvelope {
	t.Helper()
	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		payload = raw
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env testEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: unmarshal response failed: %v body=%s", method, path, err, w.Body.String())
	}
	return env
}

func seedSale(t *testing.T, db *gorm.DB, total int64, status string, createdAt time.Time) models.Sale {
	t.Helper()
	sale := models.Sale{
		Total:               models.NewMoneyFromInt(total),
		PaymentMethod:       "card",
		Notes:               "Manda2 | pickup | Sucursal Roma",
		Source:              "Manda2",
		FulfillmentMode:     "pickup",
		FulfillmentLocation: "Sucursal Roma",
		FulfillmentStatus:   status,
		CreatedAt:           createdAt,
	}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("create sale failed: %v", err)
	}
	return sale
}

func TestUpdateFulfillmentStatusMapping(t *testing.T) {
	db := openAdminTestDB(t)
	r := newAdminTestRouter(t, db, repository.NewReportRepository(db))
	sale := seedSale(t, db, 120, "pending", time.Now().UTC())
	path := fmt.Sprintf("/sales/%d/fulfillment-status", sale.ID)

	if env := serveAdmin(t, r, http.MethodPatch, path, gin.H{"status": "ready"}); env.StatusCode != 400 {
		t.Fatalf("skipping a stage should be rejected with 400, got %d", env.StatusCode)
	}

	env := serveAdmin(t, r, http.MethodPatch, path, gin.H{"status": "preparing"}, "Accept-Language", "en-US")
	if env.StatusCode != 0 {
		t.Fatalf("advance to preparing failed: %d %s", env.StatusCode, env.Msg)
	}
	var view MonitorOrderView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode view failed: %v", err)
	}
	if view.Status != "preparing" || view.NextStatus != "ready" || view.ActionLabel != "Mark ready" {
		t.Fatalf("unexpected view: %+v", view)
	}

	if env := serveAdmin(t, r, http.MethodPatch, path, gin.H{"status": "preparing"}); env.StatusCode != 400 {
		t.Fatalf("repeating a stage should be rejected with 400, got %d", env.StatusCode)
	}
	if env := serveAdmin(t, r, http.MethodPatch, path, gin.H{"status": "cancelled"}); env.StatusCode != 400 {
		t.Fatalf("unknown status should be rejected with 400, got %d", env.StatusCode)
	}
	if env := serveAdmin(t, r, http.MethodPatch, "/sales/999/fulfillment-status", gin.H{"status": "preparing"}); env.StatusCode != 404 {
		t.Fatalf("missing sale should be 404, got %d", env.StatusCode)
	}
	if env := serveAdmin(t, r, http.MethodPatch, "/sales/abc/fulfillment-status", gin.H{"status": "preparing"}); env.StatusCode != 400 {
		t.Fatalf("invalid id should be 400, got %d", env.StatusCode)
	}
	if env := serveAdmin(t, r, http.MethodPatch, path, gin.H{}); env.StatusCode != 400 {
		t.Fatalf("missing status should be 400, got %d", env.StatusCode)
	}
	if env := serveAdmin(t, r, http.MethodPatch, path, gin.H{"status": "ready"}, "X-Test-Anonymous", "1"); env.StatusCode != 401 {
		t.Fatalf("missing operator should be 401, got %d", env.StatusCode)
	}

	var stored models.Sale
	if err := db.First(&stored, sale.ID).Error; err != nil {
		t.Fatalf("reload sale failed: %v", err)
	}
	if stored.FulfillmentStatus != "preparing" || stored.Total.String() != "120.00" {
		t.Fatalf("only the status should change, got status=%s total=%s", stored.FulfillmentStatus, stored.Total.String())
	}
}

func TestListMonitorOrdersSkipsCompleted(t *testing.T) {
	db := openAdminTestDB(t)
	r := newAdminTestRouter(t, db, repository.NewReportRepository(db))
	now := time.Now().UTC()
	first := seedSale(t, db, 80, "pending", now.Add(-10*time.Minute))
	seedSale(t, db, 50, "completed", now.Add(-5*time.Minute))
	second := seedSale(t, db, 30, "ready", now.Add(-time.Minute))

	env := serveAdmin(t, r, http.MethodGet, "/monitor/orders", nil)
	if env.StatusCode != 0 {
		t.Fatalf("list monitor orders failed: %d %s", env.StatusCode, env.Msg)
	}
	var view MonitorView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode monitor view failed: %v", err)
	}
	if len(view.Orders) != 2 {
		t.Fatalf("expected 2 open orders, got %d", len(view.Orders))
	}
	if view.Orders[0].ID != first.ID || view.Orders[1].ID != second.ID {
		t.Fatalf("orders should be oldest first, got %d %d", view.Orders[0].ID, view.Orders[1].ID)
	}
	if view.Orders[0].StatusLabel != "Pendiente" {
		t.Fatalf("default locale label want Pendiente, got %q", view.Orders[0].StatusLabel)
	}
}

func TestStreamMonitorStopsPollingOnDisconnect(t *testing.T) {
	db := openAdminTestDB(t)
	r := newAdminTestRouter(t, db, repository.NewReportRepository(db))
	pending := seedSale(t, db, 80, "pending", time.Now().UTC().Add(-time.Minute))

	var queries atomic.Int32
	if err := db.Callback().Query().After("gorm:query").Register("count_queries", func(*gorm.DB) {
		queries.Add(1)
	}); err != nil {
		t.Fatalf("register callback failed: %v", err)
	}
	done := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer close(done)
		r.ServeHTTP(w, req)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/monitor/stream", nil)
	if err != nil {
		t.Fatalf("build request failed: %v", err)
	}
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("open stream failed: %v", err)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type: %s", ct)
	}

	reader := bufio.NewReader(resp.Body)
	var event, data string
	for data == "" {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream failed: %v", err)
		}
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	if event != "orders" {
		t.Fatalf("first event want orders, got %q", event)
	}
	var view MonitorView
	if err := json.Unmarshal([]byte(data), &view); err != nil {
		t.Fatalf("decode stream payload failed: %v", err)
	}
	if len(view.Orders) != 1 || view.Orders[0].ID != pending.ID || view.Orders[0].NextStatus != "preparing" {
		t.Fatalf("unexpected streamed orders: %+v", view.Orders)
	}

	cancel()
	_ = resp.Body.Close()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("stream handler did not return after disconnect")
	}
	time.Sleep(200 * time.Millisecond)
	settled := queries.Load()
	time.Sleep(1500 * time.Millisecond)
	if got := queries.Load(); got != settled {
		t.Fatalf("feed kept polling after disconnect: %d -> %d queries", settled, got)
	}
}

func TestReportMetricsEndpoint(t *testing.T) {
	db := openAdminTestDB(t)
	r := newAdminTestRouter(t, db, repository.NewReportRepository(db))
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	seedSale(t, db, 100, "completed", now.Add(-time.Second))
	seedSale(t, db, 50, "completed", monthStart.Add(-48*time.Hour))

	env := serveAdmin(t, r, http.MethodGet, "/reports/metrics?force_refresh=true", nil)
	if env.StatusCode != 0 {
		t.Fatalf("metrics failed: %d %s", env.StatusCode, env.Msg)
	}
	var metrics service.ReportMetricsResponse
	if err := json.Unmarshal(env.Data, &metrics); err != nil {
		t.Fatalf("decode metrics failed: %v", err)
	}
	if metrics.Current.TotalOrders != 1 || metrics.Prior.TotalOrders != 1 {
		t.Fatalf("expected one order per period, got %d %d", metrics.Current.TotalOrders, metrics.Prior.TotalOrders)
	}
	if metrics.Current.TotalSales != "100.00" || metrics.Prior.TotalSales != "50.00" {
		t.Fatalf("unexpected totals: %s %s", metrics.Current.TotalSales, metrics.Prior.TotalSales)
	}
	if metrics.Changes.Sales.Trend != "up" {
		t.Fatalf("sales trend want up, got %s", metrics.Changes.Sales.Trend)
	}
}

func TestReportEndpointsReturnZeroDataOnFailure(t *testing.T) {
	db := openAdminTestDB(t)
	r := newAdminTestRouter(t, db, failingReportRepo{})

	env := serveAdmin(t, r, http.MethodGet, "/reports/metrics", nil)
	if env.StatusCode != 500 {
		t.Fatalf("metrics failure should be 500, got %d", env.StatusCode)
	}
	var metrics service.ReportMetricsResponse
	if err := json.Unmarshal(env.Data, &metrics); err != nil {
		t.Fatalf("decode zero metrics failed: %v", err)
	}
	if metrics.Current.TotalSales != "0.00" || metrics.Current.TotalOrders != 0 || metrics.Loading {
		t.Fatalf("failure should carry zero metrics, got %+v", metrics.Current)
	}
}

func TestRevokeOperatorTokens(t *testing.T) {
	db := openAdminTestDB(t)
	r := newAdminTestRouter(t, db, repository.NewReportRepository(db))
	if err := db.Create(&models.Operator{Username: "cocina", DisplayName: "Cocina"}).Error; err != nil {
		t.Fatalf("create operator failed: %v", err)
	}

	if env := serveAdmin(t, r, http.MethodPost, "/operators/ghost/revoke", nil); env.StatusCode != 404 {
		t.Fatalf("unknown operator should be 404, got %d", env.StatusCode)
	}
	if env := serveAdmin(t, r, http.MethodPost, "/operators/cocina/revoke", nil); env.StatusCode != 0 {
		t.Fatalf("revoke failed: %d %s", env.StatusCode, env.Msg)
	}
	var operator models.Operator
	if err := db.Where("username = ?", "cocina").First(&operator).Error; err != nil {
		t.Fatalf("reload operator failed: %v", err)
	}
	if operator.TokenVersion != 1 || operator.TokenInvalidBefore == nil {
		t.Fatalf("revoke should bump token version, got %d", operator.TokenVersion)
	}
}
