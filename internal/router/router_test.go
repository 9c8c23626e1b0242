package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestBuildAdminPermissionCatalog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	noop := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/api/v1/admin/monitor/orders", noop)
	r.GET("/api/v1/admin/reports/metrics", noop)
	r.PATCH("/api/v1/admin/sales/:id/fulfillment-status", noop)
	r.GET("/api/v1/public/products", noop)

	items := buildAdminPermissionCatalog(r)
	if len(items) != 3 {
		t.Fatalf("expected 3 admin permissions, got %d: %+v", len(items), items)
	}
	if items[0].Module != "monitor" || items[0].Permission != "GET:/admin/monitor/orders" {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[2].Module != "sales" || items[2].Method != http.MethodPatch {
		t.Fatalf("unexpected last item: %+v", items[2])
	}
}

func TestDeriveAdminPermissionModule(t *testing.T) {
	cases := map[string]string{
		"":                                  "system",
		"/admin/reports/*":                  "reports",
		"/admin/operators/:username/revoke": "operators",
		"/healthz":                          "healthz",
	}
	for object, want := range cases {
		if got := deriveAdminPermissionModule(object); got != want {
			t.Fatalf("module for %q want %s got %s", object, want, got)
		}
	}
}

func TestRecoverWithEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware(), LoggerMiddleware(), gin.CustomRecovery(recoverWithEnvelope))
	r.GET("/boom", func(c *gin.Context) { panic("kitchen printer offline") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom?lang=en-US", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("panic should still use the envelope, got http %d", w.Code)
	}
	if code := decodeStatusCode(t, w); code != 500 {
		t.Fatalf("expected status_code 500, got %d", code)
	}
}
