package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/manda2/internal/http/response"

	"github.com/gin-gonic/gin"
)

func TestKeyBySessionAndIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/sessions/abc/checkout/submit", nil)
	c.Request.RemoteAddr = "1.2.3.4:5678"
	c.Params = gin.Params{{Key: "id", Value: " abc "}}

	if key := KeyBySessionAndIP(c); key != "abc|1.2.3.4" {
		t.Fatalf("key want abc|1.2.3.4 got %s", key)
	}

	c.Params = nil
	if key := KeyBySessionAndIP(c); key != "1.2.3.4" {
		t.Fatalf("key without session want 1.2.3.4 got %s", key)
	}
}

func TestRateLimitMiddlewareDisabledRule(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if !strings.Contains(w.Body.String(), `"ok":true`) {
			t.Fatalf("disabled rule should pass request %d, got %s", i, w.Body.String())
		}
	}
}

func TestRateLimitMiddlewareLocalFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{Prefix: "submit", WindowSeconds: 60, MaxRequests: 2}, KeyByIP))
	r.POST("/submit", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	serve := func(remote string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.RemoteAddr = remote
		req.Header.Set("Accept-Language", "en-US")
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := serve("9.9.9.9:1000"); !strings.Contains(w.Body.String(), `"ok":true`) {
			t.Fatalf("request %d within burst should pass, got %s", i, w.Body.String())
		}
	}

	w := serve("9.9.9.9:1000")
	var body response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if body.StatusCode != response.CodeTooManyRequests {
		t.Fatalf("third request should be limited, got %+v", body)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("limited response should carry Retry-After")
	}
	if !strings.HasPrefix(body.Msg, "Too many attempts, wait ") {
		t.Fatalf("unexpected limited msg: %s", body.Msg)
	}

	if w := serve("8.8.8.8:1000"); !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("other ip should not share the bucket, got %s", w.Body.String())
	}
}

func TestLocalLimiterReportsWaitSeconds(t *testing.T) {
	l := newLocalLimiter(RateLimitRule{WindowSeconds: 30, MaxRequests: 1})
	ok, _, err := l.allow(context.Background(), "k")
	if err != nil || !ok {
		t.Fatalf("first request should pass: ok=%v err=%v", ok, err)
	}
	ok, wait, err := l.allow(context.Background(), "k")
	if err != nil || ok {
		t.Fatalf("second request should be limited: ok=%v err=%v", ok, err)
	}
	if wait < 1 || wait > 30 {
		t.Fatalf("wait should fall within the window, got %d", wait)
	}
	if ok, _, _ := l.allow(context.Background(), "other"); !ok {
		t.Fatalf("other key should have its own bucket")
	}
}

func TestRateLimitKeyFallsBackToIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "5.6.7.8:90"

	blank := func(*gin.Context) string { return "  " }
	if key := rateLimitKey(c, RateLimitRule{Prefix: "submit"}, blank); key != "submit:5.6.7.8" {
		t.Fatalf("unexpected key: %s", key)
	}
	if key := rateLimitKey(c, RateLimitRule{}, nil); key != "5.6.7.8" {
		t.Fatalf("unexpected key without prefix: %s", key)
	}
}
