package config

import (
	"testing"
	"time"
)

func TestDefaultCheckoutSettings(t *testing.T) {
	cfg := Default()
	if cfg.Checkout.SourceTag != "Manda2" {
		t.Fatalf("unexpected source tag: %s", cfg.Checkout.SourceTag)
	}
	if cfg.Checkout.PaymentDelay() != 2*time.Second {
		t.Fatalf("unexpected payment delay: %s", cfg.Checkout.PaymentDelay())
	}
	if len(cfg.Checkout.DeliveryZones) != 5 {
		t.Fatalf("expected 5 delivery zones, got %d", len(cfg.Checkout.DeliveryZones))
	}
	if cfg.Queue.Queues["critical"] != 5 {
		t.Fatalf("unexpected queue weights: %v", cfg.Queue.Queues)
	}
}

func TestMonitorIntervalFallback(t *testing.T) {
	if got := (MonitorConfig{}).PollInterval(); got != 30*time.Second {
		t.Fatalf("poll interval fallback want 30s, got %s", got)
	}
	if got := (MonitorConfig{PollIntervalSeconds: 5}).PollInterval(); got != 5*time.Second {
		t.Fatalf("poll interval want 5s, got %s", got)
	}
	if got := (MonitorConfig{JitterMS: -1}).Jitter(); got != 0 {
		t.Fatalf("negative jitter should clamp to 0, got %s", got)
	}
}

func TestCheckoutDurationsClamp(t *testing.T) {
	c := CheckoutConfig{PaymentDelayMS: -10}
	if c.PaymentDelay() != 0 {
		t.Fatalf("negative payment delay should clamp to 0")
	}
	if c.SessionIdleTTL() != 2*time.Hour {
		t.Fatalf("session ttl fallback want 2h, got %s", c.SessionIdleTTL())
	}
}

func TestServerTimeouts(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr())
	}
	if cfg.Server.ShutdownTimeout() != 15*time.Second {
		t.Fatalf("shutdown timeout want 15s, got %s", cfg.Server.ShutdownTimeout())
	}
	if (ServerConfig{}).ReadHeaderTimeout() != 10*time.Second {
		t.Fatalf("read header timeout should fall back to 10s")
	}
}
