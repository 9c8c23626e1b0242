package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/manda2/internal/config"
)

type fakeService struct {
	name     string
	startErr error
	block    bool
	stopped  int32
	order    *stopOrder
}

type stopOrder struct {
	mu    sync.Mutex
	names []string
}

func (o *stopOrder) add(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.names = append(o.names, name)
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *fakeService) Stop(ctx context.Context) error {
	atomic.AddInt32(&s.stopped, 1)
	if s.order != nil {
		s.order.add(s.name)
	}
	return nil
}

func TestRunnerStopsAllServicesOnFailure(t *testing.T) {
	order := &stopOrder{}
	failing := &fakeService{name: "http", startErr: errors.New("bind: address already in use"), order: order}
	loop := &fakeService{name: "session_sweeper", block: true, order: order}
	runner := NewRunner(failing, loop)
	var hooks []string
	runner.OnShutdown(func() { hooks = append(hooks, "close_container") })
	runner.OnShutdown(func() { hooks = append(hooks, "flush") })
	runner.OnShutdown(nil)

	err := runner.Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "bind: address already in use" {
		t.Fatalf("expected start error, got %v", err)
	}
	if atomic.LoadInt32(&failing.stopped) != 1 || atomic.LoadInt32(&loop.stopped) != 1 {
		t.Fatalf("every service should be stopped once")
	}
	if len(order.names) != 2 || order.names[0] != "session_sweeper" || order.names[1] != "http" {
		t.Fatalf("services should stop in reverse order, got %v", order.names)
	}
	if len(hooks) != 2 || hooks[0] != "flush" || hooks[1] != "close_container" {
		t.Fatalf("shutdown hooks should run in reverse order, got %v", hooks)
	}
}

func TestRunnerCancelledContextReturnsNil(t *testing.T) {
	runner := NewRunner(&fakeService{name: "report_warmup", block: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runner.Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}
}

func TestRunnerWithoutServices(t *testing.T) {
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("empty runner should fail")
	}
}

func TestRunnerNilService(t *testing.T) {
	loop := &fakeService{name: "session_sweeper", block: true}
	if err := NewRunner(nil, loop).Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("nil service should fail the run")
	}
	if atomic.LoadInt32(&loop.stopped) != 1 {
		t.Fatalf("remaining services should still be stopped")
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]string{
		"":       ModeAll,
		" API ":  ModeAPI,
		"worker": ModeWorker,
		"all":    ModeAll,
	}
	for input, want := range cases {
		got, err := ParseMode(input)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v; want %q", input, got, err, want)
		}
	}
	if _, err := ParseMode("cron"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}

func TestNormalizeOptionsDefaults(t *testing.T) {
	opts := normalizeOptions(Options{})
	if opts.Mode != ModeAll || opts.ShutdownTimeout != 10*time.Second || opts.Logger == nil {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
	if !opts.servesHTTP() || !opts.runsWorker() {
		t.Fatalf("mode all should run http and worker")
	}

	opts = normalizeOptions(Options{Config: config.Default(), Mode: ModeWorker})
	if opts.ShutdownTimeout != 15*time.Second {
		t.Fatalf("shutdown timeout should come from config, got %s", opts.ShutdownTimeout)
	}
	if opts.servesHTTP() || !opts.runsWorker() {
		t.Fatalf("worker mode should only run the worker")
	}
}

func TestHTTPServiceStartStop(t *testing.T) {
	svc := NewHTTPService("127.0.0.1:0", http.NotFoundHandler(), time.Second)
	if svc.Name() != "http" || svc.server.ReadHeaderTimeout != time.Second {
		t.Fatalf("unexpected http service: %+v", svc.server)
	}

	done := make(chan error, 1)
	go func() { done <- svc.Start(context.Background()) }()
	time.Sleep(20 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.Stop(stopCtx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start should return nil after shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("http service did not exit after stop")
	}
	if svc.server.BaseContext == nil {
		t.Fatalf("request contexts should derive from the service context")
	}
}
