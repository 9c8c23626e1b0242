package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/manda2/internal/constants"
	"github.com/manda2/internal/events"
	"github.com/manda2/internal/queue"

	"github.com/hibiken/asynq"
)

type stubPublisher struct {
	enabled bool
	err     error
	events  []events.SaleEvent
}

func (s *stubPublisher) Enabled() bool { return s.enabled }

func (s *stubPublisher) Publish(ctx context.Context, event events.SaleEvent) error {
	s.events = append(s.events, event)
	return s.err
}

type stubInvalidator struct {
	calls int
	err   error
}

func (s *stubInvalidator) InvalidateCurrent(ctx context.Context) error {
	s.calls++
	return s.err
}

func newTestConsumer(publisher *stubPublisher, reports *stubInvalidator) *Consumer {
	fixed := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	return &Consumer{
		publisher: publisher,
		reports:   reports,
		now:       func() time.Time { return fixed },
	}
}

func TestHandleSaleCreatedPublishesEvent(t *testing.T) {
	publisher := &stubPublisher{enabled: true}
	reports := &stubInvalidator{}
	consumer := newTestConsumer(publisher, reports)

	task, err := queue.NewSaleCreatedTask(queue.SaleCreatedPayload{SaleID: 42, Source: "Manda2"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleSaleCreated(context.Background(), task); err != nil {
		t.Fatalf("handle sale created failed: %v", err)
	}
	if reports.calls != 1 {
		t.Fatalf("report cache should be invalidated once, got %d", reports.calls)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected one event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Type != constants.EventSaleCreated || event.SaleID != 42 || event.Status != constants.FulfillmentStatusPending {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Key() != "42" || event.EventID == "" {
		t.Fatalf("event should carry key and id: %+v", event)
	}
}

func TestHandleSaleStatusChangedPublishesTransition(t *testing.T) {
	publisher := &stubPublisher{enabled: true}
	consumer := newTestConsumer(publisher, &stubInvalidator{})

	task, err := queue.NewSaleStatusChangedTask(queue.SaleStatusChangedPayload{
		SaleID: 7,
		Source: "Manda2",
		From:   constants.FulfillmentStatusPreparing,
		To:     constants.FulfillmentStatusReady,
	})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleSaleStatusChanged(context.Background(), task); err != nil {
		t.Fatalf("handle status changed failed: %v", err)
	}
	event := publisher.events[0]
	if event.Status != constants.FulfillmentStatusReady || event.PreviousStatus != constants.FulfillmentStatusPreparing {
		t.Fatalf("unexpected transition event: %+v", event)
	}
}

func TestHandleSaleTasksSkipInvalidPayload(t *testing.T) {
	publisher := &stubPublisher{enabled: true}
	reports := &stubInvalidator{}
	consumer := newTestConsumer(publisher, reports)

	if err := consumer.handleSaleCreated(context.Background(), asynq.NewTask(queue.TaskSaleCreated, []byte(`{"sale_id":0}`))); err != nil {
		t.Fatalf("zero sale id should be skipped, got %v", err)
	}
	if err := consumer.handleSaleStatusChanged(context.Background(), asynq.NewTask(queue.TaskSaleStatusChanged, []byte(`{"sale_id":3}`))); err != nil {
		t.Fatalf("missing target status should be skipped, got %v", err)
	}
	if err := consumer.handleSaleCreated(context.Background(), asynq.NewTask(queue.TaskSaleCreated, []byte(`not-json`))); err == nil {
		t.Fatalf("malformed payload should return error for retry")
	}
	if len(publisher.events) != 0 || reports.calls != 0 {
		t.Fatalf("invalid payloads must not publish or invalidate")
	}
}

func TestHandleSaleCreatedBusDisabledOrFailing(t *testing.T) {
	task, err := queue.NewSaleCreatedTask(queue.SaleCreatedPayload{SaleID: 9, Source: "Manda2"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}

	disabled := &stubPublisher{enabled: false}
	reports := &stubInvalidator{err: errors.New("redis down")}
	if err := newTestConsumer(disabled, reports).handleSaleCreated(context.Background(), task); err != nil {
		t.Fatalf("disabled bus should not fail the task, got %v", err)
	}
	if len(disabled.events) != 0 || reports.calls != 1 {
		t.Fatalf("disabled bus should skip publish but still invalidate")
	}

	failing := &stubPublisher{enabled: true, err: errors.New("broker unavailable")}
	if err := newTestConsumer(failing, &stubInvalidator{}).handleSaleCreated(context.Background(), task); err == nil {
		t.Fatalf("publish failure should be returned for retry")
	}

	consumer := &Consumer{now: time.Now}
	if err := consumer.handleSaleCreated(context.Background(), task); err != nil {
		t.Fatalf("consumer without collaborators should noop, got %v", err)
	}
}

func TestLoopServiceRunsUntilCancelled(t *testing.T) {
	var runs int32
	svc := NewLoopService("test_loop", 5*time.Millisecond, true, func(ctx context.Context) error {
		if atomic.AddInt32(&runs, 1) == 2 {
			return errors.New("transient")
		}
		return nil
	})
	if svc.Name() != "test_loop" {
		t.Fatalf("unexpected name: %s", svc.Name())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&runs) < 3 {
		select {
		case <-deadline:
			cancel()
			t.Fatalf("loop did not run 3 times, got %d", atomic.LoadInt32(&runs))
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("loop should exit cleanly, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("loop did not stop after cancel")
	}
	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

func TestNewServiceRequiresQueue(t *testing.T) {
	if _, err := NewService(nil, &Consumer{}); !errors.Is(err, ErrQueueDisabled) {
		t.Fatalf("expected ErrQueueDisabled, got %v", err)
	}
}
