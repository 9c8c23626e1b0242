package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 进程内指标集合，所有方法对 nil 接收者安全
type Metrics struct {
	registry *prometheus.Registry

	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec

	OrdersCreated        *prometheus.CounterVec
	OrderCreateFailures  prometheus.Counter
	AddressSaveFailures  prometheus.Counter
	StatusTransitions    *prometheus.CounterVec
	StatusConflicts      prometheus.Counter
	MonitorPolls         *prometheus.CounterVec
	ReportComputations   *prometheus.CounterVec
	ActiveSessions       prometheus.Gauge
	CheckoutSubmitMillis prometheus.Histogram
}

// New 创建指标集合
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "manda2"
	}
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
		OrdersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Orders persisted, by fulfillment mode and payment method.",
		}, []string{"mode", "payment_method"}),
		OrderCreateFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "create_failures_total",
			Help:      "Order insert failures.",
		}),
		AddressSaveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "address_save_failures_total",
			Help:      "Best-effort address saves that failed.",
		}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fulfillment",
			Name:      "transitions_total",
			Help:      "Applied fulfillment status transitions.",
		}, []string{"from", "to"}),
		StatusConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fulfillment",
			Name:      "conflicts_total",
			Help:      "Status updates rejected because the order moved concurrently.",
		}),
		MonitorPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "polls_total",
			Help:      "Kitchen monitor refreshes by result.",
		}, []string{"result"}),
		ReportComputations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "computations_total",
			Help:      "Report aggregations by result.",
		}, []string{"result"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "active_sessions",
			Help:      "Open customer sessions.",
		}),
		CheckoutSubmitMillis: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "submit_duration_ms",
			Help:      "Checkout submit latency including the simulated payment.",
			Buckets:   []float64{50, 250, 1000, 2000, 2500, 5000, 10000},
		}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests,
		m.LatencyMS,
		m.OrdersCreated,
		m.OrderCreateFailures,
		m.AddressSaveFailures,
		m.StatusTransitions,
		m.StatusConflicts,
		m.MonitorPolls,
		m.ReportComputations,
		m.ActiveSessions,
		m.CheckoutSubmitMillis,
	)
	return m
}

// Handler 暴露 /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 底层注册表
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest 记录一次 HTTP 请求
func (m *Metrics) ObserveRequest(handler string, status int, latencyMS float64) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(handler).Observe(latencyMS)
}

// OrderCreated 记录订单创建
func (m *Metrics) OrderCreated(mode, paymentMethod string) {
	if m == nil {
		return
	}
	m.OrdersCreated.WithLabelValues(mode, paymentMethod).Inc()
}

// OrderCreateFailed 记录订单写入失败
func (m *Metrics) OrderCreateFailed() {
	if m == nil {
		return
	}
	m.OrderCreateFailures.Inc()
}

// AddressSaveFailed 记录地址保存失败
func (m *Metrics) AddressSaveFailed() {
	if m == nil {
		return
	}
	m.AddressSaveFailures.Inc()
}

// StatusAdvanced 记录履约状态推进
func (m *Metrics) StatusAdvanced(from, to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(from, to).Inc()
}

// StatusConflict 记录并发冲突
func (m *Metrics) StatusConflict() {
	if m == nil {
		return
	}
	m.StatusConflicts.Inc()
}

// MonitorPolled 记录看板刷新
func (m *Metrics) MonitorPolled(ok bool) {
	if m == nil {
		return
	}
	m.MonitorPolls.WithLabelValues(resultLabel(ok)).Inc()
}

// ReportComputed 记录报表聚合
func (m *Metrics) ReportComputed(ok bool) {
	if m == nil {
		return
	}
	m.ReportComputations.WithLabelValues(resultLabel(ok)).Inc()
}

// SessionOpened 会话数 +1
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

// SessionClosed 会话数 -1
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

// ObserveSubmit 记录结账提交耗时
func (m *Metrics) ObserveSubmit(latencyMS float64) {
	if m == nil {
		return
	}
	m.CheckoutSubmitMillis.Observe(latencyMS)
}

func resultLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
