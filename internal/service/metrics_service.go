package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ledger transition outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	ledgerTransitions *prometheus.CounterVec
	tuitionCharged    prometheus.Counter
	tuitionRefunded   prometheus.Counter
	tuitionCollected  prometheus.Counter
	activeEnrollments prometheus.Gauge

	requestCount         uint64
	requestDurationTotal uint64
	transitionCount      uint64
	rejectedCount        uint64
}

// MetricsSnapshot is a cheap summary of the counters for JSON endpoints.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	LedgerTransitions        uint64    `json:"ledger_transitions"`
	LedgerRejections         uint64    `json:"ledger_rejections"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	ledgerTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transitions_total",
		Help: "Enrollment ledger transitions by operation and outcome",
	}, []string{"operation", "outcome"})

	tuitionCharged := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_tuition_charged_total",
		Help: "Tuition charged at enrollment time",
	})

	tuitionCollected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_tuition_collected_total",
		Help: "Tuition payments received",
	})

	tuitionRefunded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_tuition_refunded_total",
		Help: "Tuition refunded on dropped paid enrollments",
	})

	activeEnrollments := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_active_enrollments",
		Help: "Enrollments currently holding a seat",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, ledgerTransitions, tuitionCharged, tuitionCollected, tuitionRefunded, activeEnrollments, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:          registry,
		handler:           handler,
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		ledgerTransitions: ledgerTransitions,
		tuitionCharged:    tuitionCharged,
		tuitionCollected:  tuitionCollected,
		tuitionRefunded:   tuitionRefunded,
		activeEnrollments: activeEnrollments,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the collector registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveLedgerTransition counts one enroll/drop/pay/grade attempt.
func (m *MetricsService) ObserveLedgerTransition(operation, outcome string) {
	if m == nil {
		return
	}
	m.ledgerTransitions.WithLabelValues(operation, outcome).Inc()
	atomic.AddUint64(&m.transitionCount, 1)
	if outcome != OutcomeSuccess {
		atomic.AddUint64(&m.rejectedCount, 1)
	}
}

// ObserveTuition records money movements. Charges and payments are positive;
// refunds are passed as negative payments.
func (m *MetricsService) ObserveTuition(charged, paid float64) {
	if m == nil {
		return
	}
	if charged > 0 {
		m.tuitionCharged.Add(charged)
	}
	switch {
	case paid > 0:
		m.tuitionCollected.Add(paid)
	case paid < 0:
		m.tuitionRefunded.Add(-paid)
	}
}

// AddActiveEnrollments moves the seat gauge.
func (m *MetricsService) AddActiveEnrollments(delta int) {
	if m == nil {
		return
	}
	m.activeEnrollments.Add(float64(delta))
}

// Snapshot returns aggregated metrics suitable for JSON endpoints.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		LedgerTransitions:        atomic.LoadUint64(&m.transitionCount),
		LedgerRejections:         atomic.LoadUint64(&m.rejectedCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
