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

// MetricsSnapshot is a lightweight view of the collected counters.
type MetricsSnapshot struct {
	RequestsTotal            uint64  `json:"requests_total"`
	AverageRequestDurationMs float64 `json:"average_request_duration_ms"`
	VisitsConsumed           uint64  `json:"visits_consumed"`
	AttendanceRejected       uint64  `json:"attendance_rejected"`
	LessonsGenerated         uint64  `json:"lessons_generated"`
	Goroutines               int     `json:"goroutines"`
}

// MetricsService owns the Prometheus registry for HTTP and engine metrics.
// All methods are safe on a nil receiver.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	visitsConsumed     prometheus.Counter
	attendanceMarks    *prometheus.CounterVec
	attendanceRejected *prometheus.CounterVec
	lessonsCreated     *prometheus.CounterVec
	assignments        *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	visitCount           uint64
	rejectCount          uint64
	lessonCount          uint64
}

// NewMetricsService registers the collectors.
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

	visitsConsumed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dojo_visits_consumed_total",
		Help: "Subscription visits consumed by present marks",
	})

	attendanceMarks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dojo_attendance_marks_total",
		Help: "Attendance status writes by resulting status",
	}, []string{"status"})

	attendanceRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dojo_attendance_rejections_total",
		Help: "Present marks refused by the subscription gate",
	}, []string{"reason"})

	lessonsCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dojo_lessons_created_total",
		Help: "Lessons created by source",
	}, []string{"source"})

	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dojo_subscriptions_assigned_total",
		Help: "Subscription assignments by initial payment state",
	}, []string{"paid"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, visitsConsumed, attendanceMarks, attendanceRejected, lessonsCreated, assignments, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		visitsConsumed:     visitsConsumed,
		attendanceMarks:    attendanceMarks,
		attendanceRejected: attendanceRejected,
		lessonsCreated:     lessonsCreated,
		assignments:        assignments,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// ObserveHTTPRequest records request metrics.
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

// RecordVisitConsumed counts one visit charged to a subscription.
func (m *MetricsService) RecordVisitConsumed() {
	if m == nil {
		return
	}
	m.visitsConsumed.Inc()
	atomic.AddUint64(&m.visitCount, 1)
}

// RecordAttendanceMark counts a committed status write.
func (m *MetricsService) RecordAttendanceMark(status string) {
	if m == nil {
		return
	}
	if status == "" {
		status = "unmarked"
	}
	m.attendanceMarks.WithLabelValues(status).Inc()
}

// RecordAttendanceRejected counts a present mark refused with reason.
func (m *MetricsService) RecordAttendanceRejected(reason string) {
	if m == nil {
		return
	}
	m.attendanceRejected.WithLabelValues(reason).Inc()
	atomic.AddUint64(&m.rejectCount, 1)
}

// RecordLessonsCreated counts n lessons created from source.
func (m *MetricsService) RecordLessonsCreated(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.lessonsCreated.WithLabelValues(source).Add(float64(n))
	atomic.AddUint64(&m.lessonCount, uint64(n))
}

// RecordAssignment counts a new subscription assignment.
func (m *MetricsService) RecordAssignment(paid bool) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(fmt.Sprintf("%t", paid)).Inc()
}

// Snapshot returns aggregated counters.
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
		VisitsConsumed:           atomic.LoadUint64(&m.visitCount),
		AttendanceRejected:       atomic.LoadUint64(&m.rejectCount),
		LessonsGenerated:         atomic.LoadUint64(&m.lessonCount),
		Goroutines:               runtime.NumGoroutine(),
	}
}
