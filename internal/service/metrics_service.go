package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the timetable
// API: HTTP traffic, detection passes and conflict-cache effectiveness.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	detectionRuns     *prometheus.CounterVec
	detectionDuration prometheus.Histogram
	conflictsByType   *prometheus.GaugeVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
}

// NewMetricsService registers the core collectors.
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

	detectionRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "conflict_detection_runs_total",
		Help: "Total number of conflict detection passes",
	}, []string{"term"})

	detectionDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "conflict_detection_duration_seconds",
		Help:    "Duration of conflict detection passes",
		Buckets: prometheus.DefBuckets,
	})

	conflictsByType := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedule_conflicts",
		Help: "Conflicts found by the most recent detection pass, by type",
	}, []string{"term", "type"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "conflict_cache_hits_total",
		Help: "Total conflict cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "conflict_cache_misses_total",
		Help: "Total conflict cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, detectionRuns, detectionDuration, conflictsByType, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		detectionRuns:     detectionRuns,
		detectionDuration: detectionDuration,
		conflictsByType:   conflictsByType,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveDetection records one detection pass and the conflicts it found.
func (m *MetricsService) ObserveDetection(termID string, duration time.Duration, conflicts []models.ScheduleConflict) {
	if m == nil {
		return
	}
	m.detectionRuns.WithLabelValues(termID).Inc()
	m.detectionDuration.Observe(duration.Seconds())

	counts := map[models.ConflictType]int{
		models.ConflictTeacherDoubleBooking: 0,
		models.ConflictRoomConflict:         0,
		models.ConflictClassOverload:        0,
		models.ConflictTeacherOverload:      0,
	}
	for _, conflict := range conflicts {
		counts[conflict.Type]++
	}
	for conflictType, count := range counts {
		m.conflictsByType.WithLabelValues(termID, string(conflictType)).Set(float64(count))
	}
}

// RecordConflictCache tracks conflict-cache lookups.
func (m *MetricsService) RecordConflictCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
