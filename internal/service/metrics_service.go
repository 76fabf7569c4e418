package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API surface
// and the generation pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cycleDuration   *prometheus.HistogramVec
	cycleTotal      *prometheus.CounterVec
	submitDuration  prometheus.Observer
	diagnostics     *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers the core collectors on a private registry.
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

	cycleDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "generation_cycle_duration_seconds",
		Help:    "Duration of full schedule generation cycles",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	cycleTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generation_cycles_total",
		Help: "Total generation cycles by outcome",
	}, []string{"outcome"})

	submitDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "remote_submit_duration_seconds",
		Help:    "Duration of remote scheduling service submissions",
		Buckets: prometheus.DefBuckets,
	})

	diagnostics := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generation_diagnostics_total",
		Help: "Soft findings accumulated during generation cycles, by kind",
	}, []string{"kind"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_cache_hits_total",
		Help: "Total latest-schedule cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_cache_misses_total",
		Help: "Total latest-schedule cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cycleDuration, cycleTotal, submitDuration, diagnostics, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cycleDuration:   cycleDuration,
		cycleTotal:      cycleTotal,
		submitDuration:  submitDuration,
		diagnostics:     diagnostics,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
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

// ObserveCycle records the outcome and duration of one generation cycle.
func (m *MetricsService) ObserveCycle(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.cycleDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.cycleTotal.WithLabelValues(outcome).Inc()
}

// ObserveSubmit records the latency of one remote submission.
func (m *MetricsService) ObserveSubmit(duration time.Duration) {
	if m == nil {
		return
	}
	m.submitDuration.Observe(duration.Seconds())
}

// CountDiagnostic tallies one soft finding by kind.
func (m *MetricsService) CountDiagnostic(kind string) {
	if m == nil {
		return
	}
	m.diagnostics.WithLabelValues(kind).Inc()
}

// RecordCacheLookup tallies a latest-schedule cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
