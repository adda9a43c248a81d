package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "opportunity_engine"

// Opportunity creation sources.
const (
	SourceSingle = "single"
	SourceBatch  = "batch"
)

// Metrics stores Prometheus collectors used by the API and batch flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal         *prometheus.CounterVec
	httpRequestDuration       *prometheus.HistogramVec
	opportunitiesCreatedTotal *prometheus.CounterVec
	batchFailuresTotal        *prometheus.CounterVec
	batchRunsTotal            *prometheus.CounterVec
	batchDuration             prometheus.Histogram
	batchSize                 prometheus.Histogram
	stageTransitionsTotal     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		opportunitiesCreatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "opportunities_created_total",
				Help:      "Total number of opportunities created, by source.",
			},
			[]string{"source"},
		),
		batchFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_principal_failures_total",
				Help:      "Total number of principals that failed inside a batch, by reason.",
			},
			[]string{"reason"},
		),
		batchRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_runs_total",
				Help:      "Total number of batch runs by outcome (complete, partial, failed).",
			},
			[]string{"outcome"},
		),
		batchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Wall time of a batch run in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		batchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_size_principals",
				Help:      "Number of principals requested per batch.",
				Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
			},
		),
		stageTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_transitions_total",
				Help:      "Total number of stage transitions by target stage.",
			},
			[]string{"stage"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.opportunitiesCreatedTotal,
		m.batchFailuresTotal,
		m.batchRunsTotal,
		m.batchDuration,
		m.batchSize,
		m.stageTransitionsTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncOpportunityCreated(source string) {
	if m == nil {
		return
	}
	m.opportunitiesCreatedTotal.WithLabelValues(normalizeLabel(source)).Inc()
}

func (m *Metrics) IncBatchFailure(reason string) {
	if m == nil {
		return
	}
	m.batchFailuresTotal.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObserveBatch records one finished batch run.
func (m *Metrics) ObserveBatch(requested, created int, duration time.Duration) {
	if m == nil {
		return
	}

	outcome := "complete"
	switch {
	case created == 0:
		outcome = "failed"
	case created < requested:
		outcome = "partial"
	}

	m.batchRunsTotal.WithLabelValues(outcome).Inc()
	m.batchSize.Observe(float64(requested))
	m.batchDuration.Observe(max(duration.Seconds(), 0))
}

func (m *Metrics) IncStageTransition(stage string) {
	if m == nil {
		return
	}
	m.stageTransitionsTotal.WithLabelValues(normalizeLabel(stage)).Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(v string) string {
	normalized := strings.ToLower(strings.TrimSpace(v))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
