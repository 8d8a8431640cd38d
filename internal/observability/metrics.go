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

// Metrics stores Prometheus collectors for the dispatch, response and
// scoring flows plus the HTTP surface.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal       *prometheus.CounterVec
	httpRequestDuration     *prometheus.HistogramVec
	notificationsDispatched *prometheus.CounterVec
	notificationsResponded  *prometheus.CounterVec
	notificationsExpired    *prometheus.CounterVec
	dispatchFailuresTotal   *prometheus.CounterVec
	responseDuration        *prometheus.HistogramVec
	awaitingResponse        prometheus.Gauge
	scheduleTicksTotal      prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "urgency_engine",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "urgency_engine",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		notificationsDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "urgency_engine",
				Name:      "notifications_dispatched_total",
				Help:      "Total number of notifications dispatched, by priority.",
			},
			[]string{"priority"},
		),
		notificationsResponded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "urgency_engine",
				Name:      "notifications_responded_total",
				Help:      "Total number of notifications resolved by a user response, by priority.",
			},
			[]string{"priority"},
		),
		notificationsExpired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "urgency_engine",
				Name:      "notifications_expired_total",
				Help:      "Total number of notifications that hit their deadline, by priority.",
			},
			[]string{"priority"},
		),
		dispatchFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "urgency_engine",
				Name:      "dispatch_failures_total",
				Help:      "Total number of single-dispatch aborts, by reason.",
			},
			[]string{"reason"},
		),
		responseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "urgency_engine",
				Name:      "response_duration_seconds",
				Help:      "Latency from dispatch to user response, by priority.",
				Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
			},
			[]string{"priority"},
		),
		awaitingResponse: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "urgency_engine",
				Name:      "awaiting_response",
				Help:      "Number of sent notifications whose deadline has not resolved yet.",
			},
		),
		scheduleTicksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "urgency_engine",
				Name:      "schedule_ticks_total",
				Help:      "Total number of scheduler tick scans.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.notificationsDispatched,
		m.notificationsResponded,
		m.notificationsExpired,
		m.dispatchFailuresTotal,
		m.responseDuration,
		m.awaitingResponse,
		m.scheduleTicksTotal,
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

func (m *Metrics) IncDispatched(priority string) {
	if m == nil {
		return
	}
	m.notificationsDispatched.WithLabelValues(normalizePriority(priority)).Inc()
	m.awaitingResponse.Inc()
}

func (m *Metrics) IncResponded(priority string, responseTime time.Duration) {
	if m == nil {
		return
	}
	label := normalizePriority(priority)
	m.notificationsResponded.WithLabelValues(label).Inc()
	m.awaitingResponse.Dec()

	seconds := responseTime.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.responseDuration.WithLabelValues(label).Observe(seconds)
}

func (m *Metrics) IncExpired(priority string) {
	if m == nil {
		return
	}
	m.notificationsExpired.WithLabelValues(normalizePriority(priority)).Inc()
	m.awaitingResponse.Dec()
}

func (m *Metrics) IncDispatchFailure(reason string) {
	if m == nil {
		return
	}
	reasonLabel := strings.TrimSpace(strings.ToLower(reason))
	if reasonLabel == "" {
		reasonLabel = "unknown"
	}
	m.dispatchFailuresTotal.WithLabelValues(reasonLabel).Inc()
}

func (m *Metrics) IncScheduleTick() {
	if m == nil {
		return
	}
	m.scheduleTicksTotal.Inc()
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

func normalizePriority(priority string) string {
	normalized := strings.ToLower(strings.TrimSpace(priority))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
