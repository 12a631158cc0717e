// Package metrics provides Prometheus instrumentation for the forms server.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	// HTTP request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Domain metrics
	TemplatesCreated prometheus.Counter
	VersionsSaved    prometheus.Counter
	SessionsOpened   prometheus.Counter
	PresetApplies    *prometheus.CounterVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	m := &Metrics{}

	m.RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emrforms_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "emrforms_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.TemplatesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "emrforms_templates_created_total",
			Help: "Total number of templates created",
		},
	)

	m.VersionsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "emrforms_template_versions_saved_total",
			Help: "Total number of template versions saved",
		},
	)

	m.SessionsOpened = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "emrforms_builder_sessions_opened_total",
			Help: "Total number of builder sessions opened",
		},
	)

	m.PresetApplies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emrforms_preset_applies_total",
			Help: "Total number of preset pack applications",
		},
		[]string{"pack"},
	)

	return m
}

// Middleware records per-request counters and latency. The route path is
// used as the label, not the raw URL, to keep cardinality bounded.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			path := c.Path()
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			m.RequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			m.RequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
