// Package metrics exposes Prometheus counters for the entitlement engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/XAOSTECH/payments.xaostech.io/internal/domain/entity"
	apperrors "github.com/XAOSTECH/payments.xaostech.io/pkg/errors"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "payments"

// Metrics holds all Prometheus metrics. All methods are safe on a nil
// receiver.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	WebhookEventsTotal    *prometheus.CounterVec
	PlanResolutionsTotal  *prometheus.CounterVec
	FamilyOperationsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		WebhookEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Webhook events by type, action and error code",
			},
			[]string{"event_type", "action", "code"},
		),
		PlanResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plan_resolutions_total",
				Help:      "Effective plan resolutions by source",
			},
			[]string{"source"},
		),
		FamilyOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "family_operations_total",
				Help:      "Family plan operations by outcome code",
			},
			[]string{"operation", "code"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.WebhookEventsTotal,
		m.PlanResolutionsTotal,
		m.FamilyOperationsTotal,
	)

	return m
}

// outcome labels a result: "ok" on success, the error code otherwise.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return apperrors.CodeOf(err)
}

func (m *Metrics) WebhookApplied(eventType string, action entity.WebhookAction, err error) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unparsed"
	}
	m.WebhookEventsTotal.WithLabelValues(eventType, string(action), outcome(err)).Inc()
}

func (m *Metrics) PlanResolved(source entity.PlanSource) {
	if m == nil {
		return
	}
	m.PlanResolutionsTotal.WithLabelValues(string(source)).Inc()
}

func (m *Metrics) FamilyOperation(op string, err error) {
	if m == nil {
		return
	}
	m.FamilyOperationsTotal.WithLabelValues(op, outcome(err)).Inc()
}

// EchoMiddleware records request counts and latencies by route template.
func (m *Metrics) EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)

			m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
