// Package metrics exposes Prometheus instrumentation for the HTTP surface,
// the workflows and the vision provider.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wastehunt"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	workflowOutcomes    *prometheus.CounterVec
	classifierLatency   *prometheus.HistogramVec
	pointsAwarded       *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, plus the Go and process
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	auto := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status_code"}),
		httpRequestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		workflowOutcomes: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_outcomes_total",
			Help:      "Report and collection workflow results.",
		}, []string{"workflow", "outcome"}),
		classifierLatency: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classifier_request_duration_seconds",
			Help:      "Vision provider latency by operation and result.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 60},
		}, []string{"op", "result"}),
		pointsAwarded: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_awarded_total",
			Help:      "Points credited to users by source.",
		}, []string{"source"}),
	}
}

// Middleware records count and latency per matched route.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		route := c.Route().Path
		m.httpRequests.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(route, c.Method()).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) ObserveWorkflow(workflow, outcome string) {
	m.workflowOutcomes.WithLabelValues(workflow, outcome).Inc()
}

func (m *Metrics) AddPoints(source string, points int) {
	if points > 0 {
		m.pointsAwarded.WithLabelValues(source).Add(float64(points))
	}
}

// ObserveClassifier matches vision.Observer.
func (m *Metrics) ObserveClassifier(op string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.classifierLatency.WithLabelValues(op, result).Observe(elapsed.Seconds())
}
