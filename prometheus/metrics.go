package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Access policy decisions by outcome and reason
	AccessCheckCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_access_checks_total",
			Help: "Total number of access policy evaluations",
		},
		[]string{"allowed", "reason"},
	)

	// Identity-provider webhook events by type and outcome
	WebhookEventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_webhook_events_total",
			Help: "Total number of identity webhook events received",
		},
		[]string{"event", "outcome"}, // outcome: "applied", "rejected", "failed"
	)

	// OAuth connection attempts by platform and outcome
	ConnectionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_connections_total",
			Help: "Total number of social connection attempts",
		},
		[]string{"platform", "outcome"}, // outcome: "connected", "failed", "disconnected"
	)

	// Publish attempts by platform and outcome
	PublishCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_publish_total",
			Help: "Total number of publish attempts",
		},
		[]string{"platform", "outcome"}, // outcome: "published", "failed"
	)

	// Empresa operation counter
	EmpresaOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_empresa_operations_total",
			Help: "Total number of empresa operations",
		},
		[]string{"operation"}, // "create", "update", "delete", "list", "get"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// Scheduled posts pending publication at the last scheduler run
	ScheduledPostsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "social_scheduled_posts_pending",
			Help: "Number of scheduled posts due at the last scheduler run",
		},
	)
)

// Init registers all metrics with the default registry
func Init() {
	prometheus.MustRegister(AccessCheckCounter)
	prometheus.MustRegister(WebhookEventCounter)
	prometheus.MustRegister(ConnectionCounter)
	prometheus.MustRegister(PublishCounter)
	prometheus.MustRegister(EmpresaOperationCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(ScheduledPostsGauge)
}

// RecordAccessCheck records one policy evaluation
func RecordAccessCheck(allowed bool, reason string) {
	if allowed {
		reason = "ALLOWED"
	}
	AccessCheckCounter.WithLabelValues(strconv.FormatBool(allowed), reason).Inc()
}

// RecordWebhookEvent records one identity webhook event
func RecordWebhookEvent(event, outcome string) {
	WebhookEventCounter.WithLabelValues(event, outcome).Inc()
}

// RecordConnection records one connection lifecycle event
func RecordConnection(platform, outcome string) {
	ConnectionCounter.WithLabelValues(platform, outcome).Inc()
}

// RecordPublish records one publish attempt
func RecordPublish(platform, outcome string) {
	PublishCounter.WithLabelValues(platform, outcome).Inc()
}

// RecordEmpresaOperation records one empresa operation
func RecordEmpresaOperation(operation string) {
	EmpresaOperationCounter.WithLabelValues(operation).Inc()
}

// TrackDBOperation returns a function that records the duration of a
// database operation when called, for use with defer
func TrackDBOperation(operation string) func(time.Time) {
	return func(start time.Time) {
		DBOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// Middleware returns an Echo middleware that records request metrics
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method
			endpoint := c.Path()

			HTTPRequestCounter.WithLabelValues(endpoint, method, status).Inc()
			RequestDuration.WithLabelValues(endpoint, method, status).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// GetPrometheusHandler returns an HTTP handler for exposing metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
