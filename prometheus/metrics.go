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
	// Login counter
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fielder_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Auth error counter
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fielder_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "invalid_credentials", "invalid_token", etc.
	)

	// Project operation counter
	ProjectOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fielder_project_operations_total",
			Help: "Total number of project operations",
		},
		[]string{"operation"}, // "list", "get"
	)

	// Activity operation counter
	ActivityOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fielder_activity_operations_total",
			Help: "Total number of activity operations",
		},
		[]string{"operation"}, // "list", "get"
	)

	// Entry operation counter
	EntryOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fielder_entry_operations_total",
			Help: "Total number of activity entry operations",
		},
		[]string{"operation"}, // "list", "create", "create_camera", "get", "update"
	)

	// Attachment operation counter
	AttachmentOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fielder_attachment_operations_total",
			Help: "Total number of attachment operations",
		},
		[]string{"operation"}, // "store", "delete"
	)

	// Storage error counter
	StorageErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fielder_storage_errors_total",
			Help: "Total number of attachment storage failures",
		},
		[]string{"operation"}, // "put", "delete"
	)

	// Tenant context missing counter
	TenantContextMissingCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fielder_tenant_context_missing_total",
			Help: "Total number of requests missing tenant context",
		},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fielder_http_requests_total",
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
			Name:    "fielder_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fielder_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fielder_info",
			Help: "Information about the fielder service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(ProjectOperationCounter)
	prometheus.MustRegister(ActivityOperationCounter)
	prometheus.MustRegister(EntryOperationCounter)
	prometheus.MustRegister(AttachmentOperationCounter)
	prometheus.MustRegister(StorageErrorCounter)
	prometheus.MustRegister(TenantContextMissingCounter)
	prometheus.MustRegister(HTTPRequestCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// RecordAuthError increments the auth error counter for the given error type
func RecordAuthError(errorType string) {
	AuthErrorCounter.WithLabelValues(errorType).Inc()
}

// RecordProjectOperation increments the project operation counter
func RecordProjectOperation(operation string) {
	ProjectOperationCounter.WithLabelValues(operation).Inc()
}

// RecordActivityOperation increments the activity operation counter
func RecordActivityOperation(operation string) {
	ActivityOperationCounter.WithLabelValues(operation).Inc()
}

// RecordEntryOperation increments the entry operation counter
func RecordEntryOperation(operation string) {
	EntryOperationCounter.WithLabelValues(operation).Inc()
}

// RecordAttachmentOperation increments the attachment operation counter
func RecordAttachmentOperation(operation string) {
	AttachmentOperationCounter.WithLabelValues(operation).Inc()
}

// RecordStorageError increments the storage error counter
func RecordStorageError(operation string) {
	StorageErrorCounter.WithLabelValues(operation).Inc()
}

// TrackDBOperation measures database operation durations:
//
//	defer prometheus.TrackDBOperation("query")(time.Now())
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates an Echo middleware that records HTTP request
// counts and durations
func MetricsMiddleware() echo.MiddlewareFunc {
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
