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
			Name: "checkin_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Check-in attempts
	CheckInCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkin_attempts_total",
			Help: "Total number of check-in attempts",
		},
	)

	// Check-in recorded outcomes by status (success/failed)
	CheckInOutcomeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_outcomes_total",
			Help: "Total number of recorded check-in outcomes by status",
		},
		[]string{"status"},
	)

	// Directory operation counter
	DirectoryOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_directory_operations_total",
			Help: "Total number of directory operations",
		},
		[]string{"operation"}, // "create_user", "delete_user", "assign_location", etc.
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_auth_errors_total",
			Help: "Total number of authentication and authorization errors",
		},
		[]string{"type"}, // "invalid_credentials", "invalid_token", "forbidden", etc.
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkin_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkin_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)

	// Authoritative geofence distance per check-in
	CheckInDistance = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "checkin_distance_meters",
			Help:    "Server-computed distance between reported coordinate and assigned geofence center",
			Buckets: []float64{10, 25, 50, 100, 200, 500, 1000, 5000, 20000},
		},
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "checkin_info",
			Help: "Information about the check-in service",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(CheckInCounter)
	prometheus.MustRegister(CheckInOutcomeCounter)
	prometheus.MustRegister(DirectoryOperationCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(CheckInDistance)

	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordDirectoryOperation records a directory operation
func RecordDirectoryOperation(operation string) {
	DirectoryOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordCheckInOutcome records a written check-in outcome and its distance
func RecordCheckInOutcome(status string, distanceMeters float64) {
	CheckInOutcomeCounter.With(prometheus.Labels{"status": status}).Inc()
	CheckInDistance.Observe(distanceMeters)
}
