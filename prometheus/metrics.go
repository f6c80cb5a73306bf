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
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cride_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cride_register_total",
			Help: "Total number of user registrations",
		},
	)

	// Circle operation counter
	CircleOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cride_circle_operations_total",
			Help: "Total number of circle operations",
		},
		[]string{"operation"}, // "create", "list", "access", "update", "deactivate"
	)

	// Invitation operation counter
	InvitationOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cride_invitation_operations_total",
			Help: "Total number of invitation operations",
		},
		[]string{"operation"}, // "issue", "list", "redeem"
	)

	// Ride operation counter
	RideOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cride_ride_operations_total",
			Help: "Total number of ride operations",
		},
		[]string{"operation"}, // "offer", "join"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cride_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	DomainErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cride_domain_errors_total",
			Help: "Total number of domain errors by code",
		},
		[]string{"code"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cride_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cride_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update"
	)
)

// Gauge metrics
var (
	// Outstanding unused invitations
	OutstandingInvitationsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cride_outstanding_invitations",
			Help: "Number of currently unused invitation codes",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cride_info",
			Help: "Information about the ride-sharing service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(CircleOperationCounter)
	prometheus.MustRegister(InvitationOperationCounter)
	prometheus.MustRegister(RideOperationCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(DomainErrorCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(OutstandingInvitationsGauge)
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

			err := next(c)

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

// RecordCircleOperation records a circle operation by name
func RecordCircleOperation(operation string) {
	CircleOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordInvitationOperation records an invitation operation by name
func RecordInvitationOperation(operation string) {
	InvitationOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordRideOperation records a ride operation by name
func RecordRideOperation(operation string) {
	RideOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordDomainError records a rejected domain operation by error code
func RecordDomainError(code string) {
	DomainErrorCounter.With(prometheus.Labels{"code": code}).Inc()
}

// AddOutstandingInvitations moves the unused invitation gauge by delta
func AddOutstandingInvitations(delta float64) {
	OutstandingInvitationsGauge.Add(delta)
}
