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
			Name: "timesheet_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "timesheet_register_total",
			Help: "Total number of user registrations",
		},
	)

	// Report preview counter
	ReportRequestCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "timesheet_report_requests_total",
			Help: "Total number of report preview requests",
		},
	)

	// Export counter by document format
	ExportCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timesheet_exports_total",
			Help: "Total number of report exports by format",
		},
		[]string{"format"}, // "pdf" or "excel"
	)

	// Daily scheduled export runs by outcome
	DailyExportCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timesheet_daily_exports_total",
			Help: "Total number of scheduled daily export runs by outcome",
		},
		[]string{"outcome"}, // "sent", "empty", "failed"
	)

	// Timesheet row operations
	TimesheetOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timesheet_operations_total",
			Help: "Total number of timesheet operations",
		},
		[]string{"operation"}, // "create", "checkout", "update", "delete"
	)

	// User management operations
	UserOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timesheet_user_operations_total",
			Help: "Total number of user management operations",
		},
		[]string{"operation"},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timesheet_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timesheet_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "missing_token", "invalid_token", "insufficient_role" etc.
	)

	ExportErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timesheet_export_errors_total",
			Help: "Total number of export pipeline errors by stage",
		},
		[]string{"stage"}, // "aggregate", "render", "mail"
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timesheet_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timesheet_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)

	// Render duration by format
	RenderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timesheet_render_duration_seconds",
			Help:    "Duration of document rendering in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "timesheet_info",
			Help: "Information about the timesheet service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(ReportRequestCounter)
	prometheus.MustRegister(ExportCounter)
	prometheus.MustRegister(DailyExportCounter)
	prometheus.MustRegister(TimesheetOperationCounter)
	prometheus.MustRegister(UserOperationCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(ExportErrorCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(RenderDuration)

	// Register gauges
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

// TrackRender measures document render durations by format
func TrackRender(format string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		RenderDuration.With(prometheus.Labels{
			"format": format,
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

// RecordExportError records an export pipeline error by stage
func RecordExportError(stage string) {
	ExportErrorCounter.With(prometheus.Labels{"stage": stage}).Inc()
}

// RecordTimesheetOperation records a timesheet operation
func RecordTimesheetOperation(operation string) {
	TimesheetOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordUserOperation records a user management operation
func RecordUserOperation(operation string) {
	UserOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordExport records a report export by format
func RecordExport(format string) {
	ExportCounter.With(prometheus.Labels{"format": format}).Inc()
}

// RecordDailyExport records a scheduled export run outcome
func RecordDailyExport(outcome string) {
	DailyExportCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}
