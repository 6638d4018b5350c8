package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	TestAttemptsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "test_attempts_started_total",
			Help: "Total number of test attempts started",
		},
	)

	TestSessionsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_sessions_closed_total",
			Help: "Total number of test sessions closed",
		},
		[]string{"reason"},
	)

	TestAnswersScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_answers_scored_total",
			Help: "Total number of scored answers",
		},
		[]string{"question_type", "outcome"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(TestAttemptsStarted)
	prometheus.MustRegister(TestSessionsClosed)
	prometheus.MustRegister(TestAnswersScored)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
