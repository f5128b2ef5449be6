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

	// 进度核心操作计数，outcome: applied / noop / duplicate / error
	ProgressionOpsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_operations_total",
			Help: "Total number of progression core operations",
		},
		[]string{"operation", "outcome"},
	)

	SyncRefreshCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_refreshes_total",
			Help: "Total number of full-state realtime reconciliations",
		},
	)

	SyncOnlineSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_online_sessions",
			Help: "Number of websocket sessions currently attached to the sync hub",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ProgressionOpsCounter)
	prometheus.MustRegister(SyncRefreshCounter)
	prometheus.MustRegister(SyncOnlineSessions)
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
