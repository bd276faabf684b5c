package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "impactlink",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "impactlink",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "impactlink",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	lifecycleTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "impactlink",
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Status transitions committed, by entity and edge.",
		},
		[]string{"entity", "from", "to"},
	)

	lifecycleFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "impactlink",
			Subsystem: "lifecycle",
			Name:      "failures_total",
			Help:      "Lifecycle operations that failed, by operation and error kind.",
		},
		[]string{"operation", "kind"},
	)

	messagesDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "impactlink",
			Subsystem: "realtime",
			Name:      "messages_delivered_total",
			Help:      "Messages pushed to connected receivers.",
		},
		[]string{"online"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		lifecycleTransitions,
		lifecycleFailures,
		messagesDelivered,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency keyed by the route
// template, so ids in the path do not explode label cardinality.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := strings.ToUpper(c.Request.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordTransition counts a committed status change.
func RecordTransition(entity, from, to string) {
	lifecycleTransitions.WithLabelValues(entity, from, to).Inc()
}

// RecordFailure counts a failed lifecycle operation.
func RecordFailure(operation, kind string) {
	lifecycleFailures.WithLabelValues(operation, kind).Inc()
}

// RecordDelivery counts a realtime message fan-out.
func RecordDelivery(online bool) {
	messagesDelivered.WithLabelValues(strconv.FormatBool(online)).Inc()
}

// PoolStats is the subset of pgxpool.Stat exported as gauges
type PoolStats interface {
	TotalConns() int32
	IdleConns() int32
	AcquiredConns() int32
}

// RegisterPoolStats exposes connection pool gauges read from stat on every scrape
func RegisterPoolStats(stat func() PoolStats) error {
	gauge := func(name, help string, read func(PoolStats) int32) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "impactlink",
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(read(stat())) })
	}

	collectors := []prometheus.Collector{
		gauge("total_connections", "Open connections in the pool.", PoolStats.TotalConns),
		gauge("idle_connections", "Idle connections in the pool.", PoolStats.IdleConns),
		gauge("acquired_connections", "Connections currently checked out.", PoolStats.AcquiredConns),
	}
	for _, c := range collectors {
		if err := Registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}
