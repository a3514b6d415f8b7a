package observability

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjstillabower/medicure-service/internal/idle"
	"github.com/kjstillabower/medicure-service/internal/overload"
)

// Transport labels for metrics shared by HTTP and gRPC.
const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent HTTP requests in flight. Watch for: saturation.
	HTTPRequestsInFlight prometheus.Gauge

	// gRPC calls by method and status code.
	GRPCRequestsTotal *prometheus.CounterVec

	// gRPC latency per call.
	GRPCRequestDuration *prometheus.HistogramVec

	// Greetings served, by transport. rate() gives greeting QPS.
	GreetingsServedTotal *prometheus.CounterVec

	// Rate limit denials, by transport. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal *prometheus.CounterVec

	// In-flight requests observed when shutdown began.
	ShutdownInFlightRequests prometheus.Gauge

	// 1 for the current health status, 0 for the others.
	HealthStatus *prometheus.GaugeVec

	lifecycleGaugesOnce sync.Once
	overloadWindowNs    atomic.Int64
	idleWindowNs        atomic.Int64
)

// HealthStatuses lists every value the health endpoint can report.
var HealthStatuses = []string{"healthy", "idle", "overloaded", "shutting-down"}

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	GRPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpcRequestsTotal",
			Help: "Total number of gRPC calls",
		},
		[]string{"method", "code"},
	)
	GRPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grpcRequestDurationSeconds",
			Help:    "gRPC call latency in seconds (per call)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	GreetingsServedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greetingsServedTotal",
			Help: "Total number of greetings served",
		},
		[]string{"transport"},
	)
	RateLimitDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of greeting requests denied by the rate limiter",
		},
		[]string{"transport"},
	)
	ShutdownInFlightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shutdownInFlightRequests",
			Help: "In-flight HTTP requests when graceful shutdown started",
		},
	)
	HealthStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "healthStatus",
			Help: "Current health status (1 = active)",
		},
		[]string{"status"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		GRPCRequestsTotal, GRPCRequestDuration,
		GreetingsServedTotal, RateLimitDeniedTotal,
		ShutdownInFlightRequests, HealthStatus,
	)
}

// RegisterLifecycleGauges registers sliding-window load, reject and idle gauges.
// Call after config load with the windows the health check uses. The gauges are
// registered once; later calls replace the windows they read.
func RegisterLifecycleGauges(overloadWindow, idleWindow time.Duration) {
	overloadWindowNs.Store(int64(overloadWindow))
	idleWindowNs.Store(int64(idleWindow))
	lifecycleGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRequestsInWindow",
					Help: "Requests hitting the rate-limited path in the overload window",
				},
				func() float64 { return float64(overload.RequestCount(lifecycleWindows().overload)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "Rate limit rejections in the overload window",
				},
				func() float64 { return float64(overload.DenialCount(lifecycleWindows().overload)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "greetingRequestsInIdleWindow",
					Help: "Greeting requests in the idle window; low values mean the instance is idle",
				},
				func() float64 { return float64(idle.RequestCount(lifecycleWindows().idle)) },
			),
		)
	})
}

type windows struct {
	overload, idle time.Duration
}

func lifecycleWindows() windows {
	return windows{
		overload: time.Duration(overloadWindowNs.Load()),
		idle:     time.Duration(idleWindowNs.Load()),
	}
}

// RecordGreeting counts one greeting served over the given transport.
func RecordGreeting(transport string) {
	GreetingsServedTotal.WithLabelValues(transport).Inc()
}

// RecordRateLimitDenied counts one rate limit denial over the given transport.
func RecordRateLimitDenied(transport string) {
	RateLimitDeniedTotal.WithLabelValues(transport).Inc()
}

// RecordShutdownInFlight records the in-flight count at shutdown start.
func RecordShutdownInFlight(n int64) {
	ShutdownInFlightRequests.Set(float64(n))
}

// SetHealthStatus marks status as the active health status.
func SetHealthStatus(status string) {
	for _, s := range HealthStatuses {
		v := 0.0
		if s == status {
			v = 1
		}
		HealthStatus.WithLabelValues(s).Set(v)
	}
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
