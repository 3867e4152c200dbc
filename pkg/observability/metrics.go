package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by every recorder.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector records handler, gateway and notification metrics into its own
// Prometheus registry and serves them over HTTP.
type Collector struct {
	registry *prometheus.Registry
	handler  http.Handler

	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	GatewayCalls      *prometheus.CounterVec
	Notifications     *prometheus.CounterVec
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Handler operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Handler operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		GatewayCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_calls_total",
				Help:      "Encryption gateway invocations by direction and outcome",
			},
			[]string{"direction", "outcome"},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Queue and event bus notifications by outcome",
			},
			[]string{"channel", "outcome"},
		),
	}

	registry.MustRegister(c.Operations, c.OperationDuration, c.GatewayCalls, c.Notifications)
	c.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})

	return c
}

// RecordOperation counts a finished handler operation.
func (c *Collector) RecordOperation(operation, outcome string, duration time.Duration) {
	c.Operations.WithLabelValues(operation, outcome).Inc()
	c.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordGatewayCall counts one encryption gateway round trip.
func (c *Collector) RecordGatewayCall(direction, outcome string) {
	c.GatewayCalls.WithLabelValues(direction, outcome).Inc()
}

// RecordNotification counts one queue send or event publish.
func (c *Collector) RecordNotification(channel, outcome string) {
	c.Notifications.WithLabelValues(channel, outcome).Inc()
}

// Registry exposes the underlying registry for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ServeHTTP serves the registry in the Prometheus text format.
func (c *Collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.handler.ServeHTTP(w, r)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) RecordOperation(string, string, time.Duration) {}
func (NopRecorder) RecordGatewayCall(string, string)              {}
func (NopRecorder) RecordNotification(string, string)             {}
