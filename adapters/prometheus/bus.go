package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/mbus-go/core/bus"
	"github.com/codewandler/mbus-go/core/metrics"
)

// busMetrics implements bus.Metrics using Prometheus.
type busMetrics struct {
	messagesTotal    *prometheus.CounterVec
	unroutedTotal    *prometheus.CounterVec
	fanout           *prometheus.HistogramVec
	requestDuration  *prometheus.HistogramVec
	registeredActors prometheus.Gauge
	pendingRequests  prometheus.Gauge
	droppedRequests  *prometheus.CounterVec
}

// NewBusMetrics creates a new Prometheus implementation of bus.Metrics.
func NewBusMetrics(reg prometheus.Registerer) bus.Metrics {
	m := &busMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mbus_bus_messages_total",
			Help: "Total number of messages enqueued by kind",
		}, []string{"kind", "message_type"}),

		unroutedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mbus_bus_requests_unrouted_total",
			Help: "Total number of requests sent without any subscriber",
		}, []string{"message_type"}),

		fanout: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mbus_bus_broadcast_fanout",
			Help:    "Number of subscribers a broadcast was delivered to",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}, []string{"message_type"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mbus_bus_request_duration_seconds",
			Help:    "Time from sending a request until it is completed",
			Buckets: defaultBuckets,
		}, []string{"message_type"}),

		registeredActors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mbus_bus_registered_actors",
			Help: "Number of actors currently registered",
		}),

		pendingRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mbus_bus_pending_requests",
			Help: "Number of requests sent but not completed",
		}),

		droppedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mbus_bus_requests_dropped_total",
			Help: "Total number of requests dropped because their handler unregistered",
		}, []string{"message_type"}),
	}

	reg.MustRegister(
		m.messagesTotal,
		m.unroutedTotal,
		m.fanout,
		m.requestDuration,
		m.registeredActors,
		m.pendingRequests,
		m.droppedRequests,
	)

	return m
}

func (m *busMetrics) MessageSent(kind string, msgType string) {
	m.messagesTotal.WithLabelValues(kind, msgType).Inc()
}

func (m *busMetrics) RequestUnrouted(msgType string) {
	m.unroutedTotal.WithLabelValues(msgType).Inc()
}

func (m *busMetrics) BroadcastFanout(msgType string, subscribers int) {
	m.fanout.WithLabelValues(msgType).Observe(float64(subscribers))
}

func (m *busMetrics) RequestDuration(msgType string) metrics.Timer {
	return newTimer(m.requestDuration.WithLabelValues(msgType))
}

func (m *busMetrics) RegisteredActors(n int) {
	m.registeredActors.Set(float64(n))
}

func (m *busMetrics) PendingRequests(n int) {
	m.pendingRequests.Set(float64(n))
}

func (m *busMetrics) DroppedRequests(msgType string, n int) {
	m.droppedRequests.WithLabelValues(msgType).Add(float64(n))
}

var _ bus.Metrics = (*busMetrics)(nil)
