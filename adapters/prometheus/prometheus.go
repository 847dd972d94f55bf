// Package prometheus provides Prometheus implementations of the metrics
// interfaces of the bus and the actor runtime.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/mbus-go/core/metrics"
)

// newTimer starts a Timer that reports to the given histogram.
func newTimer(h prometheus.Observer) metrics.Timer {
	return metrics.ObserverFunc(h.Observe).Start()
}

// Default histogram buckets for latency metrics (in seconds).
var defaultBuckets = []float64{
	.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5,
}

func boolToStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// AllMetrics holds Prometheus implementations for the bus and the actors.
type AllMetrics struct {
	Bus   *busMetrics
	Actor *actorMetrics
}

// NewAllMetrics creates and registers all metrics at once.
func NewAllMetrics(reg prometheus.Registerer) *AllMetrics {
	return &AllMetrics{
		Bus:   NewBusMetrics(reg).(*busMetrics),
		Actor: NewActorMetrics(reg).(*actorMetrics),
	}
}
