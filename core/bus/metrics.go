package bus

import "github.com/codewandler/mbus-go/core/metrics"

// Metrics defines the metrics interface for the bus.
// All methods are thread-safe and are called with the bus lock held, so
// implementations must not call back into the bus.
type Metrics interface {
	// Routing
	MessageSent(kind string, msgType string)
	RequestUnrouted(msgType string)
	BroadcastFanout(msgType string, subscribers int)
	RequestDuration(msgType string) metrics.Timer

	// Bookkeeping
	RegisteredActors(n int)
	PendingRequests(n int)
	DroppedRequests(msgType string, n int)
}

type nopMetrics struct{}

func (nopMetrics) MessageSent(string, string)           {}
func (nopMetrics) RequestUnrouted(string)               {}
func (nopMetrics) BroadcastFanout(string, int)          {}
func (nopMetrics) RequestDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) RegisteredActors(int)                 {}
func (nopMetrics) PendingRequests(int)                  {}
func (nopMetrics) DroppedRequests(string, int)          {}

// NopMetrics returns a no-op Metrics implementation.
func NopMetrics() Metrics { return nopMetrics{} }
