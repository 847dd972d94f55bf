package actor

import "github.com/codewandler/mbus-go/core/metrics"

// Metrics defines the metrics interface for the actor runtime.
// All methods are thread-safe.
type Metrics interface {
	// Message handling
	MessageDuration(msgType string) metrics.Timer
	MessageProcessed(msgType string, success bool)
	MessagePanic(msgType string)

	// Mailbox
	MailboxDepth(actorID string, depth int)

	// Lifecycle
	ActorStarted(name string)
	ActorStopped(name string, success bool)

	// Scheduler
	SchedulerInflight(actorID string, count int)
	SchedulerTaskDuration() metrics.Timer
	SchedulerTaskCompleted(success bool)
}

// nopMetrics is a no-op implementation of Metrics.
type nopMetrics struct{}

func (nopMetrics) MessageDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) MessageProcessed(string, bool)        {}
func (nopMetrics) MessagePanic(string)                  {}

func (nopMetrics) MailboxDepth(string, int) {}

func (nopMetrics) ActorStarted(string)       {}
func (nopMetrics) ActorStopped(string, bool) {}

func (nopMetrics) SchedulerInflight(string, int)        {}
func (nopMetrics) SchedulerTaskDuration() metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) SchedulerTaskCompleted(bool)          {}

// NopMetrics returns a no-op Metrics implementation.
func NopMetrics() Metrics { return nopMetrics{} }
