// Package metrics holds the backend-agnostic instrument types shared by the
// bus and the actor runtime. Backends (see adapters/prometheus) implement the
// per-component metrics interfaces and hand out these instruments.
package metrics

import "time"

// Timer measures the duration of an operation. Call ObserveDuration when
// the operation completes to record the elapsed time.
type Timer interface {
	// ObserveDuration records the elapsed time since the timer was created.
	ObserveDuration()
}

// ObserverFunc adapts a function receiving seconds to a Timer factory.
type ObserverFunc func(seconds float64)

// Start returns a Timer that reports the elapsed time to f.
func (f ObserverFunc) Start() Timer {
	return &funcTimer{f: f, start: time.Now()}
}

type funcTimer struct {
	f     ObserverFunc
	start time.Time
}

func (t *funcTimer) ObserveDuration() { t.f(time.Since(t.start).Seconds()) }
