package actor

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// tasks runs the functions handed to HandlerCtx.Schedule, at most cap(slots)
// at a time. A task still waiting for a slot is dropped once ctx ends; the
// loop cancels ctx and then waits for the rest before unregistering.
type tasks struct {
	ctx     context.Context
	log     *slog.Logger
	slots   chan struct{}
	wg      sync.WaitGroup
	running atomic.Int32

	actorID string
	metrics Metrics
}

func newTasks(ctx context.Context, max int, log *slog.Logger, actorID string, metrics Metrics) *tasks {
	return &tasks{
		ctx:     ctx,
		log:     log,
		slots:   make(chan struct{}, max),
		actorID: actorID,
		metrics: metrics,
	}
}

func (t *tasks) schedule(f func()) {
	if t.ctx.Err() != nil {
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		select {
		case <-t.ctx.Done():
			return
		case t.slots <- struct{}{}:
		}
		defer func() { <-t.slots }()
		t.run(f)
	}()
}

func (t *tasks) run(f func()) {
	t.metrics.SchedulerInflight(t.actorID, int(t.running.Add(1)))
	timer := t.metrics.SchedulerTaskDuration()

	defer func() {
		timer.ObserveDuration()
		t.metrics.SchedulerInflight(t.actorID, int(t.running.Add(-1)))
		if r := recover(); r != nil {
			t.metrics.SchedulerTaskCompleted(false)
			t.log.Error("scheduled task panicked",
				slog.Any("recovered", r),
				slog.String("stack", string(debug.Stack())),
			)
			return
		}
		t.metrics.SchedulerTaskCompleted(true)
	}()

	f()
}

func (t *tasks) wait() { t.wg.Wait() }
