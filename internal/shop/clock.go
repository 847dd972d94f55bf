package shop

import (
	"context"
	"log/slog"
	"time"

	"github.com/codewandler/mbus-go/core/actor"
)

// Gate blocks until the clock may start ticking.
type Gate func(ctx context.Context) error

// Clock broadcasts ticks 1 to duration+1, one every speed, and terminates
// after the last one.
type Clock struct {
	speed    time.Duration
	duration int
	gate     Gate
}

// NewClock creates a clock. The first tick is sent as soon as gate returns;
// a nil gate starts right away.
func NewClock(speed time.Duration, duration int, gate Gate) *Clock {
	return &Clock{speed: speed, duration: duration, gate: gate}
}

func (c *Clock) Handlers() []actor.HandlerRegistration {
	return []actor.HandlerRegistration{
		actor.Init(func(hc actor.HandlerCtx) error {
			hc.Schedule(func() { c.run(hc) })
			return nil
		}),
	}
}

func (c *Clock) run(hc actor.HandlerCtx) {
	defer hc.Terminate()

	if c.gate != nil {
		if err := c.gate(hc); err != nil {
			hc.Log().Warn("clock not started", slog.Any("error", err))
			return
		}
	}

	var wait <-chan time.Time
	if c.speed > 0 {
		t := time.NewTicker(c.speed)
		defer t.Stop()
		wait = t.C
	}

	for cur := 1; cur <= c.duration+1; cur++ {
		if cur > 1 && wait != nil {
			select {
			case <-hc.Done():
				return
			case <-wait:
			}
		}
		if hc.Err() != nil {
			return
		}

		if err := hc.SendBroadcast(Tick{Current: cur, Duration: c.duration}); err != nil {
			hc.Log().Error("failed to send tick", slog.Int("tick", cur), slog.Any("error", err))
			return
		}
		hc.Log().Debug("tick", slog.Int("tick", cur))
	}
}
