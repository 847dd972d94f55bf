// Package shop runs the shoe store simulation on top of the actor runtime.
// A clock drives time, a manager schedules discounts and restocks the
// storage through factories, sellers serve purchase orders and customers
// buy what is on their schedule or wish list.
package shop

import (
	"errors"
	"log/slog"

	"github.com/codewandler/mbus-go/core/actor"
	"github.com/codewandler/mbus-go/core/bus"
	"github.com/codewandler/mbus-go/core/msg"
	"github.com/codewandler/mbus-go/internal/store"
)

// noReceipt completes a purchase or manufacturing order without a sale.
var noReceipt *store.Receipt

// timeline tracks the last tick seen by a service.
type timeline struct {
	tick     int
	duration int
}

// advance records t and terminates the service once the simulation is over.
// It reports whether the service should keep working on this tick.
func (tl *timeline) advance(hc actor.HandlerCtx, t Tick) bool {
	tl.tick, tl.duration = t.Current, t.Duration
	if t.Current > t.Duration {
		hc.Terminate()
		return false
	}
	return true
}

// complete answers r and tolerates a requester that has already terminated.
// Services finish on the same tick, so a late answer is expected.
func complete[T any](hc actor.HandlerCtx, r msg.Request[T], res T) error {
	err := actor.Complete(hc, r, res)
	if errors.Is(err, bus.ErrSenderGone) {
		hc.Log().Debug("requester already gone", slog.String("type", msg.TypeOf(r).Name))
		return nil
	}
	return err
}
