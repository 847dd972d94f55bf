package shop

import (
	"log/slog"

	"github.com/codewandler/mbus-go/core/actor"
	"github.com/codewandler/mbus-go/internal/store"
)

// Factory makes one shoe per tick for the manufacturing order at the head
// of its queue. An order of n shoes completes on the tick after the n-th
// shoe was made.
type Factory struct {
	name     string
	timeline timeline
	queue    []*ManufacturingOrder
	made     int
}

func NewFactory(name string) *Factory {
	return &Factory{name: name}
}

func (f *Factory) Name() string { return f.name }

func (f *Factory) Handlers() []actor.HandlerRegistration {
	return []actor.HandlerRegistration{
		actor.HandleBroadcast(func(hc actor.HandlerCtx, t Tick) error {
			if !f.timeline.advance(hc, t) {
				return f.abandon(hc)
			}
			return f.produce(hc)
		}),
		actor.HandleRequest[*ManufacturingOrder, *store.Receipt](func(hc actor.HandlerCtx, o *ManufacturingOrder) error {
			f.queue = append(f.queue, o)
			hc.Log().Debug("order queued", slog.String("shoe", o.ShoeType), slog.Int("amount", o.Amount))
			return nil
		}),
	}
}

func (f *Factory) produce(hc actor.HandlerCtx) error {
	if len(f.queue) == 0 {
		return nil
	}
	o := f.queue[0]
	if f.made < o.Amount {
		f.made++
		return nil
	}

	f.queue = f.queue[1:]
	f.made = 0
	if len(f.queue) > 0 {
		f.made = 1
	}

	r := &store.Receipt{
		Seller:      f.name,
		Customer:    "store",
		ShoeType:    o.ShoeType,
		IssuedTick:  f.timeline.tick,
		RequestTick: o.RequestTick,
		AmountSold:  o.Amount,
	}
	hc.Log().Info("order manufactured", slog.String("shoe", o.ShoeType), slog.Int("amount", o.Amount))
	return complete(hc, o, r)
}

// abandon fails all orders that will never be finished.
func (f *Factory) abandon(hc actor.HandlerCtx) error {
	for _, o := range f.queue {
		if err := complete(hc, o, noReceipt); err != nil {
			return err
		}
	}
	f.queue = nil
	return nil
}
