package shop

import (
	"log/slog"
	"slices"

	"github.com/codewandler/mbus-go/core/actor"
	"github.com/codewandler/mbus-go/internal/store"
)

// Customer buys every item of its purchase schedule on the scheduled tick
// and every item of its wish list once it is announced on discount. It
// terminates when both lists are done.
type Customer struct {
	name      string
	purchases []*store.PurchaseSchedule
	wishList  []string
	pending   map[string]bool
	timeline  timeline
}

func NewCustomer(name string, purchases []store.PurchaseSchedule, wishList []string) *Customer {
	c := &Customer{
		name:    name,
		pending: make(map[string]bool),
	}
	for _, p := range purchases {
		c.purchases = append(c.purchases, &p)
	}
	for _, w := range wishList {
		if !slices.Contains(c.wishList, w) {
			c.wishList = append(c.wishList, w)
		}
	}
	return c
}

func (c *Customer) Name() string { return c.name }

func (c *Customer) Handlers() []actor.HandlerRegistration {
	return []actor.HandlerRegistration{
		actor.HandleBroadcast(func(hc actor.HandlerCtx, t Tick) error {
			if !c.timeline.advance(hc, t) {
				return nil
			}
			return c.buyScheduled(hc)
		}),
		actor.HandleBroadcast(c.onDiscount),
	}
}

func (c *Customer) buyScheduled(hc actor.HandlerCtx) error {
	var due []*store.PurchaseSchedule
	for _, p := range c.purchases {
		if p.Tick == c.timeline.tick {
			due = append(due, p)
		}
	}

	for _, p := range due {
		ok, err := actor.SendRequest(hc, c.order(p.ShoeType, false), func(hc actor.HandlerCtx, r *store.Receipt) error {
			if r == nil {
				hc.Log().Info("purchase failed", slog.String("shoe", p.ShoeType))
				return nil
			}
			c.purchases = slices.DeleteFunc(c.purchases, func(x *store.PurchaseSchedule) bool { return x == p })
			c.unwish(p.ShoeType)
			c.checkDone(hc)
			return nil
		})
		if err != nil {
			return err
		}
		if !ok {
			hc.Log().Warn("no seller for purchase", slog.String("shoe", p.ShoeType))
		}
	}
	return nil
}

func (c *Customer) onDiscount(hc actor.HandlerCtx, d NewDiscount) error {
	if d.Amount <= 0 || c.pending[d.ShoeType] || !slices.Contains(c.wishList, d.ShoeType) {
		return nil
	}

	c.pending[d.ShoeType] = true
	ok, err := actor.SendRequest(hc, c.order(d.ShoeType, true), func(hc actor.HandlerCtx, r *store.Receipt) error {
		delete(c.pending, d.ShoeType)
		if r != nil {
			c.unwish(d.ShoeType)
			c.checkDone(hc)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !ok {
		delete(c.pending, d.ShoeType)
	}
	return nil
}

func (c *Customer) order(shoeType string, onlyDiscount bool) *PurchaseOrder {
	return &PurchaseOrder{
		Customer:     c.name,
		ShoeType:     shoeType,
		OnlyDiscount: onlyDiscount,
		RequestTick:  c.timeline.tick,
		Amount:       1,
	}
}

func (c *Customer) unwish(shoeType string) {
	c.wishList = slices.DeleteFunc(c.wishList, func(w string) bool { return w == shoeType })
}

func (c *Customer) checkDone(hc actor.HandlerCtx) {
	if len(c.purchases) == 0 && len(c.wishList) == 0 {
		hc.Log().Info("shopping done")
		hc.Terminate()
	}
}
