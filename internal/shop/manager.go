package shop

import (
	"log/slog"
	"slices"

	"github.com/codewandler/mbus-go/core/actor"
	"github.com/codewandler/mbus-go/internal/store"
)

const managerName = "manager"

// restockOrder groups the restock requests waiting for one manufacturing
// order. reserved is the number of shoes promised to those requests.
type restockOrder struct {
	id       int
	shoeType string
	requests []*RestockRequest
	reserved int
}

// Manager announces scheduled discounts and serves restock requests. When a
// shoe is missing it orders (tick%5)+1 shoes from a factory and lets later
// requests for the same shoe join the open order while it covers them.
type Manager struct {
	store     *store.Store
	discounts []store.DiscountSchedule
	timeline  timeline

	requested map[string]int
	sent      map[string]int
	orders    []*restockOrder
	lastID    int
}

func NewManager(st *store.Store, discounts []store.DiscountSchedule) *Manager {
	return &Manager{
		store:     st,
		discounts: discounts,
		requested: make(map[string]int),
		sent:      make(map[string]int),
	}
}

func (m *Manager) Name() string { return managerName }

func (m *Manager) Handlers() []actor.HandlerRegistration {
	return []actor.HandlerRegistration{
		actor.HandleBroadcast(func(hc actor.HandlerCtx, t Tick) error {
			if !m.timeline.advance(hc, t) {
				return m.abandon(hc)
			}
			return m.announceDiscounts(hc)
		}),
		actor.HandleRequest[*RestockRequest, bool](m.restock),
	}
}

func (m *Manager) announceDiscounts(hc actor.HandlerCtx) error {
	for _, d := range m.discounts {
		if d.Tick != m.timeline.tick {
			continue
		}
		m.store.AddDiscount(d.ShoeType, d.Amount)
		hc.Log().Info("discount announced", slog.String("shoe", d.ShoeType), slog.Int("amount", d.Amount))
		if err := hc.SendBroadcast(NewDiscount{Sender: managerName, ShoeType: d.ShoeType, Amount: d.Amount}); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) restock(hc actor.HandlerCtx, r *RestockRequest) error {
	// the seller may have missed a shoe that is on the storage
	if m.store.Take(r.ShoeType, false).Taken() {
		return complete(hc, r, true)
	}

	m.requested[r.ShoeType] += r.Amount
	if m.requested[r.ShoeType]-m.sent[r.ShoeType] <= 0 {
		if o := m.openOrder(r.ShoeType); o != nil {
			o.requests = append(o.requests, r)
			o.reserved += r.Amount
			return nil
		}
	}
	return m.order(hc, r)
}

func (m *Manager) openOrder(shoeType string) *restockOrder {
	for _, o := range slices.Backward(m.orders) {
		if o.shoeType == shoeType {
			return o
		}
	}
	return nil
}

func (m *Manager) order(hc actor.HandlerCtx, r *RestockRequest) error {
	m.lastID++
	o := &restockOrder{
		id:       m.lastID,
		shoeType: r.ShoeType,
		requests: []*RestockRequest{r},
		reserved: r.Amount,
	}
	m.orders = append(m.orders, o)

	amount := m.timeline.tick%5 + 1
	m.sent[o.shoeType] += amount
	mo := &ManufacturingOrder{
		Sender:      managerName,
		ShoeType:    o.shoeType,
		Amount:      amount,
		RequestTick: m.timeline.tick,
	}

	ok, err := actor.SendRequest(hc, mo, func(hc actor.HandlerCtx, rc *store.Receipt) error {
		if rc == nil {
			return m.fail(hc, o, amount)
		}
		m.store.Add(o.shoeType, max(0, rc.AmountSold-o.reserved))
		m.sent[o.shoeType] -= rc.AmountSold
		m.requested[o.shoeType] = max(0, m.requested[o.shoeType]-rc.AmountSold)
		m.store.File(*rc)
		return m.settle(hc, o, true)
	})
	if err != nil {
		return err
	}
	if !ok {
		hc.Log().Warn("no factory for manufacturing order", slog.String("shoe", o.shoeType))
		return m.fail(hc, o, amount)
	}
	hc.Log().Info("manufacturing order sent", slog.String("shoe", o.shoeType), slog.Int("amount", amount), slog.Int("order", o.id))
	return nil
}

func (m *Manager) fail(hc actor.HandlerCtx, o *restockOrder, amount int) error {
	m.sent[o.shoeType] -= amount
	m.requested[o.shoeType] = max(0, m.requested[o.shoeType]-amount)
	return m.settle(hc, o, false)
}

// settle completes every request waiting for o.
func (m *Manager) settle(hc actor.HandlerCtx, o *restockOrder, restocked bool) error {
	m.orders = slices.DeleteFunc(m.orders, func(x *restockOrder) bool { return x == o })
	for _, r := range o.requests {
		if err := complete(hc, r, restocked); err != nil {
			return err
		}
	}
	return nil
}

// abandon fails all restock requests still waiting for a factory.
func (m *Manager) abandon(hc actor.HandlerCtx) error {
	for _, o := range slices.Clone(m.orders) {
		if err := m.settle(hc, o, false); err != nil {
			return err
		}
	}
	return nil
}
