package shop

import (
	"log/slog"

	"github.com/codewandler/mbus-go/core/actor"
	"github.com/codewandler/mbus-go/internal/store"
)

// Seller serves purchase orders from the storage. A shoe that is out of
// stock is restocked through the manager before the sale is made.
type Seller struct {
	name     string
	id       int
	store    *store.Store
	timeline timeline

	// purchases waiting for a restock
	waiting map[*RestockRequest]*PurchaseOrder
}

func NewSeller(name string, id int, st *store.Store) *Seller {
	return &Seller{
		name:    name,
		id:      id,
		store:   st,
		waiting: make(map[*RestockRequest]*PurchaseOrder),
	}
}

func (s *Seller) Name() string { return s.name }

func (s *Seller) Handlers() []actor.HandlerRegistration {
	return []actor.HandlerRegistration{
		actor.HandleBroadcast(func(hc actor.HandlerCtx, t Tick) error {
			if !s.timeline.advance(hc, t) {
				return s.abandon(hc)
			}
			return nil
		}),
		actor.HandleRequest[*PurchaseOrder, *store.Receipt](s.purchase),
	}
}

func (s *Seller) purchase(hc actor.HandlerCtx, po *PurchaseOrder) error {
	switch res := s.store.Take(po.ShoeType, po.OnlyDiscount); res {
	case store.RegularPrice:
		return s.sell(hc, po, false)
	case store.DiscountedPrice:
		return s.sell(hc, po, true)
	case store.NotOnDiscount:
		return complete(hc, po, noReceipt)
	default:
		return s.restock(hc, po)
	}
}

func (s *Seller) restock(hc actor.HandlerCtx, po *PurchaseOrder) error {
	rr := &RestockRequest{SellerID: s.id, ShoeType: po.ShoeType, Amount: po.Amount}
	s.waiting[rr] = po

	ok, err := actor.SendRequest(hc, rr, func(hc actor.HandlerCtx, restocked bool) error {
		delete(s.waiting, rr)
		if !restocked {
			return complete(hc, po, noReceipt)
		}
		return s.sell(hc, po, false)
	})
	if err != nil {
		return err
	}
	if !ok {
		delete(s.waiting, rr)
		hc.Log().Warn("no manager to restock", slog.String("shoe", po.ShoeType))
		return complete(hc, po, noReceipt)
	}
	return nil
}

func (s *Seller) sell(hc actor.HandlerCtx, po *PurchaseOrder, discount bool) error {
	r := s.store.File(store.Receipt{
		Seller:      s.name,
		Customer:    po.Customer,
		ShoeType:    po.ShoeType,
		Discount:    discount,
		IssuedTick:  s.timeline.tick,
		RequestTick: po.RequestTick,
		AmountSold:  po.Amount,
	})
	hc.Log().Info("sold",
		slog.String("shoe", po.ShoeType),
		slog.String("customer", po.Customer),
		slog.Bool("discount", discount),
	)
	return complete(hc, po, &r)
}

// abandon fails all purchases still waiting for a restock.
func (s *Seller) abandon(hc actor.HandlerCtx) error {
	for rr, po := range s.waiting {
		delete(s.waiting, rr)
		if err := complete(hc, po, noReceipt); err != nil {
			return err
		}
	}
	return nil
}
