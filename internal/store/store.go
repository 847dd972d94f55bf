// Package store holds the passive state of the shoe store: the inventory
// with its discount counters and the ledger of issued receipts. All methods
// are safe for concurrent use.
package store

import (
	"slices"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type BuyResult int

const (
	NotInStock BuyResult = iota
	NotOnDiscount
	RegularPrice
	DiscountedPrice
)

func (r BuyResult) String() string {
	switch r {
	case NotInStock:
		return "not_in_stock"
	case NotOnDiscount:
		return "not_on_discount"
	case RegularPrice:
		return "regular_price"
	case DiscountedPrice:
		return "discounted_price"
	default:
		return "unknown"
	}
}

// Taken reports whether a shoe left the storage.
func (r BuyResult) Taken() bool { return r == RegularPrice || r == DiscountedPrice }

// Stock is the storage info of one shoe type. Discounted is the number of
// items out of Amount that are sold at a discount.
type Stock struct {
	ShoeType   string `json:"shoeType" yaml:"shoeType"`
	Amount     int    `json:"amount" yaml:"amount"`
	Discounted int    `json:"discounted" yaml:"discounted,omitempty"`
}

type Store struct {
	mu       sync.Mutex
	shoes    []*Stock
	receipts []Receipt
}

func New() *Store {
	return &Store{}
}

// Load replaces the inventory. A shoe type listed twice keeps its last
// amount.
func (s *Store) Load(stock []Stock) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shoes = s.shoes[:0]
	for _, st := range stock {
		if existing := s.find(st.ShoeType); existing != nil {
			*existing = st
			continue
		}
		s.shoes = append(s.shoes, &st)
	}
}

// Take removes one shoe of the given type from the storage. A discounted
// item is preferred whenever one is left. With onlyDiscount, a regular
// priced item is never taken.
func (s *Store) Take(shoeType string, onlyDiscount bool) BuyResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.find(shoeType)
	switch {
	case st == nil:
		return NotInStock
	case st.Amount == 0 && onlyDiscount:
		return NotOnDiscount
	case st.Amount == 0:
		return NotInStock
	case st.Discounted > 0:
		st.Amount--
		st.Discounted--
		return DiscountedPrice
	case onlyDiscount:
		return NotOnDiscount
	default:
		st.Amount--
		return RegularPrice
	}
}

// Add puts amount shoes of the given type on the storage.
func (s *Store) Add(shoeType string, amount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.find(shoeType); st != nil {
		st.Amount += amount
		return
	}
	s.shoes = append(s.shoes, &Stock{ShoeType: shoeType, Amount: amount})
}

// AddDiscount marks amount more items of the given type as discounted,
// capped to what is on the storage. An unknown type gets an empty entry.
func (s *Store) AddDiscount(shoeType string, amount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.find(shoeType)
	if st == nil {
		s.shoes = append(s.shoes, &Stock{ShoeType: shoeType})
		return
	}
	st.Discounted = min(st.Discounted+amount, st.Amount)
}

// File adds r to the receipts ledger and returns it with its ID set.
func (s *Store) File(r Receipt) Receipt {
	if r.ID == "" {
		r.ID = gonanoid.Must(12)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = append(s.receipts, r)
	return r
}

// Stock returns a copy of the inventory in the order shoe types were first
// seen.
func (s *Store) Stock() []Stock {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Stock, len(s.shoes))
	for i, st := range s.shoes {
		out[i] = *st
	}
	return out
}

// StockOf returns the storage info of one shoe type.
func (s *Store) StockOf(shoeType string) (Stock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.find(shoeType); st != nil {
		return *st, true
	}
	return Stock{}, false
}

// Receipts returns a copy of the ledger in filing order.
func (s *Store) Receipts() []Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.receipts)
}

// must hold s.mu
func (s *Store) find(shoeType string) *Stock {
	i := slices.IndexFunc(s.shoes, func(st *Stock) bool { return st.ShoeType == shoeType })
	if i < 0 {
		return nil
	}
	return s.shoes[i]
}
