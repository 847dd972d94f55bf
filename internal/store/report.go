package store

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Snapshot is the JSON form of the store.
type Snapshot struct {
	Stock    []Stock   `json:"stock"`
	Receipts []Receipt `json:"receipts"`
}

func (s *Store) Snapshot() Snapshot {
	return Snapshot{Stock: s.Stock(), Receipts: s.Receipts()}
}

// WriteJSON writes the snapshot as indented JSON.
func (s *Store) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.Snapshot())
}

// WriteReport writes a human readable listing of the stock followed by all
// receipts. Receipt IDs are left out.
func (s *Store) WriteReport(w io.Writer) error {
	snap := s.Snapshot()
	var b strings.Builder

	if len(snap.Stock) == 0 {
		b.WriteString("No shoes in stock.\n")
	} else {
		b.WriteString("Stock:\n")
		for i, st := range snap.Stock {
			fmt.Fprintf(&b, "  %d. %s: %d on storage, %d discounted\n", i+1, st.ShoeType, st.Amount, st.Discounted)
		}
	}

	if len(snap.Receipts) == 0 {
		b.WriteString("No receipts.\n")
	} else {
		b.WriteString("Receipts:\n")
		for i, r := range snap.Receipts {
			fmt.Fprintf(&b, "  Receipt %d:\n", i+1)
			fmt.Fprintf(&b, "    Seller:      %s\n", r.Seller)
			fmt.Fprintf(&b, "    Customer:    %s\n", r.Customer)
			fmt.Fprintf(&b, "    Shoe:        %s\n", r.ShoeType)
			fmt.Fprintf(&b, "    Discount:    %t\n", r.Discount)
			fmt.Fprintf(&b, "    RequestTick: %d\n", r.RequestTick)
			fmt.Fprintf(&b, "    IssuedTick:  %d\n", r.IssuedTick)
			fmt.Fprintf(&b, "    AmountSold:  %d\n", r.AmountSold)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
