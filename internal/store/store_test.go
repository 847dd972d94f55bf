package store

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestStore_Take(t *testing.T) {
	tests := []struct {
		name         string
		stock        []Stock
		shoe         string
		onlyDiscount bool
		want         BuyResult
		after        Stock
	}{
		{"unknown", nil, "red", false, NotInStock, Stock{}},
		{"unknown only discount", nil, "red", true, NotInStock, Stock{}},
		{"empty", []Stock{{"red", 0, 0}}, "red", false, NotInStock, Stock{"red", 0, 0}},
		{"empty only discount", []Stock{{"red", 0, 0}}, "red", true, NotOnDiscount, Stock{"red", 0, 0}},
		{"regular", []Stock{{"red", 2, 0}}, "red", false, RegularPrice, Stock{"red", 1, 0}},
		{"regular only discount", []Stock{{"red", 2, 0}}, "red", true, NotOnDiscount, Stock{"red", 2, 0}},
		{"discounted", []Stock{{"red", 2, 1}}, "red", true, DiscountedPrice, Stock{"red", 1, 0}},
		{"discount preferred", []Stock{{"red", 2, 1}}, "red", false, DiscountedPrice, Stock{"red", 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.Load(tt.stock)

			got := s.Take(tt.shoe, tt.onlyDiscount)
			require.Equal(t, tt.want, got, "got %s", got)
			require.Equal(t, tt.want.Taken(), got == RegularPrice || got == DiscountedPrice)

			st, ok := s.StockOf(tt.shoe)
			require.Equal(t, tt.stock != nil, ok)
			if ok {
				require.Equal(t, tt.after, st)
			}
		})
	}
}

func TestStore_AddDiscount(t *testing.T) {
	s := New()
	s.Load([]Stock{{ShoeType: "red", Amount: 3}})

	s.AddDiscount("red", 2)
	st, _ := s.StockOf("red")
	require.Equal(t, 2, st.Discounted)

	s.AddDiscount("red", 2)
	st, _ = s.StockOf("red")
	require.Equal(t, 3, st.Discounted, "capped to amount")

	s.AddDiscount("blue", 4)
	st, ok := s.StockOf("blue")
	require.True(t, ok)
	require.Equal(t, Stock{ShoeType: "blue"}, st)
}

func TestStore_Add(t *testing.T) {
	s := New()
	s.Add("red", 2)
	s.Add("red", 3)
	s.Add("blue", 1)

	require.Equal(t, []Stock{{"red", 5, 0}, {"blue", 1, 0}}, s.Stock())
}

func TestStore_LoadReplaces(t *testing.T) {
	s := New()
	s.Add("old", 1)
	s.Load([]Stock{{"red", 1, 0}, {"blue", 2, 0}, {"red", 4, 0}})

	require.Equal(t, []Stock{{"red", 4, 0}, {"blue", 2, 0}}, s.Stock())
}

func TestStore_File(t *testing.T) {
	s := New()
	r := s.File(Receipt{Seller: "s", Customer: "c", ShoeType: "red", AmountSold: 1})
	require.NotEmpty(t, r.ID)

	kept := s.File(Receipt{ID: "fixed"})
	require.Equal(t, "fixed", kept.ID)

	rs := s.Receipts()
	require.Len(t, rs, 2)
	require.Equal(t, r, rs[0])

	rs[0].Seller = "changed"
	require.Equal(t, "s", s.Receipts()[0].Seller)
}

func TestStore_ConcurrentTakeNeverOversells(t *testing.T) {
	s := New()
	s.Load([]Stock{{ShoeType: "red", Amount: 100}})
	s.AddDiscount("red", 30)

	var (
		wg                  sync.WaitGroup
		mu                  sync.Mutex
		regular, discounted int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				switch s.Take("red", false) {
				case RegularPrice:
					mu.Lock()
					regular++
					mu.Unlock()
				case DiscountedPrice:
					mu.Lock()
					discounted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 30, discounted)
	require.Equal(t, 70, regular)
	st, _ := s.StockOf("red")
	require.Equal(t, Stock{"red", 0, 0}, st)
}

func TestStore_Report(t *testing.T) {
	s := New()
	s.Load([]Stock{{ShoeType: "red-boots", Amount: 2}, {ShoeType: "blue-sandals", Amount: 1}})
	s.AddDiscount("red-boots", 5)
	require.Equal(t, DiscountedPrice, s.Take("red-boots", true))
	require.Equal(t, RegularPrice, s.Take("blue-sandals", false))
	s.Add("green-flip-flops", 3)
	s.AddDiscount("pink-heels", 1)

	s.File(Receipt{Seller: "Seller 1", Customer: "Alice", ShoeType: "red-boots", Discount: true, IssuedTick: 2, RequestTick: 2, AmountSold: 1})
	s.File(Receipt{Seller: "Factory 1", Customer: "store", ShoeType: "blue-sandals", IssuedTick: 5, RequestTick: 3, AmountSold: 2})

	var buf bytes.Buffer
	require.NoError(t, s.WriteReport(&buf))
	newGoldie(t).Assert(t, "report", buf.Bytes())
}

func TestStore_Report_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New().WriteReport(&buf))
	newGoldie(t).Assert(t, "empty", buf.Bytes())
}

func TestStore_WriteJSON(t *testing.T) {
	s := New()
	s.Add("red", 1)
	s.File(Receipt{ID: "r1", Seller: "s", Customer: "c", ShoeType: "red", IssuedTick: 1, RequestTick: 1, AmountSold: 1})

	var buf bytes.Buffer
	require.NoError(t, s.WriteJSON(&buf))

	var snap Snapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &snap))
	require.Equal(t, s.Snapshot(), snap)
	require.Contains(t, buf.String(), `"shoeType": "red"`)
}
