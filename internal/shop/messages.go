package shop

import (
	"github.com/codewandler/mbus-go/core/msg"
	"github.com/codewandler/mbus-go/internal/store"
)

type (
	// Tick is broadcast by the clock once per time unit. Current runs from 1
	// to Duration+1; the last tick tells every service to terminate.
	Tick struct {
		msg.BroadcastMsg
		Current  int
		Duration int
	}

	// NewDiscount announces that Amount items of ShoeType are on sale.
	NewDiscount struct {
		msg.BroadcastMsg
		Sender   string
		ShoeType string
		Amount   int
	}

	// PurchaseOrder is sent by a customer to any seller. It completes with
	// a receipt, or nil if nothing was sold.
	PurchaseOrder struct {
		msg.RequestMsg[*store.Receipt]
		Customer     string
		ShoeType     string
		OnlyDiscount bool
		RequestTick  int
		Amount       int
	}

	// RestockRequest is sent by a seller to the manager when a shoe is out of
	// stock. It completes with true once a shoe has been reserved for the
	// seller.
	RestockRequest struct {
		msg.RequestMsg[bool]
		SellerID int
		ShoeType string
		Amount   int
	}

	// ManufacturingOrder is sent by the manager to any factory. It completes
	// with the factory's receipt once all items are made.
	ManufacturingOrder struct {
		msg.RequestMsg[*store.Receipt]
		Sender      string
		ShoeType    string
		Amount      int
		RequestTick int
	}
)
