// Package msg defines the message taxonomy carried by the bus.
//
// There are three kinds of messages:
//
//   - [Broadcast]: fire-and-forget, delivered to every subscriber of its type
//   - [Request]: delivered to exactly one subscriber, expects a reply of type T
//   - [Completion]: internal, carries a finished request and its result back
//     to the actor that sent it
//
// Domain types opt into a kind by embedding a marker:
//
//	type Tick struct {
//	    msg.BroadcastMsg
//	    Current int
//	}
//
//	type PurchaseOrder struct {
//	    msg.RequestMsg[*Receipt]
//	    Shoe string
//	}
//
// Request markers use pointer receivers, so only *PurchaseOrder satisfies
// [Request]. Every in-flight request therefore has its own identity, which
// the bus uses to correlate the eventual [Completion].
//
// Subscription tables are keyed by [Type], the concrete Go type of a message.
package msg
