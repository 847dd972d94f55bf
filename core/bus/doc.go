// Package bus implements the in-process message bus that actors use to talk
// to each other.
//
// Every registered actor owns one unbounded FIFO mailbox. Only the bus
// enqueues and only the owner dequeues (AwaitNext). Two message kinds are
// routed:
//
//   - Broadcasts are copied into the mailbox of every actor subscribed to the
//     concrete message type at the moment of sending.
//   - Requests are delivered to exactly one subscriber, picked by a rotation
//     cursor per request type. The handler answers with Complete, and the bus
//     places a [msg.Completion] in the original sender's mailbox.
//
// All bookkeeping (registration table, subscription sets, rotation cursors,
// pending requests) is guarded by a single lock, which makes subscription
// changes, routing and enqueueing atomic with respect to each other.
// Unregistering an actor purges it from every subscription set while keeping
// each rotation fair for the remaining members.
package bus
