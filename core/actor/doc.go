// Package actor runs micro-services on top of a [bus.Bus].
//
// A [Service] is a named unit of sequential execution. Its loop:
//   - registers the service on the bus
//   - applies its handler registrations and init functions (setup)
//   - takes the next message from its mailbox and dispatches it, one at a time
//   - unregisters from the bus when it terminates, fails or its context ends
//
// # Creating Services
//
//	svc := actor.New(b, actor.Options{Name: "seller"},
//	    actor.HandleBroadcast(func(hc actor.HandlerCtx, t Tick) error {
//	        // react to a broadcast
//	        return nil
//	    }),
//	    actor.HandleRequest[*Order, *Receipt](func(hc actor.HandlerCtx, o *Order) error {
//	        // answer now or later
//	        return actor.Complete(hc, o, &Receipt{})
//	    }),
//	    actor.Init(func(hc actor.HandlerCtx) error {
//	        // one-time setup after all subscriptions
//	        return nil
//	    }),
//	)
//	svc.Start(ctx)
//
// # Requests
//
// [SendRequest] routes a request to exactly one subscriber and returns
// immediately. The completion comes back through the sender's own mailbox
// and runs the callback given at send time, so callbacks never race with
// handlers:
//
//	ok, err := actor.SendRequest(hc, &Order{Shoe: "red"}, func(hc actor.HandlerCtx, r *Receipt) error {
//	    return nil
//	})
//
// # Errors
//
// Handler errors are not suppressed: they end the loop and are returned by
// [Service.Run]. Panics are recovered into [ErrHandlerPanic].
//
// # Background Tasks
//
// Handlers can schedule work via [HandlerCtx.Schedule]. The service cancels
// the context of its tasks on exit and waits for them before it unregisters.
package actor
