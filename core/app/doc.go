// Package app wires a bus and a set of actor services into one unit that is
// started, awaited and stopped together.
//
// # Basic Usage
//
//	a := app.New(app.Config{Log: log})
//	a.Spawn("seller", actor.HandleRequest[*Order, *Receipt](handleOrder))
//	a.Spawn("customer", actor.Init(placeOrders))
//
//	if err := a.Run(); err != nil {
//	    return err
//	}
//	if err := a.WaitReady(ctx); err != nil {
//	    return err
//	}
//	// every service has subscribed, it is now safe to start producing
//	return a.Wait()
//
// Wait returns once every service has terminated. The first service that
// fails cancels the context of all others, and its error is returned.
package app
