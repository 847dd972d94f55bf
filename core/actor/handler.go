package actor

import (
	"fmt"

	"github.com/codewandler/mbus-go/core/bus"
	"github.com/codewandler/mbus-go/core/msg"
)

type (
	// InitFunc is called once during setup, after all handlers of the
	// service have been subscribed.
	InitFunc func(hc HandlerCtx) error

	handlerFunc func(hc HandlerCtx, m any) error
	replyFunc   func(hc HandlerCtx, result any) error

	// HandlerRegistrar collects subscriptions and init functions while a
	// service sets itself up.
	HandlerRegistrar interface {
		// Subscribe adds a subscription step. Steps run in registration order.
		Subscribe(f func(hc HandlerCtx) error)
		// Init adds an init function. Init functions run after all
		// subscription steps, in registration order.
		Init(f InitFunc)
	}

	// HandlerRegistration configures a service during setup.
	// Create these using [Init], [HandleBroadcast], [HandleRequest] and
	// [RespondRequest].
	HandlerRegistration func(r HandlerRegistrar)
)

type registrar struct {
	subs  []func(hc HandlerCtx) error
	inits []InitFunc
}

func (r *registrar) Subscribe(f func(hc HandlerCtx) error) { r.subs = append(r.subs, f) }
func (r *registrar) Init(f InitFunc)                       { r.inits = append(r.inits, f) }

func (r *registrar) apply(hc HandlerCtx) error {
	for _, f := range r.subs {
		if err := f(hc); err != nil {
			return fmt.Errorf("failed to subscribe: %w", err)
		}
	}
	for _, f := range r.inits {
		if err := f(hc); err != nil {
			return fmt.Errorf("failed to init: %w", err)
		}
	}
	return nil
}

// Init registers a function called once when the service starts.
// Use this to set up state or schedule background tasks.
func Init(f InitFunc) HandlerRegistration {
	return func(r HandlerRegistrar) { r.Init(f) }
}

// HandleBroadcast subscribes h to broadcasts of type B during setup.
func HandleBroadcast[B msg.Broadcast](h func(hc HandlerCtx, m B) error) HandlerRegistration {
	return func(r HandlerRegistrar) {
		r.Subscribe(func(hc HandlerCtx) error { return SubscribeBroadcast(hc, h) })
	}
}

// HandleRequest subscribes h to requests of type R during setup. The
// handler owns the request and must eventually answer it with [Complete],
// possibly from a later dispatch.
func HandleRequest[R msg.Request[T], T any](h func(hc HandlerCtx, r R) error) HandlerRegistration {
	return func(r HandlerRegistrar) {
		r.Subscribe(func(hc HandlerCtx) error { return SubscribeRequest[R, T](hc, h) })
	}
}

// RespondRequest subscribes h to requests of type R during setup and
// completes every request with the value h returns.
func RespondRequest[R msg.Request[T], T any](h func(hc HandlerCtx, r R) (T, error)) HandlerRegistration {
	return HandleRequest[R, T](func(hc HandlerCtx, r R) error {
		res, err := h(hc, r)
		if err != nil {
			return err
		}
		return Complete[T](hc, r, res)
	})
}

// SubscribeBroadcast subscribes the calling service to broadcasts of type B.
// Subscribing the same type again replaces the handler.
func SubscribeBroadcast[B msg.Broadcast](hc HandlerCtx, h func(hc HandlerCtx, m B) error) error {
	t := msg.TypeFor[B]()
	s := hc.service()
	s.setHandler(t, func(hc HandlerCtx, m any) error { return h(hc, m.(B)) })
	return s.bus.SubscribeBroadcast(t, s.ref)
}

// SubscribeRequest joins the calling service to the rotation of request
// type R. Subscribing the same type again replaces the handler.
func SubscribeRequest[R msg.Request[T], T any](hc HandlerCtx, h func(hc HandlerCtx, r R) error) error {
	t := msg.TypeFor[R]()
	s := hc.service()
	s.setHandler(t, func(hc HandlerCtx, m any) error { return h(hc, m.(R)) })
	return s.bus.SubscribeRequest(t, s.ref)
}

// SendRequest routes r to one subscriber of its type. When the request is
// completed, onComplete runs on the calling service's loop with the result.
// It returns false if nobody is subscribed to the request type; onComplete
// is then never called.
func SendRequest[T any](hc HandlerCtx, r msg.Request[T], onComplete func(hc HandlerCtx, res T) error) (bool, error) {
	s := hc.service()

	reply := func(hc HandlerCtx, result any) error {
		res, ok := result.(T)
		if !ok && result != nil {
			return fmt.Errorf("%w: %s completed with %T", ErrUnexpectedResult, msg.TypeOf(r), result)
		}
		if onComplete == nil {
			return nil
		}
		return onComplete(hc, res)
	}

	if !s.addReply(r, reply) {
		return false, fmt.Errorf("%w: %w: %s", bus.ErrInvariantViolation, bus.ErrDuplicateRequest, msg.TypeOf(r))
	}
	ok, err := s.bus.SendRequest(r, s.ref)
	if err != nil || !ok {
		s.takeReply(r)
	}
	return ok, err
}

// Complete answers r with result. It may be called from any dispatch of the
// handling service, or from one of its scheduled tasks.
func Complete[T any](hc HandlerCtx, r msg.Request[T], result T) error {
	return bus.CompleteTyped(hc.service().bus, r, result)
}
