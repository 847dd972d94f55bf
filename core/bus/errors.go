package bus

import "errors"

var (
	// ErrNotRegistered is returned by any operation invoked by, or about, an
	// actor that is not currently registered. It is a usage error and is
	// never retried.
	ErrNotRegistered = errors.New("actor not registered")

	// ErrInvariantViolation marks an impossible bus state. It always wraps
	// one of the more specific reasons below and is fatal to the caller.
	ErrInvariantViolation = errors.New("bus invariant violated")

	// Invariant reasons
	ErrUnknownRequest   = errors.New("request was never sent or is already completed")
	ErrDuplicateRequest = errors.New("request is already in flight")
	ErrSenderGone       = errors.New("request sender is no longer registered")
	ErrMissingMailbox   = errors.New("subscriber has no mailbox")

	// ErrInvalidMessage is returned for nil messages or empty types.
	ErrInvalidMessage = errors.New("invalid message")
)
