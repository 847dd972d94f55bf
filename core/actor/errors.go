package actor

import "errors"

var (
	// ErrHandlerPanic wraps a panic recovered from a handler, an init
	// function or a completion callback. It ends the actor loop.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrAlreadyStarted is returned when Run is called more than once.
	ErrAlreadyStarted = errors.New("actor already started")

	// ErrNoHandler is returned for a message that reached the mailbox
	// without a handler registered for its type.
	ErrNoHandler = errors.New("no handler for message")

	// ErrUnexpectedResult is returned when a completion carries a result of
	// a different type than the callback expects.
	ErrUnexpectedResult = errors.New("unexpected result type")
)
