package actor

import (
	"context"
	"log/slog"

	"github.com/codewandler/mbus-go/core/bus"
	"github.com/codewandler/mbus-go/core/msg"
)

type (
	// HandlerCtx is handed to every init function, handler and completion
	// callback. Its context ends when the actor loop exits.
	HandlerCtx interface {
		context.Context
		Log() *slog.Logger
		Self() *bus.Ref
		SendBroadcast(m msg.Broadcast) error
		// Terminate asks the loop to stop after the current dispatch. It is
		// safe to call from scheduled tasks.
		Terminate()
		// Schedule runs f in the background, bounded by Options.MaxConcurrentTasks.
		Schedule(f func())

		service() *Service
	}
)

type handlerCtx struct {
	context.Context
	s     *Service
	tasks *tasks
}

func (hc *handlerCtx) Log() *slog.Logger { return hc.s.log }
func (hc *handlerCtx) Self() *bus.Ref    { return hc.s.ref }
func (hc *handlerCtx) Terminate()        { hc.s.Terminate() }
func (hc *handlerCtx) Schedule(f func()) { hc.tasks.schedule(f) }
func (hc *handlerCtx) service() *Service { return hc.s }

func (hc *handlerCtx) SendBroadcast(m msg.Broadcast) error {
	return hc.s.bus.SendBroadcastFrom(m, hc.s.ref)
}

var _ HandlerCtx = (*handlerCtx)(nil)
