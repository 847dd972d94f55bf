package actor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/codewandler/mbus-go/core/bus"
	"github.com/codewandler/mbus-go/core/msg"
)

type (
	OnPanic func(recovered any, stack []byte, msg any)

	Options struct {
		// Name is used for logging and need not be unique.
		Name    string
		Logger  *slog.Logger
		Metrics Metrics
		OnPanic OnPanic
		// MaxConcurrentTasks caps the number of tasks run via HandlerCtx.Schedule.
		// If 0 or negative, 32 is used.
		MaxConcurrentTasks int
	}

	// Service is one actor: a named loop that takes messages from its
	// mailbox on the bus and dispatches them to the handler registered for
	// their concrete type, one at a time.
	Service struct {
		bus      *bus.Bus
		ref      *bus.Ref
		log      *slog.Logger
		metrics  Metrics
		onPanic  OnPanic
		maxTasks int
		regs     []HandlerRegistration

		state      atomic.Int32
		started    atomic.Bool
		terminated atomic.Bool

		mu          sync.Mutex
		handlers    map[msg.Type]handlerFunc
		replies     map[msg.AnyRequest]replyFunc
		cancelAwait context.CancelFunc

		ready chan struct{}
		done  chan struct{}
		err   error
	}
)

func New(b *bus.Bus, opt Options, regs ...HandlerRegistration) *Service {
	if opt.Name == "" {
		opt.Name = "actor"
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Metrics == nil {
		opt.Metrics = NopMetrics()
	}
	if opt.MaxConcurrentTasks <= 0 {
		opt.MaxConcurrentTasks = 32
	}

	ref := bus.NewRef(opt.Name)
	log := opt.Logger.With(slog.String("actor", ref.Name()), slog.String("actor_id", ref.ID()))

	if opt.OnPanic == nil {
		opt.OnPanic = func(recovered any, stack []byte, m any) {
			log.Error("actor panicked",
				slog.Any("recovered", recovered),
				slog.String("stack", string(stack)),
				slog.String("msg_type", msg.TypeOf(m).Name),
			)
		}
	}

	return &Service{
		bus:      b,
		ref:      ref,
		log:      log,
		metrics:  opt.Metrics,
		onPanic:  opt.OnPanic,
		maxTasks: opt.MaxConcurrentTasks,
		regs:     regs,
		handlers: make(map[msg.Type]handlerFunc),
		replies:  make(map[msg.AnyRequest]replyFunc),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Service) Ref() *bus.Ref { return s.ref }
func (s *Service) Name() string  { return s.ref.Name() }
func (s *Service) State() State  { return State(s.state.Load()) }

// Ready is closed once setup has completed and the loop is running.
// It is never closed if setup fails.
func (s *Service) Ready() <-chan struct{} { return s.ready }

// Done is closed when the loop has exited and the service is unregistered.
func (s *Service) Done() <-chan struct{} { return s.done }

// Err returns the error the loop ended with. Only valid after Done is closed.
func (s *Service) Err() error {
	<-s.done
	return s.err
}

// Start runs the service loop in a new goroutine.
func (s *Service) Start(ctx context.Context) {
	go func() { _ = s.Run(ctx) }()
}

// Terminate asks the loop to stop after the current dispatch. A loop that
// is blocked waiting for its next message wakes up immediately. Calling
// Terminate more than once, or before the service runs, is safe.
func (s *Service) Terminate() {
	if !s.terminated.CompareAndSwap(false, true) {
		return
	}
	s.state.CompareAndSwap(int32(StateRunning), int32(StateTerminating))

	s.mu.Lock()
	cancel := s.cancelAwait
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Run registers the service on the bus, performs setup and processes
// messages until the service terminates, ctx ends or a handler fails. The
// service is always unregistered when Run returns. Termination and context
// cancellation return nil.
func (s *Service) Run(ctx context.Context) (err error) {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", ErrAlreadyStarted, s.ref)
	}

	runCtx, cancel := context.WithCancel(ctx)
	awaitCtx, cancelAwait := context.WithCancel(runCtx)
	bg := newTasks(runCtx, s.maxTasks, s.log, s.ref.ID(), s.metrics)
	hc := &handlerCtx{Context: runCtx, s: s, tasks: bg}

	s.bus.Register(s.ref)
	s.state.Store(int32(StateRegistered))
	s.metrics.ActorStarted(s.Name())
	s.log.Debug("actor registered")

	defer func() {
		cancelAwait()
		cancel()
		bg.wait()
		s.bus.Unregister(s.ref)
		s.state.Store(int32(StateUnregistered))

		s.err = err
		s.metrics.ActorStopped(s.Name(), err == nil)
		if err != nil {
			s.log.Error("actor failed", slog.Any("error", err))
		} else {
			s.log.Debug("actor stopped")
		}
		close(s.done)
	}()

	s.mu.Lock()
	s.cancelAwait = cancelAwait
	s.mu.Unlock()
	if s.terminated.Load() {
		return nil
	}

	if err := s.setup(hc); err != nil {
		return err
	}

	s.state.CompareAndSwap(int32(StateRegistered), int32(StateRunning))
	if s.terminated.Load() {
		s.state.Store(int32(StateTerminating))
	}
	close(s.ready)

	for !s.terminated.Load() {
		m, err := s.bus.AwaitNext(awaitCtx, s.ref)
		if err != nil {
			if s.terminated.Load() || runCtx.Err() != nil {
				return nil
			}
			return err
		}
		s.metrics.MailboxDepth(s.ref.ID(), s.bus.MailboxLen(s.ref))

		if err := s.dispatch(hc, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) setup(hc HandlerCtx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.onPanic(r, debug.Stack(), nil)
			err = fmt.Errorf("%w: during setup: %v", ErrHandlerPanic, r)
		}
	}()

	reg := &registrar{}
	for _, apply := range s.regs {
		apply(reg)
	}
	return reg.apply(hc)
}

func (s *Service) dispatch(hc HandlerCtx, m any) (err error) {
	var (
		t  msg.Type
		fn func() error
	)

	switch c := m.(type) {
	case msg.Completion:
		t = msg.TypeOf(c.Request)
		reply, ok := s.takeReply(c.Request)
		if !ok {
			return fmt.Errorf("%w: %w: completion of %s", bus.ErrInvariantViolation, bus.ErrUnknownRequest, t)
		}
		fn = func() error { return reply(hc, c.Result) }
	default:
		t = msg.TypeOf(m)
		h, ok := s.handler(t)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoHandler, t)
		}
		fn = func() error { return h(hc, m) }
	}

	timer := s.metrics.MessageDuration(t.Name)
	defer timer.ObserveDuration()

	defer func() {
		if r := recover(); r != nil {
			s.metrics.MessagePanic(t.Name)
			s.onPanic(r, debug.Stack(), m)
			err = fmt.Errorf("%w: %s: %v", ErrHandlerPanic, t, r)
		}
		s.metrics.MessageProcessed(t.Name, err == nil)
	}()

	if err := fn(); err != nil {
		return fmt.Errorf("handle %s %s: %w", msg.KindOf(m), t, err)
	}
	return nil
}

func (s *Service) setHandler(t msg.Type, h handlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[t] = h
}

func (s *Service) handler(t msg.Type) (handlerFunc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handlers[t]
	return h, ok
}

func (s *Service) addReply(r msg.AnyRequest, f replyFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.replies[r]; ok {
		return false
	}
	s.replies[r] = f
	return true
}

func (s *Service) takeReply(r msg.AnyRequest) (replyFunc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.replies[r]
	if ok {
		delete(s.replies, r)
	}
	return f, ok
}

// PendingReplies returns the number of requests this service sent that
// have not been completed yet.
func (s *Service) PendingReplies() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.replies)
}

// IsTerminated reports whether Terminate was called.
func (s *Service) IsTerminated() bool { return s.terminated.Load() }
