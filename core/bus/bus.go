package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"github.com/codewandler/mbus-go/core/ds"
	"github.com/codewandler/mbus-go/core/metrics"
	"github.com/codewandler/mbus-go/core/msg"
)

type (
	Options struct {
		Logger  *slog.Logger
		Metrics Metrics
	}

	pendingRequest struct {
		sender *Ref
		typ    msg.Type
		timer  metrics.Timer
	}

	// Bus routes broadcasts and requests between registered actors.
	// Create one with New and share it between all actors of a program.
	Bus struct {
		log     *slog.Logger
		metrics Metrics

		mu         sync.Mutex
		mailboxes  map[*Ref]*mailbox
		broadcasts map[reflect.Type]*ds.Set[*Ref]
		requests   map[reflect.Type]*ds.Rotation[*Ref]
		pending    map[msg.AnyRequest]pendingRequest
	}
)

func New(opts Options) *Bus {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics()
	}
	return &Bus{
		log:        opts.Logger.With(slog.String("component", "bus")),
		metrics:    opts.Metrics,
		mailboxes:  make(map[*Ref]*mailbox),
		broadcasts: make(map[reflect.Type]*ds.Set[*Ref]),
		requests:   make(map[reflect.Type]*ds.Rotation[*Ref]),
		pending:    make(map[msg.AnyRequest]pendingRequest),
	}
}

func violation(reason error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrInvariantViolation, reason, fmt.Sprintf(format, args...))
}

func notRegistered(ref *Ref) error {
	return fmt.Errorf("%w: %s", ErrNotRegistered, ref)
}

// Register allocates a mailbox for ref and marks it live. Registering a live
// actor again is a no-op. A Ref that was unregistered comes back as a fresh
// actor without subscriptions.
func (b *Bus) Register(ref *Ref) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.mailboxes[ref]; ok {
		return
	}
	b.mailboxes[ref] = newMailbox()
	ref.live.Store(true)

	b.metrics.RegisteredActors(len(b.mailboxes))
	b.log.Debug("actor registered", slog.String("actor", ref.Name()), slog.String("actor_id", ref.ID()))
}

// Unregister marks ref not live, drops its mailbox and removes it from every
// subscription. Requests that were routed to ref but never taken from its
// mailbox are dropped from the pending registry. Unregistering twice is a
// no-op.
func (b *Bus) Unregister(ref *Ref) {
	b.mu.Lock()
	defer b.mu.Unlock()

	mb, ok := b.mailboxes[ref]
	if !ok {
		return
	}
	delete(b.mailboxes, ref)
	ref.live.Store(false)

	for k, set := range b.broadcasts {
		set.Remove(ref)
		if set.IsEmpty() {
			delete(b.broadcasts, k)
		}
	}
	for k, rot := range b.requests {
		rot.Remove(ref)
		if rot.Len() == 0 {
			delete(b.requests, k)
		}
	}

	log := b.log.With(slog.String("actor", ref.Name()), slog.String("actor_id", ref.ID()))

	for _, m := range mb.close() {
		r, ok := m.(msg.AnyRequest)
		if !ok {
			continue
		}
		p, ok := b.pending[r]
		if !ok {
			continue
		}
		delete(b.pending, r)
		b.metrics.DroppedRequests(p.typ.Name, 1)
		log.Warn("dropping undelivered request",
			slog.String("type", p.typ.Name),
			slog.String("sender", p.sender.String()),
		)
	}

	b.metrics.RegisteredActors(len(b.mailboxes))
	b.metrics.PendingRequests(len(b.pending))
	log.Debug("actor unregistered")
}

// IsRegistered reports whether ref currently owns a mailbox.
func (b *Bus) IsRegistered(ref *Ref) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.mailboxes[ref]
	return ok
}

// SubscribeBroadcast adds ref to the subscribers of broadcast type t.
// Subscribing twice is a no-op.
func (b *Bus) SubscribeBroadcast(t msg.Type, ref *Ref) error {
	if t.IsZero() {
		return fmt.Errorf("%w: empty broadcast type", ErrInvalidMessage)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.mailboxes[ref]; !ok {
		return notRegistered(ref)
	}
	set, ok := b.broadcasts[t.Key]
	if !ok {
		set = ds.NewSet[*Ref]()
		b.broadcasts[t.Key] = set
	}
	if set.Add(ref) {
		b.log.Debug("broadcast subscribed", slog.String("type", t.Name), slog.String("actor", ref.String()))
	}
	return nil
}

// SubscribeRequest adds ref to the rotation of request type t.
// Subscribing twice is a no-op.
func (b *Bus) SubscribeRequest(t msg.Type, ref *Ref) error {
	if t.IsZero() {
		return fmt.Errorf("%w: empty request type", ErrInvalidMessage)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.mailboxes[ref]; !ok {
		return notRegistered(ref)
	}
	rot, ok := b.requests[t.Key]
	if !ok {
		rot = ds.NewRotation[*Ref]()
		b.requests[t.Key] = rot
	}
	if rot.Add(ref) {
		b.log.Debug("request subscribed", slog.String("type", t.Name), slog.String("actor", ref.String()))
	}
	return nil
}

// SendBroadcast enqueues m in the mailbox of every actor subscribed to its
// type at the moment of sending. Having no subscribers is not an error.
// Use it for sources outside the actor runtime; actors send through
// SendBroadcastFrom.
func (b *Bus) SendBroadcast(m msg.Broadcast) error {
	return b.sendBroadcast(m, nil)
}

// SendBroadcastFrom is SendBroadcast on behalf of sender, which must be
// registered.
func (b *Bus) SendBroadcastFrom(m msg.Broadcast, sender *Ref) error {
	if sender == nil {
		return fmt.Errorf("%w: nil sender", ErrInvalidMessage)
	}
	return b.sendBroadcast(m, sender)
}

func (b *Bus) sendBroadcast(m msg.Broadcast, sender *Ref) error {
	if m == nil {
		return fmt.Errorf("%w: nil broadcast", ErrInvalidMessage)
	}
	t := msg.TypeOf(m)

	b.mu.Lock()
	defer b.mu.Unlock()

	if sender != nil {
		if _, ok := b.mailboxes[sender]; !ok {
			return notRegistered(sender)
		}
	}

	set, ok := b.broadcasts[t.Key]
	if !ok {
		b.metrics.BroadcastFanout(t.Name, 0)
		return nil
	}

	targets := make([]*mailbox, 0, set.Len())
	for _, ref := range set.Values() {
		mb, ok := b.mailboxes[ref]
		if !ok {
			return violation(ErrMissingMailbox, "%s subscribed to %s", ref, t.Name)
		}
		targets = append(targets, mb)
	}
	for _, mb := range targets {
		mb.put(m)
	}

	b.metrics.MessageSent(msg.KindBroadcast.String(), t.Name)
	b.metrics.BroadcastFanout(t.Name, len(targets))
	return nil
}

// SendRequest routes r to one subscriber of its type, chosen by rotation,
// and records sender as the actor awaiting the completion. It returns false
// and records nothing if the type has no subscribers.
//
// Requests must be pointers to non-zero-sized values: the pointer is the
// identity that correlates Complete with the sender, and distinct zero-sized
// allocations may share an address.
func (b *Bus) SendRequest(r msg.AnyRequest, sender *Ref) (bool, error) {
	if r == nil {
		return false, fmt.Errorf("%w: nil request", ErrInvalidMessage)
	}
	t := msg.TypeOf(r)
	if t.Key.Kind() != reflect.Pointer || t.Key.Elem().Size() == 0 {
		return false, fmt.Errorf("%w: request %s must be a pointer to a non-empty struct", ErrInvalidMessage, t.Name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.mailboxes[sender]; !ok {
		return false, notRegistered(sender)
	}
	if p, ok := b.pending[r]; ok {
		return false, violation(ErrDuplicateRequest, "%s already sent by %s", t.Name, p.sender)
	}

	rot, ok := b.requests[t.Key]
	if !ok || rot.Len() == 0 {
		b.metrics.RequestUnrouted(t.Name)
		return false, nil
	}

	target, _ := rot.Next()
	mb, ok := b.mailboxes[target]
	if !ok {
		return false, violation(ErrMissingMailbox, "%s subscribed to %s", target, t.Name)
	}

	b.pending[r] = pendingRequest{
		sender: sender,
		typ:    t,
		timer:  b.metrics.RequestDuration(t.Name),
	}
	mb.put(r)

	b.metrics.MessageSent(msg.KindRequest.String(), t.Name)
	b.metrics.PendingRequests(len(b.pending))
	return true, nil
}

// Complete answers r with result. The completion is placed in the mailbox of
// the actor that sent r. Completing a request that was never sent, or
// completing it twice, is an invariant violation wrapping ErrUnknownRequest.
// If the sender has been unregistered in the meantime the error wraps
// ErrSenderGone and the result is discarded.
func (b *Bus) Complete(r msg.AnyRequest, result any) error {
	if r == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidMessage)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pending[r]
	if !ok {
		return violation(ErrUnknownRequest, "%s", msg.TypeOf(r).Name)
	}
	delete(b.pending, r)
	b.metrics.PendingRequests(len(b.pending))

	mb, ok := b.mailboxes[p.sender]
	if !ok {
		return violation(ErrSenderGone, "%s sent by %s", p.typ.Name, p.sender)
	}
	mb.put(msg.Completion{Request: r, Result: result})

	p.timer.ObserveDuration()
	b.metrics.MessageSent(msg.KindCompletion.String(), p.typ.Name)
	return nil
}

// CompleteTyped is Complete with the result type checked at compile time.
func CompleteTyped[T any](b *Bus, r msg.Request[T], result T) error {
	return b.Complete(r, result)
}

// AwaitNext blocks until the mailbox of ref holds a message and removes it.
// It returns ErrNotRegistered if ref is not registered or gets unregistered
// while waiting, and the context error if ctx ends first.
func (b *Bus) AwaitNext(ctx context.Context, ref *Ref) (any, error) {
	b.mu.Lock()
	mb, ok := b.mailboxes[ref]
	b.mu.Unlock()
	if !ok {
		return nil, notRegistered(ref)
	}

	m, err := mb.take(ctx)
	if errors.Is(err, ErrNotRegistered) {
		return nil, notRegistered(ref)
	}
	return m, err
}

// MailboxLen returns the number of messages waiting for ref, or 0 if ref is
// not registered.
func (b *Bus) MailboxLen(ref *Ref) int {
	b.mu.Lock()
	mb, ok := b.mailboxes[ref]
	b.mu.Unlock()
	if !ok {
		return 0
	}
	return mb.len()
}

// BroadcastSubscribers returns the subscribers of broadcast type t in
// subscription order.
func (b *Bus) BroadcastSubscribers(t msg.Type) []*Ref {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.broadcasts[t.Key]; ok {
		return set.Values()
	}
	return nil
}

// RequestSubscribers returns the rotation of request type t starting at the
// actor that receives the next request.
func (b *Bus) RequestSubscribers(t msg.Type) []*Ref {
	b.mu.Lock()
	defer b.mu.Unlock()
	rot, ok := b.requests[t.Key]
	if !ok {
		return nil
	}
	vs := rot.Values()
	c := rot.Cursor()
	return slices.Concat(vs[c:], vs[:c])
}

// PendingRequests returns the number of requests sent but not yet completed.
func (b *Bus) PendingRequests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
