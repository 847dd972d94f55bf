package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/mbus-go/core/msg"
)

type (
	ping struct {
		msg.BroadcastMsg
		N int
	}
	pong struct {
		msg.BroadcastMsg
	}
	ask struct {
		msg.RequestMsg[int]
		N int
	}
	empty struct {
		msg.RequestMsg[int]
	}
)

var (
	pingType = msg.TypeFor[ping]()
	askType  = msg.TypeFor[*ask]()
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	return New(Options{})
}

func register(t *testing.T, b *Bus, names ...string) []*Ref {
	t.Helper()
	refs := make([]*Ref, len(names))
	for i, n := range names {
		refs[i] = NewRef(n)
		b.Register(refs[i])
	}
	return refs
}

func next(t *testing.T, b *Bus, ref *Ref) any {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()
	m, err := b.AwaitNext(ctx, ref)
	require.NoError(t, err)
	return m
}

func TestBus_RegisterIdempotent(t *testing.T) {
	b := newTestBus(t)
	a := NewRef("a")
	require.False(t, a.Live())
	require.False(t, b.IsRegistered(a))

	b.Register(a)
	require.NoError(t, b.SubscribeBroadcast(pingType, a))
	b.Register(a)

	require.True(t, a.Live())
	require.True(t, b.IsRegistered(a))
	require.Equal(t, []*Ref{a}, b.BroadcastSubscribers(pingType))
}

func TestBus_UnregisterIdempotent(t *testing.T) {
	b := newTestBus(t)
	refs := register(t, b, "a", "b")
	a := refs[0]
	require.NoError(t, b.SubscribeBroadcast(pingType, a))
	require.NoError(t, b.SubscribeRequest(askType, a))

	b.Unregister(a)
	b.Unregister(a)

	require.False(t, a.Live())
	require.False(t, b.IsRegistered(a))
	require.Empty(t, b.BroadcastSubscribers(pingType))
	require.Empty(t, b.RequestSubscribers(askType))

	ok, err := b.SendRequest(&ask{}, refs[1])
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBus_NotRegistered(t *testing.T) {
	b := newTestBus(t)
	a := NewRef("a")

	require.ErrorIs(t, b.SubscribeBroadcast(pingType, a), ErrNotRegistered)
	require.ErrorIs(t, b.SubscribeRequest(askType, a), ErrNotRegistered)

	_, err := b.SendRequest(&ask{}, a)
	require.ErrorIs(t, err, ErrNotRegistered)
	require.ErrorIs(t, b.SendBroadcastFrom(ping{}, a), ErrNotRegistered)

	_, err = b.AwaitNext(t.Context(), a)
	require.ErrorIs(t, err, ErrNotRegistered)

	b.Register(a)
	b.Unregister(a)
	require.ErrorIs(t, b.SubscribeBroadcast(pingType, a), ErrNotRegistered)
	require.ErrorIs(t, b.SendBroadcastFrom(ping{}, a), ErrNotRegistered)
	_, err = b.AwaitNext(t.Context(), a)
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestBus_ReRegisterIsFresh(t *testing.T) {
	b := newTestBus(t)
	a := register(t, b, "a")[0]
	require.NoError(t, b.SubscribeBroadcast(pingType, a))
	require.NoError(t, b.SendBroadcast(ping{N: 1}))

	b.Unregister(a)
	b.Register(a)

	require.Empty(t, b.BroadcastSubscribers(pingType))
	require.Equal(t, 0, b.MailboxLen(a))
}

func TestBus_InvalidMessages(t *testing.T) {
	b := newTestBus(t)
	s := register(t, b, "s")[0]

	require.ErrorIs(t, b.SendBroadcast(nil), ErrInvalidMessage)
	require.ErrorIs(t, b.SubscribeBroadcast(msg.Type{}, s), ErrInvalidMessage)
	require.ErrorIs(t, b.SubscribeRequest(msg.Type{}, s), ErrInvalidMessage)
	require.ErrorIs(t, b.Complete(nil, 1), ErrInvalidMessage)

	_, err := b.SendRequest(nil, s)
	require.ErrorIs(t, err, ErrInvalidMessage)

	_, err = b.SendRequest(&empty{}, s)
	require.ErrorIs(t, err, ErrInvalidMessage)
}

func TestBus_RoundRobin_ABA(t *testing.T) {
	b := newTestBus(t)
	refs := register(t, b, "a", "b", "s")
	a, bb, s := refs[0], refs[1], refs[2]
	require.NoError(t, b.SubscribeRequest(askType, a))
	require.NoError(t, b.SubscribeRequest(askType, bb))

	r1, r2, r3 := &ask{N: 1}, &ask{N: 2}, &ask{N: 3}
	for _, r := range []*ask{r1, r2, r3} {
		ok, err := b.SendRequest(r, s)
		require.NoError(t, err)
		require.True(t, ok)
	}

	require.Equal(t, 2, b.MailboxLen(a))
	require.Equal(t, 1, b.MailboxLen(bb))
	require.Same(t, r1, next(t, b, a))
	require.Same(t, r2, next(t, b, bb))
	require.Same(t, r3, next(t, b, a))
	require.Equal(t, 3, b.PendingRequests())
}

func TestBus_Broadcast_OnlySubscribers(t *testing.T) {
	b := newTestBus(t)
	refs := register(t, b, "a", "c")
	a, c := refs[0], refs[1]
	require.NoError(t, b.SubscribeBroadcast(pingType, a))
	require.NoError(t, b.SubscribeBroadcast(msg.TypeFor[pong](), c))

	require.NoError(t, b.SendBroadcast(ping{N: 7}))

	require.Equal(t, ping{N: 7}, next(t, b, a))
	require.Equal(t, 0, b.MailboxLen(c))
}

func TestBus_BroadcastFrom_UnregisteredSenderDeliversNothing(t *testing.T) {
	b := newTestBus(t)
	refs := register(t, b, "a", "s")
	a, s := refs[0], refs[1]
	require.NoError(t, b.SubscribeBroadcast(pingType, a))

	require.NoError(t, b.SendBroadcastFrom(ping{N: 1}, s))
	require.Equal(t, 1, b.MailboxLen(a))

	b.Unregister(s)
	require.ErrorIs(t, b.SendBroadcastFrom(ping{N: 2}, s), ErrNotRegistered)
	require.Equal(t, 1, b.MailboxLen(a))
	require.ErrorIs(t, b.SendBroadcastFrom(ping{}, nil), ErrInvalidMessage)
}

func TestBus_Broadcast_NoSubscribers(t *testing.T) {
	b := newTestBus(t)
	register(t, b, "a")
	require.NoError(t, b.SendBroadcast(ping{}))
}

func TestBus_Broadcast_SubscribeTwiceDeliversOnce(t *testing.T) {
	b := newTestBus(t)
	a := register(t, b, "a")[0]
	require.NoError(t, b.SubscribeBroadcast(pingType, a))
	require.NoError(t, b.SubscribeBroadcast(pingType, a))

	require.NoError(t, b.SendBroadcast(ping{}))
	require.Equal(t, 1, b.MailboxLen(a))
}

func TestBus_Broadcast_FanOut(t *testing.T) {
	b := newTestBus(t)
	refs := register(t, b, "a", "b", "c")
	for _, r := range refs {
		require.NoError(t, b.SubscribeBroadcast(pingType, r))
	}

	for i := range 3 {
		require.NoError(t, b.SendBroadcast(ping{N: i}))
	}
	for _, r := range refs {
		for i := range 3 {
			require.Equal(t, ping{N: i}, next(t, b, r))
		}
	}
}

func TestBus_Complete_DeliversToSender(t *testing.T) {
	b := newTestBus(t)
	refs := register(t, b, "s", "h")
	s, h := refs[0], refs[1]
	require.NoError(t, b.SubscribeRequest(askType, h))

	r := &ask{N: 1}
	ok, err := b.SendRequest(r, s)
	require.NoError(t, err)
	require.True(t, ok)

	got := next(t, b, h)
	require.Same(t, r, got)
	require.NoError(t, CompleteTyped(b, got.(*ask), 42))

	c, ok := next(t, b, s).(msg.Completion)
	require.True(t, ok)
	require.Same(t, r, c.Request)
	require.Equal(t, 42, c.Result)
	require.Equal(t, 0, b.PendingRequests())
	require.Equal(t, 0, b.MailboxLen(h))
}

func TestBus_Complete_Twice(t *testing.T) {
	b := newTestBus(t)
	refs := register(t, b, "s", "h")
	require.NoError(t, b.SubscribeRequest(askType, refs[1]))

	r := &ask{}
	_, err := b.SendRequest(r, refs[0])
	require.NoError(t, err)
	require.NoError(t, b.Complete(r, 1))

	err = b.Complete(r, 2)
	require.ErrorIs(t, err, ErrInvariantViolation)
	require.ErrorIs(t, err, ErrUnknownRequest)
	require.Equal(t, 1, b.MailboxLen(refs[0]))
}

func TestBus_Complete_NeverSent(t *testing.T) {
	b := newTestBus(t)
	err := b.Complete(&ask{}, 1)
	require.ErrorIs(t, err, ErrInvariantViolation)
	require.ErrorIs(t, err, ErrUnknownRequest)
}

func TestBus_Complete_SenderGone(t *testing.T) {
	b := newTestBus(t)
	refs := register(t, b, "s", "h")
	s, h := refs[0], refs[1]
	require.NoError(t, b.SubscribeRequest(askType, h))

	r := &ask{}
	_, err := b.SendRequest(r, s)
	require.NoError(t, err)
	b.Unregister(s)

	err = b.Complete(r, 1)
	require.ErrorIs(t, err, ErrInvariantViolation)
	require.ErrorIs(t, err, ErrSenderGone)
	require.Equal(t, 0, b.PendingRequests())
}

func TestBus_SendRequest_NoSubscriber(t *testing.T) {
	b := newTestBus(t)
	s := register(t, b, "s")[0]

	r := &ask{}
	ok, err := b.SendRequest(r, s)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, b.PendingRequests())

	err = b.Complete(r, 1)
	require.ErrorIs(t, err, ErrUnknownRequest)
}

func TestBus_SendRequest_Duplicate(t *testing.T) {
	b := newTestBus(t)
	refs := register(t, b, "s", "h")
	require.NoError(t, b.SubscribeRequest(askType, refs[1]))

	r := &ask{}
	_, err := b.SendRequest(r, refs[0])
	require.NoError(t, err)

	_, err = b.SendRequest(r, refs[0])
	require.ErrorIs(t, err, ErrInvariantViolation)
	require.ErrorIs(t, err, ErrDuplicateRequest)
	require.Equal(t, 1, b.MailboxLen(refs[1]))

	// once completed, the same instance may be sent again
	require.NoError(t, b.Complete(r, 0))
	ok, err := b.SendRequest(r, refs[0])
	require.NoError(t, err)
	require.True(t, ok)
}

func TestBus_Unregister_DropsQueuedRequests(t *testing.T) {
	b := newTestBus(t)
	refs := register(t, b, "s", "h")
	s, h := refs[0], refs[1]
	require.NoError(t, b.SubscribeRequest(askType, h))

	r1, r2 := &ask{N: 1}, &ask{N: 2}
	for _, r := range []*ask{r1, r2} {
		_, err := b.SendRequest(r, s)
		require.NoError(t, err)
	}
	require.Same(t, r1, next(t, b, h))

	b.Unregister(h)

	// r1 was taken and may still be completed, r2 died in the mailbox
	require.Equal(t, 1, b.PendingRequests())
	require.NoError(t, b.Complete(r1, 1))
	require.ErrorIs(t, b.Complete(r2, 2), ErrUnknownRequest)
}

func TestBus_Unregister_KeepsRotationFair(t *testing.T) {
	b := newTestBus(t)
	refs := register(t, b, "a", "b", "c", "d", "s")
	a, bb, c, d, s := refs[0], refs[1], refs[2], refs[3], refs[4]
	for _, r := range refs[:4] {
		require.NoError(t, b.SubscribeRequest(askType, r))
	}

	send := func() {
		t.Helper()
		ok, err := b.SendRequest(&ask{}, s)
		require.NoError(t, err)
		require.True(t, ok)
	}

	send() // a
	send() // b
	require.Equal(t, []*Ref{c, d, a, bb}, b.RequestSubscribers(askType))

	b.Unregister(c)
	require.Equal(t, []*Ref{d, a, bb}, b.RequestSubscribers(askType))

	b.Unregister(a)
	require.Equal(t, []*Ref{d, bb}, b.RequestSubscribers(askType))

	send() // d
	send() // b
	send() // d
	require.Equal(t, 2, b.MailboxLen(d))
	require.Equal(t, 2, b.MailboxLen(bb))
}

func TestBus_Unregister_EmptyThenRegain(t *testing.T) {
	b := newTestBus(t)
	refs := register(t, b, "a", "b", "s")
	require.NoError(t, b.SubscribeRequest(askType, refs[0]))
	_, err := b.SendRequest(&ask{}, refs[2])
	require.NoError(t, err)

	b.Unregister(refs[0])
	ok, err := b.SendRequest(&ask{}, refs[2])
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, b.SubscribeRequest(askType, refs[1]))
	ok, err = b.SendRequest(&ask{}, refs[2])
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, b.MailboxLen(refs[1]))
}

func TestBus_AwaitNext_UnregisterWakes(t *testing.T) {
	b := newTestBus(t)
	a := register(t, b, "a")[0]

	errc := make(chan error, 1)
	go func() {
		_, err := b.AwaitNext(t.Context(), a)
		errc <- err
	}()

	time.Sleep(10 * time.Millisecond)
	b.Unregister(a)

	select {
	case err := <-errc:
		require.ErrorIs(t, err, ErrNotRegistered)
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestBus_AwaitNext_ContextCancel(t *testing.T) {
	b := newTestBus(t)
	a := register(t, b, "a")[0]

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := b.AwaitNext(ctx, a)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, b.IsRegistered(a))
}

func TestBus_Concurrent(t *testing.T) {
	const (
		senders  = 8
		handlers = 4
		perSend  = 250
	)

	b := newTestBus(t)
	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	var hwg sync.WaitGroup
	counts := make([]int, handlers)
	for i := range handlers {
		h := NewRef("h")
		b.Register(h)
		require.NoError(t, b.SubscribeRequest(askType, h))
		hwg.Add(1)
		go func() {
			defer hwg.Done()
			for {
				m, err := b.AwaitNext(ctx, h)
				if err != nil {
					return
				}
				r := m.(*ask)
				counts[i]++
				if err := CompleteTyped(b, r, r.N*2); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}

	var swg sync.WaitGroup
	for range senders {
		s := NewRef("s")
		b.Register(s)
		swg.Add(1)
		go func() {
			defer swg.Done()
			for i := range perSend {
				r := &ask{N: i}
				ok, err := b.SendRequest(r, s)
				if err != nil || !ok {
					t.Errorf("send: ok=%v err=%v", ok, err)
					return
				}
				m, err := b.AwaitNext(ctx, s)
				if err != nil {
					t.Error(err)
					return
				}
				c := m.(msg.Completion)
				if c.Request != r || c.Result != i*2 {
					t.Errorf("mismatched completion for %d: %v", i, c.Result)
					return
				}
			}
		}()
	}

	swg.Wait()
	cancel()
	hwg.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}
	require.Equal(t, senders*perSend, total)
	require.Equal(t, 0, b.PendingRequests())
}
