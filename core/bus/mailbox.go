package bus

import (
	"context"
	"sync"
)

// mailbox is an unbounded FIFO with a single consumer. Producers never
// block; the consumer blocks in take until a message arrives, the mailbox is
// closed, or its context ends.
type mailbox struct {
	mu     sync.Mutex
	queue  []any
	head   int
	closed bool

	// signal has capacity 1: a pending token means "re-check the queue".
	signal chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{signal: make(chan struct{}, 1)}
}

// put appends m and wakes the consumer. Returns false if the mailbox is closed.
func (mb *mailbox) put(m any) bool {
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		return false
	}
	mb.queue = append(mb.queue, m)
	mb.mu.Unlock()

	select {
	case mb.signal <- struct{}{}:
	default:
	}
	return true
}

// poll removes and returns the head message without blocking.
func (mb *mailbox) poll() (m any, ok bool, closed bool) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return nil, false, true
	}
	if mb.head == len(mb.queue) {
		return nil, false, false
	}
	m = mb.queue[mb.head]
	mb.queue[mb.head] = nil
	mb.head++
	if mb.head == len(mb.queue) {
		mb.queue = mb.queue[:0]
		mb.head = 0
	} else if mb.head > 64 && mb.head*2 > len(mb.queue) {
		n := copy(mb.queue, mb.queue[mb.head:])
		clear(mb.queue[n:])
		mb.queue = mb.queue[:n]
		mb.head = 0
	}
	return m, true, false
}

// take blocks until a message is available. A done context wins over a
// non-empty queue.
func (mb *mailbox) take(ctx context.Context) (any, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, ok, closed := mb.poll()
		if closed {
			return nil, ErrNotRegistered
		}
		if ok {
			return m, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-mb.signal:
		}
	}
}

func (mb *mailbox) len() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.queue) - mb.head
}

// close marks the mailbox dead, wakes a blocked consumer and returns the
// messages that were never taken.
func (mb *mailbox) close() []any {
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		return nil
	}
	mb.closed = true
	rest := mb.queue[mb.head:]
	mb.queue, mb.head = nil, 0
	mb.mu.Unlock()

	select {
	case mb.signal <- struct{}{}:
	default:
	}
	return rest
}
