package auth

import (
	"context"
	"sync"
)

type command struct {
	name string
	// ctx is the caller context; nil for notifications.
	ctx   context.Context
	run   func(ctx context.Context)
	reply chan State
}

// mailbox is an unbounded FIFO queue. push never blocks.
type mailbox struct {
	mu     sync.Mutex
	items  []command
	notify chan struct{}
	closed bool
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

func (b *mailbox) push(c command) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}
	b.items = append(b.items, c)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
	return true
}

// pop blocks until a command is queued or ctx is done.
func (b *mailbox) pop(ctx context.Context) (command, bool) {
	for {
		if ctx.Err() != nil {
			return command{}, false
		}

		b.mu.Lock()
		if len(b.items) > 0 {
			c := b.items[0]
			b.items[0] = command{}
			b.items = b.items[1:]
			b.mu.Unlock()
			return c, true
		}
		b.mu.Unlock()

		select {
		case <-b.notify:
		case <-ctx.Done():
			return command{}, false
		}
	}
}

// close rejects further pushes and returns whatever was still queued.
func (b *mailbox) close() []command {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	rest := b.items
	b.items = nil
	return rest
}

func (b *mailbox) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
