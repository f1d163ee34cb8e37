// Package bus is the single-consumer command queue that carries every cross-goroutine
// state change into the frame loop.
package bus

import "sync"

// Sender is the producer side of the bus. It is safe for concurrent use.
type Sender interface {
	// Send enqueues a command without blocking.
	//
	// Returns:
	//   - bool: false if the bus is closed and the command was dropped
	Send(cmd Command) bool
}

// Bus is an unbounded multi-producer, single-consumer command queue.
type Bus interface {
	Sender
	// Drain dispatches every pending command in enqueue order, including commands sent by
	// handlers while draining. Only the frame goroutine may call it.
	//
	// Parameters:
	//   - h: the handler receiving each command
	//
	// Returns:
	//   - int: the number of commands dispatched
	Drain(h Handler) int
	// Len returns the number of pending commands.
	Len() int
	// Close stops accepting commands. Pending commands can still be drained.
	Close()
}

type bus struct {
	mu      sync.Mutex
	pending []Command
	spare   []Command
	closed  bool
}

var _ Bus = &bus{}

// NewBus creates an empty open bus.
func NewBus() Bus {
	return &bus{}
}

func (b *bus) Send(cmd Command) bool {
	if cmd == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.pending = append(b.pending, cmd)
	return true
}

func (b *bus) Drain(h Handler) int {
	n := 0
	for {
		b.mu.Lock()
		batch := b.pending
		b.pending = b.spare[:0]
		b.mu.Unlock()

		if len(batch) == 0 {
			b.mu.Lock()
			b.spare = batch[:0]
			b.mu.Unlock()
			return n
		}
		for i, cmd := range batch {
			cmd.dispatch(h)
			batch[i] = nil
			n++
		}
		b.mu.Lock()
		b.spare = batch[:0]
		b.mu.Unlock()
	}
}

func (b *bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}
