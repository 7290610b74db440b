package engine

import (
	"context"
	"sync"
)

// command is one unit of work submitted to a Session.
type command struct {
	ctx    context.Context
	fn     func(context.Context, *Notebook) error
	result chan error // buffered, size 1
}

// commandQueue is a thread-safe FIFO queue of commands.
//
// The queue is unbounded so Do never blocks on a slow Run loop; callers
// block on their own result channel instead.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type commandQueue struct {
	mu       sync.Mutex
	commands []command
	closed   bool
	signal   chan struct{} // Signals command availability (buffered, size 1)
}

func newCommandQueue() *commandQueue {
	return &commandQueue{
		commands: make([]command, 0, 16),
		signal:   make(chan struct{}, 1),
	}
}

// Enqueue adds a command to the back of the queue.
// Returns false if the queue is closed.
func (q *commandQueue) Enqueue(c command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.commands = append(q.commands, c)

	// Non-blocking: a buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
func (q *commandQueue) TryDequeue() (command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.commands) == 0 {
		return command{}, false
	}

	c := q.commands[0]

	// Nil out the slot so the closure and its captures can be collected.
	q.commands[0] = command{}

	if len(q.commands) == 1 {
		q.commands = q.commands[:0]
	} else {
		q.commands = q.commands[1:]
	}

	return c, true
}

// Wait returns a channel that signals when commands may be available.
// It is closed when the queue is closed.
func (q *commandQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *commandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.commands)
}

// Close stops accepting commands and wakes any waiter.
// Commands still queued are returned so the caller can fail them.
func (q *commandQueue) Close() []command {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.signal)
	pending := q.commands
	q.commands = nil
	return pending
}
