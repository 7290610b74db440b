package engine

import (
	"context"
	"fmt"
	"log/slog"
)

// Session serializes access to a Notebook through a single goroutine.
//
// Thread-safety model:
//   - Do(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//
// Commands execute in FIFO order, one at a time, so two events never
// interleave even when they arrive from different goroutines.
type Session struct {
	nb     *Notebook
	queue  *commandQueue
	logger *slog.Logger
}

// NewSession wraps nb. Nothing runs until Run is called.
func NewSession(nb *Notebook) *Session {
	return &Session{nb: nb, queue: newCommandQueue(), logger: nb.logger}
}

// Notebook returns the wrapped notebook. Read-only queries may go to it
// directly; mutations should go through Do.
func (s *Session) Notebook() *Notebook {
	return s.nb
}

// Do submits fn and waits for its result.
//
// If ctx ends before fn runs, Do returns ctx.Err() and fn is skipped. Once
// fn has started it runs to completion: events are atomic.
func (s *Session) Do(ctx context.Context, fn func(context.Context, *Notebook) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c := command{ctx: ctx, fn: fn, result: make(chan error, 1)}
	if !s.queue.Enqueue(c) {
		return ErrSessionClosed
	}
	select {
	case err := <-c.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes commands until ctx is cancelled or Close is called.
//
// Returns ctx.Err() on cancellation and nil after Close. Commands still
// queued when the loop stops fail with ErrSessionClosed.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("session starting")

	for {
		c, ok := s.queue.TryDequeue()
		if ok {
			s.execute(c)
			continue
		}

		select {
		case <-ctx.Done():
			s.logger.Info("session stopping: context cancelled")
			s.failPending(s.queue.Close())
			return ctx.Err()

		case _, open := <-s.queue.Wait():
			if !open && s.queue.Len() == 0 {
				s.logger.Info("session stopping: closed")
				return nil
			}
		}
	}
}

// Close stops accepting commands. Run returns once it observes the close.
func (s *Session) Close() {
	s.failPending(s.queue.Close())
}

func (s *Session) execute(c command) {
	if err := c.ctx.Err(); err != nil {
		c.result <- err
		return
	}
	c.result <- s.call(c)
}

// call runs a command, turning a panic into an error so one bad command
// cannot stop the loop.
func (s *Session) call(c command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("session command panicked", "panic", r)
			err = fmt.Errorf("session command panicked: %v", r)
		}
	}()
	return c.fn(c.ctx, s.nb)
}

func (s *Session) failPending(pending []command) {
	for _, c := range pending {
		c.result <- ErrSessionClosed
	}
}
