package testutil

import (
	"sync"
	"time"
)

// Epoch is the instant deterministic clocks start from by default
// (2024-01-01T00:00:00Z).
var Epoch = time.Unix(1_704_067_200, 0).UTC()

// StepClock is a deterministic wall clock for tests.
//
// Each call to Now returns the current instant and then advances it by the
// configured step, so consecutive transitions get distinct, predictable
// timestamps. A zero step makes it a fixed clock.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu    sync.Mutex
	start time.Time
	next  time.Time
	step  time.Duration
}

// NewStepClock creates a clock whose first Now() returns start.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	return &StepClock{start: start, next: start, step: step}
}

// NewFixedClock creates a clock that always returns t.
func NewFixedClock(t time.Time) *StepClock {
	return NewStepClock(t, 0)
}

// Now returns the current instant and advances the clock by one step.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	return now
}

// Peek returns the instant the next Now() call will return.
func (c *StepClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Reset rewinds the clock to its start instant.
//
// Used for test reuse. After Reset(), the next call to Now() returns start.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = c.start
}
