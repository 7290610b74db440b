package testutil

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ID returns the deterministic identity with sequence number n:
// ID(1) is 00000000-0000-0000-0000-000000000001.
func ID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012x", n))
}

// SequentialIDs generates ID(1), ID(2), ... in order.
//
// The same scenario with a fresh SequentialIDs produces byte-identical
// notebooks, which is what golden comparisons rely on.
//
// Thread-safety: SequentialIDs is safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu sync.Mutex
	n  int
}

// NewSequentialIDs creates a generator whose first identity is ID(1).
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// NewID returns the next identity.
//
// Implements engine.IDGenerator.
func (g *SequentialIDs) NewID() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return ID(g.n)
}

// Count returns how many identities have been issued.
func (g *SequentialIDs) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}
