package engine

import (
	"sync"

	"github.com/google/uuid"
)

// IDGenerator mints annotation identities.
// Implemented by UUIDv7Generator (production), FixedGenerator and
// testutil.SequentialIDs (tests).
type IDGenerator interface {
	NewID() uuid.UUID
}

// UUIDv7Generator generates time-sortable UUIDv7 identities.
//
// UUIDv7 embeds a timestamp in the most significant bits, so identities in
// a notebook sort by creation time.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// NewID creates a new UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// FixedGenerator returns predetermined identities for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []uuid.UUID
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
//
// Example:
//
//	gen := NewFixedGenerator(a, b)
//	gen.NewID() // a
//	gen.NewID() // b
//	gen.NewID() // panic: all identities exhausted
func NewFixedGenerator(ids ...uuid.UUID) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// NewID returns the next predetermined identity.
//
// Panics if all identities have been consumed, to catch tests that create
// more annotations than they planned for.
func (g *FixedGenerator) NewID() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all identities exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
