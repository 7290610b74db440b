package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/notelog/internal/ir"
)

func TestEraseAt_TrimsPoints(t *testing.T) {
	ctx := context.Background()
	nb := newTestNotebook()
	id := committedPen(t, nb, ir.Point{X: 0, Y: 0}, ir.Point{X: 10, Y: 0}, ir.Point{X: 20, Y: 0})
	before := len(nb.Transitions())

	res, err := nb.EraseAt(ctx, ir.Point{X: 10, Y: 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []ir.Point{{X: 0, Y: 0}, {X: 20, Y: 0}}, mustAnnotation(t, nb, id).Points)
	assert.Equal(t, ir.Rect{X: 0, Y: 0, Width: 20, Height: 0}, mustAnnotation(t, nb, id).Bounds)
	assert.Len(t, res.Trimmed, 1)
	assert.Empty(t, res.Deleted)
	assert.Len(t, nb.Transitions(), before, "partial erasure is not logged")
}

func TestEraseAlong_DeletesWhenEmpty(t *testing.T) {
	ctx := context.Background()
	nb := newTestNotebook()
	gone := committedPen(t, nb, ir.Point{X: 1, Y: 1}, ir.Point{X: 5, Y: 1})
	kept := committedPen(t, nb, ir.Point{X: 1, Y: 50})
	text := committedText(t, nb, ir.Rect{X: 0, Y: 0, Width: 10, Height: 10})

	res, err := nb.EraseAlong(ctx, ir.Point{X: 0, Y: 0}, ir.Point{X: 10, Y: 0}, 1.5)
	require.NoError(t, err)

	assert.Equal(t, []ir.Point{{X: 1, Y: 50}}, mustAnnotation(t, nb, kept).Points)
	require.Len(t, res.Deleted, 1)
	assert.Equal(t, gone, res.Deleted[0])
	require.Len(t, res.Transitions, 1)
	assert.Equal(t, ir.StateDeleted, res.Transitions[0].To)

	_, ok := nb.Annotation(gone)
	assert.False(t, ok)
	assert.Equal(t, ir.StateCommitted, nb.CurrentState(text), "annotations without points are untouched")

	log := nb.Transitions()
	assert.Equal(t, res.Transitions[0], log[len(log)-1])
}

func TestErase_Miss(t *testing.T) {
	nb := newTestNotebook()
	committedPen(t, nb, ir.Point{X: 100, Y: 100})

	res, err := nb.EraseAt(context.Background(), ir.Point{}, 5)
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func mustAnnotation(t *testing.T, nb *Notebook, id uuid.UUID) RenderData {
	t.Helper()
	rd, ok := nb.Annotation(id)
	require.True(t, ok)
	return rd
}
