package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/roach88/notelog/internal/ir"
	"github.com/roach88/notelog/internal/testutil"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testOptions() []Option {
	return []Option{
		WithIDGenerator(testutil.NewSequentialIDs()),
		WithClock(testutil.NewStepClock(testutil.Epoch, time.Second)),
		WithLogger(quiet),
	}
}

func newTestNotebook() *Notebook {
	return New(testOptions()...)
}

func newTestManager() *Manager {
	return NewManager(testOptions()...)
}

// committedPen creates a pen annotation with the given stroke points and
// finishes it.
func committedPen(t *testing.T, nb *Notebook, points ...ir.Point) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id, err := nb.CreateAnnotation(ctx, ir.CreatePayload{Type: "pen"})
	require.NoError(t, err)
	for _, p := range points {
		require.NoError(t, nb.Dispatch(ctx, ir.UpdateStroke{ID: id, Point: p}))
	}
	require.NoError(t, nb.Dispatch(ctx, ir.FinishCreate{ID: id}))
	return id
}

// committedText creates a text annotation with bounds and finishes it.
func committedText(t *testing.T, nb *Notebook, bounds ir.Rect) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id, err := nb.CreateAnnotation(ctx, ir.CreatePayload{Type: "text", Bounds: bounds, InitialContent: ir.StringRef("note")})
	require.NoError(t, err)
	require.NoError(t, nb.Dispatch(ctx, ir.FinishCreate{ID: id}))
	return id
}

func reopen(t *testing.T, nb *Notebook) (*Notebook, LoadReport) {
	t.Helper()
	data, err := nb.Save()
	require.NoError(t, err)
	out, report := Open(context.Background(), data, testOptions()...)
	require.False(t, report.Recovered, "reopen: %v", report.Err)
	return out, report
}
