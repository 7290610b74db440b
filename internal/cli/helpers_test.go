package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/notelog/internal/document"
	"github.com/roach88/notelog/internal/engine"
	"github.com/roach88/notelog/internal/ir"
	"github.com/roach88/notelog/internal/testutil"
)

// execute runs the root command with args and a config path that does not
// exist, so every run starts from the default configuration.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func testEngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithIDGenerator(testutil.NewSequentialIDs()),
		engine.WithClock(testutil.NewStepClock(testutil.Epoch, time.Second)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
}

// writeSampleNotebook saves a notebook holding one committed, selected pen
// stroke: four transition records.
func writeSampleNotebook(t *testing.T, dir, name string) string {
	t.Helper()
	ctx := context.Background()
	nb := engine.NewWithTool(ir.ToolPen, testEngineOptions()...)
	nb.SetTitle("Sketch")

	id, err := nb.CreateAnnotation(ctx, ir.CreatePayload{Type: "pen"})
	require.NoError(t, err)
	require.NoError(t, nb.Dispatch(ctx, ir.UpdateStroke{ID: id, Point: ir.Point{X: 1, Y: 2}}))
	require.NoError(t, nb.Dispatch(ctx, ir.FinishCreate{ID: id}))
	require.NoError(t, nb.Select(ctx, id))

	path := filepath.Join(dir, name)
	require.NoError(t, nb.SaveFile(path))
	return path
}

// writeDivergentNotebook saves a log whose second record claims a state the
// table never produces.
func writeDivergentNotebook(t *testing.T, dir string) string {
	t.Helper()
	id := testutil.ID(1)
	create := ir.CreateAnnotation{Payload: ir.CreatePayload{Type: "pen"}}
	payload, err := ir.PayloadFor(create)
	require.NoError(t, err)

	f := ir.NotebookFile{
		Metadata: ir.Metadata{Title: "Diverged", CreatedAt: 100, UpdatedAt: 100},
		Transitions: []ir.Transition{
			{AnnotationID: id, From: ir.StateIdle, To: ir.StateCreating, Event: create, Timestamp: 100, Payload: payload},
			{AnnotationID: id, From: ir.StateCreating, To: ir.StateSelected, Event: ir.FinishCreate{ID: id}, Timestamp: 101},
		},
		InitialTool: ir.ToolIdle,
	}
	data, err := document.Encode(f)
	require.NoError(t, err)

	path := filepath.Join(dir, "diverged.nlog")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// writeMismatchedNotebook saves a log whose create record claims the wrong
// source state while the final state still matches the last record.
func writeMismatchedNotebook(t *testing.T, dir string) string {
	t.Helper()
	id := testutil.ID(1)
	create := ir.CreateAnnotation{Payload: ir.CreatePayload{Type: "pen"}}
	payload, err := ir.PayloadFor(create)
	require.NoError(t, err)

	f := ir.NotebookFile{
		Metadata: ir.Metadata{Title: "Mismatched", CreatedAt: 100, UpdatedAt: 100},
		Transitions: []ir.Transition{
			{AnnotationID: id, From: ir.StateCommitted, To: ir.StateCreating, Event: create, Timestamp: 100, Payload: payload},
			{AnnotationID: id, From: ir.StateCreating, To: ir.StateCommitted, Event: ir.FinishCreate{ID: id}, Timestamp: 101},
		},
		InitialTool: ir.ToolIdle,
	}
	data, err := document.Encode(f)
	require.NoError(t, err)

	path := filepath.Join(dir, "mismatched.nlog")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeCorruptNotebook(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "corrupt.nlog")
	require.NoError(t, os.WriteFile(path, []byte{0xff}, 0o644))
	return path
}
