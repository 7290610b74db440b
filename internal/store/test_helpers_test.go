package store

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/roach88/notelog/internal/ir"
	"github.com/roach88/notelog/internal/testutil"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// pragmaValue reads one pragma from the store's connection.
func pragmaValue(t *testing.T, s *Store, name string) string {
	t.Helper()
	var value string
	require.NoError(t, s.db.QueryRow("PRAGMA "+name).Scan(&value))
	return value
}

// sampleNotebook returns a two-annotation notebook: a finished pen stroke
// followed by a text box that was selected and deleted.
func sampleNotebook(title string) ir.NotebookFile {
	pen, text := testutil.ID(1), testutil.ID(2)
	create := func(kind string) ir.CreateAnnotation {
		return ir.CreateAnnotation{Payload: ir.CreatePayload{Type: kind, Properties: map[string]string{"color": "#000"}}}
	}
	tr := func(id uuid.UUID, from, to ir.State, ev ir.Event, ts uint64) ir.Transition {
		payload, _ := ir.PayloadFor(ev)
		return ir.Transition{AnnotationID: id, From: from, To: to, Event: ev, Timestamp: ts, Payload: payload}
	}
	return ir.NotebookFile{
		Metadata: ir.Metadata{Title: title, CreatedAt: 100, UpdatedAt: 200},
		Transitions: []ir.Transition{
			tr(pen, ir.StateIdle, ir.StateCreating, create("pen"), 101),
			tr(pen, ir.StateCreating, ir.StateCreating, ir.UpdateStroke{ID: pen, Point: ir.Point{X: 1, Y: 2}}, 102),
			tr(pen, ir.StateCreating, ir.StateCommitted, ir.FinishCreate{ID: pen}, 103),
			tr(text, ir.StateIdle, ir.StateCreating, create("text"), 104),
			tr(text, ir.StateCreating, ir.StateCommitted, ir.FinishCreate{ID: text}, 105),
			tr(text, ir.StateCommitted, ir.StateSelected, ir.Select{ID: text}, 106),
			tr(text, ir.StateSelected, ir.StateDeleted, ir.Delete{ID: text}, 107),
		},
		InitialTool: ir.ToolPen,
	}
}
