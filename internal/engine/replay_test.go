package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/notelog/internal/ir"
	"github.com/roach88/notelog/internal/machine"
	"github.com/roach88/notelog/internal/metrics"
	"github.com/roach88/notelog/internal/testutil"
)

func rec(id int, from, to ir.State, ev ir.Event) ir.Transition {
	payload, _ := ir.PayloadFor(ev)
	return ir.Transition{AnnotationID: testutil.ID(id), From: from, To: to, Event: ev, Payload: payload}
}

func create(kind string) ir.CreateAnnotation {
	return ir.CreateAnnotation{Payload: ir.CreatePayload{Type: kind}}
}

func TestReplay_InterleavedGroups(t *testing.T) {
	log := []ir.Transition{
		rec(1, ir.StateIdle, ir.StateCreating, create("pen")),
		rec(2, ir.StateIdle, ir.StateCreating, create("text")),
		rec(1, ir.StateCreating, ir.StateCreating, ir.UpdateStroke{ID: testutil.ID(1), Point: ir.Point{X: 2, Y: 3}}),
		rec(2, ir.StateCreating, ir.StateCommitted, ir.FinishCreate{ID: testutil.ID(2)}),
		rec(1, ir.StateCreating, ir.StateCommitted, ir.FinishCreate{ID: testutil.ID(1)}),
	}

	m := newTestManager()
	report := m.Replay(context.Background(), log)

	assert.True(t, report.Clean())
	assert.Equal(t, 5, report.Applied)
	require.Equal(t, 2, m.Len())

	anns := m.Annotations()
	assert.Equal(t, testutil.ID(1), anns[0].ID)
	assert.Equal(t, "pen", anns[0].Type)
	assert.Equal(t, []ir.Point{{X: 2, Y: 3}}, anns[0].Points)
	assert.Equal(t, testutil.ID(2), anns[1].ID)
	assert.Equal(t, ir.StateCommitted, anns[1].State)
}

func TestReplay_SkipsBadRecords(t *testing.T) {
	badPayload := rec(3, ir.StateIdle, ir.StateCreating, create("pen"))
	badPayload.Payload = []byte{0xff}

	log := []ir.Transition{
		rec(1, ir.StateIdle, ir.StateCreating, create("pen")),
		// machine is creating: select is rejected
		rec(1, ir.StateCreating, ir.StateSelected, ir.Select{ID: testutil.ID(1)}),
		// event addresses another identity
		rec(1, ir.StateCreating, ir.StateCommitted, ir.FinishCreate{ID: testutil.ID(2)}),
		rec(1, ir.StateCreating, ir.StateCommitted, ir.FinishCreate{ID: testutil.ID(1)}),
		badPayload,
		{AnnotationID: testutil.ID(4), From: ir.StateIdle, To: ir.StateCreating},
	}

	collector := metrics.NewCollector()
	m := NewManager(append(testOptions(), WithMetrics(collector))...)
	report := m.Replay(context.Background(), log)

	require.Len(t, report.Skipped, 4)
	assert.Equal(t, []int{1, 2, 4, 5}, []int{
		report.Skipped[0].Index, report.Skipped[1].Index,
		report.Skipped[2].Index, report.Skipped[3].Index,
	})
	assert.True(t, machine.IsInvalidTransition(report.Skipped[0].Err))
	assert.ErrorIs(t, report.Skipped[1].Err, machine.ErrIdentityMismatch)
	assert.Error(t, report.Skipped[2].Err)
	assert.ErrorIs(t, report.Skipped[3].Err, ir.ErrNilEvent)

	assert.Equal(t, 2, report.Applied)
	assert.Equal(t, ir.StateCommitted, m.CurrentState(testutil.ID(1)))
	assert.Equal(t, 1, m.Len(), "groups with nothing applied are dropped")
	expected := `
# HELP notelog_replay_skipped_total Transition records skipped while replaying a stored log.
# TYPE notelog_replay_skipped_total counter
notelog_replay_skipped_total 4
`
	assert.NoError(t, promtest.GatherAndCompare(collector.Registry(), strings.NewReader(expected), "notelog_replay_skipped_total"))
}

func TestReplay_StateMismatchIsAppliedAndReported(t *testing.T) {
	log := []ir.Transition{
		rec(1, ir.StateIdle, ir.StateCreating, create("pen")),
		// stored To disagrees with the table
		rec(1, ir.StateCreating, ir.StateSelected, ir.FinishCreate{ID: testutil.ID(1)}),
	}

	m := newTestManager()
	report := m.Replay(context.Background(), log)

	assert.Empty(t, report.Skipped)
	require.Len(t, report.Mismatched, 1)
	assert.Equal(t, [2]ir.State{ir.StateCreating, ir.StateSelected}, report.Mismatched[0].Stored)
	assert.Equal(t, [2]ir.State{ir.StateCreating, ir.StateCommitted}, report.Mismatched[0].Rebuilt)
	assert.Equal(t, ir.StateCommitted, m.CurrentState(testutil.ID(1)))
	assert.Equal(t, []uuid.UUID{testutil.ID(1)}, report.Divergent())
	assert.False(t, report.Clean())
}

func TestReplay_DeletedNotTracked(t *testing.T) {
	log := []ir.Transition{
		rec(1, ir.StateIdle, ir.StateCreating, create("pen")),
		rec(1, ir.StateCreating, ir.StateDeleted, ir.Delete{ID: testutil.ID(1)}),
		// after delete nothing applies
		rec(1, ir.StateDeleted, ir.StateSelected, ir.Select{ID: testutil.ID(1)}),
	}

	m := newTestManager()
	report := m.Replay(context.Background(), log)

	assert.Zero(t, m.Len())
	assert.Equal(t, ir.StateDeleted, report.Final[testutil.ID(1)])
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, 2, report.Skipped[0].Index)
}

func TestReplay_ResetsLiveState(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	_, _, err := m.CreateAnnotation(ctx, ir.CreatePayload{Type: "pen"})
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())

	m.Replay(ctx, nil)
	assert.Zero(t, m.Len())
}

func TestReplay_KeepsOnlyLatestSelection(t *testing.T) {
	a, b := testutil.ID(1), testutil.ID(2)
	// The deselect record for b is missing, so both rebuild as selected.
	log := []ir.Transition{
		rec(1, ir.StateIdle, ir.StateCreating, create("pen")),
		rec(1, ir.StateCreating, ir.StateCommitted, ir.FinishCreate{ID: a}),
		rec(2, ir.StateIdle, ir.StateCreating, create("pen")),
		rec(2, ir.StateCreating, ir.StateCommitted, ir.FinishCreate{ID: b}),
		rec(2, ir.StateCommitted, ir.StateSelected, ir.Select{ID: b}),
		rec(1, ir.StateCommitted, ir.StateSelected, ir.Select{ID: a}),
	}

	m := newTestManager()
	report := m.Replay(context.Background(), log)

	assert.Empty(t, report.Skipped)
	assert.Empty(t, report.Mismatched)
	assert.Equal(t, []uuid.UUID{a}, m.Selected(), "the later select record wins")
	assert.Equal(t, ir.StateIdle, m.CurrentState(b))
	assert.Equal(t, []uuid.UUID{b}, report.Deselected)
	assert.Equal(t, ir.StateIdle, report.Final[b])
	assert.Equal(t, []uuid.UUID{b}, report.Divergent())
	assert.False(t, report.Clean())
}

func TestOpen_RepairsDoubleSelection(t *testing.T) {
	ctx := context.Background()
	nb := newTestNotebook()
	a := committedPen(t, nb, ir.Point{X: 1, Y: 1})
	b := committedPen(t, nb, ir.Point{X: 5, Y: 5})
	require.NoError(t, nb.Select(ctx, a))
	require.NoError(t, nb.Select(ctx, b))

	f := nb.Snapshot()
	kept := f.Transitions[:0]
	for _, tr := range f.Transitions {
		if _, ok := tr.Event.(ir.Deselect); ok {
			continue
		}
		kept = append(kept, tr)
	}
	f.Transitions = kept
	data, err := ir.EncodeFile(f)
	require.NoError(t, err)

	opened, report := Open(ctx, data, testOptions()...)
	require.False(t, report.Recovered)
	assert.Equal(t, []uuid.UUID{b}, opened.Selected())
	assert.Equal(t, []uuid.UUID{a}, report.Replay.Deselected)
	assert.False(t, report.Replay.Clean())
}
