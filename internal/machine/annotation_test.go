package machine

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/notelog/internal/ir"
	"github.com/roach88/notelog/internal/testutil"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestAnnotation(id uuid.UUID) *Annotation {
	return NewAnnotation(id,
		WithClock(testutil.NewStepClock(testutil.Epoch, time.Second)),
		WithLogger(quiet),
	)
}

// sampleEvent builds an event of kind addressed to id.
func sampleEvent(kind ir.EventKind, id uuid.UUID) ir.Event {
	switch kind {
	case ir.KindCreateAnnotation:
		return ir.CreateAnnotation{Payload: ir.CreatePayload{Type: "pen"}}
	case ir.KindCommitEdit:
		return ir.CommitEdit{ID: id, Payload: ir.EditPayload{Content: ir.StringRef("x")}}
	case ir.KindMoveDelta:
		return ir.MoveDelta{ID: id, DX: 1, DY: 1}
	case ir.KindResizeDelta:
		return ir.ResizeDelta{ID: id, Delta: ir.ResizePayload{Width: 1, Height: 1, Anchor: ir.AnchorBottomRight}}
	case ir.KindUpdateStroke:
		return ir.UpdateStroke{ID: id, Point: ir.Point{X: 1, Y: 1}}
	default:
		ev, err := ir.NewTargeted(kind, id)
		if err != nil {
			panic(err)
		}
		return ev
	}
}

// pathTo lists the events that drive a fresh machine into state.
var pathTo = map[ir.State][]ir.EventKind{
	ir.StateIdle:      nil,
	ir.StateCreating:  {ir.KindCreateAnnotation},
	ir.StateCommitted: {ir.KindCreateAnnotation, ir.KindFinishCreate},
	ir.StateSelected:  {ir.KindCreateAnnotation, ir.KindFinishCreate, ir.KindSelect},
	ir.StateEditing:   {ir.KindCreateAnnotation, ir.KindFinishCreate, ir.KindSelect, ir.KindBeginEditing},
	ir.StateMoving:    {ir.KindCreateAnnotation, ir.KindFinishCreate, ir.KindSelect, ir.KindBeginMove},
	ir.StateResizing:  {ir.KindCreateAnnotation, ir.KindFinishCreate, ir.KindSelect, ir.KindBeginResize},
	ir.StateDeleted:   {ir.KindDelete},
}

func machineIn(t *testing.T, state ir.State) *Annotation {
	t.Helper()
	id := testutil.ID(1)
	a := newTestAnnotation(id)
	for _, k := range pathTo[state] {
		_, err := a.ProcessEvent(context.Background(), sampleEvent(k, id))
		require.NoError(t, err, "driving to %s via %s", state, k)
	}
	require.Equal(t, state, a.State())
	return a
}

func TestAnnotation_StartsIdle(t *testing.T) {
	a := newTestAnnotation(testutil.ID(1))
	assert.Equal(t, ir.StateIdle, a.State())
	assert.Equal(t, testutil.ID(1), a.ID())
}

func TestAnnotation_Totality(t *testing.T) {
	require.Len(t, pathTo, len(ir.States()))

	for _, state := range ir.States() {
		for _, kind := range ir.EventKinds() {
			t.Run(state.String()+"/"+kind.String(), func(t *testing.T) {
				a := machineIn(t, state)
				want, legal := Next(state, kind)

				assert.Equal(t, legal, a.Can(kind))
				res, err := a.ProcessEvent(context.Background(), sampleEvent(kind, a.ID()))

				if !legal {
					var ite *InvalidTransitionError
					require.ErrorAs(t, err, &ite)
					assert.Equal(t, state, ite.State)
					assert.Equal(t, kind, ite.Event)
					assert.Equal(t, Result{}, res)
					assert.Equal(t, state, a.State(), "rejection must not change state")
					return
				}

				require.NoError(t, err)
				assert.Equal(t, state, res.From)
				assert.Equal(t, want, res.To)
				assert.Equal(t, want, a.State())
				assert.Equal(t, res.From, res.Transition.From)
				assert.Equal(t, res.To, res.Transition.To)
				assert.Equal(t, a.ID(), res.Transition.AnnotationID)
				assert.Equal(t, kind, res.Transition.Event.Kind())
			})
		}
	}
}

func TestAnnotation_DeletedIsTerminal(t *testing.T) {
	a := machineIn(t, ir.StateDeleted)
	for _, kind := range ir.EventKinds() {
		assert.False(t, a.Can(kind), kind.String())
		_, err := a.ProcessEvent(context.Background(), sampleEvent(kind, a.ID()))
		assert.True(t, IsInvalidTransition(err), kind.String())
		assert.Equal(t, ir.StateDeleted, a.State())
	}
}

func TestAnnotation_DeleteFromEveryNonTerminalState(t *testing.T) {
	for _, state := range ir.States() {
		if state.Terminal() {
			continue
		}
		t.Run(state.String(), func(t *testing.T) {
			a := machineIn(t, state)
			res, err := a.ProcessEvent(context.Background(), ir.Delete{ID: a.ID()})
			require.NoError(t, err)
			assert.Equal(t, ir.StateDeleted, res.To)
		})
	}
}

func TestAnnotation_SelfLoopsEmitRecords(t *testing.T) {
	ctx := context.Background()
	id := testutil.ID(1)
	a := newTestAnnotation(id)

	_, err := a.ProcessEvent(ctx, sampleEvent(ir.KindCreateAnnotation, id))
	require.NoError(t, err)

	for i := range 3 {
		res, err := a.ProcessEvent(ctx, ir.UpdateStroke{ID: id, Point: ir.Point{X: float64(i)}})
		require.NoError(t, err)
		assert.Equal(t, ir.StateCreating, res.From)
		assert.Equal(t, ir.StateCreating, res.To)
		assert.Nil(t, res.Transition.Payload)
	}
}

func TestAnnotation_TransitionPayloadAndTimestamp(t *testing.T) {
	ctx := context.Background()
	id := testutil.ID(7)
	a := newTestAnnotation(id)

	create := ir.CreateAnnotation{Payload: ir.CreatePayload{Type: "text", InitialContent: ir.StringRef("hi")}}
	res, err := a.ProcessEvent(ctx, create)
	require.NoError(t, err)

	want, err := ir.EncodeCreatePayload(create.Payload)
	require.NoError(t, err)
	assert.Equal(t, want, res.Transition.Payload)
	assert.Equal(t, uint64(testutil.Epoch.Unix()), res.Transition.Timestamp)

	res, err = a.ProcessEvent(ctx, ir.FinishCreate{ID: id})
	require.NoError(t, err)
	assert.Nil(t, res.Transition.Payload)
	assert.Equal(t, uint64(testutil.Epoch.Unix())+1, res.Transition.Timestamp)
}

func TestAnnotation_IdentityMismatch(t *testing.T) {
	a := machineIn(t, ir.StateCommitted)

	_, err := a.ProcessEvent(context.Background(), ir.Select{ID: testutil.ID(2)})
	assert.ErrorIs(t, err, ErrIdentityMismatch)
	assert.Equal(t, ir.StateCommitted, a.State())
}

func TestAnnotation_NilEvent(t *testing.T) {
	a := newTestAnnotation(testutil.ID(1))
	_, err := a.ProcessEvent(context.Background(), nil)
	assert.ErrorIs(t, err, ir.ErrNilEvent)
}

func TestTable_OneRowPerEventKind(t *testing.T) {
	seen := make(map[ir.EventKind]bool)
	for _, r := range Table() {
		assert.False(t, seen[r.Event], "duplicate row for %s", r.Event)
		seen[r.Event] = true
		for _, s := range r.From {
			assert.False(t, s.Terminal(), "%s leaves a terminal state", r.Event)
		}
	}
	assert.Len(t, seen, len(ir.EventKinds()))
}

func TestTable_SelfLoops(t *testing.T) {
	var loops []ir.EventKind
	for _, r := range Table() {
		if r.SelfLoop() {
			loops = append(loops, r.Event)
		}
	}
	assert.ElementsMatch(t, []ir.EventKind{ir.KindUpdateStroke, ir.KindMoveDelta, ir.KindResizeDelta}, loops)
}

func TestTable_ReturnsCopy(t *testing.T) {
	table := Table()
	table[0].From[0] = ir.StateDeleted

	to, ok := Next(ir.StateIdle, ir.KindCreateAnnotation)
	require.True(t, ok)
	assert.Equal(t, ir.StateCreating, to)
}
