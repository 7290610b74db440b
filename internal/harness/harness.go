package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/notelog/internal/engine"
	"github.com/roach88/notelog/internal/ir"
	"github.com/roach88/notelog/internal/testutil"
)

// DefaultEraserRadius is used by erase steps that give no radius.
const DefaultEraserRadius = 4.0

// errUnbound is reported when a step addresses a ref whose create failed.
var errUnbound = errors.New("ref is not bound to an annotation")

// Harness executes one scenario against one notebook.
//
// The identity generator and clock are shared across save_reload steps so
// identities stay unique and timestamps keep increasing after a reload.
type Harness struct {
	nb     *engine.Notebook
	opts   []engine.Option
	refs   map[string]uuid.UUID
	names  map[uuid.UUID]string
	order  []string
	logger *slog.Logger
	radius float64
}

// Option configures Run.
type Option func(*Harness)

// WithLogger sets the logger used by the harness and its notebook.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) { h.logger = logger }
}

// WithEraserRadius sets the radius of erase steps that give none.
func WithEraserRadius(radius float64) Option {
	return func(h *Harness) { h.radius = radius }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh notebook with sequential identities and a
// clock stepping one second per reading from testutil.Epoch.
//
// A non-nil error means the scenario could not be executed; step and
// assertion failures are reported in the Result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		refs:   make(map[string]uuid.UUID),
		names:  make(map[uuid.UUID]string),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		radius: DefaultEraserRadius,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.opts = []engine.Option{
		engine.WithIDGenerator(testutil.NewSequentialIDs()),
		engine.WithClock(testutil.NewStepClock(testutil.Epoch, time.Second)),
		engine.WithLogger(h.logger),
	}

	tool := ir.ToolIdle
	if scenario.Tool != "" {
		t, err := ir.ParseTool(scenario.Tool)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		tool = t
	}
	h.nb = engine.NewWithTool(tool, h.opts...)

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := h.execute(ctx, step)
		if msg := checkExpect(i, step, err); msg != "" {
			result.AddError(msg)
		}
		h.logger.Debug("step executed", "step", i, "op", step.Op, "ref", step.Ref, "error", err)
	}

	h.collect(result)
	for _, msg := range h.evaluate(scenario.Assertions, result) {
		result.AddError(msg)
	}
	return result, nil
}

// checkExpect compares a step's outcome with its expect clause and returns
// a failure message, or "" when they agree.
func checkExpect(i int, step Step, err error) string {
	want := step.Expect
	if want == "" {
		want = ExpectAccepted
	}
	switch {
	case want == ExpectAccepted && err != nil:
		return fmt.Sprintf("step %d (%s %s): expected accepted, got %v", i, step.Op, step.Ref, err)
	case want == ExpectRejected && err == nil:
		return fmt.Sprintf("step %d (%s %s): expected rejected, was accepted", i, step.Op, step.Ref)
	}
	return ""
}

func (h *Harness) execute(ctx context.Context, step Step) error {
	if step.Op == OpCreate {
		return h.create(ctx, step)
	}

	var id uuid.UUID
	if step.Ref != "" {
		bound, ok := h.refs[step.Ref]
		if !ok {
			return fmt.Errorf("%s %q: %w", step.Op, step.Ref, errUnbound)
		}
		id = bound
	}

	switch step.Op {
	case OpStroke:
		return h.nb.Dispatch(ctx, ir.UpdateStroke{ID: id, Point: ir.Point{X: step.X, Y: step.Y}})
	case OpFinish:
		return h.nb.Dispatch(ctx, ir.FinishCreate{ID: id})
	case OpSelect:
		return h.nb.Select(ctx, id)
	case OpDeselect:
		return h.nb.Dispatch(ctx, ir.Deselect{ID: id})
	case OpEdit:
		return h.nb.Dispatch(ctx, ir.BeginEditing{ID: id})
	case OpCommit:
		return h.nb.Dispatch(ctx, ir.CommitEdit{ID: id, Payload: ir.EditPayload{
			Content:    step.Content,
			Properties: step.Properties,
		}})
	case OpMoveBegin:
		return h.nb.Dispatch(ctx, ir.BeginMove{ID: id})
	case OpMove:
		return h.nb.Dispatch(ctx, ir.MoveDelta{ID: id, DX: step.DX, DY: step.DY})
	case OpMoveEnd:
		return h.nb.Dispatch(ctx, ir.EndMove{ID: id})
	case OpResizeBegin:
		return h.nb.Dispatch(ctx, ir.BeginResize{ID: id})
	case OpResize:
		anchor, err := ir.ParseResizeAnchor(step.Anchor)
		if err != nil {
			return err
		}
		return h.nb.Dispatch(ctx, ir.ResizeDelta{ID: id, Delta: ir.ResizePayload{
			Width:  step.Width,
			Height: step.Height,
			Anchor: anchor,
		}})
	case OpResizeEnd:
		return h.nb.Dispatch(ctx, ir.EndResize{ID: id})
	case OpDelete:
		return h.nb.Delete(ctx, id)
	case OpErase:
		return h.erase(ctx, step)
	case OpTool:
		tool, err := ir.ParseTool(step.Tool)
		if err != nil {
			return err
		}
		_, err = h.nb.SelectTool(tool)
		return err
	case OpSaveReload:
		return h.saveReload(ctx)
	}
	return fmt.Errorf("unknown op %q", step.Op)
}

func (h *Harness) create(ctx context.Context, step Step) error {
	payload := ir.CreatePayload{
		Type:           step.Type,
		InitialContent: step.Content,
		Properties:     step.Properties,
	}
	if step.Bounds != nil {
		payload.Bounds = step.Bounds.toIR()
	}
	id, err := h.nb.CreateAnnotation(ctx, payload)
	if err != nil {
		return err
	}
	h.refs[step.Ref] = id
	h.names[id] = step.Ref
	h.order = append(h.order, step.Ref)
	return nil
}

func (h *Harness) erase(ctx context.Context, step Step) error {
	radius := step.Radius
	if radius == 0 {
		radius = h.radius
	}
	at := ir.Point{X: step.X, Y: step.Y}
	if step.X2 != nil {
		_, err := h.nb.EraseAlong(ctx, at, ir.Point{X: *step.X2, Y: *step.Y2}, radius)
		return err
	}
	_, err := h.nb.EraseAt(ctx, at, radius)
	return err
}

// saveReload round-trips the notebook through its encoding. The reopened
// notebook must decode and replay cleanly.
func (h *Harness) saveReload(ctx context.Context) error {
	data, err := h.nb.Save()
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	nb, report := engine.Open(ctx, data, h.opts...)
	if report.Recovered {
		return fmt.Errorf("reload: %w", report.Err)
	}
	if !report.Replay.Clean() {
		return fmt.Errorf("reload: replay skipped %d and mismatched %d records",
			len(report.Replay.Skipped), len(report.Replay.Mismatched))
	}
	if divergent := report.Replay.Divergent(); len(divergent) > 0 {
		return fmt.Errorf("reload: %d annotations diverge from their last record", len(divergent))
	}
	h.nb = nb
	return nil
}

// collect fills the trace, final states and tool from the notebook.
func (h *Harness) collect(result *Result) {
	for i, t := range h.nb.Transitions() {
		result.Trace = append(result.Trace, TraceEvent{
			Seq:   i,
			Ref:   h.name(t.AnnotationID),
			From:  t.From.String(),
			To:    t.To.String(),
			Event: t.Event.Kind().String(),
		})
	}
	for _, ref := range h.order {
		result.Final[ref] = h.state(ref).String()
	}
	result.Refs = append(result.Refs, h.order...)
	result.Tool = h.nb.Tool().String()
}

func (h *Harness) name(id uuid.UUID) string {
	if ref, ok := h.names[id]; ok {
		return ref
	}
	return id.String()
}

// state returns the current state of ref; refs no longer tracked by the
// notebook were deleted.
func (h *Harness) state(ref string) ir.State {
	id, ok := h.refs[ref]
	if !ok {
		return ir.StateIdle
	}
	if _, live := h.nb.Annotation(id); !live {
		return ir.StateDeleted
	}
	return h.nb.CurrentState(id)
}
