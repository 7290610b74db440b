package machine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/looplab/fsm"

	"github.com/roach88/notelog/internal/ir"
)

// Tool tracks the active editing tool.
//
// Every tool may follow every other tool; the only rejected input is a
// value outside the ir.Tool enum. Tool changes are not logged as
// transitions: only the current value is persisted, as initialTool.
type Tool struct {
	fsm    *fsm.FSM
	logger *slog.Logger
}

// NewTool creates a tool machine positioned at initial. An invalid initial
// value falls back to ir.ToolIdle.
func NewTool(initial ir.Tool, opts ...Option) *Tool {
	o := buildOptions(opts)
	if !initial.Valid() {
		initial = ir.ToolIdle
	}

	tools := ir.Tools()
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.String()
	}
	evs := make(fsm.Events, 0, len(tools))
	for _, t := range tools {
		evs = append(evs, fsm.EventDesc{Name: t.String(), Src: names, Dst: t.String()})
	}

	return &Tool{
		fsm:    fsm.NewFSM(initial.String(), evs, fsm.Callbacks{}),
		logger: o.logger,
	}
}

// Current returns the active tool.
func (t *Tool) Current() ir.Tool {
	tool, err := ir.ParseTool(t.fsm.Current())
	if err != nil {
		return ir.ToolIdle
	}
	return tool
}

// Select makes tool active and returns the tool it replaced.
func (t *Tool) Select(tool ir.Tool) (ir.Tool, error) {
	if !tool.Valid() {
		return t.Current(), fmt.Errorf("%w: %s", ErrInvalidTool, tool)
	}
	prev := t.Current()
	if err := t.fsm.Event(context.Background(), tool.String()); err != nil {
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			return prev, fmt.Errorf("select tool %s: %w", tool, err)
		}
	}
	if prev != tool {
		t.logger.Debug("tool selected", "from", prev.String(), "to", tool.String())
	}
	return prev, nil
}
