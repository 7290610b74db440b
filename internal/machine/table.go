package machine

import (
	"github.com/looplab/fsm"

	"github.com/roach88/notelog/internal/ir"
)

// Rule is one row of the annotation transition table.
type Rule struct {
	Event ir.EventKind
	From  []ir.State
	To    ir.State
}

// SelfLoop reports whether the rule keeps the machine in its source state.
func (r Rule) SelfLoop() bool {
	return len(r.From) == 1 && r.From[0] == r.To
}

// nonTerminal lists the states from which delete is legal.
var nonTerminal = []ir.State{
	ir.StateIdle,
	ir.StateCreating,
	ir.StateSelected,
	ir.StateEditing,
	ir.StateMoving,
	ir.StateResizing,
	ir.StateCommitted,
}

var rules = []Rule{
	{Event: ir.KindCreateAnnotation, From: []ir.State{ir.StateIdle}, To: ir.StateCreating},
	{Event: ir.KindUpdateStroke, From: []ir.State{ir.StateCreating}, To: ir.StateCreating},
	{Event: ir.KindFinishCreate, From: []ir.State{ir.StateCreating}, To: ir.StateCommitted},
	{Event: ir.KindSelect, From: []ir.State{ir.StateCommitted, ir.StateIdle}, To: ir.StateSelected},
	{Event: ir.KindDeselect, From: []ir.State{ir.StateSelected}, To: ir.StateIdle},
	{Event: ir.KindBeginEditing, From: []ir.State{ir.StateSelected}, To: ir.StateEditing},
	{Event: ir.KindCommitEdit, From: []ir.State{ir.StateEditing}, To: ir.StateCommitted},
	{Event: ir.KindBeginMove, From: []ir.State{ir.StateSelected}, To: ir.StateMoving},
	{Event: ir.KindMoveDelta, From: []ir.State{ir.StateMoving}, To: ir.StateMoving},
	{Event: ir.KindEndMove, From: []ir.State{ir.StateMoving}, To: ir.StateSelected},
	{Event: ir.KindBeginResize, From: []ir.State{ir.StateSelected}, To: ir.StateResizing},
	{Event: ir.KindResizeDelta, From: []ir.State{ir.StateResizing}, To: ir.StateResizing},
	{Event: ir.KindEndResize, From: []ir.State{ir.StateResizing}, To: ir.StateSelected},
	{Event: ir.KindDelete, From: nonTerminal, To: ir.StateDeleted},
}

// Table returns a copy of the annotation transition table in declaration order.
func Table() []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		r.From = append([]ir.State(nil), r.From...)
		out[i] = r
	}
	return out
}

// Next returns the target state for kind from state, or false when the
// table has no such row.
func Next(from ir.State, kind ir.EventKind) (ir.State, bool) {
	for _, r := range rules {
		if r.Event != kind {
			continue
		}
		for _, s := range r.From {
			if s == from {
				return r.To, true
			}
		}
	}
	return 0, false
}

// events converts the table to looplab/fsm event descriptors. Every event
// kind has exactly one row, so the event name is the wire tag.
func events() fsm.Events {
	out := make(fsm.Events, 0, len(rules))
	for _, r := range rules {
		src := make([]string, len(r.From))
		for i, s := range r.From {
			src[i] = s.String()
		}
		out = append(out, fsm.EventDesc{Name: r.Event.String(), Src: src, Dst: r.To.String()})
	}
	return out
}
