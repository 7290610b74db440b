package ir

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/notelog/internal/codec"
)

// State is the lifecycle state of a single annotation.
type State uint8

const (
	StateIdle State = iota
	StateCreating
	StateSelected
	StateEditing
	StateMoving
	StateResizing
	StateCommitted
	StateDeleted
)

var stateNames = [...]string{
	StateIdle:      "idle",
	StateCreating:  "creating",
	StateSelected:  "selected",
	StateEditing:   "editing",
	StateMoving:    "moving",
	StateResizing:  "resizing",
	StateCommitted: "committed",
	StateDeleted:   "deleted",
}

// States lists every annotation state in declaration order.
func States() []State {
	return []State{
		StateIdle, StateCreating, StateSelected, StateEditing,
		StateMoving, StateResizing, StateCommitted, StateDeleted,
	}
}

// String returns the raw name used on the wire.
func (s State) String() string {
	if s.Valid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Valid reports whether s is one of the declared states.
func (s State) Valid() bool {
	return int(s) < len(stateNames)
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDeleted
}

// ParseState resolves a raw state name.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown state %q", codec.ErrInvalidValue, name)
}

// Tool is the active editing tool. It is ephemeral; only the value at save
// time is persisted, as the notebook's initial tool.
type Tool uint8

const (
	ToolIdle Tool = iota
	ToolSelection
	ToolPen
	ToolPencil
	ToolHighlighter
	ToolText
	ToolArrow
	ToolEraser
	ToolLasso
)

var toolNames = [...]string{
	ToolIdle:        "idle",
	ToolSelection:   "selection",
	ToolPen:         "pen",
	ToolPencil:      "pencil",
	ToolHighlighter: "highlighter",
	ToolText:        "text",
	ToolArrow:       "arrow",
	ToolEraser:      "eraser",
	ToolLasso:       "lasso",
}

// Tools lists every tool in declaration order.
func Tools() []Tool {
	return []Tool{
		ToolIdle, ToolSelection, ToolPen, ToolPencil, ToolHighlighter,
		ToolText, ToolArrow, ToolEraser, ToolLasso,
	}
}

// String returns the raw name used on the wire.
func (t Tool) String() string {
	if t.Valid() {
		return toolNames[t]
	}
	return fmt.Sprintf("Tool(%d)", uint8(t))
}

// Valid reports whether t is one of the declared tools.
func (t Tool) Valid() bool {
	return int(t) < len(toolNames)
}

// ParseTool resolves a raw tool name.
func ParseTool(name string) (Tool, error) {
	for i, n := range toolNames {
		if n == name {
			return Tool(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown tool %q", codec.ErrInvalidValue, name)
}

// ResizeAnchor names the handle being dragged during a resize.
// The opposite edge or corner stays fixed.
type ResizeAnchor uint8

const (
	AnchorTopLeft ResizeAnchor = iota
	AnchorTop
	AnchorTopRight
	AnchorLeft
	AnchorRight
	AnchorBottomLeft
	AnchorBottom
	AnchorBottomRight
)

var anchorNames = [...]string{
	AnchorTopLeft:     "topLeft",
	AnchorTop:         "top",
	AnchorTopRight:    "topRight",
	AnchorLeft:        "left",
	AnchorRight:       "right",
	AnchorBottomLeft:  "bottomLeft",
	AnchorBottom:      "bottom",
	AnchorBottomRight: "bottomRight",
}

// String returns the raw name used on the wire.
func (a ResizeAnchor) String() string {
	if a.Valid() {
		return anchorNames[a]
	}
	return fmt.Sprintf("ResizeAnchor(%d)", uint8(a))
}

// Valid reports whether a is one of the declared anchors.
func (a ResizeAnchor) Valid() bool {
	return int(a) < len(anchorNames)
}

// ParseResizeAnchor resolves a raw anchor name.
func ParseResizeAnchor(name string) (ResizeAnchor, error) {
	for i, n := range anchorNames {
		if n == name {
			return ResizeAnchor(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown resize anchor %q", codec.ErrInvalidValue, name)
}

// enumName is satisfied by every enum in this package.
type enumName interface {
	Valid() bool
	String() string
}

func writeEnum(e *codec.Encoder, field string, v enumName) {
	if !v.Valid() {
		e.Fail(field, fmt.Errorf("%w: %s", codec.ErrInvalidValue, v))
		return
	}
	e.String(field, v.String())
}

func readEnum[T any](d *codec.Decoder, field string, parse func(string) (T, error)) (T, error) {
	start := d.Offset()
	name, err := d.String(field)
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := parse(name)
	if err != nil {
		var zero T
		return zero, &codec.DecodeError{Field: field, Offset: start, Err: err}
	}
	return v, nil
}

func writeID(e *codec.Encoder, field string, id uuid.UUID) {
	e.String(field, id.String())
}

// readID decodes an identity and insists on the canonical hyphenated form so
// that a decoded file re-encodes to the same bytes.
func readID(d *codec.Decoder, field string) (uuid.UUID, error) {
	start := d.Offset()
	s, err := d.String(field)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, &codec.DecodeError{Field: field, Offset: start, Err: fmt.Errorf("%w: %v", codec.ErrInvalidValue, err)}
	}
	if id.String() != s {
		return uuid.Nil, &codec.DecodeError{Field: field, Offset: start, Err: fmt.Errorf("%w: non-canonical identity %q", codec.ErrInvalidValue, s)}
	}
	return id, nil
}
