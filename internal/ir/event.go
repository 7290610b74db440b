package ir

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/notelog/internal/codec"
)

// EventKind identifies one variant of the Event union.
type EventKind uint8

const (
	KindSelect EventKind = iota + 1
	KindDeselect
	KindBeginEditing
	KindCommitEdit
	KindBeginMove
	KindMoveDelta
	KindEndMove
	KindBeginResize
	KindResizeDelta
	KindEndResize
	KindDelete
	KindCreateAnnotation
	KindUpdateStroke
	KindFinishCreate
)

var kindNames = map[EventKind]string{
	KindSelect:           "select",
	KindDeselect:         "deselect",
	KindBeginEditing:     "beginEditing",
	KindCommitEdit:       "commitEdit",
	KindBeginMove:        "beginMove",
	KindMoveDelta:        "moveDelta",
	KindEndMove:          "endMove",
	KindBeginResize:      "beginResize",
	KindResizeDelta:      "resizeDelta",
	KindEndResize:        "endResize",
	KindDelete:           "delete",
	KindCreateAnnotation: "createAnnotation",
	KindUpdateStroke:     "updateStroke",
	KindFinishCreate:     "finishCreate",
}

// EventKinds lists every variant in declaration order.
func EventKinds() []EventKind {
	kinds := make([]EventKind, 0, len(kindNames))
	for k := KindSelect; k <= KindFinishCreate; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// String returns the variant tag used on the wire.
func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// ParseEventKind resolves a variant tag.
func ParseEventKind(tag string) (EventKind, error) {
	for k, name := range kindNames {
		if name == tag {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", codec.ErrInvalidTag, tag)
}

// ErrNilEvent is recorded when a nil Event reaches the encoder.
var ErrNilEvent = errors.New("nil event")

// Event is the closed union of annotation events.
// Only the variant types declared in this file implement it.
type Event interface {
	Kind() EventKind
	event() // Sealed
}

// Select makes an idle or committed annotation the current selection.
type Select struct{ ID uuid.UUID }

// Deselect returns a selected annotation to idle.
type Deselect struct{ ID uuid.UUID }

// BeginEditing opens a selected annotation for content editing.
type BeginEditing struct{ ID uuid.UUID }

// CommitEdit closes an editing session, applying its payload.
type CommitEdit struct {
	ID      uuid.UUID
	Payload EditPayload
}

// BeginMove starts dragging a selected annotation.
type BeginMove struct{ ID uuid.UUID }

// MoveDelta shifts a moving annotation by (DX, DY).
type MoveDelta struct {
	ID uuid.UUID
	DX float64
	DY float64
}

// EndMove finishes a drag.
type EndMove struct{ ID uuid.UUID }

// BeginResize starts resizing a selected annotation.
type BeginResize struct{ ID uuid.UUID }

// ResizeDelta applies one incremental resize step.
type ResizeDelta struct {
	ID    uuid.UUID
	Delta ResizePayload
}

// EndResize finishes a resize.
type EndResize struct{ ID uuid.UUID }

// Delete removes an annotation. Legal from every non-terminal state.
type Delete struct{ ID uuid.UUID }

// CreateAnnotation establishes a new annotation. It is the only variant that
// carries no identity: the machine receiving it supplies one.
type CreateAnnotation struct {
	Payload CreatePayload
}

// UpdateStroke appends a point to an annotation under creation.
type UpdateStroke struct {
	ID    uuid.UUID
	Point Point
}

// FinishCreate commits an annotation under creation.
type FinishCreate struct{ ID uuid.UUID }

func (Select) Kind() EventKind           { return KindSelect }
func (Deselect) Kind() EventKind         { return KindDeselect }
func (BeginEditing) Kind() EventKind     { return KindBeginEditing }
func (CommitEdit) Kind() EventKind       { return KindCommitEdit }
func (BeginMove) Kind() EventKind        { return KindBeginMove }
func (MoveDelta) Kind() EventKind        { return KindMoveDelta }
func (EndMove) Kind() EventKind          { return KindEndMove }
func (BeginResize) Kind() EventKind      { return KindBeginResize }
func (ResizeDelta) Kind() EventKind      { return KindResizeDelta }
func (EndResize) Kind() EventKind        { return KindEndResize }
func (Delete) Kind() EventKind           { return KindDelete }
func (CreateAnnotation) Kind() EventKind { return KindCreateAnnotation }
func (UpdateStroke) Kind() EventKind     { return KindUpdateStroke }
func (FinishCreate) Kind() EventKind     { return KindFinishCreate }

func (Select) event()           {}
func (Deselect) event()         {}
func (BeginEditing) event()     {}
func (CommitEdit) event()       {}
func (BeginMove) event()        {}
func (MoveDelta) event()        {}
func (EndMove) event()          {}
func (BeginResize) event()      {}
func (ResizeDelta) event()      {}
func (EndResize) event()        {}
func (Delete) event()           {}
func (CreateAnnotation) event() {}
func (UpdateStroke) event()     {}
func (FinishCreate) event()     {}

// TargetOf returns the identity an event addresses.
// ok is false for CreateAnnotation, which carries none.
func TargetOf(ev Event) (id uuid.UUID, ok bool) {
	switch v := ev.(type) {
	case Select:
		return v.ID, true
	case Deselect:
		return v.ID, true
	case BeginEditing:
		return v.ID, true
	case CommitEdit:
		return v.ID, true
	case BeginMove:
		return v.ID, true
	case MoveDelta:
		return v.ID, true
	case EndMove:
		return v.ID, true
	case BeginResize:
		return v.ID, true
	case ResizeDelta:
		return v.ID, true
	case EndResize:
		return v.ID, true
	case Delete:
		return v.ID, true
	case UpdateStroke:
		return v.ID, true
	case FinishCreate:
		return v.ID, true
	default:
		return uuid.Nil, false
	}
}

// NewTargeted builds the payload-free variant of kind addressed to id.
// It returns an error for kinds that need a payload.
func NewTargeted(kind EventKind, id uuid.UUID) (Event, error) {
	switch kind {
	case KindSelect:
		return Select{ID: id}, nil
	case KindDeselect:
		return Deselect{ID: id}, nil
	case KindBeginEditing:
		return BeginEditing{ID: id}, nil
	case KindBeginMove:
		return BeginMove{ID: id}, nil
	case KindEndMove:
		return EndMove{ID: id}, nil
	case KindBeginResize:
		return BeginResize{ID: id}, nil
	case KindEndResize:
		return EndResize{ID: id}, nil
	case KindDelete:
		return Delete{ID: id}, nil
	case KindFinishCreate:
		return FinishCreate{ID: id}, nil
	default:
		return nil, fmt.Errorf("event %s requires a payload", kind)
	}
}

// writeEvent writes the tag, then the identity (all variants but
// createAnnotation), then the variant fields in fixed order.
func writeEvent(e *codec.Encoder, ev Event) {
	if ev == nil {
		e.Fail("event", ErrNilEvent)
		return
	}
	e.String("event.tag", ev.Kind().String())
	if id, ok := TargetOf(ev); ok {
		writeID(e, "id", id)
	}
	switch v := ev.(type) {
	case CommitEdit:
		writeEditPayload(e, v.Payload)
	case MoveDelta:
		e.Float64(v.DX)
		e.Float64(v.DY)
	case ResizeDelta:
		writeResizePayload(e, v.Delta)
	case CreateAnnotation:
		writeCreatePayload(e, v.Payload)
	case UpdateStroke:
		writePoint(e, v.Point)
	case Select, Deselect, BeginEditing, BeginMove, EndMove,
		BeginResize, EndResize, Delete, FinishCreate:
		// identity only
	default:
		e.Fail("event", fmt.Errorf("%w: %T", codec.ErrInvalidTag, ev))
	}
}

func readEvent(d *codec.Decoder) (Event, error) {
	start := d.Offset()
	tag, err := d.String("tag")
	if err != nil {
		return nil, err
	}
	kind, err := ParseEventKind(tag)
	if err != nil {
		return nil, &codec.DecodeError{Field: "tag", Offset: start, Err: err}
	}

	if kind == KindCreateAnnotation {
		p, err := readCreatePayload(d)
		if err != nil {
			return nil, codec.Within(tag+".payload", err)
		}
		return CreateAnnotation{Payload: p}, nil
	}

	id, err := readID(d, tag+".id")
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindCommitEdit:
		p, err := readEditPayload(d)
		if err != nil {
			return nil, codec.Within(tag+".payload", err)
		}
		return CommitEdit{ID: id, Payload: p}, nil
	case KindMoveDelta:
		dx, err := d.Float64(tag + ".dx")
		if err != nil {
			return nil, err
		}
		dy, err := d.Float64(tag + ".dy")
		if err != nil {
			return nil, err
		}
		return MoveDelta{ID: id, DX: dx, DY: dy}, nil
	case KindResizeDelta:
		p, err := readResizePayload(d)
		if err != nil {
			return nil, codec.Within(tag+".delta", err)
		}
		return ResizeDelta{ID: id, Delta: p}, nil
	case KindUpdateStroke:
		p, err := readPoint(d, tag+".point")
		if err != nil {
			return nil, err
		}
		return UpdateStroke{ID: id, Point: p}, nil
	default:
		return NewTargeted(kind, id)
	}
}

// EncodeEvent returns the canonical encoding of a single event.
func EncodeEvent(ev Event) ([]byte, error) {
	e := codec.NewEncoder()
	writeEvent(e, ev)
	return e.Bytes()
}

// DecodeEvent decodes a single event.
func DecodeEvent(b []byte) (Event, error) {
	ev, err := readEvent(codec.NewDecoder(b))
	return ev, codec.Within("event", err)
}
