package ir

import (
	"github.com/google/uuid"

	"github.com/roach88/notelog/internal/codec"
)

// Transition records one accepted state change of one annotation.
//
// Transitions are the unit of persistence: a notebook stores an ordered
// sequence of them and nothing else about annotation history. A transition
// is created once per accepted event and never mutated afterwards.
type Transition struct {
	AnnotationID uuid.UUID
	From         State
	To           State
	Event        Event

	// Timestamp is the wall-clock time of acceptance in epoch seconds.
	Timestamp uint64

	// Payload is opaque derived data; nil means absent.
	Payload []byte
}

func writeTransition(e *codec.Encoder, t Transition) {
	writeID(e, "annotationID", t.AnnotationID)
	writeEnum(e, "fromState", t.From)
	writeEnum(e, "toState", t.To)
	writeEvent(e, t.Event)
	e.Uint64(t.Timestamp)
	e.Bool(t.Payload != nil)
	if t.Payload != nil {
		e.Blob(t.Payload)
	}
}

func readTransition(d *codec.Decoder, _ int) (Transition, error) {
	var t Transition
	var err error
	if t.AnnotationID, err = readID(d, "annotationID"); err != nil {
		return Transition{}, err
	}
	if t.From, err = readEnum(d, "fromState", ParseState); err != nil {
		return Transition{}, err
	}
	if t.To, err = readEnum(d, "toState", ParseState); err != nil {
		return Transition{}, err
	}
	if t.Event, err = readEvent(d); err != nil {
		return Transition{}, codec.Within("event", err)
	}
	if t.Timestamp, err = d.Uint64("timestamp"); err != nil {
		return Transition{}, err
	}
	hasPayload, err := d.Bool("hasPayload")
	if err != nil {
		return Transition{}, err
	}
	if hasPayload {
		if t.Payload, err = d.Blob("payload"); err != nil {
			return Transition{}, err
		}
	}
	return t, nil
}

// EncodeTransition returns the canonical encoding of a single transition.
func EncodeTransition(t Transition) ([]byte, error) {
	e := codec.NewEncoder()
	writeTransition(e, t)
	return e.Bytes()
}

// DecodeTransition decodes a single transition.
func DecodeTransition(b []byte) (Transition, error) {
	return readTransition(codec.NewDecoder(b), 0)
}
