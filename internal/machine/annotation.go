package machine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/roach88/notelog/internal/ir"
)

// Clock supplies wall-clock time for transition timestamps.
// Implemented by SystemClock (production) and the testutil clocks (tests).
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Option configures an Annotation or Tool machine.
type Option func(*options)

type options struct {
	clock  Clock
	logger *slog.Logger
}

// WithClock sets the clock used to stamp transitions.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger used for debug transition logs.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: SystemClock{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Result is the outcome of an accepted event.
type Result struct {
	From       ir.State
	To         ir.State
	Transition ir.Transition
}

// Annotation is the lifecycle machine of one annotation.
//
// A new machine starts in idle. It is a strict total function over
// (state, event): pairs absent from Table are rejected, never ignored.
type Annotation struct {
	id     uuid.UUID
	fsm    *fsm.FSM
	clock  Clock
	logger *slog.Logger
}

// NewAnnotation creates a machine for id in the idle state.
func NewAnnotation(id uuid.UUID, opts ...Option) *Annotation {
	o := buildOptions(opts)
	a := &Annotation{
		id:     id,
		clock:  o.clock,
		logger: o.logger,
	}
	a.fsm = fsm.NewFSM(
		ir.StateIdle.String(),
		events(),
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				a.logger.Debug("annotation state entered",
					"annotation_id", a.id.String(),
					"event", e.Event,
					"from", e.Src,
					"to", e.Dst,
				)
			},
		},
	)
	return a
}

// ID returns the identity the machine was created for.
func (a *Annotation) ID() uuid.UUID {
	return a.id
}

// State returns the current state.
func (a *Annotation) State() ir.State {
	s, err := ir.ParseState(a.fsm.Current())
	if err != nil {
		// Unreachable: the fsm only holds names produced by the table.
		return ir.StateIdle
	}
	return s
}

// Can reports whether kind would be accepted from the current state.
// It has no side effects.
func (a *Annotation) Can(kind ir.EventKind) bool {
	return a.fsm.Can(kind.String())
}

// ProcessEvent applies ev and returns the resulting transition record.
//
// On rejection the state is unchanged and no record is produced. Exactly
// one state change happens per accepted call; self-loops count as accepted
// and still produce a record.
func (a *Annotation) ProcessEvent(ctx context.Context, ev ir.Event) (Result, error) {
	if ev == nil {
		return Result{}, ir.ErrNilEvent
	}
	if target, ok := ir.TargetOf(ev); ok && target != a.id {
		return Result{}, fmt.Errorf("%w: machine %s, event %s for %s", ErrIdentityMismatch, a.id, ev.Kind(), target)
	}

	from := a.State()
	if !a.Can(ev.Kind()) {
		return Result{}, &InvalidTransitionError{State: from, Event: ev.Kind()}
	}

	// Derive the payload first so an encoding failure cannot follow a state change.
	payload, err := ir.PayloadFor(ev)
	if err != nil {
		return Result{}, fmt.Errorf("derive %s payload: %w", ev.Kind(), err)
	}

	if err := a.fsm.Event(ctx, ev.Kind().String()); err != nil {
		var noTransition fsm.NoTransitionError
		var invalid fsm.InvalidEventError
		switch {
		case errors.As(err, &noTransition):
			// Self-loop: accepted, state unchanged.
		case errors.As(err, &invalid):
			return Result{}, &InvalidTransitionError{State: from, Event: ev.Kind()}
		default:
			return Result{}, fmt.Errorf("apply %s: %w", ev.Kind(), err)
		}
	}

	to := a.State()
	return Result{
		From: from,
		To:   to,
		Transition: ir.Transition{
			AnnotationID: a.id,
			From:         from,
			To:           to,
			Event:        ev,
			Timestamp:    epochSeconds(a.clock.Now()),
			Payload:      payload,
		},
	}, nil
}

func epochSeconds(t time.Time) uint64 {
	s := t.Unix()
	if s < 0 {
		return 0
	}
	return uint64(s)
}
