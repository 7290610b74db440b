package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/notelog/internal/ir"
	"github.com/roach88/notelog/internal/machine"
	"github.com/roach88/notelog/internal/metrics"
)

// Manager owns the live annotation machines and their render data.
//
// Thread-safety model:
//   - mutating methods take the write lock for their whole duration, so two
//     events never interleave, whatever identity they address
//   - read-only queries (CurrentState, Annotations, Annotation, Len) take the
//     read lock and may run concurrently with each other
//
// INVARIANTS:
//   - machines and render hold exactly the same keys
//   - order lists those keys in creation order
//   - at most one annotation is in the selected state
type Manager struct {
	mu       sync.RWMutex
	machines map[uuid.UUID]*machine.Annotation
	render   map[uuid.UUID]*RenderData
	order    []uuid.UUID

	ids     IDGenerator
	mopts   []machine.Option
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewManager creates an empty manager.
func NewManager(opts ...Option) *Manager {
	return newManager(newSettings(opts))
}

func newManager(s settings) *Manager {
	return &Manager{
		machines: make(map[uuid.UUID]*machine.Annotation),
		render:   make(map[uuid.UUID]*RenderData),
		ids:      s.ids,
		mopts:    s.machineOptions(),
		logger:   s.logger,
		metrics:  s.metrics,
	}
}

// CreateAnnotation mints an identity, drives a new machine through
// createAnnotation and starts tracking it.
//
// Type, content and property text is NFC normalized before it enters the
// payload. The returned transition must be appended to the notebook log.
func (m *Manager) CreateAnnotation(ctx context.Context, payload ir.CreatePayload) (uuid.UUID, ir.Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.ids.NewID()
	if _, exists := m.machines[id]; exists {
		return uuid.Nil, ir.Transition{}, fmt.Errorf("%w: %s", ErrDuplicateIdentity, id)
	}

	ev := ir.CreateAnnotation{Payload: payload.Normalized()}
	a := machine.NewAnnotation(id, m.mopts...)
	res, err := a.ProcessEvent(ctx, ev)
	if err != nil {
		m.reject(id, ev, err)
		return uuid.Nil, ir.Transition{}, err
	}

	rd := &RenderData{ID: id}
	rd.apply(ev)
	m.track(a, rd)
	m.accept(res)
	return id, res.Transition, nil
}

// Dispatch routes ev to the machine of the identity it addresses.
//
// Select and Delete events take the same path as the Select and Delete
// methods. CreateAnnotation events are refused with ErrUseCreate. A
// transition into deleted evicts the annotation.
func (m *Manager) Dispatch(ctx context.Context, ev ir.Event) ([]ir.Transition, error) {
	switch v := ev.(type) {
	case nil:
		return nil, ir.ErrNilEvent
	case ir.CreateAnnotation:
		return nil, ErrUseCreate
	case ir.Select:
		return m.Select(ctx, v.ID)
	case ir.Delete:
		return m.Delete(ctx, v.ID)
	case ir.CommitEdit:
		v.Payload = v.Payload.Normalized()
		ev = v
	}

	id, _ := ir.TargetOf(ev)

	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.machines[id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", ev.Kind(), id, ErrAnnotationNotFound)
	}
	res, err := a.ProcessEvent(ctx, ev)
	if err != nil {
		m.reject(id, ev, err)
		return nil, err
	}
	m.render[id].apply(ev)
	if res.To == ir.StateDeleted {
		m.evict(id)
	}
	m.accept(res)
	return []ir.Transition{res.Transition}, nil
}

// Select makes id the only selected annotation.
//
// The target is checked first: if it cannot be selected nothing changes.
// Otherwise every other selected annotation is deselected, then the target
// is selected. The returned transitions are in application order.
func (m *Manager) Select(ctx context.Context, id uuid.UUID) ([]ir.Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, ok := m.machines[id]
	if !ok {
		return nil, fmt.Errorf("select %s: %w", id, ErrAnnotationNotFound)
	}
	if !target.Can(ir.KindSelect) {
		err := &machine.InvalidTransitionError{State: target.State(), Event: ir.KindSelect}
		m.reject(id, ir.Select{ID: id}, err)
		return nil, err
	}

	var out []ir.Transition
	for _, other := range m.order {
		if other == id {
			continue
		}
		a := m.machines[other]
		if a.State() != ir.StateSelected {
			continue
		}
		res, err := a.ProcessEvent(ctx, ir.Deselect{ID: other})
		if err != nil {
			return out, fmt.Errorf("deselect %s: %w", other, err)
		}
		m.accept(res)
		out = append(out, res.Transition)
	}

	res, err := target.ProcessEvent(ctx, ir.Select{ID: id})
	if err != nil {
		m.reject(id, ir.Select{ID: id}, err)
		return out, err
	}
	m.accept(res)
	return append(out, res.Transition), nil
}

// Delete drives id to deleted and stops tracking it.
//
// The annotation is evicted even when its machine rejects the event, so a
// delete is never undone from the manager's point of view. The rejection is
// still returned.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) ([]ir.Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(ctx, id)
}

func (m *Manager) deleteLocked(ctx context.Context, id uuid.UUID) ([]ir.Transition, error) {
	a, ok := m.machines[id]
	if !ok {
		return nil, fmt.Errorf("delete %s: %w", id, ErrAnnotationNotFound)
	}
	ev := ir.Delete{ID: id}
	res, err := a.ProcessEvent(ctx, ev)
	m.evict(id)
	if err != nil {
		m.reject(id, ev, err)
		return nil, err
	}
	m.accept(res)
	return []ir.Transition{res.Transition}, nil
}

// CurrentState returns the state of id, or idle when id is not tracked.
func (m *Manager) CurrentState(id uuid.UUID) ir.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.machines[id]; ok {
		return a.State()
	}
	return ir.StateIdle
}

// Annotation returns a copy of the render data of id.
func (m *Manager) Annotation(id uuid.UUID) (RenderData, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rd, ok := m.render[id]
	if !ok {
		return RenderData{}, false
	}
	out := rd.clone()
	out.State = m.machines[id].State()
	return out, true
}

// Annotations returns copies of every live annotation in creation order.
func (m *Manager) Annotations() []RenderData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RenderData, 0, len(m.order))
	for _, id := range m.order {
		rd := m.render[id].clone()
		rd.State = m.machines[id].State()
		out = append(out, rd)
	}
	return out
}

// Selected returns the identities currently in the selected state.
func (m *Manager) Selected() []uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []uuid.UUID
	for _, id := range m.order {
		if m.machines[id].State() == ir.StateSelected {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of live annotations.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// reset drops every annotation. Caller must hold the write lock.
func (m *Manager) reset() {
	clear(m.machines)
	clear(m.render)
	m.order = nil
	m.metrics.SetLive(0)
}

func (m *Manager) track(a *machine.Annotation, rd *RenderData) {
	m.machines[a.ID()] = a
	m.render[a.ID()] = rd
	m.order = append(m.order, a.ID())
	m.metrics.SetLive(len(m.order))
}

func (m *Manager) evict(id uuid.UUID) {
	if _, ok := m.machines[id]; !ok {
		return
	}
	delete(m.machines, id)
	delete(m.render, id)
	for i, other := range m.order {
		if other == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.metrics.SetLive(len(m.order))
	m.logger.Debug("annotation evicted", "annotation_id", id.String())
}

func (m *Manager) accept(res machine.Result) {
	m.metrics.Accepted(res.Transition.Event.Kind().String())
}

func (m *Manager) reject(id uuid.UUID, ev ir.Event, err error) {
	m.metrics.Rejected(ev.Kind().String())
	m.logger.Debug("event rejected",
		"annotation_id", id.String(),
		"event", ev.Kind().String(),
		"error", err,
	)
}
