package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/notelog/internal/ir"
)

// EraseResult reports what an eraser pass touched.
type EraseResult struct {
	// Trimmed lists annotations that lost some, but not all, stroke points.
	Trimmed []uuid.UUID

	// Deleted lists annotations that lost every point and were deleted.
	Deleted []uuid.UUID

	// Transitions holds the delete transitions, in order.
	Transitions []ir.Transition
}

// Empty reports whether the pass touched nothing.
func (r EraseResult) Empty() bool {
	return len(r.Trimmed) == 0 && len(r.Deleted) == 0
}

// EraseAt removes stroke points within radius of p.
func (m *Manager) EraseAt(ctx context.Context, p ir.Point, radius float64) (EraseResult, error) {
	return m.erase(ctx, func(q ir.Point) bool {
		return q.Dist(p) <= radius
	})
}

// EraseAlong removes stroke points within radius of the segment a-b, the
// path an eraser covers between two pointer samples.
func (m *Manager) EraseAlong(ctx context.Context, a, b ir.Point, radius float64) (EraseResult, error) {
	return m.erase(ctx, func(q ir.Point) bool {
		return q.DistToSegment(a, b) <= radius
	})
}

// erase works on render data only. Annotations without stroke points are
// never touched. An annotation whose last point is removed is deleted
// through its machine; partial removal changes the cached geometry and
// produces no transition.
func (m *Manager) erase(ctx context.Context, hit func(ir.Point) bool) (EraseResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res EraseResult
	var errs []error
	for _, id := range append([]uuid.UUID(nil), m.order...) {
		rd := m.render[id]
		if len(rd.Points) == 0 {
			continue
		}
		kept := rd.Points[:0:0]
		for _, p := range rd.Points {
			if !hit(p) {
				kept = append(kept, p)
			}
		}
		switch {
		case len(kept) == len(rd.Points):
			continue
		case len(kept) > 0:
			rd.Points = kept
			rd.Bounds = ir.BoundingBox(kept)
			res.Trimmed = append(res.Trimmed, id)
		default:
			trs, err := m.deleteLocked(ctx, id)
			res.Deleted = append(res.Deleted, id)
			res.Transitions = append(res.Transitions, trs...)
			if err != nil {
				errs = append(errs, fmt.Errorf("erase %s: %w", id, err))
			}
		}
	}
	if !res.Empty() {
		m.logger.Debug("eraser pass",
			"trimmed", len(res.Trimmed),
			"deleted", len(res.Deleted),
		)
	}
	return res, errors.Join(errs...)
}
