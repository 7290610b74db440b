package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/notelog/internal/ir"
	"github.com/roach88/notelog/internal/machine"
)

// SkippedRecord describes one transition record replay could not apply.
type SkippedRecord struct {
	// Index is the record's position in the replayed log.
	Index        int
	AnnotationID uuid.UUID
	Event        ir.EventKind
	Err          error
}

// StateMismatch describes a record whose stored states disagree with what
// the rebuilt machine produced. The record is still applied.
type StateMismatch struct {
	Index        int
	AnnotationID uuid.UUID
	Stored       [2]ir.State
	Rebuilt      [2]ir.State
}

// ReplayReport summarizes a replay pass.
type ReplayReport struct {
	Applied    int
	Skipped    []SkippedRecord
	Mismatched []StateMismatch

	// Final maps every identity seen in the log to the state its rebuilt
	// machine ended in, including deleted ones.
	Final map[uuid.UUID]ir.State

	// LastRecorded maps every identity to the To state of its last record.
	LastRecorded map[uuid.UUID]ir.State

	// Deselected lists annotations that rebuilt as selected but lost to a
	// later selection and were deselected after the pass.
	Deselected []uuid.UUID
}

// Clean reports whether every record applied and matched its stored states
// and the rebuilt log needed no selection repair.
func (r ReplayReport) Clean() bool {
	return len(r.Skipped) == 0 && len(r.Mismatched) == 0 && len(r.Deselected) == 0
}

// Divergent lists identities whose rebuilt final state differs from the To
// state of their last record.
func (r ReplayReport) Divergent() []uuid.UUID {
	var out []uuid.UUID
	for id, last := range r.LastRecorded {
		if r.Final[id] != last {
			out = append(out, id)
		}
	}
	return out
}

// replayClock stamps rebuilt transitions. They are compared with the stored
// records and then dropped, so their timestamps never reach the log.
type replayClock struct{}

func (replayClock) Now() time.Time { return time.Unix(0, 0) }

// Replay discards the manager's annotations and rebuilds them from log.
//
// Records are grouped by annotation identity, keeping their relative order;
// groups are rebuilt in order of first appearance, each through a fresh
// machine starting at idle. A record is skipped, with a warning, when the
// machine rejects its event, when the event addresses a different identity
// than the record, or when a payload-bearing event carries a payload that
// does not decode. Skipping never aborts the pass.
//
// Annotations that end in deleted, or that never left idle because all
// their records were skipped, are not tracked afterwards.
//
// At most one annotation stays selected: when several rebuild as selected,
// the one whose selection record comes last in the log keeps it and the
// others are deselected and listed in report.Deselected.
func (m *Manager) Replay(ctx context.Context, log []ir.Transition) ReplayReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reset()

	report := ReplayReport{
		Final:        make(map[uuid.UUID]ir.State),
		LastRecorded: make(map[uuid.UUID]ir.State),
	}

	var groupOrder []uuid.UUID
	groups := make(map[uuid.UUID][]int)
	for i, rec := range log {
		if _, seen := groups[rec.AnnotationID]; !seen {
			groupOrder = append(groupOrder, rec.AnnotationID)
		}
		groups[rec.AnnotationID] = append(groups[rec.AnnotationID], i)
		report.LastRecorded[rec.AnnotationID] = rec.To
	}

	mopts := append(slices.Clip(m.mopts), machine.WithClock(replayClock{}))
	var selected []selection
	for _, id := range groupOrder {
		a := machine.NewAnnotation(id, mopts...)
		rd := &RenderData{ID: id}
		applied := 0
		selectedAt := -1

		for _, i := range groups[id] {
			rec := log[i]
			if err := m.replayOne(ctx, a, rd, i, rec, &report); err != nil {
				skip := SkippedRecord{Index: i, AnnotationID: id, Err: err}
				if rec.Event != nil {
					skip.Event = rec.Event.Kind()
				}
				report.Skipped = append(report.Skipped, skip)
				m.logger.Warn("replay skipped transition",
					"index", i,
					"annotation_id", id.String(),
					"event", skip.Event.String(),
					"error", err,
				)
				continue
			}
			applied++
			if a.State() == ir.StateSelected {
				selectedAt = i
			}
		}

		report.Applied += applied
		final := a.State()
		report.Final[id] = final
		if final == ir.StateDeleted || applied == 0 {
			continue
		}
		m.track(a, rd)
		if final == ir.StateSelected {
			selected = append(selected, selection{id: id, index: selectedAt})
		}
	}
	m.keepLatestSelection(ctx, selected, &report)

	m.metrics.ReplaySkipped(len(report.Skipped))
	m.logger.Info("replay complete",
		"records", len(log),
		"applied", report.Applied,
		"skipped", len(report.Skipped),
		"deselected", len(report.Deselected),
		"annotations", len(m.order),
	)
	return report
}

func (m *Manager) replayOne(ctx context.Context, a *machine.Annotation, rd *RenderData, i int, rec ir.Transition, report *ReplayReport) error {
	if rec.Event == nil {
		return ir.ErrNilEvent
	}
	if rec.Payload != nil {
		if err := ir.CheckPayload(rec.Event.Kind(), rec.Payload); err != nil {
			return fmt.Errorf("payload: %w", err)
		}
	}
	res, err := a.ProcessEvent(ctx, rec.Event)
	if err != nil {
		return err
	}
	rd.apply(rec.Event)

	if res.From != rec.From || res.To != rec.To {
		report.Mismatched = append(report.Mismatched, StateMismatch{
			Index:        i,
			AnnotationID: rec.AnnotationID,
			Stored:       [2]ir.State{rec.From, rec.To},
			Rebuilt:      [2]ir.State{res.From, res.To},
		})
		m.logger.Warn("replayed transition disagrees with record",
			"index", i,
			"annotation_id", rec.AnnotationID.String(),
			"stored_from", rec.From.String(),
			"stored_to", rec.To.String(),
			"rebuilt_from", res.From.String(),
			"rebuilt_to", res.To.String(),
		)
	}
	return nil
}

// selection is a rebuilt selected annotation and the log index of the record
// that last put it there.
type selection struct {
	id    uuid.UUID
	index int
}

// keepLatestSelection deselects every candidate but the one selected last.
func (m *Manager) keepLatestSelection(ctx context.Context, candidates []selection, report *ReplayReport) {
	if len(candidates) < 2 {
		return
	}
	keep := candidates[0]
	for _, c := range candidates[1:] {
		if c.index > keep.index {
			keep = c
		}
	}
	for _, c := range candidates {
		if c.id == keep.id {
			continue
		}
		if _, err := m.machines[c.id].ProcessEvent(ctx, ir.Deselect{ID: c.id}); err != nil {
			m.logger.Error("replay could not deselect annotation", "annotation_id", c.id.String(), "error", err)
			continue
		}
		report.Final[c.id] = ir.StateIdle
		report.Deselected = append(report.Deselected, c.id)
		m.logger.Warn("replay deselected annotation superseded by a later selection",
			"annotation_id", c.id.String(),
			"kept", keep.id.String(),
		)
	}
}
