package engine

import (
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/roach88/notelog/internal/ir"
)

// RenderData is the renderer-facing view of one annotation.
//
// It is a cache derived from the accepted events of the annotation; the
// transition log stays the source of truth. Values handed out by the
// Manager are copies.
type RenderData struct {
	ID         uuid.UUID
	State      ir.State
	Type       string
	Bounds     ir.Rect
	Content    *string
	Properties map[string]string

	// Points is the stroke geometry accumulated by updateStroke.
	Points []ir.Point
}

func (r *RenderData) clone() RenderData {
	out := *r
	if r.Content != nil {
		out.Content = ir.StringRef(*r.Content)
	}
	out.Properties = maps.Clone(r.Properties)
	out.Points = slices.Clone(r.Points)
	return out
}

// apply folds an accepted event into the cached geometry and content.
func (r *RenderData) apply(ev ir.Event) {
	switch v := ev.(type) {
	case ir.CreateAnnotation:
		r.Type = v.Payload.Type
		r.Bounds = v.Payload.Bounds
		r.Content = nil
		if v.Payload.InitialContent != nil {
			r.Content = ir.StringRef(*v.Payload.InitialContent)
		}
		r.Properties = maps.Clone(v.Payload.Properties)
	case ir.UpdateStroke:
		r.Points = append(r.Points, v.Point)
		r.Bounds = ir.BoundingBox(r.Points)
	case ir.MoveDelta:
		r.Bounds = r.Bounds.Translate(v.DX, v.DY)
		for i := range r.Points {
			r.Points[i] = r.Points[i].Add(v.DX, v.DY)
		}
	case ir.ResizeDelta:
		r.Bounds = r.Bounds.Resize(v.Delta)
	case ir.CommitEdit:
		if v.Payload.Content != nil {
			r.Content = ir.StringRef(*v.Payload.Content)
		}
		if v.Payload.Properties != nil {
			r.Properties = maps.Clone(v.Payload.Properties)
		}
	}
}
