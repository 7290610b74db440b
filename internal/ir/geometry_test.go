package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRect_Resize(t *testing.T) {
	base := Rect{X: 10, Y: 10, Width: 100, Height: 50}

	tests := []struct {
		anchor ResizeAnchor
		dw, dh float64
		want   Rect
	}{
		{AnchorBottomRight, 10, 5, Rect{X: 10, Y: 10, Width: 110, Height: 55}},
		{AnchorTopLeft, 10, 5, Rect{X: 0, Y: 5, Width: 110, Height: 55}},
		{AnchorTopRight, 10, 5, Rect{X: 10, Y: 5, Width: 110, Height: 55}},
		{AnchorBottomLeft, 10, 5, Rect{X: 0, Y: 10, Width: 110, Height: 55}},
		{AnchorRight, 10, 5, Rect{X: 10, Y: 10, Width: 110, Height: 50}},
		{AnchorLeft, 10, 5, Rect{X: 0, Y: 10, Width: 110, Height: 50}},
		{AnchorBottom, 10, 5, Rect{X: 10, Y: 10, Width: 100, Height: 55}},
		{AnchorTop, 10, 5, Rect{X: 10, Y: 5, Width: 100, Height: 55}},
		{AnchorBottomRight, -500, -500, Rect{X: 10, Y: 10, Width: 0, Height: 0}},
		{AnchorTopLeft, -500, -500, Rect{X: 110, Y: 60, Width: 0, Height: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.anchor.String(), func(t *testing.T) {
			got := base.Resize(ResizePayload{Width: tt.dw, Height: tt.dh, Anchor: tt.anchor})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBoundingBox(t *testing.T) {
	assert.Equal(t, Rect{}, BoundingBox(nil))
	assert.Equal(t, Rect{X: 3, Y: 4}, BoundingBox([]Point{{X: 3, Y: 4}}))
	assert.Equal(t,
		Rect{X: -1, Y: 0, Width: 11, Height: 7},
		BoundingBox([]Point{{X: 0, Y: 0}, {X: 10, Y: 2}, {X: -1, Y: 7}}),
	)
}

func TestPoint_DistToSegment(t *testing.T) {
	a, b := Point{X: 0, Y: 0}, Point{X: 10, Y: 0}

	assert.InDelta(t, 3.0, Point{X: 5, Y: 3}.DistToSegment(a, b), 1e-9)
	assert.InDelta(t, 5.0, Point{X: 13, Y: 4}.DistToSegment(a, b), 1e-9)
	assert.InDelta(t, 5.0, Point{X: 3, Y: 4}.DistToSegment(a, a), 1e-9)
}
