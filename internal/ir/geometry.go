package ir

import (
	"math"

	"github.com/roach88/notelog/internal/codec"
)

// Point is a 2-D location in page coordinates.
type Point struct {
	X float64
	Y float64
}

// Add returns p shifted by (dx, dy).
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// DistToSegment returns the distance from p to the closed segment a-b.
func (p Point) DistToSegment(a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return p.Dist(Point{X: a.X + t*dx, Y: a.Y + t*dy})
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Translate returns r shifted by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Resize grows r by (dw, dh) away from the edge opposite the anchor.
// Width and height never drop below zero.
func (r Rect) Resize(delta ResizePayload) Rect {
	dw, dh := delta.Width, delta.Height
	switch delta.Anchor {
	case AnchorTop, AnchorBottom:
		dw = 0
	case AnchorLeft, AnchorRight:
		dh = 0
	}
	// Clamp so the fixed edge never moves.
	dw = math.Max(dw, -r.Width)
	dh = math.Max(dh, -r.Height)

	switch delta.Anchor {
	case AnchorTopLeft, AnchorLeft, AnchorBottomLeft:
		r.X -= dw
	}
	switch delta.Anchor {
	case AnchorTopLeft, AnchorTop, AnchorTopRight:
		r.Y -= dh
	}
	r.Width += dw
	r.Height += dh
	return r
}

// BoundingBox returns the smallest Rect containing every point.
// The zero Rect is returned for an empty slice.
func BoundingBox(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func writePoint(e *codec.Encoder, p Point) {
	e.Float64(p.X)
	e.Float64(p.Y)
}

func readPoint(d *codec.Decoder, field string) (Point, error) {
	x, err := d.Float64(field + ".x")
	if err != nil {
		return Point{}, err
	}
	y, err := d.Float64(field + ".y")
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

func writeRect(e *codec.Encoder, r Rect) {
	e.Float64(r.X)
	e.Float64(r.Y)
	e.Float64(r.Width)
	e.Float64(r.Height)
}

func readRect(d *codec.Decoder, field string) (Rect, error) {
	var r Rect
	var err error
	if r.X, err = d.Float64(field + ".x"); err != nil {
		return Rect{}, err
	}
	if r.Y, err = d.Float64(field + ".y"); err != nil {
		return Rect{}, err
	}
	if r.Width, err = d.Float64(field + ".width"); err != nil {
		return Rect{}, err
	}
	if r.Height, err = d.Float64(field + ".height"); err != nil {
		return Rect{}, err
	}
	return r, nil
}
