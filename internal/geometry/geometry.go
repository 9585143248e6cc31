// Package geometry holds the floating-point primitives shared by the viewer:
// viewport points, on-screen rectangles, natural-pixel boxes and the pan/zoom
// transform. Screen rectangles change under zoom, pan and layout, so nothing
// here caches a mapping; every conversion is computed from the rectangle the
// caller passes in.
package geometry

import (
	"image"
	"math"
)

// Point is a position in viewport or natural-pixel coordinates.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p shifted by q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Sub returns p minus q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Rect is an axis-aligned rectangle given by its corners. X1 ≤ X2 and
// Y1 ≤ Y2 for a canonical rectangle; Canon normalizes one built from an
// arbitrary drag.
type Rect struct {
	X1, Y1, X2, Y2 float64
}

// R is shorthand for Rect{x1, y1, x2, y2}.
func R(x1, y1, x2, y2 float64) Rect {
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// FromPoints returns the canonical rectangle spanned by two drag corners.
func FromPoints(a, b Point) Rect {
	return Rect{
		X1: math.Min(a.X, b.X),
		Y1: math.Min(a.Y, b.Y),
		X2: math.Max(a.X, b.X),
		Y2: math.Max(a.Y, b.Y),
	}
}

// FromImageRect converts an image.Rectangle.
func FromImageRect(r image.Rectangle) Rect {
	return Rect{
		X1: float64(r.Min.X),
		Y1: float64(r.Min.Y),
		X2: float64(r.Max.X),
		Y2: float64(r.Max.Y),
	}
}

// Width returns X2-X1.
func (r Rect) Width() float64 { return r.X2 - r.X1 }

// Height returns Y2-Y1.
func (r Rect) Height() float64 { return r.Y2 - r.Y1 }

// Area returns the rectangle's area, or 0 when it is empty or inverted.
func (r Rect) Area() float64 {
	if r.Empty() {
		return 0
	}
	return r.Width() * r.Height()
}

// Empty reports whether the rectangle covers no area.
func (r Rect) Empty() bool {
	return r.X2 <= r.X1 || r.Y2 <= r.Y1
}

// Canon returns the rectangle with swapped corners normalized.
func (r Rect) Canon() Rect {
	if r.X1 > r.X2 {
		r.X1, r.X2 = r.X2, r.X1
	}
	if r.Y1 > r.Y2 {
		r.Y1, r.Y2 = r.Y2, r.Y1
	}
	return r
}

// Center returns the rectangle's midpoint.
func (r Rect) Center() Point {
	return Point{X: (r.X1 + r.X2) / 2, Y: (r.Y1 + r.Y2) / 2}
}

// Contains reports whether p lies inside r, inclusive of all edges.
// OCR boxes hit on their boundary, so (X1,Y1) and (X2,Y2) both count.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X1 && p.X <= r.X2 && p.Y >= r.Y1 && p.Y <= r.Y2
}

// Intersects reports whether r and s overlap.
func (r Rect) Intersects(s Rect) bool {
	return !r.Intersect(s).Empty()
}

// Intersect returns the overlap of r and s, or the zero Rect when they are
// disjoint.
func (r Rect) Intersect(s Rect) Rect {
	out := Rect{
		X1: math.Max(r.X1, s.X1),
		Y1: math.Max(r.Y1, s.Y1),
		X2: math.Min(r.X2, s.X2),
		Y2: math.Min(r.Y2, s.Y2),
	}
	if out.Empty() {
		return Rect{}
	}
	return out
}

// Expand grows the rectangle by margin on every side. A negative margin
// shrinks it.
func (r Rect) Expand(margin float64) Rect {
	return Rect{X1: r.X1 - margin, Y1: r.Y1 - margin, X2: r.X2 + margin, Y2: r.Y2 + margin}
}

// Offset returns the rectangle shifted by (dx, dy).
func (r Rect) Offset(dx, dy float64) Rect {
	return Rect{X1: r.X1 + dx, Y1: r.Y1 + dy, X2: r.X2 + dx, Y2: r.Y2 + dy}
}

// ImageRect rounds to an image.Rectangle for rasterization. The minimum
// corner rounds down and the maximum rounds up so the pixel coverage never
// loses the selected region's boundary rows.
func (r Rect) ImageRect() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X1)),
		int(math.Floor(r.Y1)),
		int(math.Ceil(r.X2)),
		int(math.Ceil(r.Y2)),
	)
}
