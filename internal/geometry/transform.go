package geometry

// Transform is the pan/zoom state applied to the whole content layer. The
// layer scales uniformly about an anchor (the viewport center) and then
// shifts by the translation. Scale stays in [1, 5] for pagination layouts;
// the gesture controller owns the clamping and resets the transform to
// Identity whenever the visible page set changes.
type Transform struct {
	TranslateX float64
	TranslateY float64
	Scale      float64
}

// Identity returns the untransformed state.
func Identity() Transform {
	return Transform{Scale: 1}
}

// IsIdentity reports whether the transform leaves the layer untouched.
func (t Transform) IsIdentity() bool {
	return t.TranslateX == 0 && t.TranslateY == 0 && t.Scale == 1
}

// ApplyPoint maps a content-layer point to its on-screen position.
func (t Transform) ApplyPoint(p, anchor Point) Point {
	return Point{
		X: (p.X-anchor.X)*t.Scale + anchor.X + t.TranslateX,
		Y: (p.Y-anchor.Y)*t.Scale + anchor.Y + t.TranslateY,
	}
}

// Apply maps a content-layer rectangle to its on-screen position.
func (t Transform) Apply(r Rect, anchor Point) Rect {
	a := t.ApplyPoint(Point{r.X1, r.Y1}, anchor)
	b := t.ApplyPoint(Point{r.X2, r.Y2}, anchor)
	return Rect{X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y}
}
