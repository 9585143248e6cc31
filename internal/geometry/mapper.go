package geometry

// ToNatural maps a viewport point onto the natural pixel grid of an image
// currently rendered at screen rectangle r. The caller checks r.Contains
// first; a point outside r still converts, it just lands outside the image.
// No rounding happens here, block containment compares with inclusive
// float64 bounds.
func ToNatural(p Point, r Rect, naturalW, naturalH float64) Point {
	return Point{
		X: (p.X - r.X1) * naturalW / r.Width(),
		Y: (p.Y - r.Y1) * naturalH / r.Height(),
	}
}

// ToViewport is the inverse of ToNatural: it places a natural-pixel point
// back onto the screen given the image's current rectangle.
func ToViewport(p Point, r Rect, naturalW, naturalH float64) Point {
	return Point{
		X: r.X1 + p.X*r.Width()/naturalW,
		Y: r.Y1 + p.Y*r.Height()/naturalH,
	}
}

// RectToNatural maps a viewport-space rectangle (already clipped to the
// image's screen rectangle) into natural pixels.
func RectToNatural(sel, r Rect, naturalW, naturalH float64) Rect {
	a := ToNatural(Point{sel.X1, sel.Y1}, r, naturalW, naturalH)
	b := ToNatural(Point{sel.X2, sel.Y2}, r, naturalW, naturalH)
	return Rect{X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y}
}

// RectToViewport maps a natural-pixel rectangle onto the screen.
func RectToViewport(box, r Rect, naturalW, naturalH float64) Rect {
	a := ToViewport(Point{box.X1, box.Y1}, r, naturalW, naturalH)
	b := ToViewport(Point{box.X2, box.Y2}, r, naturalW, naturalH)
	return Rect{X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y}
}

// FitScale returns the largest uniform scale that fits a naturalW×naturalH
// image inside a box of the given size without cropping.
func FitScale(naturalW, naturalH, boxW, boxH float64) float64 {
	if naturalW <= 0 || naturalH <= 0 {
		return 1
	}
	sx := boxW / naturalW
	sy := boxH / naturalH
	if sx < sy {
		return sx
	}
	return sy
}

// FitRect centers a naturalW×naturalH image inside box at FitScale.
func FitRect(naturalW, naturalH float64, box Rect) Rect {
	s := FitScale(naturalW, naturalH, box.Width(), box.Height())
	w := naturalW * s
	h := naturalH * s
	x := box.X1 + (box.Width()-w)/2
	y := box.Y1 + (box.Height()-h)/2
	return Rect{X1: x, Y1: y, X2: x + w, Y2: y + h}
}
