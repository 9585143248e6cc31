package lens

import (
	"image/color"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/example/mangalens/internal/geometry"
)

func pt(x, y float64) geometry.Point { return geometry.Pt(x, y) }

func redTarget(w, h int, rect geometry.Rect) Target {
	return Target{Rect: rect, Source: imaging.New(w, h, color.NRGBA{R: 255, A: 255})}
}

func TestZoomClamped(t *testing.T) {
	l := New(0, 10)
	if l.Zoom() != MaxZoom {
		t.Fatalf("Zoom = %v, want clamp to %v", l.Zoom(), MaxZoom)
	}
	l.SetZoom(0.1)
	if l.Zoom() != MinZoom {
		t.Fatalf("Zoom = %v, want clamp to %v", l.Zoom(), MinZoom)
	}
	if l.Size() != DefaultSize {
		t.Fatalf("Size = %d, want default %d", l.Size(), DefaultSize)
	}
}

func TestWindowCentersOnPointerPixel(t *testing.T) {
	// 100x100 image displayed 1:1, lens 50px at 2.5x: the window spans
	// 50/2.5 = 20 natural pixels centered under the pointer.
	l := New(50, 2.5)
	l.MoveTo(pt(40, 40))
	tgt := redTarget(100, 100, geometry.R(0, 0, 100, 100))
	got := l.window(tgt)
	want := geometry.R(30, 30, 50, 50)
	if got != want {
		t.Fatalf("window = %v, want %v", got, want)
	}
}

func TestWindowScalesWithDisplayedSize(t *testing.T) {
	// The same image displayed at half size shows twice the natural pixels.
	l := New(50, 2.5)
	l.MoveTo(pt(20, 20))
	tgt := redTarget(100, 100, geometry.R(0, 0, 50, 50))
	got := l.window(tgt)
	want := geometry.R(20, 20, 60, 60)
	if got != want {
		t.Fatalf("window = %v, want %v", got, want)
	}
}

func TestHiddenWhenNoImageUnderPointer(t *testing.T) {
	l := New(50, 2.5)
	l.MoveTo(pt(500, 500))
	if _, ok := l.View([]Target{redTarget(100, 100, geometry.R(0, 0, 100, 100))}); ok {
		t.Fatal("lens visible with no image under the pointer")
	}
	if _, ok := l.View(nil); ok {
		t.Fatal("lens visible with no targets at all")
	}
}

func TestTopmostImageWins(t *testing.T) {
	bottom := redTarget(10, 10, geometry.R(0, 0, 100, 100))
	top := Target{
		Rect:   geometry.R(50, 50, 150, 150),
		Source: imaging.New(10, 10, color.NRGBA{B: 255, A: 255}),
	}
	l := New(40, 2)
	l.MoveTo(pt(75, 75))
	v, ok := l.View([]Target{bottom, top})
	if !ok {
		t.Fatal("no view over stacked images")
	}
	c := v.Content.NRGBAAt(v.Size/2, v.Size/2)
	if c.B != 255 || c.R != 0 {
		t.Fatalf("lens sampled the bottom image: %+v", c)
	}
}

func TestEdgeClampLeavesTransparentMargin(t *testing.T) {
	l := New(50, 2.5)
	l.MoveTo(pt(2, 2)) // near the top-left corner
	tgt := redTarget(100, 100, geometry.R(0, 0, 100, 100))
	v, ok := l.View([]Target{tgt})
	if !ok {
		t.Fatal("no view near edge")
	}
	if a := v.Content.NRGBAAt(1, 1).A; a != 0 {
		t.Fatalf("outside-image region is not transparent (alpha %d)", a)
	}
	if c := v.Content.NRGBAAt(v.Size-5, v.Size-5); c.R != 255 {
		t.Fatalf("inside-image region lost its pixels: %+v", c)
	}
}

func TestDragKeepsGrabOffset(t *testing.T) {
	l := New(100, 2)
	l.MoveTo(pt(200, 200))
	if l.StartDrag(pt(400, 400)) {
		t.Fatal("grab succeeded outside the lens circle")
	}
	if !l.StartDrag(pt(230, 200)) {
		t.Fatal("grab failed inside the lens circle")
	}
	l.Drag(pt(300, 260))
	if got, want := l.Center(), pt(270, 260); got != want {
		t.Fatalf("center = %v, want %v", got, want)
	}
	// While dragged the lens ignores plain pointer moves.
	l.MoveTo(pt(0, 0))
	if l.Center() != pt(270, 260) {
		t.Fatal("MoveTo moved a grabbed lens")
	}
	l.EndDrag()
	l.MoveTo(pt(10, 10))
	if l.Center() != pt(10, 10) {
		t.Fatal("MoveTo ignored after release")
	}
}

func TestAdjustZoomSteps(t *testing.T) {
	l := New(50, 2)
	l.AdjustZoom(2)
	if l.Zoom() != 2.5 {
		t.Fatalf("Zoom = %v, want 2.5", l.Zoom())
	}
	l.AdjustZoom(-100)
	if l.Zoom() != MinZoom {
		t.Fatalf("Zoom = %v, want floor %v", l.Zoom(), MinZoom)
	}
}
