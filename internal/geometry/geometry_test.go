package geometry

import (
	"image"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestContainsInclusiveEdges(t *testing.T) {
	r := R(10, 10, 50, 50)
	for _, p := range []Point{Pt(10, 10), Pt(50, 50), Pt(30, 30), Pt(10, 50)} {
		if !r.Contains(p) {
			t.Errorf("Contains(%v) = false, want true", p)
		}
	}
	for _, p := range []Point{Pt(9, 30), Pt(51, 30), Pt(30, 9.999), Pt(30, 50.001)} {
		if r.Contains(p) {
			t.Errorf("Contains(%v) = true, want false", p)
		}
	}
}

func TestFromPointsNormalizes(t *testing.T) {
	r := FromPoints(Pt(40, 5), Pt(10, 25))
	want := R(10, 5, 40, 25)
	if r != want {
		t.Fatalf("FromPoints = %v, want %v", r, want)
	}
}

func TestIntersectDisjoint(t *testing.T) {
	a := R(0, 0, 10, 10)
	b := R(20, 20, 30, 30)
	if got := a.Intersect(b); !got.Empty() {
		t.Fatalf("Intersect of disjoint rects = %v, want empty", got)
	}
	if a.Intersects(b) {
		t.Fatal("Intersects reported overlap for disjoint rects")
	}
}

func TestIntersectArea(t *testing.T) {
	a := R(0, 0, 100, 100)
	b := R(50, 50, 150, 150)
	got := a.Intersect(b)
	want := R(50, 50, 100, 100)
	if got != want {
		t.Fatalf("Intersect = %v, want %v", got, want)
	}
	if !almostEqual(got.Area(), 2500) {
		t.Fatalf("Area = %v, want 2500", got.Area())
	}
}

func TestCanonSwapsCorners(t *testing.T) {
	r := Rect{X1: 9, Y1: 8, X2: 3, Y2: 2}.Canon()
	want := R(3, 2, 9, 8)
	if r != want {
		t.Fatalf("Canon = %v, want %v", r, want)
	}
}

func TestImageRectCoversBoundary(t *testing.T) {
	r := R(1.2, 2.8, 10.1, 11.0)
	got := r.ImageRect()
	want := image.Rect(1, 2, 11, 11)
	if got != want {
		t.Fatalf("ImageRect = %v, want %v", got, want)
	}
}

func TestToNaturalScalesByRenderedSize(t *testing.T) {
	// A 1000x1500 page rendered at half size, offset on screen.
	rect := R(100, 50, 600, 800)
	p := ToNatural(Pt(350, 425), rect, 1000, 1500)
	if !almostEqual(p.X, 500) || !almostEqual(p.Y, 750) {
		t.Fatalf("ToNatural = %v, want (500, 750)", p)
	}
}

func TestToViewportInvertsToNatural(t *testing.T) {
	rect := R(33, 47, 421, 913)
	orig := Pt(123.5, 456.25)
	back := ToViewport(ToNatural(orig, rect, 826, 1169), rect, 826, 1169)
	if !almostEqual(back.X, orig.X) || !almostEqual(back.Y, orig.Y) {
		t.Fatalf("round trip = %v, want %v", back, orig)
	}
}

func TestRectToNatural(t *testing.T) {
	rect := R(0, 0, 500, 750)
	sel := R(100, 150, 200, 300)
	got := RectToNatural(sel, rect, 1000, 1500)
	want := R(200, 300, 400, 600)
	if got != want {
		t.Fatalf("RectToNatural = %v, want %v", got, want)
	}
}

func TestFitRectCentersAndPreservesAspect(t *testing.T) {
	box := R(0, 0, 800, 600)
	got := FitRect(1000, 1500, box)
	// Height-limited: scale 0.4, so 400x600 centered horizontally.
	want := R(200, 0, 600, 600)
	if got != want {
		t.Fatalf("FitRect = %v, want %v", got, want)
	}
}

func TestFitScaleDegenerateImage(t *testing.T) {
	if got := FitScale(0, 0, 800, 600); got != 1 {
		t.Fatalf("FitScale on empty image = %v, want 1", got)
	}
}

func TestTransformIdentity(t *testing.T) {
	tr := Identity()
	if !tr.IsIdentity() {
		t.Fatal("Identity().IsIdentity() = false")
	}
	r := R(10, 20, 30, 40)
	if got := tr.Apply(r, Pt(400, 300)); got != r {
		t.Fatalf("identity Apply = %v, want %v", got, r)
	}
}

func TestTransformScalesAboutAnchor(t *testing.T) {
	tr := Transform{Scale: 2}
	anchor := Pt(100, 100)
	if got := tr.ApplyPoint(anchor, anchor); got != anchor {
		t.Fatalf("anchor moved to %v under pure scale", got)
	}
	got := tr.ApplyPoint(Pt(150, 100), anchor)
	if !almostEqual(got.X, 200) || !almostEqual(got.Y, 100) {
		t.Fatalf("ApplyPoint = %v, want (200, 100)", got)
	}
}

func TestTransformTranslates(t *testing.T) {
	tr := Transform{TranslateX: -30, TranslateY: 12, Scale: 1}
	got := tr.Apply(R(0, 0, 10, 10), Pt(0, 0))
	want := R(-30, 12, -20, 22)
	if got != want {
		t.Fatalf("Apply = %v, want %v", got, want)
	}
}
