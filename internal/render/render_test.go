package render

import (
	"image"
	"image/color"
	"testing"
)

func TestLineThickness(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	red := color.RGBA{R: 255, A: 255}
	Line(img, 5, 10, 15, 10, red, 3)

	for _, y := range []int{9, 10, 11} {
		if img.RGBAAt(10, y) != red {
			t.Errorf("expected line pixel at (10,%d)", y)
		}
	}
	if img.RGBAAt(10, 13).A != 0 {
		t.Error("unexpected pixel outside line thickness")
	}
}

func TestRectOutline(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	col := color.RGBA{G: 255, A: 255}
	Rect(img, image.Rect(2, 2, 8, 8), col, 1)

	for _, p := range []image.Point{{2, 2}, {7, 2}, {7, 7}, {2, 7}, {5, 2}, {2, 5}} {
		if img.RGBAAt(p.X, p.Y) != col {
			t.Errorf("expected outline pixel at %v", p)
		}
	}
	if img.RGBAAt(5, 5).A != 0 {
		t.Error("interior should stay empty")
	}
}

func TestDashedLineAlternates(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 5))
	c1 := color.RGBA{R: 255, A: 255}
	c2 := color.RGBA{B: 255, A: 255}
	DashedLine(img, 0, 0, 12, 0, 3, 1, c1, c2)

	cases := []struct {
		x    int
		want color.RGBA
	}{
		{0, c1}, {2, c1}, {3, c2}, {5, c2}, {6, c1}, {9, c2}, {12, c1},
	}
	for _, c := range cases {
		if got := img.RGBAAt(c.x, 0); got != c.want {
			t.Errorf("pixel at x=%d: got %+v want %+v", c.x, got, c.want)
		}
	}
}

func TestCircleOutline(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 21, 21))
	col := color.RGBA{B: 255, A: 255}
	Circle(img, 10, 10, 5, col, 1)

	for _, p := range []image.Point{{15, 10}, {5, 10}, {10, 15}, {10, 5}} {
		if img.RGBAAt(p.X, p.Y) != col {
			t.Errorf("expected ring pixel at %v", p)
		}
	}
	if img.RGBAAt(10, 10).A != 0 {
		t.Error("ring centre should stay empty")
	}
}

func TestCircleMask(t *testing.T) {
	m := CircleMask(5)
	if got, want := m.Bounds(), image.Rect(0, 0, 11, 11); !got.Eq(want) {
		t.Fatalf("mask bounds %v, want %v", got, want)
	}
	if m.AlphaAt(5, 5).A != 255 {
		t.Error("centre should be opaque")
	}
	if m.AlphaAt(10, 5).A != 255 {
		t.Error("edge midpoint should be opaque")
	}
	if m.AlphaAt(0, 0).A != 0 {
		t.Error("corner should be transparent")
	}
}

func TestFillStraightAlpha(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{A: 255})
		}
	}
	Fill(img, img.Bounds(), color.RGBA{R: 255, A: 128})

	got := img.RGBAAt(1, 1)
	want := color.RGBA{R: 128, A: 255}
	if got != want {
		t.Fatalf("composited pixel %+v, want %+v", got, want)
	}
}

func TestCheckerboardPattern(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	light := color.RGBA{220, 220, 220, 255}
	dark := color.RGBA{192, 192, 192, 255}
	Checkerboard(img, img.Bounds(), 2, light, dark)

	if img.RGBAAt(0, 0) != light {
		t.Error("expected light square at origin")
	}
	if img.RGBAAt(2, 0) != dark {
		t.Error("expected dark square right of origin")
	}
	if img.RGBAAt(0, 2) != dark {
		t.Error("expected dark square below origin")
	}
	if img.RGBAAt(2, 2) != light {
		t.Error("expected light square on the diagonal")
	}
}
