package compose

import (
	"testing"

	"github.com/example/mangalens/internal/geometry"
	"github.com/example/mangalens/internal/ocr"
)

func TestComposeSingleFits(t *testing.T) {
	c := New()
	c.SetPages([]Page{{Handle: "p0", NaturalW: 1000, NaturalH: 1500}})
	f := c.Compose(geometry.R(0, 0, 800, 600), geometry.Identity())
	if len(f.Slots) != 1 {
		t.Fatalf("slots = %d, want 1", len(f.Slots))
	}
	want := geometry.R(200, 0, 600, 600)
	if f.Slots[0].Rect != want {
		t.Errorf("slot rect = %+v, want %+v", f.Slots[0].Rect, want)
	}
}

func TestComposeDoubleCells(t *testing.T) {
	c := New(WithMode(ModeDouble), WithPairing(PairingPlain))
	c.SetPages([]Page{
		{Handle: "p0", NaturalW: 400, NaturalH: 400},
		{Handle: "p1", NaturalW: 400, NaturalH: 400},
	})
	f := c.Compose(geometry.R(0, 0, 816, 600), geometry.Identity())
	if len(f.Slots) != 2 {
		t.Fatalf("slots = %d, want 2", len(f.Slots))
	}
	if f.Slots[0].Index != 0 || f.Slots[1].Index != 1 {
		t.Fatalf("ltr order = %d, %d", f.Slots[0].Index, f.Slots[1].Index)
	}
	left := geometry.R(0, 100, 400, 500)
	right := geometry.R(416, 100, 816, 500)
	if f.Slots[0].Rect != left || f.Slots[1].Rect != right {
		t.Errorf("rects = %+v, %+v, want %+v, %+v", f.Slots[0].Rect, f.Slots[1].Rect, left, right)
	}
}

func TestComposeDoubleRTLFlipsRenderOrder(t *testing.T) {
	c := New(WithMode(ModeDouble), WithPairing(PairingPlain), WithDirection(DirectionRTL))
	c.SetPages([]Page{
		{Handle: "p0", NaturalW: 400, NaturalH: 400},
		{Handle: "p1", NaturalW: 400, NaturalH: 400},
	})
	f := c.Compose(geometry.R(0, 0, 816, 600), geometry.Identity())
	if f.Slots[0].Index != 1 || f.Slots[1].Index != 0 {
		t.Fatalf("rtl order = %d, %d, want 1, 0", f.Slots[0].Index, f.Slots[1].Index)
	}
	if f.Slots[0].Rect.X1 != 0 {
		t.Errorf("first rendered page starts at x=%v, want the left cell", f.Slots[0].Rect.X1)
	}
}

func TestComposeAppliesTransform(t *testing.T) {
	c := New()
	c.SetPages([]Page{{Handle: "p0", NaturalW: 400, NaturalH: 400}})
	tr := geometry.Transform{TranslateX: 10, TranslateY: 20, Scale: 2}
	f := c.Compose(geometry.R(0, 0, 800, 600), tr)
	want := geometry.R(-190, -280, 1010, 920)
	if f.Slots[0].Rect != want {
		t.Errorf("transformed rect = %+v, want %+v", f.Slots[0].Rect, want)
	}
}

func comparePages() []Page {
	return []Page{
		{Handle: "p0", NaturalW: 400, NaturalH: 400},
		{Handle: "p0t", NaturalW: 400, NaturalH: 400, Translated: true},
	}
}

func TestCompareVerticalStacks(t *testing.T) {
	c := New(WithDirection(DirectionRTL), WithCompareLayout(CompareVertical))
	c.SetPages(comparePages())
	c.SetCompare(true)
	f := c.Compose(geometry.R(0, 0, 400, 816), geometry.Identity())
	if len(f.Slots) != 2 {
		t.Fatalf("slots = %d, want 2", len(f.Slots))
	}
	// Stacking is unaffected by reading direction: original on top.
	if f.Slots[0].Page.Translated {
		t.Error("translated page rendered first in vertical compare")
	}
	if f.Slots[0].Rect.Y2 > f.Slots[1].Rect.Y1 {
		t.Errorf("slots not stacked: %+v above %+v", f.Slots[0].Rect, f.Slots[1].Rect)
	}
}

func TestCompareHorizontalRTL(t *testing.T) {
	c := New(WithDirection(DirectionRTL))
	c.SetPages(comparePages())
	c.SetCompare(true)
	f := c.Compose(geometry.R(0, 0, 816, 600), geometry.Identity())
	if !f.Slots[0].Page.Translated {
		t.Error("rtl compare should render the translation on the left")
	}
}

func TestStripLayout(t *testing.T) {
	c := New(WithMode(ModeWebtoon))
	c.SetPages([]Page{
		{Handle: "p0", NaturalW: 800, NaturalH: 1200},
		{Handle: "p1", NaturalW: 800, NaturalH: 800},
	})
	rects := c.Strip(400)
	if len(rects) != 2 {
		t.Fatalf("strip rects = %d, want 2", len(rects))
	}
	if want := geometry.R(0, 0, 400, 600); rects[0] != want {
		t.Errorf("rects[0] = %+v, want %+v", rects[0], want)
	}
	if want := geometry.R(0, 608, 400, 1008); rects[1] != want {
		t.Errorf("rects[1] = %+v, want %+v", rects[1], want)
	}
	if got := c.StripHeight(400); got != 1008 {
		t.Errorf("StripHeight = %v, want 1008", got)
	}
}

func TestStripUnknownSizeReservesSpace(t *testing.T) {
	c := New(WithMode(ModeWebtoon))
	c.SetPages([]Page{{Handle: "p0"}})
	rects := c.Strip(400)
	if want := geometry.R(0, 0, 400, 560); rects[0] != want {
		t.Errorf("placeholder rect = %+v, want %+v", rects[0], want)
	}
}

func TestComposeStripWindow(t *testing.T) {
	c := New(WithMode(ModeWebtoon))
	c.SetPages([]Page{
		{Handle: "p0", NaturalW: 800, NaturalH: 1200},
		{Handle: "p1", NaturalW: 800, NaturalH: 800},
	})
	vp := geometry.R(0, 0, 400, 500)

	f := c.ComposeStrip(vp, 0)
	if len(f.Slots) != 1 || f.Slots[0].Index != 0 {
		t.Fatalf("slots at top = %+v, want page 0 only", f.Slots)
	}

	f = c.ComposeStrip(vp, 550)
	if len(f.Slots) != 2 {
		t.Fatalf("slots mid-scroll = %d, want 2", len(f.Slots))
	}
	if want := geometry.R(0, -550, 400, 50); f.Slots[0].Rect != want {
		t.Errorf("page 0 rect = %+v, want %+v", f.Slots[0].Rect, want)
	}
	if want := geometry.R(0, 58, 400, 458); f.Slots[1].Rect != want {
		t.Errorf("page 1 rect = %+v, want %+v", f.Slots[1].Rect, want)
	}

	f = c.ComposeStrip(vp, 2500)
	if len(f.Slots) != 0 {
		t.Errorf("slots past the end = %+v, want none", f.Slots)
	}
}

func ocrPage() Page {
	return Page{
		Handle:   "p0",
		NaturalW: 100,
		NaturalH: 150,
		OCR: &ocr.Data{
			Width:  100,
			Height: 150,
			Blocks: []ocr.Block{
				{Box: geometry.R(10, 10, 50, 50), Lines: []string{"今日", "は"}},
				{Box: geometry.R(30, 30, 70, 70), Lines: []string{"見", "本"}},
			},
		},
	}
}

func TestHitPanelResolvesTap(t *testing.T) {
	c := New()
	c.SetPages([]Page{ocrPage()})
	f := c.Compose(geometry.R(0, 0, 800, 600), geometry.Identity())

	hit, ok := f.HitPanel(geometry.Pt(300, 100), "ja")
	if !ok {
		t.Fatal("tap inside the first block missed")
	}
	if hit.Text != "今日は" {
		t.Errorf("hit text = %q, want joined without space", hit.Text)
	}
	if hit.Index != 0 {
		t.Errorf("hit index = %d, want 0", hit.Index)
	}

	if _, ok := f.HitPanel(geometry.Pt(210, 580), "ja"); ok {
		t.Error("tap outside every block hit")
	}
	if _, ok := f.HitPanel(geometry.Pt(50, 50), "ja"); ok {
		t.Error("tap outside the page hit")
	}
}

func TestPanelPopupEquivalence(t *testing.T) {
	c := New(WithOverlay(OverlayPopup))
	c.SetPages([]Page{ocrPage()})
	f := c.Compose(geometry.R(0, 0, 800, 600), geometry.Identity())
	if len(f.Blocks) != 2 {
		t.Fatalf("popup frame block rects = %d, want 2", len(f.Blocks))
	}

	points := []geometry.Point{
		geometry.Pt(300, 100), // first block only
		geometry.Pt(360, 160), // overlap region
		geometry.Pt(440, 240), // second block only
		geometry.Pt(210, 580), // inside page, outside blocks
		geometry.Pt(50, 50),   // outside page
	}
	for _, p := range points {
		panel, pok := f.HitPanel(p, "ja")
		popup, uok := f.HitPopup(p, "ja")
		if pok != uok {
			t.Fatalf("tap %v: panel hit=%v popup hit=%v", p, pok, uok)
		}
		if !pok {
			continue
		}
		if panel.Text != popup.Text {
			t.Errorf("tap %v: panel text %q, popup text %q", p, panel.Text, popup.Text)
		}
		if panel.Block.Box != popup.Block.Box {
			t.Errorf("tap %v: panel box %+v, popup box %+v", p, panel.Block.Box, popup.Block.Box)
		}
	}

	// Overlap resolves first-match on both paths.
	hit, _ := f.HitPanel(geometry.Pt(360, 160), "ja")
	if hit.Text != "今日は" {
		t.Errorf("overlap tap = %q, want the first block", hit.Text)
	}
}

func TestPanelFrameCarriesNoBlockRects(t *testing.T) {
	c := New()
	c.SetPages([]Page{ocrPage()})
	f := c.Compose(geometry.R(0, 0, 800, 600), geometry.Identity())
	if len(f.Blocks) != 0 {
		t.Errorf("panel frame block rects = %d, want 0", len(f.Blocks))
	}
}

func TestHitScalesSidecarToPage(t *testing.T) {
	c := New(WithOverlay(OverlayPopup))
	c.SetPages([]Page{{
		Handle:   "p0",
		NaturalW: 100,
		NaturalH: 150,
		OCR: &ocr.Data{
			Width:  50,
			Height: 75,
			Blocks: []ocr.Block{{Box: geometry.R(5, 5, 25, 25), Lines: []string{"a", "b"}}},
		},
	}})
	f := c.Compose(geometry.R(0, 0, 800, 600), geometry.Identity())

	hit, ok := f.HitPanel(geometry.Pt(300, 100), "en")
	if !ok {
		t.Fatal("tap inside the scaled block missed")
	}
	if hit.Text != "a b" {
		t.Errorf("hit text = %q, want %q", hit.Text, "a b")
	}
	if want := geometry.R(10, 10, 50, 50); hit.Block.Box != want {
		t.Errorf("scaled box = %+v, want %+v", hit.Block.Box, want)
	}
	popup, ok := f.HitPopup(geometry.Pt(300, 100), "en")
	if !ok || popup.Text != hit.Text {
		t.Errorf("popup tap = %+v, %v, want the same hit", popup, ok)
	}
}

func TestLocateFindsSlot(t *testing.T) {
	c := New(WithMode(ModeDouble), WithPairing(PairingPlain))
	c.SetPages([]Page{
		{Handle: "p0", NaturalW: 400, NaturalH: 400},
		{Handle: "p1", NaturalW: 400, NaturalH: 400},
	})
	f := c.Compose(geometry.R(0, 0, 816, 600), geometry.Identity())
	s, ok := f.Locate(geometry.Pt(500, 300))
	if !ok || s.Index != 1 {
		t.Errorf("Locate = %+v, %v, want page 1", s, ok)
	}
	if _, ok := f.Locate(geometry.Pt(408, 300)); ok {
		t.Error("Locate hit inside the gap")
	}
}

func TestComposeEmptyFrame(t *testing.T) {
	c := New()
	f := c.Compose(geometry.R(0, 0, 800, 600), geometry.Identity())
	if len(f.Slots) != 0 {
		t.Errorf("slots = %d, want 0", len(f.Slots))
	}
	if _, ok := f.HitPanel(geometry.Pt(100, 100), "en"); ok {
		t.Error("HitPanel on an empty frame hit")
	}
}
