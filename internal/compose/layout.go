package compose

import (
	"github.com/example/mangalens/internal/geometry"
	"github.com/example/mangalens/internal/ocr"
)

const (
	// slotGap separates pages inside a pagination arrangement.
	slotGap = 16.0
	// stripGap separates pages in the webtoon strip.
	stripGap = 8.0
	// fallbackAspect reserves space for pages whose size is unknown
	// until they decode.
	fallbackAspect = 1.4
)

// Slot is one drawn page: which logical page, which rendition, and the
// final on-screen rectangle after the gesture transform. The slots of a
// frame are the rect registry hit-testing queries; they are rebuilt
// every frame, never cached across frames.
type Slot struct {
	Index int
	Page  Page
	Rect  geometry.Rect
}

// BlockRect is one OCR block mapped to viewport space. Frames carry
// these in popup overlay style, where every block is its own hit target.
type BlockRect struct {
	Index int
	Block *ocr.Block
	Rect  geometry.Rect
}

// Frame is the composed result for one paint: the drawn slots in render
// order plus, in popup style, the per-block hit rectangles.
type Frame struct {
	Viewport geometry.Rect
	Slots    []Slot
	Blocks   []BlockRect
	Overlay  OverlayStyle
}

// Hit is a resolved OCR tap.
type Hit struct {
	Index int
	Block *ocr.Block
	Text  string
}

func pageDims(p Page) (w, h float64) {
	w, h = float64(p.NaturalW), float64(p.NaturalH)
	if w <= 0 || h <= 0 {
		return 1000, 1000 * fallbackAspect
	}
	return w, h
}

// Compose lays out the current pagination arrangement inside the
// viewport and applies the gesture transform. Reading direction flips
// the render order; the transform scales about the viewport center.
// Webtoon mode composes through ComposeStrip instead.
func (c *Compositor) Compose(viewport geometry.Rect, tr geometry.Transform) Frame {
	f := Frame{Viewport: viewport, Overlay: c.overlay}
	slots, compared := c.arrange()
	if len(slots) == 0 {
		return f
	}
	vertical := compared && c.compareLayout == CompareVertical
	if c.direction == DirectionRTL && len(slots) > 1 && !vertical {
		for i, j := 0, len(slots)-1; i < j; i, j = i+1, j-1 {
			slots[i], slots[j] = slots[j], slots[i]
		}
	}
	cells := splitCells(viewport, len(slots), vertical)
	anchor := viewport.Center()
	for i := range slots {
		w, h := pageDims(slots[i].Page)
		fit := geometry.FitRect(w, h, cells[i])
		slots[i].Rect = tr.Apply(fit, anchor)
	}
	f.Slots = slots
	if c.overlay == OverlayPopup {
		f.Blocks = blockRects(slots)
	}
	return f
}

// splitCells divides the viewport into n equal cells with a fixed gap.
func splitCells(vp geometry.Rect, n int, vertical bool) []geometry.Rect {
	cells := make([]geometry.Rect, n)
	if vertical {
		h := (vp.Height() - slotGap*float64(n-1)) / float64(n)
		if h < 0 {
			h = 0
		}
		for i := range cells {
			y := vp.Y1 + float64(i)*(h+slotGap)
			cells[i] = geometry.R(vp.X1, y, vp.X2, y+h)
		}
		return cells
	}
	w := (vp.Width() - slotGap*float64(n-1)) / float64(n)
	if w < 0 {
		w = 0
	}
	for i := range cells {
		x := vp.X1 + float64(i)*(w+slotGap)
		cells[i] = geometry.R(x, vp.Y1, x+w, vp.Y2)
	}
	return cells
}

// Strip lays out every logical page as a full-width vertical strip in
// content space, top at zero. The rectangles feed the webtoon tracker's
// extents and ComposeStrip.
func (c *Compositor) Strip(viewportW float64) []geometry.Rect {
	rects := make([]geometry.Rect, 0, len(c.logical))
	y := 0.0
	for _, pi := range c.logical {
		w, h := pageDims(c.pages[pi])
		sh := h * viewportW / w
		rects = append(rects, geometry.R(0, y, viewportW, y+sh))
		y += sh + stripGap
	}
	return rects
}

// StripHeight reports the total content height of the webtoon strip.
func (c *Compositor) StripHeight(viewportW float64) float64 {
	rects := c.Strip(viewportW)
	if len(rects) == 0 {
		return 0
	}
	return rects[len(rects)-1].Y2
}

// ComposeStrip composes the webtoon arrangement for the given scroll
// offset: only pages whose strip rectangle intersects the viewport
// become slots.
func (c *Compositor) ComposeStrip(viewport geometry.Rect, scrollTop float64) Frame {
	f := Frame{Viewport: viewport, Overlay: c.overlay}
	for k, r := range c.Strip(viewport.Width()) {
		sr := r.Offset(viewport.X1, viewport.Y1-scrollTop)
		if sr.Y1 > viewport.Y2 {
			break
		}
		if !sr.Intersects(viewport) {
			continue
		}
		f.Slots = append(f.Slots, Slot{Index: k, Page: c.pages[c.logical[k]], Rect: sr})
	}
	if c.overlay == OverlayPopup {
		f.Blocks = blockRects(f.Slots)
	}
	return f
}

// blockRects maps every OCR block of every slot into viewport space, in
// slot order then detection order, matching the panel path's scan order.
func blockRects(slots []Slot) []BlockRect {
	var out []BlockRect
	for _, s := range slots {
		if s.Page.OCR == nil {
			continue
		}
		data := s.Page.OCR.ScaleTo(s.Page.NaturalW, s.Page.NaturalH)
		for i := range data.Blocks {
			out = append(out, BlockRect{
				Index: s.Index,
				Block: &data.Blocks[i],
				Rect:  blockViewportRect(data.Blocks[i], s),
			})
		}
	}
	return out
}

// HitPanel resolves a tap in panel overlay style: one scan over the
// frame finds the slot under the point, maps it to natural pixels and
// hit-tests the page's blocks first-match.
func (f Frame) HitPanel(p geometry.Point, lang string) (Hit, bool) {
	for _, s := range f.Slots {
		if !s.Rect.Contains(p) {
			continue
		}
		if s.Page.OCR == nil {
			return Hit{}, false
		}
		data := s.Page.OCR.ScaleTo(s.Page.NaturalW, s.Page.NaturalH)
		np := geometry.ToNatural(p, s.Rect, float64(s.Page.NaturalW), float64(s.Page.NaturalH))
		b := ocr.HitTest(np, data.Blocks)
		if b == nil {
			return Hit{}, false
		}
		return Hit{Index: s.Index, Block: b, Text: b.Text(lang)}, true
	}
	return Hit{}, false
}

// HitPopup resolves a tap in popup overlay style against the per-block
// viewport rectangles. Panel and popup taps at the same point resolve to
// the same text and block.
func (f Frame) HitPopup(p geometry.Point, lang string) (Hit, bool) {
	for i := range f.Blocks {
		br := &f.Blocks[i]
		if br.Rect.Contains(p) {
			return Hit{Index: br.Index, Block: br.Block, Text: br.Block.Text(lang)}, true
		}
	}
	return Hit{}, false
}

// Locate returns the slot whose on-screen rectangle contains the point.
func (f Frame) Locate(p geometry.Point) (Slot, bool) {
	for _, s := range f.Slots {
		if s.Rect.Contains(p) {
			return s, true
		}
	}
	return Slot{}, false
}
