// Package crop implements freehand region selection over the rendered pages.
// The drag lives entirely in viewport coordinates; only the final extraction
// touches natural pixel space.
package crop

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/example/mangalens/internal/geometry"
)

// Drags smaller than this on either axis are accidental taps, not crops.
const minDrag = 10.0

// Target is one visible image the selection can resolve against: its
// current screen rectangle and its decoded pixels. Pages still loading are
// not offered as targets.
type Target struct {
	Index  int
	Rect   geometry.Rect
	Source image.Image
}

// Result is a resolved crop: the extracted buffer and the region it came
// from, in natural pixels of the winning page.
type Result struct {
	Index int
	Image *image.NRGBA
	Box   image.Rectangle
}

// Selector is the drag state machine: idle until Start, dragging until
// Finish or Cancel.
type Selector struct {
	active  bool
	start   geometry.Point
	current geometry.Point
}

// Start begins a drag at p.
func (s *Selector) Start(p geometry.Point) {
	s.active = true
	s.start = p
	s.current = p
}

// Update moves the drag's live corner. Ignored while idle.
func (s *Selector) Update(p geometry.Point) {
	if !s.active {
		return
	}
	s.current = p
}

// Dragging reports whether a drag is in progress.
func (s *Selector) Dragging() bool {
	return s.active
}

// Rect returns the canonical rubber-band rectangle for drawing.
func (s *Selector) Rect() geometry.Rect {
	return geometry.FromPoints(s.start, s.current)
}

// Cancel drops the drag without emitting anything.
func (s *Selector) Cancel() {
	s.active = false
}

// Finish resolves the drag at release point p against the visible images.
// It returns false, emitting nothing, for sub-threshold drags and for
// selections that intersect no image. When the selection straddles several
// images the one with the largest overlapping area wins.
func (s *Selector) Finish(p geometry.Point, targets []Target) (Result, bool) {
	if !s.active {
		return Result{}, false
	}
	s.current = p
	sel := s.Rect()
	s.active = false

	if sel.Width() < minDrag || sel.Height() < minDrag {
		return Result{}, false
	}

	winner := -1
	var winnerOverlap geometry.Rect
	best := 0.0
	for i, tgt := range targets {
		if tgt.Source == nil {
			continue
		}
		overlap := sel.Intersect(tgt.Rect)
		if area := overlap.Area(); area > best {
			best = area
			winner = i
			winnerOverlap = overlap
		}
	}
	if winner < 0 {
		return Result{}, false
	}

	tgt := targets[winner]
	bounds := tgt.Source.Bounds()
	natural := geometry.RectToNatural(winnerOverlap, tgt.Rect,
		float64(bounds.Dx()), float64(bounds.Dy()))
	box := natural.ImageRect().Add(bounds.Min).Intersect(bounds)
	if box.Empty() {
		return Result{}, false
	}
	out := imaging.Crop(tgt.Source, box)
	return Result{Index: tgt.Index, Image: out, Box: box.Sub(bounds.Min)}, true
}
