// Package lens implements the magnifier loupe: a fixed-size circular window
// showing a zoomed sample of whichever page image lies under it. The lens
// follows the pointer until grabbed, then drags as a detached loupe.
package lens

import (
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"

	"github.com/example/mangalens/internal/geometry"
)

const (
	// DefaultZoom is the magnification applied on top of the displayed size.
	DefaultZoom = 2.5
	// MinZoom and MaxZoom bound user adjustment.
	MinZoom = 1.5
	MaxZoom = 5.0
	// DefaultSize is the lens diameter in pixels.
	DefaultSize = 220

	zoomStep = 0.25
)

// Target is one visible image the lens can sample, in draw order: the last
// entry stacks on top.
type Target struct {
	Rect   geometry.Rect
	Source image.Image
}

// View is the resolved lens content for one frame: a Size×Size square the
// renderer masks to a circle at Center. Regions past the image edge are
// transparent.
type View struct {
	Center  geometry.Point
	Size    int
	Content *image.NRGBA
}

// Lens holds the loupe's position, magnification and drag state.
type Lens struct {
	zoom       float64
	size       int
	center     geometry.Point
	dragging   bool
	grabOffset geometry.Point
}

// New returns a lens with the given diameter and zoom, both clamped to
// their working ranges. Zero values take the defaults.
func New(size int, zoom float64) *Lens {
	l := &Lens{size: DefaultSize}
	if size > 0 {
		l.size = size
	}
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	l.SetZoom(zoom)
	return l
}

// Zoom returns the current magnification.
func (l *Lens) Zoom() float64 { return l.zoom }

// SetZoom clamps and applies a magnification.
func (l *Lens) SetZoom(z float64) {
	l.zoom = math.Min(math.Max(z, MinZoom), MaxZoom)
}

// AdjustZoom steps the magnification by wheel notches.
func (l *Lens) AdjustZoom(steps float64) {
	l.SetZoom(l.zoom + steps*zoomStep)
}

// Size returns the lens diameter in pixels.
func (l *Lens) Size() int { return l.size }

// Center returns the lens center in viewport coordinates.
func (l *Lens) Center() geometry.Point { return l.center }

// MoveTo follows the pointer. Ignored while the loupe is being dragged,
// when Drag owns the position instead.
func (l *Lens) MoveTo(p geometry.Point) {
	if l.dragging {
		return
	}
	l.center = p
}

// StartDrag grabs the loupe when p falls inside its circle and reports
// whether it did. A grabbed lens takes the pointer; pan, crop and tap do
// not see the gesture.
func (l *Lens) StartDrag(p geometry.Point) bool {
	if p.Dist(l.center) > float64(l.size)/2 {
		return false
	}
	l.dragging = true
	l.grabOffset = l.center.Sub(p)
	return true
}

// Drag moves the grabbed loupe, keeping the grab point under the pointer.
func (l *Lens) Drag(p geometry.Point) {
	if !l.dragging {
		return
	}
	l.center = p.Add(l.grabOffset)
}

// EndDrag releases the loupe.
func (l *Lens) EndDrag() {
	l.dragging = false
}

// Dragging reports whether the loupe is currently grabbed.
func (l *Lens) Dragging() bool { return l.dragging }

// View samples the top-most image under the lens center. The second return
// is false when no image is there, in which case the lens is hidden rather
// than drawn blank.
func (l *Lens) View(targets []Target) (View, bool) {
	tgt, ok := l.topmost(targets)
	if !ok {
		return View{}, false
	}
	return View{Center: l.center, Size: l.size, Content: l.magnify(tgt)}, true
}

// topmost scans back-to-front so a page drawn later wins where rects
// overlap.
func (l *Lens) topmost(targets []Target) (Target, bool) {
	for i := len(targets) - 1; i >= 0; i-- {
		t := targets[i]
		if t.Source != nil && !t.Rect.Empty() && t.Rect.Contains(l.center) {
			return t, true
		}
	}
	return Target{}, false
}

// window returns the natural-pixel region the lens shows: the displayed
// image magnified by zoom, offset so the pixel under the lens center is the
// true pixel the pointer is over.
func (l *Lens) window(tgt Target) geometry.Rect {
	b := tgt.Source.Bounds()
	natW := float64(b.Dx())
	natH := float64(b.Dy())
	relX := (l.center.X - tgt.Rect.X1) / tgt.Rect.Width()
	relY := (l.center.Y - tgt.Rect.Y1) / tgt.Rect.Height()
	halfW := float64(l.size) / 2 * natW / (tgt.Rect.Width() * l.zoom)
	halfH := float64(l.size) / 2 * natH / (tgt.Rect.Height() * l.zoom)
	cx := relX * natW
	cy := relY * natH
	return geometry.R(cx-halfW, cy-halfH, cx+halfW, cy+halfH)
}

func (l *Lens) magnify(tgt Target) *image.NRGBA {
	content := image.NewNRGBA(image.Rect(0, 0, l.size, l.size))
	b := tgt.Source.Bounds()
	window := l.window(tgt)
	clamped := window.Intersect(geometry.FromImageRect(image.Rect(0, 0, b.Dx(), b.Dy())))
	if clamped.Empty() {
		return content
	}
	sub := imaging.Crop(tgt.Source, clamped.ImageRect().Add(b.Min))

	sx := float64(l.size) / window.Width()
	sy := float64(l.size) / window.Height()
	dw := int(math.Round(clamped.Width() * sx))
	dh := int(math.Round(clamped.Height() * sy))
	if dw < 1 || dh < 1 {
		return content
	}
	scaled := imaging.Resize(sub, dw, dh, imaging.CatmullRom)
	dx := int(math.Round((clamped.X1 - window.X1) * sx))
	dy := int(math.Round((clamped.Y1 - window.Y1) * sy))
	draw.Draw(content, image.Rect(dx, dy, dx+dw, dy+dh), scaled, scaled.Bounds().Min, draw.Src)
	return content
}
