// Package gesture tracks one or two pointers over the content layer and owns
// the pan/zoom transform. Pointer ids are opaque: the viewer feeds mouse
// events as pointer 0 and touch sequences under their own ids, so the state
// machine is the same for both. Rendering is decoupled: the controller only
// requests a frame, and many moves between frames collapse into one
// transform application.
package gesture

import (
	"log"
	"math"

	"github.com/example/mangalens/internal/geometry"
)

const (
	minScale = 1.0
	maxScale = 5.0

	// Pan engages only past this scale, so un-zoomed content never pans and
	// page-turn tap zones stay reachable.
	panThreshold = 1.01

	// At or below this scale the translation snaps back to the origin,
	// re-centering content after a zoom-out.
	snapThreshold = 1.05

	// Displacement in pixels separating a tap from a drag.
	tapSlop = 10.0

	// Wheel zoom factor per notch.
	wheelStep = 1.25
)

type phase int

const (
	phaseIdle phase = iota
	phaseTouch
	phasePinch
)

// Controller is the pointer state machine. Not safe for concurrent use; the
// viewer drives it from its event loop.
type Controller struct {
	transform geometry.Transform
	anchor    geometry.Point

	pointers map[int64]geometry.Point
	phase    phase

	downPos geometry.Point
	last    geometry.Point
	pinched bool

	pinchStartDist  float64
	pinchStartScale float64

	captureLost bool

	onTap         func(geometry.Point)
	onScaleChange func(float64)
	requestFrame  func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithTapHandler sets the callback for a resolved tap.
func WithTapHandler(fn func(geometry.Point)) Option {
	return func(c *Controller) { c.onTap = fn }
}

// WithScaleHandler sets the callback fired when the applied scale changes.
func WithScaleHandler(fn func(float64)) Option {
	return func(c *Controller) { c.onScaleChange = fn }
}

// WithFrameRequest sets the scheduler poked after every transform change.
func WithFrameRequest(fn func()) Option {
	return func(c *Controller) { c.requestFrame = fn }
}

// New returns an idle controller with the identity transform.
func New(opts ...Option) *Controller {
	c := &Controller{
		transform: geometry.Identity(),
		pointers:  make(map[int64]geometry.Point),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAnchor sets the viewport center the transform scales about. The viewer
// refreshes it on every window resize.
func (c *Controller) SetAnchor(p geometry.Point) {
	c.anchor = p
}

// Transform returns the current pan/zoom state.
func (c *Controller) Transform() geometry.Transform {
	return c.transform
}

// Scale returns the current zoom level.
func (c *Controller) Scale() float64 {
	return c.transform.Scale
}

// SetScale applies an absolute zoom level, clamped to the working range,
// keeping the viewport center fixed. Control-socket zoom commands come in
// here; near-fit values snap the translation home like a pinch release.
func (c *Controller) SetScale(s float64) {
	next := clampScale(s)
	if next == c.transform.Scale {
		return
	}
	c.transform.Scale = next
	if next <= snapThreshold {
		c.transform.TranslateX = 0
		c.transform.TranslateY = 0
	}
	c.fireScaleChange()
	c.request()
}

// Reset returns the transform to identity. Called whenever the visible page
// set changes; resetting twice in a row is fine and resets both times.
func (c *Controller) Reset() {
	changed := c.transform.Scale != 1
	c.transform = geometry.Identity()
	c.phase = phaseIdle
	c.pinched = false
	clear(c.pointers)
	if changed {
		c.fireScaleChange()
	}
	c.request()
}

// CaptureFailed degrades the controller to tap-only: taps still classify and
// dispatch, pan and pinch stop applying. The platform denying pointer
// capture is rare and recoverable only by restart, so this logs once.
func (c *Controller) CaptureFailed() {
	if c.captureLost {
		return
	}
	c.captureLost = true
	log.Printf("gesture: pointer capture unavailable, pan and zoom disabled")
}

// Down records a new pointer. A third simultaneous pointer, or a duplicate
// down for a live id, is ignored.
func (c *Controller) Down(id int64, p geometry.Point) {
	if _, live := c.pointers[id]; live {
		return
	}
	switch len(c.pointers) {
	case 0:
		c.pointers[id] = p
		c.phase = phaseTouch
		c.pinched = false
		c.downPos = p
		c.last = p
	case 1:
		c.pointers[id] = p
		c.phase = phasePinch
		c.pinched = true
		c.pinchStartDist = c.pointerDist()
		if c.pinchStartDist < 1 {
			c.pinchStartDist = 1
		}
		c.pinchStartScale = c.transform.Scale
	default:
		// Two pointers already tracked; extras play no part.
	}
}

// Move updates a pointer's position. Moves for ids that never went down are
// dropped.
func (c *Controller) Move(id int64, p geometry.Point) {
	if _, live := c.pointers[id]; !live {
		return
	}
	c.pointers[id] = p
	switch c.phase {
	case phaseTouch:
		delta := p.Sub(c.last)
		c.last = p
		if c.captureLost {
			return
		}
		if c.transform.Scale > panThreshold {
			c.transform.TranslateX += delta.X
			c.transform.TranslateY += delta.Y
			c.request()
		}
	case phasePinch:
		if c.captureLost {
			return
		}
		d := c.pointerDist()
		next := clampScale(c.pinchStartScale * d / c.pinchStartDist)
		if next == c.transform.Scale {
			return
		}
		c.transform.Scale = next
		if next <= snapThreshold {
			c.transform.TranslateX = 0
			c.transform.TranslateY = 0
		}
		c.fireScaleChange()
		c.request()
	}
}

// Up releases a pointer. Releasing the only pointer resolves the gesture:
// under the tap slop it dispatches a tap, otherwise a near-fit scale snaps
// the translation home. Releasing one of two resumes panning from the
// survivor with no jump.
func (c *Controller) Up(id int64, p geometry.Point) {
	if _, live := c.pointers[id]; !live {
		return
	}
	delete(c.pointers, id)
	switch c.phase {
	case phaseTouch:
		c.phase = phaseIdle
		if !c.pinched && p.Dist(c.downPos) < tapSlop {
			if c.onTap != nil {
				c.onTap(p)
			}
			return
		}
		c.snapIfNearFit()
	case phasePinch:
		for _, rest := range c.pointers {
			c.last = rest
		}
		c.phase = phaseTouch
		if len(c.pointers) == 0 {
			// Both lifted between events; resolve fully.
			c.phase = phaseIdle
			c.snapIfNearFit()
		}
	}
}

// Cancel drops a pointer through the same cleanup as a normal release,
// without tap classification. Capture loss and focus loss route here.
func (c *Controller) Cancel(id int64) {
	p, live := c.pointers[id]
	if !live {
		return
	}
	c.pinched = true // suppress tap
	c.Up(id, p)
}

// CancelAll resolves every live pointer, used when the window loses focus
// mid-gesture.
func (c *Controller) CancelAll() {
	for id := range c.pointers {
		c.Cancel(id)
	}
}

// Wheel applies a zoom of wheelStep per notch, anchored at the cursor so
// the content pixel under it stays put. Positive steps zoom in.
func (c *Controller) Wheel(steps float64, cursor geometry.Point) {
	if steps == 0 {
		return
	}
	old := c.transform.Scale
	next := clampScale(old * math.Pow(wheelStep, steps))
	if next == old {
		return
	}
	if next <= snapThreshold {
		c.transform.Scale = next
		c.transform.TranslateX = 0
		c.transform.TranslateY = 0
	} else {
		// Keep the content point under the cursor fixed across the scale
		// change: T' = c - a - (c - a - T) * s'/s.
		rx := cursor.X - c.anchor.X
		ry := cursor.Y - c.anchor.Y
		c.transform.TranslateX = rx - (rx-c.transform.TranslateX)*(next/old)
		c.transform.TranslateY = ry - (ry-c.transform.TranslateY)*(next/old)
		c.transform.Scale = next
	}
	c.fireScaleChange()
	c.request()
}

func (c *Controller) snapIfNearFit() {
	if c.transform.Scale <= snapThreshold {
		if c.transform.TranslateX != 0 || c.transform.TranslateY != 0 {
			c.transform.TranslateX = 0
			c.transform.TranslateY = 0
			c.request()
		}
	}
}

func (c *Controller) pointerDist() float64 {
	pts := make([]geometry.Point, 0, 2)
	for _, p := range c.pointers {
		pts = append(pts, p)
	}
	if len(pts) < 2 {
		return 0
	}
	return pts[0].Dist(pts[1])
}

func (c *Controller) fireScaleChange() {
	if c.onScaleChange != nil {
		c.onScaleChange(c.transform.Scale)
	}
}

func (c *Controller) request() {
	if c.requestFrame != nil {
		c.requestFrame()
	}
}

func clampScale(s float64) float64 {
	if s < minScale {
		return minScale
	}
	if s > maxScale {
		return maxScale
	}
	return s
}
