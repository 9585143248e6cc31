// Package webtoon drives the continuous-scroll layout: virtualized one-shot
// image loading around the viewport and detection of the page the reader is
// on. It works on plain vertical extents in content coordinates and never
// touches the pan/zoom transform.
package webtoon

import "time"

const (
	// Pages start loading this far outside the viewport. Once a page has
	// been reported loadable it never goes back, so fast scroll-back never
	// flickers or refetches.
	loadMargin = 1000.0

	// Active-page candidates outside this margin are skipped without a
	// distance computation, keeping the scan proportional to the visible
	// window rather than the book length.
	pruneMargin = 500.0

	// Minimum interval between active-page recomputations. Scroll events
	// arrive far more often than paint.
	debounceInterval = 100 * time.Millisecond

	// After a programmatic jump the detector stays quiet this long so the
	// jump cannot echo back as a conflicting page report.
	jumpCooldown = 350 * time.Millisecond
)

// Extent is one page's vertical slot in content coordinates.
type Extent struct {
	Top    float64
	Height float64
}

// Bottom returns the extent's lower edge.
func (e Extent) Bottom() float64 { return e.Top + e.Height }

func (e Extent) center() float64 { return e.Top + e.Height/2 }

// Tracker watches the scroll position of a webtoon layout.
type Tracker struct {
	extents []Extent
	loaded  []bool
	active  int

	now           func() time.Time
	lastScan      time.Time
	suppressUntil time.Time

	onPageChange func(int)
	onLoad       func(int)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithPageChangeHandler sets the callback fired when the active page
// changes through scrolling.
func WithPageChangeHandler(fn func(int)) Option {
	return func(t *Tracker) { t.onPageChange = fn }
}

// WithLoadHandler sets the callback fired exactly once per page when it
// enters the load margin.
func WithLoadHandler(fn func(int)) Option {
	return func(t *Tracker) { t.onLoad = fn }
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New returns a tracker with no pages.
func New(opts ...Option) *Tracker {
	t := &Tracker{now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Reset installs the layout for a new book: every page back to unloaded,
// active page zero.
func (t *Tracker) Reset(extents []Extent) {
	t.extents = extents
	t.loaded = make([]bool, len(extents))
	t.active = 0
	t.lastScan = time.Time{}
	t.suppressUntil = time.Time{}
}

// Relayout replaces the extents after a window resize, keeping load state.
// A length change falls back to Reset.
func (t *Tracker) Relayout(extents []Extent) {
	if len(extents) != len(t.extents) {
		t.Reset(extents)
		return
	}
	t.extents = extents
}

// Active returns the current page index.
func (t *Tracker) Active() int { return t.active }

// Loaded reports whether page i has been promoted from placeholder.
func (t *Tracker) Loaded(i int) bool {
	return i >= 0 && i < len(t.loaded) && t.loaded[i]
}

// Scroll processes a new viewport position. Lazy loading runs on every
// call; active-page detection is debounced and suppressed during jump
// cooldowns.
func (t *Tracker) Scroll(viewportTop, viewportHeight float64) {
	t.checkLoads(viewportTop, viewportHeight)

	now := t.now()
	if now.Before(t.suppressUntil) {
		return
	}
	if !t.lastScan.IsZero() && now.Sub(t.lastScan) < debounceInterval {
		return
	}
	t.lastScan = now

	best := t.nearestCenter(viewportTop, viewportHeight)
	if best >= 0 && best != t.active {
		t.active = best
		if t.onPageChange != nil {
			t.onPageChange(best)
		}
	}
}

// JumpTo prepares a programmatic scroll to page index: it returns the
// content offset to scroll to and arms the detection cooldown. The caller
// performs the scroll. Out-of-range indexes return ok false.
func (t *Tracker) JumpTo(index int) (top float64, ok bool) {
	if index < 0 || index >= len(t.extents) {
		return 0, false
	}
	t.active = index
	t.suppressUntil = t.now().Add(jumpCooldown)
	return t.extents[index].Top, true
}

func (t *Tracker) checkLoads(viewportTop, viewportHeight float64) {
	loadTop := viewportTop - loadMargin
	loadBottom := viewportTop + viewportHeight + loadMargin
	for i, e := range t.extents {
		if t.loaded[i] {
			continue
		}
		if e.Bottom() < loadTop {
			continue
		}
		if e.Top > loadBottom {
			break
		}
		t.loaded[i] = true
		if t.onLoad != nil {
			t.onLoad(i)
		}
	}
}

// nearestCenter returns the index whose center is closest to the viewport
// center, or -1 when every page is outside the prune margin.
func (t *Tracker) nearestCenter(viewportTop, viewportHeight float64) int {
	viewportBottom := viewportTop + viewportHeight
	viewportCenter := viewportTop + viewportHeight/2

	best := -1
	bestDist := 0.0
	for i, e := range t.extents {
		if e.Bottom() < viewportTop-pruneMargin {
			continue
		}
		if e.Top > viewportBottom+pruneMargin {
			break
		}
		d := e.center() - viewportCenter
		if d < 0 {
			d = -d
		}
		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
