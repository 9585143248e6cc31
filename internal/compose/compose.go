// Package compose resolves which pages of a book are on screen and where.
// The compositor is a dispatcher: from the page view mode, reading
// direction and compare settings it selects the subset and order of pages
// for the current frame, while the gesture controller separately owns the
// transform applied to the composed content.
package compose

import (
	"fmt"
	"strings"

	"github.com/example/mangalens/internal/geometry"
	"github.com/example/mangalens/internal/ocr"
)

// Mode selects the page arrangement.
type Mode int

const (
	ModeSingle Mode = iota
	ModeDouble
	ModeWebtoon
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeDouble:
		return "double"
	case ModeWebtoon:
		return "webtoon"
	default:
		return "single"
	}
}

// ParseMode resolves a configuration or command value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "1":
		return ModeSingle, nil
	case "double", "2", "spread":
		return ModeDouble, nil
	case "webtoon", "scroll", "continuous":
		return ModeWebtoon, nil
	}
	return ModeSingle, fmt.Errorf("unknown page mode %q", s)
}

// Direction is the reading direction. It flips the render order of
// pagination arrangements only; webtoon is always top to bottom.
type Direction int

const (
	DirectionLTR Direction = iota
	DirectionRTL
)

// String returns the configuration name of the direction.
func (d Direction) String() string {
	if d == DirectionRTL {
		return "rtl"
	}
	return "ltr"
}

// ParseDirection resolves a configuration or command value to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ltr", "left-to-right":
		return DirectionLTR, nil
	case "rtl", "right-to-left":
		return DirectionRTL, nil
	}
	return DirectionLTR, fmt.Errorf("unknown reading direction %q", s)
}

// OverlayStyle selects how OCR blocks are presented: an event-absorbing
// text panel, or outline-only boxes with a popup on tap.
type OverlayStyle int

const (
	OverlayPanel OverlayStyle = iota
	OverlayPopup
)

// String returns the configuration name of the overlay style.
func (o OverlayStyle) String() string {
	if o == OverlayPopup {
		return "popup"
	}
	return "panel"
}

// ParseOverlay resolves a configuration or command value to an OverlayStyle.
func ParseOverlay(s string) (OverlayStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "panel":
		return OverlayPanel, nil
	case "popup":
		return OverlayPopup, nil
	}
	return OverlayPanel, fmt.Errorf("unknown overlay style %q", s)
}

// Pairing controls how double mode groups pages into spreads.
type Pairing int

const (
	// PairingOffset keeps the first page alone, as book covers usually
	// face the reader by themselves, and pairs from page two on.
	PairingOffset Pairing = iota
	// PairingPlain pairs pages naively from the start.
	PairingPlain
)

// String returns the configuration name of the pairing.
func (p Pairing) String() string {
	if p == PairingPlain {
		return "plain"
	}
	return "offset"
}

// ParsePairing resolves a configuration or command value to a Pairing.
func ParsePairing(s string) (Pairing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "offset", "cover":
		return PairingOffset, nil
	case "plain", "naive":
		return PairingPlain, nil
	}
	return PairingOffset, fmt.Errorf("unknown pairing %q", s)
}

// CompareLayout arranges the original and its translation when compare
// display is enabled.
type CompareLayout int

const (
	CompareHorizontal CompareLayout = iota
	CompareVertical
)

// String returns the configuration name of the compare layout.
func (l CompareLayout) String() string {
	if l == CompareVertical {
		return "vertical"
	}
	return "horizontal"
}

// ParseCompareLayout resolves a configuration or command value to a
// CompareLayout.
func ParseCompareLayout(s string) (CompareLayout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "horizontal", "beside":
		return CompareHorizontal, nil
	case "vertical", "stacked":
		return CompareVertical, nil
	}
	return CompareHorizontal, fmt.Errorf("unknown compare layout %q", s)
}

// Page is one displayable image with its attached OCR data. Translated
// marks a translated rendition; in the page list handed to the compositor
// a translated page immediately follows the original it renders.
type Page struct {
	Handle     string
	NaturalW   int
	NaturalH   int
	OCR        *ocr.Data
	Translated bool
}

// Compositor resolves the page subset and order for the current frame.
// It holds no transform and no pointer state; settings are consumed from
// configuration through the setters and current-page navigation.
type Compositor struct {
	pages   []Page
	logical []int // indices into pages of the non-translated entries

	current       int
	mode          Mode
	direction     Direction
	overlay       OverlayStyle
	pairing       Pairing
	compare       bool
	compareLayout CompareLayout
}

// Option modifies a Compositor during creation.
type Option func(*Compositor)

// WithMode sets the initial page view mode.
func WithMode(m Mode) Option { return func(c *Compositor) { c.mode = m } }

// WithDirection sets the initial reading direction.
func WithDirection(d Direction) Option { return func(c *Compositor) { c.direction = d } }

// WithOverlay sets the initial overlay style.
func WithOverlay(o OverlayStyle) Option { return func(c *Compositor) { c.overlay = o } }

// WithPairing sets the double-mode spread pairing.
func WithPairing(p Pairing) Option { return func(c *Compositor) { c.pairing = p } }

// WithCompareLayout sets the compare arrangement.
func WithCompareLayout(l CompareLayout) Option { return func(c *Compositor) { c.compareLayout = l } }

// New creates a Compositor with the provided options and an empty page
// list.
func New(opts ...Option) *Compositor {
	c := &Compositor{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetPages replaces the page list wholesale. The current page is clamped
// into the new range. Callers reset the gesture transform alongside.
func (c *Compositor) SetPages(pages []Page) {
	c.pages = pages
	c.logical = c.logical[:0]
	for i, p := range pages {
		if !p.Translated {
			c.logical = append(c.logical, i)
		}
	}
	if c.current >= len(c.logical) {
		c.current = len(c.logical) - 1
	}
	if c.current < 0 {
		c.current = 0
	}
}

// PageCount reports the number of logical pages, not counting translated
// renditions.
func (c *Compositor) PageCount() int { return len(c.logical) }

// Page returns the logical page at index i.
func (c *Compositor) Page(i int) (Page, bool) {
	if i < 0 || i >= len(c.logical) {
		return Page{}, false
	}
	return c.pages[c.logical[i]], true
}

// Counterpart returns the translated rendition of logical page i, when
// the page list carries one.
func (c *Compositor) Counterpart(i int) (Page, bool) {
	if i < 0 || i >= len(c.logical) {
		return Page{}, false
	}
	raw := c.logical[i] + 1
	if raw < len(c.pages) && c.pages[raw].Translated {
		return c.pages[raw], true
	}
	return Page{}, false
}

// Current reports the current logical page index.
func (c *Compositor) Current() int { return c.current }

// SetCurrent jumps to logical page i, clamped into range, and reports
// whether the current page changed. In double mode the spread containing
// the page is displayed.
func (c *Compositor) SetCurrent(i int) bool {
	if len(c.logical) == 0 {
		return false
	}
	if i < 0 {
		i = 0
	}
	if i >= len(c.logical) {
		i = len(c.logical) - 1
	}
	if i == c.current {
		return false
	}
	c.current = i
	return true
}

// Next advances past the currently displayed pages and reports whether
// the current page changed. In double mode it steps a whole spread.
func (c *Compositor) Next() bool {
	vis := c.visibleLogical()
	if len(vis) == 0 {
		return false
	}
	target := vis[len(vis)-1] + 1
	if target >= len(c.logical) {
		return false
	}
	c.current = target
	return true
}

// Prev steps back before the currently displayed pages and reports
// whether the current page changed.
func (c *Compositor) Prev() bool {
	vis := c.visibleLogical()
	if len(vis) == 0 || vis[0] == 0 {
		return false
	}
	target := vis[0] - 1
	if c.mode == ModeDouble && !c.comparing() {
		target = c.spreadStart(target)
	}
	c.current = target
	return true
}

// Mode reports the page view mode.
func (c *Compositor) Mode() Mode { return c.mode }

// SetMode switches the page view mode.
func (c *Compositor) SetMode(m Mode) { c.mode = m }

// CycleMode steps single, double, webtoon and around, returning the new
// mode.
func (c *Compositor) CycleMode() Mode {
	switch c.mode {
	case ModeSingle:
		c.mode = ModeDouble
	case ModeDouble:
		c.mode = ModeWebtoon
	default:
		c.mode = ModeSingle
	}
	return c.mode
}

// Direction reports the reading direction.
func (c *Compositor) Direction() Direction { return c.direction }

// SetDirection switches the reading direction.
func (c *Compositor) SetDirection(d Direction) { c.direction = d }

// ToggleDirection flips the reading direction and returns the new one.
func (c *Compositor) ToggleDirection() Direction {
	if c.direction == DirectionLTR {
		c.direction = DirectionRTL
	} else {
		c.direction = DirectionLTR
	}
	return c.direction
}

// Overlay reports the overlay style.
func (c *Compositor) Overlay() OverlayStyle { return c.overlay }

// SetOverlay switches the overlay style.
func (c *Compositor) SetOverlay(o OverlayStyle) { c.overlay = o }

// ToggleOverlay flips the overlay style and returns the new one.
func (c *Compositor) ToggleOverlay() OverlayStyle {
	if c.overlay == OverlayPanel {
		c.overlay = OverlayPopup
	} else {
		c.overlay = OverlayPanel
	}
	return c.overlay
}

// Compare reports whether compare display is enabled.
func (c *Compositor) Compare() bool { return c.compare }

// SetCompare enables or disables compare display. Pages without a
// translated rendition fall back to the plain arrangement.
func (c *Compositor) SetCompare(on bool) { c.compare = on }

// CompareLayout reports the compare arrangement.
func (c *Compositor) CompareLayout() CompareLayout { return c.compareLayout }

// SetCompareLayout switches the compare arrangement.
func (c *Compositor) SetCompareLayout(l CompareLayout) { c.compareLayout = l }

// comparing reports whether the current page actually renders as a
// compare pair.
func (c *Compositor) comparing() bool {
	if !c.compare {
		return false
	}
	_, ok := c.Counterpart(c.current)
	return ok
}

// spreadStart returns the first logical page of the spread containing i.
func (c *Compositor) spreadStart(i int) int {
	if c.pairing == PairingOffset {
		if i == 0 {
			return 0
		}
		return i - (i-1)%2
	}
	return i - i%2
}

// spread returns the logical pages of the spread containing i, in
// reading order.
func (c *Compositor) spread(i int) []int {
	n := len(c.logical)
	if n == 0 {
		return nil
	}
	start := c.spreadStart(i)
	if c.pairing == PairingOffset && start == 0 {
		return []int{0}
	}
	if start+1 < n {
		return []int{start, start + 1}
	}
	return []int{start}
}

// visibleLogical returns the logical pages the current arrangement
// displays, in reading order.
func (c *Compositor) visibleLogical() []int {
	if len(c.logical) == 0 {
		return nil
	}
	if c.comparing() {
		return []int{c.current}
	}
	if c.mode == ModeDouble {
		return c.spread(c.current)
	}
	return []int{c.current}
}

// Visible returns the logical page indices the current arrangement
// displays, in reading order. Webtoon mode reports only the current page;
// the drawable subset there depends on the scroll position.
func (c *Compositor) Visible() []int { return c.visibleLogical() }

// arrange builds the undressed slot list for the current pagination
// arrangement, in reading order, and reports whether it is a compare
// pair.
func (c *Compositor) arrange() ([]Slot, bool) {
	if len(c.logical) == 0 {
		return nil, false
	}
	if c.compare {
		if t, ok := c.Counterpart(c.current); ok {
			orig := c.pages[c.logical[c.current]]
			return []Slot{
				{Index: c.current, Page: orig},
				{Index: c.current, Page: t},
			}, true
		}
	}
	if c.mode == ModeDouble {
		spread := c.spread(c.current)
		slots := make([]Slot, 0, len(spread))
		for _, i := range spread {
			slots = append(slots, Slot{Index: i, Page: c.pages[c.logical[i]]})
		}
		return slots, false
	}
	return []Slot{{Index: c.current, Page: c.pages[c.logical[c.current]]}}, false
}

// blockViewportRect maps an OCR block box into viewport space through a
// slot's on-screen rectangle.
func blockViewportRect(b ocr.Block, s Slot) geometry.Rect {
	return geometry.RectToViewport(b.Box, s.Rect, float64(s.Page.NaturalW), float64(s.Page.NaturalH))
}
