// Package viewer is the interactive window: a shiny event loop over the
// composed pages of a book, with pan/zoom gestures, OCR tap lookup, crop
// selection, the magnifier lens and an optional control socket. All viewer
// state mutates on the event loop; background decodes and socket clients
// reach it only through window events.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"sync"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"

	"github.com/example/mangalens/internal/book"
	"github.com/example/mangalens/internal/compose"
	"github.com/example/mangalens/internal/crop"
	"github.com/example/mangalens/internal/display"
	"github.com/example/mangalens/internal/gesture"
	"github.com/example/mangalens/internal/geometry"
	"github.com/example/mangalens/internal/imagecache"
	"github.com/example/mangalens/internal/lens"
	"github.com/example/mangalens/internal/ocr"
	"github.com/example/mangalens/internal/session"
	"github.com/example/mangalens/internal/theme"
	"github.com/example/mangalens/internal/webtoon"
)

const (
	bottomHeight = 24

	// frameDropThreshold specifies how many consecutive frames can be
	// canceled before a draw is allowed to complete to keep the UI
	// responsive.
	frameDropThreshold = 10

	messageDuration = 2 * time.Second

	// Fraction of the viewport width on each side that turns pages on an
	// un-zoomed tap.
	tapZoneFraction = 0.2

	// Webtoon scroll distance per wheel notch and per arrow key press.
	wheelScroll = 120.0
	keyScroll   = 120.0

	defaultWidth  = 1280
	defaultHeight = 900
)

// Viewer owns one book and one window.
type Viewer struct {
	book *book.Book

	title         string
	lang          string
	monitor       string
	sessionName   string
	sessionDir    string
	th            *theme.Theme
	lensZoom      float64
	lensSize      int
	popupTextSize float64

	mode          compose.Mode
	direction     compose.Direction
	overlay       compose.OverlayStyle
	pairing       compose.Pairing
	compare       bool
	compareLayout compose.CompareLayout
	startPage     int

	onOCRClick    func(text string, block ocr.Block)
	onCrop        func(img image.Image, box image.Rectangle)
	onPageChange  func(index int)
	onScaleChange func(scale float64)

	comp    *compose.Compositor
	gest    *gesture.Controller
	tracker *webtoon.Tracker
	loupe   *lens.Lens
	sel     crop.Selector
	cache   *imagecache.Cache

	width, height int
	scrollTop     float64
	cropArmed     bool
	lensOn        bool

	panelText   string
	activeBox   geometry.Rect
	activeIndex int
	popup       *popupBox

	message      string
	messageUntil time.Time
	gotoBuf      string

	actions        map[string]func()
	keyboardAction map[keyShortcut]string
	quitRequested  bool

	updateCh  chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once
	onClose   func()
}

// Option modifies a Viewer during creation.
type Option func(*Viewer)

// WithTitle sets the window title.
func WithTitle(t string) Option { return func(v *Viewer) { v.title = t } }

// WithLang sets the language used to join OCR lines.
func WithLang(lang string) Option { return func(v *Viewer) { v.lang = lang } }

// WithTheme sets the color palette.
func WithTheme(th *theme.Theme) Option { return func(v *Viewer) { v.th = th } }

// WithMonitor selects the monitor the initial window size derives from.
func WithMonitor(sel string) Option { return func(v *Viewer) { v.monitor = sel } }

// WithSession serves a control socket under the given session name.
func WithSession(name string) Option { return func(v *Viewer) { v.sessionName = name } }

// WithSessionDir overrides the control socket directory.
func WithSessionDir(dir string) Option { return func(v *Viewer) { v.sessionDir = dir } }

// WithMode sets the initial page view mode.
func WithMode(m compose.Mode) Option { return func(v *Viewer) { v.mode = m } }

// WithDirection sets the initial reading direction.
func WithDirection(d compose.Direction) Option {
	return func(v *Viewer) { v.direction = d }
}

// WithOverlay sets the initial overlay style.
func WithOverlay(o compose.OverlayStyle) Option {
	return func(v *Viewer) { v.overlay = o }
}

// WithPairing sets the double-mode spread pairing.
func WithPairing(p compose.Pairing) Option { return func(v *Viewer) { v.pairing = p } }

// WithCompare enables compare display with the given layout.
func WithCompare(l compose.CompareLayout) Option {
	return func(v *Viewer) {
		v.compare = true
		v.compareLayout = l
	}
}

// WithPage sets the starting page (zero-based).
func WithPage(i int) Option { return func(v *Viewer) { v.startPage = i } }

// WithLens sets the magnifier diameter and zoom.
func WithLens(size int, zoom float64) Option {
	return func(v *Viewer) {
		v.lensSize = size
		v.lensZoom = zoom
	}
}

// WithPopupTextSize sets the popup font size in points.
func WithPopupTextSize(size float64) Option {
	return func(v *Viewer) { v.popupTextSize = size }
}

// WithOCRClickHandler sets the callback for a resolved OCR tap.
func WithOCRClickHandler(fn func(text string, block ocr.Block)) Option {
	return func(v *Viewer) { v.onOCRClick = fn }
}

// WithCropHandler sets the callback for a resolved crop.
func WithCropHandler(fn func(img image.Image, box image.Rectangle)) Option {
	return func(v *Viewer) { v.onCrop = fn }
}

// WithPageChangeHandler sets the callback fired when the current page
// changes, by navigation or by webtoon scrolling.
func WithPageChangeHandler(fn func(index int)) Option {
	return func(v *Viewer) { v.onPageChange = fn }
}

// WithScaleChangeHandler sets the callback fired when the zoom changes.
func WithScaleChangeHandler(fn func(scale float64)) Option {
	return func(v *Viewer) { v.onScaleChange = fn }
}

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(v *Viewer) { v.onClose = fn } }

// New creates a Viewer over an opened book. The book stays open for the
// viewer's lifetime; Run closes it.
func New(b *book.Book, opts ...Option) (*Viewer, error) {
	if b == nil || b.Len() == 0 {
		return nil, errors.New("viewer: empty book")
	}
	v := &Viewer{
		book:          b,
		title:         b.Name(),
		lang:          "ja",
		th:            theme.Default(),
		lensZoom:      lens.DefaultZoom,
		lensSize:      lens.DefaultSize,
		popupTextSize: 16,
		width:         defaultWidth,
		height:        defaultHeight,
		activeIndex:   -1,
		updateCh:      make(chan struct{}, 1),
		loopDone:      make(chan struct{}),
	}
	for _, o := range opts {
		o(v)
	}
	v.comp = compose.New(
		compose.WithMode(v.mode),
		compose.WithDirection(v.direction),
		compose.WithOverlay(v.overlay),
		compose.WithPairing(v.pairing),
		compose.WithCompareLayout(v.compareLayout),
	)
	v.comp.SetCompare(v.compare)
	v.comp.SetPages(buildPages(b))
	v.comp.SetCurrent(v.startPage)
	v.loupe = lens.New(v.lensSize, v.lensZoom)
	v.gest = gesture.New(
		gesture.WithTapHandler(v.tap),
		gesture.WithScaleHandler(v.scaleChanged),
		gesture.WithFrameRequest(v.requestFrame),
	)
	v.tracker = webtoon.New(
		webtoon.WithPageChangeHandler(v.webtoonPageChanged),
		webtoon.WithLoadHandler(v.warmPage),
	)
	v.cache = imagecache.New(v.openSource, imagecache.WithLoadListener(func(string) {
		v.requestFrame()
	}))
	v.initActions()
	v.relayoutStrip()
	return v, nil
}

// buildPages turns the book's page records into compositor pages, probing
// each image header for its natural size and loading OCR sidecars. A page
// whose header cannot be read keeps zero dimensions and lays out with the
// fallback aspect until its decode settles.
func buildPages(b *book.Book) []compose.Page {
	pages := make([]compose.Page, 0, b.Len())
	for i := 0; i < b.Len(); i++ {
		rec, _ := b.Page(i)
		p := compose.Page{Handle: rec.Name}
		w, h, err := b.Dimensions(i)
		if err != nil {
			log.Printf("page %s: %v", rec.Name, err)
		} else {
			p.NaturalW, p.NaturalH = w, h
		}
		data, err := b.OCR(i)
		if err != nil {
			log.Printf("ocr %s: %v", rec.Sidecar, err)
		} else {
			p.OCR = data
		}
		pages = append(pages, p)
		if rec.Translated == "" {
			continue
		}
		t := compose.Page{Handle: rec.Translated, Translated: true}
		if w, h, err := b.TranslatedDimensions(i); err != nil {
			log.Printf("page %s: %v", rec.Translated, err)
		} else {
			t.NaturalW, t.NaturalH = w, h
		}
		if data, err := b.TranslatedOCR(i); err != nil {
			log.Printf("ocr %s: %v", rec.TranslatedSidecar, err)
		} else {
			t.OCR = data
		}
		pages = append(pages, t)
	}
	return pages
}

func (v *Viewer) openSource(name string) (io.ReadCloser, error) {
	return v.book.FS().Open(name)
}

// requestFrame pokes the paint bridge. Safe from any goroutine; pokes
// between frames collapse into one.
func (v *Viewer) requestFrame() {
	select {
	case v.updateCh <- struct{}{}:
	default:
	}
}

func (v *Viewer) notifyClose() {
	v.closeOnce.Do(func() {
		if v.onClose != nil {
			v.onClose()
		}
	})
}

// Run executes the UI loop using shiny's driver. It returns when the
// window closes and closes the book on the way out.
func (v *Viewer) Run() {
	defer func() {
		if err := v.book.Close(); err != nil {
			log.Printf("close book: %v", err)
		}
	}()
	driver.Main(v.main)
}

// commandEvent carries one control-socket line onto the event loop.
type commandEvent struct {
	line   string
	out    io.Writer
	result chan commandResult
}

type commandResult struct {
	quit bool
	err  error
}

// quitEvent asks the loop to shut down, sent by the control socket.
type quitEvent struct{}

func (v *Viewer) main(s screen.Screen) {
	v.width, v.height = v.windowSize()
	w, err := s.NewWindow(&screen.NewWindowOptions{
		Width:  v.width,
		Height: v.height,
		Title:  v.windowTitle(),
	})
	if err != nil {
		log.Fatalf("new window: %v", err)
	}
	defer w.Release()
	defer v.notifyClose()

	var srv *session.Server
	if v.sessionName != "" {
		srv, err = v.serveSession(w)
		if err != nil {
			log.Printf("session: %v", err)
		}
	}
	defer func() {
		close(v.loopDone)
		if srv != nil {
			srv.Shutdown()
		}
	}()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-v.updateCh:
				w.Send(paint.Event{})
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
		}
	}()
	cancelPaint := func() {
		paintMu.Lock()
		if paintCancel != nil {
			paintCancel()
		}
		paintMu.Unlock()
	}

	v.gest.SetAnchor(v.viewport().Center())
	v.firePageChange()

	// Webtoon drag scrolling shares the pointer with tap classification.
	var dragScroll bool
	var dragLastY float64

	w.Send(paint.Event{})
	for {
		e := w.NextEvent()
		switch e := e.(type) {
		case quitEvent:
			cancelPaint()
			return

		case commandEvent:
			res := commandResult{}
			res.quit, res.err = v.executeCommand(e.line, e.out)
			e.result <- res
			if res.quit {
				cancelPaint()
				return
			}
			w.Send(paint.Event{})

		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				cancelPaint()
				return
			}
			if e.Crosses(lifecycle.StageFocused) == lifecycle.CrossOff {
				v.gest.CancelAll()
				if v.sel.Dragging() {
					v.sel.Cancel()
				}
				v.loupe.EndDrag()
				dragScroll = false
				w.Send(paint.Event{})
			}

		case size.Event:
			v.width = e.WidthPx
			v.height = e.HeightPx
			v.gest.SetAnchor(v.viewport().Center())
			v.relayoutStrip()
			w.Send(paint.Event{})

		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil {
				if dropCount < frameDropThreshold {
					paintCancel()
					dropCount++
				}
			}
			paintMu.Unlock()
			st := v.snapshot()
			select {
			case paintCh <- st:
			default:
				<-paintCh
				paintCh <- st
			}

		case mouse.Event:
			p := geometry.Pt(float64(e.X), float64(e.Y))
			if e.Direction == mouse.DirPress && isWheelButton(e.Button) {
				v.wheel(wheelSteps(e.Button), p)
				w.Send(paint.Event{})
				continue
			}
			switch e.Direction {
			case mouse.DirPress:
				if e.Button != mouse.ButtonLeft {
					continue
				}
				if v.message != "" && time.Now().Before(v.messageUntil) {
					v.messageUntil = time.Time{}
				}
				if v.popup != nil {
					v.popup = nil
					w.Send(paint.Event{})
					continue
				}
				if v.lensOn && v.loupe.StartDrag(p) {
					w.Send(paint.Event{})
					continue
				}
				if v.cropArmed {
					v.sel.Start(p)
					w.Send(paint.Event{})
					continue
				}
				if v.comp.Mode() == compose.ModeWebtoon {
					dragScroll = true
					dragLastY = p.Y
				}
				v.gest.Down(0, p)
			case mouse.DirRelease:
				if e.Button != mouse.ButtonLeft {
					continue
				}
				if v.loupe.Dragging() {
					v.loupe.EndDrag()
					continue
				}
				if v.sel.Dragging() {
					v.finishCrop(p)
					w.Send(paint.Event{})
					continue
				}
				dragScroll = false
				v.gest.Up(0, p)
			case mouse.DirNone:
				if v.lensOn {
					if v.loupe.Dragging() {
						v.loupe.Drag(p)
					} else {
						v.loupe.MoveTo(p)
					}
					w.Send(paint.Event{})
				}
				if v.sel.Dragging() {
					v.sel.Update(p)
					w.Send(paint.Event{})
					continue
				}
				if dragScroll {
					v.scrollBy(dragLastY - p.Y)
					dragLastY = p.Y
					w.Send(paint.Event{})
				}
				v.gest.Move(0, p)
			}

		case touch.Event:
			id := int64(e.Sequence) + 1
			p := geometry.Pt(float64(e.X), float64(e.Y))
			switch e.Type {
			case touch.TypeBegin:
				v.gest.Down(id, p)
			case touch.TypeMove:
				v.gest.Move(id, p)
			case touch.TypeEnd:
				v.gest.Up(id, p)
			}

		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			if v.handleGotoKey(e) {
				w.Send(paint.Event{})
				continue
			}
			if name, ok := v.lookupShortcut(e); ok {
				if quit := v.runAction(name); quit {
					cancelPaint()
					return
				}
				w.Send(paint.Event{})
				continue
			}
			if v.handleArrowKey(e) {
				w.Send(paint.Event{})
			}
		}
	}
}

// serveSession starts the control socket server. Received lines run on
// the event loop; the handler blocks its connection until the loop
// answers or closes.
func (v *Viewer) serveSession(w screen.Window) (*session.Server, error) {
	dir, err := session.ResolveDir(v.sessionDir)
	if err != nil {
		return nil, err
	}
	name := session.SanitizeName(v.sessionName)
	srv, err := session.NewServer(dir, name, func(line string, out, errw io.Writer) (bool, error) {
		ev := commandEvent{line: line, out: out, result: make(chan commandResult, 1)}
		w.Send(ev)
		select {
		case res := <-ev.result:
			return res.quit, res.err
		case <-v.loopDone:
			return false, errors.New("viewer closed")
		}
	})
	if err != nil {
		return nil, err
	}
	srv.OnShutdown = func() {
		select {
		case <-v.loopDone:
		default:
			w.Send(quitEvent{})
		}
	}
	go func() {
		if err := srv.Run(); err != nil {
			log.Printf("session server: %v", err)
		}
	}()
	log.Printf("serving session %s", name)
	return srv, nil
}

// windowSize derives the initial window size from the selected monitor,
// falling back to a fixed default without a display connection.
func (v *Viewer) windowSize() (int, int) {
	monitors, err := display.Monitors()
	if err != nil {
		log.Printf("display: %v (using default window size)", err)
		return defaultWidth, defaultHeight
	}
	m, err := display.Find(monitors, v.monitor)
	if err != nil {
		log.Printf("display: %v (using default window size)", err)
		return defaultWidth, defaultHeight
	}
	return m.Rect.Dx() * 4 / 5, m.Rect.Dy() * 9 / 10
}

func (v *Viewer) windowTitle() string {
	return fmt.Sprintf("mangalens - %s - %d pages", v.title, v.comp.PageCount())
}

// viewport is the page area: the window minus the bottom bar.
func (v *Viewer) viewport() geometry.Rect {
	h := float64(v.height - bottomHeight)
	if h < 0 {
		h = 0
	}
	return geometry.R(0, 0, float64(v.width), h)
}

// composeFrame builds the current frame for hit testing and painting.
func (v *Viewer) composeFrame() compose.Frame {
	vp := v.viewport()
	if v.comp.Mode() == compose.ModeWebtoon {
		return v.comp.ComposeStrip(vp, v.scrollTop)
	}
	return v.comp.Compose(vp, v.gest.Transform())
}

// resolveSlots looks up the decoded image for each slot. Webtoon slots
// outside the tracker's load margin stay nil without touching the cache,
// so scrolling cannot warm pages the tracker has not requested.
func (v *Viewer) resolveSlots(f compose.Frame) []image.Image {
	webtoonMode := v.comp.Mode() == compose.ModeWebtoon
	pix := make([]image.Image, len(f.Slots))
	for i, slot := range f.Slots {
		if webtoonMode && !v.tracker.Loaded(slot.Index) {
			continue
		}
		img, status := v.cache.Get(slot.Page.Handle)
		if status == imagecache.StatusReady {
			pix[i] = img
		}
	}
	return pix
}

func (v *Viewer) relayoutStrip() {
	rects := v.comp.Strip(v.viewport().Width())
	extents := make([]webtoon.Extent, len(rects))
	for i, r := range rects {
		extents[i] = webtoon.Extent{Top: r.Y1, Height: r.Height()}
	}
	v.tracker.Relayout(extents)
	v.clampScroll()
	if v.comp.Mode() == compose.ModeWebtoon {
		v.tracker.Scroll(v.scrollTop, v.viewport().Height())
	}
}

func (v *Viewer) clampScroll() {
	max := v.comp.StripHeight(v.viewport().Width()) - v.viewport().Height()
	if max < 0 {
		max = 0
	}
	if v.scrollTop > max {
		v.scrollTop = max
	}
	if v.scrollTop < 0 {
		v.scrollTop = 0
	}
}

func (v *Viewer) scrollBy(dy float64) {
	if v.comp.Mode() != compose.ModeWebtoon {
		return
	}
	v.scrollTop += dy
	v.clampScroll()
	v.tracker.Scroll(v.scrollTop, v.viewport().Height())
}

// wheel routes a scroll notch: webtoon scrolls, a hovered lens adjusts
// its magnification, pagination zooms about the cursor.
func (v *Viewer) wheel(steps float64, p geometry.Point) {
	if v.comp.Mode() == compose.ModeWebtoon {
		v.scrollBy(-steps * wheelScroll)
		return
	}
	if v.lensOn && p.Dist(v.loupe.Center()) <= float64(v.loupe.Size())/2 {
		v.loupe.AdjustZoom(steps)
		return
	}
	v.gest.Wheel(steps, p)
}

func isWheelButton(b mouse.Button) bool {
	return b == mouse.ButtonWheelUp || b == mouse.ButtonWheelDown
}

func wheelSteps(b mouse.Button) float64 {
	if b == mouse.ButtonWheelUp {
		return 1
	}
	return -1
}

// tap resolves a classified tap: OCR lookup first, then the page-turn
// zones at the viewport edges.
func (v *Viewer) tap(p geometry.Point) {
	if v.lensOn || v.cropArmed {
		return
	}
	f := v.composeFrame()
	var hit compose.Hit
	var ok bool
	if f.Overlay == compose.OverlayPopup {
		hit, ok = f.HitPopup(p, v.lang)
	} else {
		hit, ok = f.HitPanel(p, v.lang)
	}
	if ok {
		v.activeBox = hit.Block.Box
		v.activeIndex = hit.Index
		if f.Overlay == compose.OverlayPopup {
			v.popup = v.buildPopup(hit.Text, p)
		} else {
			v.panelText = hit.Text
		}
		if v.onOCRClick != nil {
			v.onOCRClick(hit.Text, *hit.Block)
		}
		v.requestFrame()
		return
	}
	if zone := v.pageTurnZone(p); zone != 0 {
		if zone > 0 {
			v.nextPage()
		} else {
			v.prevPage()
		}
	}
}

// pageTurnZone classifies a tap against the edge strips: +1 advances,
// -1 goes back, 0 is neither. Reading direction decides which edge
// advances; webtoon mode and zoomed content have no tap zones.
func (v *Viewer) pageTurnZone(p geometry.Point) int {
	if v.comp.Mode() == compose.ModeWebtoon {
		return 0
	}
	if v.gest.Scale() > 1.01 {
		return 0
	}
	vp := v.viewport()
	zone := vp.Width() * tapZoneFraction
	var left bool
	switch {
	case p.X <= vp.X1+zone:
		left = true
	case p.X >= vp.X2-zone:
		left = false
	default:
		return 0
	}
	if v.comp.Direction() == compose.DirectionRTL {
		if left {
			return 1
		}
		return -1
	}
	if left {
		return -1
	}
	return 1
}

func (v *Viewer) finishCrop(p geometry.Point) {
	f := v.composeFrame()
	pix := v.resolveSlots(f)
	targets := make([]crop.Target, 0, len(f.Slots))
	for i, slot := range f.Slots {
		if pix[i] == nil {
			continue
		}
		targets = append(targets, crop.Target{Index: slot.Index, Rect: slot.Rect, Source: pix[i]})
	}
	res, ok := v.sel.Finish(p, targets)
	if !ok {
		return
	}
	v.cropArmed = false
	v.showMessage(fmt.Sprintf("cropped %dx%d", res.Box.Dx(), res.Box.Dy()))
	if v.onCrop != nil {
		v.onCrop(res.Image, res.Box)
	}
}

func (v *Viewer) lensTargets(f compose.Frame, pix []image.Image) []lens.Target {
	targets := make([]lens.Target, 0, len(f.Slots))
	for i, slot := range f.Slots {
		if pix[i] == nil {
			continue
		}
		targets = append(targets, lens.Target{Rect: slot.Rect, Source: pix[i]})
	}
	return targets
}

// clearTransient drops tap-scoped state when the visible page set
// changes.
func (v *Viewer) clearTransient() {
	v.panelText = ""
	v.popup = nil
	v.activeBox = geometry.Rect{}
	v.activeIndex = -1
	v.sel.Cancel()
}

func (v *Viewer) firePageChange() {
	if v.onPageChange != nil {
		v.onPageChange(v.comp.Current())
	}
	v.warmNeighbors()
}

// warmNeighbors starts background decodes for the pages around the
// current one so pagination flips land on settled entries.
func (v *Viewer) warmNeighbors() {
	if v.comp.Mode() == compose.ModeWebtoon {
		return
	}
	for _, i := range []int{v.comp.Current() - 1, v.comp.Current(), v.comp.Current() + 1} {
		if p, ok := v.comp.Page(i); ok {
			v.cache.Get(p.Handle)
		}
		if t, ok := v.comp.Counterpart(i); ok {
			v.cache.Get(t.Handle)
		}
	}
}

func (v *Viewer) warmPage(i int) {
	if p, ok := v.comp.Page(i); ok {
		v.cache.Get(p.Handle)
	}
}

// webtoonPageChanged reports scroll-settled page changes; the jump came
// from the reader, so the compositor follows without a counter-scroll.
func (v *Viewer) webtoonPageChanged(i int) {
	v.comp.SetCurrent(i)
	if v.onPageChange != nil {
		v.onPageChange(i)
	}
	v.requestFrame()
}

func (v *Viewer) scaleChanged(s float64) {
	if v.onScaleChange != nil {
		v.onScaleChange(s)
	}
}

func (v *Viewer) gotoPage(i int) {
	changed := v.comp.SetCurrent(i)
	v.afterNavigation(changed)
}

func (v *Viewer) nextPage() {
	v.afterNavigation(v.comp.Next())
}

func (v *Viewer) prevPage() {
	v.afterNavigation(v.comp.Prev())
}

func (v *Viewer) afterNavigation(changed bool) {
	if !changed {
		return
	}
	if v.comp.Mode() == compose.ModeWebtoon {
		if top, ok := v.tracker.JumpTo(v.comp.Current()); ok {
			v.scrollTop = top
			v.clampScroll()
			v.tracker.Scroll(v.scrollTop, v.viewport().Height())
		}
	}
	v.gest.Reset()
	v.clearTransient()
	v.firePageChange()
	v.requestFrame()
}

func (v *Viewer) setMode(m compose.Mode) {
	if v.comp.Mode() == m {
		return
	}
	v.comp.SetMode(m)
	v.afterModeSwitch()
}

func (v *Viewer) cycleMode() {
	v.comp.CycleMode()
	v.afterModeSwitch()
}

func (v *Viewer) afterModeSwitch() {
	if v.comp.Mode() == compose.ModeWebtoon {
		v.relayoutStrip()
		if top, ok := v.tracker.JumpTo(v.comp.Current()); ok {
			v.scrollTop = top
			v.clampScroll()
		}
		v.tracker.Scroll(v.scrollTop, v.viewport().Height())
	}
	v.gest.Reset()
	v.clearTransient()
	v.showMessage("mode: " + v.comp.Mode().String())
	v.requestFrame()
}

func (v *Viewer) setDirection(d compose.Direction) {
	if v.comp.Direction() == d {
		return
	}
	v.comp.SetDirection(d)
	v.showMessage("direction: " + d.String())
	v.requestFrame()
}

func (v *Viewer) setOverlay(o compose.OverlayStyle) {
	if v.comp.Overlay() == o {
		return
	}
	v.comp.SetOverlay(o)
	v.clearTransient()
	v.showMessage("overlay: " + o.String())
	v.requestFrame()
}

func (v *Viewer) setCompare(on bool) {
	if v.comp.Compare() == on {
		return
	}
	v.comp.SetCompare(on)
	v.gest.Reset()
	v.clearTransient()
	if on {
		v.showMessage("compare on")
	} else {
		v.showMessage("compare off")
	}
	v.requestFrame()
}

// setLens switches the magnifier. Arming it tears down a crop in
// progress; the two never run together.
func (v *Viewer) setLens(on bool) {
	if v.lensOn == on {
		return
	}
	v.lensOn = on
	if on {
		v.cropArmed = false
		v.sel.Cancel()
		v.showMessage("lens on")
	} else {
		v.loupe.EndDrag()
		v.showMessage("lens off")
	}
	v.requestFrame()
}

// setCrop arms or disarms crop selection, tearing down the lens.
func (v *Viewer) setCrop(on bool) {
	if v.cropArmed == on {
		return
	}
	v.cropArmed = on
	if on {
		v.lensOn = false
		v.loupe.EndDrag()
		v.showMessage("crop: drag to select")
	} else {
		v.sel.Cancel()
		v.showMessage("crop off")
	}
	v.requestFrame()
}

func (v *Viewer) showMessage(msg string) {
	v.message = msg
	log.Print(msg)
	v.messageUntil = time.Now().Add(messageDuration)
}

// dismiss clears whatever transient surface is up, one per press.
func (v *Viewer) dismiss() {
	switch {
	case v.gotoBuf != "":
		v.gotoBuf = ""
	case v.popup != nil:
		v.popup = nil
	case v.sel.Dragging():
		v.sel.Cancel()
	case v.cropArmed:
		v.setCrop(false)
	case v.panelText != "":
		v.panelText = ""
		v.activeIndex = -1
		v.activeBox = geometry.Rect{}
	default:
		v.messageUntil = time.Time{}
	}
	v.requestFrame()
}

// handleGotoKey accumulates a go-to-page number. It reports whether the
// key was consumed.
func (v *Viewer) handleGotoKey(e key.Event) bool {
	mods := e.Modifiers &^ key.ModShift
	if v.gotoBuf == "" {
		if e.Rune >= '1' && e.Rune <= '9' && mods == 0 {
			v.gotoBuf = string(e.Rune)
			return true
		}
		return false
	}
	switch {
	case e.Rune >= '0' && e.Rune <= '9' && mods == 0:
		if len(v.gotoBuf) < 5 {
			v.gotoBuf += string(e.Rune)
		}
		return true
	case e.Code == key.CodeReturnEnter:
		n := 0
		for _, r := range v.gotoBuf {
			n = n*10 + int(r-'0')
		}
		v.gotoBuf = ""
		v.gotoPage(n - 1)
		return true
	case e.Code == key.CodeDeleteBackspace:
		v.gotoBuf = v.gotoBuf[:len(v.gotoBuf)-1]
		return true
	case e.Code == key.CodeEscape:
		v.gotoBuf = ""
		return true
	}
	v.gotoBuf = ""
	return false
}

// handleArrowKey routes the arrow keys: horizontal arrows turn pages
// following the reading direction, vertical arrows scroll the webtoon
// strip. It reports whether the key did anything.
func (v *Viewer) handleArrowKey(e key.Event) bool {
	switch e.Code {
	case key.CodeLeftArrow:
		if v.comp.Mode() == compose.ModeWebtoon {
			return false
		}
		if v.comp.Direction() == compose.DirectionRTL {
			v.nextPage()
		} else {
			v.prevPage()
		}
		return true
	case key.CodeRightArrow:
		if v.comp.Mode() == compose.ModeWebtoon {
			return false
		}
		if v.comp.Direction() == compose.DirectionRTL {
			v.prevPage()
		} else {
			v.nextPage()
		}
		return true
	case key.CodeUpArrow:
		if v.comp.Mode() != compose.ModeWebtoon {
			return false
		}
		v.scrollBy(-keyScroll)
		return true
	case key.CodeDownArrow:
		if v.comp.Mode() != compose.ModeWebtoon {
			return false
		}
		v.scrollBy(keyScroll)
		return true
	}
	return false
}
