package viewer

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log"
	"strings"
	"time"

	"golang.org/x/exp/shiny/screen"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/mangalens/internal/compose"
	"github.com/example/mangalens/internal/geometry"
	"github.com/example/mangalens/internal/lens"
	"github.com/example/mangalens/internal/render"
	"github.com/example/mangalens/internal/theme"
)

// paintState is the immutable snapshot one frame draws from. The loop
// keeps mutating its own state while the paint goroutine works, so
// everything here is either copied by value or never written after the
// snapshot.
type paintState struct {
	width, height int
	th            *theme.Theme
	frame         compose.Frame
	pix           []image.Image
	activeIndex   int
	activeBox     geometry.Rect
	cropping      bool
	cropRect      image.Rectangle
	lensView      lens.View
	lensOK        bool
	panelText     string
	textSize      float64
	popup         *popupBox
	message       string
	messageUntil  time.Time
	status        string
	progress      float64
	gotoBuf       string
}

// popupBox is a prerendered popup bubble with its shadow baked in, ready
// to blit at a fixed point.
type popupBox struct {
	img *image.RGBA
	at  image.Point
}

func (v *Viewer) snapshot() paintState {
	f := v.composeFrame()
	pix := v.resolveSlots(f)
	st := paintState{
		width:        v.width,
		height:       v.height,
		th:           v.th,
		frame:        f,
		pix:          pix,
		activeIndex:  v.activeIndex,
		activeBox:    v.activeBox,
		panelText:    v.panelText,
		textSize:     v.popupTextSize,
		popup:        v.popup,
		message:      v.message,
		messageUntil: v.messageUntil,
		status:       v.statusLine(),
		gotoBuf:      v.gotoBuf,
	}
	if n := v.comp.PageCount(); n > 0 {
		st.progress = float64(v.comp.Current()+1) / float64(n)
	}
	if v.sel.Dragging() {
		st.cropping = true
		st.cropRect = v.sel.Rect().ImageRect()
	}
	if v.lensOn {
		if view, ok := v.loupe.View(v.lensTargets(f, pix)); ok {
			st.lensView, st.lensOK = view, true
		}
	}
	return st
}

func (v *Viewer) statusLine() string {
	parts := []string{
		fmt.Sprintf("page %d/%d", v.comp.Current()+1, v.comp.PageCount()),
		v.comp.Mode().String(),
		v.comp.Direction().String(),
		v.comp.Overlay().String(),
	}
	if v.comp.Compare() {
		parts = append(parts, "compare "+v.comp.CompareLayout().String())
	}
	if s := v.gest.Scale(); s > 1.01 {
		parts = append(parts, fmt.Sprintf("%.2fx", s))
	}
	if v.lensOn {
		parts = append(parts, fmt.Sprintf("lens %.1fx", v.loupe.Zoom()))
	}
	if v.cropArmed {
		parts = append(parts, "crop")
	}
	return strings.Join(parts, " | ")
}

// buildPopup renders the popup bubble for a tapped block near the tap
// point, clamped into the window.
func (v *Viewer) buildPopup(text string, at geometry.Point) *popupBox {
	const pad = 10
	maxW := float64(v.width) - 80
	if maxW > 420 {
		maxW = 420
	}
	if maxW < 80 {
		maxW = 80
	}
	lines := wrapText(text, maxW, v.popupTextSize)
	if len(lines) == 0 {
		return nil
	}
	if len(lines) > 6 {
		lines = lines[:6]
		lines[5] += "..."
	}
	_, lineH, _, err := render.MeasureText("Ag", v.popupTextSize)
	if err != nil {
		log.Printf("popup face: %v", err)
		return nil
	}
	wMax := 0
	for _, ln := range lines {
		w, _, _, err := render.MeasureText(ln, v.popupTextSize)
		if err != nil {
			return nil
		}
		if w > wMax {
			wMax = w
		}
	}
	bw, bh := wMax+2*pad, len(lines)*lineH+2*pad
	img := image.NewRGBA(image.Rect(0, 0, bw, bh))
	render.Fill(img, img.Bounds(), v.th.PopupBackground)
	render.Rect(img, img.Bounds(), v.th.PageBorder, 1)
	y := pad
	for _, ln := range lines {
		if err := render.DrawText(img, pad, y, ln, v.th.PopupText, v.popupTextSize); err != nil {
			return nil
		}
		y += lineH
	}
	res := render.ApplyShadow(img, render.DefaultShadowOptions())

	ax := int(at.X) - bw/2
	if ax < 8 {
		ax = 8
	}
	if max := v.width - bw - 8; ax > max {
		ax = max
	}
	ay := int(at.Y) - bh - 18
	if ay < 8 {
		ay = int(at.Y) + 18
	}
	return &popupBox{img: res.Image, at: image.Pt(ax-res.Offset.X, ay-res.Offset.Y)}
}

// wrapText breaks text into lines that fit maxW at the given font size.
// Lines break at spaces when present, otherwise mid-run, which is the
// common case for CJK text.
func wrapText(text string, maxW, size float64) []string {
	var lines []string
	line := ""
	flush := func() {
		if s := strings.TrimSpace(line); s != "" {
			lines = append(lines, s)
		}
		line = ""
	}
	for _, r := range strings.TrimSpace(text) {
		if r == '\n' {
			flush()
			continue
		}
		candidate := line + string(r)
		w, _, _, err := render.MeasureText(candidate, size)
		if err != nil {
			return []string{strings.TrimSpace(text)}
		}
		if float64(w) <= maxW || line == "" {
			line = candidate
			continue
		}
		if i := strings.LastIndex(line, " "); i >= 0 {
			rest := strings.TrimLeft(line[i:], " ")
			line = line[:i]
			flush()
			line = rest + string(r)
		} else {
			flush()
			line = string(r)
		}
	}
	flush()
	return lines
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()
	drawScene(ctx, b.RGBA(), st)
	if ctx.Err() != nil {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

// drawScene renders one snapshot into dst, checking for cancellation
// between stages. The headless render command shares it through Scene.
func drawScene(ctx context.Context, dst *image.RGBA, st paintState) {
	render.Fill(dst, dst.Bounds(), st.th.Background)
	if ctx.Err() != nil {
		return
	}

	for i, slot := range st.frame.Slots {
		r := slot.Rect.ImageRect()
		if r.Empty() || !r.Overlaps(dst.Bounds()) {
			continue
		}
		if st.pix[i] == nil {
			render.Checkerboard(dst, r.Intersect(dst.Bounds()), 16, st.th.CheckerLight, st.th.CheckerDark)
			render.Rect(dst, r, st.th.Placeholder, 1)
		} else {
			xdraw.ApproxBiLinear.Scale(dst, r, st.pix[i], st.pix[i].Bounds(), draw.Over, nil)
			render.Rect(dst, r, st.th.PageBorder, 1)
		}
		if ctx.Err() != nil {
			return
		}
	}

	drawOverlays(dst, st)
	if ctx.Err() != nil {
		return
	}

	if st.cropping {
		render.DashedRect(dst, st.cropRect, 4, 2, st.th.RubberBand, st.th.Background)
	}
	if st.lensOK {
		drawLens(dst, st.lensView, st.th)
	}
	if ctx.Err() != nil {
		return
	}

	if st.panelText != "" && st.frame.Overlay == compose.OverlayPanel {
		drawPanel(dst, st)
	}
	if st.popup != nil {
		draw.Draw(dst, st.popup.img.Bounds().Add(st.popup.at), st.popup.img, st.popup.img.Bounds().Min, draw.Over)
	}
	if ctx.Err() != nil {
		return
	}

	drawStatusBar(dst, st)
	if st.gotoBuf != "" {
		drawGoto(dst, st)
	}
	if st.message != "" && time.Now().Before(st.messageUntil) {
		drawSnackbar(dst, st)
	}
}

// drawOverlays outlines the OCR blocks of every visible page. In popup
// style the frame already carries the mapped rectangles; panel style maps
// them here the same way its hit test does.
func drawOverlays(dst *image.RGBA, st paintState) {
	if st.frame.Overlay == compose.OverlayPopup {
		for _, br := range st.frame.Blocks {
			drawBlock(dst, st, br.Rect.ImageRect(), br.Index, br.Block.Box)
		}
		return
	}
	for _, slot := range st.frame.Slots {
		if slot.Page.OCR == nil {
			continue
		}
		data := slot.Page.OCR.ScaleTo(slot.Page.NaturalW, slot.Page.NaturalH)
		for _, blk := range data.Blocks {
			r := geometry.RectToViewport(blk.Box, slot.Rect,
				float64(slot.Page.NaturalW), float64(slot.Page.NaturalH)).ImageRect()
			drawBlock(dst, st, r, slot.Index, blk.Box)
		}
	}
}

func drawBlock(dst *image.RGBA, st paintState, r image.Rectangle, index int, box geometry.Rect) {
	if r.Empty() || !r.Overlaps(dst.Bounds()) {
		return
	}
	render.Fill(dst, r.Intersect(dst.Bounds()), st.th.OverlayFill)
	outline := st.th.OverlayOutline
	if index == st.activeIndex && box == st.activeBox {
		outline = st.th.ActiveBlock
	}
	render.Rect(dst, r, outline, 1)
}

func drawLens(dst *image.RGBA, view lens.View, th *theme.Theme) {
	r := view.Size / 2
	cx, cy := int(view.Center.X), int(view.Center.Y)
	mask := render.CircleMask(r)
	target := image.Rect(cx-r, cy-r, cx+r, cy+r)
	draw.DrawMask(dst, target, view.Content, view.Content.Bounds().Min, mask, mask.Bounds().Min, draw.Over)
	render.Circle(dst, cx, cy, r, th.LensRing, 2)
}

// drawPanel lays the extracted text over the bottom of the page area.
func drawPanel(dst *image.RGBA, st paintState) {
	const pad = 10
	lines := wrapText(st.panelText, float64(st.width)-2*pad-16, st.textSize)
	if len(lines) == 0 {
		return
	}
	if len(lines) > 4 {
		lines = lines[:4]
		lines[3] += "..."
	}
	_, lineH, _, err := render.MeasureText("Ag", st.textSize)
	if err != nil {
		return
	}
	h := len(lines)*lineH + 2*pad
	top := st.height - bottomHeight - h
	if top < 0 {
		top = 0
	}
	rect := image.Rect(0, top, st.width, st.height-bottomHeight)
	render.Fill(dst, rect, st.th.PanelBackground)
	y := top + pad
	for _, ln := range lines {
		if err := render.DrawText(dst, pad+8, y, ln, st.th.PanelText, st.textSize); err != nil {
			return
		}
		y += lineH
	}
}

const statusHints = "space:next  r:crop  l:lens  m:mode  o:overlay  q:quit"

func drawStatusBar(dst *image.RGBA, st paintState) {
	bar := image.Rect(0, st.height-bottomHeight, st.width, st.height)
	render.Fill(dst, bar, st.th.BarBackground)

	meas := &font.Drawer{Face: basicfont.Face7x13}
	left := meas.MeasureString(st.status).Ceil()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(st.th.BarText),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(8, st.height-8),
	}
	d.DrawString(st.status)

	hintW := meas.MeasureString(statusHints).Ceil()
	if x := st.width - hintW - 8; x > left+24 {
		d.Dot = fixed.P(x, st.height-8)
		d.DrawString(statusHints)
	}

	if st.progress > 0 {
		pw := int(float64(st.width) * st.progress)
		render.Fill(dst, image.Rect(0, bar.Min.Y, pw, bar.Min.Y+2), st.th.Progress)
	}
}

func drawGoto(dst *image.RGBA, st paintState) {
	msg := "go to page: " + st.gotoBuf + "_"
	meas := &font.Drawer{Face: basicfont.Face7x13}
	w := meas.MeasureString(msg).Ceil()
	rect := image.Rect(8, st.height-bottomHeight-30, 8+w+16, st.height-bottomHeight-6)
	render.Fill(dst, rect, st.th.PanelBackground)
	render.Rect(dst, rect, st.th.PageBorder, 1)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(st.th.PanelText),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(rect.Min.X+8, rect.Max.Y-8),
	}
	d.DrawString(msg)
}

func drawSnackbar(dst *image.RGBA, st paintState) {
	meas := &font.Drawer{Face: basicfont.Face7x13}
	w := meas.MeasureString(st.message).Ceil()
	ascent := basicfont.Face7x13.Metrics().Ascent.Ceil()
	descent := basicfont.Face7x13.Metrics().Descent.Ceil()
	px := (st.width - w) / 2
	py := st.height - bottomHeight - 48
	rect := image.Rect(px-12, py-ascent-8, px+w+12, py+descent+8)
	render.Fill(dst, rect, st.th.SnackbarBackground)
	render.Rect(dst, rect, st.th.PageBorder, 1)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(st.th.SnackbarText),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(px, py),
	}
	d.DrawString(st.message)
}
