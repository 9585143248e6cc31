package viewer

import (
	"context"
	"image"
	"time"

	"github.com/example/mangalens/internal/compose"
	"github.com/example/mangalens/internal/geometry"
	"github.com/example/mangalens/internal/lens"
	"github.com/example/mangalens/internal/theme"
)

// Scene describes one composed frame for headless rendering: the same
// inputs the interactive painter snapshots, minus anything tied to a live
// window. Pix entries parallel Frame.Slots; nil entries draw as loading
// placeholders.
type Scene struct {
	Width, Height int
	Theme         *theme.Theme
	Frame         compose.Frame
	Pix           []image.Image
	ActiveIndex   int
	ActiveBox     geometry.Rect
	Cropping      bool
	CropRect      image.Rectangle
	LensView      lens.View
	LensOK        bool
	PanelText     string
	TextSize      float64
	Message       string
	Status        string
	Progress      float64
	GotoBuf       string
}

// DrawScene renders sc into dst through the interactive paint path.
func DrawScene(dst *image.RGBA, sc Scene) {
	th := sc.Theme
	if th == nil {
		th = theme.Default()
	}
	size := sc.TextSize
	if size <= 0 {
		size = 16
	}
	st := paintState{
		width:       sc.Width,
		height:      sc.Height,
		th:          th,
		frame:       sc.Frame,
		pix:         sc.Pix,
		activeIndex: sc.ActiveIndex,
		activeBox:   sc.ActiveBox,
		cropping:    sc.Cropping,
		cropRect:    sc.CropRect,
		lensView:    sc.LensView,
		lensOK:      sc.LensOK,
		panelText:   sc.PanelText,
		textSize:    size,
		message:     sc.Message,
		status:      sc.Status,
		progress:    sc.Progress,
		gotoBuf:     sc.GotoBuf,
	}
	if sc.Message != "" {
		st.messageUntil = time.Now().Add(time.Hour)
	}
	if st.activeIndex == 0 && st.activeBox == (geometry.Rect{}) {
		st.activeIndex = -1
	}
	if len(st.pix) < len(st.frame.Slots) {
		grown := make([]image.Image, len(st.frame.Slots))
		copy(grown, st.pix)
		st.pix = grown
	}
	drawScene(context.Background(), dst, st)
}
