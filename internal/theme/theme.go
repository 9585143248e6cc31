package theme

import (
	"image/color"
)

// Theme defines the color palette for the viewer UI.
type Theme struct {
	Name string

	// Window
	Background   color.RGBA // behind the composed pages
	PageBorder   color.RGBA
	Placeholder  color.RGBA // fill for pages that have not decoded yet
	CheckerLight color.RGBA // backdrop behind transparent page regions
	CheckerDark  color.RGBA

	// OCR overlay
	OverlayOutline color.RGBA
	OverlayFill    color.RGBA
	ActiveBlock    color.RGBA

	// Crop and lens
	RubberBand color.RGBA
	LensRing   color.RGBA

	// Text panel and popup
	PanelBackground color.RGBA
	PanelText       color.RGBA
	PopupBackground color.RGBA
	PopupText       color.RGBA

	// Chrome
	BarBackground      color.RGBA
	BarText            color.RGBA
	SnackbarBackground color.RGBA
	SnackbarText       color.RGBA
	Progress           color.RGBA
}

// Default returns the hardcoded dark palette (fallback).
func Default() *Theme {
	return &Theme{
		Name:               "dark",
		Background:         color.RGBA{30, 30, 34, 255},
		PageBorder:         color.RGBA{58, 58, 64, 255},
		Placeholder:        color.RGBA{42, 42, 48, 255},
		CheckerLight:       color.RGBA{46, 46, 52, 255},
		CheckerDark:        color.RGBA{38, 38, 44, 255},
		OverlayOutline:     color.RGBA{79, 163, 255, 255},
		OverlayFill:        color.RGBA{79, 163, 255, 51},
		ActiveBlock:        color.RGBA{255, 180, 84, 255},
		RubberBand:         color.RGBA{255, 82, 119, 255},
		LensRing:           color.RGBA{234, 234, 234, 255},
		PanelBackground:    color.RGBA{38, 38, 44, 255},
		PanelText:          color.RGBA{234, 234, 234, 255},
		PopupBackground:    color.RGBA{47, 47, 54, 255},
		PopupText:          color.RGBA{240, 240, 240, 255},
		BarBackground:      color.RGBA{20, 20, 24, 255},
		BarText:            color.RGBA{200, 200, 208, 255},
		SnackbarBackground: color.RGBA{51, 51, 64, 255},
		SnackbarText:       color.RGBA{255, 255, 255, 255},
		Progress:           color.RGBA{79, 163, 255, 255},
	}
}
