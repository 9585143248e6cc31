package config

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	"github.com/example/mangalens/internal/theme"
)

// Notify holds notification settings.
type Notify struct {
	Crop bool
	Save bool
	Copy bool
}

// Lens holds magnifier settings. Zero values mean unset, so the
// viewer's defaults apply.
type Lens struct {
	Zoom float64
	Size int
}

// Config holds the application configuration.
type Config struct {
	Mode      string
	Direction string
	Overlay   string
	Lang      string
	Theme     string
	SaveDir   string
	Lens      Lens
	Notify    Notify
	Themes    map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Theme: "", // Default to empty to allow fallback to Env/Default
		Notify: Notify{
			Crop: false,
			Save: false,
			Copy: false,
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	// Root section
	if c.Mode != "" {
		fmt.Fprintf(&sb, "mode = %s\n", c.Mode)
	}
	if c.Direction != "" {
		fmt.Fprintf(&sb, "direction = %s\n", c.Direction)
	}
	if c.Overlay != "" {
		fmt.Fprintf(&sb, "overlay = %s\n", c.Overlay)
	}
	if c.Lang != "" {
		fmt.Fprintf(&sb, "lang = %s\n", c.Lang)
	}
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	sb.WriteString("\n")

	// Lens section, only when something is set
	if c.Lens.Zoom != 0 || c.Lens.Size != 0 {
		sb.WriteString("[lens]\n")
		if c.Lens.Zoom != 0 {
			fmt.Fprintf(&sb, "zoom = %g\n", c.Lens.Zoom)
		}
		if c.Lens.Size != 0 {
			fmt.Fprintf(&sb, "size = %d\n", c.Lens.Size)
		}
		sb.WriteString("\n")
	}

	// Notify section
	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "crop = %v\n", c.Notify.Crop)
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	// Themes sections
	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		fmt.Fprintf(&sb, "Background: %s\n", toHex(t.Background))
		fmt.Fprintf(&sb, "PageBorder: %s\n", toHex(t.PageBorder))
		fmt.Fprintf(&sb, "Placeholder: %s\n", toHex(t.Placeholder))
		fmt.Fprintf(&sb, "CheckerLight: %s\n", toHex(t.CheckerLight))
		fmt.Fprintf(&sb, "CheckerDark: %s\n", toHex(t.CheckerDark))
		fmt.Fprintf(&sb, "OverlayOutline: %s\n", toHex(t.OverlayOutline))
		fmt.Fprintf(&sb, "OverlayFill: %s\n", toHex(t.OverlayFill))
		fmt.Fprintf(&sb, "ActiveBlock: %s\n", toHex(t.ActiveBlock))
		fmt.Fprintf(&sb, "RubberBand: %s\n", toHex(t.RubberBand))
		fmt.Fprintf(&sb, "LensRing: %s\n", toHex(t.LensRing))
		fmt.Fprintf(&sb, "PanelBackground: %s\n", toHex(t.PanelBackground))
		fmt.Fprintf(&sb, "PanelText: %s\n", toHex(t.PanelText))
		fmt.Fprintf(&sb, "PopupBackground: %s\n", toHex(t.PopupBackground))
		fmt.Fprintf(&sb, "PopupText: %s\n", toHex(t.PopupText))
		fmt.Fprintf(&sb, "BarBackground: %s\n", toHex(t.BarBackground))
		fmt.Fprintf(&sb, "BarText: %s\n", toHex(t.BarText))
		fmt.Fprintf(&sb, "SnackbarBackground: %s\n", toHex(t.SnackbarBackground))
		fmt.Fprintf(&sb, "SnackbarText: %s\n", toHex(t.SnackbarText))
		fmt.Fprintf(&sb, "Progress: %s\n", toHex(t.Progress))
		sb.WriteString("\n")
	}

	return sb.String()
}

func toHex(c interface{ RGBA() (r, g, b, a uint32) }) string {
	if rgba, ok := c.(color.RGBA); ok {
		if rgba.A == 255 {
			return fmt.Sprintf("#%02X%02X%02X", rgba.R, rgba.G, rgba.B)
		}
		return fmt.Sprintf("#%02X%02X%02X%02X", rgba.R, rgba.G, rgba.B, rgba.A)
	}

	// Fallback for non-color.RGBA types
	r, g, b, a := c.RGBA()
	if a == 0 {
		return "#00000000"
	}
	r8 := uint8(r >> 8)
	g8 := uint8(g >> 8)
	b8 := uint8(b >> 8)
	a8 := uint8(a >> 8)

	if a8 == 255 {
		return fmt.Sprintf("#%02X%02X%02X", r8, g8, b8)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", r8, g8, b8, a8)
}
