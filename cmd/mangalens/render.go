package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/example/mangalens/internal/compose"
	"github.com/example/mangalens/internal/gesture"
	"github.com/example/mangalens/internal/geometry"
	"github.com/example/mangalens/internal/lens"
	"github.com/example/mangalens/internal/ocr"
	"github.com/example/mangalens/internal/viewer"
)

// renderCmd paints a scene description to a PNG through the viewer's
// drawing path, so arrangements can be checked without a display.
type renderCmd struct {
	input  string
	output string
	*root
	fs *flag.FlagSet
}

func (c *renderCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseRenderCmd(args []string, r *root) (*renderCmd, error) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	c := &renderCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.input, "input", "", "scene description file (JSON)")
	fs.StringVar(&c.output, "output", "", "output PNG file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.input == "" || c.output == "" {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

// SceneConfig is the JSON scene description. Pages are uniform-color
// stand-ins sized like real pages; blocks attach OCR boxes to them.
type SceneConfig struct {
	Width         int          `json:"width"`
	Height        int          `json:"height"`
	Mode          string       `json:"mode"`
	Direction     string       `json:"direction"`
	Overlay       string       `json:"overlay"`
	Pairing       string       `json:"pairing"`
	Compare       bool         `json:"compare"`
	CompareLayout string       `json:"compare_layout"`
	Current       int          `json:"current"`
	Zoom          float64      `json:"zoom"`
	ScrollTop     float64      `json:"scroll_top"`
	Cropping      bool         `json:"cropping"`
	CropRect      [4]int       `json:"crop_rect"`
	ActiveIndex   int          `json:"active_index"`
	ActiveBox     [4]float64   `json:"active_box"`
	PanelText     string       `json:"panel_text"`
	TextSize      float64      `json:"text_size"`
	Message       string       `json:"message"`
	Status        string       `json:"status"`
	Progress      float64      `json:"progress"`
	GotoBuf       string       `json:"goto"`
	Pages         []PageConfig `json:"pages"`
	Lens          *LensConfig  `json:"lens"`
}

type PageConfig struct {
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Color      [4]int        `json:"color"` // R, G, B, A
	Translated bool          `json:"translated"`
	Blocks     []BlockConfig `json:"blocks"`
}

type BlockConfig struct {
	Box      [4]float64 `json:"box"`
	Vertical bool       `json:"vertical"`
	Lines    []string   `json:"lines"`
}

type LensConfig struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size int     `json:"size"`
	Zoom float64 `json:"zoom"`
}

func (c *renderCmd) Run() error {
	f, err := os.Open(c.input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	var cfg SceneConfig
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("scene needs a positive width and height")
	}

	mode, err := compose.ParseMode(orDefault(cfg.Mode, "single"))
	if err != nil {
		return err
	}
	direction, err := compose.ParseDirection(orDefault(cfg.Direction, "ltr"))
	if err != nil {
		return err
	}
	overlay, err := compose.ParseOverlay(orDefault(cfg.Overlay, "panel"))
	if err != nil {
		return err
	}
	pairing, err := compose.ParsePairing(orDefault(cfg.Pairing, "offset"))
	if err != nil {
		return err
	}
	compareLayout, err := compose.ParseCompareLayout(orDefault(cfg.CompareLayout, "horizontal"))
	if err != nil {
		return err
	}

	pages := make([]compose.Page, len(cfg.Pages))
	images := make(map[string]image.Image, len(cfg.Pages))
	for i, p := range cfg.Pages {
		img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
		col := color.RGBA{
			R: uint8(p.Color[0]),
			G: uint8(p.Color[1]),
			B: uint8(p.Color[2]),
			A: uint8(p.Color[3]),
		}
		draw.Draw(img, img.Bounds(), &image.Uniform{col}, image.Point{}, draw.Src)

		handle := fmt.Sprintf("scene-%03d", i)
		images[handle] = img
		pages[i] = compose.Page{
			Handle:     handle,
			NaturalW:   p.Width,
			NaturalH:   p.Height,
			OCR:        sceneOCR(p),
			Translated: p.Translated,
		}
	}

	comp := compose.New(
		compose.WithMode(mode),
		compose.WithDirection(direction),
		compose.WithOverlay(overlay),
		compose.WithPairing(pairing),
		compose.WithCompareLayout(compareLayout),
	)
	comp.SetPages(pages)
	comp.SetCompare(cfg.Compare)
	comp.SetCurrent(cfg.Current)

	viewport := geometry.R(0, 0, float64(cfg.Width), float64(cfg.Height))
	var frame compose.Frame
	if mode == compose.ModeWebtoon {
		frame = comp.ComposeStrip(viewport, cfg.ScrollTop)
	} else {
		ctrl := gesture.New()
		if cfg.Zoom > 0 {
			ctrl.SetScale(cfg.Zoom)
		}
		frame = comp.Compose(viewport, ctrl.Transform())
	}

	pix := make([]image.Image, len(frame.Slots))
	for i, s := range frame.Slots {
		pix[i] = images[s.Page.Handle]
	}

	sc := viewer.Scene{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Theme:       c.root.activeTheme,
		Frame:       frame,
		Pix:         pix,
		ActiveIndex: cfg.ActiveIndex,
		ActiveBox:   geometry.R(cfg.ActiveBox[0], cfg.ActiveBox[1], cfg.ActiveBox[2], cfg.ActiveBox[3]),
		Cropping:    cfg.Cropping,
		CropRect:    image.Rect(cfg.CropRect[0], cfg.CropRect[1], cfg.CropRect[2], cfg.CropRect[3]),
		PanelText:   cfg.PanelText,
		TextSize:    cfg.TextSize,
		Message:     cfg.Message,
		Status:      cfg.Status,
		Progress:    cfg.Progress,
		GotoBuf:     cfg.GotoBuf,
	}

	if cfg.Lens != nil {
		loupe := lens.New(cfg.Lens.Size, cfg.Lens.Zoom)
		loupe.MoveTo(geometry.Pt(cfg.Lens.X, cfg.Lens.Y))
		targets := make([]lens.Target, 0, len(frame.Slots))
		for i, s := range frame.Slots {
			targets = append(targets, lens.Target{Rect: s.Rect, Source: pix[i]})
		}
		sc.LensView, sc.LensOK = loupe.View(targets)
	}

	out := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	viewer.DrawScene(out, sc)

	outF, err := os.Create(c.output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer outF.Close()
	if err := png.Encode(outF, out); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func sceneOCR(p PageConfig) *ocr.Data {
	if len(p.Blocks) == 0 {
		return nil
	}
	d := &ocr.Data{Width: p.Width, Height: p.Height}
	for _, b := range p.Blocks {
		d.Blocks = append(d.Blocks, ocr.Block{
			Box:      geometry.R(b.Box[0], b.Box[1], b.Box[2], b.Box[3]).Canon(),
			Vertical: b.Vertical,
			Lines:    b.Lines,
		})
	}
	return d
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
