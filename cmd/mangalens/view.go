package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/mangalens/assets"
	"github.com/example/mangalens/internal/book"
	"github.com/example/mangalens/internal/clipboard"
	"github.com/example/mangalens/internal/compose"
	"github.com/example/mangalens/internal/ocr"
	"github.com/example/mangalens/internal/viewer"
)

type viewCmd struct {
	mode          string
	direction     string
	overlay       string
	pairing       string
	compare       bool
	compareLayout string
	page          int
	lang          string
	lensZoom      float64
	lensSize      int
	popupSize     float64
	monitor       string
	serve         bool
	session       string
	sessionDir    string
	demo          bool
	book          string
	*root
	fs *flag.FlagSet
}

func (v *viewCmd) FlagSet() *flag.FlagSet {
	return v.fs
}

func parseViewCmd(args []string, r *root) (*viewCmd, error) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	c := &viewCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.mode, "mode", "", "page view mode: single, double, or webtoon")
	fs.StringVar(&c.direction, "direction", "", "reading direction: ltr or rtl")
	fs.StringVar(&c.overlay, "overlay", "", "text overlay style: panel or popup")
	fs.StringVar(&c.pairing, "pairing", "", "double-page pairing: offset (cover alone) or plain")
	fs.BoolVar(&c.compare, "compare", false, "show original and translated renditions side by side")
	fs.StringVar(&c.compareLayout, "compare-layout", "", "compare layout: horizontal or vertical")
	fs.IntVar(&c.page, "page", 0, "page to open, 1-based")
	fs.StringVar(&c.lang, "lang", "", "language for joining OCR lines (BCP-47)")
	fs.Float64Var(&c.lensZoom, "lens-zoom", 0, "magnifier zoom factor")
	fs.IntVar(&c.lensSize, "lens-size", 0, "magnifier diameter in pixels")
	fs.Float64Var(&c.popupSize, "popup-size", 0, "popup and panel text size in points")
	fs.StringVar(&c.monitor, "monitor", "", "monitor to size the window from: primary, #n, or a name")
	fs.BoolVar(&c.serve, "serve", false, "serve a control socket named after the book")
	fs.StringVar(&c.session, "session", "", "serve a control socket under this session name")
	fs.StringVar(&c.sessionDir, "session-dir", "", "control socket directory override")
	fs.BoolVar(&c.demo, "demo", false, "open the embedded demo book")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.demo {
		if fs.NArg() != 0 {
			return nil, &UsageError{of: c}
		}
	} else {
		if fs.NArg() != 1 {
			return nil, &UsageError{of: c}
		}
		c.book = fs.Arg(0)
	}
	return c, nil
}

// setting resolves one string setting: CLI flag, then environment, then
// config file, then the built-in default.
func setting(flagVal, envKey, cfgVal, def string) string {
	if flagVal != "" {
		return flagVal
	}
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v
	}
	if cfgVal != "" {
		return cfgVal
	}
	return def
}

func (c *viewCmd) Run() error {
	cfg := c.root.config

	mode, err := compose.ParseMode(setting(c.mode, "MANGALENS_MODE", cfg.Mode, "single"))
	if err != nil {
		return err
	}
	direction, err := compose.ParseDirection(setting(c.direction, "MANGALENS_DIRECTION", cfg.Direction, "ltr"))
	if err != nil {
		return err
	}
	overlay, err := compose.ParseOverlay(setting(c.overlay, "MANGALENS_OVERLAY", cfg.Overlay, "panel"))
	if err != nil {
		return err
	}
	pairing, err := compose.ParsePairing(setting(c.pairing, "MANGALENS_PAIRING", "", "offset"))
	if err != nil {
		return err
	}
	layout, err := compose.ParseCompareLayout(setting(c.compareLayout, "", "", "horizontal"))
	if err != nil {
		return err
	}
	lang := setting(c.lang, "MANGALENS_LANG", cfg.Lang, "ja")

	var b *book.Book
	if c.demo {
		b, err = book.FromFS(assets.Demo(), "demo")
	} else {
		b, err = book.Open(c.book)
	}
	if err != nil {
		return err
	}

	lensZoom := c.lensZoom
	if lensZoom == 0 {
		lensZoom = cfg.Lens.Zoom
	}
	lensSize := c.lensSize
	if lensSize == 0 {
		lensSize = cfg.Lens.Size
	}

	opts := []viewer.Option{
		viewer.WithTitle(b.Name()),
		viewer.WithLang(lang),
		viewer.WithTheme(c.root.activeTheme),
		viewer.WithMode(mode),
		viewer.WithDirection(direction),
		viewer.WithOverlay(overlay),
		viewer.WithPairing(pairing),
		viewer.WithLens(lensSize, lensZoom),
		viewer.WithOCRClickHandler(c.copyText),
		viewer.WithCropHandler(c.saveCrop),
	}
	if c.compare {
		opts = append(opts, viewer.WithCompare(layout))
	}
	if c.page > 0 {
		opts = append(opts, viewer.WithPage(c.page-1))
	}
	if c.popupSize > 0 {
		opts = append(opts, viewer.WithPopupTextSize(c.popupSize))
	}
	if c.monitor != "" {
		opts = append(opts, viewer.WithMonitor(c.monitor))
	}
	name := c.session
	if name == "" && c.serve {
		name = b.Name()
	}
	if name != "" {
		opts = append(opts, viewer.WithSession(name))
	}
	if c.sessionDir != "" {
		opts = append(opts, viewer.WithSessionDir(c.sessionDir))
	}

	v, err := viewer.New(b, opts...)
	if err != nil {
		closeErr := b.Close()
		if closeErr != nil {
			log.Printf("close book: %v", closeErr)
		}
		return err
	}
	v.Run()
	return nil
}

// copyText publishes a tapped block's text to the clipboard. The viewer
// hands over the text already joined for the configured language.
func (c *viewCmd) copyText(text string, _ ocr.Block) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if err := clipboard.CopyText(text); err != nil {
		log.Printf("copy text: %v", err)
		return
	}
	detail := text
	if r := []rune(detail); len(r) > 24 {
		detail = string(r[:24]) + "..."
	}
	c.root.notifyCopy(detail)
}

// saveCrop writes a cropped region next to the viewer and copies it.
func (c *viewCmd) saveCrop(img image.Image, box image.Rectangle) {
	dir := setting("", "MANGALENS_SAVE_DIR", c.root.config.SaveDir, ".")
	name := fmt.Sprintf("mangalens-crop-%s.png", time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		log.Printf("create crop file: %v", err)
		return
	}
	if err := png.Encode(f, img); err != nil {
		log.Printf("write crop: %v", err)
		if cerr := f.Close(); cerr != nil {
			log.Printf("close %s: %v", path, cerr)
		}
		return
	}
	if err := f.Close(); err != nil {
		log.Printf("close %s: %v", path, err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if err := clipboard.CopyImage(img); err != nil {
		log.Printf("copy crop: %v", err)
	}
	detail := fmt.Sprintf("%dx%d", box.Dx(), box.Dy())
	c.root.notifyCrop(detail, img)
	c.root.notifySave(path)
}
