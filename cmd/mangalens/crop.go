package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "image/jpeg"

	_ "golang.org/x/image/webp"

	"github.com/example/mangalens/internal/crop"
	"github.com/example/mangalens/internal/geometry"
)

// cropCmd crops a page region headlessly. The selection rectangle is in
// viewport coordinates over a synthetic fitted view, so a drag observed in
// the viewer maps onto the same natural pixels here.
type cropCmd struct {
	input  string
	rect   string
	output string
	view   string
	*root
	fs *flag.FlagSet
}

func (c *cropCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseCropCmd(args []string, r *root) (*cropCmd, error) {
	fs := flag.NewFlagSet("crop", flag.ExitOnError)
	c := &cropCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.input, "input", "", "page image to crop")
	fs.StringVar(&c.rect, "rect", "", "selection rectangle x0,y0,x1,y1 in view coordinates")
	fs.StringVar(&c.output, "output", "crop.png", "write the cropped region to this file")
	fs.StringVar(&c.view, "view", "1280x800", "synthetic view size as WxH")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.input == "" || c.rect == "" {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *cropCmd) Run() error {
	sel, err := parseRect(c.rect)
	if err != nil {
		return err
	}
	vw, vh, err := parseViewSize(c.view)
	if err != nil {
		return err
	}

	f, err := os.Open(c.input)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(f)
	closeErr := f.Close()
	if err != nil {
		return fmt.Errorf("decode %q: %w", c.input, err)
	}
	if closeErr != nil {
		return closeErr
	}

	bounds := img.Bounds()
	slot := geometry.FitRect(float64(bounds.Dx()), float64(bounds.Dy()),
		geometry.R(0, 0, float64(vw), float64(vh)))
	targets := []crop.Target{{Index: 0, Rect: slot, Source: img}}

	var picker crop.Selector
	picker.Start(geometry.Pt(float64(sel.Min.X), float64(sel.Min.Y)))
	res, ok := picker.Finish(geometry.Pt(float64(sel.Max.X), float64(sel.Max.Y)), targets)
	if !ok {
		return fmt.Errorf("selection %s misses the page or is too small", c.rect)
	}

	out, err := os.Create(c.output)
	if err != nil {
		return fmt.Errorf("create output %q: %w", c.output, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			log.Printf("close %s: %v", c.output, cerr)
		}
	}()
	if err := png.Encode(out, res.Image); err != nil {
		return fmt.Errorf("write PNG to %q: %w", c.output, err)
	}
	saved := c.output
	if abs, err := filepath.Abs(c.output); err == nil {
		saved = abs
	}
	fmt.Fprintf(os.Stderr, "saved %s (%dx%d from %s)\n", saved, res.Box.Dx(), res.Box.Dy(), c.input)
	if c.root != nil {
		c.root.notifySave(saved)
	}
	return nil
}

func parseRect(val string) (image.Rectangle, error) {
	parts := strings.Split(val, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("invalid rectangle %q", val)
	}
	nums := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid rectangle %q", val)
		}
		nums[i] = v
	}
	rect := image.Rect(nums[0], nums[1], nums[2], nums[3])
	if rect.Empty() {
		return image.Rectangle{}, fmt.Errorf("rectangle %q is empty", val)
	}
	return rect, nil
}

func parseViewSize(val string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(val)), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid view size %q", val)
	}
	w, werr := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, herr := strconv.Atoi(strings.TrimSpace(parts[1]))
	if werr != nil || herr != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid view size %q", val)
	}
	return w, h, nil
}
