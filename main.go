// Quick look: open a book, page through it with the keyboard, click a
// text block to print and copy its contents. The full viewer lives in
// cmd/mangalens.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"os"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"

	xdraw "golang.org/x/image/draw"

	"github.com/example/mangalens/internal/book"
	"github.com/example/mangalens/internal/clipboard"
	"github.com/example/mangalens/internal/geometry"
	"github.com/example/mangalens/internal/ocr"
)

const (
	winWidth  = 1100
	winHeight = 824
	barHeight = 24
)

type pageView struct {
	scaled *image.RGBA
	rect   geometry.Rect
	data   *ocr.Data
	natW   int
	natH   int
}

func main() {
	lang := flag.String("lang", "ja", "language for joining OCR lines")
	start := flag.Int("page", 1, "page to open, 1-based")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] BOOK\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	b, err := book.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("open book: %v", err)
	}
	defer b.Close()

	current := *start - 1
	if current < 0 {
		current = 0
	}
	if current >= b.Len() {
		current = b.Len() - 1
	}

	driver.Main(func(s screen.Screen) {
		w, err := s.NewWindow(&screen.NewWindowOptions{
			Width:  winWidth,
			Height: winHeight,
			Title:  b.Name(),
		})
		if err != nil {
			log.Fatalf("new window: %v", err)
		}
		defer w.Release()
		buf, err := s.NewBuffer(image.Point{winWidth, winHeight})
		if err != nil {
			log.Fatalf("new buffer: %v", err)
		}
		defer buf.Release()

		views := map[int]*pageView{}
		var snackbarMsg string
		var snackbarUntil time.Time

		loadView := func(i int) *pageView {
			if v, ok := views[i]; ok {
				return v
			}
			v := &pageView{}
			views[i] = v
			f, err := b.Open(i)
			if err != nil {
				log.Printf("open page %d: %v", i+1, err)
				return v
			}
			img, _, err := image.Decode(f)
			f.Close()
			if err != nil {
				log.Printf("decode page %d: %v", i+1, err)
				return v
			}
			bounds := img.Bounds()
			v.natW, v.natH = bounds.Dx(), bounds.Dy()
			v.rect = geometry.FitRect(float64(v.natW), float64(v.natH),
				geometry.R(0, 0, winWidth, winHeight-barHeight))
			ir := v.rect.ImageRect()
			v.scaled = image.NewRGBA(ir)
			xdraw.ApproxBiLinear.Scale(v.scaled, ir, img, bounds, draw.Over, nil)
			if d, err := b.OCR(i); err != nil {
				log.Printf("ocr for page %d: %v", i+1, err)
			} else if d != nil {
				v.data = d.ScaleTo(v.natW, v.natH)
			}
			return v
		}

		text := func(dst *image.RGBA, x, y int, s string) {
			d := &font.Drawer{
				Dst:  dst,
				Src:  image.Black,
				Face: basicfont.Face7x13,
				Dot:  fixed.P(x, y),
			}
			d.DrawString(s)
		}

		turn := func(delta int) {
			next := current + delta
			if next < 0 || next >= b.Len() {
				return
			}
			current = next
			w.Send(paint.Event{})
		}

		for {
			switch e := w.NextEvent().(type) {
			case lifecycle.Event:
				if e.To == lifecycle.StageDead {
					return
				}
			case paint.Event:
				rgba := buf.RGBA()
				draw.Draw(rgba, rgba.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
				v := loadView(current)
				if v.scaled != nil {
					draw.Draw(rgba, v.scaled.Bounds(), v.scaled, v.scaled.Bounds().Min, draw.Over)
				} else {
					text(rgba, winWidth/2-60, winHeight/2, "page unavailable")
				}
				barTop := winHeight - barHeight
				draw.Draw(rgba, image.Rect(0, barTop, winWidth, winHeight),
					&image.Uniform{color.RGBA{220, 220, 220, 255}}, image.Point{}, draw.Src)
				text(rgba, 8, barTop+16, fmt.Sprintf("%s  page %d/%d", b.Name(), current+1, b.Len()))
				if snackbarMsg != "" && time.Now().Before(snackbarUntil) {
					box := image.Rect(winWidth/2-140, barTop-48, winWidth/2+140, barTop-16)
					draw.Draw(rgba, box, &image.Uniform{color.RGBA{235, 235, 235, 255}}, image.Point{}, draw.Src)
					text(rgba, box.Min.X+8, box.Min.Y+20, snackbarMsg)
				}
				w.Upload(image.Point{}, buf, buf.Bounds())
				w.Publish()
			case mouse.Event:
				if e.Button != mouse.ButtonLeft || e.Direction != mouse.DirPress {
					continue
				}
				v := views[current]
				if v == nil || v.data == nil {
					continue
				}
				p := geometry.Pt(float64(e.X), float64(e.Y))
				if !v.rect.Contains(p) {
					continue
				}
				np := geometry.ToNatural(p, v.rect, float64(v.natW), float64(v.natH))
				block := ocr.HitTest(np, v.data.Blocks)
				if block == nil {
					continue
				}
				joined := block.Text(*lang)
				fmt.Println(joined)
				if err := clipboard.CopyText(joined); err != nil {
					log.Printf("copy text: %v", err)
				} else {
					snackbarMsg = "Copied to clipboard"
					snackbarUntil = time.Now().Add(2 * time.Second)
				}
				w.Send(paint.Event{})
			case key.Event:
				if e.Direction != key.DirPress {
					continue
				}
				switch e.Code {
				case key.CodeRightArrow, key.CodeDownArrow, key.CodePageDown:
					turn(1)
					continue
				case key.CodeLeftArrow, key.CodeUpArrow, key.CodePageUp:
					turn(-1)
					continue
				case key.CodeHome:
					current = 0
					w.Send(paint.Event{})
					continue
				case key.CodeEnd:
					current = b.Len() - 1
					w.Send(paint.Event{})
					continue
				}
				switch e.Rune {
				case ' ':
					turn(1)
				case 'q', 'Q':
					return
				}
			}
		}
	})
}
