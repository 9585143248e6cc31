// Package ocr models the recognized text layer of a scanned page: rectangular
// blocks in natural pixel coordinates, each holding the recognized lines in
// reading order. Blocks come from JSON sidecars or imported hOCR and are
// read-only once attached to a page.
package ocr

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/example/mangalens/internal/geometry"
)

// Block is one recognized text region. Box is in natural pixels with
// X1 ≤ X2, Y1 ≤ Y2; boxes may overlap and keep their detection order.
type Block struct {
	Box      geometry.Rect
	Lines    []string
	Vertical bool
}

// Text joins the block's lines using the separator for lang.
func (b Block) Text(lang string) string {
	return JoinLines(b.Lines, lang)
}

// Data is the OCR layer of a single page. Width and Height record the pixel
// size the boxes were produced at, which may differ from the displayed
// image's natural size when the source was resized after recognition.
type Data struct {
	Width  int
	Height int
	Blocks []Block
}

// ScaleTo returns a copy of d with every box scaled from d's recorded size
// onto a w×h pixel grid. Returns d unchanged when the sizes already match or
// when d records no size.
func (d *Data) ScaleTo(w, h int) *Data {
	if d == nil {
		return nil
	}
	if d.Width == 0 || d.Height == 0 || (d.Width == w && d.Height == h) {
		return d
	}
	sx := float64(w) / float64(d.Width)
	sy := float64(h) / float64(d.Height)
	out := &Data{Width: w, Height: h, Blocks: make([]Block, len(d.Blocks))}
	for i, b := range d.Blocks {
		out.Blocks[i] = Block{
			Box: geometry.Rect{
				X1: b.Box.X1 * sx,
				Y1: b.Box.Y1 * sy,
				X2: b.Box.X2 * sx,
				Y2: b.Box.Y2 * sy,
			},
			Lines:    b.Lines,
			Vertical: b.Vertical,
		}
	}
	return out
}

// HitTest returns a pointer to the first block whose box contains p,
// scanning in storage order, or nil when no block does. Bounds are
// inclusive. Overlapping blocks resolve to whichever was detected first;
// no z-order is applied.
func HitTest(p geometry.Point, blocks []Block) *Block {
	for i := range blocks {
		if blocks[i].Box.Contains(p) {
			return &blocks[i]
		}
	}
	return nil
}

// cjkScripts are writing systems whose lines join with no separator.
// Splitting 今日は across lines must not become "今日 は" or dictionary
// lookups on the joined text fail.
var cjkScripts = map[string]bool{
	"Hani": true,
	"Hans": true,
	"Hant": true,
	"Jpan": true,
	"Hira": true,
	"Kana": true,
	"Hang": true,
	"Kore": true,
}

// Separator returns the line-join separator for a BCP-47 language code:
// empty for CJK scripts, a single space otherwise. Unknown or empty codes
// fall back to a space.
func Separator(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return " "
	}
	script, _ := tag.Script()
	if cjkScripts[script.String()] {
		return ""
	}
	return " "
}

// JoinLines joins recognized lines into one lookup string using the
// language's separator.
func JoinLines(lines []string, lang string) string {
	return strings.Join(lines, Separator(lang))
}
