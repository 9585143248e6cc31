package render

import (
	"image"
	"image/color"
	"log"
	"math"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// FontPath points text rendering at a specific font file when set before
// the first draw. When empty, a system CJK font is searched for so OCR
// text renders without tofu, falling back to the embedded Go Regular.
var FontPath string

var textSizes = []float64{12, 14, 18}

var (
	goregularFont  *opentype.Font
	textFaces      []font.Face
	extraTextFaces sync.Map // map[float64]font.Face

	displayOnce  sync.Once
	displayExtra *opentype.Font
	displayFaces sync.Map // map[float64]font.Face
)

var cjkFontPaths = []string{
	"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/noto-cjk/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/opentype/source-han-sans/SourceHanSans.ttc",
	"/Library/Fonts/Arial Unicode.ttf",
}

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Fatalf("parse font: %v", err)
	}
	goregularFont = f
	for _, sz := range textSizes {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: sz, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			log.Fatalf("font face: %v", err)
		}
		textFaces = append(textFaces, face)
	}
}

// displayFont resolves the screen font once. Extracted text is mostly CJK,
// which Go Regular cannot shape, so a system CJK font wins when present.
func displayFont() *opentype.Font {
	displayOnce.Do(func() {
		paths := cjkFontPaths
		if FontPath != "" {
			paths = append([]string{FontPath}, paths...)
		}
		for _, p := range paths {
			f, err := loadFontFile(p)
			if err != nil {
				continue
			}
			displayExtra = f
			return
		}
	})
	if displayExtra != nil {
		return displayExtra
	}
	return goregularFont
}

func loadFontFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(strings.ToLower(path), ".ttc") {
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, err
		}
		return coll.Font(0)
	}
	return opentype.Parse(data)
}

func faceForSize(size float64) (font.Face, error) {
	if size <= 0 {
		size = textSizes[0]
	}
	if f := displayFont(); f != goregularFont {
		return cachedFace(f, &displayFaces, size)
	}
	// If the size matches one of the predefined faces use it directly.
	for i, s := range textSizes {
		if math.Abs(s-size) < 0.01 {
			return textFaces[i], nil
		}
	}
	return cachedFace(goregularFont, &extraTextFaces, size)
}

func cachedFace(f *opentype.Font, cache *sync.Map, size float64) (font.Face, error) {
	if face, ok := cache.Load(size); ok {
		return face.(font.Face), nil
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, err
	}
	cache.Store(size, face)
	return face, nil
}

// MeasureText returns the dimensions of text rendered at the provided size.
// The returned width and height represent the bounding box, while baseline is
// the offset from the top to the text baseline.
func MeasureText(text string, size float64) (width, height, baseline int, err error) {
	face, err := faceForSize(size)
	if err != nil {
		return 0, 0, 0, err
	}
	drawer := &font.Drawer{Face: face}
	width = drawer.MeasureString(text).Ceil()
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	descent := metrics.Descent.Ceil()
	baseline = ascent
	height = ascent + descent
	return
}

// DrawText renders the provided text with its top-left corner at (x, y).
func DrawText(img *image.RGBA, x, y int, text string, col color.Color, size float64) error {
	face, err := faceForSize(size)
	if err != nil {
		return err
	}
	metrics := face.Metrics()
	baseline := y + metrics.Ascent.Ceil()
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	drawer.DrawString(text)
	return nil
}
