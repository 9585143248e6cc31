package ocr

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/example/mangalens/internal/geometry"
)

// Sidecar JSON format, one file per page:
//
//	{
//	  "img_width": 1680,
//	  "img_height": 2400,
//	  "blocks": [
//	    {"box": [104, 512, 346, 1208], "vertical": true, "lines": ["今日", "は"]}
//	  ]
//	}

type pageJSON struct {
	ImgWidth  int         `json:"img_width"`
	ImgHeight int         `json:"img_height"`
	Blocks    []blockJSON `json:"blocks"`
}

type blockJSON struct {
	Box      [4]float64 `json:"box"`
	Vertical bool       `json:"vertical,omitempty"`
	Lines    []string   `json:"lines"`
}

// Decode reads a sidecar document. Boxes with swapped corners are
// normalized; blocks with no text are dropped.
func Decode(r io.Reader) (*Data, error) {
	var doc pageJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("ocr: decode sidecar: %w", err)
	}
	d := &Data{Width: doc.ImgWidth, Height: doc.ImgHeight}
	for _, b := range doc.Blocks {
		if !hasText(b.Lines) {
			continue
		}
		box := geometry.R(b.Box[0], b.Box[1], b.Box[2], b.Box[3]).Canon()
		d.Blocks = append(d.Blocks, Block{Box: box, Lines: b.Lines, Vertical: b.Vertical})
	}
	return d, nil
}

// Encode writes d in the sidecar format.
func Encode(w io.Writer, d *Data) error {
	doc := pageJSON{ImgWidth: d.Width, ImgHeight: d.Height}
	for _, b := range d.Blocks {
		doc.Blocks = append(doc.Blocks, blockJSON{
			Box:      [4]float64{b.Box.X1, b.Box.Y1, b.Box.X2, b.Box.Y2},
			Vertical: b.Vertical,
			Lines:    b.Lines,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("ocr: encode sidecar: %w", err)
	}
	return nil
}

// Load reads the sidecar file name from fsys.
func Load(fsys fs.FS, name string) (*Data, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("ocr: open sidecar: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// SidecarName returns the sidecar filename for a page image, replacing the
// image extension with .json.
func SidecarName(page string) string {
	ext := path.Ext(page)
	return strings.TrimSuffix(page, ext) + ".json"
}

// FindSidecar locates the sidecar for a page image inside fsys, checking
// beside the image first and then under an _ocr directory mirroring the
// page's location. Returns the path and whether one exists.
func FindSidecar(fsys fs.FS, page string) (string, bool) {
	name := SidecarName(page)
	if _, err := fs.Stat(fsys, name); err == nil {
		return name, true
	}
	dir, base := path.Split(name)
	under := path.Join(dir, "_ocr", base)
	if _, err := fs.Stat(fsys, under); err == nil {
		return under, true
	}
	return "", false
}

func hasText(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}
