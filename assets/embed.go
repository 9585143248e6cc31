// Package assets carries the embedded demo book: a short page sequence
// with OCR sidecars and a translated rendition, so the viewer can be
// tried without any files on disk.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed demo
var embeddedDemo embed.FS

// Demo returns the demo book's filesystem, rooted at its pages.
func Demo() fs.FS {
	sub, err := fs.Sub(embeddedDemo, "demo")
	if err != nil {
		// The directory is compiled in; Sub only fails on a bad path.
		return embeddedDemo
	}
	return sub
}
