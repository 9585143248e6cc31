// Package book enumerates the pages of a comic book stored as a
// directory or a zip/cbz archive, pairing each page with its OCR
// sidecar and translated rendition when present.
package book

import (
	"archive/zip"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/example/mangalens/internal/ocr"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

var (
	ErrNoPages       = errors.New("book: no pages")
	ErrUnsupported   = errors.New("book: unsupported format")
	ErrPageRange     = errors.New("book: page out of range")
	ErrNoTranslation = errors.New("book: no translated rendition")
)

const (
	translatedDir    = "translated"
	translatedSuffix = "_translated"
	ocrDir           = "_ocr"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// Page is one enumerated page. Paths are relative to the book's
// filesystem root; empty strings mean the resource does not exist.
type Page struct {
	Name              string
	Sidecar           string
	Translated        string
	TranslatedSidecar string
}

// Book is an ordered page list over a single filesystem.
type Book struct {
	fsys   fs.FS
	name   string
	pages  []Page
	closer io.Closer
}

// Open opens a book at path: a directory, a zip/cbz archive, or a
// single page image.
func Open(p string) (*Book, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("open book: %w", err)
	}
	if info.IsDir() {
		return OpenDir(p)
	}
	ext := strings.ToLower(filepath.Ext(p))
	switch {
	case ext == ".zip" || ext == ".cbz":
		return OpenArchive(p)
	case imageExts[ext]:
		return OpenImage(p)
	}
	return nil, fmt.Errorf("open book %s: %w", p, ErrUnsupported)
}

// OpenDir opens a directory of page images.
func OpenDir(dir string) (*Book, error) {
	return FromFS(os.DirFS(dir), filepath.Base(filepath.Clean(dir)))
}

// OpenArchive opens a zip or cbz archive of page images.
func OpenArchive(p string) (*Book, error) {
	rc, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open book archive: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	b, err := FromFS(&rc.Reader, name)
	if err != nil {
		rc.Close()
		return nil, err
	}
	b.closer = rc
	return b, nil
}

// OpenImage opens a single page image as a one-page book, so the page
// still picks up its sidecar and translation.
func OpenImage(p string) (*Book, error) {
	dir, base := filepath.Split(p)
	if dir == "" {
		dir = "."
	}
	fsys := os.DirFS(filepath.Clean(dir))
	if _, err := fs.Stat(fsys, base); err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	hasDir := dirExists(fsys, translatedDir)
	return &Book{
		fsys:  fsys,
		name:  base,
		pages: []Page{buildPage(fsys, base, hasDir)},
	}, nil
}

// FromFS builds a book over an arbitrary filesystem, such as the
// embedded demo book. Wrapper directories, as produced by archiving a
// folder, are descended through.
func FromFS(fsys fs.FS, name string) (*Book, error) {
	fsys, err := descend(fsys)
	if err != nil {
		return nil, fmt.Errorf("read book %s: %w", name, err)
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read book %s: %w", name, err)
	}
	hasDir := false
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			if e.Name() == translatedDir {
				hasDir = true
			}
			continue
		}
		if !isImageName(e.Name()) {
			continue
		}
		if isTranslatedName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("book %s: %w", name, ErrNoPages)
	}
	sort.Slice(names, func(i, j int) bool { return naturalLess(names[i], names[j]) })
	pages := make([]Page, 0, len(names))
	for _, n := range names {
		pages = append(pages, buildPage(fsys, n, hasDir))
	}
	return &Book{fsys: fsys, name: name, pages: pages}, nil
}

// Close releases the underlying archive handle, if any.
func (b *Book) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// Name returns the book's display name.
func (b *Book) Name() string { return b.name }

// Len reports the number of pages.
func (b *Book) Len() int { return len(b.pages) }

// Page returns the page record at index i.
func (b *Book) Page(i int) (Page, bool) {
	if i < 0 || i >= len(b.pages) {
		return Page{}, false
	}
	return b.pages[i], true
}

// Pages returns all page records in reading order.
func (b *Book) Pages() []Page { return b.pages }

// Open returns a reader for page i's image.
func (b *Book) Open(i int) (fs.File, error) {
	if i < 0 || i >= len(b.pages) {
		return nil, fmt.Errorf("page %d: %w", i, ErrPageRange)
	}
	return b.fsys.Open(b.pages[i].Name)
}

// OpenTranslated returns a reader for page i's translated rendition.
func (b *Book) OpenTranslated(i int) (fs.File, error) {
	if i < 0 || i >= len(b.pages) {
		return nil, fmt.Errorf("page %d: %w", i, ErrPageRange)
	}
	if b.pages[i].Translated == "" {
		return nil, fmt.Errorf("page %d: %w", i, ErrNoTranslation)
	}
	return b.fsys.Open(b.pages[i].Translated)
}

// OCR loads page i's sidecar. Pages without a sidecar return nil data
// and no error.
func (b *Book) OCR(i int) (*ocr.Data, error) {
	if i < 0 || i >= len(b.pages) {
		return nil, fmt.Errorf("page %d: %w", i, ErrPageRange)
	}
	if b.pages[i].Sidecar == "" {
		return nil, nil
	}
	return ocr.Load(b.fsys, b.pages[i].Sidecar)
}

// TranslatedOCR loads the sidecar of page i's translated rendition.
func (b *Book) TranslatedOCR(i int) (*ocr.Data, error) {
	if i < 0 || i >= len(b.pages) {
		return nil, fmt.Errorf("page %d: %w", i, ErrPageRange)
	}
	if b.pages[i].TranslatedSidecar == "" {
		return nil, nil
	}
	return ocr.Load(b.fsys, b.pages[i].TranslatedSidecar)
}

// Dimensions reads page i's image header and reports its natural size.
func (b *Book) Dimensions(i int) (w, h int, err error) {
	f, err := b.Open(i)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode %s: %w", b.pages[i].Name, err)
	}
	return cfg.Width, cfg.Height, nil
}

// TranslatedDimensions reads the translated rendition's image header.
func (b *Book) TranslatedDimensions(i int) (w, h int, err error) {
	f, err := b.OpenTranslated(i)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode %s: %w", b.pages[i].Translated, err)
	}
	return cfg.Width, cfg.Height, nil
}

// FS exposes the book's filesystem for callers that stream page images
// themselves, such as the image cache.
func (b *Book) FS() fs.FS { return b.fsys }

func buildPage(fsys fs.FS, name string, hasTranslatedDir bool) Page {
	p := Page{Name: name}
	if sc, ok := ocr.FindSidecar(fsys, name); ok {
		p.Sidecar = sc
	}
	if t, ok := findTranslated(fsys, name, hasTranslatedDir); ok {
		p.Translated = t
		if sc, ok := ocr.FindSidecar(fsys, t); ok {
			p.TranslatedSidecar = sc
		}
	}
	return p
}

func findTranslated(fsys fs.FS, page string, hasTranslatedDir bool) (string, bool) {
	if hasTranslatedDir {
		cand := path.Join(translatedDir, page)
		if _, err := fs.Stat(fsys, cand); err == nil {
			return cand, true
		}
	}
	ext := path.Ext(page)
	cand := strings.TrimSuffix(page, ext) + translatedSuffix + ext
	if _, err := fs.Stat(fsys, cand); err == nil {
		return cand, true
	}
	return "", false
}

// descend skips wrapper directories: archives made from a folder hold
// their pages one level down.
func descend(fsys fs.FS) (fs.FS, error) {
	for depth := 0; depth < 3; depth++ {
		entries, err := fs.ReadDir(fsys, ".")
		if err != nil {
			return nil, err
		}
		var dirs []string
		hasImage := false
		for _, e := range entries {
			if e.IsDir() {
				switch e.Name() {
				case "__MACOSX", translatedDir, ocrDir:
				default:
					dirs = append(dirs, e.Name())
				}
				continue
			}
			if isImageName(e.Name()) {
				hasImage = true
			}
		}
		if hasImage || len(dirs) != 1 {
			return fsys, nil
		}
		sub, err := fs.Sub(fsys, dirs[0])
		if err != nil {
			return nil, err
		}
		fsys = sub
	}
	return fsys, nil
}

func dirExists(fsys fs.FS, name string) bool {
	info, err := fs.Stat(fsys, name)
	return err == nil && info.IsDir()
}

func isImageName(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "._") {
		return false
	}
	return imageExts[strings.ToLower(path.Ext(name))]
}

func isTranslatedName(name string) bool {
	stem := strings.TrimSuffix(name, path.Ext(name))
	return strings.HasSuffix(stem, translatedSuffix)
}
