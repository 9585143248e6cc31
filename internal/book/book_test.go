package book

import (
	"archive/zip"
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

var sidecarBytes = []byte(`{"img_width": 100, "img_height": 150, "blocks": [{"box": [10, 10, 50, 50], "lines": ["hi"]}]}`)

func TestNaturalLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"page2.png", "page10.png", true},
		{"page10.png", "page2.png", false},
		{"cover.png", "page1.png", true},
		{"2.png", "a.png", true},
		{"page1.png", "page1.png", false},
		{"p01.png", "p1.png", false},
		{"ch1p2.png", "ch1p10.png", true},
		{"ch2p1.png", "ch10p1.png", true},
	}
	for _, tt := range tests {
		if got := naturalLess(tt.a, tt.b); got != tt.want {
			t.Errorf("naturalLess(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFromFSEnumerates(t *testing.T) {
	fsys := fstest.MapFS{
		"page10.png":            {Data: []byte("x")},
		"page2.png":             {Data: []byte("x")},
		"page1.png":             {Data: []byte("x")},
		"page1.json":            {Data: sidecarBytes},
		"_ocr/page2.json":       {Data: sidecarBytes},
		"translated/page1.png":  {Data: []byte("x")},
		"page2_translated.png":  {Data: []byte("x")},
		"page2_translated.json": {Data: sidecarBytes},
		"notes.txt":             {Data: []byte("x")},
		".hidden.png":           {Data: []byte("x")},
		"translated/page1.json": {Data: sidecarBytes},
	}
	b, err := FromFS(fsys, "vol1")
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3 (%+v)", b.Len(), b.Pages())
	}
	order := []string{"page1.png", "page2.png", "page10.png"}
	for i, want := range order {
		p, _ := b.Page(i)
		if p.Name != want {
			t.Errorf("page %d = %q, want %q", i, p.Name, want)
		}
	}

	p0, _ := b.Page(0)
	if p0.Sidecar != "page1.json" {
		t.Errorf("page1 sidecar = %q", p0.Sidecar)
	}
	if p0.Translated != "translated/page1.png" {
		t.Errorf("page1 translated = %q", p0.Translated)
	}
	if p0.TranslatedSidecar != "translated/page1.json" {
		t.Errorf("page1 translated sidecar = %q", p0.TranslatedSidecar)
	}

	p1, _ := b.Page(1)
	if p1.Sidecar != "_ocr/page2.json" {
		t.Errorf("page2 sidecar = %q", p1.Sidecar)
	}
	if p1.Translated != "page2_translated.png" {
		t.Errorf("page2 translated = %q", p1.Translated)
	}
	if p1.TranslatedSidecar != "page2_translated.json" {
		t.Errorf("page2 translated sidecar = %q", p1.TranslatedSidecar)
	}

	p2, _ := b.Page(2)
	if p2.Sidecar != "" || p2.Translated != "" {
		t.Errorf("page10 = %+v, want no attachments", p2)
	}
}

func TestFromFSNoPages(t *testing.T) {
	_, err := FromFS(fstest.MapFS{"notes.txt": {Data: []byte("x")}}, "empty")
	if !errors.Is(err, ErrNoPages) {
		t.Errorf("err = %v, want ErrNoPages", err)
	}
}

func TestDescendWrapper(t *testing.T) {
	fsys := fstest.MapFS{
		"MyBook/page1.png":       {Data: []byte("x")},
		"MyBook/_ocr/page1.json": {Data: sidecarBytes},
		"__MACOSX/._page1.png":   {Data: []byte("x")},
	}
	b, err := FromFS(fsys, "MyBook")
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != 1 {
		t.Fatalf("Len = %d, want 1", b.Len())
	}
	p, _ := b.Page(0)
	if p.Name != "page1.png" || p.Sidecar != "_ocr/page1.json" {
		t.Errorf("page = %+v", p)
	}
}

func TestOpenDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"page1.png":  pngBytes(t, 3, 2),
		"page2.png":  pngBytes(t, 4, 5),
		"page1.json": sidecarBytes,
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	b, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
	w, h, err := b.Dimensions(0)
	if err != nil {
		t.Fatal(err)
	}
	if w != 3 || h != 2 {
		t.Errorf("Dimensions = %dx%d, want 3x2", w, h)
	}
	data, err := b.OCR(0)
	if err != nil {
		t.Fatal(err)
	}
	if data == nil || len(data.Blocks) != 1 {
		t.Errorf("OCR(0) = %+v", data)
	}
	if data, err := b.OCR(1); err != nil || data != nil {
		t.Errorf("OCR(1) = %+v, %v, want nil, nil", data, err)
	}
}

func TestOpenArchive(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entries := map[string][]byte{
		"book/page1.png": pngBytes(t, 6, 7),
		"book/page2.png": pngBytes(t, 2, 2),
	}
	for name, data := range entries {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "vol1.cbz")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if b.Name() != "vol1" {
		t.Errorf("Name = %q, want vol1", b.Name())
	}
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
	w, h, err := b.Dimensions(0)
	if err != nil {
		t.Fatal(err)
	}
	if w != 6 || h != 7 {
		t.Errorf("Dimensions = %dx%d, want 6x7", w, h)
	}
}

func TestOpenImage(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "page1.png"), pngBytes(t, 3, 3), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "page1.json"), sidecarBytes, 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := Open(filepath.Join(dir, "page1.png"))
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != 1 {
		t.Fatalf("Len = %d, want 1", b.Len())
	}
	p, _ := b.Page(0)
	if p.Sidecar != "page1.json" {
		t.Errorf("sidecar = %q", p.Sidecar)
	}
}

func TestOpenUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestPageRangeAndTranslationErrors(t *testing.T) {
	b, err := FromFS(fstest.MapFS{"page1.png": {Data: []byte("x")}}, "vol")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Open(5); !errors.Is(err, ErrPageRange) {
		t.Errorf("Open(5) err = %v, want ErrPageRange", err)
	}
	if _, err := b.OpenTranslated(0); !errors.Is(err, ErrNoTranslation) {
		t.Errorf("OpenTranslated err = %v, want ErrNoTranslation", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}
