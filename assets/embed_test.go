package assets

import (
	"image/png"
	"io/fs"
	"testing"
)

func TestDemoBookLayout(t *testing.T) {
	fsys := Demo()
	names := []string{
		"page1.png", "page1.json",
		"page2.png", "page2.json",
		"page3.png",
		"translated/page1.png", "translated/page1.json",
	}
	for _, n := range names {
		if _, err := fs.Stat(fsys, n); err != nil {
			t.Errorf("missing %s: %v", n, err)
		}
	}
}

func TestDemoPagesDecode(t *testing.T) {
	fsys := Demo()
	for _, n := range []string{"page1.png", "page2.png", "page3.png"} {
		f, err := fsys.Open(n)
		if err != nil {
			t.Fatalf("open %s: %v", n, err)
		}
		cfg, err := png.DecodeConfig(f)
		f.Close()
		if err != nil {
			t.Fatalf("decode %s: %v", n, err)
		}
		if cfg.Width <= 0 || cfg.Height <= 0 {
			t.Fatalf("%s has no size", n)
		}
	}
}
