package ocr

import (
	"testing"

	"github.com/example/mangalens/internal/geometry"
)

func TestHitTestInclusiveBounds(t *testing.T) {
	blocks := []Block{{Box: geometry.R(10, 10, 50, 50), Lines: []string{"a"}}}
	hits := []geometry.Point{{X: 10, Y: 10}, {X: 50, Y: 50}, {X: 30, Y: 30}}
	for _, p := range hits {
		if HitTest(p, blocks) == nil {
			t.Errorf("HitTest(%v) = nil, want block", p)
		}
	}
	misses := []geometry.Point{{X: 9, Y: 30}, {X: 51, Y: 30}}
	for _, p := range misses {
		if got := HitTest(p, blocks); got != nil {
			t.Errorf("HitTest(%v) = %v, want nil", p, got)
		}
	}
}

func TestHitTestFirstMatchWins(t *testing.T) {
	blocks := []Block{
		{Box: geometry.R(0, 0, 100, 100), Lines: []string{"first"}},
		{Box: geometry.R(50, 50, 150, 150), Lines: []string{"second"}},
	}
	got := HitTest(geometry.Pt(75, 75), blocks)
	if got == nil {
		t.Fatal("HitTest returned nil inside both blocks")
	}
	if got.Lines[0] != "first" {
		t.Fatalf("HitTest returned %q, want the earlier block", got.Lines[0])
	}
	if got != &blocks[0] {
		t.Fatal("HitTest did not return a pointer into the supplied slice")
	}
}

func TestHitTestEmpty(t *testing.T) {
	if got := HitTest(geometry.Pt(1, 1), nil); got != nil {
		t.Fatalf("HitTest on no blocks = %v, want nil", got)
	}
}

func TestJoinLinesCJK(t *testing.T) {
	lines := []string{"今日", "は"}
	if got := JoinLines(lines, "ja"); got != "今日は" {
		t.Errorf("ja join = %q, want %q", got, "今日は")
	}
	if got := JoinLines(lines, "en"); got != "今日 は" {
		t.Errorf("en join = %q, want %q", got, "今日 は")
	}
}

func TestSeparatorByLanguage(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{"ja", ""},
		{"zh", ""},
		{"zh-TW", ""},
		{"ko", ""},
		{"en", " "},
		{"fr", " "},
		{"", " "},
		{"not-a-tag!", " "},
	}
	for _, tt := range tests {
		if got := Separator(tt.lang); got != tt.want {
			t.Errorf("Separator(%q) = %q, want %q", tt.lang, got, tt.want)
		}
	}
}

func TestScaleTo(t *testing.T) {
	d := &Data{
		Width:  1000,
		Height: 2000,
		Blocks: []Block{{Box: geometry.R(100, 200, 300, 400), Lines: []string{"x"}}},
	}
	scaled := d.ScaleTo(500, 1000)
	want := geometry.R(50, 100, 150, 200)
	if scaled.Blocks[0].Box != want {
		t.Fatalf("scaled box = %v, want %v", scaled.Blocks[0].Box, want)
	}
	if d.Blocks[0].Box != geometry.R(100, 200, 300, 400) {
		t.Fatal("ScaleTo mutated the original data")
	}
	if again := d.ScaleTo(1000, 2000); again != d {
		t.Fatal("ScaleTo with matching size should return the same data")
	}
}
