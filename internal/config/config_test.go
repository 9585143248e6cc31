package config

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `
mode = double
direction = rtl
overlay = popup
lang = ja
theme = my_custom_theme
save_dir = /tmp/pages

[lens]
zoom = 3.5
size = 240

[notify]
crop = true
save = false
copy = true

[theme.my_custom_theme]
Background = #111111
PanelText = #FFFFFF
`
	r := strings.NewReader(input)
	cfg, err := Parse(r)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Mode != "double" {
		t.Errorf("Expected mode 'double', got '%s'", cfg.Mode)
	}
	if cfg.Direction != "rtl" {
		t.Errorf("Expected direction 'rtl', got '%s'", cfg.Direction)
	}
	if cfg.Overlay != "popup" {
		t.Errorf("Expected overlay 'popup', got '%s'", cfg.Overlay)
	}
	if cfg.Lang != "ja" {
		t.Errorf("Expected lang 'ja', got '%s'", cfg.Lang)
	}
	if cfg.Theme != "my_custom_theme" {
		t.Errorf("Expected theme 'my_custom_theme', got '%s'", cfg.Theme)
	}
	if cfg.SaveDir != "/tmp/pages" {
		t.Errorf("Expected save_dir '/tmp/pages', got '%s'", cfg.SaveDir)
	}

	if cfg.Lens.Zoom != 3.5 {
		t.Errorf("Expected lens.zoom 3.5, got %g", cfg.Lens.Zoom)
	}
	if cfg.Lens.Size != 240 {
		t.Errorf("Expected lens.size 240, got %d", cfg.Lens.Size)
	}

	if !cfg.Notify.Crop {
		t.Error("Expected notify.crop to be true")
	}
	if cfg.Notify.Save {
		t.Error("Expected notify.save to be false")
	}
	if !cfg.Notify.Copy {
		t.Error("Expected notify.copy to be true")
	}

	theme, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}

	if theme.Background.R != 0x11 || theme.Background.G != 0x11 || theme.Background.B != 0x11 {
		t.Errorf("Unexpected Background color: %+v", theme.Background)
	}
	if theme.PanelText.R != 0xFF || theme.PanelText.G != 0xFF || theme.PanelText.B != 0xFF {
		t.Errorf("Unexpected PanelText color: %+v", theme.PanelText)
	}
}

func TestParseBadValues(t *testing.T) {
	cases := []string{
		"[lens]\nzoom = huge\n",
		"[lens]\nsize = big\n",
		"[notify]\ncrop = maybe\n",
		"[theme.x]\nBackground = #12345\n",
	}
	for _, input := range cases {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("Expected error parsing %q, got nil", input)
		}
	}
}

func TestCircular(t *testing.T) {
	input := `mode = webtoon
direction = ltr
lang = ko
theme = dark
save_dir = /home/user/pages

[lens]
zoom = 2.5
size = 200

[notify]
crop = true
save = true
copy = false

[theme.custom]
Name = custom
Background = #000000
OverlayFill = #FF000033
`
	// 1. Parse initial input
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}

	// 2. Generate string representation
	generated := cfg.String()

	// 3. Parse generated string
	cfg2, err := Parse(strings.NewReader(generated))
	if err != nil {
		t.Fatalf("Circular parse failed: %v", err)
	}

	// 4. Compare relevant fields
	if cfg.Mode != cfg2.Mode {
		t.Errorf("Mode mismatch: %q vs %q", cfg.Mode, cfg2.Mode)
	}
	if cfg.Direction != cfg2.Direction {
		t.Errorf("Direction mismatch: %q vs %q", cfg.Direction, cfg2.Direction)
	}
	if cfg.Lang != cfg2.Lang {
		t.Errorf("Lang mismatch: %q vs %q", cfg.Lang, cfg2.Lang)
	}
	if cfg.Theme != cfg2.Theme {
		t.Errorf("Theme mismatch: %q vs %q", cfg.Theme, cfg2.Theme)
	}
	if cfg.SaveDir != cfg2.SaveDir {
		t.Errorf("SaveDir mismatch: %q vs %q", cfg.SaveDir, cfg2.SaveDir)
	}
	if cfg.Lens != cfg2.Lens {
		t.Errorf("Lens mismatch: %+v vs %+v", cfg.Lens, cfg2.Lens)
	}
	if cfg.Notify != cfg2.Notify {
		t.Errorf("Notify mismatch: %+v vs %+v", cfg.Notify, cfg2.Notify)
	}

	// Check theme persistence
	t1 := cfg.Themes["custom"]
	t2 := cfg2.Themes["custom"]
	if t1 == nil || t2 == nil {
		t.Fatalf("Custom theme missing in one config")
	}
	if t1.Background != t2.Background {
		t.Errorf("Theme background mismatch: %v vs %v", t1.Background, t2.Background)
	}
	if t1.OverlayFill != t2.OverlayFill {
		t.Errorf("Theme overlay fill mismatch: %v vs %v", t1.OverlayFill, t2.OverlayFill)
	}
}
