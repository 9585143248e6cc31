package viewer

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"testing"
	"testing/fstest"

	"golang.org/x/mobile/event/key"

	"github.com/example/mangalens/internal/book"
	"github.com/example/mangalens/internal/compose"
	"github.com/example/mangalens/internal/geometry"
	"github.com/example/mangalens/internal/render"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

var sidecarBytes = []byte(`{"img_width": 100, "img_height": 150, "blocks": [{"box": [10, 10, 60, 60], "vertical": true, "lines": ["hi", "there"]}]}`)

func testViewer(t *testing.T, pages int, opts ...Option) *Viewer {
	t.Helper()
	fsys := fstest.MapFS{
		"page1.json": {Data: sidecarBytes},
	}
	for i := 1; i <= pages; i++ {
		fsys[fmt.Sprintf("page%d.png", i)] = &fstest.MapFile{Data: pngBytes(t, 100, 150)}
	}
	b, err := book.FromFS(fsys, "testbook")
	if err != nil {
		t.Fatal(err)
	}
	v, err := New(b, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestNewBuildsPages(t *testing.T) {
	fsys := fstest.MapFS{
		"page1.png":             {Data: pngBytes(t, 100, 150)},
		"page1.json":            {Data: sidecarBytes},
		"translated/page1.png":  {Data: pngBytes(t, 120, 160)},
		"translated/page1.json": {Data: sidecarBytes},
		"page2.png":             {Data: pngBytes(t, 90, 140)},
	}
	b, err := book.FromFS(fsys, "vol")
	if err != nil {
		t.Fatal(err)
	}
	v, err := New(b)
	if err != nil {
		t.Fatal(err)
	}
	if got := v.comp.PageCount(); got != 2 {
		t.Fatalf("PageCount = %d, want 2", got)
	}
	p0, _ := v.comp.Page(0)
	if p0.Handle != "page1.png" || p0.NaturalW != 100 || p0.NaturalH != 150 {
		t.Errorf("page 0 = %+v", p0)
	}
	if p0.OCR == nil || len(p0.OCR.Blocks) != 1 {
		t.Errorf("page 0 OCR = %+v", p0.OCR)
	}
	tr, ok := v.comp.Counterpart(0)
	if !ok || tr.Handle != "translated/page1.png" || !tr.Translated {
		t.Errorf("counterpart 0 = %+v, ok %v", tr, ok)
	}
	if tr.NaturalW != 120 || tr.NaturalH != 160 {
		t.Errorf("counterpart dims = %dx%d", tr.NaturalW, tr.NaturalH)
	}
	p1, _ := v.comp.Page(1)
	if p1.OCR != nil {
		t.Errorf("page 1 OCR = %+v, want none", p1.OCR)
	}
}

func TestNewRejectsNilBook(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil book")
	}
}

func TestExecuteCommandNavigation(t *testing.T) {
	v := testViewer(t, 3)
	var out bytes.Buffer

	run := func(line, want string) {
		t.Helper()
		out.Reset()
		quit, err := v.executeCommand(line, &out)
		if err != nil {
			t.Fatalf("%q: %v", line, err)
		}
		if quit {
			t.Fatalf("%q asked to quit", line)
		}
		if out.String() != want {
			t.Errorf("%q output = %q, want %q", line, out.String(), want)
		}
	}

	run("page 2", "page 2/3\n")
	if v.comp.Current() != 1 {
		t.Fatalf("current = %d, want 1", v.comp.Current())
	}
	run("next", "page 3/3\n")
	run("next", "page 3/3\n")
	run("prev", "page 2/3\n")
	run("page 99", "page 3/3\n")
}

func TestExecuteCommandSettings(t *testing.T) {
	v := testViewer(t, 3)
	var out bytes.Buffer

	run := func(line, want string) {
		t.Helper()
		out.Reset()
		if _, err := v.executeCommand(line, &out); err != nil {
			t.Fatalf("%q: %v", line, err)
		}
		if out.String() != want {
			t.Errorf("%q output = %q, want %q", line, out.String(), want)
		}
	}

	run("mode double", "mode double\n")
	if v.comp.Mode() != compose.ModeDouble {
		t.Errorf("mode = %v", v.comp.Mode())
	}
	run("direction rtl", "direction rtl\n")
	run("overlay popup", "overlay popup\n")
	run("zoom 2.5", "zoom 2.50x\n")
	if v.gest.Scale() != 2.5 {
		t.Errorf("scale = %v, want 2.5", v.gest.Scale())
	}
	run("zoom 99", "zoom 5.00x\n")
	run("lens on", "lens on\n")
	if !v.lensOn {
		t.Error("lens should be on")
	}
	run("lens off", "lens off\n")

	out.Reset()
	if _, err := v.executeCommand("status", &out); err != nil {
		t.Fatal(err)
	}
	status := out.String()
	for _, want := range []string{"book testbook\n", "page 1/3\n", "mode double\n", "direction rtl\n", "overlay popup\n", "zoom 5.00x\n", "lens off\n"} {
		if !strings.Contains(status, want) {
			t.Errorf("status missing %q:\n%s", want, status)
		}
	}
}

func TestExecuteCommandQuitAndErrors(t *testing.T) {
	v := testViewer(t, 2)
	var out bytes.Buffer

	quit, err := v.executeCommand("quit", &out)
	if err != nil || !quit {
		t.Fatalf("quit = %v, err %v", quit, err)
	}

	if _, err := v.executeCommand("bogus", &out); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("bogus err = %v", err)
	}
	if _, err := v.executeCommand("page", &out); err == nil {
		t.Error("page without argument should fail")
	}
	if _, err := v.executeCommand("page x", &out); err == nil {
		t.Error("page x should fail")
	}
	if _, err := v.executeCommand("mode sideways", &out); err == nil {
		t.Error("unknown mode should fail")
	}
	if _, err := v.executeCommand("lens maybe", &out); err == nil {
		t.Error("lens maybe should fail")
	}

	out.Reset()
	if quit, err := v.executeCommand("   ", &out); quit || err != nil || out.Len() != 0 {
		t.Errorf("blank line: quit %v err %v out %q", quit, err, out.String())
	}
}

func TestPageTurnZone(t *testing.T) {
	v := testViewer(t, 3)
	v.width, v.height = 1000, 800

	if got := v.pageTurnZone(geometry.Pt(50, 300)); got != -1 {
		t.Errorf("left tap ltr = %d, want -1", got)
	}
	if got := v.pageTurnZone(geometry.Pt(950, 300)); got != 1 {
		t.Errorf("right tap ltr = %d, want 1", got)
	}
	if got := v.pageTurnZone(geometry.Pt(500, 300)); got != 0 {
		t.Errorf("center tap = %d, want 0", got)
	}

	v.comp.SetDirection(compose.DirectionRTL)
	if got := v.pageTurnZone(geometry.Pt(50, 300)); got != 1 {
		t.Errorf("left tap rtl = %d, want 1", got)
	}
	if got := v.pageTurnZone(geometry.Pt(950, 300)); got != -1 {
		t.Errorf("right tap rtl = %d, want -1", got)
	}

	v.comp.SetDirection(compose.DirectionLTR)
	v.gest.SetScale(2)
	if got := v.pageTurnZone(geometry.Pt(50, 300)); got != 0 {
		t.Errorf("zoomed tap = %d, want 0", got)
	}
	v.gest.Reset()

	v.comp.SetMode(compose.ModeWebtoon)
	if got := v.pageTurnZone(geometry.Pt(50, 300)); got != 0 {
		t.Errorf("webtoon tap = %d, want 0", got)
	}
}

func TestHandleGotoKey(t *testing.T) {
	v := testViewer(t, 3)

	if v.handleGotoKey(key.Event{Rune: '0'}) {
		t.Error("leading zero should not start a goto")
	}
	if !v.handleGotoKey(key.Event{Rune: '4'}) {
		t.Fatal("digit should start a goto")
	}
	if !v.handleGotoKey(key.Event{Rune: '2'}) {
		t.Fatal("digit should extend a goto")
	}
	if v.gotoBuf != "42" {
		t.Fatalf("buf = %q, want 42", v.gotoBuf)
	}
	if !v.handleGotoKey(key.Event{Rune: -1, Code: key.CodeReturnEnter}) {
		t.Fatal("enter should commit")
	}
	if v.gotoBuf != "" {
		t.Errorf("buf = %q after commit", v.gotoBuf)
	}
	if v.comp.Current() != 2 {
		t.Errorf("current = %d, want clamp to last page", v.comp.Current())
	}

	v.handleGotoKey(key.Event{Rune: '3'})
	if !v.handleGotoKey(key.Event{Rune: -1, Code: key.CodeDeleteBackspace}) {
		t.Fatal("backspace should be consumed")
	}
	if v.gotoBuf != "" {
		t.Errorf("buf = %q after backspace", v.gotoBuf)
	}

	v.handleGotoKey(key.Event{Rune: '3'})
	if !v.handleGotoKey(key.Event{Rune: -1, Code: key.CodeEscape}) {
		t.Fatal("escape should be consumed")
	}
	if v.gotoBuf != "" {
		t.Errorf("buf = %q after escape", v.gotoBuf)
	}

	v.handleGotoKey(key.Event{Rune: '3'})
	if v.handleGotoKey(key.Event{Rune: 'x', Code: key.CodeX}) {
		t.Error("letter should not be consumed")
	}
	if v.gotoBuf != "" {
		t.Errorf("buf = %q after letter", v.gotoBuf)
	}
}

func TestLookupShortcut(t *testing.T) {
	v := testViewer(t, 2)

	tests := []struct {
		e    key.Event
		want string
	}{
		{key.Event{Rune: ' ', Code: key.CodeSpacebar}, "next"},
		{key.Event{Rune: ' ', Code: key.CodeSpacebar, Modifiers: key.ModShift}, "prev"},
		{key.Event{Rune: -1, Code: key.CodePageDown}, "next"},
		{key.Event{Rune: 'M', Code: key.CodeM}, "mode"},
		{key.Event{Rune: 'q', Code: key.CodeQ}, "quit"},
		{key.Event{Rune: -1, Code: key.CodeEscape}, "dismiss"},
		{key.Event{Rune: '0', Code: key.Code0}, "zoomreset"},
	}
	for _, tt := range tests {
		got, ok := v.lookupShortcut(tt.e)
		if !ok || got != tt.want {
			t.Errorf("lookupShortcut(%+v) = %q, %v; want %q", tt.e, got, ok, tt.want)
		}
	}

	if _, ok := v.lookupShortcut(key.Event{Rune: 'z', Code: key.CodeZ}); ok {
		t.Error("unbound key should not resolve")
	}
}

func TestQuitAction(t *testing.T) {
	v := testViewer(t, 2)
	if v.runAction("next"); v.quitRequested {
		t.Fatal("next must not request quit")
	}
	if !v.runAction("quit") {
		t.Fatal("quit action should request quit")
	}
}

func TestWrapText(t *testing.T) {
	if got := wrapText("hello", 1000, 13); len(got) != 1 || got[0] != "hello" {
		t.Errorf("short text = %q", got)
	}

	long := strings.TrimSpace(strings.Repeat("word ", 40))
	lines := wrapText(long, 200, 13)
	if len(lines) < 2 {
		t.Fatalf("long text did not wrap: %q", lines)
	}
	for _, ln := range lines {
		w, _, _, err := render.MeasureText(ln, 13)
		if err != nil {
			t.Fatal(err)
		}
		if float64(w) > 200 {
			t.Errorf("line %q measures %d, over limit", ln, w)
		}
		if ln != strings.TrimSpace(ln) {
			t.Errorf("line %q has ragged spacing", ln)
		}
	}

	unbroken := strings.Repeat("a", 200)
	if lines := wrapText(unbroken, 150, 13); len(lines) < 2 {
		t.Errorf("unbroken run did not wrap: %d lines", len(lines))
	}

	if lines := wrapText("one\ntwo", 1000, 13); len(lines) != 2 {
		t.Errorf("newline split = %q", lines)
	}
	if lines := wrapText("   ", 1000, 13); len(lines) != 0 {
		t.Errorf("blank text = %q", lines)
	}
}

func TestSnapshotShape(t *testing.T) {
	v := testViewer(t, 3)

	st := v.snapshot()
	if len(st.frame.Slots) != 1 {
		t.Fatalf("single mode slots = %d, want 1", len(st.frame.Slots))
	}
	if len(st.pix) != len(st.frame.Slots) {
		t.Fatalf("pix len %d != slots %d", len(st.pix), len(st.frame.Slots))
	}
	if st.progress <= 0 || st.progress > 1 {
		t.Errorf("progress = %v", st.progress)
	}
	if !strings.Contains(st.status, "page 1/3") {
		t.Errorf("status = %q", st.status)
	}

	v.comp.SetMode(compose.ModeWebtoon)
	v.relayoutStrip()
	st = v.snapshot()
	if len(st.frame.Slots) == 0 {
		t.Fatal("webtoon snapshot has no slots")
	}
	if len(st.pix) != len(st.frame.Slots) {
		t.Fatalf("pix len %d != slots %d", len(st.pix), len(st.frame.Slots))
	}
}

func TestBuildPopup(t *testing.T) {
	v := testViewer(t, 2)

	pb := v.buildPopup("hello world", geometry.Pt(600, 400))
	if pb == nil {
		t.Fatal("popup not built")
	}
	if pb.img == nil || pb.img.Bounds().Empty() {
		t.Fatal("popup image empty")
	}

	if pb := v.buildPopup("   ", geometry.Pt(600, 400)); pb != nil {
		t.Error("blank text should not build a popup")
	}
}

func TestDismissOrder(t *testing.T) {
	v := testViewer(t, 2)
	v.gotoBuf = "12"
	v.popup = &popupBox{img: image.NewRGBA(image.Rect(0, 0, 1, 1))}
	v.panelText = "words"
	v.activeIndex = 0

	v.dismiss()
	if v.gotoBuf != "" {
		t.Fatal("first dismiss should clear the goto buffer")
	}
	if v.popup == nil {
		t.Fatal("popup should survive the first dismiss")
	}
	v.dismiss()
	if v.popup != nil {
		t.Fatal("second dismiss should clear the popup")
	}
	v.dismiss()
	if v.panelText != "" || v.activeIndex != -1 {
		t.Fatalf("third dismiss left panel %q index %d", v.panelText, v.activeIndex)
	}
}

func TestModeSwitchResetsTransient(t *testing.T) {
	v := testViewer(t, 3)
	v.panelText = "words"
	v.gest.SetScale(3)

	v.setMode(compose.ModeWebtoon)
	if v.panelText != "" {
		t.Error("mode switch kept panel text")
	}
	if v.gest.Scale() != 1 {
		t.Errorf("mode switch kept zoom %v", v.gest.Scale())
	}
	if v.comp.Mode() != compose.ModeWebtoon {
		t.Errorf("mode = %v", v.comp.Mode())
	}
}

func TestScrollClamping(t *testing.T) {
	v := testViewer(t, 3)
	v.comp.SetMode(compose.ModeWebtoon)
	v.relayoutStrip()

	v.scrollBy(-100)
	if v.scrollTop != 0 {
		t.Errorf("scrollTop = %v, want clamp at 0", v.scrollTop)
	}
	v.scrollBy(1e9)
	max := v.comp.StripHeight(v.viewport().Width()) - v.viewport().Height()
	if max < 0 {
		max = 0
	}
	if v.scrollTop != max {
		t.Errorf("scrollTop = %v, want clamp at %v", v.scrollTop, max)
	}
}
