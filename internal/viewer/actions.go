package viewer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/mobile/event/key"

	"github.com/example/mangalens/internal/compose"
)

// keyShortcut describes a keyboard combination that triggers an action.
// A registration sets either Rune or Code, never both; dispatch tries
// both forms because drivers fill both fields on most keys.
type keyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

type shortcutList []keyShortcut

// initActions fills the action registry. Action funcs run on the event
// loop and leave redraw scheduling to the caller.
func (v *Viewer) initActions() {
	v.actions = map[string]func(){}
	v.keyboardAction = map[keyShortcut]string{}

	register := func(name string, keys shortcutList, fn func()) {
		v.actions[name] = fn
		for _, sc := range keys {
			v.keyboardAction[sc] = name
		}
	}

	register("next", shortcutList{{Rune: ' '}, {Code: key.CodePageDown}}, func() {
		v.nextPage()
	})
	register("prev", shortcutList{{Rune: ' ', Modifiers: key.ModShift}, {Code: key.CodePageUp}}, func() {
		v.prevPage()
	})
	register("first", shortcutList{{Code: key.CodeHome}}, func() {
		v.gotoPage(0)
	})
	register("last", shortcutList{{Code: key.CodeEnd}}, func() {
		v.gotoPage(v.comp.PageCount() - 1)
	})
	register("mode", shortcutList{{Rune: 'm'}}, func() {
		v.cycleMode()
	})
	register("direction", shortcutList{{Rune: 'd'}}, func() {
		d := v.comp.ToggleDirection()
		v.showMessage("direction: " + d.String())
	})
	register("overlay", shortcutList{{Rune: 'o'}}, func() {
		o := v.comp.ToggleOverlay()
		v.clearTransient()
		v.showMessage("overlay: " + o.String())
	})
	register("compare", shortcutList{{Rune: 'c'}}, func() {
		v.setCompare(!v.comp.Compare())
	})
	register("crop", shortcutList{{Rune: 'r'}}, func() {
		v.setCrop(!v.cropArmed)
	})
	register("lens", shortcutList{{Rune: 'l'}}, func() {
		v.setLens(!v.lensOn)
	})
	register("zoomin", shortcutList{{Rune: '+'}, {Rune: '+', Modifiers: key.ModShift}, {Rune: '='}}, func() {
		v.zoomStep(1)
	})
	register("zoomout", shortcutList{{Rune: '-'}}, func() {
		v.zoomStep(-1)
	})
	register("zoomreset", shortcutList{{Rune: '0'}}, func() {
		v.gest.Reset()
	})
	register("lensin", shortcutList{{Rune: ']'}}, func() {
		v.lensZoomStep(1)
	})
	register("lensout", shortcutList{{Rune: '['}}, func() {
		v.lensZoomStep(-1)
	})
	register("dismiss", shortcutList{{Code: key.CodeEscape}}, func() {
		v.dismiss()
	})
	register("quit", shortcutList{{Rune: 'q'}}, func() {
		v.quitRequested = true
	})
}

// lookupShortcut resolves a key event against the registry, trying the
// exact combination, the rune form and the code form.
func (v *Viewer) lookupShortcut(e key.Event) (string, bool) {
	r := unicode.ToLower(e.Rune)
	if name, ok := v.keyboardAction[keyShortcut{Rune: r, Code: e.Code, Modifiers: e.Modifiers}]; ok {
		return name, true
	}
	if e.Rune > 0 {
		if name, ok := v.keyboardAction[keyShortcut{Rune: r, Modifiers: e.Modifiers}]; ok {
			return name, true
		}
	}
	if name, ok := v.keyboardAction[keyShortcut{Code: e.Code, Modifiers: e.Modifiers}]; ok {
		return name, true
	}
	return "", false
}

// runAction executes a registered action and reports whether it asked
// the loop to quit.
func (v *Viewer) runAction(name string) bool {
	fn, ok := v.actions[name]
	if !ok {
		return false
	}
	fn()
	return v.quitRequested
}

func (v *Viewer) zoomStep(steps float64) {
	if v.comp.Mode() == compose.ModeWebtoon {
		return
	}
	v.gest.Wheel(steps, v.viewport().Center())
}

func (v *Viewer) lensZoomStep(steps float64) {
	if !v.lensOn {
		return
	}
	v.loupe.AdjustZoom(steps)
	v.showMessage(fmt.Sprintf("lens %.2fx", v.loupe.Zoom()))
	v.requestFrame()
}

// executeCommand runs one control-socket line. It reports whether the
// command asked the viewer to quit; errors go back to the client as a
// failed command.
func (v *Viewer) executeCommand(line string, out io.Writer) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "page":
		if len(args) != 1 {
			return false, errors.New("usage: page N")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("bad page number %q", args[0])
		}
		v.gotoPage(n - 1)
		v.printPage(out)
	case "next":
		v.nextPage()
		v.printPage(out)
	case "prev":
		v.prevPage()
		v.printPage(out)
	case "mode":
		if len(args) != 1 {
			return false, errors.New("usage: mode single|double|webtoon")
		}
		m, err := compose.ParseMode(args[0])
		if err != nil {
			return false, err
		}
		v.setMode(m)
		fmt.Fprintf(out, "mode %s\n", v.comp.Mode())
	case "direction":
		if len(args) != 1 {
			return false, errors.New("usage: direction ltr|rtl")
		}
		d, err := compose.ParseDirection(args[0])
		if err != nil {
			return false, err
		}
		v.setDirection(d)
		fmt.Fprintf(out, "direction %s\n", v.comp.Direction())
	case "overlay":
		if len(args) != 1 {
			return false, errors.New("usage: overlay panel|popup")
		}
		o, err := compose.ParseOverlay(args[0])
		if err != nil {
			return false, err
		}
		v.setOverlay(o)
		fmt.Fprintf(out, "overlay %s\n", v.comp.Overlay())
	case "zoom":
		if len(args) != 1 {
			return false, errors.New("usage: zoom FACTOR")
		}
		z, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return false, fmt.Errorf("bad zoom factor %q", args[0])
		}
		v.gest.SetScale(z)
		fmt.Fprintf(out, "zoom %.2fx\n", v.gest.Scale())
	case "lens":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return false, errors.New("usage: lens on|off")
		}
		v.setLens(args[0] == "on")
		fmt.Fprintf(out, "lens %s\n", onOff(v.lensOn))
	case "status":
		fmt.Fprint(out, v.statusReport())
	case "quit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
	return false, nil
}

func (v *Viewer) printPage(out io.Writer) {
	fmt.Fprintf(out, "page %d/%d\n", v.comp.Current()+1, v.comp.PageCount())
}

// statusReport summarizes the viewer state for the status command, one
// key-value pair per line.
func (v *Viewer) statusReport() string {
	var b strings.Builder
	fmt.Fprintf(&b, "book %s\n", v.book.Name())
	fmt.Fprintf(&b, "page %d/%d\n", v.comp.Current()+1, v.comp.PageCount())
	fmt.Fprintf(&b, "mode %s\n", v.comp.Mode())
	fmt.Fprintf(&b, "direction %s\n", v.comp.Direction())
	fmt.Fprintf(&b, "overlay %s\n", v.comp.Overlay())
	fmt.Fprintf(&b, "zoom %.2fx\n", v.gest.Scale())
	fmt.Fprintf(&b, "lens %s\n", onOff(v.lensOn))
	if v.comp.Compare() {
		fmt.Fprintf(&b, "compare %s\n", v.comp.CompareLayout())
	}
	return b.String()
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
