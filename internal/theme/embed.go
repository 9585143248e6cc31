package theme

import (
	"embed"
	"sort"
	"strings"
)

//go:embed themes/*.theme
var EmbeddedThemes embed.FS

// Builtin lists the names of the embedded themes.
func Builtin() []string {
	entries, err := EmbeddedThemes.ReadDir("themes")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".theme"))
	}
	sort.Strings(names)
	return names
}
