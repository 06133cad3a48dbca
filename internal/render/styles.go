package render

import (
	"os"
	"slices"

	"github.com/charmbracelet/glamour/styles"
)

// MarkdownStyles returns the names of glamour's built-in markdown styles, sorted
func MarkdownStyles() []string {
	names := make([]string, 0, len(styles.DefaultStyles))
	for name := range styles.DefaultStyles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsBuiltinStyle reports whether style names a built-in markdown style
func IsBuiltinStyle(style string) bool {
	_, ok := styles.DefaultStyles[style]
	return ok
}

// ValidStyle reports whether style is built in or points at a readable file
func ValidStyle(style string) bool {
	if IsBuiltinStyle(style) {
		return true
	}
	info, err := os.Stat(style)
	return err == nil && !info.IsDir()
}
