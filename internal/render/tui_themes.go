package render

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// TUITheme is the color scheme of the chat interface
type TUITheme struct {
	Name        string
	Description string

	Background lipgloss.Color
	Surface    lipgloss.Color
	Border     lipgloss.Color

	User      lipgloss.Color // User role label and bubble border
	Assistant lipgloss.Color // Assistant role label and bubble border
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color

	Text    lipgloss.Color
	TextDim lipgloss.Color
}

var (
	// TokyoNightTheme is the default theme
	TokyoNightTheme = TUITheme{
		Name:        "tokyonight",
		Description: "Tokyo Night, dark with blue accents",
		Background:  lipgloss.Color("#1a1b26"),
		Surface:     lipgloss.Color("#24283b"),
		Border:      lipgloss.Color("#414868"),
		User:        lipgloss.Color("#7aa2f7"),
		Assistant:   lipgloss.Color("#9ece6a"),
		Accent:      lipgloss.Color("#bb9af7"),
		Warning:     lipgloss.Color("#e0af68"),
		Error:       lipgloss.Color("#f7768e"),
		Text:        lipgloss.Color("#c0caf5"),
		TextDim:     lipgloss.Color("#565f89"),
	}

	// CatppuccinTheme uses the Catppuccin Mocha palette
	CatppuccinTheme = TUITheme{
		Name:        "catppuccin",
		Description: "Catppuccin Mocha, warm pastels",
		Background:  lipgloss.Color("#1e1e2e"),
		Surface:     lipgloss.Color("#313244"),
		Border:      lipgloss.Color("#45475a"),
		User:        lipgloss.Color("#89b4fa"),
		Assistant:   lipgloss.Color("#a6e3a1"),
		Accent:      lipgloss.Color("#cba6f7"),
		Warning:     lipgloss.Color("#f9e2af"),
		Error:       lipgloss.Color("#f38ba8"),
		Text:        lipgloss.Color("#cdd6f4"),
		TextDim:     lipgloss.Color("#6c7086"),
	}

	// NordTheme uses the Nord palette
	NordTheme = TUITheme{
		Name:        "nord",
		Description: "Nord, cool arctic tones",
		Background:  lipgloss.Color("#2e3440"),
		Surface:     lipgloss.Color("#3b4252"),
		Border:      lipgloss.Color("#4c566a"),
		User:        lipgloss.Color("#88c0d0"),
		Assistant:   lipgloss.Color("#a3be8c"),
		Accent:      lipgloss.Color("#b48ead"),
		Warning:     lipgloss.Color("#ebcb8b"),
		Error:       lipgloss.Color("#bf616a"),
		Text:        lipgloss.Color("#eceff4"),
		TextDim:     lipgloss.Color("#7b88a1"),
	}
)

var tuiThemes = []TUITheme{TokyoNightTheme, CatppuccinTheme, NordTheme}

// Gradient returns the colors cycled by progress animations
func (t TUITheme) Gradient() []lipgloss.Color {
	return []lipgloss.Color{t.User, t.Accent, t.Assistant, t.Warning, t.Error, t.Accent}
}

var (
	themeMu      sync.RWMutex
	currentTheme = TokyoNightTheme
)

// GetTUITheme returns the active theme
func GetTUITheme() TUITheme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

// SetTUITheme activates the theme called name. Unknown names leave the
// active theme unchanged and return false.
func SetTUITheme(name string) bool {
	theme, ok := TUIThemeByName(name)
	if !ok {
		return false
	}
	themeMu.Lock()
	currentTheme = theme
	themeMu.Unlock()
	return true
}

// TUIThemeByName looks up a theme
func TUIThemeByName(name string) (TUITheme, bool) {
	for _, t := range tuiThemes {
		if t.Name == name {
			return t, true
		}
	}
	return TUITheme{}, false
}

// TUIThemeNames lists the available theme names
func TUIThemeNames() []string {
	names := make([]string, len(tuiThemes))
	for i, t := range tuiThemes {
		names[i] = t.Name
	}
	return names
}
