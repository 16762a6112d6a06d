// Package theme holds the console color palette.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme is a set of console colors.
type Theme struct {
	Primary   lipgloss.Color
	Text      lipgloss.Color
	TextMuted lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

// Default is the built-in palette.
var Default = Theme{
	Primary:   lipgloss.Color("#00ff00"),
	Text:      lipgloss.Color("#ffffff"),
	TextMuted: lipgloss.Color("#808080"),
	Success:   lipgloss.Color("#5fd75f"),
	Warning:   lipgloss.Color("#ffaf00"),
	Error:     lipgloss.Color("#ff5f5f"),
}

// CurrentTheme is the palette used by new console processors.
var CurrentTheme = Default

// SetTheme sets the current theme
func SetTheme(t Theme) {
	CurrentTheme = t
}
