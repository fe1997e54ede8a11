package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorDanger  = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginBottom(1)

	publishedStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	hiddenStyle    = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)

	selectedStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)

	keyStyle = lipgloss.NewStyle().Foreground(colorPrimary)
)

// FormatKey renders one "key action" pair of the help line.
func FormatKey(key, action string) string {
	return keyStyle.Render(key) + " " + mutedStyle.Render(action)
}
