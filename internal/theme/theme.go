// Package theme provides the Lip Gloss palette and shared styles for the
// demo host. It is a leaf package with no internal imports.
package theme

import "github.com/charmbracelet/lipgloss"

// Log level colors.
var (
	ColorDebug = lipgloss.Color("#6b7280")
	ColorInfo  = lipgloss.Color("#3b82f6")
	ColorWarn  = lipgloss.Color("#d97706")
	ColorError = lipgloss.Color("#dc2626")
)

// In-app layout accents.
var (
	ColorPopup  = lipgloss.Color("#a855f7")
	ColorBanner = lipgloss.Color("#06b6d4")
	ColorPiP    = lipgloss.Color("#22c55e")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// LevelColor returns the color for a slog level name.
func LevelColor(level string) lipgloss.Color {
	switch level {
	case "DEBUG":
		return ColorDebug
	case "INFO":
		return ColorInfo
	case "WARN":
		return ColorWarn
	case "ERROR":
		return ColorError
	default:
		return ColorDimmed
	}
}

// LayoutColor returns the accent for an in-app layout name.
func LayoutColor(layout string) lipgloss.Color {
	switch layout {
	case "popup":
		return ColorPopup
	case "banner":
		return ColorBanner
	case "pip":
		return ColorPiP
	default:
		return ColorBorder
	}
}

// ChannelColor returns the color for a realtime channel state name.
func ChannelColor(state string) lipgloss.Color {
	switch state {
	case "open":
		return ColorHealthy
	case "connecting", "closing":
		return ColorWarning
	default:
		return ColorDanger
	}
}

// ChannelGlyph returns a glyph for a realtime channel state name.
func ChannelGlyph(state string) string {
	switch state {
	case "open":
		return "●"
	case "connecting":
		return "◎"
	case "closing":
		return "◌"
	default:
		return "○"
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
		Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright).
		Underline(true)
)
