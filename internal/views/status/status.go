package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/ninjabase8085/pushapp/internal/theme"
)

const minWidth = 60

// Model holds the status bar state.
type Model struct {
	Identity string // "guest:g1", "user:u1" or ""
	Channel  string // realtime state name
	Buffered int
	Server   string
	Width    int
}

func New() Model {
	return Model{Channel: "disconnected"}
}

// View renders the status bar.
func (m Model) View() string {
	width := max(m.Width, minWidth)

	channel := lipgloss.NewStyle().
		Foreground(theme.ChannelColor(m.Channel)).
		Render(theme.ChannelGlyph(m.Channel) + " " + m.Channel)

	who := m.Identity
	if who == "" {
		who = theme.StyleDimmed.Render("anonymous")
	}

	buffered := fmt.Sprintf("%d buffered", m.Buffered)
	if m.Buffered > 0 {
		buffered = lipgloss.NewStyle().Foreground(theme.ColorWarning).Render(buffered)
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := channel + sep + who + sep + buffered
	if m.Server != "" {
		content += sep + theme.StyleDimmed.Render(m.Server)
	}

	// One line always: overflow is cut rather than wrapped.
	content = lipgloss.NewStyle().Inline(true).MaxWidth(width - 4).Render(content)

	return lipgloss.NewStyle().
		Width(width - 2).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
