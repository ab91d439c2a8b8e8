// Package debug provides a scrollable overlay showing the SDK's log.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ninjabase8085/pushapp/internal/theme"
)

const maxEntries = 200

// Entry is a single log line.
type Entry struct {
	Time    time.Time
	Level   string // "DEBUG", "INFO", "WARN", "ERROR"
	Message string
}

// Model holds debug log state.
type Model struct {
	Entries []Entry
	Offset  int // scroll offset from the bottom
}

func New() Model {
	return Model{}
}

// Add appends an entry, caps the buffer and scrolls to the bottom.
func (m *Model) Add(level, message string) {
	m.Entries = append(m.Entries, Entry{
		Time:    time.Now(),
		Level:   level,
		Message: message,
	})
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	m.Offset = 0
}

// AddLine parses a slog text-handler line and appends it.
func (m *Model) AddLine(line string) {
	level, msg := ParseLine(line)
	m.Add(level, msg)
}

// ParseLine splits a slog text line into its level and the remainder,
// dropping the time attribute.
func ParseLine(line string) (level, rest string) {
	rest = strings.TrimSpace(line)
	if strings.HasPrefix(rest, "time=") {
		if i := strings.IndexByte(rest, ' '); i >= 0 {
			rest = rest[i+1:]
		} else {
			rest = ""
		}
	}
	if strings.HasPrefix(rest, "level=") {
		rest = rest[len("level="):]
		if i := strings.IndexByte(rest, ' '); i >= 0 {
			level, rest = rest[:i], rest[i+1:]
		} else {
			level, rest = rest, ""
		}
	}
	return level, rest
}

func (m *Model) ScrollUp(n int) {
	m.Offset = min(m.Offset+n, max(len(m.Entries)-1, 0))
}

func (m *Model) ScrollDown(n int) {
	m.Offset = max(m.Offset-n, 0)
}

func panelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)
}

// View renders the log as an overlay panel.
func (m Model) View(width, height int) string {
	innerW := max(width-4, 20)
	visibleLines := max(height-6, 3)

	title := theme.StyleHeader.Render(" SDK LOG ")
	help := theme.StyleDimmed.Render(fmt.Sprintf("j/k:scroll  esc:close  %d entries", len(m.Entries)))

	if len(m.Entries) == 0 {
		body := theme.StyleDimmed.Render("  Nothing logged yet.")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help)
		return panelStyle(innerW).Render(content)
	}

	end := max(len(m.Entries)-m.Offset, 0)
	start := max(end-visibleLines, 0)

	var lines []string
	for _, e := range m.Entries[start:end] {
		ts := theme.StyleDimmed.Render(e.Time.Format("15:04:05.000"))
		lvl := lipgloss.NewStyle().Foreground(theme.LevelColor(e.Level)).Width(5).Render(e.Level)
		msg := e.Message
		if len(msg) > innerW-20 && innerW > 23 {
			msg = msg[:innerW-23] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", ts, lvl, msg))
	}

	scroll := ""
	if m.Offset > 0 {
		scroll = theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d more", m.Offset))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"), scroll, help)
	return panelStyle(innerW).Render(content)
}
