// Package overlay draws in-app content in the terminal. HTML is reduced to
// plain text and boxed according to the layout: popups are centred over
// the page, banners span the top and picture-in-picture sits bottom right.
package overlay

import (
	"html"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/microcosm-cc/bluemonday"

	"github.com/ninjabase8085/pushapp/internal/inapp"
	"github.com/ninjabase8085/pushapp/internal/theme"
)

var (
	strict = bluemonday.StrictPolicy()
	// Block-level tags become line breaks before stripping.
	blockBreaks = strings.NewReplacer(
		"<br>", "\n", "<br/>", "\n", "<br />", "\n",
		"</p>", "\n", "</div>", "\n", "</h1>", "\n", "</h2>", "\n", "</h3>", "\n", "</li>", "\n",
	)
)

// Text strips markup from an in-app document, keeping line structure.
func Text(doc string) string {
	s := strict.Sanitize(blockBreaks.Replace(doc))
	s = html.UnescapeString(s)

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func box(c inapp.Content, width int) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.LayoutColor(string(c.Layout))).
		Render(strings.ToUpper(string(c.Layout)))
	help := theme.StyleDimmed.Render("esc:dismiss")

	body := Text(c.HTML)
	if body == "" {
		body = theme.StyleDimmed.Render("(empty)")
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.LayoutColor(string(c.Layout))).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, body, help))
}

// Popup renders c centred in a width x height area.
func Popup(c inapp.Content, width, height int) string {
	w := max(min(width*2/3, 70), 24)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box(c, w))
}

// Banner renders c across the full width.
func Banner(c inapp.Content, width int) string {
	return box(c, max(width-2, 20))
}

// PiP renders c as a small box aligned right.
func PiP(c inapp.Content, width int) string {
	w := max(min(width/3, 40), 20)
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, box(c, w))
}
