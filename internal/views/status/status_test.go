package status

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestViewAnonymous(t *testing.T) {
	m := New()
	v := m.View()
	for _, want := range []string{"disconnected", "anonymous", "0 buffered"} {
		if !strings.Contains(v, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestViewLoggedIn(t *testing.T) {
	m := Model{Identity: "user:u1", Channel: "open", Buffered: 3, Server: "https://acme.mehery.com", Width: 120}
	v := m.View()
	for _, want := range []string{"open", "user:u1", "3 buffered", "acme.mehery.com"} {
		if !strings.Contains(v, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestViewStaysOneLine(t *testing.T) {
	tests := []struct {
		name string
		m    Model
	}{
		{"default width", New()},
		{"narrow terminal", Model{Channel: "connecting", Width: 12}},
		{"long server", Model{Identity: "user:u1", Channel: "open", Server: "https://" + strings.Repeat("x", 200) + ".com", Width: 80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.m.View()
			if h := lipgloss.Height(v); h != 3 {
				t.Errorf("expected a 3-line bar, got %d lines:\n%s", h, v)
			}
			if w := lipgloss.Width(v); w != max(tt.m.Width, minWidth) {
				t.Errorf("expected width %d, got %d", max(tt.m.Width, minWidth), w)
			}
		})
	}
}
