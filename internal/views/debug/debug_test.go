package debug

import (
	"strings"
	"testing"
)

func TestAddEntry(t *testing.T) {
	m := New()
	m.Add("INFO", "connected")
	if len(m.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(m.Entries))
	}
	if m.Entries[0].Level != "INFO" {
		t.Errorf("expected level INFO, got %q", m.Entries[0].Level)
	}
}

func TestMaxEntries(t *testing.T) {
	m := New()
	for i := 0; i < maxEntries+50; i++ {
		m.Add("INFO", "msg")
	}
	if len(m.Entries) != maxEntries {
		t.Errorf("expected %d entries, got %d", maxEntries, len(m.Entries))
	}
}

func TestScroll(t *testing.T) {
	m := New()
	for i := 0; i < 20; i++ {
		m.Add("INFO", "msg")
	}

	m.ScrollUp(5)
	if m.Offset != 5 {
		t.Errorf("expected offset 5, got %d", m.Offset)
	}
	m.ScrollDown(3)
	if m.Offset != 2 {
		t.Errorf("expected offset 2, got %d", m.Offset)
	}
	m.ScrollDown(10)
	if m.Offset != 0 {
		t.Errorf("expected offset 0, got %d", m.Offset)
	}
	m.ScrollUp(100)
	if m.Offset != 19 {
		t.Errorf("expected offset capped at 19, got %d", m.Offset)
	}

	m.Add("INFO", "new")
	if m.Offset != 0 {
		t.Error("adding an entry should scroll to the bottom")
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line, level, rest string
	}{
		{`time=2026-10-18T10:00:00.000Z level=WARN msg="event send failed" event=x`, "WARN", `msg="event send failed" event=x`},
		{`level=INFO msg=hi`, "INFO", "msg=hi"},
		{"plain text\n", "", "plain text"},
		{"level=DEBUG", "DEBUG", ""},
	}
	for _, tt := range tests {
		level, rest := ParseLine(tt.line)
		if level != tt.level || rest != tt.rest {
			t.Errorf("ParseLine(%q) = %q, %q; want %q, %q", tt.line, level, rest, tt.level, tt.rest)
		}
	}
}

func TestView(t *testing.T) {
	m := New()
	if v := m.View(80, 20); !strings.Contains(v, "Nothing logged") {
		t.Error("empty view should say nothing is logged")
	}

	m.AddLine(`time=x level=INFO msg=connected`)
	m.AddLine(`time=x level=ERROR msg=timeout`)
	v := m.View(80, 20)
	if !strings.Contains(v, "connected") || !strings.Contains(v, "timeout") {
		t.Error("view should contain both messages")
	}
}
