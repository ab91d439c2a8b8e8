package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ninjabase8085/pushapp/internal/async"
	"github.com/ninjabase8085/pushapp/internal/identity"
	"github.com/ninjabase8085/pushapp/internal/inapp"
	"github.com/ninjabase8085/pushapp/internal/realtime"
	"github.com/ninjabase8085/pushapp/internal/surface"
	"github.com/ninjabase8085/pushapp/internal/theme"
	"github.com/ninjabase8085/pushapp/internal/views/debug"
	"github.com/ninjabase8085/pushapp/internal/views/overlay"
	"github.com/ninjabase8085/pushapp/internal/views/status"
)

const refreshInterval = 500 * time.Millisecond

// Session is the part of the SDK the demo drives.
type Session interface {
	SetForegroundSurface(s surface.Surface)
	ReleaseForegroundSurface(s surface.Surface)
	Login(userID string) *async.Future[struct{}]
	SendEvent(name string, data map[string]any) *async.Future[struct{}]
	Identity() (identity.Identity, bool)
	ChannelState() realtime.State
	Buffered() int
	ServerURL() string
}

type tickMsg time.Time

type loginDoneMsg struct {
	user string
	err  error
}

// Model is the root Bubble Tea model.
type Model struct {
	sess   Session
	bridge *Bridge
	keys   KeyMap
	user   string
	width  int
	height int

	pages  []*Page
	active int
	inbox  *inbox
	sent   int

	// In-app content currently shown, one slot per layout.
	shown map[inapp.Layout]inapp.Content

	showDebug bool
	debug     debug.Model
	statusBar status.Model
}

// New creates the root model. user is the id the login key logs in as.
func New(sess Session, bridge *Bridge, user string) Model {
	box := &inbox{}
	return Model{
		sess:      sess,
		bridge:    bridge,
		keys:      DefaultKeyMap(),
		user:      user,
		pages:     newPages(bridge, box),
		inbox:     box,
		shown:     make(map[inapp.Layout]inapp.Content),
		debug:     debug.New(),
		statusBar: status.New(),
	}
}

// Init brings the first page to the foreground.
func (m Model) Init() tea.Cmd {
	m.sess.SetForegroundSurface(m.pages[m.active])
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if n := m.bridge.TakeDropped(); n > 0 {
			m.debug.Add("WARN", fmt.Sprintf("UI queue full, %d messages dropped", n))
		}
		m.refreshStatus()
		return m, tick()

	case dispatchMsg:
		msg()
		for _, c := range m.inbox.drain() {
			m.shown[c.Layout] = c
		}
		return m, nil

	case logLineMsg:
		m.debug.AddLine(string(msg))
		return m, nil

	case loginDoneMsg:
		if msg.err != nil {
			m.debug.Add("ERROR", fmt.Sprintf("login as %s failed: %v", msg.user, msg.err))
		} else {
			m.debug.Add("INFO", "logged in as "+msg.user)
		}
		m.refreshStatus()
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.sess.ReleaseForegroundSurface(m.pages[m.active])
		return m, tea.Quit
	}

	if m.showDebug {
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Debug):
			m.showDebug = false
		case key.Matches(msg, m.keys.Up):
			m.debug.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.debug.ScrollDown(1)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Escape):
		m.dismissTop()
		return m, nil

	case key.Matches(msg, m.keys.Next):
		m.switchPage((m.active + 1) % len(m.pages))
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		m.switchPage((m.active - 1 + len(m.pages)) % len(m.pages))
		return m, nil

	case key.Matches(msg, m.keys.Debug):
		m.showDebug = true
		return m, nil

	case key.Matches(msg, m.keys.Event):
		page := m.pages[m.active]
		m.sent++
		m.sess.SendEvent(page.action, map[string]any{"page": page.name, "seq": m.sent})
		m.refreshStatus()
		return m, nil

	case key.Matches(msg, m.keys.Login):
		if m.user == "" {
			m.debug.Add("WARN", "no user configured, start with --user")
			return m, nil
		}
		user := m.user
		fut := m.sess.Login(user)
		m.refreshStatus()
		return m, func() tea.Msg {
			_, err := fut.Await()
			return loginDoneMsg{user: user, err: err}
		}
	}

	return m, nil
}

// switchPage moves the foreground to page i. Content shown on the old page
// goes away with it.
func (m *Model) switchPage(i int) {
	if i == m.active {
		return
	}
	m.sess.ReleaseForegroundSurface(m.pages[m.active])
	m.active = i
	clear(m.shown)
	m.sess.SetForegroundSurface(m.pages[i])
}

// dismissTop closes the popup first, then the banner, then the pip.
func (m *Model) dismissTop() {
	for _, l := range []inapp.Layout{inapp.Popup, inapp.Banner, inapp.PiP} {
		if _, ok := m.shown[l]; ok {
			delete(m.shown, l)
			return
		}
	}
}

func (m *Model) refreshStatus() {
	if id, ok := m.sess.Identity(); ok {
		m.statusBar.Identity = id.Kind.String() + ":" + id.Value
	} else {
		m.statusBar.Identity = ""
	}
	m.statusBar.Channel = m.sess.ChannelState().String()
	m.statusBar.Buffered = m.sess.Buffered()
	m.statusBar.Server = m.sess.ServerURL()
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	header := m.statusBar.View()
	tabs := m.renderTabs()
	help := theme.StyleDimmed.Render("  tab:page  e:event  l:login  d:log  esc:dismiss  q:quit")
	bodyHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(tabs)-lipgloss.Height(help), 3)

	var body string
	switch {
	case m.showDebug:
		body = m.debug.View(m.width, bodyHeight)
	case m.hasShown(inapp.Popup):
		body = overlay.Popup(m.shown[inapp.Popup], m.width, bodyHeight)
	default:
		var parts []string
		if c, ok := m.shown[inapp.Banner]; ok {
			parts = append(parts, overlay.Banner(c, m.width))
		}
		parts = append(parts, m.renderPage())
		if c, ok := m.shown[inapp.PiP]; ok {
			parts = append(parts, overlay.PiP(c, m.width))
		}
		body = lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, tabs, body, help)
}

func (m Model) hasShown(l inapp.Layout) bool {
	_, ok := m.shown[l]
	return ok
}

func (m Model) renderTabs() string {
	var tabs []string
	for i, p := range m.pages {
		if i == m.active {
			tabs = append(tabs, theme.StyleSelected.Render(p.name))
		} else {
			tabs = append(tabs, theme.StyleDimmed.Render(p.name))
		}
	}
	return "  " + strings.Join(tabs, "   ")
}

func (m Model) renderPage() string {
	p := m.pages[m.active]
	lines := []string{
		theme.StyleHeader.Render(strings.ToUpper(p.name)),
		"",
		p.blurb,
		"",
		theme.StyleDimmed.Render(fmt.Sprintf("e sends %q  (%d events sent)", p.action, m.sent)),
	}
	return theme.StyleBorder.
		Width(max(m.width-2, 20)).
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
