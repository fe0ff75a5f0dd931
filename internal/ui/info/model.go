package info

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ifconcept/gvail/internal/keys"
	"github.com/ifconcept/gvail/internal/theme"
)

// CloseMsg signals the parent to return to the inbox.
type CloseMsg struct{}

// Model is a static informational page (about, privacy, vision)
// rendered in a scrollable viewport.
type Model struct {
	title    string
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates an info page with the given title and body text.
func New(title, body string, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.SetContent(wrapBody(body, width))

	return Model{
		title:    title,
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the info page.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, m.keys.Back) {
			return m, func() tea.Msg { return CloseMsg{} }
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the info page.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render(m.title),
		m.viewport.View(),
	)
}

// SetSize updates the page dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}

// wrapBody applies a readable measure to the raw text.
func wrapBody(body string, width int) string {
	measure := width - 4
	if measure > 78 {
		measure = 78
	}
	if measure < 20 {
		measure = 20
	}
	return lipgloss.NewStyle().Width(measure).Render(body)
}
