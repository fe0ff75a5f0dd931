package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ifconcept/gvail/internal/keys"
	"github.com/ifconcept/gvail/internal/theme"
)

// section is one labeled group of shortcuts on the help page.
type section struct {
	label    string
	bindings []key.Binding
}

// Model is the help overlay view. Shortcuts are grouped by what they
// act on (the inbox, the address, the app) rather than flattened into
// one table.
type Model struct {
	keys     *keys.KeyMap
	footer   help.Model
	sections []section
	width    int
	height   int
}

// New creates a new help view model.
func New(k *keys.KeyMap, width, height int) Model {
	f := help.New()
	f.Width = width

	return Model{
		keys:   k,
		footer: f,
		sections: []section{
			{"Navigate", []key.Binding{k.Up, k.Down, k.Select, k.Back}},
			{"Inbox", []key.Binding{k.Refresh, k.Delete}},
			{"Address", []key.Binding{k.Generate, k.Customize, k.Copy}},
			{"App", []key.Binding{k.Theme, k.Command, k.Help, k.Quit}},
		},
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay: section columns under a title, with
// the compact binding row as a footer.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	columns := make([]string, 0, len(m.sections))
	for _, s := range m.sections {
		columns = append(columns, m.renderSection(s))
	}

	m.footer.Width = m.width - 4
	footerText := m.footer.ShortHelpView(m.keys.ShortHelp())

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		lipgloss.JoinHorizontal(lipgloss.Top, columns...),
		"",
		footerText,
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// renderSection renders one labeled column of key/description pairs.
func (m Model) renderSection(s section) string {
	labelStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorBlue).
		MarginBottom(1)
	keyStyle := lipgloss.NewStyle().
		Foreground(theme.ColorWhite).
		Width(8)
	descStyle := lipgloss.NewStyle().
		Foreground(theme.ColorGray)

	rows := []string{labelStyle.Render(s.label)}
	for _, b := range s.bindings {
		h := b.Help()
		rows = append(rows, keyStyle.Render(h.Key)+descStyle.Render(h.Desc))
	}

	return lipgloss.NewStyle().
		MarginRight(4).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.footer.Width = width
}
