package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ifconcept/gvail/internal/keys"
	"github.com/ifconcept/gvail/internal/model"
	"github.com/ifconcept/gvail/internal/theme"
)

// BackMsg signals the parent to navigate back to the inbox.
type BackMsg struct{}

// DeleteRequestMsg signals the parent to remove the message from the
// held list. Local-only: the provider's message store is not touched.
type DeleteRequestMsg struct {
	ID string
}

// Model is the message detail view component. It first shows the held
// summary (optimistic display) and swaps in the full body when the
// detail fetch resolves.
type Model struct {
	message  *model.Message
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	fetching bool
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// ShowSummary displays the held summary while the full body is fetched.
func (m *Model) ShowSummary(msg model.Message) {
	m.message = &msg
	m.fetching = true
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// ShowDetail replaces the displayed message with its fetched detail.
// Identity and list position are unchanged; only the body is new.
func (m *Model) ShowDetail(msg model.Message) {
	m.message = &msg
	m.fetching = false
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// FetchFailed keeps the summary displayed after a failed detail fetch.
func (m *Model) FetchFailed() {
	m.fetching = false
	m.viewport.SetContent(m.renderContent())
}

// CurrentID returns the id of the displayed message, or "".
func (m Model) CurrentID() string {
	if m.message == nil {
		return ""
	}
	return m.message.ID
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(keyMsg, m.keys.Delete):
			if m.message != nil {
				id := m.message.ID
				return m, func() tea.Msg {
					return DeleteRequestMsg{ID: id}
				}
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.message == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No message selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.message == nil {
		return ""
	}

	msg := m.message
	var sections []string

	subject := msg.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(subject))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	sections = append(sections, fmt.Sprintf(
		"%s  %s",
		metaStyle.Render("From:"),
		valStyle.Render(msg.SenderLabel()),
	))
	if msg.From.Name != "" {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("     "),
			valStyle.Render(msg.From.Address),
		))
	}
	if !msg.CreatedAt.IsZero() {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Date:"),
			valStyle.Render(msg.CreatedAt.Format("2006-01-02 15:04")),
		))
	}
	if msg.HasAttachments {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Note:"),
			valStyle.Render("has attachments (not fetched)"),
		))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	sections = append(sections, m.renderBody())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderBody picks the best available content: the fetched plain-text
// body, falling back to the listing preview while fetching or after a
// failed fetch.
func (m Model) renderBody() string {
	msg := m.message

	body := msg.Text
	if body == "" {
		body = msg.Intro
	}
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No content.")
	}

	if m.fetching {
		loading := lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("Loading full message...")
		return body + "\n\n" + loading
	}

	return body
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.message != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
