package addrform

import (
	"errors"
	"regexp"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ifconcept/gvail/internal/theme"
)

// SubmitMsg is dispatched when the user submits a custom local-part.
type SubmitMsg struct {
	LocalPart string
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// localPartPattern mirrors the provider's address-format rules; input
// failing it never leaves this view.
var localPartPattern = regexp.MustCompile(`^[a-z0-9.]+$`)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	localPart string
}

// Model is the custom-address form. Availability is not checked here:
// account creation at the provider is the only availability proof, so
// the form validates format only and the parent performs the creation.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	domain string
	width  int
	height int
}

// New creates a new custom-address form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form. domain is shown next to the input so the
// user sees the full address they are claiming.
func (m *Model) Start(domain string) tea.Cmd {
	m.domain = domain
	m.fb.localPart = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the address form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		localPart := strings.ToLower(strings.TrimSpace(m.fb.localPart))
		return m, func() tea.Msg { return SubmitMsg{LocalPart: localPart} }
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the address form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	noteStyle := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		MarginBottom(1)

	content := titleStyle.Render("Customize Address") + "\n" +
		noteStyle.Render("We create the address to verify it is available.") + "\n" +
		m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	suffix := "@" + m.domain
	if m.domain == "" {
		suffix = "@..."
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Description(suffix).
				Placeholder("username").
				CharLimit(30).
				Value(&m.fb.localPart).
				Validate(validateLocalPart),
		),
	).WithWidth(m.formWidth()).WithShowHelp(true)
}

// validateLocalPart enforces the provider's format rules locally so
// invalid candidates never reach the network.
func validateLocalPart(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return errors.New("please enter a username")
	}
	if !localPartPattern.MatchString(s) {
		return errors.New("only lowercase letters, numbers, and dots allowed")
	}
	return nil
}

func (m *Model) formWidth() int {
	w := m.width - 8
	if w > 60 {
		w = 60
	}
	if w < 20 {
		w = 20
	}
	return w
}
