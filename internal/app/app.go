package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ifconcept/gvail/internal/inbox"
	"github.com/ifconcept/gvail/internal/keys"
	"github.com/ifconcept/gvail/internal/model"
	"github.com/ifconcept/gvail/internal/session"
	"github.com/ifconcept/gvail/internal/theme"
	"github.com/ifconcept/gvail/internal/ui"
	"github.com/ifconcept/gvail/internal/ui/addrform"
	"github.com/ifconcept/gvail/internal/ui/command"
	"github.com/ifconcept/gvail/internal/ui/detail"
	helpview "github.com/ifconcept/gvail/internal/ui/help"
	"github.com/ifconcept/gvail/internal/ui/inboxlist"
	"github.com/ifconcept/gvail/internal/ui/info"
)

// ViewState represents the current active view in the application.
// Transitions happen only through named message handling in Update,
// never by direct field mutation from arbitrary call sites.
type ViewState int

const (
	ViewSplash ViewState = iota
	ViewInbox
	ViewDetail
	ViewCustom
	ViewCommand
	ViewHelp
	ViewAbout
	ViewPrivacy
	ViewVision
)

// Model is the root Bubble Tea model: it owns the view state machine,
// the session manager, the inbox synchronizer, and the held message
// list, and routes messages to the active sub-view.
type Model struct {
	cfg     *model.AppConfig
	cfgPath string

	manager *session.Manager
	sync    *inbox.Synchronizer
	keys    *keys.KeyMap
	layout  ui.Layout
	ready   bool

	currentView  ViewState
	previousView ViewState

	inboxList   inboxlist.Model
	detailView  detail.Model
	addrForm    addrform.Model
	commandView command.Model
	helpView    helpview.Model
	aboutView   info.Model
	privacyView info.Model
	visionView  info.Model

	// messages is the master copy of the held inbox list; the list
	// view mirrors it. Each poll replaces it wholesale.
	messages []model.Message

	spin       spinner.Model
	refreshing bool
	rotating   bool

	// formDomain is the domain captioning the custom address form; it
	// is refreshed each time the form is opened.
	formDomain string

	toast    *model.Toast
	toastSeq int

	// detailGen tags detail fetches so a stale response arriving after
	// the user navigated away is discarded rather than applied.
	detailGen int
}

// New creates the root application model.
func New(
	cfg *model.AppConfig,
	cfgPath string,
	manager *session.Manager,
	synchronizer *inbox.Synchronizer,
) Model {
	k := keys.DefaultKeyMap()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	return Model{
		cfg:         cfg,
		cfgPath:     cfgPath,
		manager:     manager,
		sync:        synchronizer,
		keys:        k,
		currentView: ViewSplash,
		inboxList:   inboxlist.New(k, 80, 24),
		detailView:  detail.New(k, 80, 24),
		addrForm:    addrform.New(80, 24),
		commandView: command.New(80, 24),
		helpView:    helpview.New(k, 80, 24),
		aboutView:   info.New("About Gvail", info.AboutText, k, 80, 24),
		privacyView: info.New("Privacy & Terms", info.PrivacyText, k, 80, 24),
		visionView:  info.New("Our Vision", info.VisionText, k, 80, 24),
		spin:        sp,
	}
}

// Init starts the splash spinner, arms the poll-result subscription,
// and kicks off session bootstrap.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick,
		m.sync.Subscribe(),
		m.bootstrap(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.inboxList.SetSize(contentWidth, contentHeight)
		m.detailView.SetSize(contentWidth, contentHeight)
		m.addrForm.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.aboutView.SetSize(contentWidth, contentHeight)
		m.privacyView.SetSize(contentWidth, contentHeight)
		m.visionView.SetSize(contentWidth, contentHeight)
		// Forward to the active view so forms can calculate layout.
		return m.updateActiveView(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.currentView == ViewSplash || m.refreshing || m.rotating {
			return m, cmd
		}
		return m, nil

	case bootstrapDoneMsg:
		if msg.found {
			return m, m.enterInbox()
		}
		// No usable persisted session: fall through to auto-generate,
		// staying on the splash until it succeeds.
		return m, m.autoGenerate()

	case sessionReadyMsg:
		return m.handleSessionReady(msg)

	case regenerateDoneMsg:
		return m.handleRegenerateDone(msg)

	case customCreateDoneMsg:
		return m.handleCustomCreateDone(msg)

	case domainPeekedMsg:
		m.formDomain = msg.domain
		return m, m.addrForm.Start(msg.domain)

	case copyDoneMsg:
		if msg.err != nil {
			return m.showToast("Could not access clipboard", model.ToastError)
		}
		return m.showToast("Address copied to clipboard!", model.ToastSuccess)

	case themeSavedMsg:
		if msg.err != nil {
			return m.showToast("Theme applied (not saved)", model.ToastInfo)
		}
		return m.showToast("Theme preference saved", model.ToastSuccess)

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
		return m, nil

	case inbox.PollResultMsg:
		return m.handlePollResult(msg)

	case inbox.DetailResultMsg:
		return m.handleDetailResult(msg)

	case inboxlist.SelectedMessageMsg:
		return m.openMessage(msg.ID)

	case detail.BackMsg:
		// Invalidate any in-flight detail fetch for the closed message.
		m.detailGen++
		return m, m.setView(ViewInbox)

	case detail.DeleteRequestMsg:
		return m.deleteLocally(msg.ID)

	case addrform.SubmitMsg:
		return m, m.customCreate(msg.LocalPart)

	case addrform.CancelMsg:
		return m, m.setView(ViewInbox)

	case info.CloseMsg:
		return m, m.setView(ViewInbox)

	case command.CommandMsg:
		return m.executeCommand(string(msg))

	case tea.KeyMsg:
		if handled, mdl, cmd := m.handleGlobalKeys(msg); handled {
			return mdl, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that work regardless of (or switch)
// the current view. Returns handled=false to let the active view see
// the key.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.sync.Stop()
		return true, m, tea.Quit

	case "q":
		if m.currentView == ViewInbox {
			m.sync.Stop()
			return true, m, tea.Quit
		}

	case "esc":
		if m.currentView == ViewCommand || m.currentView == ViewHelp {
			return true, m, m.setView(m.previousView)
		}

	case "?":
		if m.currentView == ViewCustom || m.currentView == ViewCommand {
			break
		}
		if m.currentView == ViewHelp {
			return true, m, m.setView(m.previousView)
		}
		return true, m, m.setView(ViewHelp)

	case ":":
		if m.currentView == ViewCustom {
			break
		}
		if m.currentView == ViewCommand {
			return true, m, m.setView(m.previousView)
		}
		cmd := m.commandView.Focus()
		return true, m, tea.Batch(m.setView(ViewCommand), cmd)

	case "r":
		if m.currentView == ViewInbox {
			m.refreshing = true
			m.sync.Refresh()
			return true, m, m.spin.Tick
		}

	case "g":
		if m.currentView == ViewInbox {
			return true, m, m.regenerate()
		}

	case "e":
		if m.currentView == ViewInbox {
			return true, m, tea.Batch(m.setView(ViewCustom), m.peekDomain())
		}

	case "y":
		if m.currentView == ViewInbox {
			return true, m, m.copyAddress()
		}

	case "t":
		if m.currentView == ViewInbox {
			return true, m, m.toggleTheme()
		}
	}

	return false, m, nil
}

// setView transitions the view state machine. The synchronizer runs
// only while the inbox (home) view is active: leaving it suspends
// polling, entering it (re)establishes exactly one polling loop.
func (m *Model) setView(v ViewState) tea.Cmd {
	if v == m.currentView {
		return nil
	}

	if m.currentView == ViewInbox {
		m.sync.Stop()
		m.refreshing = false
	}

	m.previousView = m.currentView
	m.currentView = v

	if v == ViewInbox {
		m.sync.Start()
	}
	return nil
}

// enterInbox transitions to the authenticated home view.
func (m *Model) enterInbox() tea.Cmd {
	return m.setView(ViewInbox)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewInbox:
		m.inboxList, cmd = m.inboxList.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewCustom:
		m.addrForm, cmd = m.addrForm.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewAbout:
		m.aboutView, cmd = m.aboutView.Update(msg)
	case ViewPrivacy:
		m.privacyView, cmd = m.privacyView.Update(msg)
	case ViewVision:
		m.visionView, cmd = m.visionView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.currentView == ViewSplash {
		return m.renderSplash()
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.syncStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.renderToast())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewInbox:
		return m.inboxList.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewCustom:
		return m.addrForm.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewAbout:
		return m.aboutView.View()
	case ViewPrivacy:
		return m.privacyView.View()
	case ViewVision:
		return m.visionView.View()
	default:
		return ""
	}
}

// renderSplash draws the startup screen shown while the first session
// is bootstrapped or generated.
func (m Model) renderSplash() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorBlue).
		Render("Gvail")
	tagline := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render("Your gateway to privacy")
	status := m.spin.View() + " Provisioning your address..."

	block := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		tagline,
		"",
		status,
	)

	return lipgloss.NewStyle().
		Width(m.layout.Width).
		Height(m.layout.Height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(block)
}

// headerTitle shows the app name and the current address.
func (m Model) headerTitle() string {
	sess, ok := m.manager.Active()
	if !ok {
		return "Gvail"
	}
	return "Gvail  " + sess.Address
}

// syncStatus returns a short string describing the sync state for the
// header's right edge.
func (m Model) syncStatus() string {
	switch {
	case m.rotating:
		return m.spin.View() + " new session"
	case m.refreshing:
		return m.spin.View() + " refreshing"
	case len(m.messages) == 1:
		return "1 message"
	default:
		return fmt.Sprintf("%d messages", len(m.messages))
	}
}

// renderToast renders the active toast, if any, for the status bar.
func (m Model) renderToast() string {
	if m.toast == nil {
		return ""
	}
	switch m.toast.Kind {
	case model.ToastSuccess:
		return theme.ToastSuccessStyle.Render(m.toast.Message)
	case model.ToastError:
		return theme.ToastErrorStyle.Render(m.toast.Message)
	default:
		return theme.ToastInfoStyle.Render(m.toast.Message)
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewDetail:
		return "esc back | d delete | j/k scroll"
	case ViewCustom:
		return "enter verify & create | esc cancel"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewHelp:
		return "? close help | esc back"
	case ViewAbout, ViewPrivacy, ViewVision:
		return "esc back | j/k scroll"
	default:
		return "q quit | ? help | r refresh | g new | e customize | y copy"
	}
}
