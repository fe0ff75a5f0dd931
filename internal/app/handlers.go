package app

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ifconcept/gvail/internal/inbox"
	"github.com/ifconcept/gvail/internal/model"
	"github.com/ifconcept/gvail/internal/session"
)

// handlePollResult applies one fetch-and-replace cycle's outcome and
// re-arms the subscription for the next one.
func (m Model) handlePollResult(msg inbox.PollResultMsg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.sync.WaitForNextResult()}

	switch {
	case msg.Unauthorized:
		// One dead token triggers exactly one rotation; results that
		// race in while it is in flight are absorbed here.
		if m.rotating {
			return m, tea.Batch(cmds...)
		}
		// The token is dead; polling idles until a fresh session is
		// adopted. Rotation follows the indefinite-retry policy, so a
		// session always comes back eventually.
		m.rotating = true
		m.messages = nil
		cmds = append(cmds, m.inboxList.SetMessages(nil))
		m.sync.SetHeldCount(0)
		m.setToast("Session expired. Generating a new address...", model.ToastInfo)
		cmds = append(cmds, expireToast(m.toastSeq), m.rotate(), m.spin.Tick)

	case msg.Err != nil:
		// Automatic cycles fail silently and retry on the next tick;
		// only a manual refresh reports the failure.
		if msg.Manual {
			m.refreshing = false
			m.setToast("Could not refresh inbox", model.ToastError)
			cmds = append(cmds, expireToast(m.toastSeq))
		}

	default:
		m.messages = msg.Messages
		cmds = append(cmds, m.inboxList.SetMessages(msg.Messages))
		if msg.Manual {
			m.refreshing = false
		}
		if msg.NewArrival {
			m.setToast("New email received!", model.ToastSuccess)
			cmds = append(cmds, expireToast(m.toastSeq))
		}
	}

	return m, tea.Batch(cmds...)
}

// handleDetailResult applies a completed detail fetch unless the user
// has since navigated away or opened a different message.
func (m Model) handleDetailResult(msg inbox.DetailResultMsg) (tea.Model, tea.Cmd) {
	if msg.Gen != m.detailGen || m.currentView != ViewDetail {
		return m, nil
	}

	if msg.Err != nil {
		m.detailView.FetchFailed()
		return m.showToast("Could not load the full message", model.ToastError)
	}

	if msg.Message == nil || msg.Message.ID != m.detailView.CurrentID() {
		return m, nil
	}

	m.detailView.ShowDetail(*msg.Message)

	// Fold the detailed copy back into the held list so reopening the
	// message needs no second fetch.
	var cmd tea.Cmd
	for i := range m.messages {
		if m.messages[i].ID == msg.Message.ID {
			m.messages[i] = *msg.Message
			cmd = m.inboxList.SetMessages(m.messages)
			break
		}
	}
	return m, cmd
}

// openMessage shows a message immediately from its held summary and
// lazily fetches the full body if it is not already present.
func (m Model) openMessage(id string) (tea.Model, tea.Cmd) {
	var found *model.Message
	for i := range m.messages {
		if m.messages[i].ID == id {
			m.messages[i].Seen = true
			found = &m.messages[i]
			break
		}
	}
	if found == nil {
		return m, nil
	}

	cmds := []tea.Cmd{
		m.setView(ViewDetail),
		m.inboxList.SetMessages(m.messages),
	}

	if found.Detailed() {
		m.detailView.ShowDetail(*found)
	} else {
		m.detailView.ShowSummary(*found)
		m.detailGen++
		cmds = append(cmds, m.sync.LoadDetail(id, m.detailGen))
	}

	return m, tea.Batch(cmds...)
}

// deleteLocally removes a message from the held list only; the
// provider copy is untouched and the removal survives until the
// address itself is discarded.
func (m Model) deleteLocally(id string) (tea.Model, tea.Cmd) {
	kept := m.messages[:0:0]
	for _, msg := range m.messages {
		if msg.ID != id {
			kept = append(kept, msg)
		}
	}
	m.messages = kept

	// Rebaseline arrival detection so the next poll, which will still
	// include the hidden message, is not mistaken for a new arrival.
	m.sync.SetHeldCount(len(kept))

	m.setToast("Message deleted", model.ToastSuccess)
	return m, tea.Batch(
		m.setView(ViewInbox),
		m.inboxList.SetMessages(kept),
		expireToast(m.toastSeq),
	)
}

// handleSessionReady finishes an auto-generate or rotation cycle.
func (m Model) handleSessionReady(msg sessionReadyMsg) (tea.Model, tea.Cmd) {
	m.rotating = false
	if msg.err != nil {
		// Only context cancellation reaches here; the program is
		// already shutting down.
		return m, nil
	}

	if msg.rotation {
		return m.showToast("New address generated!", model.ToastSuccess)
	}

	m.setToast("Your address is ready!", model.ToastSuccess)
	return m, tea.Batch(m.enterInbox(), expireToast(m.toastSeq))
}

// handleRegenerateDone finishes a single-attempt regenerate.
func (m Model) handleRegenerateDone(msg regenerateDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.showToast("Could not generate a new address. Try again.", model.ToastError)
	}

	m.messages = nil
	m.sync.SetHeldCount(0)
	m.setToast("New address generated!", model.ToastSuccess)
	return m, tea.Batch(
		m.inboxList.SetMessages(nil),
		expireToast(m.toastSeq),
	)
}

// handleCustomCreateDone finishes a custom address creation. On any
// failure the previous session is still active and unchanged.
func (m Model) handleCustomCreateDone(msg customCreateDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		var text string
		switch {
		case errors.Is(msg.err, session.ErrAddressTaken):
			text = "This username is already taken. Try another."
		case errors.Is(msg.err, session.ErrInvalidLocalPart):
			text = "Only lowercase letters, numbers, and dots are allowed."
		default:
			text = "Could not create the address. Try again."
		}
		m.setToast(text, model.ToastError)
		return m, tea.Batch(
			m.addrForm.Start(m.formDomain),
			expireToast(m.toastSeq),
		)
	}

	m.messages = nil
	m.sync.SetHeldCount(0)
	m.setToast("Address created: "+msg.session.Address, model.ToastSuccess)
	return m, tea.Batch(
		m.setView(ViewInbox),
		m.inboxList.SetMessages(nil),
		expireToast(m.toastSeq),
	)
}

// executeCommand runs a command palette entry and returns to a
// sensible view.
func (m Model) executeCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	back := m.setView(ViewInbox)

	switch cmd {
	case "":
		return m, back
	case "new", "delete":
		return m, tea.Batch(back, m.regenerate())
	case "customize":
		return m, tea.Batch(m.setView(ViewCustom), m.peekDomain())
	case "refresh":
		m.refreshing = true
		m.sync.Refresh()
		return m, tea.Batch(back, m.spin.Tick)
	case "copy":
		return m, tea.Batch(back, m.copyAddress())
	case "theme":
		return m, tea.Batch(back, m.toggleTheme())
	case "help":
		return m, m.setView(ViewHelp)
	case "about":
		return m, m.setView(ViewAbout)
	case "privacy":
		return m, m.setView(ViewPrivacy)
	case "vision":
		return m, m.setView(ViewVision)
	case "quit":
		m.sync.Stop()
		return m, tea.Quit
	default:
		m.setToast("Unknown command: "+cmd, model.ToastError)
		return m, tea.Batch(back, expireToast(m.toastSeq))
	}
}

// setToast replaces the active toast and bumps the dismissal sequence;
// callers schedule expireToast(m.toastSeq) themselves so it rides the
// same batch as their other commands.
func (m *Model) setToast(text string, kind model.ToastKind) {
	m.toastSeq++
	m.toast = &model.Toast{Message: text, Kind: kind}
}

// showToast is the shorthand for handlers with no other commands.
func (m Model) showToast(text string, kind model.ToastKind) (tea.Model, tea.Cmd) {
	m.setToast(text, kind)
	return m, expireToast(m.toastSeq)
}
