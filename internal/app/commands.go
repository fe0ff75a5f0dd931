package app

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ifconcept/gvail/internal/model"
	"github.com/ifconcept/gvail/internal/theme"
)

// bootstrapDoneMsg reports whether a persisted session was restored.
type bootstrapDoneMsg struct {
	found bool
}

// sessionReadyMsg reports the outcome of an auto-generate or rotate.
// err is non-nil only when the command's context was cancelled; auto
// generation otherwise retries until it succeeds.
type sessionReadyMsg struct {
	session  model.Session
	rotation bool
	err      error
}

// regenerateDoneMsg reports a single-attempt regenerate outcome.
type regenerateDoneMsg struct {
	session model.Session
	err     error
}

// customCreateDoneMsg reports a custom address creation outcome.
type customCreateDoneMsg struct {
	session model.Session
	err     error
}

// domainPeekedMsg carries the domain used to caption the custom
// address form.
type domainPeekedMsg struct {
	domain string
}

type copyDoneMsg struct {
	err error
}

type themeSavedMsg struct {
	err error
}

// toastExpiredMsg dismisses the toast carrying the matching sequence
// number; a newer toast supersedes the timer of the one it replaced.
type toastExpiredMsg struct {
	seq int
}

const toastDuration = 3 * time.Second

func (m Model) bootstrap() tea.Cmd {
	return func() tea.Msg {
		_, ok := m.manager.Bootstrap(context.Background())
		return bootstrapDoneMsg{found: ok}
	}
}

func (m Model) autoGenerate() tea.Cmd {
	return func() tea.Msg {
		sess, err := m.manager.AutoGenerate(context.Background())
		return sessionReadyMsg{session: sess, err: err}
	}
}

func (m Model) rotate() tea.Cmd {
	return func() tea.Msg {
		sess, err := m.manager.Rotate(context.Background())
		return sessionReadyMsg{session: sess, rotation: true, err: err}
	}
}

func (m Model) regenerate() tea.Cmd {
	return func() tea.Msg {
		sess, err := m.manager.Regenerate(context.Background())
		return regenerateDoneMsg{session: sess, err: err}
	}
}

func (m Model) customCreate(localPart string) tea.Cmd {
	return func() tea.Msg {
		sess, err := m.manager.CustomCreate(context.Background(), localPart)
		return customCreateDoneMsg{session: sess, err: err}
	}
}

func (m Model) peekDomain() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		domain, err := m.manager.PeekDomain(ctx)
		if err != nil {
			domain = "..."
		}
		return domainPeekedMsg{domain: domain}
	}
}

func (m Model) copyAddress() tea.Cmd {
	sess, ok := m.manager.Active()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		return copyDoneMsg{err: clipboard.WriteAll(sess.Address)}
	}
}

// toggleTheme flips the forced theme between dark and light, applies
// it immediately, and persists the preference.
func (m Model) toggleTheme() tea.Cmd {
	next := "dark"
	if m.cfg.Display.Theme == "dark" {
		next = "light"
	}
	m.cfg.Display.Theme = next
	theme.Apply(next)

	cfg, path := m.cfg, m.cfgPath
	return func() tea.Msg {
		return themeSavedMsg{err: model.SaveConfig(path, cfg)}
	}
}

func expireToast(seq int) tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}
