package inboxlist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ifconcept/gvail/internal/model"
	"github.com/ifconcept/gvail/internal/theme"
)

// MessageItem wraps a model.Message so it can be used in a bubbles/list.
type MessageItem struct {
	Message model.Message
}

// FilterValue returns the string used for fuzzy filtering.
func (i MessageItem) FilterValue() string {
	return i.Message.Subject + " " + i.Message.SenderLabel()
}

// Title returns the subject line, with a fallback for empty subjects.
func (i MessageItem) Title() string {
	return subjectOrFallback(i.Message)
}

// Description returns a short summary line for the list.
func (i MessageItem) Description() string {
	return i.Message.SenderLabel() + " | " + relativeTime(i.Message.CreatedAt)
}

// subjectOrFallback returns the subject or a placeholder.
func subjectOrFallback(m model.Message) string {
	if m.Subject == "" {
		return "(no subject)"
	}
	return m.Subject
}

// ItemDelegate implements list.ItemDelegate for rendering inbox entries.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single inbox entry: sender and time on the first line,
// subject and preview on the second. Unseen messages render bold.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	mi, ok := item.(MessageItem)
	if !ok {
		return
	}

	msg := mi.Message
	isSelected := index == m.Index()

	var marker string
	var senderStyle lipgloss.Style
	if msg.Seen {
		marker = "○"
		senderStyle = theme.SeenStyle
	} else {
		marker = "●"
		senderStyle = theme.UnseenStyle
	}

	attach := ""
	if msg.HasAttachments {
		attach = " ⊕"
	}

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(msg.CreatedAt))

	first := fmt.Sprintf(
		"%s %s%s  %s",
		marker, senderStyle.Render(msg.SenderLabel()), attach, timeStr,
	)

	preview := msg.Intro
	if preview != "" {
		preview = " — " + preview
	}
	second := fmt.Sprintf(
		"  %s%s",
		subjectOrFallback(msg),
		lipgloss.NewStyle().Foreground(theme.ColorGray).Render(preview),
	)

	line := first + "\n" + second
	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	default:
		return t.Format("Jan 02")
	}
}
