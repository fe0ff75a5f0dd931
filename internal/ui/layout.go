package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ifconcept/gvail/internal/theme"
)

// Layout manages the terminal frame: a one-line header, the content
// area, and a one-line status bar.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - 2
}

// RenderHeader renders the top bar with the title left-aligned and a
// status fragment right-aligned.
func (l Layout) RenderHeader(title, status string) string {
	return l.renderBar(theme.HeaderStyle, title, status)
}

// RenderStatusBar renders the bottom bar with keyboard hints on the
// left and an optional fragment (e.g. a toast) on the right.
func (l Layout) RenderStatusBar(hints, right string) string {
	return l.renderBar(theme.StatusBarStyle, hints, right)
}

// renderBar lays out a full-width bar with left and right fragments.
func (l Layout) renderBar(style lipgloss.Style, left, right string) string {
	leftRendered := style.Render(left)
	rightRendered := ""
	if right != "" {
		rightRendered = style.Align(lipgloss.Right).Render(right)
	}

	gap := l.Width - lipgloss.Width(leftRendered) - lipgloss.Width(rightRendered)
	if gap < 0 {
		gap = 0
	}

	filler := style.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(style.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top, leftRendered, filler, rightRendered,
	)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
