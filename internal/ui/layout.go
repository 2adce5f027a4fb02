package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/labdesk/internal/notify"
	"github.com/nhle/labdesk/internal/theme"
)

// Layout manages the multi-panel terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// Bell renders the notification bell with its unread badge.
func Bell(unread int) string {
	badge := notify.BadgeCount(unread)
	if badge == "" {
		return "🔔"
	}
	return "🔔" + theme.BadgeStyle.Render(badge)
}

// RenderHeader renders the top header bar with a title on the left and
// the presence and bell indicators on the right.
func (l Layout) RenderHeader(title string, right string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	rightRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(right)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(rightRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		rightRendered,
	)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, the toast stack, the content area, and the status bar.
// Toasts are right-aligned above the content, which is clipped so the
// frame never exceeds the terminal height.
func (l Layout) RenderWithFrame(
	header string,
	toasts string,
	content string,
	statusBar string,
) string {
	body := content
	if toasts != "" {
		body = lipgloss.JoinVertical(
			lipgloss.Left,
			lipgloss.PlaceHorizontal(l.ContentWidth(), lipgloss.Right, toasts),
			content,
		)
	}
	if h := l.ContentHeight(); h > 0 {
		body = lipgloss.NewStyle().MaxHeight(h).Render(body)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		body,
		statusBar,
	)
}
