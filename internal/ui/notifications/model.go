package notifications

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/labdesk/internal/keys"
	"github.com/nhle/labdesk/internal/model"
	"github.com/nhle/labdesk/internal/theme"
)

// CloseMsg signals the parent to close the notification panel.
type CloseMsg struct{}

// Center is the subset of notify.Center the panel drives.
type Center interface {
	List() []model.Notification
	UnreadCount() int
	MarkAsRead(id string)
	MarkAllAsRead()
	Remove(id string)
	ClearAll()
	TriggerAction(id string)
}

// Model is the notification panel: a list of every notification with
// per-item read, remove, and action keys.
type Model struct {
	center Center
	list   list.Model
	keys   *keys.KeyMap
	now    func() time.Time
	width  int
	height int
}

// New creates a notification panel over center. now supplies the instant
// relative timestamps are measured from.
func New(center Center, k *keys.KeyMap, now func() time.Time, width, height int) Model {
	if now == nil {
		now = time.Now
	}

	l := list.New([]list.Item{}, ItemDelegate{now: now}, width, height-2)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)

	m := Model{
		center: center,
		list:   l,
		keys:   k,
		now:    now,
		width:  width,
		height: height,
	}
	m.Refresh()
	return m
}

// Refresh reloads the list from the center, keeping the cursor in range.
func (m *Model) Refresh() {
	all := m.center.List()
	items := make([]list.Item, len(all))
	for i, n := range all {
		items[i] = Item{Notification: n}
	}

	idx := m.list.Index()
	m.list.SetItems(items)
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
}

// Selected returns the notification under the cursor.
func (m Model) Selected() (model.Notification, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return model.Notification{}, false
	}
	return it.Notification, true
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key presses for the panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return CloseMsg{} }

		case key.Matches(msg, m.keys.Trigger):
			if n, ok := m.Selected(); ok {
				m.center.TriggerAction(n.ID)
				m.Refresh()
			}
			return m, nil

		case key.Matches(msg, m.keys.MarkRead):
			if n, ok := m.Selected(); ok {
				m.center.MarkAsRead(n.ID)
				m.Refresh()
			}
			return m, nil

		case key.Matches(msg, m.keys.MarkAll):
			m.center.MarkAllAsRead()
			m.Refresh()
			return m, nil

		case key.Matches(msg, m.keys.Remove):
			if n, ok := m.Selected(); ok {
				m.center.Remove(n.ID)
				m.Refresh()
			}
			return m, nil

		case key.Matches(msg, m.keys.ClearAll):
			m.center.ClearAll()
			m.Refresh()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the panel.
func (m Model) View() string {
	unread := m.center.UnreadCount()
	summary := "all caught up"
	if unread > 0 {
		summary = fmt.Sprintf("%d unread", unread)
	}
	header := lipgloss.JoinHorizontal(
		lipgloss.Top,
		theme.HeaderStyle.Render("Notifications"),
		" ",
		theme.DimmedStyle.Render(summary),
	)

	var body string
	if len(m.list.Items()) == 0 {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Padding(1, 2).
			Render("No notifications yet.")
	} else {
		body = m.list.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
