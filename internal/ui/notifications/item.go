package notifications

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/labdesk/internal/model"
	"github.com/nhle/labdesk/internal/notify"
	"github.com/nhle/labdesk/internal/theme"
)

// Item wraps a model.Notification so it can be used in a bubbles/list.
type Item struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Notification.Title }

// ItemDelegate implements list.ItemDelegate for notification rows.
type ItemDelegate struct {
	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a notification as a headline and a message line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	n := it.Notification

	fmt.Fprint(w, renderRow(n, d.now(), m.Width(), index == m.Index()))
}

// renderRow builds the two-line representation of n.
func renderRow(n model.Notification, now time.Time, width int, selected bool) string {
	dot := " "
	if !n.Read {
		dot = lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("●")
	}

	typeIcon := theme.TypeStyle(n.Type).Render(theme.TypeIcon(n.Type))
	title := n.Title
	if !n.Read {
		title = lipgloss.NewStyle().Bold(true).Render(title)
	}
	age := theme.DimmedStyle.Render(notify.RelativeTime(now, n.Timestamp))

	headline := fmt.Sprintf("%s %s %s %s  %s", dot, theme.CategoryIcon(n.Category), typeIcon, title, age)

	body := "    " + truncate(n.Message, width-8)
	if n.HasAction() {
		body += "  " + theme.ActionButtonStyle.Render("["+n.Action.Label+"]")
	}
	if n.Read {
		body = theme.DimmedStyle.Render(body)
	}

	line := headline + "\n" + body
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 1 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// RenderToasts stacks up to len(toasts) notifications as bordered boxes,
// newest on top.
func RenderToasts(toasts []model.Notification, now time.Time, width int) string {
	if len(toasts) == 0 {
		return ""
	}

	boxWidth := min(width, 48)
	boxes := make([]string, 0, len(toasts))
	for _, n := range toasts {
		head := theme.TypeStyle(n.Type).Render(theme.TypeIcon(n.Type)+" "+n.Title) +
			"  " + theme.DimmedStyle.Render(notify.RelativeTime(now, n.Timestamp))
		text := truncate(n.Message, boxWidth-4)
		boxes = append(boxes, theme.ToastStyle(n.Type).Width(boxWidth-2).Render(head+"\n"+text))
	}
	return lipgloss.JoinVertical(lipgloss.Right, boxes...)
}
