package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/labdesk/internal/model"
	"github.com/nhle/labdesk/internal/notify"
	"github.com/nhle/labdesk/internal/theme"
)

// recentLimit is the number of archived chats listed on the home view.
const recentLimit = 5

// renderHome draws the landing view: greeting, inbox summary, chat state,
// and the most recent archived chats.
func (m Model) renderHome() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render(fmt.Sprintf("Hello, %s", m.cfg.Identity.DisplayName()))

	unread := m.center.UnreadCount()
	inbox := "No unread notifications."
	if unread > 0 {
		inbox = fmt.Sprintf("%d unread notification%s. Press n to review.", unread, plural(unread))
	}

	chatLine := "Need help? Press c to chat with " + m.cfg.Chat.AgentName + "."
	if m.chat != nil {
		chatLine = "Your chat is minimized. Press c to resume."
		if m.chat.session.WaitingForAgent() {
			chatLine = "You are in the queue for a live agent. Press c to resume."
		}
	}

	sections := []string{title, inbox, chatLine}

	if len(m.recent) > 0 {
		sections = append(sections, "", lipgloss.NewStyle().Bold(true).Render("Recent chats"))
		now := m.clock.Now()
		for _, s := range m.recent {
			sections = append(sections, formatSessionLine(s, now))
		}
	}

	return theme.PanelStyle.
		Width(m.layout.ContentWidth() - 4).
		Render(strings.Join(sections, "\n"))
}

// formatSessionLine renders one archived chat for the home view.
func formatSessionLine(s model.SessionRecord, now time.Time) string {
	rating := theme.DimmedStyle.Render("unrated")
	if s.Rating > 0 {
		rating = lipgloss.NewStyle().Foreground(theme.ColorYellow).
			Render(strings.Repeat("★", s.Rating) + strings.Repeat("☆", 5-s.Rating))
	}
	return fmt.Sprintf("  %s  %d message%s  %s",
		theme.DimmedStyle.Render(notify.RelativeTime(now, s.EndedAt)),
		s.MessageCount, plural(s.MessageCount),
		rating,
	)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
