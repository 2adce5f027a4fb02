package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/labdesk/internal/chat"
	"github.com/nhle/labdesk/internal/model"
	"github.com/nhle/labdesk/internal/notify"
	"github.com/nhle/labdesk/internal/store"
)

// archiveTimeout bounds a single transcript write.
const archiveTimeout = 10 * time.Second

// activeChat ties a session to its presence simulator and to the channel
// that releases the goroutine waiting on the session's change signal.
type activeChat struct {
	session  *chat.Session
	presence *chat.PresenceSimulator
	cancel   context.CancelFunc
	stop     chan struct{}
}

// notificationsChangedMsg is sent whenever the notification center mutates.
type notificationsChangedMsg struct{}

// chatChangedMsg is sent whenever the session identified by session mutates.
type chatChangedMsg struct {
	session *chat.Session
}

// sessionArchivedMsg reports the outcome of archiving a finished chat.
type sessionArchivedMsg struct {
	id  string
	err error
}

// sessionsLoadedMsg carries the most recent archived chats.
type sessionsLoadedMsg struct {
	sessions []model.SessionRecord
}

// waitForNotifications returns a command that waits for the next change
// signal from the center.
func waitForNotifications(c *notify.Center) tea.Cmd {
	return func() tea.Msg {
		<-c.Changes()
		return notificationsChangedMsg{}
	}
}

// waitForChat returns a command that waits for the next change signal from
// the chat, or returns nil once the chat has ended.
func waitForChat(ac *activeChat) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ac.session.Changes():
			return chatChangedMsg{session: ac.session}
		case <-ac.stop:
			return nil
		}
	}
}

// openChat resumes the minimized chat or starts a new one.
func (m Model) openChat() (tea.Model, tea.Cmd) {
	m.previousView = m.currentView
	m.currentView = ViewChat

	if m.chat != nil {
		m.chatView.Refresh()
		cmd := m.chatView.Focus()
		return m, cmd
	}

	cc := m.cfg.Chat
	session := chat.NewSession(chat.Options{
		Identity:     m.cfg.Identity,
		Clock:        m.clock,
		Responder:    chat.NewKeywordResponder(nil),
		Notifier:     m.center,
		ReplyDelay:   cc.ReplyDelay,
		ConnectDelay: cc.ConnectDelay,
		AgentName:    cc.AgentName,
		AgentRole:    cc.AgentRole,
		SupportName:  cc.SupportName,
		AgentOnline:  m.lastOnline,
		Logger:       m.log.With().Str("component", "chat").Logger(),
	})

	presence := chat.NewPresenceSimulator(session, chat.PresenceOptions{
		Clock:           m.clock,
		Interval:        m.cfg.Presence.Interval,
		FlipProbability: m.cfg.Presence.FlipProbability,
		Logger:          m.log.With().Str("component", "presence").Logger(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	presence.Start(ctx)

	m.chat = &activeChat{
		session:  session,
		presence: presence,
		cancel:   cancel,
		stop:     make(chan struct{}),
	}
	m.chatView.Reset(session)

	m.log.Info().Str("session", session.ID()).Msg("chat opened")

	cmd := tea.Batch(m.chatView.Focus(), waitForChat(m.chat))
	return m, cmd
}

// endChat tears the open chat down and returns a command that archives
// its transcript with the given rating and comment.
func (m *Model) endChat(rating int, comment string) tea.Cmd {
	ac := m.chat
	if ac == nil {
		return nil
	}
	m.chat = nil

	ac.cancel()
	ac.presence.Stop()
	ac.session.Dispose()
	close(ac.stop)
	m.lastOnline = ac.session.AgentOnline()
	m.chatView.Reset(idleConversation{})

	if m.store == nil {
		return nil
	}

	id := ac.session.Identity()
	t := store.Transcript{
		Session: model.SessionRecord{
			ID:       ac.session.ID(),
			UserName: id.DisplayName(),
			UserRole: string(id.Role),
			EndedAt:  m.clock.Now(),
			Rating:   rating,
			Feedback: comment,
		},
		Messages: ac.session.Messages(),
	}

	s := m.store
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		if err := s.ArchiveSession(ctx, t); err != nil {
			log.Error().Err(err).Str("session", t.Session.ID).Msg("archiving chat failed")
			return sessionArchivedMsg{id: t.Session.ID, err: err}
		}
		log.Info().Str("session", t.Session.ID).Int("messages", len(t.Messages)).Msg("chat archived")
		return sessionArchivedMsg{id: t.Session.ID}
	}
}

// loadRecentSessions returns a command that reads the latest archived chats.
func (m Model) loadRecentSessions() tea.Cmd {
	if m.store == nil {
		return nil
	}
	s := m.store
	log := m.log
	return func() tea.Msg {
		sessions, err := s.ListSessions(context.Background(), store.SessionFilter{Limit: recentLimit})
		if err != nil {
			log.Warn().Err(err).Msg("loading recent chats failed")
			return sessionsLoadedMsg{}
		}
		return sessionsLoadedMsg{sessions: sessions}
	}
}

// saveConfig persists the identity and mailbox settings to the config file.
func (m Model) saveConfig() tea.Cmd {
	if m.configPath == "" {
		return nil
	}
	path := m.configPath
	cfg := *m.cfg
	log := m.log
	return func() tea.Msg {
		if err := model.SaveConfig(path, &cfg); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("saving config failed")
		}
		return nil
	}
}
