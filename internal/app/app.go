package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/labdesk/internal/chat"
	"github.com/nhle/labdesk/internal/clock"
	"github.com/nhle/labdesk/internal/model"
	"github.com/nhle/labdesk/internal/notify"
	"github.com/nhle/labdesk/internal/store"
	appsync "github.com/nhle/labdesk/internal/sync"
	"github.com/nhle/labdesk/internal/theme"
	"github.com/nhle/labdesk/internal/ui"
	chatview "github.com/nhle/labdesk/internal/ui/chat"
	"github.com/nhle/labdesk/internal/ui/command"
	configview "github.com/nhle/labdesk/internal/ui/config"
	"github.com/nhle/labdesk/internal/ui/feedback"
	helpview "github.com/nhle/labdesk/internal/ui/help"
	"github.com/nhle/labdesk/internal/ui/notifications"
	"github.com/nhle/labdesk/internal/ui/signin"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewHome ViewState = iota
	ViewNotifications
	ViewChat
	ViewSignIn
	ViewFeedback
	ViewHelp
	ViewCommand
	ViewSettings
)

// Secrets reads and writes stored credentials. credential.Store
// satisfies it.
type Secrets interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Options configures the root model.
type Options struct {
	Config *model.AppConfig

	// ConfigPath is where the identity and mailbox settings are saved.
	// Empty disables saving.
	ConfigPath string

	// Store archives finished chats and de-duplicates mailbox alerts.
	// Nil disables both.
	Store store.Store

	Secrets Secrets
	Clock   clock.Clock
	Logger  zerolog.Logger
}

// Model is the root Bubble Tea model that manages view routing, layout,
// and the lifetime of the notification center and the support chat.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *KeyMap
	cfg          *model.AppConfig
	configPath   string
	store        store.Store
	secrets      Secrets
	clock        clock.Clock
	log          zerolog.Logger

	center *notify.Center
	poller *appsync.Poller

	// Non-nil while a chat is open or minimized.
	chat *activeChat

	notificationView notifications.Model
	chatView         chatview.Model
	signinView       signin.Model
	feedbackView     feedback.Model
	helpView         helpview.Model
	commandView      command.Model
	settingsView     configview.Model

	recent     []model.SessionRecord
	lastOnline bool
	syncNote   string
	ready      bool
}

// New creates the root application model.
func New(opts Options) Model {
	keys := DefaultKeyMap()
	cfg := opts.Config
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	center := notify.NewCenter(notify.Options{
		Clock:       clk,
		AutoDismiss: cfg.Notifications.AutoDismiss,
		MaxToasts:   cfg.Notifications.MaxToasts,
		Logger:      opts.Logger.With().Str("component", "notify").Logger(),
	})

	pollerOpts := appsync.Options{
		Notifier: center,
		Logger:   opts.Logger.With().Str("component", "poller").Logger(),
	}
	if opts.Store != nil {
		pollerOpts.Alerts = opts.Store
	}

	m := Model{
		currentView:      ViewHome,
		keys:             keys,
		cfg:              cfg,
		configPath:       opts.ConfigPath,
		store:            opts.Store,
		secrets:          opts.Secrets,
		clock:            clk,
		log:              opts.Logger,
		center:           center,
		poller:           appsync.New(pollerOpts),
		notificationView: notifications.New(center, keys, clk.Now, 80, 24),
		chatView:         chatview.New(idleConversation{}, keys, 80, 24),
		signinView:       signin.New(cfg.Identity, 80, 24),
		feedbackView:     feedback.New(80, 24),
		helpView:         helpview.New(keys, 80, 24),
		commandView:      command.New(80, 24),
		settingsView:     configview.New(opts.Secrets, validateMailbox, keys, 80, 24),
		lastOnline:       cfg.Presence.StartOnline,
	}
	if !cfg.Identity.IsComplete() {
		m.currentView = ViewSignIn
	}
	return m
}

// Center exposes the notification center, mainly for tests.
func (m Model) Center() *notify.Center {
	return m.center
}

// Init subscribes to the notification center, registers feeds, and shows
// the sign-in form when no identity is configured.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		waitForNotifications(m.center),
		m.registerFeeds(),
		m.loadRecentSessions(),
	}
	if m.currentView == ViewSignIn {
		cmds = append(cmds, m.signinView.Init())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.notificationView.SetSize(contentWidth, contentHeight)
		m.chatView.SetSize(contentWidth, contentHeight)
		m.signinView.SetSize(contentWidth, contentHeight)
		m.feedbackView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.settingsView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case notificationsChangedMsg:
		m.notificationView.Refresh()
		return m, waitForNotifications(m.center)

	case chatChangedMsg:
		if m.chat == nil || msg.session != m.chat.session {
			return m, nil
		}
		m.lastOnline = m.chat.session.AgentOnline()
		m.chatView.Refresh()
		return m, waitForChat(m.chat)

	case feedsRegisteredMsg:
		if msg.count == 0 {
			return m, nil
		}
		return m, m.poller.Start()

	case appsync.FeedResultMsg:
		switch {
		case msg.Error != nil:
			m.syncNote = "mailbox unreachable"
		case msg.NewAlerts > 0:
			m.syncNote = fmt.Sprintf("%d new from mailbox", msg.NewAlerts)
		default:
			m.syncNote = ""
		}
		return m, m.poller.WaitForNextResult()

	case sessionsLoadedMsg:
		m.recent = msg.sessions
		return m, nil

	case sessionArchivedMsg:
		if msg.err != nil {
			m.center.Add(notify.Draft{
				Type:     model.NotificationError,
				Title:    "Chat not saved",
				Message:  msg.err.Error(),
				Category: model.CategorySystem,
			})
			return m, nil
		}
		return m, m.loadRecentSessions()

	case signin.SignedInMsg:
		m.cfg.Identity = msg.Identity
		m.currentView = ViewHome
		return m, m.saveConfig()

	case signin.CancelMsg:
		m.shutdown()
		return m, tea.Quit

	case notifications.CloseMsg:
		m.currentView = ViewHome
		return m, nil

	case chatview.MinimizeMsg:
		m.currentView = ViewHome
		return m, nil

	case chatview.CloseMsg:
		if m.chat == nil {
			m.currentView = ViewHome
			return m, nil
		}
		m.currentView = ViewFeedback
		cmd := m.feedbackView.Start(m.chat.session.AgentName())
		return m, cmd

	case feedback.SubmittedMsg:
		m.currentView = ViewHome
		cmd := m.endChat(msg.Rating, msg.Comment)
		return m, cmd

	case feedback.SkippedMsg:
		m.currentView = ViewHome
		cmd := m.endChat(0, "")
		return m, cmd

	case configview.SavedMsg:
		return m.applyMailbox(msg.Mailbox)

	case configview.DoneMsg:
		m.currentView = ViewHome
		return m, nil

	case spinner.TickMsg:
		// Each spinner ignores ticks carrying another spinner's id.
		var chatCmd, settingsCmd tea.Cmd
		m.chatView, chatCmd = m.chatView.Update(msg)
		m.settingsView, settingsCmd = m.settingsView.Update(msg)
		return m, tea.Batch(chatCmd, settingsCmd)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case tea.KeyMsg:
		// Global keys that work regardless of current view
		switch msg.String() {
		case "ctrl+c":
			m.shutdown()
			return m, tea.Quit

		case "q":
			if m.currentView == ViewHome {
				m.shutdown()
				return m, tea.Quit
			}

		case "?":
			if m.capturesText() {
				break
			}
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case ":":
			if m.capturesText() {
				break
			}
			m.previousView = m.currentView
			m.currentView = ViewCommand
			cmd := m.commandView.Focus()
			return m, cmd

		case "esc":
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}

		case "n":
			if m.currentView == ViewHome {
				return m.openNotifications()
			}

		case "c":
			if m.currentView == ViewHome {
				return m.openChat()
			}

		case "r":
			if m.currentView == ViewHome {
				m.poller.RefreshAll()
				return m, m.loadRecentSessions()
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// capturesText reports whether the active view owns free-form typing.
func (m Model) capturesText() bool {
	switch m.currentView {
	case ViewChat, ViewSignIn, ViewFeedback, ViewCommand, ViewSettings:
		return true
	}
	return false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewNotifications:
		m.notificationView, cmd = m.notificationView.Update(msg)
	case ViewChat:
		m.chatView, cmd = m.chatView.Update(msg)
	case ViewSignIn:
		m.signinView, cmd = m.signinView.Update(msg)
	case ViewFeedback:
		m.feedbackView, cmd = m.feedbackView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	}

	return m, cmd
}

// openNotifications switches to the notification panel.
func (m Model) openNotifications() (tea.Model, tea.Cmd) {
	m.previousView = m.currentView
	m.currentView = ViewNotifications
	m.notificationView.Refresh()
	return m, nil
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.cfg.Chat.SupportName+" · Lab Front Desk", m.headerStatus())

	toasts := ""
	if m.currentView != ViewNotifications && m.currentView != ViewSignIn {
		toasts = notifications.RenderToasts(m.center.Toasts(), m.clock.Now(), m.layout.ContentWidth()/2)
	}

	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, toasts, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewHome:
		return m.renderHome()
	case ViewNotifications:
		return m.notificationView.View()
	case ViewChat:
		return m.chatView.View()
	case ViewSignIn:
		return m.signinView.View()
	case ViewFeedback:
		return m.feedbackView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewSettings:
		return m.settingsView.View()
	default:
		return ""
	}
}

// headerStatus renders the right side of the header: sync note, agent
// presence when a chat is open, and the bell.
func (m Model) headerStatus() string {
	var parts []string
	if m.syncNote != "" {
		parts = append(parts, m.syncNote)
	}
	if m.chat != nil {
		online := m.chat.session.AgentOnline()
		label := "agent offline"
		if online {
			label = "agent online"
		}
		parts = append(parts, theme.PresenceStyle(online).Render("●")+" "+label)
	}
	parts = append(parts, ui.Bell(m.center.UnreadCount()))
	return strings.Join(parts, "  ")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewNotifications:
		return "enter action | m read | M read all | x remove | D clear | esc back"
	case ViewChat:
		return "enter send | ctrl+l live agent | esc minimize | ctrl+x end chat"
	case ViewSignIn:
		return "enter continue | ctrl+c quit"
	case ViewFeedback:
		return "enter submit | esc skip"
	case ViewSettings:
		return "enter next | r retry | esc back"
	default:
		chatHint := "c chat"
		if m.chat != nil {
			chatHint = "c resume chat"
		}
		return "q quit | ? help | n notifications | " + chatHint + " | r refresh | : command"
	}
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case "notifications", "notif", "n":
		return m.openNotifications()
	case "chat", "c":
		return m.openChat()
	case "live", "live support":
		next, cmd := m.openChat()
		nm := next.(Model)
		nm.chat.session.RequestLiveSupport()
		nm.chatView.Refresh()
		return nm, cmd
	case "readall", "read all":
		m.center.MarkAllAsRead()
		return m, nil
	case "clear":
		m.center.ClearAll()
		return m, nil
	case "refresh", "sync":
		m.poller.RefreshAll()
		return m, m.loadRecentSessions()
	case "history":
		m.currentView = ViewHome
		return m, m.loadRecentSessions()
	case "mailbox", "settings":
		return m.openSettings()
	case "quit", "q":
		m.shutdown()
		return m, tea.Quit
	default:
		m.center.Add(notify.Draft{
			Type:     model.NotificationWarning,
			Title:    "Unknown command",
			Message:  fmt.Sprintf("%q is not a command. Try one of: %s", cmd, strings.Join(command.Commands, ", ")),
			Category: model.CategorySystem,
		})
		return m, nil
	}
}

// shutdown stops background work. An open chat is archived unrated.
func (m *Model) shutdown() {
	m.poller.Stop()
	if m.chat != nil {
		if cmd := m.endChat(0, ""); cmd != nil {
			cmd()
		}
	}
	m.center.Close()
}

// idleConversation backs the chat widget before the first chat opens.
type idleConversation struct{}

func (idleConversation) Messages() []model.Message { return nil }
func (idleConversation) Send(string) bool          { return false }
func (idleConversation) RequestLiveSupport()       {}
func (idleConversation) Typing() bool              { return false }
func (idleConversation) WaitingForAgent() bool     { return false }
func (idleConversation) AgentOnline() bool         { return false }
func (idleConversation) AgentName() string         { return "" }

var _ chatview.Conversation = (*chat.Session)(nil)
