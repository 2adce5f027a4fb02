package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/labdesk/internal/credential"
	"github.com/nhle/labdesk/internal/model"
	"github.com/nhle/labdesk/internal/notify"
	"github.com/nhle/labdesk/internal/source"
	"github.com/nhle/labdesk/internal/source/mailbox"
)

// feedsRegisteredMsg is sent when all configured feeds have been
// registered with the poller.
type feedsRegisteredMsg struct {
	count int
}

// newMailboxFeed builds the mailbox feed. Tests replace it.
var newMailboxFeed = func(cfg model.MailboxConfig, password string) source.Feed {
	return mailbox.NewFeed(cfg.Host, cfg.Port, cfg.Username, password, cfg.TLS)
}

// registerFeeds registers the lab mailbox with the poller when it is
// enabled. The IMAP password is loaded from the system keyring.
func (m Model) registerFeeds() tea.Cmd {
	mb := m.cfg.Mailbox
	if !mb.Enabled {
		return nil
	}

	p := m.poller
	secrets := m.secrets
	center := m.center
	log := m.log

	return func() tea.Msg {
		if secrets == nil {
			return feedsRegisteredMsg{}
		}
		password, err := secrets.Get(credential.MailboxPasswordKey(mb.Username))
		if err != nil || password == "" {
			log.Warn().Err(err).Str("username", mb.Username).Msg("skipping mailbox: password not found")
			center.Add(notify.Draft{
				Type:       model.NotificationWarning,
				Title:      "Mailbox not connected",
				Message:    "No password stored for " + mb.Username + ". Use :mailbox or run `labdesk mailbox set-password`.",
				Category:   model.CategorySystem,
				Persistent: true,
			})
			return feedsRegisteredMsg{}
		}

		interval := time.Duration(mb.PollIntervalSec) * time.Second
		p.RegisterFeed(newMailboxFeed(mb, password), interval)
		return feedsRegisteredMsg{count: 1}
	}
}

// validateMailbox signs in to the inbox with the given settings.
func validateMailbox(ctx context.Context, mb model.MailboxConfig, password string) (string, error) {
	return newMailboxFeed(mb, password).ValidateConnection(ctx)
}

// openSettings shows the lab inbox settings form.
func (m Model) openSettings() (tea.Model, tea.Cmd) {
	if m.secrets == nil {
		m.center.Add(notify.Draft{
			Type:     model.NotificationWarning,
			Title:    "Mailbox settings unavailable",
			Message:  "No credential store is configured.",
			Category: model.CategorySystem,
		})
		return m, nil
	}
	m.previousView = m.currentView
	m.currentView = ViewSettings
	cmd := m.settingsView.Start(m.cfg.Mailbox)
	return m, cmd
}

// applyMailbox saves new inbox settings and starts polling when no feed is
// running yet. A running poller keeps its feed until restart.
func (m Model) applyMailbox(mb model.MailboxConfig) (tea.Model, tea.Cmd) {
	m.cfg.Mailbox = mb
	m.log.Info().Str("host", mb.Host).Str("username", mb.Username).Msg("mailbox settings saved")

	cmds := []tea.Cmd{m.saveConfig()}
	if len(m.poller.GetStatuses()) == 0 {
		cmds = append(cmds, m.registerFeeds())
	} else {
		m.center.Add(notify.Draft{
			Type:     model.NotificationInfo,
			Title:    "Mailbox settings saved",
			Message:  "Restart labdesk to check the new inbox.",
			Category: model.CategorySystem,
		})
	}
	return m, tea.Batch(cmds...)
}
