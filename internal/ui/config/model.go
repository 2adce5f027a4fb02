package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/labdesk/internal/credential"
	"github.com/nhle/labdesk/internal/keys"
	"github.com/nhle/labdesk/internal/model"
	"github.com/nhle/labdesk/internal/theme"
)

// Mode represents the current state of the mailbox settings view.
type Mode int

const (
	ModeForm       Mode = iota // Editing host, user, password
	ModeValidating             // Testing connection
	ModeResult                 // Show validation result
)

const validateTimeout = 30 * time.Second

// DoneMsg signals the settings view should close.
type DoneMsg struct{}

// SavedMsg carries mailbox settings that connected successfully and whose
// password is now in the keyring.
type SavedMsg struct {
	Mailbox model.MailboxConfig
}

// validateResultMsg carries the result of a connection attempt.
type validateResultMsg struct {
	user    string
	mailbox model.MailboxConfig
	err     error
}

// Secrets stores the inbox password.
type Secrets interface {
	Set(key, value string) error
}

// ValidateFunc signs in to the inbox and returns the authenticated user.
type ValidateFunc func(ctx context.Context, mb model.MailboxConfig, password string) (string, error)

// formBindings holds the values huh writes into. It lives on the heap so the
// form keeps pointing at it after Model is copied.
type formBindings struct {
	host     string
	port     string
	username string
	password string
	interval string
	tls      bool
}

// Model is the Bubble Tea model for the lab inbox settings.
type Model struct {
	mode     Mode
	form     *huh.Form
	fields   *formBindings
	secrets  Secrets
	validate ValidateFunc
	spinner  spinner.Model

	user string
	err  error

	keys          *keys.KeyMap
	width, height int
}

// New creates a mailbox settings view.
func New(secrets Secrets, validate ValidateFunc, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	return Model{
		mode:     ModeForm,
		fields:   &formBindings{},
		secrets:  secrets,
		validate: validate,
		spinner:  sp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Start seeds the form from the current settings. The password is never
// pre-filled.
func (m *Model) Start(current model.MailboxConfig) tea.Cmd {
	interval := ""
	if current.PollIntervalSec > 0 {
		interval = strconv.Itoa(current.PollIntervalSec)
	}
	port := current.Port
	if port == "" {
		port = "993"
	}
	*m.fields = formBindings{
		host:     current.Host,
		port:     port,
		username: current.Username,
		interval: interval,
		tls:      current.TLS || current.Host == "",
	}
	m.mode = ModeForm
	m.user = ""
	m.err = nil
	m.form = m.buildForm()
	return m.form.Init()
}

func (m Model) buildForm() *huh.Form {
	f := m.fields
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("IMAP Host").
				Description("Lab inbox server hostname").
				Placeholder("imap.example.com").
				Value(&f.host).
				Validate(validateRequired("IMAP Host")),
			huh.NewInput().
				Title("IMAP Port").
				Placeholder("993").
				Value(&f.port).
				Validate(validatePort),
			huh.NewInput().
				Title("Username").
				Placeholder("lab@example.com").
				Value(&f.username).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Title("Password").
				Description("Account password or app password").
				EchoMode(huh.EchoModePassword).
				Value(&f.password).
				Validate(validateRequired("Password")),
			huh.NewInput().
				Title("Check every (seconds)").
				Placeholder("120").
				Value(&f.interval).
				Validate(validateInterval),
			huh.NewConfirm().
				Title("Use TLS").
				Affirmative("Yes").
				Negative("No").
				Value(&f.tls),
		),
	).WithWidth(m.formWidth()).WithShowHelp(true)
}

// Init is a no-op; Start builds the form.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case validateResultMsg:
		if m.mode != ModeValidating {
			return m, nil
		}
		m.mode = ModeResult
		m.user = msg.user
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		saved := msg.mailbox
		return m, func() tea.Msg { return SavedMsg{Mailbox: saved} }

	case spinner.TickMsg:
		if m.mode != ModeValidating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case ModeForm:
			if key.Matches(msg, m.keys.Back) {
				return m, done
			}
		case ModeValidating:
			if key.Matches(msg, m.keys.Back) {
				m.mode = ModeForm
				return m, done
			}
			return m, nil
		case ModeResult:
			return m.handleResultKeys(msg)
		}
	}

	return m.updateForm(msg)
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.startValidation()
	case huh.StateAborted:
		return m, done
	}
	return m, cmd
}

func (m Model) handleResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case m.err != nil && key.Matches(msg, m.keys.Refresh):
		return m.startValidation()
	case key.Matches(msg, m.keys.Back), msg.Type == tea.KeyEnter:
		return m, done
	}
	return m, nil
}

// startValidation tests the connection and stores the password on success.
func (m Model) startValidation() (Model, tea.Cmd) {
	m.mode = ModeValidating
	m.err = nil

	mb := m.mailbox()
	password := m.fields.password
	secrets := m.secrets
	validate := m.validate

	check := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
		defer cancel()

		user, err := validate(ctx, mb, password)
		if err != nil {
			return validateResultMsg{err: err}
		}
		if err := secrets.Set(credential.MailboxPasswordKey(mb.Username), password); err != nil {
			return validateResultMsg{user: user, err: fmt.Errorf("connection OK but saving password failed: %w", err)}
		}
		return validateResultMsg{user: user, mailbox: mb}
	}

	return m, tea.Batch(m.spinner.Tick, check)
}

// mailbox builds the settings from the form values.
func (m Model) mailbox() model.MailboxConfig {
	f := m.fields
	interval, _ := strconv.Atoi(strings.TrimSpace(f.interval))
	return model.MailboxConfig{
		Enabled:         true,
		Host:            strings.TrimSpace(f.host),
		Port:            strings.TrimSpace(f.port),
		Username:        strings.TrimSpace(f.username),
		TLS:             f.tls,
		PollIntervalSec: interval,
	}
}

// Mode returns the current view mode.
func (m Model) Mode() Mode {
	return m.mode
}

// View renders the current mode.
func (m Model) View() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width)

	title := theme.HeaderStyle.Render("Lab inbox")

	switch m.mode {
	case ModeValidating:
		return style.Render(title + "\n\n" + fmt.Sprintf(
			"%s Testing connection to %s...\n\n%s",
			m.spinner.View(), m.fields.host,
			theme.HelpStyle.Render("esc cancel"),
		))
	case ModeResult:
		return style.Render(title + "\n\n" + m.viewResult())
	}

	if m.form == nil {
		return ""
	}
	return style.Render(title + "\n\n" + m.form.View())
}

func (m Model) viewResult() string {
	if m.err != nil {
		errStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorRed)
		return errStyle.Render("Connection failed") + "\n\n" +
			m.err.Error() + "\n\n" +
			theme.HelpStyle.Render("r retry | enter/esc back")
	}

	okStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorGreen)
	name := m.user
	if name == "" {
		name = m.fields.username
	}
	return okStyle.Render("Connection successful") + "\n\n" +
		fmt.Sprintf("Signed in as: %s", name) + "\n\n" +
		theme.HelpStyle.Render("enter/esc back")
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth())
	}
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func done() tea.Msg { return DoneMsg{} }

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePort(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("port is required")
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}

func validateInterval(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("interval must be a whole number of seconds")
	}
	return nil
}
