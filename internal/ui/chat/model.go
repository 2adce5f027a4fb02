package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/labdesk/internal/keys"
	"github.com/nhle/labdesk/internal/model"
	"github.com/nhle/labdesk/internal/theme"
)

// MinimizeMsg signals the parent to hide the chat while keeping the
// session alive.
type MinimizeMsg struct{}

// CloseMsg signals the parent to end the session.
type CloseMsg struct{}

// Conversation is the subset of chat.Session the widget drives.
type Conversation interface {
	Messages() []model.Message
	Send(text string) bool
	RequestLiveSupport()
	Typing() bool
	WaitingForAgent() bool
	AgentOnline() bool
	AgentName() string
}

// Model is the chat widget: transcript viewport, presence header,
// waiting banner, typing indicator, and message input.
type Model struct {
	conv     Conversation
	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a chat widget over conv.
func New(conv Conversation, k *keys.KeyMap, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetWidth(width - 4)
	ta.SetHeight(2)
	ta.CharLimit = 1000
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	vp := viewport.New(width-4, viewportHeight(height))
	vp.Style = lipgloss.NewStyle()

	sp := spinner.New()
	sp.Spinner = spinner.Ellipsis
	sp.Style = theme.DimmedStyle

	m := Model{
		conv:     conv,
		input:    ta,
		viewport: vp,
		spinner:  sp,
		keys:     k,
		width:    width,
		height:   height,
	}
	m.Refresh()
	return m
}

func viewportHeight(height int) int {
	// header, banner, typing line, separator, input, and borders
	h := height - 12
	if h < 4 {
		h = 4
	}
	return h
}

// Init starts the cursor blink and the typing spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// Update handles messages for the chat widget.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmds []tea.Cmd

	var taCmd tea.Cmd
	m.input, taCmd = m.input.Update(msg)
	cmds = append(cmds, taCmd)

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

// handleKeyMsg processes keyboard input for the chat widget.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Minimize):
		return m, func() tea.Msg { return MinimizeMsg{} }

	case key.Matches(msg, m.keys.CloseChat):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.LiveSupport):
		m.conv.RequestLiveSupport()
		m.Refresh()
		return m, nil

	case key.Matches(msg, m.keys.Send):
		if !m.CanSend() {
			return m, nil
		}
		if m.conv.Send(m.input.Value()) {
			m.input.Reset()
		}
		m.Refresh()
		return m, nil

	case msg.Type == tea.KeyPgUp, msg.Type == tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// CanSend reports whether the input holds something worth sending.
func (m Model) CanSend() bool {
	return strings.TrimSpace(m.input.Value()) != ""
}

// Refresh re-renders the transcript and scrolls to the newest message.
func (m *Model) Refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// renderTranscript builds the conversation display string.
func (m Model) renderTranscript() string {
	width := m.viewport.Width
	var sections []string

	for _, msg := range m.conv.Messages() {
		label := theme.SenderStyle(msg.Sender).Render(msg.SenderName)
		if msg.SenderRole != "" {
			label += theme.DimmedStyle.Render(" · " + msg.SenderRole)
		}
		stamp := theme.DimmedStyle.Render(msg.Timestamp.Format("15:04"))

		meta := label + "  " + stamp
		if msg.Sender == model.SenderUser {
			meta += " " + theme.DeliveryIcon(msg.Status)
		}

		bubble := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Width(min(width*3/4, 72)).
			Render(msg.Text)
		if msg.Sender == model.SenderSystem {
			bubble = theme.HelpStyle.Render(msg.Text)
		}

		block := lipgloss.JoinVertical(lipgloss.Left, meta, bubble)
		if msg.Sender == model.SenderUser && width > 0 {
			block = lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
		}
		sections = append(sections, block, "")
	}

	return strings.Join(sections, "\n")
}

// View renders the chat widget.
func (m Model) View() string {
	online := m.conv.AgentOnline()
	status := "Offline"
	if online {
		status = "Online"
	}
	header := lipgloss.JoinHorizontal(
		lipgloss.Top,
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(m.conv.AgentName()),
		"  ",
		theme.PresenceStyle(online).Render("● "+status),
	)

	parts := []string{header, ""}

	if m.conv.WaitingForAgent() {
		parts = append(parts, theme.BannerStyle.Render("Waiting for a live agent. You'll be connected shortly."))
	}

	parts = append(parts, m.viewport.View())

	typing := ""
	if m.conv.Typing() {
		typing = theme.DimmedStyle.Render(fmt.Sprintf("%s is typing", m.conv.AgentName())) + m.spinner.View()
	}
	parts = append(parts, typing)

	sep := lipgloss.NewStyle().Foreground(theme.ColorSubtle).Render(
		strings.Repeat("─", max(min(m.width-6, 80), 0)),
	)
	parts = append(parts, sep, m.input.View(), m.sendHint())

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// sendHint renders the send button, dimmed while the input is empty.
func (m Model) sendHint() string {
	send := theme.DimmedStyle.Render("[Send]")
	if m.CanSend() {
		send = theme.ActionButtonStyle.Render("[Send]")
	}
	return send + "  " + theme.HelpStyle.Render("ctrl+l live agent · esc minimize · ctrl+x end chat")
}

// SetSize updates the widget dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width - 4)
	m.viewport.Width = width - 4
	m.viewport.Height = viewportHeight(height)
	m.Refresh()
}

// Focus gives keyboard focus to the text input and restarts the spinner.
func (m *Model) Focus() tea.Cmd {
	return tea.Batch(m.input.Focus(), m.spinner.Tick)
}

// Reset attaches the widget to a new conversation.
func (m *Model) Reset(conv Conversation) {
	m.conv = conv
	m.input.Reset()
	m.Refresh()
}
