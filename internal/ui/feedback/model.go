package feedback

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/labdesk/internal/theme"
)

// SubmittedMsg carries the rating and comment left when a chat ends.
// Rating is 0 when the user chose to skip it.
type SubmittedMsg struct {
	Rating  int
	Comment string
}

// SkippedMsg is dispatched when the user dismisses the form.
type SkippedMsg struct{}

type formBindings struct {
	rating  int
	comment string
}

// Model is the end-of-chat rating form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	agent  string
	width  int
	height int
}

// New creates an empty feedback form.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start resets the bindings and builds the form for a chat with agent.
func (m *Model) Start(agent string) tea.Cmd {
	m.agent = agent
	m.fb.rating = 5
	m.fb.comment = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("How was your chat with "+agent+"?").
				Options(
					huh.NewOption("★★★★★  Excellent", 5),
					huh.NewOption("★★★★☆  Good", 4),
					huh.NewOption("★★★☆☆  Okay", 3),
					huh.NewOption("★★☆☆☆  Poor", 2),
					huh.NewOption("★☆☆☆☆  Very poor", 1),
					huh.NewOption("Skip rating", 0),
				).
				Value(&m.fb.rating),
			huh.NewText().
				Title("Anything else we should know?").
				Placeholder("Optional comments...").
				CharLimit(1000).
				Value(&m.fb.comment),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

// Update handles messages for the feedback form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		res := SubmittedMsg{Rating: m.fb.rating, Comment: strings.TrimSpace(m.fb.comment)}
		return m, func() tea.Msg { return res }
	case huh.StateAborted:
		return m, func() tea.Msg { return SkippedMsg{} }
	}

	return m, cmd
}

// View renders the feedback form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Chat ended") + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return max(40, min(m.width-4, 80))
}
