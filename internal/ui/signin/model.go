package signin

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/labdesk/internal/model"
	"github.com/nhle/labdesk/internal/theme"
)

// SignedInMsg is dispatched when the user completes the form.
type SignedInMsg struct {
	Identity model.Identity
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	name string
	role string
}

// Model is the Bubble Tea model for the sign-in form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a sign-in form seeded with any identity already known.
func New(seed model.Identity, width, height int) Model {
	role := string(seed.Role)
	if role == "" {
		role = string(model.RolePatient)
	}
	m := Model{
		fb:     &formBindings{name: seed.Name, role: role},
		width:  width,
		height: height,
	}
	m.form = m.buildForm()
	return m
}

// Init returns the form's init command.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Your name").
				Placeholder("e.g. Ana Cruz").
				Value(&m.fb.name).
				Validate(validateName),
			huh.NewSelect[string]().
				Title("I am a").
				Options(
					huh.NewOption("Patient", string(model.RolePatient)),
					huh.NewOption("Administrator", string(model.RoleAdmin)),
					huh.NewOption("Guest", string(model.RoleGuest)),
				).
				Value(&m.fb.role),
		),
	).WithWidth(m.formWidth()).WithShowHelp(true)
}

// Update handles messages for the sign-in form.
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
		id, err := m.identity()
		if err != nil {
			return m, nil
		}
		return m, func() tea.Msg { return SignedInMsg{Identity: id} }
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// identity converts the bound values into a model.Identity.
func (m Model) identity() (model.Identity, error) {
	role, err := model.ParseRole(m.fb.role)
	if err != nil {
		return model.Identity{}, err
	}
	return model.Identity{Name: strings.TrimSpace(m.fb.name), Role: role}, nil
}

// View renders the sign-in form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Welcome to the Lab Front Desk") + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
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
	if w > 80 {
		w = 80
	}
	return w
}

func validateName(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("name is required")
	}
	if len([]rune(s)) > 80 {
		return fmt.Errorf("name must be at most 80 characters")
	}
	return nil
}
