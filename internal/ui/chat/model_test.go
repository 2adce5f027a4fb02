package chat

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatsvc "github.com/nhle/labdesk/internal/chat"
	"github.com/nhle/labdesk/internal/clock"
	"github.com/nhle/labdesk/internal/keys"
	"github.com/nhle/labdesk/internal/model"
	"github.com/nhle/labdesk/tests/testutil"
)

func newTestWidget(t *testing.T, online bool) (Model, *chatsvc.Session, *clock.Fake) {
	t.Helper()

	clk := testutil.NewFakeClock(t)
	s := chatsvc.NewSession(chatsvc.Options{
		Identity:    model.Identity{Name: "Ana", Role: model.RolePatient},
		Clock:       clk,
		Responder:   chatsvc.ResponderFunc(func(string) string { return "Happy to help." }),
		AgentName:   "Dr. Maria Santos",
		SupportName: "MEGH Support",
		AgentOnline: online,
	})
	t.Cleanup(s.Dispose)

	return New(s, keys.DefaultKeyMap(), 100, 40), s, clk
}

func typeText(m Model, s string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func TestWidget_ShowsWelcomeAndPresence(t *testing.T) {
	m, _, _ := newTestWidget(t, true)

	view := m.View()
	assert.Contains(t, view, "Hello Ana! Welcome to MEGH Support.")
	assert.Contains(t, view, "Dr. Maria Santos")
	assert.Contains(t, view, "Online")
	assert.NotContains(t, view, "Waiting for a live agent")
}

func TestWidget_EmptyInputDoesNotSend(t *testing.T) {
	m, s, _ := newTestWidget(t, true)

	assert.False(t, m.CanSend())
	m = typeText(m, "   ")
	assert.False(t, m.CanSend())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Len(t, s.Messages(), 1)
	assert.False(t, s.Typing())
}

func TestWidget_SendShowsTypingThenReply(t *testing.T) {
	m, s, clk := newTestWidget(t, true)

	m = typeText(m, "When are results ready?")
	require.True(t, m.CanSend())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, s.Messages(), 2)
	assert.False(t, m.CanSend(), "input cleared after send")
	assert.Contains(t, m.View(), "Dr. Maria Santos is typing")

	clk.Advance(2 * time.Second)
	m.Refresh()

	view := m.View()
	assert.Contains(t, view, "Happy to help.")
	assert.NotContains(t, view, "is typing")
	assert.Contains(t, view, "✓✓")
}

func TestWidget_OfflineShowsWaitingBanner(t *testing.T) {
	m, _, clk := newTestWidget(t, false)

	m = typeText(m, "hello")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	clk.Advance(2 * time.Second)
	m.Refresh()

	view := m.View()
	assert.Contains(t, view, "Offline")
	assert.Contains(t, view, "Waiting for a live agent")
}

func TestWidget_LiveSupportKey(t *testing.T) {
	m, s, _ := newTestWidget(t, true)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.SenderSystem, msgs[1].Sender)
	assert.True(t, s.WaitingForAgent())
	assert.Contains(t, m.View(), "Connecting you to a live support agent")
}

func TestWidget_MinimizeAndClose(t *testing.T) {
	m, _, _ := newTestWidget(t, true)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, MinimizeMsg{}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlX})
	require.NotNil(t, cmd)
	assert.IsType(t, CloseMsg{}, cmd())
}
