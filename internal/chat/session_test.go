package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nhle/labdesk/internal/clock"
	"github.com/nhle/labdesk/internal/model"
	"github.com/nhle/labdesk/internal/notify"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

const replyDelay = 2 * time.Second

// mockNotifier records drafts raised by a session.
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Add(d notify.Draft) model.Notification {
	m.Called(d.Type, d.Title)
	return model.Notification{Type: d.Type, Title: d.Title, Message: d.Message}
}

func newTestSession(t *testing.T, online bool) (*Session, *clock.Fake, *mockNotifier) {
	t.Helper()

	fc := clock.NewFake(epoch)
	n := &mockNotifier{}
	s := NewSession(Options{
		Identity:     model.Identity{Name: "Ana Cruz", Role: model.RolePatient},
		Clock:        fc,
		Responder:    ResponderFunc(func(string) string { return "agent reply" }),
		Notifier:     n,
		ReplyDelay:   replyDelay,
		ConnectDelay: 3 * time.Second,
		AgentName:    "Dr. Maria Santos",
		AgentRole:    "Support Specialist",
		SupportName:  "MEGH Laboratory Support",
		AgentOnline:  online,
	})
	t.Cleanup(s.Dispose)
	return s, fc, n
}

func TestNewSession_SeedsWelcomeMessage(t *testing.T) {
	s, _, _ := newTestSession(t, true)

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.SenderSystem, msgs[0].Sender)
	assert.Equal(t, "Hello Ana Cruz! Welcome to MEGH Laboratory Support. How can I assist you today?", msgs[0].Text)
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, QueueNotWaiting, s.Queue())
	assert.False(t, s.Typing())
}

func TestNewSession_DefaultsDisplayName(t *testing.T) {
	s := NewSession(Options{Clock: clock.NewFake(epoch)})
	defer s.Dispose()

	assert.Contains(t, s.Messages()[0].Text, "Hello User!")
}

func TestSession_SendOfflineQueuesOnce(t *testing.T) {
	s, fc, n := newTestSession(t, false)
	n.On("Add", model.NotificationInfo, "Message Queued").Return().Once()

	require.True(t, s.Send("hello"))
	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.SenderUser, msgs[1].Sender)
	assert.Equal(t, model.StatusSent, msgs[1].Status)
	assert.Equal(t, "Patient", msgs[1].SenderRole)
	assert.True(t, s.Typing())

	fc.Advance(replyDelay)

	msgs = s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.SenderSystem, msgs[2].Sender)
	assert.Contains(t, msgs[2].Text, "currently offline")
	assert.Equal(t, model.StatusDelivered, msgs[1].Status)
	assert.True(t, s.WaitingForAgent())
	assert.False(t, s.Typing())
	assert.Equal(t, StateIdle, s.State())
	n.AssertExpectations(t)
}

func TestSession_SendOnlineGetsAdminReply(t *testing.T) {
	s, fc, n := newTestSession(t, true)
	n.On("Add", model.NotificationSuccess, "New Message").Return().Once()

	s.Send("hello")
	fc.Advance(replyDelay)

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	reply := msgs[2]
	assert.Equal(t, model.SenderAdmin, reply.Sender)
	assert.Equal(t, "agent reply", reply.Text)
	assert.Equal(t, "Dr. Maria Santos", reply.SenderName)
	assert.Equal(t, model.StatusRead, msgs[1].Status)
	assert.False(t, s.WaitingForAgent())
	n.AssertExpectations(t)
}

func TestSession_SendWhileWaitingGetsAdminReply(t *testing.T) {
	s, fc, n := newTestSession(t, false)
	n.On("Add", mock.Anything, mock.Anything).Return()

	s.Send("first")
	fc.Advance(replyDelay)
	require.True(t, s.WaitingForAgent())

	// Already queued: the next message is answered and the queue cleared.
	s.Send("second")
	fc.Advance(replyDelay)

	msgs := s.Messages()
	require.Len(t, msgs, 5)
	assert.Equal(t, model.SenderAdmin, msgs[4].Sender)
	assert.False(t, s.WaitingForAgent())
	n.AssertCalled(t, "Add", model.NotificationSuccess, "New Message")
}

func TestSession_EmptyInputRejected(t *testing.T) {
	s, fc, _ := newTestSession(t, true)

	assert.False(t, s.Send(""))
	assert.False(t, s.Send("   "))
	assert.False(t, s.Send("\n\t"))

	assert.Len(t, s.Messages(), 1)
	assert.False(t, s.Typing())
	assert.Zero(t, fc.Pending())
}

func TestSession_TypingCoversWholeDelay(t *testing.T) {
	s, fc, n := newTestSession(t, true)
	n.On("Add", mock.Anything, mock.Anything).Return()

	s.Send("hello")
	fc.Advance(replyDelay - time.Millisecond)
	assert.True(t, s.Typing())
	assert.Len(t, s.Messages(), 2)

	fc.Advance(time.Millisecond)
	assert.False(t, s.Typing())
	assert.Len(t, s.Messages(), 3)
}

func TestSession_RapidSendsEachGetOneReply(t *testing.T) {
	s, fc, n := newTestSession(t, true)
	n.On("Add", mock.Anything, mock.Anything).Return()

	s.Send("one")
	fc.Advance(time.Second)
	s.Send("two")

	fc.Advance(time.Second)
	assert.True(t, s.Typing(), "second reply still pending")

	fc.Advance(time.Second)
	assert.False(t, s.Typing())

	var senders []model.Sender
	for _, m := range s.Messages()[1:] {
		senders = append(senders, m.Sender)
	}
	assert.Equal(t, []model.Sender{
		model.SenderUser, model.SenderUser, model.SenderAdmin, model.SenderAdmin,
	}, senders)
}

func TestSession_BranchEvaluatedWhenReplyFires(t *testing.T) {
	s, fc, n := newTestSession(t, false)
	n.On("Add", mock.Anything, mock.Anything).Return()

	s.Send("hello")
	s.SetAgentOnline(true)
	fc.Advance(replyDelay)

	msgs := s.Messages()
	assert.Equal(t, model.SenderAdmin, msgs[len(msgs)-1].Sender)
}

func TestSession_SetAgentOnlineAppendsNothing(t *testing.T) {
	s, _, _ := newTestSession(t, false)

	s.SetAgentOnline(true)
	s.SetAgentOnline(false)

	assert.Len(t, s.Messages(), 1)
	assert.False(t, s.AgentOnline())
}

func TestSession_DisposeCancelsPendingReply(t *testing.T) {
	s, fc, n := newTestSession(t, true)

	s.Send("hello")
	s.Dispose()

	assert.NotPanics(t, func() { fc.Advance(time.Minute) })
	assert.Len(t, s.Messages(), 2)
	assert.False(t, s.Typing())
	assert.Zero(t, fc.Pending())
	assert.True(t, s.Disposed())
	n.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)

	// Operations after Dispose are ignored.
	assert.False(t, s.Send("late"))
	s.RequestLiveSupport()
	assert.Len(t, s.Messages(), 2)
	assert.NotPanics(t, s.Dispose)
}

func TestSession_DisposeGuardsCallbackThatAlreadyFired(t *testing.T) {
	// A real timer whose callback has already been dequeued cannot be
	// stopped; the disposed flag must still suppress the append.
	s, _, _ := newTestSession(t, true)
	s.Send("hello")
	s.Dispose()

	s.deliverReply("hello")
	assert.Len(t, s.Messages(), 2)
}

func TestSession_RequestLiveSupportOnline(t *testing.T) {
	s, fc, n := newTestSession(t, true)
	n.On("Add", model.NotificationInfo, "Live Support Requested").Return().Once()
	n.On("Add", model.NotificationSuccess, "Connected to Live Support").Return().Once()

	s.RequestLiveSupport()
	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Connecting you to a live support agent. Please wait...", msgs[1].Text)
	assert.True(t, s.WaitingForAgent())

	fc.Advance(3 * time.Second)

	msgs = s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.SenderAdmin, msgs[2].Sender)
	assert.Equal(t, "Live Support Agent", msgs[2].SenderRole)
	assert.Contains(t, msgs[2].Text, "Dr. Maria Santos")
	assert.False(t, s.WaitingForAgent())
	n.AssertExpectations(t)
}

func TestSession_RequestLiveSupportOffline(t *testing.T) {
	s, fc, n := newTestSession(t, false)
	n.On("Add", model.NotificationInfo, "Live Support Requested").Return().Once()
	n.On("Add", model.NotificationWarning, "Support Queue").Return().Once()

	s.RequestLiveSupport()
	fc.Advance(3 * time.Second)

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.SenderSystem, msgs[2].Sender)
	assert.Contains(t, msgs[2].Text, "Estimated wait time: 5-10 minutes")
	assert.True(t, s.WaitingForAgent())
	n.AssertExpectations(t)
}

func TestSession_StatusNeverRegresses(t *testing.T) {
	s, fc, n := newTestSession(t, true)
	n.On("Add", mock.Anything, mock.Anything).Return()

	s.Send("one")
	fc.Advance(replyDelay)
	require.Equal(t, model.StatusRead, s.Messages()[1].Status)

	// An offline queue reply later only lifts sent messages to delivered.
	s.SetAgentOnline(false)
	s.Send("two")
	fc.Advance(replyDelay)

	msgs := s.Messages()
	assert.Equal(t, model.StatusRead, msgs[1].Status)
	assert.Equal(t, model.StatusDelivered, msgs[3].Status)
}

func TestSession_UniqueIDsAndOrder(t *testing.T) {
	s, fc, n := newTestSession(t, true)
	n.On("Add", mock.Anything, mock.Anything).Return()

	for i := 0; i < 10; i++ {
		s.Send("msg")
		fc.Advance(500 * time.Millisecond)
	}
	fc.Advance(replyDelay)

	seen := make(map[string]bool)
	msgs := s.Messages()
	for i, m := range msgs {
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
		if i > 0 {
			assert.False(t, m.Timestamp.Before(msgs[i-1].Timestamp))
		}
	}
	assert.Len(t, msgs, 21)
}

func TestSession_ConcurrentSendsWithRealClock(t *testing.T) {
	n := &mockNotifier{}
	n.On("Add", mock.Anything, mock.Anything).Return()
	s := NewSession(Options{
		Notifier:    n,
		ReplyDelay:  time.Millisecond,
		AgentOnline: true,
	})
	defer s.Dispose()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Send("hi")
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool {
		return !s.Typing() && len(s.Messages()) == 41
	}, time.Second, 5*time.Millisecond)
}

func TestSession_ChangesSignal(t *testing.T) {
	s, _, _ := newTestSession(t, true)

	s.Send("hello")
	select {
	case <-s.Changes():
	default:
		t.Fatal("expected a change signal")
	}
}
