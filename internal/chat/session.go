// Package chat implements the support chat session: an append-only
// transcript with simulated agent replies, a typing indicator, and a queue
// state used while no agent is available.
package chat

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nhle/labdesk/internal/clock"
	"github.com/nhle/labdesk/internal/model"
	"github.com/nhle/labdesk/internal/notify"
)

// State is the reply state of a session.
type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
)

func (s State) String() string {
	switch s {
	case StateAwaitingResponse:
		return "awaiting_response"
	default:
		return "idle"
	}
}

// QueueState tracks whether the user is queued for a human agent.
type QueueState int

const (
	QueueNotWaiting QueueState = iota
	QueueWaitingForAgent
)

func (q QueueState) String() string {
	switch q {
	case QueueWaitingForAgent:
		return "waiting_for_agent"
	default:
		return "not_waiting"
	}
}

// Default delays, matching the portal's simulated latency.
const (
	DefaultReplyDelay   = 2 * time.Second
	DefaultConnectDelay = 3 * time.Second
)

// Notifier receives the notifications a session raises. *notify.Center
// satisfies it.
type Notifier interface {
	Add(d notify.Draft) model.Notification
}

// Options configures a Session.
type Options struct {
	Identity     model.Identity
	Clock        clock.Clock
	Responder    Responder
	Notifier     Notifier
	ReplyDelay   time.Duration
	ConnectDelay time.Duration
	AgentName    string
	AgentRole    string
	SupportName  string
	AgentOnline  bool
	Logger       zerolog.Logger
}

// Session is one support conversation. All methods are safe for concurrent
// use; replies are appended from timer goroutines.
type Session struct {
	mu       sync.Mutex
	id       string
	opts     Options
	messages []model.Message
	pending  map[int]clock.Timer
	nextTask int
	replies  int
	online   bool
	queue    QueueState
	disposed bool
	changes  chan struct{}
	log      zerolog.Logger
}

// NewSession creates a session whose transcript starts with a welcome
// message addressed to the identity's display name.
func NewSession(opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Responder == nil {
		opts.Responder = NewKeywordResponder(nil)
	}
	if opts.ReplyDelay <= 0 {
		opts.ReplyDelay = DefaultReplyDelay
	}
	if opts.ConnectDelay <= 0 {
		opts.ConnectDelay = DefaultConnectDelay
	}
	if opts.AgentName == "" {
		opts.AgentName = "Support Agent"
	}
	if opts.AgentRole == "" {
		opts.AgentRole = "Support Specialist"
	}
	if opts.SupportName == "" {
		opts.SupportName = "Support"
	}

	s := &Session{
		id:      uuid.Must(uuid.NewV7()).String(),
		opts:    opts,
		pending: make(map[int]clock.Timer),
		online:  opts.AgentOnline,
		changes: make(chan struct{}, 1),
	}
	s.log = opts.Logger.With().Str("session", s.id).Logger()

	s.messages = append(s.messages, s.systemMessage(fmt.Sprintf(
		"Hello %s! Welcome to %s. How can I assist you today?",
		opts.Identity.DisplayName(), opts.SupportName,
	)))

	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Identity returns the identity the session was opened for.
func (s *Session) Identity() model.Identity {
	return s.opts.Identity
}

// AgentName returns the display name of the simulated agent.
func (s *Session) AgentName() string {
	return s.opts.AgentName
}

// Send appends a user message and schedules exactly one reply. Text that is
// empty after trimming is ignored and Send returns false.
func (s *Session) Send(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return false
	}

	s.messages = append(s.messages, model.Message{
		ID:         s.newID(),
		Text:       text,
		Sender:     model.SenderUser,
		SenderName: s.opts.Identity.DisplayName(),
		SenderRole: s.opts.Identity.SenderRole(),
		Timestamp:  s.opts.Clock.Now(),
		Status:     model.StatusSent,
	})
	s.replies++
	s.schedule(s.opts.ReplyDelay, func() { s.deliverReply(text) })
	s.mu.Unlock()

	s.log.Debug().Msg("user message sent")
	s.signal()
	return true
}

// deliverReply appends the single reply owed to one user message.
func (s *Session) deliverReply(text string) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}

	s.replies--

	var draft notify.Draft
	if !s.online && s.queue != QueueWaitingForAgent {
		s.queue = QueueWaitingForAgent
		s.advanceUserStatus(model.StatusDelivered)
		s.messages = append(s.messages, s.systemMessage(
			"Our support team is currently offline. Your message has been queued " +
				"and an admin will respond as soon as they're available. " +
				"You'll receive a notification when they reply.",
		))
		draft = notify.Draft{
			Type:     model.NotificationInfo,
			Title:    "Message Queued",
			Message:  "Your message has been sent to our support team. You'll be notified when they respond.",
			Category: model.CategorySystem,
		}
	} else {
		s.queue = QueueNotWaiting
		s.advanceUserStatus(model.StatusRead)
		s.messages = append(s.messages, s.adminMessage(
			s.opts.Responder.Reply(text), s.opts.AgentRole,
		))
		draft = notify.Draft{
			Type:     model.NotificationSuccess,
			Title:    "New Message",
			Message:  s.opts.AgentName + " has replied to your message",
			Category: model.CategoryGeneral,
		}
	}
	queue := s.queue
	s.mu.Unlock()

	s.log.Debug().Stringer("queue", queue).Msg("reply delivered")
	s.notify(draft)
	s.signal()
}

// RequestLiveSupport asks for a human agent. A connecting message is
// appended immediately; the outcome follows after the connect delay.
func (s *Session) RequestLiveSupport() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}

	s.queue = QueueWaitingForAgent
	s.messages = append(s.messages, s.systemMessage(
		"Connecting you to a live support agent. Please wait...",
	))
	s.schedule(s.opts.ConnectDelay, s.completeLiveSupport)
	s.mu.Unlock()

	s.log.Debug().Msg("live support requested")
	s.notify(notify.Draft{
		Type:     model.NotificationInfo,
		Title:    "Live Support Requested",
		Message:  "We're connecting you to a live agent. Please wait...",
		Category: model.CategorySystem,
	})
	s.signal()
}

func (s *Session) completeLiveSupport() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}

	var draft notify.Draft
	if s.online {
		s.queue = QueueNotWaiting
		s.advanceUserStatus(model.StatusRead)
		s.messages = append(s.messages, s.adminMessage(
			fmt.Sprintf("Hello! I'm %s, and I'm here to help you. What can I assist you with today?",
				s.opts.AgentName),
			"Live Support Agent",
		))
		draft = notify.Draft{
			Type:     model.NotificationSuccess,
			Title:    "Connected to Live Support",
			Message:  s.opts.AgentName + " is now available to help you",
			Category: model.CategorySystem,
		}
	} else {
		s.queue = QueueWaitingForAgent
		s.messages = append(s.messages, s.systemMessage(
			"Sorry, all our support agents are currently busy. Your request has been " +
				"queued with high priority. Estimated wait time: 5-10 minutes.",
		))
		draft = notify.Draft{
			Type:     model.NotificationWarning,
			Title:    "Support Queue",
			Message:  "You've been added to the priority queue. Estimated wait: 5-10 minutes",
			Category: model.CategorySystem,
		}
	}
	s.mu.Unlock()

	s.notify(draft)
	s.signal()
}

// SetAgentOnline records agent presence. It never appends messages; it only
// decides the branch taken by the next reply.
func (s *Session) SetAgentOnline(online bool) {
	s.mu.Lock()
	changed := s.online != online
	s.online = online
	s.mu.Unlock()

	if changed {
		s.log.Debug().Bool("online", online).Msg("agent presence changed")
		s.signal()
	}
}

// AgentOnline reports the current presence flag.
func (s *Session) AgentOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// State reports whether a reply is pending.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replies > 0 {
		return StateAwaitingResponse
	}
	return StateIdle
}

// Queue reports the queue sub-state.
func (s *Session) Queue() QueueState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue
}

// WaitingForAgent is shorthand for Queue() == QueueWaitingForAgent.
func (s *Session) WaitingForAgent() bool {
	return s.Queue() == QueueWaitingForAgent
}

// Typing reports whether the typing indicator is shown. It is true exactly
// while at least one reply to a user message is pending.
func (s *Session) Typing() bool {
	return s.State() == StateAwaitingResponse
}

// Messages returns a snapshot of the transcript, oldest first.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Changes delivers a value after any visible change. Signals coalesce.
func (s *Session) Changes() <-chan struct{} {
	return s.changes
}

// Dispose cancels every pending reply. Nothing is appended afterwards.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	s.disposed = true
	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}
	s.replies = 0
	s.log.Debug().Msg("session disposed")
}

// Disposed reports whether Dispose has been called.
func (s *Session) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// schedule runs f after d and forgets the timer once it fires.
// Callers hold s.mu.
func (s *Session) schedule(d time.Duration, f func()) {
	s.nextTask++
	task := s.nextTask
	s.pending[task] = s.opts.Clock.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.pending, task)
		s.mu.Unlock()
		f()
	})
}

// advanceUserStatus moves every user message forward to status.
// Callers hold s.mu.
func (s *Session) advanceUserStatus(status model.DeliveryStatus) {
	for i := range s.messages {
		if s.messages[i].Sender == model.SenderUser {
			s.messages[i].Status = s.messages[i].Status.Advance(status)
		}
	}
}

func (s *Session) systemMessage(text string) model.Message {
	return model.Message{
		ID:         s.newID(),
		Text:       text,
		Sender:     model.SenderSystem,
		SenderName: s.opts.SupportName,
		SenderRole: "System",
		Timestamp:  s.opts.Clock.Now(),
		Status:     model.StatusDelivered,
	}
}

func (s *Session) adminMessage(text, role string) model.Message {
	return model.Message{
		ID:         s.newID(),
		Text:       text,
		Sender:     model.SenderAdmin,
		SenderName: s.opts.AgentName,
		SenderRole: role,
		Timestamp:  s.opts.Clock.Now(),
		Status:     model.StatusDelivered,
	}
}

func (s *Session) newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (s *Session) notify(d notify.Draft) {
	if s.opts.Notifier == nil {
		return
	}
	s.opts.Notifier.Add(d)
}

// signal performs a non-blocking send on the change channel.
func (s *Session) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
