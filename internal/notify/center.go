// Package notify implements the notification center: an in-memory,
// newest-first list of notifications with read/unread semantics.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nhle/labdesk/internal/clock"
	"github.com/nhle/labdesk/internal/model"
)

// DefaultMaxToasts is the number of unread notifications shown as toasts.
const DefaultMaxToasts = 3

// Draft is the caller-supplied part of a new notification.
type Draft struct {
	Type       model.NotificationType
	Title      string
	Message    string
	Category   model.Category
	Action     *model.Action
	Persistent bool
}

// Options configures a Center.
type Options struct {
	// Clock defaults to the real clock.
	Clock clock.Clock

	// AutoDismiss removes non-persistent notifications after this delay.
	// Zero disables it.
	AutoDismiss time.Duration

	// MaxToasts caps Toasts(). Zero means DefaultMaxToasts.
	MaxToasts int

	Logger zerolog.Logger
}

// Center owns the notification list. Only its methods mutate the list.
type Center struct {
	mu          sync.Mutex
	items       []model.Notification
	timers      map[string]clock.Timer
	clock       clock.Clock
	autoDismiss time.Duration
	maxToasts   int
	changes     chan struct{}
	closed      bool
	log         zerolog.Logger
}

// NewCenter creates an empty notification center.
func NewCenter(opts Options) *Center {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	maxToasts := opts.MaxToasts
	if maxToasts <= 0 {
		maxToasts = DefaultMaxToasts
	}

	return &Center{
		timers:      make(map[string]clock.Timer),
		clock:       clk,
		autoDismiss: opts.AutoDismiss,
		maxToasts:   maxToasts,
		changes:     make(chan struct{}, 1),
		log:         opts.Logger,
	}
}

// Add creates an unread notification from d and prepends it to the list.
func (c *Center) Add(d Draft) model.Notification {
	n := model.Notification{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Type:       d.Type,
		Title:      d.Title,
		Message:    d.Message,
		Category:   d.Category,
		Timestamp:  c.clock.Now(),
		Action:     d.Action,
		Persistent: d.Persistent,
	}
	// Unrecognized kinds fall back to the neutral ones.
	if t, err := model.ParseNotificationType(string(n.Type)); err == nil {
		n.Type = t
	} else {
		n.Type = model.NotificationInfo
	}
	if c, err := model.ParseCategory(string(n.Category)); err == nil {
		n.Category = c
	} else {
		n.Category = model.CategoryGeneral
	}

	c.mu.Lock()
	c.items = append([]model.Notification{n}, c.items...)
	if !n.Persistent && c.autoDismiss > 0 && !c.closed {
		id := n.ID
		c.timers[id] = c.clock.AfterFunc(c.autoDismiss, func() {
			c.dismiss(id)
		})
	}
	c.mu.Unlock()

	c.log.Debug().
		Str("id", n.ID).
		Str("type", string(n.Type)).
		Str("category", string(n.Category)).
		Msg("notification added")

	c.signal()
	return n
}

// MarkAsRead marks the notification read. Unknown ids are ignored.
func (c *Center) MarkAsRead(id string) {
	c.mu.Lock()
	changed := false
	for i := range c.items {
		if c.items[i].ID == id {
			if !c.items[i].Read {
				c.items[i].Read = true
				changed = true
			}
			break
		}
	}
	c.mu.Unlock()

	if changed {
		c.signal()
	}
}

// MarkAllAsRead marks every notification read.
func (c *Center) MarkAllAsRead() {
	c.mu.Lock()
	changed := false
	for i := range c.items {
		if !c.items[i].Read {
			c.items[i].Read = true
			changed = true
		}
	}
	c.mu.Unlock()

	if changed {
		c.signal()
	}
}

// Remove deletes the notification whatever its read state. Unknown ids are
// ignored.
func (c *Center) Remove(id string) {
	c.mu.Lock()
	removed := c.removeLocked(id)
	c.mu.Unlock()

	if removed {
		c.signal()
	}
}

// ClearAll empties the list.
func (c *Center) ClearAll() {
	c.mu.Lock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
	hadItems := len(c.items) > 0
	c.items = nil
	c.mu.Unlock()

	if hadItems {
		c.signal()
	}
}

// TriggerAction runs the notification's action callback and then marks it
// read. The callback runs without the center's lock held, so it may call
// back into the center, including removing this very notification.
func (c *Center) TriggerAction(id string) {
	n, ok := c.Get(id)
	if !ok {
		return
	}
	if n.Action != nil && n.Action.Run != nil {
		n.Action.Run()
	}
	c.MarkAsRead(id)
}

// UnreadCount counts unread notifications in the current list.
func (c *Center) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, n := range c.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// List returns a snapshot of all notifications, newest first.
func (c *Center) List() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Get looks up a notification by id.
func (c *Center) Get(id string) (model.Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, n := range c.items {
		if n.ID == id {
			return n, true
		}
	}
	return model.Notification{}, false
}

// Toasts returns the newest unread notifications, at most MaxToasts.
func (c *Center) Toasts() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []model.Notification
	for _, n := range c.items {
		if n.Read {
			continue
		}
		out = append(out, n)
		if len(out) == c.maxToasts {
			break
		}
	}
	return out
}

// Changes delivers a value after any mutation. Signals coalesce, so a
// reader must re-read the whole state on each receive.
func (c *Center) Changes() <-chan struct{} {
	return c.changes
}

// Close cancels pending auto-dismiss timers. The center stays usable.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}

// dismiss is the auto-dismiss callback.
func (c *Center) dismiss(id string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	delete(c.timers, id)
	removed := c.removeLocked(id)
	c.mu.Unlock()

	if removed {
		c.log.Debug().Str("id", id).Msg("notification auto-dismissed")
		c.signal()
	}
}

func (c *Center) removeLocked(id string) bool {
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// signal performs a non-blocking send on the change channel.
func (c *Center) signal() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}
