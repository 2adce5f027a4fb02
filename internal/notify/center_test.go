package notify

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/labdesk/internal/clock"
	"github.com/nhle/labdesk/internal/model"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestCenter(t *testing.T, autoDismiss time.Duration) (*Center, *clock.Fake) {
	t.Helper()

	fc := clock.NewFake(epoch)
	c := NewCenter(Options{Clock: fc, AutoDismiss: autoDismiss})
	t.Cleanup(c.Close)
	return c, fc
}

func draft(title string) Draft {
	return Draft{
		Type:       model.NotificationInfo,
		Title:      title,
		Message:    title + " body",
		Category:   model.CategorySystem,
		Persistent: true,
	}
}

func countUnread(list []model.Notification) int {
	n := 0
	for _, item := range list {
		if !item.Read {
			n++
		}
	}
	return n
}

func TestCenter_AddPrependsNewestFirst(t *testing.T) {
	c, _ := newTestCenter(t, 0)

	a := c.Add(draft("A"))
	b := c.Add(draft("B"))

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, list[0].Read)
	assert.Equal(t, epoch, list[0].Timestamp)
	assert.Equal(t, 2, c.UnreadCount())
}

func TestCenter_MarkAsRead(t *testing.T) {
	c, _ := newTestCenter(t, 0)

	a := c.Add(draft("A"))
	c.Add(draft("B"))

	c.MarkAsRead(a.ID)
	assert.Equal(t, 1, c.UnreadCount())

	got, ok := c.Get(a.ID)
	require.True(t, ok)
	assert.True(t, got.Read)

	// Marking twice does not change the count again.
	c.MarkAsRead(a.ID)
	assert.Equal(t, 1, c.UnreadCount())
}

func TestCenter_UnknownIDIsNoOp(t *testing.T) {
	c, _ := newTestCenter(t, 0)
	c.Add(draft("A"))
	before := c.List()

	assert.NotPanics(t, func() {
		c.MarkAsRead("missing")
		c.Remove("missing")
		c.TriggerAction("missing")
	})

	assert.Equal(t, before, c.List())
	assert.Equal(t, 1, c.UnreadCount())
}

func TestCenter_OperationsOnEmptyCenter(t *testing.T) {
	c, _ := newTestCenter(t, 0)

	assert.NotPanics(t, func() {
		c.MarkAsRead("x")
		c.Remove("x")
		c.ClearAll()
		c.MarkAllAsRead()
	})
	assert.Empty(t, c.List())
	assert.Zero(t, c.UnreadCount())
}

func TestCenter_RemoveIgnoresReadState(t *testing.T) {
	c, _ := newTestCenter(t, 0)

	a := c.Add(draft("A"))
	b := c.Add(draft("B"))
	c.MarkAsRead(a.ID)

	c.Remove(a.ID)
	c.Remove(b.ID)

	assert.Empty(t, c.List())
	assert.Zero(t, c.UnreadCount())
}

func TestCenter_ClearAll(t *testing.T) {
	c, _ := newTestCenter(t, 0)
	for i := 0; i < 5; i++ {
		c.Add(draft("n"))
	}

	c.ClearAll()

	assert.Empty(t, c.List())
	assert.Zero(t, c.UnreadCount())
}

func TestCenter_UnreadCountMatchesListUnderRandomOps(t *testing.T) {
	c, _ := newTestCenter(t, 0)
	rng := rand.New(rand.NewSource(42))

	var ids []string
	for step := 0; step < 500; step++ {
		switch op := rng.Intn(4); {
		case op == 0 || len(ids) == 0:
			ids = append(ids, c.Add(draft("n")).ID)
		case op == 1:
			c.MarkAsRead(ids[rng.Intn(len(ids))])
		case op == 2:
			c.Remove(ids[rng.Intn(len(ids))])
		default:
			c.MarkAsRead("ghost")
		}

		require.Equal(t, countUnread(c.List()), c.UnreadCount(), "step %d", step)
	}
}

func TestCenter_TriggerActionRunsCallbackThenMarksRead(t *testing.T) {
	c, _ := newTestCenter(t, 0)

	calls := 0
	d := draft("Results ready")
	d.Action = &model.Action{Label: "View", Run: func() { calls++ }}
	n := c.Add(d)

	c.TriggerAction(n.ID)

	assert.Equal(t, 1, calls)
	got, ok := c.Get(n.ID)
	require.True(t, ok)
	assert.True(t, got.Read)
}

func TestCenter_TriggerActionCallbackMayRemoveItself(t *testing.T) {
	c, _ := newTestCenter(t, 0)

	var id string
	d := draft("Dismiss me")
	d.Action = &model.Action{Label: "Dismiss", Run: func() { c.Remove(id) }}
	id = c.Add(d).ID

	assert.NotPanics(t, func() { c.TriggerAction(id) })
	assert.Empty(t, c.List())
}

func TestCenter_TriggerActionWithoutCallback(t *testing.T) {
	c, _ := newTestCenter(t, 0)
	n := c.Add(draft("plain"))

	c.TriggerAction(n.ID)

	got, _ := c.Get(n.ID)
	assert.True(t, got.Read)
}

func TestCenter_AddDefaultsTypeAndCategory(t *testing.T) {
	c, _ := newTestCenter(t, 0)

	n := c.Add(Draft{Title: "bare"})

	assert.Equal(t, model.NotificationInfo, n.Type)
	assert.Equal(t, model.CategoryGeneral, n.Category)
}

func TestCenter_ToastsCappedAndUnreadOnly(t *testing.T) {
	c, _ := newTestCenter(t, 0)

	first := c.Add(draft("1"))
	c.Add(draft("2"))
	c.Add(draft("3"))
	c.Add(draft("4"))
	newest := c.Add(draft("5"))
	c.MarkAsRead(newest.ID)

	toasts := c.Toasts()
	require.Len(t, toasts, DefaultMaxToasts)
	assert.Equal(t, "4", toasts[0].Title)
	for _, n := range toasts {
		assert.False(t, n.Read)
		assert.NotEqual(t, first.ID, n.ID)
	}
}

func TestCenter_AutoDismissNonPersistent(t *testing.T) {
	c, fc := newTestCenter(t, 5*time.Second)

	d := draft("transient")
	d.Persistent = false
	transient := c.Add(d)
	kept := c.Add(draft("kept"))

	fc.Advance(4 * time.Second)
	assert.Len(t, c.List(), 2)

	fc.Advance(time.Second)
	list := c.List()
	require.Len(t, list, 1)
	assert.Equal(t, kept.ID, list[0].ID)

	_, ok := c.Get(transient.ID)
	assert.False(t, ok)
}

func TestCenter_RemoveCancelsAutoDismiss(t *testing.T) {
	c, fc := newTestCenter(t, 5*time.Second)

	d := draft("transient")
	d.Persistent = false
	n := c.Add(d)
	require.Equal(t, 1, fc.Pending())

	c.Remove(n.ID)
	assert.Zero(t, fc.Pending())
}

func TestCenter_CloseStopsTimers(t *testing.T) {
	c, fc := newTestCenter(t, 5*time.Second)

	d := draft("transient")
	d.Persistent = false
	c.Add(d)

	c.Close()
	assert.Zero(t, fc.Pending())

	fc.Advance(time.Minute)
	assert.Len(t, c.List(), 1)

	// Adding after close still works but schedules nothing.
	c.Add(d)
	assert.Zero(t, fc.Pending())
}

func TestCenter_ChangesSignal(t *testing.T) {
	c, _ := newTestCenter(t, 0)

	c.Add(draft("A"))
	c.Add(draft("B"))

	select {
	case <-c.Changes():
	default:
		t.Fatal("expected a change signal")
	}

	select {
	case <-c.Changes():
		t.Fatal("signals should coalesce")
	default:
	}

	c.MarkAsRead("missing")
	select {
	case <-c.Changes():
		t.Fatal("no-op should not signal")
	default:
	}
}

func TestCenter_MarkAllAsRead(t *testing.T) {
	c, _ := newTestCenter(t, 0)
	c.Add(draft("A"))
	c.Add(draft("B"))

	c.MarkAllAsRead()

	assert.Zero(t, c.UnreadCount())
	assert.Len(t, c.List(), 2)
}
