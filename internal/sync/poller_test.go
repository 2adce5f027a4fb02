package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/labdesk/internal/model"
	"github.com/nhle/labdesk/internal/notify"
	"github.com/nhle/labdesk/internal/source"
	"github.com/nhle/labdesk/tests/testutil"
)

type fakeFeed struct {
	mu     gosync.Mutex
	alerts []source.Alert
	err    error
	acked  []string
}

func (f *fakeFeed) Type() source.FeedType { return source.FeedTypeMailbox }
func (f *fakeFeed) Name() string          { return "mailbox:test" }

func (f *fakeFeed) ValidateConnection(context.Context) (string, error) { return "test", nil }

func (f *fakeFeed) Fetch(context.Context) ([]source.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alerts, f.err
}

func (f *fakeFeed) Acknowledge(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, id)
	return nil
}

func (f *fakeFeed) ackedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acked...)
}

func resultsAlert(id string) source.Alert {
	return source.Alert{
		ID:       id,
		Type:     model.NotificationSuccess,
		Category: model.CategoryResults,
		Title:    "Results ready " + id,
		Message:  "Your results are available",
	}
}

func newTestPoller(t *testing.T, alerts AlertLog) (*Poller, *notify.Center) {
	t.Helper()

	center := notify.NewCenter(notify.Options{Clock: testutil.NewFakeClock(t)})
	t.Cleanup(center.Close)
	return New(Options{Alerts: alerts, Notifier: center}), center
}

func TestPoller_NewAlertsBecomePersistentNotifications(t *testing.T) {
	p, center := newTestPoller(t, testutil.NewTestStore(t))
	feed := &fakeFeed{alerts: []source.Alert{resultsAlert("1"), resultsAlert("2")}}
	p.RegisterFeed(feed, time.Minute)

	res := p.poll(feed)
	require.NoError(t, res.Error)
	assert.Equal(t, 2, res.NewAlerts)

	list := center.List()
	require.Len(t, list, 2)
	assert.True(t, list[0].Persistent)
	assert.Equal(t, model.CategoryResults, list[0].Category)
	assert.True(t, list[0].HasAction())
}

func TestPoller_SkipsAlreadySeenAlerts(t *testing.T) {
	st := testutil.NewTestStore(t)
	p, center := newTestPoller(t, st)
	feed := &fakeFeed{alerts: []source.Alert{resultsAlert("1")}}
	p.RegisterFeed(feed, time.Minute)

	p.poll(feed)
	res := p.poll(feed)
	assert.Zero(t, res.NewAlerts)
	assert.Len(t, center.List(), 1)

	// A fresh poller on the same store still remembers.
	p2, center2 := newTestPoller(t, st)
	p2.RegisterFeed(feed, time.Minute)
	assert.Zero(t, p2.poll(feed).NewAlerts)
	assert.Empty(t, center2.List())
}

func TestPoller_InMemoryDedupWithoutStore(t *testing.T) {
	p, center := newTestPoller(t, nil)
	feed := &fakeFeed{alerts: []source.Alert{resultsAlert("1")}}

	assert.Equal(t, 1, p.poll(feed).NewAlerts)
	assert.Zero(t, p.poll(feed).NewAlerts)
	assert.Len(t, center.List(), 1)
}

func TestPoller_ActionAcknowledgesAlert(t *testing.T) {
	p, center := newTestPoller(t, nil)
	feed := &fakeFeed{alerts: []source.Alert{resultsAlert("7")}}
	p.poll(feed)

	n := center.List()[0]
	center.TriggerAction(n.ID)

	assert.Eventually(t, func() bool {
		ids := feed.ackedIDs()
		return len(ids) == 1 && ids[0] == "7"
	}, time.Second, 5*time.Millisecond)

	got, _ := center.Get(n.ID)
	assert.True(t, got.Read)
}

func TestPoller_AuthErrorSurfacedOnce(t *testing.T) {
	p, center := newTestPoller(t, nil)
	feed := &fakeFeed{err: &source.AuthError{FeedType: source.FeedTypeMailbox, Message: "bad password"}}
	p.RegisterFeed(feed, time.Minute)

	res := p.poll(feed)
	assert.True(t, res.AuthError)
	p.poll(feed)

	list := center.List()
	require.Len(t, list, 1)
	assert.Equal(t, model.NotificationError, list[0].Type)
	assert.Equal(t, model.CategorySystem, list[0].Category)

	statuses := p.GetStatuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, SyncError, statuses[0].State)

	// A success resets the latch so a later failure is shown again.
	feed.mu.Lock()
	feed.err = nil
	feed.mu.Unlock()
	p.poll(feed)

	feed.mu.Lock()
	feed.err = &source.AuthError{FeedType: source.FeedTypeMailbox, Message: "expired"}
	feed.mu.Unlock()
	p.poll(feed)

	assert.Len(t, center.List(), 2)
}

func TestPoller_OtherErrorsAreNotNotified(t *testing.T) {
	p, center := newTestPoller(t, nil)
	feed := &fakeFeed{err: errors.New("connection reset")}

	res := p.poll(feed)
	assert.Error(t, res.Error)
	assert.False(t, res.AuthError)
	assert.Empty(t, center.List())
}

func TestPoller_StartDeliversResult(t *testing.T) {
	p, _ := newTestPoller(t, nil)
	feed := &fakeFeed{alerts: []source.Alert{resultsAlert("1")}}
	p.RegisterFeed(feed, time.Hour)

	cmd := p.Start()
	require.NotNil(t, cmd)
	defer p.Stop()

	msg, ok := cmd().(FeedResultMsg)
	require.True(t, ok)
	assert.Equal(t, "mailbox:test", msg.Feed)
	assert.Equal(t, 1, msg.NewAlerts)

	assert.Nil(t, p.Start(), "second start is a no-op")
}

func TestPoller_StartWithoutFeeds(t *testing.T) {
	p, _ := newTestPoller(t, nil)
	assert.Nil(t, p.Start())
	assert.NotPanics(t, p.Stop)
}
