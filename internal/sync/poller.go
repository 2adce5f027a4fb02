package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/labdesk/internal/model"
	"github.com/nhle/labdesk/internal/notify"
	"github.com/nhle/labdesk/internal/source"
)

// SyncState represents the current state of a feed poll.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the poll state for a single feed.
type SyncStatus struct {
	Feed     string
	State    SyncState
	LastSync time.Time
	Error    error
}

// FeedResultMsg is a tea.Msg sent when a poll completes.
type FeedResultMsg struct {
	Feed      string
	NewAlerts int
	Error     error
	AuthError bool
}

// AlertLog records which alerts have already been surfaced.
// *store.SQLiteStore satisfies it.
type AlertLog interface {
	MarkAlertSeen(ctx context.Context, feed, alertID string) (bool, error)
}

// Notifier receives the notifications raised for new alerts.
type Notifier interface {
	Add(d notify.Draft) model.Notification
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// ackTimeout bounds a single acknowledge call started from a notification.
const ackTimeout = 15 * time.Second

// DefaultInterval is used when a feed is registered without an interval.
const DefaultInterval = 120 * time.Second

// feedEntry holds a registered feed and its poll interval.
type feedEntry struct {
	feed     source.Feed
	interval time.Duration
}

// Options configures a Poller.
type Options struct {
	// Alerts de-duplicates alerts across restarts. Nil keeps the record
	// in memory only.
	Alerts AlertLog

	Notifier Notifier
	Logger   zerolog.Logger
}

// Poller orchestrates background polling of registered feeds.
type Poller struct {
	alerts    AlertLog
	notifier  Notifier
	log       zerolog.Logger
	feeds     []feedEntry
	statuses  map[string]*SyncStatus
	seen      map[string]bool
	authShown map[string]bool
	resultCh  chan FeedResultMsg
	triggerCh chan string
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a new Poller.
func New(opts Options) *Poller {
	return &Poller{
		alerts:    opts.Alerts,
		notifier:  opts.Notifier,
		log:       opts.Logger,
		statuses:  make(map[string]*SyncStatus),
		seen:      make(map[string]bool),
		authShown: make(map[string]bool),
		resultCh:  make(chan FeedResultMsg, 16),
		triggerCh: make(chan string, 16),
		stopCh:    make(chan struct{}),
	}
}

// RegisterFeed adds a feed to the poller.
func (p *Poller) RegisterFeed(f source.Feed, interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if interval <= 0 {
		interval = DefaultInterval
	}
	p.feeds = append(p.feeds, feedEntry{feed: f, interval: interval})
	p.statuses[f.Name()] = &SyncStatus{Feed: f.Name(), State: SyncIdle}
}

// Start returns a tea.Cmd that starts all polling goroutines and
// subscribes to results. The returned command waits on the result
// channel and returns FeedResultMsg messages to the Bubble Tea runtime.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running || len(p.feeds) == 0 {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	feeds := make([]feedEntry, len(p.feeds))
	copy(feeds, p.feeds)
	p.mu.Unlock()

	for _, entry := range feeds {
		go p.pollFeed(entry)
	}

	return p.waitForResult()
}

// Stop halts all polling goroutines.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// RefreshAll triggers an immediate poll of all registered feeds.
func (p *Poller) RefreshAll() {
	p.mu.Lock()
	feeds := make([]feedEntry, len(p.feeds))
	copy(feeds, p.feeds)
	p.mu.Unlock()

	for _, entry := range feeds {
		select {
		case p.triggerCh <- entry.feed.Name():
		default:
			// Channel full; skip to avoid blocking
		}
	}
}

// GetStatuses returns the current poll status of all registered feeds.
func (p *Poller) GetStatuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]SyncStatus, 0, len(p.statuses))
	for _, s := range p.statuses {
		statuses = append(statuses, *s)
	}
	return statuses
}

// pollFeed runs the polling loop for a single feed.
func (p *Poller) pollFeed(entry feedEntry) {
	ticker := time.NewTicker(entry.interval)
	defer ticker.Stop()

	name := entry.feed.Name()

	// Do an initial fetch immediately
	p.sendResult(p.poll(entry.feed))

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.sendResult(p.poll(entry.feed))
		case trigger := <-p.triggerCh:
			if trigger == name {
				p.sendResult(p.poll(entry.feed))
			}
		}
	}
}

// poll performs a single fetch, raises a notification for every alert not
// seen before, and reports the outcome.
func (p *Poller) poll(f source.Feed) FeedResultMsg {
	name := f.Name()
	p.setStatus(name, SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	alerts, err := f.Fetch(ctx)
	if err != nil {
		p.setStatus(name, SyncError, err)
		p.log.Warn().Err(err).Str("feed", name).Msg("feed poll failed")

		if source.IsAuthError(err) {
			p.reportAuthError(f, err)
			return FeedResultMsg{Feed: name, Error: err, AuthError: true}
		}
		return FeedResultMsg{Feed: name, Error: err}
	}

	p.mu.Lock()
	delete(p.authShown, name)
	p.mu.Unlock()

	newCount := 0
	for _, a := range alerts {
		isNew, err := p.markSeen(ctx, name, a.ID)
		if err != nil {
			p.setStatus(name, SyncError, err)
			return FeedResultMsg{Feed: name, NewAlerts: newCount, Error: err}
		}
		if !isNew {
			continue
		}
		newCount++
		p.raise(f, a)
	}

	p.setStatus(name, SyncIdle, nil)
	if newCount > 0 {
		p.log.Info().Str("feed", name).Int("new", newCount).Msg("new alerts")
	}
	return FeedResultMsg{Feed: name, NewAlerts: newCount}
}

func (p *Poller) markSeen(ctx context.Context, feed, id string) (bool, error) {
	if p.alerts != nil {
		return p.alerts.MarkAlertSeen(ctx, feed, id)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := feed + "\x00" + id
	if p.seen[key] {
		return false, nil
	}
	p.seen[key] = true
	return true, nil
}

// raise adds a persistent notification whose action acknowledges the
// alert at the feed.
func (p *Poller) raise(f source.Feed, a source.Alert) {
	if p.notifier == nil {
		return
	}

	alertID := a.ID
	p.notifier.Add(notify.Draft{
		Type:       a.Type,
		Title:      a.Title,
		Message:    a.Message,
		Category:   a.Category,
		Persistent: true,
		Action: &model.Action{
			Label: "Mark read",
			Run: func() {
				go p.acknowledge(f, alertID)
			},
		},
	})
}

func (p *Poller) acknowledge(f source.Feed, alertID string) {
	ctx, cancel := context.WithTimeout(context.Background(), ackTimeout)
	defer cancel()

	if err := f.Acknowledge(ctx, alertID); err != nil {
		p.log.Warn().Err(err).Str("feed", f.Name()).Str("alert", alertID).Msg("acknowledge failed")
		return
	}
	p.log.Debug().Str("feed", f.Name()).Str("alert", alertID).Msg("alert acknowledged")
}

// reportAuthError raises one error notification per run of failures.
func (p *Poller) reportAuthError(f source.Feed, err error) {
	name := f.Name()

	p.mu.Lock()
	shown := p.authShown[name]
	p.authShown[name] = true
	p.mu.Unlock()

	if shown || p.notifier == nil {
		return
	}
	p.notifier.Add(notify.Draft{
		Type:       model.NotificationError,
		Title:      "Mailbox sign-in failed",
		Message:    fmt.Sprintf("%s: %v. Run `labdesk mailbox set-password` to update it.", f.Type(), err),
		Category:   model.CategorySystem,
		Persistent: true,
	})
}

// setStatus updates the poll status for a feed.
func (p *Poller) setStatus(name string, state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[name]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == SyncIdle && err == nil {
		status.LastSync = time.Now()
	}
}

// sendResult sends a FeedResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg FeedResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next poll result.
// This should be called after processing a FeedResultMsg to continue
// listening for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
