package mailbox

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nhle/labdesk/internal/source"
)

const (
	// lookback bounds the IMAP SINCE search.
	lookback = 7 * 24 * time.Hour

	fetchLimit = 50

	previewLen = 140
)

// inbox is the subset of IMAPClient the feed needs.
type inbox interface {
	Ping(ctx context.Context) error
	FetchRecent(ctx context.Context, since time.Time, limit int) ([]ParsedMessage, error)
	MarkSeen(ctx context.Context, uid uint32) error
}

// Feed implements source.Feed over an IMAP inbox. Unread messages become
// alerts; acknowledging an alert sets \Seen on the message.
type Feed struct {
	inbox    inbox
	username string
	now      func() time.Time
}

var _ source.Feed = (*Feed)(nil)

// NewFeed creates a mailbox feed.
func NewFeed(host, port, username, password string, useTLS bool) *Feed {
	return &Feed{
		inbox:    NewIMAPClient(host, port, username, password, useTLS),
		username: username,
		now:      time.Now,
	}
}

// Type returns the feed type identifier for mailboxes.
func (f *Feed) Type() source.FeedType {
	return source.FeedTypeMailbox
}

// Name is the mailbox username, so two inboxes never share alert ids.
func (f *Feed) Name() string {
	return string(source.FeedTypeMailbox) + ":" + f.username
}

// ValidateConnection verifies IMAP credentials by connecting,
// authenticating, and selecting INBOX. Returns the username on success.
func (f *Feed) ValidateConnection(ctx context.Context) (string, error) {
	if err := f.inbox.Ping(ctx); err != nil {
		return "", fmt.Errorf("validating mailbox connection: %w", err)
	}
	return f.username, nil
}

// Fetch returns an alert for every unread message from the last week.
func (f *Feed) Fetch(ctx context.Context) ([]source.Alert, error) {
	msgs, err := f.inbox.FetchRecent(ctx, f.now().Add(-lookback), fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching mailbox alerts: %w", err)
	}

	alerts := make([]source.Alert, 0, len(msgs))
	for _, m := range msgs {
		if m.Envelope.Seen() {
			continue
		}
		alerts = append(alerts, messageToAlert(m))
	}
	return alerts, nil
}

// Acknowledge flags the message behind alertID as seen.
func (f *Feed) Acknowledge(ctx context.Context, alertID string) error {
	uid, err := parseUID(alertID)
	if err != nil {
		return err
	}
	if err := f.inbox.MarkSeen(ctx, uid); err != nil {
		return fmt.Errorf("acknowledging mailbox alert %s: %w", alertID, err)
	}
	return nil
}

func messageToAlert(m ParsedMessage) source.Alert {
	env := m.Envelope
	typ, category := Classify(env.Subject)

	title := strings.TrimSpace(env.Subject)
	if title == "" {
		title = "(no subject)"
	}

	msg := preview(m.TextBody)
	if env.From != "" {
		if msg == "" {
			msg = "From " + env.From
		} else {
			msg = env.From + ": " + msg
		}
	}

	return source.Alert{
		ID:         strconv.FormatUint(uint64(env.UID), 10),
		Type:       typ,
		Category:   category,
		Title:      title,
		Message:    msg,
		ReceivedAt: env.Date,
	}
}

// preview collapses whitespace and truncates to previewLen runes.
func preview(body string) string {
	s := strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(s) <= previewLen {
		return s
	}
	r := []rune(s)
	return string(r[:previewLen-1]) + "…"
}

func parseUID(id string) (uint32, error) {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid mailbox alert id %q: %w", id, err)
	}
	return uint32(uid), nil
}
