package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/labdesk/internal/model"
)

// AuthError indicates that authentication has failed or expired for a feed.
// It is returned by feed clients when the remote rejects the credentials.
type AuthError struct {
	FeedType FeedType
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.FeedType, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// FeedType identifies the kind of external alert feed.
type FeedType string

const (
	FeedTypeMailbox FeedType = "mailbox"
)

// Alert is one item fetched from a feed, ready to become a notification.
type Alert struct {
	// ID is unique within its feed and stable across fetches.
	ID string

	Type     model.NotificationType
	Category model.Category
	Title    string
	Message  string

	// ReceivedAt is when the feed received the item.
	ReceivedAt time.Time
}

// Feed defines the contract that every external alert feed must implement.
type Feed interface {
	// Type returns the feed type identifier.
	Type() FeedType

	// Name is a stable per-feed key, used for de-duplication.
	Name() string

	// ValidateConnection verifies credentials and connectivity.
	// Returns a human-readable status message on success.
	ValidateConnection(ctx context.Context) (string, error)

	// Fetch returns the feed's current unacknowledged alerts.
	Fetch(ctx context.Context) ([]Alert, error)

	// Acknowledge marks an alert as handled at the remote end.
	Acknowledge(ctx context.Context, alertID string) error
}
