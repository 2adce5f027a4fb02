package store

import (
	"context"

	"github.com/nhle/labdesk/internal/model"
)

// SessionFilter controls filtering and pagination for archived sessions.
type SessionFilter struct {
	UserName  *string // exact match on the user's display name
	MinRating *int    // 1-5, or nil for any (including unrated)
	Limit     int
	Offset    int
}

// Transcript is a finished chat ready to be archived.
type Transcript struct {
	Session  model.SessionRecord
	Messages []model.Message
}

// Store defines the persistence interface for archived support sessions and
// mailbox alert de-duplication.
type Store interface {
	// === Chat archive ===

	ArchiveSession(ctx context.Context, t Transcript) error
	ListSessions(ctx context.Context, filter SessionFilter) ([]model.SessionRecord, error)
	GetSession(ctx context.Context, id string) (*model.SessionRecord, error)
	GetSessionMessages(ctx context.Context, sessionID string) ([]model.Message, error)
	DeleteSession(ctx context.Context, id string) error

	// === Alert de-duplication ===

	// MarkAlertSeen records the alert and reports whether it was new.
	MarkAlertSeen(ctx context.Context, feed, alertID string) (bool, error)
	IsAlertSeen(ctx context.Context, feed, alertID string) (bool, error)
}
