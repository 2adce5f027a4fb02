package model

import "time"

// SessionRecord is the archived summary of a finished support chat.
type SessionRecord struct {
	// ID is the unique identifier of the archived session.
	ID string `db:"id"`

	// UserName and UserRole describe who opened the chat.
	UserName string `db:"user_name"`
	UserRole string `db:"user_role"`

	// StartedAt is the timestamp of the first transcript message.
	StartedAt time.Time `db:"started_at"`

	// EndedAt is when the chat was closed.
	EndedAt time.Time `db:"ended_at"`

	// Rating is the 1-5 score left on close, or 0 when skipped.
	Rating int `db:"rating"`

	// Feedback is the optional free-text comment left on close.
	Feedback string `db:"feedback"`

	// MessageCount is the number of transcript messages archived.
	MessageCount int `db:"message_count"`
}
