package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/labdesk/internal/model"
)

// ErrNotFound is returned when a lookup by id matches nothing.
var ErrNotFound = errors.New("not found")

// messageRow mirrors a chat_messages row.
type messageRow struct {
	ID         string    `db:"id"`
	SessionID  string    `db:"session_id"`
	Seq        int       `db:"seq"`
	Text       string    `db:"text"`
	Sender     string    `db:"sender"`
	SenderName string    `db:"sender_name"`
	SenderRole string    `db:"sender_role"`
	Timestamp  time.Time `db:"timestamp"`
	Status     string    `db:"status"`
}

// ArchiveSession stores a finished session and its transcript in one
// transaction. Generates a UUID if the session ID is empty.
func (s *SQLiteStore) ArchiveSession(ctx context.Context, t Transcript) error {
	rec := t.Session
	if strings.TrimSpace(rec.UserName) == "" {
		return fmt.Errorf("session user name must not be empty")
	}
	if rec.Rating < 0 || rec.Rating > 5 {
		return fmt.Errorf("session rating %d out of range 0-5", rec.Rating)
	}
	if rec.ID == "" {
		rec.ID = uuid.Must(uuid.NewV7()).String()
	}
	if rec.EndedAt.IsZero() {
		rec.EndedAt = time.Now()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = rec.EndedAt
		if len(t.Messages) > 0 {
			rec.StartedAt = t.Messages[0].Timestamp
		}
	}
	rec.MessageCount = len(t.Messages)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chat_sessions (
			id, user_name, user_role, started_at, ended_at,
			rating, feedback, message_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserName, rec.UserRole, rec.StartedAt.UTC(), rec.EndedAt.UTC(),
		rec.Rating, rec.Feedback, rec.MessageCount,
	)
	if err != nil {
		return fmt.Errorf("archiving session %s: %w", rec.ID, err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO chat_messages (
			id, session_id, seq, text, sender,
			sender_name, sender_role, timestamp, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing message insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range t.Messages {
		_, err := stmt.ExecContext(ctx,
			m.ID, rec.ID, i, m.Text, string(m.Sender),
			m.SenderName, m.SenderRole, m.Timestamp.UTC(), string(m.Status),
		)
		if err != nil {
			return fmt.Errorf("archiving message %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// ListSessions returns archived sessions, most recently ended first.
func (s *SQLiteStore) ListSessions(
	ctx context.Context,
	filter SessionFilter,
) ([]model.SessionRecord, error) {
	var conditions []string
	var args []interface{}

	if filter.UserName != nil {
		conditions = append(conditions, "user_name = ?")
		args = append(args, *filter.UserName)
	}
	if filter.MinRating != nil {
		conditions = append(conditions, "rating >= ?")
		args = append(args, *filter.MinRating)
	}

	query := "SELECT * FROM chat_sessions"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY ended_at DESC, id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	var sessions []model.SessionRecord
	if err := s.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, nil
}

// GetSession retrieves one archived session by ID.
func (s *SQLiteStore) GetSession(
	ctx context.Context,
	id string,
) (*model.SessionRecord, error) {
	var rec model.SessionRecord
	err := s.db.GetContext(ctx, &rec, "SELECT * FROM chat_sessions WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting session %s: %w", id, err)
	}
	return &rec, nil
}

// GetSessionMessages returns the archived transcript, oldest first.
func (s *SQLiteStore) GetSessionMessages(
	ctx context.Context,
	sessionID string,
) ([]model.Message, error) {
	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM chat_messages WHERE session_id = ? ORDER BY seq", sessionID)
	if err != nil {
		return nil, fmt.Errorf("getting messages for session %s: %w", sessionID, err)
	}

	msgs := make([]model.Message, 0, len(rows))
	for _, r := range rows {
		m, err := r.toMessage()
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", r.ID, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// DeleteSession removes an archived session. Cascades to chat_messages.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM chat_sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r messageRow) toMessage() (model.Message, error) {
	sender, err := model.ParseSender(r.Sender)
	if err != nil {
		return model.Message{}, err
	}
	status, err := model.ParseDeliveryStatus(r.Status)
	if err != nil {
		return model.Message{}, err
	}
	return model.Message{
		ID:         r.ID,
		Text:       r.Text,
		Sender:     sender,
		SenderName: r.SenderName,
		SenderRole: r.SenderRole,
		Timestamp:  r.Timestamp,
		Status:     status,
	}, nil
}
