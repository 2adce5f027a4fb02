package store

import (
	"context"
	"fmt"
)

// MarkAlertSeen records (feed, alertID) and reports whether it was new.
func (s *SQLiteStore) MarkAlertSeen(ctx context.Context, feed, alertID string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO seen_alerts (feed, alert_id) VALUES (?, ?)",
		feed, alertID,
	)
	if err != nil {
		return false, fmt.Errorf("marking alert %s/%s seen: %w", feed, alertID, err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// IsAlertSeen reports whether (feed, alertID) was recorded before.
func (s *SQLiteStore) IsAlertSeen(ctx context.Context, feed, alertID string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM seen_alerts WHERE feed = ? AND alert_id = ?",
		feed, alertID,
	)
	if err != nil {
		return false, fmt.Errorf("checking alert %s/%s: %w", feed, alertID, err)
	}
	return count > 0, nil
}
