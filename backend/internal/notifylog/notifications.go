package notifylog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	apperrors "follownet/backend/pkg/errors"
)

// Notification is a single append-only event in the log. TriggeredByUsername
// is a snapshot of the actor's username at event time, not a live reference.
type Notification struct {
	ID                  int64     `json:"id"`
	UserID              int       `json:"userId"`
	TriggeredByUserID   int       `json:"triggeredByUserId"`
	Type                string    `json:"type"`
	TriggeredByUsername string    `json:"triggeredByUsername"`
	CreatedAt           time.Time `json:"createdAt"`
	IsRead              bool      `json:"isRead"`
}

const notificationColumns = `id, user_id, triggered_by_user_id, type, triggered_by_username, created_at, is_read`

// scanNotification scans a sql.Row (or sql.Rows via its Scan method) into a Notification
func scanNotification(scanner interface{ Scan(dest ...any) error }) (*Notification, error) {
	var (
		n         Notification
		createdAt string
		isRead    int
	)

	err := scanner.Scan(
		&n.ID,
		&n.UserID,
		&n.TriggeredByUserID,
		&n.Type,
		&n.TriggeredByUsername,
		&createdAt,
		&isRead,
	)
	if err != nil {
		return nil, err
	}

	n.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	n.IsRead = isRead != 0

	return &n, nil
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}

// timeLayout is RFC3339 with fixed-width nanoseconds so that stored UTC
// timestamps compare correctly as strings (Prune relies on this).
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Append stores a new event and returns it with the generated id. A zero
// CreatedAt is stamped with the current time; IsRead always starts false.
func (s *Store) Append(ctx context.Context, n *Notification) (*Notification, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n.IsRead = false

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, triggered_by_user_id, type, triggered_by_username, created_at, is_read)
		VALUES (?, ?, ?, ?, ?, 0)`,
		n.UserID, n.TriggeredByUserID, n.Type, n.TriggeredByUsername, formatTime(n.CreatedAt),
	)
	if err != nil {
		return nil, apperrors.NewNotificationStoreFailed("append", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperrors.NewNotificationStoreFailed("append", err)
	}
	n.ID = id

	s.logger.Info("Notification stored",
		zap.Int64("id", n.ID),
		zap.Int("user_id", n.UserID),
		zap.String("type", n.Type),
		zap.Int("triggered_by", n.TriggeredByUserID),
	)
	return n, nil
}

// ListForUser returns a user's events, newest first
func (s *Store) ListForUser(ctx context.Context, userID int) ([]Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, apperrors.NewNotificationStoreFailed("list", err)
	}
	defer rows.Close()

	notifications := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, apperrors.NewNotificationStoreFailed("list", err)
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewNotificationStoreFailed("list", err)
	}

	return notifications, nil
}

// MarkRead flips the read flag on a single event
func (s *Store) MarkRead(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return apperrors.NewNotificationStoreFailed("mark read", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewNotificationStoreFailed("mark read", err)
	}
	if affected == 0 {
		return apperrors.NewNotificationNotFound(id)
	}
	return nil
}

// UnreadCount returns the number of unread events for a user
func (s *Store) UnreadCount(ctx context.Context, userID int) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, apperrors.NewNotificationStoreFailed("unread count", err)
	}
	return count, nil
}

// Prune deletes read events older than maxAgeDays and returns how many
// were removed. Unread events are never pruned regardless of age.
func (s *Store) Prune(ctx context.Context, maxAgeDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -maxAgeDays)

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE is_read = 1 AND created_at < ?`,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, apperrors.NewNotificationStoreFailed("prune", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.NewNotificationStoreFailed("prune", err)
	}

	if deleted > 0 {
		s.logger.Info("Pruned read notifications",
			zap.Int64("deleted", deleted),
			zap.Int("max_age_days", maxAgeDays),
		)
	}
	return deleted, nil
}
