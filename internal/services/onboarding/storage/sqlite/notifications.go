package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/vendorflow/internal/services/onboarding/domain"
	"github.com/louisbranch/vendorflow/internal/services/onboarding/storage"
)

const notificationColumns = `id, recipient, notification_type, title, message, request_id, action_url, read_at, created_at`

const defaultNotificationLimit = 50

// PutNotification inserts or replaces one inbox item.
func (s *Store) PutNotification(ctx context.Context, notification domain.Notification) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id, err := requireID("notification id", notification.ID)
	if err != nil {
		return err
	}
	recipient, err := requireID("recipient", notification.Recipient)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO notifications (`+notificationColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		recipient = excluded.recipient,
		notification_type = excluded.notification_type,
		title = excluded.title,
		message = excluded.message,
		request_id = excluded.request_id,
		action_url = excluded.action_url,
		read_at = excluded.read_at
	`,
		id,
		recipient,
		string(notification.Type),
		notification.Title,
		notification.Message,
		notification.RequestID,
		notification.ActionURL,
		nullMillis(notification.ReadAt),
		toMillis(notification.CreatedAt),
	)
	if err != nil {
		return writeErr(err, "put notification")
	}
	return nil
}

// GetNotification loads one inbox item.
func (s *Store) GetNotification(ctx context.Context, id string) (domain.Notification, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Notification{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	notification, err := scanNotification(row.Scan)
	if err != nil {
		return domain.Notification{}, notFoundOr(err, "get notification")
	}
	return notification, nil
}

// ListNotifications lists one recipient inbox newest-first.
func (s *Store) ListNotifications(ctx context.Context, recipient string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, fmt.Errorf("recipient is required")
	}
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient = ?`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, recipient, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]domain.Notification, 0)
	for rows.Next() {
		notification, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return notifications, nil
}

// CountUnreadNotifications counts unread inbox items for one recipient.
func (s *Store) CountUnreadNotifications(ctx context.Context, recipient string) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM notifications WHERE recipient = ? AND read_at IS NULL
	`, strings.TrimSpace(recipient)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationRead stamps one notification read. Already-read rows keep
// their original read time.
func (s *Store) MarkNotificationRead(ctx context.Context, id string, readAt time.Time) (domain.Notification, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Notification{}, err
	}
	if _, err := s.db.ExecContext(ctx, `
	UPDATE notifications SET read_at = ? WHERE id = ? AND read_at IS NULL
	`, toMillis(readAt), id); err != nil {
		return domain.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	return s.GetNotification(ctx, id)
}

// MarkAllNotificationsRead stamps every unread notification of a recipient.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipient string, readAt time.Time) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	result, err := s.db.ExecContext(ctx, `
	UPDATE notifications SET read_at = ? WHERE recipient = ? AND read_at IS NULL
	`, toMillis(readAt), strings.TrimSpace(recipient))
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read rows: %w", err)
	}
	return int(affected), nil
}

func scanNotification(scan scanner) (domain.Notification, error) {
	var notification domain.Notification
	var notificationType string
	var readAt sql.NullInt64
	var createdAt int64
	if err := scan(
		&notification.ID,
		&notification.Recipient,
		&notificationType,
		&notification.Title,
		&notification.Message,
		&notification.RequestID,
		&notification.ActionURL,
		&readAt,
		&createdAt,
	); err != nil {
		return domain.Notification{}, err
	}
	notification.Type = domain.NotificationType(notificationType)
	notification.ReadAt = timePtr(readAt)
	notification.CreatedAt = fromMillis(createdAt)
	return notification, nil
}

var _ storage.NotificationStore = (*Store)(nil)
