package repository

import (
	"context"
	"fmt"

	"sesmt-backend/internal/database"
	"sesmt-backend/internal/models"
)

// NotificationInput is one alert produced by the expiry notifier.
type NotificationInput struct {
	Title      string
	Message    string
	Type       string
	EntityType string
	EntityID   string
	Day        string // yyyy-mm-dd, part of the dedupe key
}

// NotificationRepository stores in-app alerts. Alerts are global: every
// user of the safety office sees the same feed.
type NotificationRepository struct {
	db database.Service
}

// NewNotificationRepository creates a NotificationRepository.
func NewNotificationRepository(db database.Service) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Insert stores the alert unless one with the same subject, type and day
// exists. It reports whether a row was written.
func (r *NotificationRepository) Insert(ctx context.Context, n NotificationInput) (bool, error) {
	tag, err := r.db.GetPool().Exec(ctx, `
		INSERT INTO notifications (title, message, type, entity_type, entity_id, day)
		VALUES ($1, $2, $3, $4, $5, $6::date)
		ON CONFLICT (entity_type, entity_id, type, day) DO NOTHING
	`, n.Title, n.Message, n.Type, n.EntityType, n.EntityID, n.Day)
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// List returns the newest alerts first.
func (r *NotificationRepository) List(ctx context.Context, unreadOnly bool, limit int) ([]models.Notification, error) {
	where := ""
	if unreadOnly {
		where = "WHERE is_read = FALSE"
	}
	rows, err := r.db.GetPool().Query(ctx, fmt.Sprintf(`
		SELECT id, title, message, type, entity_type, entity_id, is_read, created_at::text
		FROM notifications %s
		ORDER BY created_at DESC, id
		LIMIT $1
	`, where), limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.Type, &n.EntityType, &n.EntityID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// UnreadCount returns the number of unread alerts.
func (r *NotificationRepository) UnreadCount(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetPool().QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE is_read = FALSE`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}

// MarkRead flags one alert as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	tag, err := r.db.GetPool().Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead flags every alert as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context) error {
	if _, err := r.db.GetPool().Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE is_read = FALSE`); err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}
