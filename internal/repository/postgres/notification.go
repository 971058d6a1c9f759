package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/feedback-api/internal/model"
	"github.com/jwalitptl/feedback-api/internal/repository"
)

const notificationColumns = `id, user_id, feedback_id, title, message, notification_type, status, link, meta_data, created_at, updated_at`

type notificationRepository struct {
	*BaseRepository
}

func NewNotificationRepository(base *BaseRepository) repository.NotificationRepository {
	return &notificationRepository{
		BaseRepository: base,
	}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	now := time.Now()
	n.CreatedAt = now
	n.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		n.ID, n.UserID, n.FeedbackID, n.Title, n.Message, n.Type, n.Status, n.Link, n.MetaData, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// All reads and writes below are scoped to the owning user so a foreign id
// behaves exactly like a missing one.

func (r *notificationRepository) Get(ctx context.Context, userID, id uuid.UUID) (*model.Notification, error) {
	var n model.Notification
	err := r.db.GetContext(ctx, &n,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", notFound(err))
	}
	return &n, nil
}

func (r *notificationRepository) List(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	items := []*model.Notification{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND status = $2`,
		userID, model.NotificationStatusUnread)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET status = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`,
		model.NotificationStatusRead, time.Now(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return requireAffected(res)
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET status = $1, updated_at = $2 WHERE user_id = $3 AND status = $4`,
		model.NotificationStatusRead, time.Now(), userID, model.NotificationStatusUnread)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return res.RowsAffected()
}

func (r *notificationRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return requireAffected(res)
}

func (r *notificationRepository) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return res.RowsAffected()
}
