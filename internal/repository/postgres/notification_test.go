package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/feedback-api/internal/model"
	"github.com/jwalitptl/feedback-api/internal/repository"
)

func notificationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "feedback_id", "title", "message", "notification_type",
		"status", "link", "meta_data", "created_at", "updated_at",
	})
}

func TestNotificationRepository_Create(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewNotificationRepository(base)

	feedbackID := uuid.New()
	n := &model.Notification{
		Base:       model.Base{ID: uuid.New()},
		UserID:     uuid.New(),
		FeedbackID: &feedbackID,
		Title:      "New Feedback Submitted",
		Message:    "New feedback from alice: hello",
		Type:       model.NotificationTypeInfo,
		Status:     model.NotificationStatusUnread,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WithArgs(n.ID, n.UserID, feedbackID, n.Title, n.Message, n.Type, n.Status, n.Link,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), n))
	assert.False(t, n.CreatedAt.IsZero())
}

func TestNotificationRepository_GetScopedToUser(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewNotificationRepository(base)
	userID, id := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM notifications WHERE id = $1 AND user_id = $2")).
		WithArgs(id, userID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), userID, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestNotificationRepository_List(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewNotificationRepository(base)
	userID := uuid.New()
	now := time.Now()

	rows := notificationRows().
		AddRow(uuid.New(), userID, nil, "b", "second", "info", "Unread", "", []byte(`{}`), now, now).
		AddRow(uuid.New(), userID, nil, "a", "first", "info", "Read", "", []byte(`{"k":"v"}`), now.Add(-time.Hour), now)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $2")).
		WithArgs(userID, 10).
		WillReturnRows(rows)

	items, err := repo.List(context.Background(), userID, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[0].Message)
	assert.Nil(t, items[0].FeedbackID)
	assert.Equal(t, "v", items[1].MetaData["k"])
}

func TestNotificationRepository_CountUnread(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewNotificationRepository(base)
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM notifications")).
		WithArgs(userID, model.NotificationStatusUnread).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountUnread(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestNotificationRepository_MarkRead(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		base, mock := newMockBase(t)
		repo := NewNotificationRepository(base)
		userID, id := uuid.New(), uuid.New()

		mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET status = $1")).
			WithArgs(model.NotificationStatusRead, sqlmock.AnyArg(), id, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkRead(context.Background(), userID, id))
	})

	t.Run("foreign id", func(t *testing.T) {
		base, mock := newMockBase(t)
		repo := NewNotificationRepository(base)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET status = $1")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkRead(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestNotificationRepository_MarkAllReadAndDeleteAll(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewNotificationRepository(base)
	userID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET status = $1")).
		WithArgs(model.NotificationStatusRead, sqlmock.AnyArg(), userID, model.NotificationStatusUnread).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE user_id = $1")).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 6))

	updated, err := repo.MarkAllRead(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), updated)

	deleted, err := repo.DeleteAll(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), deleted)
}
