package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/feedback-api/internal/model"
)

// ErrNotFound is returned when a row does not exist or is not visible to the caller.
var ErrNotFound = errors.New("record not found")

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User, profile *model.Profile) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		UsernameExists(ctx context.Context, username string) (bool, error)
		ListByRole(ctx context.Context, role model.Role) ([]*model.User, error)
		UpdateLanguage(ctx context.Context, id uuid.UUID, language string) error
		GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
		UpdateProfile(ctx context.Context, profile *model.Profile) error
		PhoneTaken(ctx context.Context, phone string, exceptUserID uuid.UUID) (bool, error)
	}

	FeedbackRepository interface {
		Create(ctx context.Context, feedback *model.Feedback) error
		Get(ctx context.Context, id uuid.UUID) (*model.Feedback, error)
		Update(ctx context.Context, feedback *model.Feedback) error
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.FeedbackStatus) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.FeedbackFilter) ([]*model.Feedback, error)
		Stats(ctx context.Context, from, to time.Time) (*model.FeedbackStats, error)

		// CreateResponse stores the response and, when status is set, moves the
		// feedback to it in the same transaction.
		CreateResponse(ctx context.Context, response *model.Response, status model.FeedbackStatus) error
		ListResponses(ctx context.Context, feedbackID uuid.UUID) ([]*model.Response, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		Get(ctx context.Context, userID, id uuid.UUID) (*model.Notification, error)
		List(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Notification, error)
		CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
		MarkRead(ctx context.Context, userID, id uuid.UUID) error
		MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
		Delete(ctx context.Context, userID, id uuid.UUID) error
		DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)
	}

	ReportRepository interface {
		Create(ctx context.Context, report *model.Report) error
		Get(ctx context.Context, id uuid.UUID) (*model.Report, error)
		ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*model.Report, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReportStatus) error
		SetAttachment(ctx context.Context, id uuid.UUID, path string) error
		ExistsForPeriod(ctx context.Context, reportType model.ReportType, start, end time.Time) (bool, error)
	}
)
