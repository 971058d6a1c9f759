package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/feedback-api/internal/model"
	"github.com/jwalitptl/feedback-api/internal/repository"
	apperrors "github.com/jwalitptl/feedback-api/pkg/errors"
	"github.com/jwalitptl/feedback-api/pkg/messaging"
	"github.com/jwalitptl/feedback-api/pkg/metrics"
)

const (
	SubjectFeedbackCreated = "New Feedback Submitted"
	SubjectResponseCreated = "Your Feedback Has Been Responded To"

	excerptLength = 200

	eventFeedbackCreated = "feedback_created"
	eventResponseCreated = "response_created"
)

// Delivery summarizes what happened for one recipient of an event.
type Delivery struct {
	UserID         uuid.UUID
	NotificationID uuid.UUID
	Recorded       bool
	Results        []Result
}

type Service interface {
	// NotifyFeedbackCreated informs every administrator about new feedback.
	NotifyFeedbackCreated(ctx context.Context, feedback *model.Feedback, author *model.User) []Delivery
	// NotifyResponseCreated informs the owner of a feedback about a response.
	NotifyResponseCreated(ctx context.Context, response *model.Response, feedback *model.Feedback, responder *model.User) []Delivery

	List(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo       repository.NotificationRepository
	users      repository.UserRepository
	dispatcher *Dispatcher
	broker     messaging.Broker
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewService wires the recorder and triggers. broker may be nil, in which case
// no in-app events are published.
func NewService(repo repository.NotificationRepository, users repository.UserRepository,
	dispatcher *Dispatcher, broker messaging.Broker, m *metrics.Metrics) Service {
	if m == nil {
		m = metrics.Noop()
	}
	return &service{
		repo:       repo,
		users:      users,
		dispatcher: dispatcher,
		broker:     broker,
		metrics:    m,
		now:        time.Now,
	}
}

// notice is one recipient's worth of an event.
type notice struct {
	event     string
	recipient *model.User
	feedback  *model.Feedback
	title     string
	record    string
	message   Message
}

// The triggers run after the originating row has committed, so they outlive
// the caller's cancellation.
func (s *service) NotifyFeedbackCreated(ctx context.Context, feedback *model.Feedback, author *model.User) (deliveries []Delivery) {
	defer recoverTrigger(eventFeedbackCreated, feedback)
	ctx = context.WithoutCancel(ctx)

	admins, err := s.users.ListByRole(ctx, model.RoleAdmin)
	if err != nil {
		log.Error().Err(err).
			Str("feedback_id", feedback.ID.String()).
			Msg("failed to load administrators for feedback notification")
		return nil
	}

	text := fmt.Sprintf("New feedback from %s: %s", author.DisplayName(), excerpt(feedback.Content))
	for _, admin := range admins {
		deliveries = append(deliveries, s.deliver(ctx, notice{
			event:     eventFeedbackCreated,
			recipient: admin,
			feedback:  feedback,
			title:     SubjectFeedbackCreated,
			record:    text,
			message:   Message{Subject: SubjectFeedbackCreated, Body: text},
		}))
	}
	return deliveries
}

func (s *service) NotifyResponseCreated(ctx context.Context, response *model.Response, feedback *model.Feedback, responder *model.User) (deliveries []Delivery) {
	defer recoverTrigger(eventResponseCreated, feedback)
	ctx = context.WithoutCancel(ctx)

	owner, err := s.users.Get(ctx, feedback.PatientID)
	if err != nil {
		log.Error().Err(err).
			Str("feedback_id", feedback.ID.String()).
			Msg("failed to load feedback owner for response notification")
		return nil
	}

	name := responder.DisplayName()
	return []Delivery{s.deliver(ctx, notice{
		event:     eventResponseCreated,
		recipient: owner,
		feedback:  feedback,
		title:     SubjectResponseCreated,
		record: fmt.Sprintf("Your feedback (ID %s) has a new response from %s: %s",
			feedback.ID, name, excerpt(response.Content)),
		message: Message{
			Subject: SubjectResponseCreated,
			Body:    fmt.Sprintf("Your feedback (ID %s) has a new response from %s.", feedback.ID, name),
		},
	})}
}

// deliver records, resolves and sends for one recipient. A failure here never
// reaches other recipients.
func (s *service) deliver(ctx context.Context, n notice) (d Delivery) {
	d.UserID = n.recipient.ID

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("user_id", n.recipient.ID.String()).
				Str("event", n.event).
				Msg("notification delivery panicked")
		}
	}()

	record := s.record(ctx, n)
	if record != nil {
		d.Recorded = true
		d.NotificationID = record.ID
		s.publish(ctx, record)
	}

	profile, err := s.users.GetProfile(ctx, n.recipient.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Warn().Err(err).
				Str("user_id", n.recipient.ID.String()).
				Msg("failed to load profile, treating as absent")
		}
		profile = nil
	}

	d.Results = s.dispatcher.Dispatch(ctx, n.recipient, profile, n.message)
	return d
}

func (s *service) record(ctx context.Context, n notice) *model.Notification {
	feedbackID := n.feedback.ID
	now := s.now()
	record := &model.Notification{
		Base:       model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UserID:     n.recipient.ID,
		FeedbackID: &feedbackID,
		Title:      n.title,
		Message:    n.record,
		Type:       model.NotificationTypeInfo,
		Status:     model.NotificationStatusUnread,
		Link:       "/feedback/" + feedbackID.String(),
		MetaData: model.JSONMap{
			"event":       n.event,
			"feedback_id": feedbackID.String(),
		},
	}

	if err := s.repo.Create(ctx, record); err != nil {
		s.metrics.RecordFailures.Inc()
		log.Error().Err(err).
			Str("user_id", n.recipient.ID.String()).
			Str("feedback_id", feedbackID.String()).
			Msg("failed to record notification, sending anyway")
		return nil
	}

	s.metrics.NotificationsRecorded.WithLabelValues(n.event).Inc()
	return record
}

func (s *service) publish(ctx context.Context, record *model.Notification) {
	if s.broker == nil {
		return
	}

	event := &model.NotificationEvent{
		ID:             uuid.New(),
		NotificationID: record.ID,
		UserID:         record.UserID,
		FeedbackID:     record.FeedbackID,
		Type:           "in_app_notification",
		Title:          record.Title,
		Content:        record.Message,
		CreatedAt:      record.CreatedAt,
	}
	if err := s.broker.Publish(ctx, messaging.ChannelNotifications, event); err != nil {
		log.Warn().Err(err).
			Str("notification_id", record.ID.String()).
			Msg("failed to publish in-app notification")
	}
}

func recoverTrigger(event string, feedback *model.Feedback) {
	if r := recover(); r != nil {
		ev := log.Error().Interface("panic", r).Str("event", event)
		if feedback != nil {
			ev = ev.Str("feedback_id", feedback.ID.String())
		}
		ev.Msg("notification trigger panicked")
	}
}

func excerpt(s string) string {
	r := []rune(s)
	if len(r) <= excerptLength {
		return s
	}
	return string(r[:excerptLength])
}

func (s *service) List(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Notification, error) {
	items, err := s.repo.List(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return items, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return count, nil
}

// Get returns the notification and marks it read.
func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*model.Notification, error) {
	n, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, mapErr(err)
	}

	if n.Status == model.NotificationStatusUnread {
		if err := s.repo.MarkRead(ctx, userID, id); err != nil {
			return nil, mapErr(err)
		}
		n.Status = model.NotificationStatusRead
	}
	return n, nil
}

func (s *service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return mapErr(s.repo.MarkRead(ctx, userID, id))
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return n, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return mapErr(s.repo.Delete(ctx, userID, id))
}

func (s *service) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.DeleteAll(ctx, userID)
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return n, nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("notification", nil)
	default:
		return apperrors.Internal(err)
	}
}
