package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/feedback-api/internal/model"
	"github.com/jwalitptl/feedback-api/internal/repository"
	"github.com/jwalitptl/feedback-api/internal/service/notification"
	"github.com/jwalitptl/feedback-api/internal/storage"
	apperrors "github.com/jwalitptl/feedback-api/pkg/errors"
)

const (
	dashboardFeedbackLimit     = 5
	dashboardNotificationLimit = 10
)

// Notifier fires the notification triggers. It never fails.
type Notifier interface {
	NotifyFeedbackCreated(ctx context.Context, feedback *model.Feedback, author *model.User) []notification.Delivery
	NotifyResponseCreated(ctx context.Context, response *model.Response, feedback *model.Feedback, responder *model.User) []notification.Delivery
}

// Inbox is the read side of notifications used by the dashboard.
type Inbox interface {
	List(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type AttachmentStore interface {
	Validate(u storage.Upload) error
	Save(feedbackID uuid.UUID, uploads []storage.Upload) ([]string, error)
	Remove(paths []string) []error
}

type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, req *model.CreateFeedbackRequest, uploads []storage.Upload) (*model.Feedback, error)
	List(ctx context.Context, actorID uuid.UUID, filter *model.FeedbackFilter) ([]*model.Feedback, error)
	Get(ctx context.Context, actorID, id uuid.UUID) (*model.Feedback, error)
	Update(ctx context.Context, actorID, id uuid.UUID, req *model.UpdateFeedbackRequest, uploads []storage.Upload) (*model.Feedback, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	CreateResponse(ctx context.Context, actorID, feedbackID uuid.UUID, req *model.CreateResponseRequest) (*model.Response, error)
	Dashboard(ctx context.Context, actorID uuid.UUID) (*model.Dashboard, error)
}

type service struct {
	repo     repository.FeedbackRepository
	users    repository.UserRepository
	store    AttachmentStore
	notifier Notifier
	inbox    Inbox
}

func NewService(repo repository.FeedbackRepository, users repository.UserRepository,
	store AttachmentStore, notifier Notifier, inbox Inbox) Service {
	return &service{
		repo:     repo,
		users:    users,
		store:    store,
		notifier: notifier,
		inbox:    inbox,
	}
}

func (s *service) actor(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(err)
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

// Create stores a patient's feedback and then notifies administrators. Every
// attachment is checked before anything is written.
func (s *service) Create(ctx context.Context, actorID uuid.UUID, req *model.CreateFeedbackRequest, uploads []storage.Upload) (*model.Feedback, error) {
	author, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if author.Role != model.RolePatient {
		return nil, apperrors.Forbidden("only patients can submit feedback")
	}

	if err := validateFields(req.Category, req.Content, req.Rating); err != nil {
		return nil, err
	}
	if err := s.validateUploads(uploads); err != nil {
		return nil, err
	}

	f := &model.Feedback{
		Base:        model.Base{ID: uuid.New()},
		PatientID:   author.ID,
		Category:    req.Category,
		Content:     strings.TrimSpace(req.Content),
		Rating:      req.Rating,
		Status:      model.FeedbackStatusPending,
		Attachments: []string{},
	}

	if len(uploads) > 0 {
		paths, err := s.store.Save(f.ID, uploads)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to store attachments: %w", err))
		}
		f.Attachments = paths
	}

	if err := s.repo.Create(ctx, f); err != nil {
		s.store.Remove(f.Attachments)
		return nil, apperrors.Internal(err)
	}

	log.Info().
		Str("feedback_id", f.ID.String()).
		Str("user_id", author.ID.String()).
		Int("attachments", len(f.Attachments)).
		Msg("feedback created")

	s.notifier.NotifyFeedbackCreated(context.WithoutCancel(ctx), f, author)
	return f, nil
}

func (s *service) List(ctx context.Context, actorID uuid.UUID, filter *model.FeedbackFilter) ([]*model.Feedback, error) {
	user, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if filter == nil {
		filter = &model.FeedbackFilter{}
	}
	if !user.IsAdmin() {
		filter.PatientID = &user.ID
	} else {
		filter.PatientID = nil
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return items, nil
}

func (s *service) Get(ctx context.Context, actorID, id uuid.UUID) (*model.Feedback, error) {
	user, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	f, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && f.PatientID != user.ID {
		return nil, apperrors.Forbidden("you can only view your own feedback")
	}

	f.Responses, err = s.repo.ListResponses(ctx, f.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return f, nil
}

// Update lets the owner edit a feedback; new attachments are appended.
func (s *service) Update(ctx context.Context, actorID, id uuid.UUID, req *model.UpdateFeedbackRequest, uploads []storage.Upload) (*model.Feedback, error) {
	f, err := s.loadOwned(ctx, actorID, id, "update")
	if err != nil {
		return nil, err
	}

	if req.Category != "" {
		f.Category = req.Category
	}
	if strings.TrimSpace(req.Content) != "" {
		f.Content = strings.TrimSpace(req.Content)
	}
	if req.Rating != nil {
		f.Rating = *req.Rating
	}
	if err := validateFields(f.Category, f.Content, f.Rating); err != nil {
		return nil, err
	}
	if err := s.validateUploads(uploads); err != nil {
		return nil, err
	}

	var added []string
	if len(uploads) > 0 {
		added, err = s.store.Save(f.ID, uploads)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to store attachments: %w", err))
		}
		f.Attachments = append(f.Attachments, added...)
	}

	if err := s.repo.Update(ctx, f); err != nil {
		s.store.Remove(added)
		return nil, mapErr(err)
	}
	return f, nil
}

// Delete removes the row first; attachment files are then removed best-effort.
func (s *service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	f, err := s.loadOwned(ctx, actorID, id, "delete")
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, f.ID); err != nil {
		return mapErr(err)
	}

	if errs := s.store.Remove(f.Attachments); len(errs) > 0 {
		log.Warn().
			Str("feedback_id", f.ID.String()).
			Int("failed", len(errs)).
			Msg("some attachments could not be removed")
	}
	return nil
}

// CreateResponse records an administrator's reply, optionally moves the
// feedback to a new status, and notifies the owner.
func (s *service) CreateResponse(ctx context.Context, actorID, feedbackID uuid.UUID, req *model.CreateResponseRequest) (*model.Response, error) {
	admin, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !admin.IsAdmin() {
		return nil, apperrors.Forbidden("only administrators can respond to feedback")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperrors.BadRequest("response content is required", nil)
	}
	if req.Status != "" && !validStatus(req.Status) {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid status %q", req.Status), nil)
	}

	f, err := s.load(ctx, feedbackID)
	if err != nil {
		return nil, err
	}

	resp := &model.Response{
		Base:       model.Base{ID: uuid.New()},
		FeedbackID: f.ID,
		AdminID:    &admin.ID,
		Content:    content,
	}
	if err := s.repo.CreateResponse(ctx, resp, req.Status); err != nil {
		return nil, mapErr(err)
	}
	if req.Status != "" {
		f.Status = req.Status
	}

	log.Info().
		Str("feedback_id", f.ID.String()).
		Str("response_id", resp.ID.String()).
		Str("status", string(f.Status)).
		Msg("feedback response created")

	s.notifier.NotifyResponseCreated(context.WithoutCancel(ctx), resp, f, admin)
	return resp, nil
}

func (s *service) Dashboard(ctx context.Context, actorID uuid.UUID) (*model.Dashboard, error) {
	items, err := s.List(ctx, actorID, &model.FeedbackFilter{Limit: dashboardFeedbackLimit})
	if err != nil {
		return nil, err
	}
	for _, f := range items {
		if f.Responses, err = s.repo.ListResponses(ctx, f.ID); err != nil {
			return nil, apperrors.Internal(err)
		}
	}

	notifications, err := s.inbox.List(ctx, actorID, dashboardNotificationLimit)
	if err != nil {
		return nil, err
	}
	unread, err := s.inbox.UnreadCount(ctx, actorID)
	if err != nil {
		return nil, err
	}

	return &model.Dashboard{
		Feedback:      items,
		Notifications: notifications,
		UnreadCount:   unread,
	}, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*model.Feedback, error) {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return f, nil
}

func (s *service) loadOwned(ctx context.Context, actorID, id uuid.UUID, action string) (*model.Feedback, error) {
	f, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.PatientID != actorID {
		return nil, apperrors.Forbidden(fmt.Sprintf("you can only %s your own feedback", action))
	}
	return f, nil
}

func (s *service) validateUploads(uploads []storage.Upload) error {
	for _, u := range uploads {
		if err := s.store.Validate(u); err != nil {
			return apperrors.BadRequest(err.Error(), err)
		}
	}
	return nil
}

func validateFields(category model.FeedbackCategory, content string, rating int) error {
	switch category {
	case model.CategoryComplaint, model.CategorySuggestion, model.CategoryPraise:
	default:
		return apperrors.BadRequest(fmt.Sprintf("invalid category %q", category), nil)
	}
	if strings.TrimSpace(content) == "" {
		return apperrors.BadRequest("content is required", nil)
	}
	if rating < model.MinRating || rating > model.MaxRating {
		return apperrors.BadRequest("rating must be between 1 and 5", nil)
	}
	return nil
}

func validStatus(status model.FeedbackStatus) bool {
	switch status {
	case model.FeedbackStatusPending, model.FeedbackStatusInProgress, model.FeedbackStatusResolved:
		return true
	}
	return false
}

func mapErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("feedback", nil)
	}
	return apperrors.Internal(err)
}
