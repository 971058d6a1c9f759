package feedback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/feedback-api/internal/model"
	"github.com/jwalitptl/feedback-api/internal/repository"
	"github.com/jwalitptl/feedback-api/internal/service/notification"
	"github.com/jwalitptl/feedback-api/internal/storage"
)

type fakeFeedbackRepo struct {
	items     map[uuid.UUID]*model.Feedback
	responses map[uuid.UUID][]*model.Response
	createErr error
}

func newFakeFeedbackRepo() *fakeFeedbackRepo {
	return &fakeFeedbackRepo{
		items:     map[uuid.UUID]*model.Feedback{},
		responses: map[uuid.UUID][]*model.Response{},
	}
}

func (r *fakeFeedbackRepo) Create(_ context.Context, f *model.Feedback) error {
	if r.createErr != nil {
		return r.createErr
	}
	f.CreatedAt = time.Now()
	f.UpdatedAt = f.CreatedAt
	r.items[f.ID] = f
	return nil
}

func (r *fakeFeedbackRepo) Get(_ context.Context, id uuid.UUID) (*model.Feedback, error) {
	f, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFeedbackRepo) Update(_ context.Context, f *model.Feedback) error {
	if _, ok := r.items[f.ID]; !ok {
		return repository.ErrNotFound
	}
	r.items[f.ID] = f
	return nil
}

func (r *fakeFeedbackRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.FeedbackStatus) error {
	f, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	f.Status = status
	return nil
}

func (r *fakeFeedbackRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	delete(r.responses, id)
	return nil
}

func (r *fakeFeedbackRepo) List(_ context.Context, filter *model.FeedbackFilter) ([]*model.Feedback, error) {
	var out []*model.Feedback
	for _, f := range r.items {
		if filter.PatientID != nil && f.PatientID != *filter.PatientID {
			continue
		}
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		if filter.Category != "" && f.Category != filter.Category {
			continue
		}
		out = append(out, f)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (r *fakeFeedbackRepo) Stats(context.Context, time.Time, time.Time) (*model.FeedbackStats, error) {
	return &model.FeedbackStats{}, nil
}

func (r *fakeFeedbackRepo) CreateResponse(_ context.Context, resp *model.Response, status model.FeedbackStatus) error {
	f, ok := r.items[resp.FeedbackID]
	if !ok {
		return repository.ErrNotFound
	}
	r.responses[f.ID] = append(r.responses[f.ID], resp)
	if status != "" {
		f.Status = status
	}
	return nil
}

func (r *fakeFeedbackRepo) ListResponses(_ context.Context, feedbackID uuid.UUID) ([]*model.Response, error) {
	return r.responses[feedbackID], nil
}

// fakeUsers only serves lookups by id.
type fakeUsers struct {
	repository.UserRepository
	users map[uuid.UUID]*model.User
}

func (r *fakeUsers) add(role model.Role, name string) *model.User {
	u := &model.User{Base: model.Base{ID: uuid.New()}, Username: name, Email: name + "@hospital.org", Role: role}
	r.users[u.ID] = u
	return u
}

func (r *fakeUsers) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

type fakeStore struct {
	saved   map[string]bool
	removed []string
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: map[string]bool{}}
}

func (s *fakeStore) Validate(u storage.Upload) error {
	switch strings.ToLower(filepath.Ext(u.Name())) {
	case ".jpg", ".jpeg", ".png", ".pdf":
	default:
		return storage.ErrUnsupportedType
	}
	if u.Size() > storage.DefaultMaxSize {
		return storage.ErrTooLarge
	}
	return nil
}

func (s *fakeStore) Save(feedbackID uuid.UUID, uploads []storage.Upload) ([]string, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	paths := make([]string, 0, len(uploads))
	for i, u := range uploads {
		p := fmt.Sprintf("%s/feedback_%s_%d%s", storage.AttachmentDir, feedbackID, i, filepath.Ext(u.Name()))
		s.saved[p] = true
		paths = append(paths, p)
	}
	return paths, nil
}

func (s *fakeStore) Remove(paths []string) []error {
	var errs []error
	for _, p := range paths {
		if !s.saved[p] {
			errs = append(errs, errors.New("missing "+p))
			continue
		}
		delete(s.saved, p)
		s.removed = append(s.removed, p)
	}
	return errs
}

type upload struct {
	name string
	size int64
}

func (u upload) Name() string { return u.name }
func (u upload) Size() int64  { return u.size }
func (u upload) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("data")), nil
}

type fakeNotifier struct {
	created   []*model.Feedback
	responded []*model.Response
	// ctxErrs holds ctx.Err() as seen by each trigger call.
	ctxErrs []error
}

func (n *fakeNotifier) NotifyFeedbackCreated(ctx context.Context, f *model.Feedback, _ *model.User) []notification.Delivery {
	n.created = append(n.created, f)
	n.ctxErrs = append(n.ctxErrs, ctx.Err())
	return nil
}

func (n *fakeNotifier) NotifyResponseCreated(ctx context.Context, r *model.Response, _ *model.Feedback, _ *model.User) []notification.Delivery {
	n.responded = append(n.responded, r)
	n.ctxErrs = append(n.ctxErrs, ctx.Err())
	return nil
}

type fakeInbox struct {
	items []*model.Notification
}

func (i *fakeInbox) List(_ context.Context, userID uuid.UUID, limit int) ([]*model.Notification, error) {
	var out []*model.Notification
	for _, n := range i.items {
		if n.UserID == userID && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (i *fakeInbox) UnreadCount(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, n := range i.items {
		if n.UserID == userID && n.Status == model.NotificationStatusUnread {
			count++
		}
	}
	return count, nil
}
