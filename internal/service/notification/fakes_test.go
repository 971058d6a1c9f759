package notification

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/feedback-api/internal/model"
	"github.com/jwalitptl/feedback-api/internal/repository"
)

type fakeNotificationRepo struct {
	mu        sync.Mutex
	items     map[uuid.UUID]*model.Notification
	createErr error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{items: map[uuid.UUID]*model.Notification{}}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.items[n.ID] = &cp
	return nil
}

func (r *fakeNotificationRepo) owned(userID, id uuid.UUID) (*model.Notification, error) {
	n, ok := r.items[id]
	if !ok || n.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return n, nil
}

func (r *fakeNotificationRepo) Get(_ context.Context, userID, id uuid.UUID) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, err := r.owned(userID, id)
	if err != nil {
		return nil, err
	}
	cp := *n
	return &cp, nil
}

func (r *fakeNotificationRepo) forUser(userID uuid.UUID) []*model.Notification {
	var out []*model.Notification
	for _, n := range r.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeNotificationRepo) List(_ context.Context, userID uuid.UUID, limit int) ([]*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.forUser(userID)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.forUser(userID) {
		if n.Status == model.NotificationStatusUnread {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, err := r.owned(userID, id)
	if err != nil {
		return err
	}
	n.Status = model.NotificationStatusRead
	return nil
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.forUser(userID) {
		if n.Status == model.NotificationStatusUnread {
			n.Status = model.NotificationStatusRead
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.owned(userID, id); err != nil {
		return err
	}
	delete(r.items, id)
	return nil
}

func (r *fakeNotificationRepo) DeleteAll(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.forUser(userID) {
		delete(r.items, n.ID)
		count++
	}
	return count, nil
}

func (r *fakeNotificationRepo) all() []*model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Notification, 0, len(r.items))
	for _, n := range r.items {
		out = append(out, n)
	}
	return out
}

type fakeUserRepo struct {
	users    map[uuid.UUID]*model.User
	profiles map[uuid.UUID]*model.Profile
	listErr  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*model.User{}, profiles: map[uuid.UUID]*model.Profile{}}
}

func (r *fakeUserRepo) add(role model.Role, name string, profile *model.Profile) *model.User {
	u := &model.User{
		Base:     model.Base{ID: uuid.New(), CreatedAt: time.Now()},
		Email:    name + "@hospital.org",
		Username: name,
		Role:     role,
	}
	r.users[u.ID] = u
	if profile != nil {
		profile.UserID = u.ID
		r.profiles[u.ID] = profile
	}
	return u
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User, p *model.Profile) error {
	r.users[u.ID] = u
	r.profiles[u.ID] = p
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) UsernameExists(_ context.Context, username string) (bool, error) {
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*model.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateLanguage(_ context.Context, id uuid.UUID, language string) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PreferredLanguage = language
	return nil
}

func (r *fakeUserRepo) GetProfile(_ context.Context, userID uuid.UUID) (*model.Profile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, p *model.Profile) error {
	r.profiles[p.UserID] = p
	return nil
}

func (r *fakeUserRepo) PhoneTaken(_ context.Context, phone string, except uuid.UUID) (bool, error) {
	for id, p := range r.profiles {
		if id != except && p.PhoneNumber() == phone {
			return true, nil
		}
	}
	return false, nil
}

type fakeBroker struct {
	mu        sync.Mutex
	published []interface{}
	err       error
}

func (b *fakeBroker) Publish(_ context.Context, _ string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, message)
	return b.err
}

func (b *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBroker) Close() error { return nil }
