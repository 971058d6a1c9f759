package notification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/feedback-api/internal/handler"
	"github.com/jwalitptl/feedback-api/internal/model"
	apperrors "github.com/jwalitptl/feedback-api/pkg/errors"
)

type fakeService struct {
	owner     uuid.UUID
	items     map[uuid.UUID]*model.Notification
	lastLimit int
}

func (f *fakeService) find(userID, id uuid.UUID) (*model.Notification, error) {
	n, ok := f.items[id]
	if !ok || n.UserID != userID {
		return nil, apperrors.NotFound("notification", nil)
	}
	return n, nil
}

func (f *fakeService) List(_ context.Context, _ uuid.UUID, limit int) ([]*model.Notification, error) {
	f.lastLimit = limit
	return nil, nil
}

func (f *fakeService) UnreadCount(context.Context, uuid.UUID) (int, error) { return 2, nil }

func (f *fakeService) Get(_ context.Context, userID, id uuid.UUID) (*model.Notification, error) {
	return f.find(userID, id)
}

func (f *fakeService) MarkRead(_ context.Context, userID, id uuid.UUID) error {
	_, err := f.find(userID, id)
	return err
}

func (f *fakeService) MarkAllRead(context.Context, uuid.UUID) (int64, error) { return 4, nil }

func (f *fakeService) Delete(_ context.Context, userID, id uuid.UUID) error {
	_, err := f.find(userID, id)
	return err
}

func (f *fakeService) DeleteAll(context.Context, uuid.UUID) (int64, error) { return 7, nil }

func setup() (*gin.Engine, *fakeService, uuid.UUID, uuid.UUID) {
	gin.SetMode(gin.TestMode)
	owner := uuid.New()
	mine := &model.Notification{Base: model.Base{ID: uuid.New()}, UserID: owner}
	theirs := &model.Notification{Base: model.Base{ID: uuid.New()}, UserID: uuid.New()}
	svc := &fakeService{owner: owner, items: map[uuid.UUID]*model.Notification{mine.ID: mine, theirs.ID: theirs}}

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(handler.ContextUserID, owner) })
	NewHandler(svc).RegisterRoutes(r.Group(""))
	return r, svc, mine.ID, theirs.ID
}

func call(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestOwnership(t *testing.T) {
	r, _, mine, theirs := setup()

	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/notifications/"+mine.String()).Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/notifications/"+theirs.String()).Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodPost, "/notifications/"+theirs.String()+"/read").Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodDelete, "/notifications/"+theirs.String()).Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodDelete, "/notifications/"+mine.String()).Code)
}

func TestBulkOperations(t *testing.T) {
	r, _, _, _ := setup()

	w := call(r, http.MethodPost, "/notifications/read-all")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"updated":4`)

	w = call(r, http.MethodDelete, "/notifications")
	assert.Contains(t, w.Body.String(), `"deleted":7`)

	w = call(r, http.MethodGet, "/notifications/unread-count")
	assert.Contains(t, w.Body.String(), `"unread_count":2`)
}

func TestListLimit(t *testing.T) {
	r, svc, _, _ := setup()

	call(r, http.MethodGet, "/notifications")
	assert.Equal(t, defaultLimit, svc.lastLimit)

	call(r, http.MethodGet, "/notifications?limit=5")
	assert.Equal(t, 5, svc.lastLimit)

	call(r, http.MethodGet, "/notifications?limit=100000")
	assert.Equal(t, maxLimit, svc.lastLimit)
}
