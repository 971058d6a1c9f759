package notification

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/feedback-api/internal/handler"
	"github.com/jwalitptl/feedback-api/internal/model"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type Service interface {
	List(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Handler exposes the caller's own notifications. Ids belonging to someone
// else answer 404.
type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	n := r.Group("/notifications")
	{
		n.GET("", h.List)
		n.DELETE("", h.DeleteAll)
		n.GET("/unread-count", h.UnreadCount)
		n.POST("/read-all", h.MarkAllRead)
		n.GET("/:id", h.Get)
		n.POST("/:id/read", h.MarkRead)
		n.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}

	items, err := h.svc.List(c.Request.Context(), userID, handler.QueryLimit(c, defaultLimit, maxLimit))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(items))
}

func (h *Handler) UnreadCount(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}

	count, err := h.svc.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"unread_count": count}))
}

func (h *Handler) Get(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	n, err := h.svc.Get(c.Request.Context(), userID, id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(n))
}

func (h *Handler) MarkRead(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), userID, id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse("notification marked as read"))
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}

	updated, err := h.svc.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"updated": updated}))
}

func (h *Handler) Delete(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID, id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse("notification deleted"))
}

func (h *Handler) DeleteAll(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}

	deleted, err := h.svc.DeleteAll(c.Request.Context(), userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"deleted": deleted}))
}
