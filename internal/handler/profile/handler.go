package profile

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/feedback-api/internal/handler"
	"github.com/jwalitptl/feedback-api/internal/model"
)

type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdateProfileRequest) (*model.Profile, error)
	GetSettings(ctx context.Context, userID uuid.UUID) (*model.Settings, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, req *model.UpdateSettingsRequest) (*model.Settings, error)
}

// Handler serves the caller's own profile and display settings.
type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/profile", h.GetProfile)
	r.PUT("/profile", h.UpdateProfile)
	r.GET("/settings", h.GetSettings)
	r.PUT("/settings", h.UpdateSettings)
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}

	profile, err := h.svc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(profile))
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}

	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	profile, err := h.svc.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(profile))
}

func (h *Handler) GetSettings(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}

	settings, err := h.svc.GetSettings(c.Request.Context(), userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(settings))
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}

	var req model.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	settings, err := h.svc.UpdateSettings(c.Request.Context(), userID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(settings))
}
