package feedback

import (
	"context"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/feedback-api/internal/handler"
	"github.com/jwalitptl/feedback-api/internal/model"
	"github.com/jwalitptl/feedback-api/internal/storage"
)

const attachmentsField = "attachments"

type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, req *model.CreateFeedbackRequest, uploads []storage.Upload) (*model.Feedback, error)
	List(ctx context.Context, actorID uuid.UUID, filter *model.FeedbackFilter) ([]*model.Feedback, error)
	Get(ctx context.Context, actorID, id uuid.UUID) (*model.Feedback, error)
	Update(ctx context.Context, actorID, id uuid.UUID, req *model.UpdateFeedbackRequest, uploads []storage.Upload) (*model.Feedback, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	CreateResponse(ctx context.Context, actorID, feedbackID uuid.UUID, req *model.CreateResponseRequest) (*model.Response, error)
	Dashboard(ctx context.Context, actorID uuid.UUID) (*model.Dashboard, error)
}

// FileLocator resolves a stored attachment to a path on disk.
type FileLocator interface {
	Path(rel string) (string, error)
}

type Handler struct {
	svc   Service
	files FileLocator
}

func NewHandler(svc Service, files FileLocator) *Handler {
	return &Handler{svc: svc, files: files}
}

// RegisterRoutes mounts the feedback routes. adminOnly guards responding.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	r.GET("/dashboard", h.Dashboard)

	feedback := r.Group("/feedback")
	{
		feedback.POST("", h.Create)
		feedback.GET("", h.List)
		feedback.GET("/:id", h.Get)
		feedback.PUT("/:id", h.Update)
		feedback.DELETE("/:id", h.Delete)
		feedback.GET("/:id/attachments/:index", h.DownloadAttachment)
		feedback.POST("/:id/responses", adminOnly, h.CreateResponse)
	}
}

func (h *Handler) Create(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}

	var req model.CreateFeedbackRequest
	if err := c.ShouldBind(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	uploads, err := uploadsOf(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	fb, err := h.svc.Create(c.Request.Context(), userID, &req, uploads)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(fb))
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}

	var filter model.FeedbackFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	items, err := h.svc.List(c.Request.Context(), userID, &filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(items))
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

	fb, err := h.svc.Get(c.Request.Context(), userID, id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(fb))
}

func (h *Handler) Update(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateFeedbackRequest
	if err := c.ShouldBind(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	uploads, err := uploadsOf(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	fb, err := h.svc.Update(c.Request.Context(), userID, id, &req, uploads)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(fb))
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
	c.JSON(http.StatusOK, handler.NewSuccessResponse("feedback deleted"))
}

func (h *Handler) CreateResponse(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	var req model.CreateResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	resp, err := h.svc.CreateResponse(c.Request.Context(), userID, id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(resp))
}

// DownloadAttachment serves one attachment to whoever may view the feedback.
func (h *Handler) DownloadAttachment(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid index"))
		return
	}

	fb, err := h.svc.Get(c.Request.Context(), userID, id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if index >= len(fb.Attachments) {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("attachment not found"))
		return
	}

	path, err := h.files.Path(fb.Attachments[index])
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

func (h *Handler) Dashboard(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}

	d, err := h.svc.Dashboard(c.Request.Context(), userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(d))
}

// uploadsOf returns the files of a multipart request; other requests carry none.
func uploadsOf(c *gin.Context) ([]storage.Upload, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	files := form.File[attachmentsField]
	uploads := make([]storage.Upload, 0, len(files))
	for _, fh := range files {
		uploads = append(uploads, storage.FromMultipart(fh))
	}
	return uploads, nil
}
