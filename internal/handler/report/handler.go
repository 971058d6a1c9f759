package report

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/feedback-api/internal/handler"
	"github.com/jwalitptl/feedback-api/internal/model"
	reportsvc "github.com/jwalitptl/feedback-api/internal/service/report"
	"github.com/jwalitptl/feedback-api/internal/storage"
)

const attachmentField = "attachment"

type Service interface {
	Create(ctx context.Context, authorID uuid.UUID, req *model.CreateReportRequest) (*model.Report, error)
	Compile(ctx context.Context, authorID uuid.UUID, req *model.CompileReportRequest, trigger string) (*model.Report, error)
	List(ctx context.Context, authorID uuid.UUID) ([]*model.Report, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Report, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReportStatus) (*model.Report, error)
	Attach(ctx context.Context, id uuid.UUID, upload storage.Upload) (*model.Report, error)
}

type FileLocator interface {
	Path(rel string) (string, error)
}

// Handler serves periodic reports. Every route is admin only; the router
// applies the role check.
type Handler struct {
	svc   Service
	files FileLocator
}

func NewHandler(svc Service, files FileLocator) *Handler {
	return &Handler{svc: svc, files: files}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reports := r.Group("/reports")
	{
		reports.POST("", h.Create)
		reports.POST("/compile", h.Compile)
		reports.GET("", h.List)
		reports.GET("/:id", h.Get)
		reports.PATCH("/:id/status", h.UpdateStatus)
		reports.PUT("/:id/attachment", h.Attach)
		reports.GET("/:id/attachment", h.DownloadAttachment)
	}
}

func (h *Handler) Create(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}

	var req model.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	r, err := h.svc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(r.View()))
}

func (h *Handler) Compile(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}

	var req model.CompileReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	r, err := h.svc.Compile(c.Request.Context(), userID, &req, reportsvc.TriggerManual)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(r.View()))
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := handler.MustUserID(c)
	if !ok {
		return
	}

	reports, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	views := make([]*model.ReportView, 0, len(reports))
	for _, r := range reports {
		views = append(views, r.View())
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(views))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	r, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(r.View()))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateReportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	r, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(r.View()))
}

// Attach replaces the report's file with the multipart "attachment" field.
func (h *Handler) Attach(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	fh, err := c.FormFile(attachmentField)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("attachment file is required"))
		return
	}

	r, err := h.svc.Attach(c.Request.Context(), id, storage.FromMultipart(fh))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(r.View()))
}

func (h *Handler) DownloadAttachment(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	r, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if r.Attachment == nil {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("report has no attachment"))
		return
	}

	path, err := h.files.Path(*r.Attachment)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}
