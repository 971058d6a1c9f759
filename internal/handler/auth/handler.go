package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/feedback-api/internal/handler"
	"github.com/jwalitptl/feedback-api/internal/model"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*model.TokenResponse, error)
}

type Registrar interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
}

type Handler struct {
	auth  Authenticator
	users Registrar
}

func NewHandler(auth Authenticator, users Registrar) *Handler {
	return &Handler{auth: auth, users: users}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(user))
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	tokens, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}
