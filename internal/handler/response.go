package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jwalitptl/feedback-api/pkg/errors"
	pkgvalidator "github.com/jwalitptl/feedback-api/pkg/validator"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError writes err with the status its AppError carries. Internal
// errors are logged and never shown to the client.
func RespondError(c *gin.Context, err error) {
	status := apperrors.StatusCode(err)
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.FullPath()).
			Msg("request failed")
	}
	c.JSON(status, NewErrorResponse(apperrors.PublicMessage(err)))
}

// RespondBindError reports a request that failed binding or validation.
func RespondBindError(c *gin.Context, err error) {
	resp := NewErrorResponse("invalid request")
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Errors = pkgvalidator.Messages(verrs)
	} else {
		resp.Message = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

// CurrentUserID is the authenticated caller set by the auth middleware.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// MustUserID aborts with 401 when the caller is unknown.
func MustUserID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := CurrentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, NewErrorResponse("unauthorized"))
	}
	return id, ok
}

// ParamID parses a UUID path parameter, answering 400 when malformed.
func ParamID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// QueryLimit reads ?limit=, falling back to def and capping at max.
func QueryLimit(c *gin.Context, def, max int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
