package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/feedback-api/internal/handler"
	apperrors "github.com/jwalitptl/feedback-api/pkg/errors"
)

// ErrorHandler answers requests whose handlers pushed errors with c.Error
// without writing a response themselves.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)
		for _, e := range c.Errors {
			log.Error().
				Err(e.Err).
				Str("request_id", requestID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Str("client_ip", c.ClientIP()).
				Interface("meta", e.Meta).
				Msg("Request error")
		}

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last().Err
		c.JSON(apperrors.StatusCode(lastErr), handler.NewErrorResponse(apperrors.PublicMessage(lastErr)))
	}
}
