package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/feedback-api/internal/handler"
)

// SizeLimitConfig bounds request sizes. Multipart requests get the larger
// upload limit so feedback can carry attachments.
type SizeLimitConfig struct {
	MaxBodySize   int64
	MaxUploadSize int64
	MaxHeaderSize int
}

func DefaultSizeLimitConfig() SizeLimitConfig {
	return SizeLimitConfig{
		MaxBodySize:   1 << 20,  // 1MB
		MaxUploadSize: 32 << 20, // 32MB
		MaxHeaderSize: 1 << 14,  // 16KB
	}
}

func SizeLimit(config SizeLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := config.MaxBodySize
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			limit = config.MaxUploadSize
		}

		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				handler.NewErrorResponse(fmt.Sprintf("request body exceeds %d bytes", limit)))
			return
		}

		headerSize := 0
		for name, values := range c.Request.Header {
			headerSize += len(name)
			for _, value := range values {
				headerSize += len(value)
			}
		}
		if headerSize > config.MaxHeaderSize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				handler.NewErrorResponse(fmt.Sprintf("request headers exceed %d bytes", config.MaxHeaderSize)))
			return
		}

		// Chunked bodies carry no length, so cap the reader as well.
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
