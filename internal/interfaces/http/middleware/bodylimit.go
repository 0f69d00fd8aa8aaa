package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joinville/accounts/internal/interfaces/http/dto"
)

// MinUploadBodySize fits the signed term and the photo document of a
// signature request
const MinUploadBodySize int64 = 3 << 20

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeTooLarge, "O tamanho da requisição excede o limite permitido.", GetRequestID(c)))
			return
		}

		// chunked bodies have no Content-Length
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
