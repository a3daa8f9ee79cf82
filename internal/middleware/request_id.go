package middleware

import (
	"crypto/rand"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

const (
	ContextRequestIDKey = "request_id"
	HeaderRequestID     = "X-Request-Id"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = newRequestID()
		}
		c.Writer.Header().Set(HeaderRequestID, reqID)
		c.Set(ContextRequestIDKey, reqID)
		c.Next()
	}
}

func newRequestID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
