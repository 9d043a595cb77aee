package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestLogger logs one line per request. Raw tokens and secrets never
// appear here; only usernames and classification codes do.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()

		authCode, _ := RecordedFailure(c)
		log.Printf(
			"request method=%s path=%s status=%d client_ip=%s username=%s auth_code=%s request_id=%s latency=%s",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			c.ClientIP(),
			c.GetString(CtxUsernameKey),
			authCode,
			requestID,
			time.Since(start),
		)
	}
}
