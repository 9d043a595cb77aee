package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// AuthFailure is the entry-point body for rejected or missing credentials.
// The (code, message) pair is always a stable classification, never an
// internal defect.
func AuthFailure(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":      code,
			"message":   message,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"path":      c.Request.URL.Path,
		},
	})
}

func Unauthorized(c *gin.Context, code string, message string) {
	if code == "" {
		code = "UNAUTHORIZED"
		message = "Authentication required"
	}
	AuthFailure(c, http.StatusUnauthorized, code, message)
}
