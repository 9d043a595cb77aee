package middleware

import (
	"net/http"
	"slices"

	"authgate/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireAuth short-circuits requests that did not establish an identity,
// rendering the failure recorded by Authenticate (or the plain UNAUTHORIZED
// default when no credential was presented at all).
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxUsernameKey) == "" {
			code, message := RecordedFailure(c)
			response.Unauthorized(c, code, message)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAuthority ensures the authenticated user holds the given authority.
func RequireAuthority(authority string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxUsernameKey) == "" {
			code, message := RecordedFailure(c)
			response.Unauthorized(c, code, message)
			c.Abort()
			return
		}

		if !slices.Contains(c.GetStringSlice(CtxAuthoritiesKey), authority) {
			response.AuthFailure(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminOnly requires the ROLE_ADMIN authority.
func AdminOnly() gin.HandlerFunc {
	return RequireAuthority("ROLE_ADMIN")
}
