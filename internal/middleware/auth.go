package middleware

import (
	"log"
	"strings"
	"time"

	"authgate/internal/pkg/token"

	"github.com/gin-gonic/gin"
)

// Context keys set by Authenticate.
const (
	CtxUsernameKey    = "username"
	CtxAuthoritiesKey = "authorities"

	ctxAuthErrCodeKey    = "auth_error_code"
	ctxAuthErrMessageKey = "auth_error_message"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer"
)

// Authenticate turns a bearer credential into a security context. It never
// writes a response and never aborts: requests without a credential continue
// unauthenticated, rejected credentials continue with the failure recorded
// for the downstream authorization stages. This keeps public routes working
// even when a stale token is attached.
func Authenticate(codec *token.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				log.Printf("auth middleware panic recovered path=%s: %v", c.Request.URL.Path, recovered)
				reject(c, "AUTHENTICATION_ERROR", "Authentication error")
			}
			c.Next()
		}()

		raw, ok := bearerToken(c)
		if !ok {
			return
		}

		identity, err := codec.VerifyAccessToken(raw, time.Now())
		if err != nil {
			code, message := "AUTHENTICATION_ERROR", "Authentication error"
			if verr, isVerify := err.(*token.VerifyError); isVerify {
				code, message = verr.Kind.Code(), verr.Kind.Message()
			}
			log.Printf("auth rejected path=%s code=%s", c.Request.URL.Path, code)
			reject(c, code, message)
			return
		}

		c.Set(CtxUsernameKey, identity.Subject)
		c.Set(CtxAuthoritiesKey, identity.Authorities)
	}
}

// bearerToken extracts the credential from the Authorization header. A
// missing header or a non-Bearer scheme means "no credential", not a failure.
func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader(authorizationHeader)
	if h == "" {
		return "", false
	}

	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], bearerPrefix) {
		return "", false
	}

	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}

// reject clears any partially-set identity and records the failure as
// request-scoped metadata for the entry-point responder.
func reject(c *gin.Context, code, message string) {
	c.Set(CtxUsernameKey, "")
	c.Set(CtxAuthoritiesKey, []string(nil))
	c.Set(ctxAuthErrCodeKey, code)
	c.Set(ctxAuthErrMessageKey, message)
}

// RecordedFailure returns the (code, message) pair recorded by Authenticate,
// empty when the request simply carried no credential.
func RecordedFailure(c *gin.Context) (code, message string) {
	return c.GetString(ctxAuthErrCodeKey), c.GetString(ctxAuthErrMessageKey)
}
