package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"authgate/internal/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec() *token.Codec {
	return token.New(token.NewKeys("test-access-secret-32-chars-long!", "test-refresh-secret-32-chars-lng!"), time.Hour, 24*time.Hour)
}

func newTestRouter(codec *token.Codec) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(codec))

	r.GET("/public", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": c.GetString(CtxUsernameKey)})
	})

	protected := r.Group("/")
	protected.Use(RequireAuth())
	protected.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"username":    c.GetString(CtxUsernameKey),
			"authorities": c.GetStringSlice(CtxAuthoritiesKey),
		})
	})

	admin := r.Group("/admin")
	admin.Use(AdminOnly())
	admin.GET("/users", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return r
}

func doRequest(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateValidToken(t *testing.T) {
	codec := newTestCodec()
	r := newTestRouter(codec)

	tok, err := codec.IssueAccessToken("marina", []string{"ROLE_USER"}, time.Now())
	require.NoError(t, err)

	w := doRequest(r, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "marina")
	assert.Contains(t, w.Body.String(), "ROLE_USER")
}

func TestAuthenticateNoHeader(t *testing.T) {
	r := newTestRouter(newTestCodec())

	w := doRequest(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
	assert.Contains(t, w.Body.String(), "Authentication required")
}

func TestAuthenticateWrongScheme(t *testing.T) {
	r := newTestRouter(newTestCodec())

	// Non-Bearer credentials mean "no credential", so the default
	// UNAUTHORIZED is rendered, not a token failure.
	w := doRequest(r, "Basic dGVzdA==")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
}

func TestAuthenticateMalformedToken(t *testing.T) {
	r := newTestRouter(newTestCodec())

	w := doRequest(r, "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_MALFORMED")
}

func TestAuthenticateExpiredToken(t *testing.T) {
	codec := newTestCodec()
	r := newTestRouter(codec)

	tok, err := codec.IssueAccessToken("marina", []string{"ROLE_USER"}, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	w := doRequest(r, "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
}

func TestAuthenticateWrongKey(t *testing.T) {
	codec := newTestCodec()
	other := token.New(token.NewKeys("other-access-secret-32-chars-lng!", "other-refresh-secret-32-chars-l!"), time.Hour, 24*time.Hour)
	r := newTestRouter(codec)

	tok, err := other.IssueAccessToken("marina", []string{"ROLE_USER"}, time.Now())
	require.NoError(t, err)

	w := doRequest(r, "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_INVALID")
}

func TestAuthenticateRefreshTokenRejectedOnProtectedRoute(t *testing.T) {
	codec := newTestCodec()
	r := newTestRouter(codec)

	tok, err := codec.IssueRefreshToken("marina", time.Now())
	require.NoError(t, err)

	w := doRequest(r, "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_INVALID")
}

func TestPublicRouteIgnoresBadToken(t *testing.T) {
	r := newTestRouter(newTestCodec())

	// A rejected credential must not break genuinely public routes.
	req := httptest.NewRequest("GET", "/public", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuthorityForbidden(t *testing.T) {
	codec := newTestCodec()
	r := newTestRouter(codec)

	tok, err := codec.IssueAccessToken("marina", []string{"ROLE_USER"}, time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "FORBIDDEN")
}

func TestRequireAuthorityAllowed(t *testing.T) {
	codec := newTestCodec()
	r := newTestRouter(codec)

	tok, err := codec.IssueAccessToken("alex", []string{"ROLE_ADMIN", "ROLE_USER"}, time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
