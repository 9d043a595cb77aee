package auth

import (
	"errors"
	"net/http"

	"authgate/internal/middleware"
	"authgate/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
	users   UserRepositoryInterface
}

func NewHandler(service *Service, users UserRepositoryInterface) *Handler {
	return &Handler{service: service, users: users}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.POST("/auth/logout", h.Logout)
	protected.GET("/users/me", h.GetMe)
}

func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/users", h.ListUsers)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.AuthFailure(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Username or password is incorrect")
			return
		}
		response.Error(c, http.StatusInternalServerError, "LOGIN_FAILED", "Failed to log in")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":      "Login successful",
		"username":     result.Username,
		"accessToken":  result.Pair.AccessToken,
		"refreshToken": result.Pair.RefreshToken,
		"tokenType":    result.Pair.TokenType,
	})
}

func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingRefreshToken):
			response.Error(c, http.StatusBadRequest, "MISSING_REFRESH_TOKEN", "Refresh token not provided")
		case errors.Is(err, ErrInvalidRefreshToken):
			response.AuthFailure(c, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "The presented refresh token is not valid")
		case errors.Is(err, ErrRefreshTokenNotFound):
			response.AuthFailure(c, http.StatusUnauthorized, "REFRESH_TOKEN_NOT_FOUND", "Refresh token is no longer valid")
		default:
			response.Error(c, http.StatusInternalServerError, "REFRESH_FAILED", "Failed to refresh tokens")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"tokenType":    pair.TokenType,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	username := c.GetString(middleware.CtxUsernameKey)

	if err := h.service.Logout(c.Request.Context(), username); err != nil {
		if errors.Is(err, ErrMissingUsername) {
			response.Error(c, http.StatusBadRequest, "MISSING_USERNAME", "Username not provided")
			return
		}
		response.Error(c, http.StatusInternalServerError, "LOGOUT_FAILED", "Failed to log out")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Logout successful"})
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			response.Error(c, http.StatusConflict, "USERNAME_EXISTS", "This username is already taken")
			return
		}
		response.Error(c, http.StatusInternalServerError, "REGISTRATION_FAILED", "Failed to register user")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message":  "User registered successfully",
		"userId":   user.ID,
		"username": user.Username,
	})
}

func (h *Handler) GetMe(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"username":    c.GetString(middleware.CtxUsernameKey),
		"authorities": c.GetStringSlice(middleware.CtxAuthoritiesKey),
	})
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "Failed to list users")
		return
	}

	out := make([]gin.H, 0, len(users))
	for i := range users {
		out = append(out, gin.H{
			"id":          users[i].ID,
			"username":    users[i].Username,
			"email":       users[i].Email,
			"authorities": users[i].Authorities(),
		})
	}
	response.Success(c, http.StatusOK, gin.H{"users": out})
}
