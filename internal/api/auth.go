package api

import (
	"errors"
	"net/http"
	"time"

	"membership-platform/backend/internal/models"
	"membership-platform/backend/internal/service"
	apperrors "membership-platform/backend/pkg/errors"
	"membership-platform/backend/pkg/logger"
	"membership-platform/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	service      *service.UserService
	cookieName   string
	tokenExpiry  time.Duration
	secureCookie bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *service.UserService, cookieName string, tokenExpiry time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		service:      service,
		cookieName:   cookieName,
		tokenExpiry:  tokenExpiry,
		secureCookie: secureCookie,
	}
}

// RegisterRoutes registers signup, login and me. requireAuth guards me.
func (h *AuthHandler) RegisterRoutes(group *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	auth := group.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.GET("/me", requireAuth, h.Me)
	}
}

// Signup handles user registration
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", "Invalid request format").WithDetails(err.Error()))
		c.Abort()
		return
	}

	user, token, err := h.service.CreateUser(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			c.Error(apperrors.NewConflictError("USER_EXISTS", "A user with this email already exists"))
		} else {
			c.Error(apperrors.NewInternalServerError("INTERNAL_ERROR", "Failed to create user account").Wrap(err))
		}
		c.Abort()
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusCreated, gin.H{
		"user":  user.ToResponse(),
		"token": token,
	})
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", "Invalid request format").WithDetails(err.Error()))
		c.Abort()
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrBadLogin) {
			c.Error(apperrors.NewUnauthorizedError("INVALID_CREDENTIALS", "Invalid email or password"))
		} else {
			c.Error(apperrors.NewInternalServerError("INTERNAL_ERROR", "An error occurred during login").Wrap(err))
		}
		c.Abort()
		return
	}

	logger.FromGin(c).Info("User logged in", "user_id", user.ID)

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"user":  user.ToResponse(),
		"token": token,
	})
}

// Me returns the current authenticated user
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.Error(apperrors.NewUnauthorizedError("UNAUTHORIZED", "Authentication required"))
		c.Abort()
		return
	}

	user, err := h.service.GetUserByID(c.Request.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.Error(apperrors.NewNotFoundError("USER_NOT_FOUND", "User not found"))
		} else {
			c.Error(apperrors.NewInternalServerError("INTERNAL_ERROR", "Failed to retrieve user").Wrap(err))
		}
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, user.ToResponse())
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, int(h.tokenExpiry.Seconds()), "/", "", h.secureCookie, true)
}
