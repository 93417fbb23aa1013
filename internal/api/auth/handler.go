package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fitstack/gymchat/internal/api/middleware"
	"github.com/fitstack/gymchat/internal/domain"
	"github.com/fitstack/gymchat/internal/service"
)

// Handler handles authentication API requests
type Handler struct {
	auth *service.AuthService
}

// NewHandler creates a new auth handler
func NewHandler(auth *service.AuthService) *Handler {
	return &Handler{auth: auth}
}

// RegisterRoutes registers the public auth routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/guest", h.Guest)
	r.POST("/guest/join", h.GuestJoin)
}

// RegisterProtectedRoutes registers routes that require a bearer token
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.GET("/me", h.Me)
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type joinRequest struct {
	SessionCode string `json:"session_code" binding:"required"`
}

type userPayload struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	IsGuest   bool      `json:"is_guest"`
	CreatedAt time.Time `json:"created_at"`
}

type tokenPayload struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        userPayload `json:"user"`
	SessionCode string      `json:"session_code,omitempty"`
}

// Register creates a new account
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	result, err := h.auth.Register(c.Request.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTokenPayload(result))
}

// Login authenticates an existing account
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTokenPayload(result))
}

// Guest creates a guest session with a shareable code
func (h *Handler) Guest(c *gin.Context) {
	result, err := h.auth.CreateGuestSession(c.Request.Context())
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTokenPayload(result))
}

// GuestJoin resumes a guest session from its code
func (h *Handler) GuestJoin(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	result, err := h.auth.JoinGuestSession(c.Request.Context(), req.SessionCode)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTokenPayload(result))
}

// Me returns the authenticated caller
func (h *Handler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, toUserPayload(user))
}

func toUserPayload(user *domain.User) userPayload {
	return userPayload{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		IsGuest:   user.IsGuest,
		CreatedAt: user.CreatedAt,
	}
}

func toTokenPayload(result *service.TokenResult) tokenPayload {
	return tokenPayload{
		AccessToken: result.Token,
		TokenType:   "bearer",
		ExpiresAt:   result.ExpiresAt,
		User:        toUserPayload(result.User),
		SessionCode: result.SessionCode,
	}
}

func writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
	case errors.Is(err, domain.ErrUsernameExists):
		c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found or expired"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
