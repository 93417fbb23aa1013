package chat

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fitstack/gymchat/internal/api/middleware"
	"github.com/fitstack/gymchat/internal/domain"
	"github.com/fitstack/gymchat/internal/repository"
	"github.com/fitstack/gymchat/internal/service"
)

// Handler handles chat and conversation API requests
type Handler struct {
	chat          *service.ChatService
	conversations *repository.ConversationRepository
}

// NewHandler creates a new chat handler
func NewHandler(chat *service.ChatService, conversations *repository.ConversationRepository) *Handler {
	return &Handler{chat: chat, conversations: conversations}
}

// RegisterRoutes registers the bearer-authenticated chat routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/chat", h.Chat)
	r.GET("/conversations", h.ListConversations)
	r.POST("/conversations", h.CreateConversation)
	r.GET("/conversations/:id/history", h.ConversationHistory)
	r.PUT("/conversations/:id", h.UpdateTitle)
	r.DELETE("/conversations/:id", h.DeleteConversation)
	r.GET("/history", h.LegacyHistory)
	r.DELETE("/history", h.ClearHistory)
}

// Chat handles one chat message
func (h *Handler) Chat(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.chat.Chat(c.Request.Context(), user, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListConversations returns the caller's conversations, most recent first
func (h *Handler) ListConversations(c *gin.Context) {
	user := middleware.CurrentUser(c)

	summaries, err := h.conversations.List(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, summaries)
}

type createConversationRequest struct {
	Title string `json:"title"`
}

// CreateConversation starts an empty conversation
func (h *Handler) CreateConversation(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	conv, err := h.conversations.Create(c.Request.Context(), user.ID, req.Title)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation_id": conv.ID, "title": conv.Title})
}

// ConversationHistory returns a conversation's messages, oldest first
func (h *Handler) ConversationHistory(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}

	messages, err := h.conversations.GetHistory(c.Request.Context(), user.ID, id, 50)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

type updateTitleRequest struct {
	Title string `json:"title" binding:"required"`
}

// UpdateTitle renames a conversation
func (h *Handler) UpdateTitle(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}

	var req updateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := h.conversations.UpdateTitle(c.Request.Context(), user.ID, id, req.Title); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "conversation updated"})
}

// DeleteConversation removes a conversation and all its messages
func (h *Handler) DeleteConversation(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}

	if err := h.conversations.Delete(c.Request.Context(), user.ID, id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "conversation deleted"})
}

// LegacyHistory returns the caller's most recently updated conversation's
// messages. Kept for clients predating multi-conversation support.
func (h *Handler) LegacyHistory(c *gin.Context) {
	user := middleware.CurrentUser(c)

	messages, err := h.conversations.GetHistory(c.Request.Context(), user.ID, 0, 50)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// ClearHistory deletes every stored message. Administrative and unscoped.
func (h *Handler) ClearHistory(c *gin.Context) {
	if err := h.conversations.ClearAllMessages(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "chat history cleared"})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
