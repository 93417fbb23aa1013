package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fitstack/gymchat/internal/domain"
	"github.com/fitstack/gymchat/internal/service"
)

// ContextUserKey is the gin context key holding the authenticated user
const ContextUserKey = "current_user"

// Auth returns a bearer-token authentication middleware. Every failure is a
// generic 401; expired and malformed tokens are indistinguishable to the
// client.
func Auth(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))

		const prefix = "Bearer "
		if header == "" || !strings.HasPrefix(header, prefix) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
		user, err := auth.CurrentUser(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser pulls the authenticated user set by Auth from the context
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(ContextUserKey); ok {
		if user, ok := v.(*domain.User); ok {
			return user
		}
	}
	return nil
}
