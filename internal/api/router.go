package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	authapi "github.com/fitstack/gymchat/internal/api/auth"
	chatapi "github.com/fitstack/gymchat/internal/api/chat"
	"github.com/fitstack/gymchat/internal/api/middleware"
	"github.com/fitstack/gymchat/internal/repository"
	"github.com/fitstack/gymchat/internal/service"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(
	authService *service.AuthService,
	chatService *service.ChatService,
	conversations *repository.ConversationRepository,
	cfg RouterConfig,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middleware.CORS(cfg.AllowOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	authHandler := authapi.NewHandler(authService)
	chatHandler := chatapi.NewHandler(chatService, conversations)

	authGroup := r.Group("/auth")
	authHandler.RegisterRoutes(authGroup)

	protected := r.Group("/")
	protected.Use(middleware.Auth(authService))
	authHandler.RegisterProtectedRoutes(protected.Group("/auth"))
	chatHandler.RegisterRoutes(protected)

	return r
}
