package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fitstack/gymchat/internal/api"
	"github.com/fitstack/gymchat/internal/config"
	"github.com/fitstack/gymchat/internal/repository"
	"github.com/fitstack/gymchat/internal/service"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

const guestSweepInterval = time.Hour

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	guestSessionRepo := repository.NewGuestSessionRepository(db)

	guestRegistry := service.NewGuestSessionRegistry(cfg.Auth.GuestMemoryTTL, nil)

	// The RAG backend is optional: without it every chat degrades to the
	// in-band error reply instead of failing.
	ragService, err := service.NewRAGService(cfg)
	if err != nil {
		logger.Warn("Failed to initialize RAG backend, running degraded", zap.Error(err))
	}

	var retriever service.Retriever
	var generator service.Generator
	if ragService != nil {
		retriever = ragService
		generator = ragService
	}

	authService := service.NewAuthService(
		userRepo,
		guestSessionRepo,
		guestRegistry,
		logger,
		cfg.Auth.JWTSecret,
		cfg.Auth.TokenTTL,
		cfg.Auth.GuestSessionTTL,
		cfg.Auth.GuestMode,
	)

	chatService := service.NewChatService(
		conversationRepo,
		retriever,
		generator,
		logger,
		service.ChatOptions{
			TopK:        cfg.RAG.TopK,
			MaxTokens:   cfg.RAG.MaxTokens,
			Temperature: cfg.RAG.Temperature,
			Timeout:     cfg.RAG.Timeout,
		},
	)

	router := api.SetupRouter(authService, chatService, conversationRepo, api.RouterConfig{
		AllowOrigins: []string{"*"},
	})

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go sweepGuestSessions(sweepCtx, authService)

	go func() {
		logger.Info("Starting GymChat server", zap.String("address", cfg.Address()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if ragService != nil {
		ragService.Close()
	}

	logger.Info("Server exited")
}

func sweepGuestSessions(ctx context.Context, auth *service.AuthService) {
	ticker := time.NewTicker(guestSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			auth.SweepGuestSessions(ctx)
		}
	}
}
