package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskhub/chat-service/internal/access"
	"github.com/taskhub/chat-service/internal/auth"
	"github.com/taskhub/chat-service/internal/cache"
	"github.com/taskhub/chat-service/internal/config"
	"github.com/taskhub/chat-service/internal/domain"
	"github.com/taskhub/chat-service/internal/handler"
	"github.com/taskhub/chat-service/internal/hub"
	"github.com/taskhub/chat-service/internal/repository"
	"github.com/taskhub/chat-service/internal/service"
	"github.com/taskhub/chat-service/pkg/database"
	"github.com/taskhub/chat-service/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	logger := log.L()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db, &domain.ChatMessage{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var msgCache cache.MessageCache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisMessageCache(cfg.Cache)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		msgCache = redisCache
		logger.Info().Str("address", cfg.Cache.Address).Msg("message page cache enabled")
	}

	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	repo := repository.NewGormMessageRepository(db)
	accessCtl := access.NewGormAdapter(db)
	verifier := auth.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer)
	chatService := service.NewChatService(repo, accessCtl, wsHub, wsHub.Typing, msgCache, cfg.Cache.TTL)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(log.GinMiddleware(logger))

	wsHandler := handler.NewWSHandler(wsHub, chatService, verifier, accessCtl, cfg.WebSocket)
	wsHandler.RegisterRoutes(router)

	httpHandler := handler.NewHTTPHandler(chatService)
	httpHandler.RegisterRoutes(router, handler.RequireAuth(verifier, accessCtl))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info().Str("address", addr).Msg("chat service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("chat service stopped")
}
