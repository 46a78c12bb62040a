package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studykit/quiz-service/internal/cache"
	"github.com/studykit/quiz-service/internal/config"
	"github.com/studykit/quiz-service/internal/handlers"
	"github.com/studykit/quiz-service/internal/repositories/postgres"
	"github.com/studykit/quiz-service/internal/services"
	"github.com/studykit/quiz-service/internal/session"
	"github.com/studykit/quiz-service/internal/utils"
	"github.com/studykit/quiz-service/pkg"
)

const (
	sessionMaxIdle    = 2 * time.Hour
	sessionPruneEvery = 10 * time.Minute
	shutdownTimeout   = 15 * time.Second
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogLogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(slogLogger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db)
	cacheService := cache.NewRedisCache(redisClient, slogLogger)
	validator := utils.NewValidator()

	manager := session.NewManager()
	artifactService := services.NewArtifactService(repo, cacheService, slogLogger, validator)
	attemptService := services.NewAttemptService(repo, cacheService, slogLogger)
	exportService := services.NewExportService(repo, slogLogger)
	recorder := services.NewAttemptRecorder(repo, cacheService, publisher, slogLogger)
	sessionService := services.NewSessionService(manager, artifactService, repo, recorder, slogLogger, validator)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Abandoned sessions are dropped in the background.
	go func() {
		ticker := time.NewTicker(sessionPruneEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := manager.PruneIdle(sessionMaxIdle); removed > 0 {
					logger.Info("Pruned idle sessions", "removed", removed, "remaining", manager.Count())
				}
			}
		}
	}()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(sessionService, artifactService, attemptService, exportService, logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting quiz service", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
}
