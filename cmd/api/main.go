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
	"github.com/hibiken/asynq"

	"legalreview/controllers"
	"legalreview/core"
	"legalreview/internal/storage"
	"legalreview/internal/tasks"
	"legalreview/models"
)

func main() {
	cfg, err := core.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := core.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// connect to the database
	db, err := core.InitDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalw("failed to connect to database", "error", err)
	}

	if err := models.AutoMigrate(db); err != nil {
		logger.Fatalw("failed to migrate database", "error", err)
	}

	ctx := context.Background()
	store, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Fatalw("failed to set up storage", "backend", cfg.StorageBackend, "error", err)
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatalw("failed to parse Redis URL", "error", err)
	}
	queue := tasks.NewQueue(redisOpt, cfg)
	defer queue.Close()

	engine := controllers.NewServer(controllers.Dependencies{
		DB:       db,
		Config:   cfg,
		Logger:   logger,
		Storage:  store,
		Enqueuer: queue,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infow("starting api server", "port", cfg.Port, "environment", cfg.Environment, "version", core.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("api server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infow("shutdown signal received, shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("api server shutdown failed", "error", err)
	}
}
