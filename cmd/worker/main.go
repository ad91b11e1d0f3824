package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"legalreview/core"
	"legalreview/internal/extraction"
	"legalreview/internal/llm"
	"legalreview/internal/parser"
	"legalreview/internal/storage"
	"legalreview/internal/tasks"
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

	db, err := core.InitDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalw("failed to connect to database", "error", err)
	}
	logger.Infow("worker connected to database")

	ctx := context.Background()
	store, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Fatalw("failed to set up storage", "backend", cfg.StorageBackend, "error", err)
	}

	model, err := llm.FromConfig(ctx, cfg, logger.With("component", "llm"))
	if err != nil {
		logger.Fatalw("failed to set up language models", "providers", cfg.LLMProviders, "error", err)
	}
	logger.Infow("language models ready", "models", model.Name())

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatalw("failed to parse Redis URL", "error", err)
	}

	queue := tasks.NewQueue(redisOpt, cfg)
	defer queue.Close()

	workerLogger := logger.With("component", "worker")
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Queues: map[string]int{
				tasks.QueueDefault: 1,
			},
			Concurrency:    cfg.WorkerConcurrency,
			RetryDelayFunc: tasks.RetryDelay,
			Logger:         workerLogger,
		},
	)

	taskProcessor := &tasks.TaskProcessor{
		DB:        db,
		Storage:   store,
		Parser:    parser.New(logger.With("component", "parser")),
		Extractor: extraction.NewExtractor(model, cfg.ExtractionConcurrency, logger.With("component", "extractor")),
		Enqueuer:  queue,
		Logger:    workerLogger,
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeParseDocument, taskProcessor.HandleParseDocumentTask)
	mux.HandleFunc(tasks.TypeExtractDocument, taskProcessor.HandleExtractDocumentTask)
	mux.HandleFunc(tasks.TypeReextractProject, taskProcessor.HandleReextractProjectTask)

	go func() {
		workerLogger.Infow("starting asynq worker server", "concurrency", cfg.WorkerConcurrency)
		if err := srv.Run(mux); err != nil {
			workerLogger.Fatalw("could not run asynq worker server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	workerLogger.Infow("shutdown signal received, shutting down gracefully")
	srv.Shutdown()
	workerLogger.Infow("worker process shut down complete")
}
