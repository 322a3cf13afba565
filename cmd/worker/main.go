package main

import (
	"context"
	"log"
	"nextgen-hr-worker/config"
	"nextgen-hr-worker/internal/delivery/queue"
	"nextgen-hr-worker/internal/repository/postgres"
	"nextgen-hr-worker/internal/usecase"
	"nextgen-hr-worker/pkg/database"
	"nextgen-hr-worker/pkg/gcs"
	"nextgen-hr-worker/pkg/groq"
	"nextgen-hr-worker/pkg/logger"
	redispkg "nextgen-hr-worker/pkg/redis"
	"nextgen-hr-worker/pkg/vision"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init(cfg.Debug)
	logger.Log.Info("Starting application worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Setup Database
	dbPool, err := database.NewPostgresConnection(cfg.DBUrl)
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 4. Setup Redis (optional dedupe store)
	dedupe, err := redispkg.NewClient(ctx, redispkg.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword})
	if err != nil {
		logger.Log.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if dedupe == nil {
		logger.Log.Warn("Redis not configured - duplicate deliveries will not be filtered")
	} else {
		defer dedupe.Close()
	}

	// 5. Setup Cloud Adapters
	audio, err := gcs.NewDownloader(ctx, cfg.ScratchDir)
	if err != nil {
		logger.Log.Error("Failed to create storage client", "error", err)
		os.Exit(1)
	}
	defer audio.Close()

	extractor, err := vision.NewExtractor(ctx, cfg.GCSStagingURI, time.Duration(cfg.OCRTimeoutSeconds)*time.Second)
	if err != nil {
		logger.Log.Error("Failed to create vision client", "error", err)
		os.Exit(1)
	}
	defer extractor.Close()

	llm := groq.NewClient(cfg.GroqAPIKey)

	// 6. Setup Repositories
	applicationRepo := postgres.NewApplicationRepository(dbPool)
	interviewRepo := postgres.NewInterviewRepository(dbPool)

	// 7. Setup UseCases
	intakeUC := usecase.NewIntakeUsecase(applicationRepo, interviewRepo, extractor, llm, cfg.QuestionCount, cfg.ScoreRequired)
	evaluationUC := usecase.NewEvaluationUsecase(interviewRepo, audio, llm, llm)

	// 8. Consume until shutdown
	consumer := queue.NewConsumer(queue.Config{
		URL:               cfg.AmqpURL,
		MaxAttempts:       cfg.MaxAttempts,
		RetryDelay:        time.Duration(cfg.RetryDelaySeconds) * time.Second,
		ReconnectMinDelay: time.Duration(cfg.ReconnectMinSecs) * time.Second,
		ReconnectMaxDelay: time.Duration(cfg.ReconnectMaxSecs) * time.Second,
	}, intakeUC, evaluationUC, dedupe)

	if err := consumer.Run(ctx); err != nil {
		logger.Log.Error("Consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Log.Info("Shutting down worker...")
}
