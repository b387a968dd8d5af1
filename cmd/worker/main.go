package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/journeymate/backend/internal/config"
	"github.com/journeymate/backend/internal/logger"
	"github.com/journeymate/backend/internal/tasks"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	if !cfg.Notifications.Enabled {
		logger.Logger.Fatal("Notifications are disabled, set NOTIFICATIONS_ENABLED=true to run the worker")
	}

	logger.Logger.Info("Starting JourneyMate notification worker", zap.String("queue", cfg.Notifications.Queue))

	// Create Asynq server
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Queues: map[string]int{
				cfg.Notifications.Queue: 1,
			},
			Logger: logger.Logger.Sugar(),
		},
	)

	dialer := mail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	worker := NewWorker(logger.Logger, dialer, cfg.SMTP.From)

	// Register task handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeWelcomeEmail, worker.HandleWelcomeEmail)

	// Start worker
	if err := srv.Start(mux); err != nil {
		logger.Logger.Fatal("Failed to start worker", zap.Error(err))
	}

	logger.Logger.Info("Worker started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down worker...")
	srv.Shutdown()
	logger.Logger.Info("Worker exited")
}
