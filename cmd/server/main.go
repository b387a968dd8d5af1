package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hibiken/asynq"
	_ "github.com/journeymate/backend/docs"
	"github.com/journeymate/backend/internal/config"
	"github.com/journeymate/backend/internal/handlers"
	"github.com/journeymate/backend/internal/logger"
	"github.com/journeymate/backend/internal/metrics"
	"github.com/journeymate/backend/internal/middleware"
	"github.com/journeymate/backend/internal/models"
	"github.com/journeymate/backend/internal/monitor"
	"github.com/journeymate/backend/internal/repositories"
	"github.com/journeymate/backend/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title JourneyMate Account API
// @version 1.0
// @description Login and registration endpoints backed by the content resource store

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting JourneyMate account service", zap.String("store", cfg.Store.Driver))

	// Initialize resource store
	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Logger.Fatal("Failed to open resource store", zap.Error(err))
	}
	defer closeStore()

	// Provision configured administrator
	if cfg.Admin.Username != "" {
		adminService := services.NewAdminBootstrapService(store, logger.Logger)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := adminService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password)
		cancel()
		if err != nil {
			logger.Logger.Fatal("Failed to provision admin", zap.Error(err))
		}
	}

	// Welcome notifications are queued for the worker
	var notifier services.RegistrationNotifier
	if cfg.Notifications.Enabled {
		asynqClient := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer asynqClient.Close()
		notifier = services.NewNotificationService(asynqClient, cfg.Notifications.Queue, logger.Logger)
	}

	// Initialize services
	authService := services.NewAuthService(store, logger.Logger)
	registrationService := services.NewRegistrationService(store, notifier, logger.Logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, logger.Logger)
	registrationHandler := handlers.NewRegistrationHandler(registrationService, logger.Logger, cfg.Registration.LegacyConflictStatus)
	healthHandler := handlers.NewHealthHandler(store, logger.Logger)

	// Metrics
	registry := prometheus.NewRegistry()
	metrics.RegisterCollectors(registry)

	// Store health probe
	if cfg.Monitor.Schedule != "" {
		storeMonitor := monitor.NewStoreMonitor(store, logger.Logger)
		if err := storeMonitor.Start(cfg.Monitor.Schedule); err != nil {
			logger.Logger.Fatal("Failed to start store monitor", zap.Error(err))
		}
		defer storeMonitor.Stop()
	}

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(middleware.RequestSizeLimitMiddleware(cfg.Server.MaxRequestSize))

	healthHandler.RegisterRoutes(r)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Login and registration are rate limited per client IP
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.Server.RateLimitPerMinute, time.Minute))
		authHandler.RegisterRoutes(r)
		registrationHandler.RegisterRoutes(r)
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// openStore creates the resource store selected by the configuration
func openStore(cfg *config.Config) (repositories.ResourceStore, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
		}

		store := repositories.NewRedisResourceStore(client, cfg.Redis.KeyPrefix, logger.Logger)
		if err := store.EnsureRoots(ctx, models.ContentRoot, models.UserRoot, models.AdminRoot); err != nil {
			client.Close()
			return nil, nil, err
		}
		return store, func() { client.Close() }, nil

	default:
		db, err := connectDB(cfg.DSN())
		if err != nil {
			return nil, nil, err
		}

		if err := runMigrations(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repositories.NewMySQLResourceStore(db, logger.Logger), func() { db.Close() }, nil
	}
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "resource_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directories if running from cmd/server
		for _, dir := range []string{"../migrations", "../../migrations"} {
			if _, err := os.Stat(dir); err == nil {
				migrationPath = "file://" + dir
				break
			}
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
