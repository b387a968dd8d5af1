// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Store drivers
const (
	StoreDriverMySQL = "mysql"
	StoreDriverRedis = "redis"
)

// Config holds all configuration for the application
type Config struct {
	Store         StoreConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Server        ServerConfig
	Logging       LoggingConfig
	CORS          CORSConfig
	Registration  RegistrationConfig
	Admin         AdminConfig
	Notifications NotificationsConfig
	SMTP          SMTPConfig
	Monitor       MonitorConfig
}

// StoreConfig selects the resource store backend
type StoreConfig struct {
	Driver string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port               int
	RateLimitPerMinute int
	MaxRequestSize     int64
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// RegistrationConfig holds registration endpoint settings
type RegistrationConfig struct {
	// LegacyConflictStatus answers duplicate registrations with 200 instead of 409
	LegacyConflictStatus bool
}

// AdminConfig holds the administrator provisioned at start-up. Both fields empty disables provisioning.
type AdminConfig struct {
	Username string
	Password string
}

// NotificationsConfig holds welcome notification settings. Notifications use the Redis settings for the task queue.
type NotificationsConfig struct {
	Enabled bool
	Queue   string
}

// SMTPConfig holds SMTP server configuration used by the notification worker
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// MonitorConfig holds the store health probe schedule. An empty schedule disables the probe.
type MonitorConfig struct {
	Schedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}
	var err error

	// Notifications configuration
	if err := loadNotifications(cfg); err != nil {
		return nil, err
	}

	// Store configuration
	cfg.Store.Driver = strings.ToLower(getEnv("STORE_DRIVER", StoreDriverMySQL))
	switch cfg.Store.Driver {
	case StoreDriverMySQL:
		if err := loadDatabase(cfg); err != nil {
			return nil, err
		}
	case StoreDriverRedis:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER: %s, must be 'mysql' or 'redis'", cfg.Store.Driver)
	}

	// Redis backs the redis store and the notification queue
	if cfg.Store.Driver == StoreDriverRedis || cfg.Notifications.Enabled {
		if err := loadRedis(cfg); err != nil {
			return nil, err
		}
	}

	// SMTP configuration (worker only)
	if err := loadSMTP(cfg); err != nil {
		return nil, err
	}

	// Store monitor configuration
	cfg.Monitor.Schedule = getEnv("STORE_MONITOR_SCHEDULE", "@every 30s")
	if cfg.Monitor.Schedule == "off" {
		cfg.Monitor.Schedule = ""
	}
	if cfg.Monitor.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Monitor.Schedule); err != nil {
			return nil, fmt.Errorf("invalid STORE_MONITOR_SCHEDULE: %w", err)
		}
	}

	// Server configuration
	if cfg.Server.Port, err = getEnvInt("SERVER_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Server.RateLimitPerMinute, err = getEnvInt("RATE_LIMIT_PER_MINUTE", 100); err != nil {
		return nil, err
	}
	maxRequestSize, err := getEnvInt("MAX_REQUEST_SIZE", 1<<20)
	if err != nil {
		return nil, err
	}
	if maxRequestSize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_SIZE must be positive")
	}
	cfg.Server.MaxRequestSize = int64(maxRequestSize)

	// Logging configuration
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Default to allow all origins if not specified (for development)
		cfg.CORS.AllowedOrigins = []string{"*"}
	}

	// Registration configuration
	if cfg.Registration.LegacyConflictStatus, err = getEnvBool("REGISTRATION_LEGACY_CONFLICT_STATUS", false); err != nil {
		return nil, err
	}

	// Admin provisioning
	cfg.Admin.Username = os.Getenv("ADMIN_USERNAME")
	cfg.Admin.Password = os.Getenv("ADMIN_PASSWORD")
	if (cfg.Admin.Username == "") != (cfg.Admin.Password == "") {
		return nil, fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}

// LoadWorker reads the configuration of the notification worker.
// The worker never opens the resource store, so only the queue, Redis, SMTP and logging settings are read.
func LoadWorker() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	if err := loadNotifications(cfg); err != nil {
		return nil, err
	}
	if err := loadRedis(cfg); err != nil {
		return nil, err
	}
	if err := loadSMTP(cfg); err != nil {
		return nil, err
	}
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	return cfg, nil
}

func loadNotifications(cfg *Config) error {
	var err error
	if cfg.Notifications.Enabled, err = getEnvBool("NOTIFICATIONS_ENABLED", false); err != nil {
		return err
	}
	cfg.Notifications.Queue = getEnv("NOTIFICATIONS_QUEUE", "notifications")
	return nil
}

func loadSMTP(cfg *Config) error {
	var err error
	cfg.SMTP.Host = getEnv("SMTP_HOST", "localhost")
	if cfg.SMTP.Port, err = getEnvInt("SMTP_PORT", 587); err != nil {
		return err
	}
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	cfg.SMTP.From = getEnv("SMTP_FROM", "noreply@journeymate.local")
	return nil
}

func loadDatabase(cfg *Config) error {
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	return nil
}

func loadRedis(cfg *Config) error {
	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	cfg.Redis.Host = redisHost

	redisPortStr := os.Getenv("REDIS_PORT")
	if redisPortStr == "" {
		return fmt.Errorf("REDIS_PORT is required")
	}
	redisPort, err := strconv.Atoi(redisPortStr)
	if err != nil {
		return fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	cfg.Redis.Port = redisPort

	if cfg.Redis.DB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return err
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Redis.KeyPrefix = getEnv("REDIS_KEY_PREFIX", "journeymate:")

	return nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&multiStatements=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// RedisAddr returns the Redis host:port address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// parseList splits a comma-separated list and drops empty items
func parseList(value string) []string {
	if value == "" {
		return nil
	}
	items := strings.Split(value, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
