package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration (first-comment gate)
	Redis RedisConfig

	// Notification transport configuration
	Notify NotifyConfig

	// Comment read/write settings
	Comment CommentConfig

	// Identifier generation settings
	ID IDConfig

	// Counter reconciliation settings
	Reconcile ReconcileConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	MigrationsPath string
}

// RedisConfig holds the TTL store settings used by the first-comment gate
type RedisConfig struct {
	URL         string
	GateTTL     time.Duration
	GateTimeout time.Duration
}

// NotifyConfig holds notification transport settings.
// An empty RabbitMQURL selects the log-only publisher.
type NotifyConfig struct {
	RabbitMQURL string
	Exchange    string
	Timeout     time.Duration
}

// CommentConfig holds paging and batch limits
type CommentConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	CountBatchLimit int
}

// IDConfig selects the comment id generator
type IDConfig struct {
	Generator     string // "uuid" or "snowflake"
	SnowflakeNode int64
}

// ReconcileConfig holds the background counter repair settings.
// An Interval of zero disables the reconciler.
type ReconcileConfig struct {
	Interval  time.Duration
	Window    time.Duration
	BatchSize int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "comments"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:    getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Redis: RedisConfig{
			URL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
			GateTTL:     getDurationEnv("GATE_TTL", 48*time.Hour),
			GateTimeout: getDurationEnv("GATE_TIMEOUT", 500*time.Millisecond),
		},
		Notify: NotifyConfig{
			RabbitMQURL: getEnv("RABBITMQ_URL", ""),
			Exchange:    getEnv("RABBITMQ_EXCHANGE", "comment_events"),
			Timeout:     getDurationEnv("NOTIFY_TIMEOUT", 2*time.Second),
		},
		Comment: CommentConfig{
			DefaultPageSize: getIntEnv("COMMENT_DEFAULT_PAGE_SIZE", 10),
			MaxPageSize:     getIntEnv("COMMENT_MAX_PAGE_SIZE", 100),
			CountBatchLimit: getIntEnv("COUNT_BATCH_LIMIT", 1000),
		},
		ID: IDConfig{
			Generator:     getEnv("ID_GENERATOR", "uuid"),
			SnowflakeNode: getInt64Env("SNOWFLAKE_NODE", 1),
		},
		Reconcile: ReconcileConfig{
			Interval:  getDurationEnv("RECONCILE_INTERVAL", 10*time.Minute),
			Window:    getDurationEnv("RECONCILE_WINDOW", time.Hour),
			BatchSize: getIntEnv("RECONCILE_BATCH", 100),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.Redis.GateTTL <= 0 {
		return fmt.Errorf("GATE_TTL must be positive")
	}
	if c.Comment.DefaultPageSize <= 0 || c.Comment.DefaultPageSize > c.Comment.MaxPageSize {
		return fmt.Errorf("COMMENT_DEFAULT_PAGE_SIZE must be between 1 and COMMENT_MAX_PAGE_SIZE")
	}
	if c.Comment.CountBatchLimit <= 0 {
		return fmt.Errorf("COUNT_BATCH_LIMIT must be positive")
	}
	switch c.ID.Generator {
	case "uuid", "snowflake":
	default:
		return fmt.Errorf("ID_GENERATOR must be one of: uuid, snowflake")
	}
	if c.Reconcile.Interval > 0 && c.Reconcile.BatchSize <= 0 {
		return fmt.Errorf("RECONCILE_BATCH must be positive when reconciliation is enabled")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
