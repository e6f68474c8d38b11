package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Backends supported by DATA_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	DataBackend   string
	Database      DatabaseConfig
	Storage       StorageConfig
	Import        ImportConfig
	Migration     MigrationConfig
	Log           LogConfig
	Observability ObservabilityConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
}

type StorageConfig struct {
	Type      string // "local" or "none"
	LocalPath string
}

type ImportConfig struct {
	HomeCurrency string
	Workers      int
}

type MigrationConfig struct {
	Schedule string
}

type LogConfig struct {
	Level  string
	Format string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when it exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		DataBackend: getEnv("DATA_BACKEND", BackendPostgres),
		Database: DatabaseConfig{
			Host:     getEnv("DATABASE_HOST", "localhost"),
			Port:     getEnvAsInt("DATABASE_PORT", 5432),
			User:     getEnv("DATABASE_USER", "postgres"),
			Password: getEnv("DATABASE_PASSWORD", "postgres"),
			Database: getEnv("DATABASE_NAME", "statements"),
			SSLMode:  getEnv("DATABASE_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DATABASE_MAX_CONNS", 10),
		},
		Storage: StorageConfig{
			Type:      getEnv("STORAGE_TYPE", "local"),
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./data/statements"),
		},
		Import: ImportConfig{
			HomeCurrency: strings.ToUpper(getEnv("HOME_CURRENCY", "RUB")),
			Workers:      getEnvAsInt("IMPORT_WORKERS", 0),
		},
		Migration: MigrationConfig{
			Schedule: getEnv("MIGRATION_SCHEDULE", "0 3 * * *"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", false),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.DataBackend {
	case BackendPostgres:
		if c.Database.Host == "" || c.Database.Database == "" {
			problems = append(problems, "DATABASE_HOST and DATABASE_NAME are required for the postgres backend")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			problems = append(problems, fmt.Sprintf("invalid DATABASE_PORT %d", c.Database.Port))
		}
	case BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("invalid DATA_BACKEND %q: must be %s or %s", c.DataBackend, BackendPostgres, BackendMemory))
	}

	switch c.Storage.Type {
	case "local":
		if c.Storage.LocalPath == "" {
			problems = append(problems, "STORAGE_LOCAL_PATH cannot be empty for local storage")
		}
	case "none":
	default:
		problems = append(problems, fmt.Sprintf("invalid STORAGE_TYPE %q", c.Storage.Type))
	}

	if len(c.Import.HomeCurrency) != 3 {
		problems = append(problems, fmt.Sprintf("invalid HOME_CURRENCY %q: expected ISO 4217 code", c.Import.HomeCurrency))
	}
	if c.Import.Workers < 0 {
		problems = append(problems, "IMPORT_WORKERS cannot be negative")
	}

	if c.Migration.Schedule != "" {
		if _, err := cron.ParseStandard(c.Migration.Schedule); err != nil {
			problems = append(problems, fmt.Sprintf("invalid MIGRATION_SCHEDULE %q: %v", c.Migration.Schedule, err))
		}
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("invalid LOG_FORMAT %q: must be text or json", c.Log.Format))
	}

	if c.Observability.MetricsEnabled && (c.Observability.MetricsPort < 1 || c.Observability.MetricsPort > 65535) {
		problems = append(problems, fmt.Sprintf("invalid METRICS_PORT %d", c.Observability.MetricsPort))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// NewLogger builds the process logger from the log settings.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
