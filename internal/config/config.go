// Package config loads the server configuration from environment variables.
//
// Every setting has a default except JWT_SECRET: a server that would sign
// tokens with a guessable key refuses to start instead.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/linkup/internal/auth"
	"github.com/sakif/linkup/internal/upload"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Upload   UploadConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

type DatabaseConfig struct {
	Path string
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type UploadConfig struct {
	Backend  string // upload.BackendDisk or upload.BackendS3
	Dir      string
	MaxBytes int64
	S3       upload.S3Config
}

type LogConfig struct {
	Level  slog.Level
	Format string // "text" or "json"
}

const (
	defaultPort          = "4000"
	defaultDBPath        = "data/linkup.db"
	defaultUploadDir     = "uploads"
	defaultUploadMaxSize = 5 << 20
	defaultTimeout       = 30 * time.Second
)

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", defaultPort),
			RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", defaultTimeout),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", defaultTimeout),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", defaultDBPath),
		},
		Auth: AuthConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			TokenTTL:   getEnvDuration("JWT_TTL", auth.DefaultTokenTTL),
			BcryptCost: clampCost(getEnvInt("BCRYPT_COST", auth.DefaultCost)),
		},
		Upload: loadUploadConfig(),
		Log: LogConfig{
			Level:  parseLogLevel(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func loadUploadConfig() UploadConfig {
	return UploadConfig{
		Backend:  strings.ToLower(getEnv("UPLOAD_BACKEND", upload.BackendDisk)),
		Dir:      getEnv("UPLOAD_DIR", defaultUploadDir),
		MaxBytes: getEnvInt64("UPLOAD_MAX_BYTES", defaultUploadMaxSize),
		S3: upload.S3Config{
			Bucket:       os.Getenv("S3_BUCKET"),
			Region:       getEnv("S3_REGION", "us-east-1"),
			Endpoint:     os.Getenv("S3_ENDPOINT"),
			AccessKey:    os.Getenv("S3_ACCESS_KEY"),
			SecretKey:    os.Getenv("S3_SECRET_KEY"),
			PublicURL:    os.Getenv("S3_PUBLIC_URL"),
			UsePathStyle: getEnvBool("S3_USE_PATH_STYLE", false),
		},
	}
}

// Validate checks the settings that have no safe default.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid PORT %q", c.Server.Port)
	}
	if c.Server.RequestTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.Database.Path == "" {
		return errors.New("DB_PATH must not be empty")
	}

	if c.Upload.MaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}
	switch c.Upload.Backend {
	case upload.BackendDisk:
		if c.Upload.Dir == "" {
			return errors.New("UPLOAD_DIR is required for the disk backend")
		}
	case upload.BackendS3:
		if c.Upload.S3.Bucket == "" {
			return errors.New("S3_BUCKET is required for the s3 backend")
		}
	default:
		return fmt.Errorf("invalid UPLOAD_BACKEND %q (must be disk or s3)", c.Upload.Backend)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q (must be text or json)", c.Log.Format)
	}
	return nil
}

// NewLogger builds the process logger described by c.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// clampCost keeps the bcrypt work factor within [auth.MinProductionCost, 31].
func clampCost(cost int) int {
	return auth.NewPasswordServiceWithCost(cost).Cost()
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getEnv returns an environment variable or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
