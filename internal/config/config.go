package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Document storage configuration
	Storage StorageConfig

	// Database configuration (postgres storage backend only)
	Database DatabaseConfig

	// Authentication and session configuration
	Auth AuthConfig

	// Redis configuration (realtime fan-out and rate limiting)
	Redis RedisConfig

	// Media upload configuration
	Upload UploadConfig

	// Roster import configuration
	Import ImportConfig

	// Logging configuration
	Log LogConfig

	// SeedFile optionally points at a YAML file with events and users to bootstrap
	SeedFile string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// StorageConfig selects where JSON documents and media blobs live
type StorageConfig struct {
	Backend      string // local, gcs, postgres, memory
	MediaBackend string // local, gcs
	DataDir      string
	MediaDir     string
	GCSBucket    string
	PublicURL    string // prefix used when building media URLs for the local backend
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

// AuthConfig holds session and bootstrap account settings
type AuthConfig struct {
	SessionSecret      string
	SessionTTL         time.Duration
	CookieSecure       bool
	SuperAdminEmail    string
	SuperAdminPassword string
}

// RedisConfig holds Redis settings. An empty URL disables Redis features.
type RedisConfig struct {
	URL             string
	RateLimit       int
	RateLimitWindow time.Duration
}

// UploadConfig holds media upload limits
type UploadConfig struct {
	MaxUploadSize int64 // in bytes
}

// ImportConfig holds import job settings
type ImportConfig struct {
	BatchSize     int
	MaxUploadSize int64 // in bytes
	UploadDir     string
	// Workers bounds concurrent imports; PollInterval is how often pending
	// jobs are picked up. Zero values fall back to 4 and 2s.
	Workers      int
	PollInterval time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getListEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Storage: StorageConfig{
			Backend:      getEnv("STORAGE_BACKEND", "local"),
			MediaBackend: getEnv("MEDIA_BACKEND", ""),
			DataDir:      getEnv("DATA_DIR", "./data"),
			MediaDir:     getEnv("MEDIA_DIR", "./data/media"),
			GCSBucket:    getEnv("GCS_BUCKET_NAME", ""),
			PublicURL:    getEnv("MEDIA_PUBLIC_URL", "/api/media"),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "fame"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:    getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Auth: AuthConfig{
			SessionSecret:      getEnv("SESSION_SECRET", ""),
			SessionTTL:         getDurationEnv("SESSION_TTL", 24*time.Hour),
			CookieSecure:       getBoolEnv("COOKIE_SECURE", false),
			SuperAdminEmail:    getEnv("SUPER_ADMIN_EMAIL", ""),
			SuperAdminPassword: getEnv("SUPER_ADMIN_PASSWORD", ""),
		},
		Redis: RedisConfig{
			URL:             getEnv("REDIS_URL", ""),
			RateLimit:       getIntEnv("RATE_LIMIT", 30),
			RateLimitWindow: getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
		},
		Upload: UploadConfig{
			MaxUploadSize: getInt64Env("MAX_MEDIA_SIZE", 100*1024*1024), // 100MB
		},
		Import: ImportConfig{
			BatchSize:     getIntEnv("IMPORT_BATCH_SIZE", 100),
			MaxUploadSize: getInt64Env("MAX_UPLOAD_SIZE", 10*1024*1024), // 10MB
			UploadDir:     getEnv("UPLOAD_DIR", "./data/uploads"),
			Workers:       getIntEnv("IMPORT_WORKERS", 4),
			PollInterval:  getDurationEnv("IMPORT_POLL_INTERVAL", 2*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		SeedFile: getEnv("SEED_FILE", ""),
	}

	if cfg.Storage.MediaBackend == "" {
		cfg.Storage.MediaBackend = "local"
		if cfg.Storage.Backend == "gcs" {
			cfg.Storage.MediaBackend = "gcs"
		}
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var problems []string

	switch c.Storage.Backend {
	case "local", "memory":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			problems = append(problems, "GCS_BUCKET_NAME is required for the gcs backend")
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.Name == "" {
			problems = append(problems, "DB_HOST and DB_NAME are required for the postgres backend")
		}
	default:
		problems = append(problems, "STORAGE_BACKEND must be one of: local, gcs, postgres, memory")
	}

	switch c.Storage.MediaBackend {
	case "local":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			problems = append(problems, "GCS_BUCKET_NAME is required for gcs media")
		}
	default:
		problems = append(problems, "MEDIA_BACKEND must be one of: local, gcs")
	}

	if len(c.Auth.SessionSecret) < 16 {
		problems = append(problems, "SESSION_SECRET must be at least 16 characters")
	}
	if c.Auth.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}
	if c.Import.BatchSize <= 0 {
		problems = append(problems, "IMPORT_BATCH_SIZE must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// IsDevelopment reports whether ENV is unset or "development"
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(os.Getenv("ENV"))
	return env == "" || env == "development"
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

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
