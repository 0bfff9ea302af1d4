package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDSN     = "host=localhost user=postgres password=postgres dbname=supplysync port=5432 sslmode=disable"
	defaultOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort    string
	AppEnv      string
	LogFormat   string // text | json
	LogLevel    string
	DBDriver    string // postgres | sqlite
	DatabaseDSN string
	SQLitePath  string // local fallback mode

	StorageBackend string // database | redis
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	JWTSecret   string
	JWTTTL      time.Duration
	CORSOrigins string

	MaxUploadBytes int64
	PhotoMaxBytes  int64
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads the environment, after a .env file when one exists. Unsafe
// defaults are logged; missing required values are returned as errors.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}
	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_TTL: %w", err)
	}
	maxUpload, err := strconv.ParseInt(getEnv("MAX_UPLOAD_MB", "10"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("MAX_UPLOAD_MB: %w", err)
	}
	photoMax, err := strconv.ParseInt(getEnv("PHOTO_MAX_KB", "512"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("PHOTO_MAX_KB: %w", err)
	}

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		AppEnv:         getEnv("APP_ENV", "development"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseDSN:    getEnv("DATABASE_DSN", defaultDSN),
		SQLitePath:     getEnv("SQLITE_PATH", "./supplysync.db"),
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", "database")),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        redisDB,
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTTTL:         ttl,
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", defaultOrigins),
		MaxUploadBytes: maxUpload << 20,
		PhotoMaxBytes:  photoMax << 10,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.warn()
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported", c.DBDriver)
	}
	switch c.StorageBackend {
	case "database", "redis":
	default:
		return fmt.Errorf("STORAGE_BACKEND %q is not supported", c.StorageBackend)
	}
	return nil
}

func (c *Config) warn() {
	if c.DBDriver == "postgres" && c.DatabaseDSN == defaultDSN {
		slog.Warn("DATABASE_DSN uses the default value, set your own Postgres DSN for production")
	}
	if c.CORSOrigins == defaultOrigins {
		slog.Warn("CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production")
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
