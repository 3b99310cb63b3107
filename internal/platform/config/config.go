package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Addr           string
	Environment    string
	StoreDriver    string
	DatabaseURL    string
	MongoURI       string
	MongoDatabase  string
	JWTSecret      string
	MigrationsDir  string
	RunMigrations  bool
	RunSeed        bool
	SeedAdminID    string
	SeedAdminName  string
	InvoiceDueDays int
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string
	MetricsEnabled bool
	// RateLimitPerMinute caps engine mutations per actor; zero disables it.
	RateLimitPerMinute int
}

// Load reads .env (when present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("dotenv load failed", "err", err)
	}
	return Config{
		Addr:           getEnv("APP_ADDR", ":8080"),
		Environment:    getEnv("APP_ENV", "development"),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MongoURI:       getEnv("MONGO_URI", ""),
		MongoDatabase:  getEnv("MONGO_DATABASE", "schoolops"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),
		RunMigrations:  getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:        getEnvBool("RUN_SEED", false),
		SeedAdminID:    getEnv("SEED_ADMIN_ID", "admin"),
		SeedAdminName:  getEnv("SEED_ADMIN_NAME", "School Administrator"),
		InvoiceDueDays: getEnvInt("INVOICE_DUE_DAYS", 30),
		MaxBodyBytes:   int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case DriverMongo:
		if strings.TrimSpace(c.MongoURI) == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of memory, postgres, mongo")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.StoreDriver == DriverMemory {
			return fmt.Errorf("the memory store cannot be used in production")
		}
	}
	if c.InvoiceDueDays <= 0 {
		return fmt.Errorf("INVOICE_DUE_DAYS must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	return nil
}
