package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port              string
	DatabaseURL       string
	StorageDriver     string
	JWTSecret         string
	JWTExpiresMinutes int

	LogLevel  string
	LogFormat string

	StockMaxAttempts   int
	PaymentTolerance   float64
	DraftRetention     time.Duration
	DraftSweepInterval time.Duration

	// Bootstrap seeds one all-permissions employee into in-memory storage.
	Bootstrap Bootstrap
}

type Bootstrap struct {
	TenantID     string
	Email        string
	PasswordHash string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		StorageDriver:     strings.ToLower(getEnv("STORAGE_DRIVER", DriverPostgres)),
		JWTSecret:         getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTExpiresMinutes: getEnvInt("JWT_EXPIRES_MINUTES", 60),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		StockMaxAttempts:   getEnvInt("STOCK_MAX_ATTEMPTS", 5),
		PaymentTolerance:   getEnvFloat("PAYMENT_TOLERANCE", 0.1),
		DraftRetention:     getEnvDuration("DRAFT_RETENTION", time.Hour),
		DraftSweepInterval: getEnvDuration("DRAFT_SWEEP_INTERVAL", 10*time.Minute),

		Bootstrap: Bootstrap{
			TenantID:     getEnv("BOOTSTRAP_TENANT", "default"),
			Email:        getEnv("BOOTSTRAP_EMAIL", ""),
			PasswordHash: getEnv("BOOTSTRAP_PASSWORD_HASH", ""),
		},
	}

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return cfg, errors.New("DATABASE_URL is required")
		}
	case DriverMemory:
	default:
		return cfg, errors.New("STORAGE_DRIVER must be postgres or memory")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
