package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries the runtime settings of the import service.
type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppPort string

	// Database
	DBHost     string
	DBPort     string
	DBDatabase string
	DBUsername string
	DBPassword string

	// Upload
	UploadMaxSize int

	// ReconcileTolerance is the possible-duplicate amount tolerance. It is
	// policy, not contract, so deployments may tune it.
	ReconcileTolerance float64
}

// Load reads configuration from the environment, with a .env file as the
// development-time source.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppName: getEnv("APP_NAME", "Statement Import"),
		AppEnv:  getEnv("APP_ENV", "development"),
		AppPort: getEnv("APP_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBDatabase: getEnv("DB_DATABASE", "ledger"),
		DBUsername: getEnv("DB_USERNAME", "ledger"),
		DBPassword: getEnv("DB_PASSWORD", ""),

		UploadMaxSize:      getEnvAsInt("UPLOAD_MAX_SIZE", 32<<20),
		ReconcileTolerance: getEnvAsFloat("RECONCILE_TOLERANCE", 0.02),
	}

	if cfg.ReconcileTolerance <= 0 {
		return nil, fmt.Errorf("RECONCILE_TOLERANCE must be positive, got %f", cfg.ReconcileTolerance)
	}
	return cfg, nil
}

// GetDSN builds the MySQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4",
		c.DBUsername, c.DBPassword, c.DBHost, c.DBPort, c.DBDatabase)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
