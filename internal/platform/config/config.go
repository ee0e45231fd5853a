package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr              string
	DatabaseURL       string
	JWTSecret         string
	Environment       string
	SeedAdminEmail    string
	SeedAdminPassword string
	RunMigrations     bool
	RunSeed           bool
	MaxBodyBytes      int64
	PaystubDir        string

	// Advance ledger bounds.
	AdvanceCeiling  float64
	AdvanceMaxWeeks int

	// Escrow deposit suggestion knobs.
	EscrowTargetWeeks int
	EscrowMinWeekly   float64
	EscrowMaxWeekly   float64
	MinNetPayFloor    float64

	// Mileage resolver.
	GeocodeTimeout time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	// Batch orchestrator worker bound.
	BatchWorkers int

	MetricsEnabled bool
}

func Load() Config {
	return Config{
		Addr:              getEnv("APP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		Environment:       getEnv("APP_ENV", "development"),
		SeedAdminEmail:    getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
		RunMigrations:     getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:           getEnvBool("RUN_SEED", true),
		MaxBodyBytes:      int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		PaystubDir:        getEnv("PAYSTUB_DIR", "storage/paystubs"),
		AdvanceCeiling:    getEnvFloat("ADVANCE_CEILING", 5000),
		AdvanceMaxWeeks:   getEnvInt("ADVANCE_MAX_WEEKS", 26),
		EscrowTargetWeeks: getEnvInt("ESCROW_TARGET_WEEKS", 6),
		EscrowMinWeekly:   getEnvFloat("ESCROW_MIN_WEEKLY", 50),
		EscrowMaxWeekly:   getEnvFloat("ESCROW_MAX_WEEKLY", 500),
		MinNetPayFloor:    getEnvFloat("MIN_NET_PAY_FLOOR", 500),
		GeocodeTimeout:    getEnvDuration("GEOCODE_TIMEOUT", 5*time.Second),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		BatchWorkers:      getEnvInt("BATCH_WORKERS", 4),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
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

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
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
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.AdvanceCeiling <= 0 {
		return fmt.Errorf("ADVANCE_CEILING must be positive")
	}
	if c.AdvanceMaxWeeks < 1 || c.AdvanceMaxWeeks > 52 {
		return fmt.Errorf("ADVANCE_MAX_WEEKS must be between 1 and 52")
	}
	if c.EscrowTargetWeeks < 1 {
		return fmt.Errorf("ESCROW_TARGET_WEEKS must be at least 1")
	}
	if c.EscrowMaxWeekly < c.EscrowMinWeekly {
		return fmt.Errorf("ESCROW_MAX_WEEKLY must not be below ESCROW_MIN_WEEKLY")
	}
	if c.GeocodeTimeout <= 0 {
		return fmt.Errorf("GEOCODE_TIMEOUT must be positive")
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be at least 1")
	}
	return nil
}
