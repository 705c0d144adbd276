// Package config reads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	// DatabaseURL empty runs the server on the in-memory store.
	DatabaseURL       string
	DBMaxConns        int
	DBMinConns        int
	MigrationsEnabled bool

	JWTSecret    string
	AuthRequired bool

	// ApproverRoles gates quotation status changes; empty leaves them open.
	ApproverRoles []string

	IdempotencyEnabled bool
	IdempotencyTTL     time.Duration

	// NumberingStrategy is "strict" (gapless) or "cached" (reserves ranges, may leave gaps).
	NumberingStrategy string

	// SnapshotCompressThreshold is the history payload size in bytes above which zstd is used.
	SnapshotCompressThreshold int

	ShutdownTimeout time.Duration
}

// Development reports whether APP_ENV is development.
func (c Config) Development() bool {
	return c.Env == "development"
}

// Load reads .env (when present) and the environment.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := loadDotEnv(getEnv("DOTENV_PATH", ".env")); err != nil {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}

	cfg := Config{
		Env:                       getEnv("APP_ENV", "development"),
		Port:                      getEnv("APP_PORT", "8080"),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		DatabaseURL:               os.Getenv("DATABASE_URL"),
		DBMaxConns:                getEnvInt("DB_MAX_CONNS", 20),
		DBMinConns:                getEnvInt("DB_MIN_CONNS", 2),
		MigrationsEnabled:         getEnvBool("MIGRATIONS_ENABLED", true),
		JWTSecret:                 os.Getenv("JWT_SECRET"),
		AuthRequired:              getEnvBool("AUTH_REQUIRED", false),
		ApproverRoles:             getEnvList("APPROVER_ROLES"),
		IdempotencyEnabled:        getEnvBool("IDEMPOTENCY_ENABLED", true),
		IdempotencyTTL:            getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		NumberingStrategy:         getEnv("NUMBERING_STRATEGY", "strict"),
		SnapshotCompressThreshold: getEnvInt("SNAPSHOT_COMPRESS_THRESHOLD", 8*1024),
		ShutdownTimeout:           getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	return cfg, cfg.validate()
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (c Config) validate() error {
	var problems []string
	if c.AuthRequired && c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required when AUTH_REQUIRED=true")
	}
	if len(c.ApproverRoles) > 0 && c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required when APPROVER_ROLES is set")
	}
	if c.DBMinConns > c.DBMaxConns {
		problems = append(problems, "DB_MIN_CONNS must not exceed DB_MAX_CONNS")
	}
	if c.NumberingStrategy != "strict" && c.NumberingStrategy != "cached" {
		problems = append(problems, "NUMBERING_STRATEGY must be strict or cached")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
