package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ClockModeBlock  = "block"
	ClockModeManual = "manual"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string
	Debug   bool

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// Rate limiting for mutating endpoints, per caller
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Clock: "block" derives heights from wall time, "manual" starts at ClockStart
	ClockMode          string
	ClockGenesis       time.Time
	ClockBlockInterval time.Duration
	ClockStart         int

	// Observability (optional)
	SentryDSN string

	// Reward certificates (optional, S3-compatible: MinIO, AWS S3, Cloudflare R2, etc.)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string
	S3PresignExpiry time.Duration
}

// Load reads the configuration and exits the process if it is invalid.
func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := Parse()
	if err != nil {
		slog.Error("config invalid", "error", err)
		os.Exit(1)
	}

	return cfg
}

// Parse builds a Config from the environment and validates it.
func Parse() (*Config, error) {
	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "goalkeep"),
		AppEnv:  envString("APP_ENV", ""), // Required: 'development' or 'production'
		Port:    envString("PORT", "8090"),
		Debug:   envBool("DEBUG", false),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/goalkeep.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"),

		// Security
		JWTSecret: envString("JWT_SECRET", ""), // Required
		JWTExpiry: envDuration("JWT_EXPIRY", 168*time.Hour),

		// Rate limiting
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   envDuration("RATE_LIMIT_WINDOW", time.Minute),

		// Clock
		ClockMode:          envString("CLOCK_MODE", ClockModeBlock),
		ClockGenesis:       envTime("CLOCK_GENESIS", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		ClockBlockInterval: envDuration("CLOCK_BLOCK_INTERVAL", 10*time.Minute),
		ClockStart:         envInt("CLOCK_START", 1),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Reward certificates
		S3Region:        envString("S3_REGION", "us-east-1"),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 24*time.Hour),
	}

	err := cfg.validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if c.AppEnv == "" {
		errs = append(errs, fmt.Errorf("%w: APP_ENV is required", ErrInvalidConfig))
	}
	if c.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("%w: JWT_SECRET is required", ErrInvalidConfig))
	}
	if c.ClockMode != ClockModeBlock && c.ClockMode != ClockModeManual {
		errs = append(errs, fmt.Errorf("%w: CLOCK_MODE must be %q or %q", ErrInvalidConfig, ClockModeBlock, ClockModeManual))
	}
	if c.ClockStart < 0 {
		errs = append(errs, fmt.Errorf("%w: CLOCK_START must not be negative", ErrInvalidConfig))
	}
	if c.ClockBlockInterval <= 0 {
		errs = append(errs, fmt.Errorf("%w: CLOCK_BLOCK_INTERVAL must be positive", ErrInvalidConfig))
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Errorf("%w: RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive", ErrInvalidConfig))
	}

	// Production heights always come from the block clock
	if c.IsProduction() && c.ClockMode == ClockModeManual {
		errs = append(errs, fmt.Errorf("%w: CLOCK_MODE=manual is not allowed in production", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envTime(key string, def time.Time) time.Time {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		slog.Warn("config invalid RFC3339 time, using default", "key", key, "value", v, "default", def)
		return def
	}
	return t
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// RewardStorageEnabled reports whether reward certificates go to S3.
func (c *Config) RewardStorageEnabled() bool {
	return c.S3Bucket != ""
}
