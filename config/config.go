package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"

	devJWTSecret = "dev-secret-change-me"
)

type Config struct {
	Port        string
	MongoURI    string
	Database    string
	StoreDriver string

	JWTSecret string
	TokenTTL  time.Duration

	GinMode   string
	LogLevel  string
	LogFormat string

	AllowedOrigins     []string
	RateLimitPerMinute int
	RateLimitBurst     int
	StoreTimeout       time.Duration
}

// Load reads the given dotenv files (missing ones are skipped), then the
// process environment, and validates the result. Variables already set in the
// environment win over dotenv values.
func Load(envFiles ...string) (*Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		MongoURI:    getEnv("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		Database:    getEnv("MONGODB_DATABASE", "blog"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS",
			"http://localhost:3000,http://localhost:8080")),
	}

	var err error
	if cfg.TokenTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.StoreTimeout, err = getDuration("STORE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", 60); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverMongo, DriverMemory, c.StoreDriver)
	}
	if c.JWTSecret == "" {
		if c.IsRelease() {
			return errors.New("JWT_SECRET must be set in release mode")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.StoreDriver == DriverMongo && c.MongoURI == "" {
		return errors.New("MONGODB_URI must be set")
	}
	if c.TokenTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.RateLimitPerMinute < 0 || c.RateLimitBurst < 0 {
		return errors.New("rate limit settings must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
