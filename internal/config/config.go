package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const defaultJWTSecret = "default_jwt_secret"

// Config holds all configuration for our application
type Config struct {
	Port                 string
	Origin               string
	Environment          string
	LogLevel             slog.Level
	JWTSecret            string
	JWTExpirationMinutes int
	Database             DatabaseConfig
	RateLimit            RateLimitConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// RateLimitConfig bounds login and registration attempts per client IP.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load database configuration
	dbConfig := DatabaseConfig{
		Driver:   strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "appointments"),
	}
	if dbConfig.Driver != "mysql" && dbConfig.Driver != "memory" {
		return nil, fmt.Errorf("invalid DB_DRIVER %q: expected mysql or memory", dbConfig.Driver)
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	jwtExpMinutes, err := strconv.Atoi(getEnv("JWT_EXPIRATION_MINUTES", "60"))
	if err != nil || jwtExpMinutes <= 0 {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %q", os.Getenv("JWT_EXPIRATION_MINUTES"))
	}

	rps, err := strconv.ParseFloat(getEnv("AUTH_RATE_LIMIT_RPS", "1"), 64)
	if err != nil || rps <= 0 {
		return nil, fmt.Errorf("invalid AUTH_RATE_LIMIT_RPS: %q", os.Getenv("AUTH_RATE_LIMIT_RPS"))
	}
	burst, err := strconv.Atoi(getEnv("AUTH_RATE_LIMIT_BURST", "5"))
	if err != nil || burst <= 0 {
		return nil, fmt.Errorf("invalid AUTH_RATE_LIMIT_BURST: %q", os.Getenv("AUTH_RATE_LIMIT_BURST"))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "4000"),
		Origin:               getEnv("ORIGIN", "http://localhost:3000"),
		Environment:          getEnv("APP_ENV", "development"),
		LogLevel:             level,
		JWTSecret:            getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpirationMinutes: jwtExpMinutes,
		Database:             dbConfig,
		RateLimit:            RateLimitConfig{RPS: rps, Burst: burst},
	}

	if cfg.IsProduction() && cfg.JWTSecret == defaultJWTSecret {
		return nil, errors.New("JWT_SECRET must be set in production")
	}
	return cfg, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
