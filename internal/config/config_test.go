package config

import (
	"log/slog"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("JWT_EXPIRATION_MINUTES", "60")
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "4000" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.JWTExpirationMinutes != 60 {
		t.Errorf("jwt expiration = %d", cfg.JWTExpirationMinutes)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("log level = %v", cfg.LogLevel)
	}
	if cfg.Database.DSN == "" {
		t.Error("empty DSN")
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"driver", "DB_DRIVER", "postgres"},
		{"expiration", "JWT_EXPIRATION_MINUTES", "soon"},
		{"negative expiration", "JWT_EXPIRATION_MINUTES", "-5"},
		{"rps", "AUTH_RATE_LIMIT_RPS", "fast"},
		{"burst", "AUTH_RATE_LIMIT_BURST", "0"},
		{"log level", "LOG_LEVEL", "verbose"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", defaultJWTSecret)
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for default secret in production")
	}

	t.Setenv("JWT_SECRET", "a-real-secret")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.IsProduction() {
		t.Fatal("expected production mode")
	}
}
