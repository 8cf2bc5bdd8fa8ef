package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	os.Unsetenv("ENVIRONMENT")
	os.Unsetenv("ACCESS_TOKEN_TTL")
	os.Unsetenv("BCRYPT_COST")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Auth.AccessTokenTTL != 30*time.Minute {
		t.Errorf("Expected default token TTL 30m, got %v", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Auth.BCryptCost != 12 {
		t.Errorf("Expected default bcrypt cost 12, got %d", cfg.Auth.BCryptCost)
	}
	if cfg.Database.Name != "task_tracker" {
		t.Errorf("Expected default database name task_tracker, got %s", cfg.Database.Name)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("ACCESS_TOKEN_TTL", "15m")
	os.Setenv("RATE_LIMIT_ENABLED", "false")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ACCESS_TOKEN_TTL")
		os.Unsetenv("RATE_LIMIT_ENABLED")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != "9000" {
		t.Errorf("Expected port 9000, got %s", cfg.Server.Port)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Errorf("Expected token TTL 15m, got %v", cfg.Auth.AccessTokenTTL)
	}
	if cfg.RateLimit.Enabled {
		t.Error("Expected rate limiting to be disabled")
	}
}

func TestLoadConfig_ProductionGuards(t *testing.T) {
	os.Setenv("ENVIRONMENT", "production")
	defer os.Unsetenv("ENVIRONMENT")

	// Production without a JWT secret or DB password must refuse to start.
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("DB_PASSWORD")

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected production config without secrets to fail")
	}

	os.Setenv("JWT_SECRET", "a-real-secret")
	os.Setenv("DB_PASSWORD", "a-real-password")
	defer func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("DB_PASSWORD")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected production config with secrets to load, got %v", err)
	}
	if !cfg.IsProduction() {
		t.Error("Expected IsProduction to be true")
	}
}

func TestConfig_Addresses(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetServerAddr() != cfg.Server.Host+":"+cfg.Server.Port {
		t.Errorf("Unexpected server addr %s", cfg.GetServerAddr())
	}
	if cfg.GetRedisAddr() != cfg.Redis.Host+":"+cfg.Redis.Port {
		t.Errorf("Unexpected redis addr %s", cfg.GetRedisAddr())
	}
}
