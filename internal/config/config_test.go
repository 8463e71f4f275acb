package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "HTTP_PORT", "STORAGE_BACKEND", "SESSION_TTL", "CORS_ALLOWED_ORIGINS", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_IDS", "REDIS_URI"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.HTTPPort != "8080" || cfg.StorageBackend != StorageMongo {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.Delivery.IsEnabled() {
		t.Error("delivery should be disabled without a token")
	}
	if cfg.IsProduction() {
		t.Error("default env should not be production")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("REDIS_URI", "redis://cache:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_IDS", "-100,42")
	t.Setenv("DELIVERY_TIMEOUT_MS", "2500")

	cfg := Load()
	if !cfg.IsProduction() || cfg.StorageBackend != StorageMemory {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.SessionTTL != 90*time.Minute {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.RedisAddr != "cache:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}

	d := cfg.Delivery
	if !d.IsEnabled() || len(d.ChatIDs) != 2 {
		t.Errorf("delivery = %+v", d)
	}
	if d.Timeout() != 2500*time.Millisecond {
		t.Errorf("Timeout = %v", d.Timeout())
	}
	if got := d.MethodEndpoint("sendDocument"); got != "https://api.telegram.org/bot123:abc/sendDocument" {
		t.Errorf("MethodEndpoint = %q", got)
	}
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	t.Setenv("DELIVERY_MAX_RETRIES", "many")
	t.Setenv("CHART_MAX_SCORE", "x")

	cfg := Load()
	if cfg.SessionTTL != 24*time.Hour || cfg.Delivery.MaxRetries != 3 || cfg.ChartMaxScore != 4 {
		t.Errorf("fallbacks not applied: ttl=%v retries=%d max=%v", cfg.SessionTTL, cfg.Delivery.MaxRetries, cfg.ChartMaxScore)
	}
}
